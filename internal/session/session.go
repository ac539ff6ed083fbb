package session

import "voicefx-bot/internal/effects"

// Session holds the per-user pending state between a menu selection and the
// next voice message. Overwritten wholesale on every selection, never merged.
type Session struct {
	PendingEffect effects.Effect `json:"pendingEffect"`

	// ReplyTarget is the chat the transformed voice message should be
	// delivered to: the originating chat for direct selections, the user's
	// private chat for inline ones.
	ReplyTarget int64 `json:"replyTarget"`
}

// Default returns the session used when a user has no stored entry.
func Default() Session {
	return Session{PendingEffect: effects.None}
}

// Store is the per-user session mapping. Writes are last-write-wins full
// overwrites. Get never fails: implementations degrade to Default() when the
// backing store is unreadable.
type Store interface {
	Get(userID int64) Session
	Set(userID int64, s Session) error
	Clear(userID int64) error
	Close() error
}

// Options selects and configures a Store implementation.
type Options struct {
	Type      string // "file", "memory" or "redis"
	FilePath  string // path to the JSON file for file storage
	RedisAddr string // host:port for redis storage
}
