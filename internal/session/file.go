package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// fileStore implements Store using a single JSON file rewritten wholesale on
// every mutation.
type fileStore struct {
	mu sync.RWMutex

	filePath string
	sessions map[int64]Session
}

// NewFileStore creates a file-backed store. An unreadable or corrupt file is
// logged and replaced with an empty map so handlers keep working.
func NewFileStore(filePath string) (Store, error) {
	store := &fileStore{
		filePath: filePath,
		sessions: make(map[int64]Session),
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Session file %s unreadable, starting with empty sessions: %v", filePath, err)
	}

	return store, nil
}

func (f *fileStore) load() error {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return err
	}

	var stored struct {
		Sessions map[int64]Session `json:"sessions"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	if stored.Sessions != nil {
		f.sessions = stored.Sessions
	}
	return nil
}

// saveLocked writes the whole record set to disk. Caller must hold the lock.
func (f *fileStore) saveLocked() error {
	stored := struct {
		Sessions map[int64]Session `json:"sessions"`
	}{
		Sessions: f.sessions,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	// Write to a temporary file first, then rename (atomic replace).
	tmpPath := f.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, f.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// Get returns the stored session or the default one. It never fails.
func (f *fileStore) Get(userID int64) Session {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if s, ok := f.sessions[userID]; ok {
		return s
	}
	return Default()
}

// Set overwrites the user's session and persists synchronously.
func (f *fileStore) Set(userID int64, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sessions[userID] = s
	return f.saveLocked()
}

// Clear removes the user's session entry.
func (f *fileStore) Clear(userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.sessions[userID]; !ok {
		return nil
	}
	delete(f.sessions, userID)
	return f.saveLocked()
}

func (f *fileStore) Close() error {
	return nil
}
