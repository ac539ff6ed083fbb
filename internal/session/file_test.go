package session

import (
	"os"
	"path/filepath"
	"testing"

	"voicefx-bot/internal/effects"
)

func createTempFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "sessions.json")
}

func TestFileStore_GetMissingReturnsDefault(t *testing.T) {
	store, err := NewFileStore(createTempFile(t))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer store.Close()

	got := store.Get(42)
	if got.PendingEffect != effects.None {
		t.Errorf("default session should have no pending effect, got %s", got.PendingEffect)
	}
	if got.ReplyTarget != 0 {
		t.Errorf("default session should have zero reply target, got %d", got.ReplyTarget)
	}
}

func TestFileStore_SetAndGet(t *testing.T) {
	path := createTempFile(t)
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer store.Close()

	want := Session{PendingEffect: effects.Echo, ReplyTarget: 1001}
	if err := store.Set(42, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if got := store.Get(42); got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	// Set persists synchronously.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("session file should exist after Set: %v", err)
	}
}

func TestFileStore_LastWriteWins(t *testing.T) {
	store, err := NewFileStore(createTempFile(t))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer store.Close()

	first := Session{PendingEffect: effects.Echo, ReplyTarget: 1}
	second := Session{PendingEffect: effects.Reverb, ReplyTarget: 2}

	if err := store.Set(42, first); err != nil {
		t.Fatalf("first Set failed: %v", err)
	}
	if err := store.Set(42, second); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	if got := store.Get(42); got != second {
		t.Errorf("Get = %+v, want the second write %+v", got, second)
	}
}

func TestFileStore_Clear(t *testing.T) {
	store, err := NewFileStore(createTempFile(t))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Set(42, Session{PendingEffect: effects.Robotize, ReplyTarget: 7}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Clear(42); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if got := store.Get(42); got.PendingEffect != effects.None {
		t.Errorf("cleared session should be default, got %+v", got)
	}
}

func TestFileStore_ClearMissingIsNoop(t *testing.T) {
	store, err := NewFileStore(createTempFile(t))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Clear(42); err != nil {
		t.Errorf("Clear of missing entry should succeed, got: %v", err)
	}
}

func TestFileStore_PersistsAcrossReload(t *testing.T) {
	path := createTempFile(t)

	store1, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	want := Session{PendingEffect: effects.SpeedUp, ReplyTarget: 555}
	if err := store1.Set(42, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	store1.Close()

	store2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed on reload: %v", err)
	}
	defer store2.Close()

	if got := store2.Get(42); got != want {
		t.Errorf("reloaded Get = %+v, want %+v", got, want)
	}
}

func TestFileStore_CorruptFileDegradesToDefault(t *testing.T) {
	path := createTempFile(t)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore should not fail on corrupt file: %v", err)
	}
	defer store.Close()

	if got := store.Get(42); got.PendingEffect != effects.None {
		t.Errorf("corrupt store should degrade to default session, got %+v", got)
	}

	// The store stays usable for writes after degrading.
	if err := store.Set(42, Session{PendingEffect: effects.Echo, ReplyTarget: 1}); err != nil {
		t.Errorf("Set after corrupt load failed: %v", err)
	}
}

func TestFileStore_NoLeftoverTempFile(t *testing.T) {
	path := createTempFile(t)
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Set(42, Session{PendingEffect: effects.Echo}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file should be renamed away, stat error=%v", err)
	}
}
