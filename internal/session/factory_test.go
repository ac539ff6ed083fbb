package session

import (
	"path/filepath"
	"testing"
)

func TestNewStore_FileDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	for _, storeType := range []string{"", "file"} {
		store, err := NewStore(Options{Type: storeType, FilePath: path})
		if err != nil {
			t.Fatalf("NewStore(%q) failed: %v", storeType, err)
		}
		store.Close()
	}
}

func TestNewStore_FileRequiresPath(t *testing.T) {
	if _, err := NewStore(Options{Type: "file"}); err == nil {
		t.Error("NewStore should fail without a file path")
	}
}

func TestNewStore_Memory(t *testing.T) {
	store, err := NewStore(Options{Type: "memory"})
	if err != nil {
		t.Fatalf("NewStore(memory) failed: %v", err)
	}
	store.Close()
}

func TestNewStore_RedisRequiresAddr(t *testing.T) {
	if _, err := NewStore(Options{Type: "redis"}); err == nil {
		t.Error("NewStore should fail without a redis address")
	}
}

func TestNewStore_UnsupportedType(t *testing.T) {
	if _, err := NewStore(Options{Type: "sqlite"}); err == nil {
		t.Error("NewStore should fail for unsupported types")
	}
}
