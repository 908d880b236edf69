package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherFiresOnDataFileWrite(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(dataPath, []byte("{}"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	fired := make(chan struct{}, 1)
	w, err := New(dataPath, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.debounce = 50 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// Atomic-rename write, the way the store persists.
	tmp := dataPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(`{"tasks":[]}`), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	if err := os.Rename(tmp, dataPath); err != nil {
		t.Fatalf("renaming temp file: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never fired after a data file write")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(dataPath, []byte("{}"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	fired := make(chan struct{}, 1)
	w, err := New(dataPath, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.debounce = 50 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("writing unrelated file: %v", err)
	}

	select {
	case <-fired:
		t.Error("watcher fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}
