package sourcereader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elmtools/lsp-core/internal/corelog"
)

func TestWatcherDeliversCreateEvent(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher([]string{dir}, corelog.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := w.Start(20 * time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}

	path := filepath.Join(dir, "New.elm")
	if err := os.WriteFile(path, []byte("module New exposing (..)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events():
		if ev.URI != toURI(path) {
			t.Errorf("URI = %q, want %q", ev.URI, toURI(path))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a watcher event")
	}
}
