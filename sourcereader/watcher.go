package sourcereader

import (
	"os"
	"time"

	"github.com/radovskyb/watcher"

	"github.com/elmtools/lsp-core/coreerr"
	"github.com/elmtools/lsp-core/internal/corelog"
)

// ChangeKind classifies a filesystem event delivered by a Watcher.
type ChangeKind uint8

const (
	Created ChangeKind = iota
	Modified
	Removed
)

// Change is one filesystem event translated into the forest's vocabulary:
// an (uri, kind) pair, with Bytes populated for Created/Modified (spec.md
// §4.4: "watch them for create/delete/modify events").
type Change struct {
	URI   string
	Kind  ChangeKind
	Bytes []byte
}

// Watcher watches a set of writeable source directories for changes and
// delivers them as Change values. There is no file-watching code in the
// teacher repository -- golang-dep resolves dependencies once per
// invocation and exits -- so this is new code, using radovskyb/watcher
// (the polling-based watch library in the retrieval pack) rather than
// hand-rolling an fsnotify wrapper.
type Watcher struct {
	w      *watcher.Watcher
	log    *corelog.Logger
	events chan Change
}

// NewWatcher constructs a Watcher over dirs, each watched recursively.
// Only files carrying fileExtension are delivered.
func NewWatcher(dirs []string, log *corelog.Logger) (*Watcher, error) {
	w := watcher.New()
	w.FilterOps(watcher.Write, watcher.Create, watcher.Remove, watcher.Rename, watcher.Move)

	for _, dir := range dirs {
		if err := w.AddRecursive(dir); err != nil {
			return nil, coreerr.Wrap(coreerr.KindProjectMisconfigured, err, "watching "+dir)
		}
	}

	return &Watcher{w: w, log: log, events: make(chan Change, 64)}, nil
}

// Events returns the channel Change values are delivered on.
func (sw *Watcher) Events() <-chan Change { return sw.events }

// Start begins polling at the given interval, translating raw watcher
// events into Change values until Close is called. Runs in its own
// goroutine; callers read from Events().
func (sw *Watcher) Start(interval time.Duration) error {
	go sw.pump()
	go func() {
		if err := sw.w.Start(interval); err != nil {
			sw.log.Errorf("source watcher stopped: %v", err)
		}
	}()
	return nil
}

func (sw *Watcher) pump() {
	defer close(sw.events)
	for {
		select {
		case ev, ok := <-sw.w.Event:
			if !ok {
				return
			}
			if ev.IsDir() {
				continue
			}
			if !hasElmExtension(ev.Path) {
				continue
			}
			sw.events <- translate(ev)
		case err, ok := <-sw.w.Error:
			if !ok {
				return
			}
			sw.log.Errorf("source watcher error: %v", err)
		case <-sw.w.Closed:
			return
		}
	}
}

func translate(ev watcher.Event) Change {
	kind := Modified
	switch ev.Op {
	case watcher.Create:
		kind = Created
	case watcher.Remove:
		kind = Removed
	case watcher.Rename, watcher.Move:
		kind = Modified
	case watcher.Write:
		kind = Modified
	}

	c := Change{URI: toURI(ev.Path), Kind: kind}
	if kind != Removed {
		if bytes, err := readFileBytes(ev.Path); err == nil {
			c.Bytes = bytes
		}
	}
	return c
}

// Close stops the underlying watcher and its goroutines.
func (sw *Watcher) Close() { sw.w.Close() }

func hasElmExtension(path string) bool {
	return len(path) > len(fileExtension) && path[len(path)-len(fileExtension):] == fileExtension
}

func readFileBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}
