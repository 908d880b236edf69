// Package watch monitors the data file for out-of-process edits and
// triggers a projection resync when it changes. Another dispatch process
// writing the same file is the normal case, not an error.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher observes one data file and invokes onChange after writes
// settle. Atomic-rename writers produce create+rename bursts, so the
// watcher listens on the parent directory and debounces.
type Watcher struct {
	dataPath string
	onChange func()
	debounce time.Duration

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a watcher for the given data file. onChange runs on the
// watcher goroutine; keep it quick or hand off.
func New(dataPath string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		dataPath: filepath.Clean(dataPath),
		onChange: onChange,
		debounce: defaultDebounce,
		watcher:  fsw,
	}, nil
}

// Start begins watching. Returns once the event loop is running.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.dataPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.eventLoop(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	_ = w.watcher.Close()
	w.wg.Wait()
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Transient watch errors resolve on the next event; nothing
			// useful to do here without a logger wired in.

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevant filters directory noise down to events touching the data
// file, its checksum sidecar, or the temp files that get renamed over
// them.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == w.dataPath || strings.HasPrefix(name, w.dataPath+".")
}
