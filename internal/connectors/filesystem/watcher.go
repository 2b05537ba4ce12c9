package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/chunklink-cli/internal/logger"
)

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// Watcher reports files created or rewritten directly inside a directory.
// A path is reported once it has been quiet for the debounce interval, so a
// file written in several chunks is processed once.
type Watcher struct {
	root     string
	debounce time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for root.
func NewWatcher(root string, debounce time.Duration) *Watcher {
	if debounce < 0 {
		debounce = 0
	}
	return &Watcher{root: root, debounce: debounce}
}

type ready struct {
	path string
	gen  int
}

// Watch starts watching and returns a channel of settled file paths.
// The channel is closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWatcherClosed
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.watcher = fw

	out := make(chan string)
	go w.loop(ctx, fw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- string) {
	defer close(out)

	done := make(chan struct{})
	readyCh := make(chan ready)
	timers := make(map[string]*time.Timer)
	gens := make(map[string]int)
	defer func() {
		close(done)
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			path, ok := w.handleFsEvent(ev)
			if !ok {
				continue
			}
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			gens[path]++
			r := ready{path: path, gen: gens[path]}
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case readyCh <- r:
				case <-done:
				}
			})

		case r := <-readyCh:
			if gens[r.path] != r.gen {
				continue
			}
			delete(timers, r.path)
			delete(gens, r.path)
			logger.Debug("watch: %s settled", r.path)
			select {
			case out <- r.path:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleFsEvent returns the path to process for ev, if any.
// Only creates and writes of visible regular files directly inside the
// root are reported.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	if filepath.Clean(filepath.Dir(ev.Name)) != filepath.Clean(w.root) {
		return "", false
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return "", false
	}
	if !isRegularFile(ev.Name) {
		return "", false
	}
	return ev.Name, true
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
