package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the watcher waits after the last create
// notification before handing files to the workers. SDK writers rename
// completed batches into the inbox, so the window only has to cover the
// rename itself.
const defaultDebounce = 200 * time.Millisecond

// ingestWorkers is how many inbox files are decoded at once. Events
// within one file keep their recorded order; ordering across files is
// whatever order the workers finish in.
const ingestWorkers = 4

// ingestQueueDepth buffers paths between the debounce flush and the
// workers. Kept well above ingestWorkers so a directory full of batches
// does not stall the flush.
const ingestQueueDepth = 200

// defaultPollInterval is the fallback scan cadence when inotify cannot
// be used.
const defaultPollInterval = 5 * time.Second

// InboxWatcher watches a directory for new .jsonl event files using
// fsnotify.
type InboxWatcher struct {
	inbox    string
	handler  func(path string)
	debounce time.Duration
}

// NewInboxWatcher creates a watcher for the inbox directory.
func NewInboxWatcher(inbox string, handler func(path string)) *InboxWatcher {
	return &InboxWatcher{
		inbox:    inbox,
		handler:  handler,
		debounce: defaultDebounce,
	}
}

// Run watches the inbox for new .jsonl files. Blocks until ctx is
// cancelled.
func (w *InboxWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.inbox); err != nil {
		return err
	}

	// Paths accumulate in pending while notifications keep arriving; one
	// shared timer restarts on every create and flushes the whole set
	// when it expires. Per-file timers would turn a burst of batch
	// renames into a burst of goroutines.
	var mu sync.Mutex
	pending := make(map[string]bool)

	queue := make(chan string, ingestQueueDepth)

	// The workers are the only goroutines besides this loop.
	var wg sync.WaitGroup
	for i := 0; i < ingestWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range queue {
				func() {
					defer func() {
						if r := recover(); r != nil {
							_ = r
						}
					}()
					w.handler(path)
				}()
			}
		}()
	}

	// flush drains the pending set into the work queue.
	flush := func() {
		mu.Lock()
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		pending = make(map[string]bool)
		mu.Unlock()

		for _, p := range batch {
			select {
			case queue <- p:
			case <-ctx.Done():
				return
			}
		}
	}

	// The shared timer starts stopped; the first notification arms it.
	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()

	defer func() {
		debounceTimer.Stop()
		flush()
		close(queue)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounceTimer.C:
			flush()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if !isEventFile(ev.Name) {
				continue
			}

			mu.Lock()
			pending[ev.Name] = true
			mu.Unlock()

			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = err
		}
	}
}

// PollWatcher scans the inbox on a fixed interval instead of relying on
// inotify. For filesystems that do not deliver notifications, NFS being
// the usual offender.
type PollWatcher struct {
	inbox    string
	handler  func(path string)
	interval time.Duration
	seen     map[string]bool
}

// NewPollWatcher creates a polling-based watcher.
func NewPollWatcher(inbox string, handler func(path string), interval time.Duration) *PollWatcher {
	if interval == 0 {
		interval = defaultPollInterval
	}
	return &PollWatcher{
		inbox:    inbox,
		handler:  handler,
		interval: interval,
		seen:     make(map[string]bool),
	}
}

// Run polls the inbox directory. Blocks until ctx is cancelled.
func (w *PollWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.scan()
		}
	}
}

// scan hands any unseen event file to the handler.
func (w *PollWatcher) scan() {
	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.inbox, e.Name())
		if !isEventFile(path) {
			continue
		}
		if w.seen[path] {
			continue
		}
		w.seen[path] = true
		w.handler(path)
	}
}

// ScanExisting hands over event files already sitting in the inbox,
// typically ones that arrived while the daemon was down. Runs once at
// startup before the watcher takes over.
func ScanExisting(inbox string, handler func(path string)) error {
	entries, err := os.ReadDir(inbox)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(inbox, e.Name())
		if isEventFile(path) {
			handler(path)
		}
	}
	return nil
}

// isEventFile reports whether the path names a finished event-stream
// file. In-progress writes carry a .tmp suffix until renamed.
func isEventFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".jsonl") && !strings.HasSuffix(name, ".tmp")
}
