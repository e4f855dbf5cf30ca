// Package watcher implements the incremental, filesystem-event-driven
// updater that reconciles single-file create/modify/delete/rename
// events with the Store, per the §4.3 event mapping table.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/localindex/gofind/internal/coreerrors"
	"github.com/localindex/gofind/internal/ignore"
	"github.com/localindex/gofind/internal/store"
	"github.com/localindex/gofind/pkg/log"
)

// ErrEventOverflow is synthesized whenever the notification subsystem
// reports an error for a watched root. fsnotify doesn't expose
// inotify's IN_Q_OVERFLOW the way the raw syscall does on Linux, so any
// reported error is treated as a dropped-event condition and triggers
// a full rescan of the affected root.
var ErrEventOverflow = errors.New("watcher: notification subsystem reported an error; rescan required")

const renameWindow = 100 * time.Millisecond

// Callbacks wires a Watcher's event mapping to the owning
// Coordinator's Store mutations and Scanner pool.
type Callbacks struct {
	Upsert            func(ctx context.Context, in store.UpsertInput) error
	DeleteSubtree     func(ctx context.Context, path string) error
	Rename            func(ctx context.Context, oldPath, newPath string) error
	RescanDirectory   func(dirPath string)
	RequestFullRescan func(root string)
	Ignores           func() *ignore.Set
}

// Watcher subscribes to filesystem change notifications for one root
// and translates them into Store mutations.
type Watcher struct {
	root     string
	cb       Callbacks
	debounce time.Duration
	log      log.LoggerService

	fsw     *fsnotify.Watcher
	renames *renameTracker

	mu     sync.Mutex
	timers map[string]*time.Timer
	// actors serializes events for a given path (per-path FIFO) while
	// leaving different paths free to apply concurrently, per §5(b).
	// TODO: entries are never evicted; a long watch over a high-churn
	// tree will grow this map without bound.
	actors map[string]*sync.Mutex

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a Watcher for root, not yet subscribed to any
// directories.
func New(root string, debounce time.Duration, cb Callbacks, logger log.LoggerService) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		cb:       cb,
		debounce: debounce,
		log:      logger,
		fsw:      fsw,
		timers:   make(map[string]*time.Timer),
		actors:   make(map[string]*sync.Mutex),
		stop:     make(chan struct{}),
	}
	w.renames = newRenameTracker(renameWindow, w.handleRenameTimeout)
	return w, nil
}

// Start registers every directory under root — the Scanner has already
// populated the Store for them by the time the Coordinator calls this —
// and begins pumping fsnotify events on a dedicated goroutine. The
// Coordinator only calls Start after the bulk scan's final commit, so
// per §5(a) no event is lost between scan completion and watch start.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.registerTree(w.root); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.pump(ctx)
	return nil
}

// Stop unsubscribes and waits for the pump goroutine to exit.
func (w *Watcher) Stop() error {
	close(w.stop)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) registerTree(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watcher: watch directory %q: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.Warn("watcher: read directory %q: %v", dir, err)
		return nil
	}

	ignores := w.cb.Ignores()
	for _, e := range entries {
		if !e.IsDir() || e.Type()&os.ModeSymlink != 0 {
			continue
		}
		childPath := filepath.Join(dir, e.Name())
		if ignores.MatchesPath(childPath) {
			continue
		}
		if err := w.registerTree(childPath); err != nil {
			w.log.Warn("watcher: register subtree %q: %v", childPath, err)
		}
	}
	return nil
}

func (w *Watcher) pump(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			cerr := coreerrors.New(coreerrors.NotificationOverflow,
				fmt.Sprintf("watcher(%s)", w.root), fmt.Errorf("%w: %v", ErrEventOverflow, err))
			w.log.Error("%v", cerr)
			w.cb.RequestFullRescan(w.root)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if w.cb.Ignores().MatchesPath(ev.Name) {
		return
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		if pr := w.renames.matchCreate(ev.Name); pr != nil {
			w.applyRename(pr.oldPath, ev.Name)
			return
		}
		w.debounced(ev.Name, func() { w.applyUpsert(ev.Name) })

	case ev.Op&fsnotify.Write != 0:
		w.debounced(ev.Name, func() { w.applyUpsert(ev.Name) })

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		w.renames.trackRemoval(ev.Name)
	}
}

// debounced collapses a burst of events on the same path into one
// call, canceling and resetting a per-path timer on each new event.
func (w *Watcher) debounced(path string, fn func()) {
	w.mu.Lock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.applyFIFO(path, fn)
	})
	w.mu.Unlock()
}

func (w *Watcher) applyFIFO(path string, fn func()) {
	w.mu.Lock()
	actor, ok := w.actors[path]
	if !ok {
		actor = &sync.Mutex{}
		w.actors[path] = actor
	}
	w.mu.Unlock()

	actor.Lock()
	defer actor.Unlock()
	fn()
}

func (w *Watcher) applyUpsert(path string) {
	info, err := os.Lstat(path)
	if err != nil {
		return
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return
	}

	ctx := context.Background()
	parent := filepath.Dir(path)
	in := store.UpsertInput{
		Path:       path,
		Name:       info.Name(),
		MTime:      mtimeSeconds(info),
		ParentPath: &parent,
	}

	if info.IsDir() {
		in.Kind = store.KindDirectory
		if err := w.cb.Upsert(ctx, in); err != nil {
			w.log.Error("watcher: upsert directory %q: %v", path, err)
			return
		}
		if err := w.registerTree(path); err != nil {
			w.log.Warn("watcher: register new directory %q: %v", path, err)
		}
		// Per §4.3, a newly created directory's contents are not indexed
		// here; RescanDirectory hands them to a shallow Scanner rescan.
		w.cb.RescanDirectory(path)
		return
	}

	in.Kind = store.KindFile
	in.Size = info.Size()
	if err := w.cb.Upsert(ctx, in); err != nil {
		w.log.Error("watcher: upsert %q: %v", path, err)
	}
}

func (w *Watcher) applyRename(oldPath, newPath string) {
	ctx := context.Background()
	if err := w.cb.Rename(ctx, oldPath, newPath); err != nil {
		w.log.Error("watcher: rename %q -> %q: %v", oldPath, newPath, err)
		return
	}
	if info, err := os.Lstat(newPath); err == nil && info.IsDir() {
		if err := w.registerTree(newPath); err != nil {
			w.log.Warn("watcher: register renamed directory %q: %v", newPath, err)
		}
	}
}

func (w *Watcher) handleRenameTimeout(pr *pendingRename) {
	ctx := context.Background()
	if err := w.cb.DeleteSubtree(ctx, pr.oldPath); err != nil {
		w.log.Error("watcher: delete %q: %v", pr.oldPath, err)
	}
}

func mtimeSeconds(info os.FileInfo) float64 {
	return float64(info.ModTime().UnixNano()) / 1e9
}
