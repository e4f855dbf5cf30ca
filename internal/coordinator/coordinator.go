// Package coordinator owns the set of monitored roots, drives
// rebuilds, serializes the Scanner/Watcher lifecycle per root, and
// answers search queries by routing to the Store's query plans. It is
// the single entry point the CLI/HTTP skin talks to.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/localindex/gofind/internal/coreerrors"
	"github.com/localindex/gofind/internal/ignore"
	"github.com/localindex/gofind/internal/scanner"
	"github.com/localindex/gofind/internal/store"
	"github.com/localindex/gofind/internal/watcher"
	"github.com/localindex/gofind/pkg/log"
)

// WatcherFactory builds a Watcher for one root. The Coordinator supplies
// root and a Callbacks value wired back to its own Store mutations. New
// sets it to buildWatcher as a plain field rather than resolving it from
// a DI container, since the wiring graph here is fixed and small.
type WatcherFactory func(root string, cb watcher.Callbacks) (*watcher.Watcher, error)

// rootState tracks everything the Coordinator needs about one watched
// root beyond its persisted WatchRoot row.
type rootState struct {
	mu       sync.Mutex
	watchRoot store.WatchRoot
	watch    *watcher.Watcher
	progress *scanner.Progress
	cancel   context.CancelFunc
}

// Coordinator is the process-wide owner of the Store, the Scanner pool,
// one Watcher per watched root, and the copy-on-write ignore snapshot.
type Coordinator struct {
	st      *store.Store
	sc      *scanner.Scanner
	newWatch WatcherFactory
	log     log.LoggerService

	debounce time.Duration

	ignores atomic.Pointer[ignore.Set]

	mu    sync.Mutex
	roots map[string]*rootState
}

// Config bundles everything Coordinator.New needs to build the Scanner
// and every per-root Watcher.
type Config struct {
	ScannerWorkers   int
	ScannerBatchSize int
	WatcherDebounce  time.Duration
}

// New constructs a Coordinator bound to an already-migrated Store. It
// does not start scanning or watching anything; call LoadPersisted to
// resume WatchRoots from a prior run.
func New(st *store.Store, cfg Config, logger log.LoggerService) *Coordinator {
	c := &Coordinator{
		st:       st,
		log:      logger,
		debounce: cfg.WatcherDebounce,
		roots:    make(map[string]*rootState),
	}
	c.sc = scanner.New(cfg.ScannerWorkers, cfg.ScannerBatchSize, st.UpsertMany, c.currentIgnores, logger.Named("scanner"))
	c.newWatch = c.buildWatcher
	c.ignores.Store(ignore.New(nil))
	return c
}

func (c *Coordinator) currentIgnores() *ignore.Set {
	return c.ignores.Load()
}

func (c *Coordinator) buildWatcher(root string, cb watcher.Callbacks) (*watcher.Watcher, error) {
	return watcher.New(root, c.debounce, cb, c.log.Named("watcher"))
}

// LoadPersisted loads ignore patterns and WatchRoot rows from the Store
// and, for every root still enabled, resumes it: idle/error roots are
// rescanned from scratch, roots already marked watching are rescanned
// too since in-memory watcher state does not survive a restart.
func (c *Coordinator) LoadPersisted(ctx context.Context) error {
	patterns, err := c.st.ListIgnorePatterns(ctx)
	if err != nil {
		return err
	}
	c.ignores.Store(ignore.New(patterns))

	rows, err := c.st.ListWatchRoots(ctx)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if !row.Enabled {
			continue
		}
		rs := &rootState{watchRoot: row, progress: &scanner.Progress{}}
		c.mu.Lock()
		c.roots[row.Path] = rs
		c.mu.Unlock()

		go c.runScanAndWatch(context.Background(), rs)
	}
	return nil
}

// CoveringRoot reports which (if any) currently-active root contains
// path, mirroring the retrieved Python original's
// get_covering_watch_path. It is also how nested-root rejection in
// AddRoot is implemented.
func (c *Coordinator) CoveringRoot(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for p := range c.roots {
		if p == path || isUnder(path, p) {
			return p, true
		}
	}
	return "", false
}

func isUnder(path, root string) bool {
	if len(path) <= len(root) {
		return false
	}
	return path[:len(root)] == root && rune(path[len(root)]) == pathSep
}

// AddRoot validates path, rejects nested-root conflicts, persists a new
// WatchRoot row in the scanning state, and launches the scan/watch
// sequence in the background.
func (c *Coordinator) AddRoot(ctx context.Context, path string) error {
	if !isDir(path) {
		return coreerrors.New(coreerrors.InvalidInput, "Coordinator.AddRoot", fmt.Errorf("%q does not exist or is not a directory", path))
	}

	if covering, ok := c.CoveringRoot(path); ok {
		return coreerrors.New(coreerrors.InvalidInput, "Coordinator.AddRoot",
			fmt.Errorf("%q is already covered by watched root %q", path, covering))
	}
	if c.covers(path) {
		return coreerrors.New(coreerrors.InvalidInput, "Coordinator.AddRoot",
			fmt.Errorf("%q would nest an existing watched root underneath it", path))
	}

	row := store.WatchRoot{Path: path, Enabled: true, Status: string(store.WatchRootScanning)}
	if err := c.st.CreateWatchRoot(ctx, &row); err != nil {
		return err
	}

	rs := &rootState{watchRoot: row, progress: &scanner.Progress{}}
	c.mu.Lock()
	c.roots[path] = rs
	c.mu.Unlock()

	go c.runScanAndWatch(context.Background(), rs)
	return nil
}

// covers reports whether path is a strict ancestor of any currently
// active root (the other half of the no-nested-roots rule).
func (c *Coordinator) covers(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for p := range c.roots {
		if isUnder(p, path) {
			return true
		}
	}
	return false
}

// RemoveRoot stops the Watcher, cancels any in-flight scan, clears the
// root's entries from the Store, and drops the WatchRoot row.
func (c *Coordinator) RemoveRoot(ctx context.Context, path string) error {
	c.mu.Lock()
	rs, ok := c.roots[path]
	delete(c.roots, path)
	c.mu.Unlock()

	if !ok {
		return coreerrors.New(coreerrors.InvalidInput, "Coordinator.RemoveRoot", fmt.Errorf("root %q is not watched", path))
	}

	rs.mu.Lock()
	if rs.cancel != nil {
		rs.cancel()
	}
	if rs.watch != nil {
		_ = rs.watch.Stop()
	}
	rs.mu.Unlock()

	if _, err := c.st.ClearRoot(ctx, path); err != nil {
		return err
	}
	return c.st.DeleteWatchRoot(ctx, path)
}

// Rebuild transitions a root back to scanning, clears its entries, and
// re-runs the scan/watch sequence. path == "" rebuilds every root.
func (c *Coordinator) Rebuild(ctx context.Context, path string) error {
	c.mu.Lock()
	var targets []*rootState
	if path == "" {
		for _, rs := range c.roots {
			targets = append(targets, rs)
		}
	} else if rs, ok := c.roots[path]; ok {
		targets = append(targets, rs)
	} else {
		c.mu.Unlock()
		return coreerrors.New(coreerrors.InvalidInput, "Coordinator.Rebuild", fmt.Errorf("root %q is not watched", path))
	}
	c.mu.Unlock()

	for _, rs := range targets {
		rs.mu.Lock()
		if rs.cancel != nil {
			rs.cancel()
		}
		if rs.watch != nil {
			_ = rs.watch.Stop()
			rs.watch = nil
		}
		rs.progress = &scanner.Progress{}
		rs.mu.Unlock()

		if _, err := c.st.ClearRoot(ctx, rs.watchRoot.Path); err != nil {
			return err
		}
		go c.runScanAndWatch(context.Background(), rs)
	}
	return nil
}

// runScanAndWatch drives one root through scanning -> watching (or
// error). Every line for this attempt carries root and run_id as
// structured fields rather than baked into the format string, so
// repeated failures across separate scan runs are distinguishable by
// grepping or filtering on run_id alone.
func (c *Coordinator) runScanAndWatch(ctx context.Context, rs *rootState) {
	runID := uuid.New().String()
	root := rs.watchRoot.Path
	rlog := c.log.Fields("root", root, "run_id", runID)

	scanCtx, cancel := context.WithCancel(ctx)
	rs.mu.Lock()
	rs.cancel = cancel
	rs.mu.Unlock()

	c.setStatus(rs, store.WatchRootScanning, nil)
	rlog.Info("scan: starting bulk scan")

	err := c.sc.Scan(scanCtx, root, rs.progress)
	cancel()

	if err != nil {
		rlog.Error("scan: failed: %v", err)
		c.setStatus(rs, store.WatchRootError, fmt.Errorf("[%s] %w", runID, err))
		return
	}

	rlog.Info("scan: complete, %d files indexed", rs.progress.IndexedFiles.Load())

	w, err := c.newWatch(root, c.callbacksFor(rs))
	if err != nil {
		rlog.Error("scan: start watcher: %v", err)
		c.setStatus(rs, store.WatchRootError, fmt.Errorf("[%s] %w", runID, err))
		return
	}
	if err := w.Start(context.Background()); err != nil {
		rlog.Error("scan: watcher.Start: %v", err)
		c.setStatus(rs, store.WatchRootError, fmt.Errorf("[%s] %w", runID, err))
		return
	}

	rs.mu.Lock()
	rs.watch = w
	rs.mu.Unlock()

	c.setStatus(rs, store.WatchRootWatching, nil)
}

func (c *Coordinator) setStatus(rs *rootState, status store.WatchRootStatus, cause error) {
	rs.mu.Lock()
	rs.watchRoot.Status = string(status)
	rs.watchRoot.TotalFiles = rs.progress.TotalFiles.Load()
	rs.watchRoot.IndexedFiles = rs.progress.IndexedFiles.Load()
	now := nowSeconds()
	rs.watchRoot.LastUpdated = &now
	if status == store.WatchRootWatching {
		rs.watchRoot.LastFullScan = &now
	}
	if cause != nil {
		msg := cause.Error()
		rs.watchRoot.ErrorMessage = &msg
	} else if status != store.WatchRootError {
		rs.watchRoot.ErrorMessage = nil
	}
	row := rs.watchRoot
	rs.mu.Unlock()

	if err := c.st.UpdateWatchRoot(context.Background(), &row); err != nil {
		c.log.Error("coordinator: persist status for %q: %v", row.Path, err)
	}
}

func nowSeconds() float64 {
	return float64(time.Now().UTC().UnixNano()) / 1e9
}

var pathSep = filepath.Separator

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
