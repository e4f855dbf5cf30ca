// Package scanner implements the parallel bulk traversal that
// populates the Store: an unbounded work queue of directories, a pool of
// worker goroutines, and per-worker batch buffers flushed into the
// Store's UpsertMany.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/localindex/gofind/internal/ignore"
	"github.com/localindex/gofind/internal/store"
	"github.com/localindex/gofind/pkg/log"
)

// Sink is how the Scanner hands a flushed batch to the Store. The
// Coordinator wires this directly to Store.UpsertMany.
type Sink func(ctx context.Context, batch []store.UpsertInput) error

// IgnoreProvider returns the currently-active ignore snapshot. The
// Coordinator wires this to its copy-on-write IgnoreSet pointer so a
// long-running scan picks up pattern changes published mid-scan.
type IgnoreProvider func() *ignore.Set

// Progress exposes atomically-updated counters the Coordinator polls
// lock-free for per-root status reporting, per §4.2 "Progress".
type Progress struct {
	TotalFiles   atomic.Int64
	IndexedFiles atomic.Int64
}

// Scanner performs one parallel bulk traversal at a time per caller;
// a single Scanner value is reused across roots since it carries no
// per-scan state itself.
type Scanner struct {
	workers   int
	batchSize int
	sink      Sink
	ignores   IgnoreProvider
	log       log.LoggerService
}

// New builds a Scanner. workers defaults to 4 and batchSize to 1000 if
// given as zero or negative.
func New(workers, batchSize int, sink Sink, ignores IgnoreProvider, logger log.LoggerService) *Scanner {
	if workers <= 0 {
		workers = 4
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Scanner{
		workers:   workers,
		batchSize: batchSize,
		sink:      sink,
		ignores:   ignores,
		log:       logger,
	}
}

// Scan enumerates the subtree rooted at root and streams batches into
// the configured Sink. It returns when every reachable directory has
// been visited, with residual per-worker buffers flushed before
// returning, or once the scan is canceled via ctx, in which case
// workers exit without flushing what they still hold. Symlinks are never
// followed, breaking cycles by omission rather than by tracking visited
// inodes.
func (sc *Scanner) Scan(ctx context.Context, root string, progress *Progress) error {
	info, err := os.Lstat(root)
	if err != nil {
		return fmt.Errorf("scanner: stat root %q: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scanner: root %q is not a directory", root)
	}

	q := newDirQueue()
	var inflight atomic.Int64
	inflight.Add(1)
	q.push(root)

	// errgroup cancels the shared context on the first worker error and
	// propagates it cleanly; a worker hitting ctx.Err() on a canceled
	// sibling still drains down to closeAll rather than deadlocking.
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < sc.workers; i++ {
		g.Go(func() error {
			return sc.worker(gctx, q, &inflight, progress)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ScanShallow enumerates only dir's immediate children and flushes them
// in a single batch, without descending into any subdirectory. This is
// what the Watcher's directory-create handling enqueues per §4.3,
// rather than a full recursive Scan: a newly-created directory's deeper
// contents get their own create events as the kernel reports them.
func (sc *Scanner) ScanShallow(ctx context.Context, dir string) error {
	children, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scanner: read directory %q: %w", dir, err)
	}

	ignores := sc.ignores()
	buf := make([]store.UpsertInput, 0, len(children))

	for _, child := range children {
		if child.Type()&os.ModeSymlink != 0 {
			continue
		}
		childPath := filepath.Join(dir, child.Name())
		if ignores.MatchesPath(childPath) {
			continue
		}

		childInfo, err := child.Info()
		if err != nil {
			sc.log.Warn("scanner: stat %q: %v", childPath, err)
			continue
		}

		parent := dir
		in := store.UpsertInput{
			Path:       childPath,
			Name:       child.Name(),
			ParentPath: &parent,
			MTime:      float64(childInfo.ModTime().UnixNano()) / 1e9,
		}
		if childInfo.IsDir() {
			in.Kind = store.KindDirectory
		} else {
			in.Kind = store.KindFile
			in.Size = childInfo.Size()
		}
		buf = append(buf, in)
	}

	if len(buf) == 0 {
		return nil
	}
	return sc.sink(ctx, buf)
}

func (sc *Scanner) worker(ctx context.Context, q *dirQueue, inflight *atomic.Int64, progress *Progress) error {
	buf := make([]store.UpsertInput, 0, sc.batchSize)

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := sc.sink(ctx, buf); err != nil {
			return fmt.Errorf("scanner: flush batch: %w", err)
		}
		progress.IndexedFiles.Add(int64(len(buf)))
		buf = buf[:0]
		return nil
	}

	for {
		if ctx.Err() != nil {
			// Cancellation: exit cleanly, flushing nothing further.
			return nil
		}

		dir, ok := q.pop()
		if !ok {
			return flush()
		}

		children, err := os.ReadDir(dir)
		if err != nil {
			sc.log.Warn("scanner: read directory %q: %v", dir, err)
			if inflight.Add(-1) == 0 {
				q.closeAll()
			}
			continue
		}

		ignores := sc.ignores()
		for _, child := range children {
			if child.Type()&os.ModeSymlink != 0 {
				continue
			}
			childPath := filepath.Join(dir, child.Name())
			if ignores.MatchesPath(childPath) {
				continue
			}

			childInfo, err := child.Info()
			if err != nil {
				sc.log.Warn("scanner: stat %q: %v", childPath, err)
				continue
			}

			parent := dir
			in := store.UpsertInput{
				Path:       childPath,
				Name:       child.Name(),
				ParentPath: &parent,
			}
			if childInfo.IsDir() {
				in.Kind = store.KindDirectory
				in.Size = 0
			} else {
				in.Kind = store.KindFile
				in.Size = childInfo.Size()
			}
			in.MTime = float64(childInfo.ModTime().UnixNano()) / 1e9

			buf = append(buf, in)
			progress.TotalFiles.Add(1)

			if childInfo.IsDir() {
				inflight.Add(1)
				q.push(childPath)
			}

			if len(buf) >= sc.batchSize {
				if err := flush(); err != nil {
					q.closeAll()
					return err
				}
			}
		}

		if inflight.Add(-1) == 0 {
			q.closeAll()
		}
	}
}
