package coordinator

import (
	"context"

	"github.com/localindex/gofind/internal/scanner"
	"github.com/localindex/gofind/internal/store"
	"github.com/localindex/gofind/internal/watcher"
)

// callbacksFor builds the watcher.Callbacks set for rs, wiring every
// event-mapping action back to the Store and, for a freshly-created
// directory, a shallow rescan run by a separate Scanner on its own
// goroutine rather than a recursive enumeration inline in the watcher
// goroutine.
func (c *Coordinator) callbacksFor(rs *rootState) watcher.Callbacks {
	return watcher.Callbacks{
		Upsert: func(ctx context.Context, in store.UpsertInput) error {
			if err := c.st.UpsertMany(ctx, []store.UpsertInput{in}); err != nil {
				return err
			}
			rs.progress.TotalFiles.Add(1)
			rs.progress.IndexedFiles.Add(1)
			return nil
		},
		DeleteSubtree: func(ctx context.Context, path string) error {
			removed, err := c.st.DeleteSubtree(ctx, path)
			if err != nil {
				return err
			}
			rs.progress.TotalFiles.Add(-removed)
			rs.progress.IndexedFiles.Add(-removed)
			return nil
		},
		Rename: func(ctx context.Context, oldPath, newPath string) error {
			return c.st.Rename(ctx, oldPath, newPath)
		},
		RescanDirectory: func(dirPath string) {
			go c.shallowRescan(rs, dirPath)
		},
		RequestFullRescan: func(root string) {
			c.log.Warn("coordinator: notification overflow on %q, requesting full rescan", root)
			go func() {
				if err := c.Rebuild(context.Background(), root); err != nil {
					c.log.Error("coordinator: overflow rescan of %q failed: %v", root, err)
				}
			}()
		},
		Ignores: c.currentIgnores,
	}
}

// shallowRescan enumerates just dirPath's immediate children through a
// single-level Scanner run, matching §4.3's "enqueue a shallow rescan of
// that directory" rather than a full recursive scan of the whole root.
func (c *Coordinator) shallowRescan(rs *rootState, dirPath string) {
	sink := func(ctx context.Context, batch []store.UpsertInput) error {
		if err := c.st.UpsertMany(ctx, batch); err != nil {
			return err
		}
		rs.progress.TotalFiles.Add(int64(len(batch)))
		rs.progress.IndexedFiles.Add(int64(len(batch)))
		return nil
	}
	shallow := scanner.New(1, 500, sink, c.currentIgnores, c.log.Named("rescan"))
	if err := shallow.ScanShallow(context.Background(), dirPath); err != nil {
		c.log.Warn("coordinator: shallow rescan of %q: %v", dirPath, err)
	}
}
