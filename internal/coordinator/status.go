package coordinator

import "github.com/localindex/gofind/internal/store"

// RootStatus is the per-root projection returned by Status, flattening
// the WatchRoot row together with its live scan progress.
type RootStatus struct {
	Path         string
	Status       store.WatchRootStatus
	TotalFiles   int64
	IndexedFiles int64
	LastFullScan *float64
	LastUpdated  *float64
	ErrorMessage *string
}

// ServiceStatus aggregates every root's status into one projection.
// Ready is true iff at least one root exists and none is scanning.
type ServiceStatus struct {
	Ready bool
	Roots []RootStatus
}

// Status reports the current state of every watched root.
func (c *Coordinator) Status() ServiceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := ServiceStatus{Ready: len(c.roots) > 0}
	for _, rs := range c.roots {
		rs.mu.Lock()
		row := rs.watchRoot
		rs.mu.Unlock()

		if store.WatchRootStatus(row.Status) == store.WatchRootScanning {
			out.Ready = false
		}
		out.Roots = append(out.Roots, RootStatus{
			Path:         row.Path,
			Status:       store.WatchRootStatus(row.Status),
			TotalFiles:   row.TotalFiles,
			IndexedFiles: row.IndexedFiles,
			LastFullScan: row.LastFullScan,
			LastUpdated:  row.LastUpdated,
			ErrorMessage: row.ErrorMessage,
		})
	}
	return out
}

// ListRoots returns the path of every currently-active root.
func (c *Coordinator) ListRoots() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.roots))
	for p := range c.roots {
		out = append(out, p)
	}
	return out
}
