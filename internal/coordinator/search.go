package coordinator

import (
	"context"

	"github.com/localindex/gofind/internal/store"
)

// Search is a pass-through to Store.Search with the §4.4 defaults
// (limit=100, sort=name, kind=all) filled in for whatever the caller
// left unset. Ascending defaults to true at the HTTP query-parsing
// boundary, since a Go bool can't distinguish "unset" from "false"
// here. A failing Health check takes precedence over the query itself:
// per §7, a corrupt store refuses to serve rather than returning a
// partial or stale result set.
func (c *Coordinator) Search(ctx context.Context, opts store.SearchOptions) (store.SearchResult, error) {
	if err := c.st.Health(ctx); err != nil {
		return store.SearchResult{}, err
	}
	if opts.Count <= 0 {
		opts.Count = 100
	}
	if opts.Sort == "" {
		opts.Sort = store.SortName
	}
	if opts.FileType == "" {
		opts.FileType = store.FileTypeAll
	}
	return c.st.Search(ctx, opts)
}
