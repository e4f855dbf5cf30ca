package httpapi

import (
	"net/http"
	"strconv"

	"github.com/localindex/gofind/internal/store"
)

// searchResponse matches the §6 search output shape.
type searchResponse struct {
	TotalResults int64        `json:"totalResults"`
	Results      []resultItem `json:"results"`
}

type resultItem struct {
	Name         string  `json:"name"`
	Path         string  `json:"path"`
	Type         string  `json:"type"`
	Size         int64   `json:"size"`
	DateModified float64 `json:"date_modified"`
}

// handleSearch implements the Everything-compatible query endpoint:
// search/s/q, offset/o, count/c, sort, ascending, path, file_type are
// all accepted aliases, per §6's wire-parameter set.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.SearchOptions{
		Query:      firstNonEmpty(q, "search", "s", "q"),
		RootPrefix: q.Get("path"),
		Ascending:  parseBoolDefault(firstNonEmpty(q, "ascending"), true),
		Offset:     parseIntDefault(firstNonEmpty(q, "offset", "o"), 0),
		Count:      parseIntDefault(firstNonEmpty(q, "count", "c"), 100),
	}
	if opts.Count > 10000 {
		opts.Count = 10000
	}

	if sort := firstNonEmpty(q, "sort"); sort != "" {
		opts.Sort = store.SortKey(sort)
	}
	if ft := firstNonEmpty(q, "file_type"); ft != "" {
		opts.FileType = store.FileTypeFilter(ft)
	}

	result, err := s.co.Search(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	items := make([]resultItem, len(result.Entries))
	for i, e := range result.Entries {
		items[i] = resultItem{
			Name:         e.Name,
			Path:         e.Path,
			Type:         string(e.Kind),
			Size:         e.Size,
			DateModified: e.MTime,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		TotalResults: result.Total,
		Results:      items,
	})
}

func firstNonEmpty(q map[string][]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := q[k]; ok && len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return ""
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	return s == "1" || s == "true"
}
