package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// SortKey is one of the sort columns the external search interface
// accepts.
type SortKey string

const (
	SortName         SortKey = "name"
	SortPath         SortKey = "path"
	SortSize         SortKey = "size"
	SortDateModified SortKey = "date_modified"
)

// FileTypeFilter restricts results by FileEntry.Kind.
type FileTypeFilter string

const (
	FileTypeAll       FileTypeFilter = "all"
	FileTypeFile      FileTypeFilter = "file"
	FileTypeDirectory FileTypeFilter = "directory"
)

// SearchOptions is the Store-level query input. Coordinator.Search and
// the HTTP query endpoint both build one of these from their own,
// looser-typed request shapes.
type SearchOptions struct {
	Query      string
	RootPrefix string
	FileType   FileTypeFilter
	Sort       SortKey
	Ascending  bool
	Offset     int
	Count      int

	// MaxDepth restricts results under RootPrefix to at most this many
	// path segments below it. 0 means unbounded. Has no effect without
	// RootPrefix set.
	MaxDepth int
}

// SearchResult is the Store-level query output: the full match count
// (for pagination) and the page of entries actually returned.
type SearchResult struct {
	Total   int64
	Entries []FileEntry
}

// Search implements the three-tier substring planner from §4.1: an
// empty query returns everything (subject to filters); length 1 falls
// back to a path LIKE scan; length 2 joins the bigram postings; length
// 3+ queries the FTS5 trigram index. Space-separated tokens in the
// query each run their own per-length plan and the resulting candidate
// id sets are intersected (AND of per-token plans), resolving the
// distilled spec's whitespace/short-token ambiguity in favor of the
// simpler, more predictable rule. The planner never reads the
// filesystem; it only ever touches the index.
func (s *Store) Search(ctx context.Context, opts SearchOptions) (SearchResult, error) {
	db := s.db.WithContext(ctx)

	folded := Fold(strings.TrimSpace(opts.Query))
	var candidateIDs []uint
	hasQuery := folded != ""

	if hasQuery {
		tokens := strings.Fields(folded)
		sets := make([][]uint, 0, len(tokens))
		for _, tok := range tokens {
			ids, err := s.idsForToken(db, tok)
			if err != nil {
				return SearchResult{}, err
			}
			sets = append(sets, ids)
		}
		candidateIDs = intersectIDs(sets)
		if len(candidateIDs) == 0 {
			return SearchResult{}, nil
		}
	}

	base := db.Model(&FileEntry{})
	if hasQuery {
		base = base.Where("id IN ?", candidateIDs)
	}
	if opts.RootPrefix != "" {
		like := opts.RootPrefix + pathSeparator + "%"
		base = base.Where("path = ? OR path LIKE ?", opts.RootPrefix, like)
	}
	if opts.FileType != "" && opts.FileType != FileTypeAll {
		base = base.Where("kind = ?", string(opts.FileType))
	}

	limit := opts.Count
	if limit <= 0 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	dir := "ASC"
	if !opts.Ascending {
		dir = "DESC"
	}
	ordered := base.Order(fmt.Sprintf("%s %s, id ASC", sortColumn(opts.Sort), dir))

	if opts.MaxDepth > 0 && opts.RootPrefix != "" {
		return s.searchWithDepthFilter(ordered, opts.RootPrefix, opts.MaxDepth, offset, limit)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return SearchResult{}, fmt.Errorf("store: count search results: %w", err)
	}

	var entries []FileEntry
	if err := ordered.Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return SearchResult{}, fmt.Errorf("store: fetch search results: %w", err)
	}

	return SearchResult{Total: total, Entries: entries}, nil
}

// searchWithDepthFilter can't express "at most N path segments below
// RootPrefix" in SQL against an arbitrary separator, so it fetches the
// full filtered/ordered candidate set and paginates in Go, mirroring
// the retrieved Python original's depth-filter fallback.
func (s *Store) searchWithDepthFilter(ordered *gorm.DB, rootPrefix string, maxDepth, offset, limit int) (SearchResult, error) {
	var all []FileEntry
	if err := ordered.Find(&all).Error; err != nil {
		return SearchResult{}, fmt.Errorf("store: fetch search results for depth filter: %w", err)
	}

	filtered := filterByDepth(all, rootPrefix, maxDepth)
	total := int64(len(filtered))

	if offset > len(filtered) {
		return SearchResult{Total: total, Entries: nil}, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return SearchResult{Total: total, Entries: filtered[offset:end]}, nil
}

// filterByDepth assumes entries were already restricted to rootPrefix
// (or its descendants) by the caller's SQL WHERE clause.
func filterByDepth(entries []FileEntry, rootPrefix string, maxDepth int) []FileEntry {
	prefix := rootPrefix + pathSeparator
	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		rel := strings.TrimPrefix(e.Path, prefix)
		if e.Path == rootPrefix || rel == "" {
			out = append(out, e)
			continue
		}
		depth := len(strings.Split(rel, pathSeparator))
		if depth <= maxDepth {
			out = append(out, e)
		}
	}
	return out
}

// idsForToken implements one row of the §4.1 planner table for a
// single case-folded token.
func (s *Store) idsForToken(db *gorm.DB, tok string) ([]uint, error) {
	switch len([]rune(tok)) {
	case 0:
		return nil, nil

	case 1:
		// tok is already Fold()-ed by the caller; comparing it against
		// the stored folded_path column (rather than SQLite's ASCII-only
		// LOWER() on the raw path) keeps this tier consistent with the
		// Unicode-aware folding every other tier and the write path use.
		var ids []uint
		like := "%" + tok + "%"
		if err := db.Model(&FileEntry{}).
			Where("folded_path LIKE ?", like).
			Pluck("id", &ids).Error; err != nil {
			return nil, fmt.Errorf("store: like search %q: %w", tok, err)
		}
		return ids, nil

	case 2:
		var ids []uint
		if err := db.Table("bigram_postings").
			Where("bigram = ?", tok).
			Distinct().
			Pluck("file_id", &ids).Error; err != nil {
			return nil, fmt.Errorf("store: bigram search %q: %w", tok, err)
		}
		return ids, nil

	default:
		var ids []uint
		if err := db.Raw(
			"SELECT DISTINCT rowid FROM file_entries_fts WHERE file_entries_fts MATCH ?",
			ftsMatchQuery(tok),
		).Scan(&ids).Error; err != nil {
			return nil, fmt.Errorf("store: fts search %q: %w", tok, err)
		}
		return ids, nil
	}
}

// ftsMatchQuery quotes tok as an FTS5 phrase so the trigram tokenizer
// matches it as a contiguous substring rather than as independent
// trigram terms ORed together.
func ftsMatchQuery(tok string) string {
	return `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
}

func intersectIDs(sets [][]uint) []uint {
	if len(sets) == 0 {
		return nil
	}
	counts := make(map[uint]int, len(sets[0]))
	for _, set := range sets {
		seen := make(map[uint]struct{}, len(set))
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			counts[id]++
		}
	}

	out := make([]uint, 0, len(counts))
	for id, c := range counts {
		if c == len(sets) {
			out = append(out, id)
		}
	}
	return out
}

func sortColumn(key SortKey) string {
	switch key {
	case SortPath:
		return "path"
	case SortSize:
		return "size"
	case SortDateModified:
		return "mtime"
	default:
		return "name"
	}
}
