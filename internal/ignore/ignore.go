// Package ignore implements the leaf-name glob matching used by the
// Scanner and Watcher to prune entries, plus the Coordinator's
// copy-on-write snapshot of the active pattern set.
package ignore

import (
	"path/filepath"
	"strings"
)

// DefaultPatterns is the initial ignore set populated into a fresh
// database.
func DefaultPatterns() []string {
	return []string{
		"node_modules",
		".git",
		".svn",
		"__pycache__",
		".pytest_cache",
		".venv",
		"venv",
		".env",
		"dist",
		"build",
		".next",
		".DS_Store",
		"Thumbs.db",
	}
}

// Set is an immutable snapshot of the active ignore patterns. New
// snapshots are built with New and published via Coordinator's
// atomic.Pointer[Set]. The Scanner loads the current snapshot once per
// directory it reads and the Watcher once per event, so a directory
// read or event already in progress keeps the snapshot it loaded while
// later ones see the newly published set.
type Set struct {
	patterns []string
}

// New builds an immutable Set from patterns, deduplicating but
// otherwise preserving order.
func New(patterns []string) *Set {
	seen := make(map[string]struct{}, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return &Set{patterns: out}
}

// Patterns returns a copy of the active pattern list, in the order
// they were added.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.patterns...)
}

// MatchesName reports whether leaf name matches any pattern that does
// not itself contain a path separator: a literal match, or a
// shell-style glob (*, ?, [...]) accepted by filepath.Match. This is
// the rule §4.2 specifies for the Scanner/Watcher leaf-name prune test;
// a true result for a directory entry means its entire subtree is
// skipped.
func (s *Set) MatchesName(name string) bool {
	if s == nil {
		return false
	}
	for _, p := range s.patterns {
		if containsSeparator(p) {
			continue
		}
		if p == name {
			return true
		}
		if matched, err := filepath.Match(p, name); err == nil && matched {
			return true
		}
	}
	return false
}

// MatchesPath additionally honors patterns that do contain a path
// separator, matching them as a literal relative-path segment anywhere
// in path. This supplements the leaf-name rule with the retrieved
// Python original's full-path substring behavior for patterns shaped
// like "src/generated", without weakening the leaf-name rule that lets
// a directory match prune its subtree during traversal.
func (s *Set) MatchesPath(path string) bool {
	if s == nil {
		return false
	}
	if s.MatchesName(filepath.Base(path)) {
		return true
	}
	slashPath := filepath.ToSlash(path)
	for _, p := range s.patterns {
		if !containsSeparator(p) {
			continue
		}
		if strings.Contains(slashPath, filepath.ToSlash(p)) {
			return true
		}
	}
	return false
}

func containsSeparator(pattern string) bool {
	return strings.ContainsAny(pattern, "/\\")
}
