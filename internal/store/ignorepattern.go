package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"
)

// ListIgnorePatterns returns every persisted ignore pattern, ordered
// for stable output.
func (s *Store) ListIgnorePatterns(ctx context.Context) ([]string, error) {
	var rows []IgnorePattern
	if err := s.db.WithContext(ctx).Order("pattern ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list ignore patterns: %w", err)
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Pattern
	}
	return out, nil
}

// AddIgnorePattern persists pattern, ignoring the call if it's already
// present (matching the original's INSERT OR IGNORE semantics).
func (s *Store) AddIgnorePattern(ctx context.Context, pattern string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&IgnorePattern{Pattern: pattern}).Error
	if err != nil {
		return fmt.Errorf("store: add ignore pattern %q: %w", pattern, err)
	}
	return nil
}

// RemoveIgnorePattern deletes pattern if present.
func (s *Store) RemoveIgnorePattern(ctx context.Context, pattern string) error {
	if err := s.db.WithContext(ctx).Where("pattern = ?", pattern).Delete(&IgnorePattern{}).Error; err != nil {
		return fmt.Errorf("store: remove ignore pattern %q: %w", pattern, err)
	}
	return nil
}
