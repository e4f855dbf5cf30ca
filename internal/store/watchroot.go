package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// CreateWatchRoot persists a new WatchRoot row in the idle/scanning
// state the caller supplies.
func (s *Store) CreateWatchRoot(ctx context.Context, root *WatchRoot) error {
	if err := s.db.WithContext(ctx).Create(root).Error; err != nil {
		return fmt.Errorf("store: create watch root %q: %w", root.Path, err)
	}
	return nil
}

// GetWatchRoot returns the WatchRoot row for path, or nil if none
// exists.
func (s *Store) GetWatchRoot(ctx context.Context, path string) (*WatchRoot, error) {
	var root WatchRoot
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&root).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get watch root %q: %w", path, err)
	}
	return &root, nil
}

// ListWatchRoots returns every WatchRoot row, ordered by path.
func (s *Store) ListWatchRoots(ctx context.Context) ([]WatchRoot, error) {
	var roots []WatchRoot
	if err := s.db.WithContext(ctx).Order("path ASC").Find(&roots).Error; err != nil {
		return nil, fmt.Errorf("store: list watch roots: %w", err)
	}
	return roots, nil
}

// UpdateWatchRoot persists every field of root, keyed by its ID.
func (s *Store) UpdateWatchRoot(ctx context.Context, root *WatchRoot) error {
	if err := s.db.WithContext(ctx).Save(root).Error; err != nil {
		return fmt.Errorf("store: update watch root %q: %w", root.Path, err)
	}
	return nil
}

// DeleteWatchRoot drops the WatchRoot row for path. Callers are
// responsible for calling ClearRoot first if the indexed entries under
// it should also be removed.
func (s *Store) DeleteWatchRoot(ctx context.Context, path string) error {
	if err := s.db.WithContext(ctx).Where("path = ?", path).Delete(&WatchRoot{}).Error; err != nil {
		return fmt.Errorf("store: delete watch root %q: %w", path, err)
	}
	return nil
}
