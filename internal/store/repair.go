package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RepairIndexes is the Go-native form of the retrieved Python
// original's ensure_bigram_index_populated/ensure_trigram_index_populated:
// if file_entries has rows but the bigram or FTS5 shadow table is
// empty (e.g. the process crashed mid-migration on an older database),
// rebuild them from the base table rather than silently serving partial
// results forever. It is invoked once at startup, after Migrate.
func (s *Store) RepairIndexes(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	var fileCount int64
	if err := db.Model(&FileEntry{}).Count(&fileCount).Error; err != nil {
		return fmt.Errorf("store: count file entries for repair: %w", err)
	}
	if fileCount == 0 {
		return nil
	}

	var unfoldedCount int64
	if err := db.Model(&FileEntry{}).Where("folded_path = ?", "").Count(&unfoldedCount).Error; err != nil {
		return fmt.Errorf("store: count unfolded paths for repair: %w", err)
	}
	if unfoldedCount > 0 {
		if err := s.rebuildFoldedPaths(ctx); err != nil {
			return err
		}
	}

	var bigramCount int64
	if err := db.Model(&BigramPosting{}).Count(&bigramCount).Error; err != nil {
		return fmt.Errorf("store: count bigram postings for repair: %w", err)
	}
	if bigramCount == 0 {
		if err := s.rebuildBigrams(ctx); err != nil {
			return err
		}
	}

	var ftsCount int64
	if err := db.Raw("SELECT COUNT(*) FROM file_entries_fts").Scan(&ftsCount).Error; err != nil {
		return fmt.Errorf("store: count fts rows for repair: %w", err)
	}
	if ftsCount == 0 {
		if err := s.rebuildFTS(ctx); err != nil {
			return err
		}
	}

	return nil
}

// rebuildFoldedPaths backfills FileEntry.FoldedPath for rows written
// before that column existed, so the length-1 search tier's folded
// comparison has something consistent to compare against.
func (s *Store) rebuildFoldedPaths(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []FileEntry
		return tx.Model(&FileEntry{}).Where("folded_path = ?", "").FindInBatches(&rows, 1000, func(batchTx *gorm.DB, batch int) error {
			for _, row := range rows {
				if err := tx.Model(&FileEntry{}).Where("id = ?", row.ID).
					Update("folded_path", Fold(row.Path)).Error; err != nil {
					return fmt.Errorf("store: backfill folded_path %d: %w", row.ID, err)
				}
			}
			return nil
		}).Error
	})
}

func (s *Store) rebuildBigrams(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM bigram_postings").Error; err != nil {
			return fmt.Errorf("store: clear bigram postings: %w", err)
		}

		var rows []FileEntry
		return tx.Model(&FileEntry{}).FindInBatches(&rows, 1000, func(batchTx *gorm.DB, batch int) error {
			for _, row := range rows {
				if err := s.syncBigrams(tx, row.ID, Fold(row.Name)); err != nil {
					return err
				}
			}
			return nil
		}).Error
	})
}

func (s *Store) rebuildFTS(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM file_entries_fts").Error; err != nil {
			return fmt.Errorf("store: clear fts index: %w", err)
		}

		var rows []FileEntry
		return tx.Model(&FileEntry{}).FindInBatches(&rows, 1000, func(batchTx *gorm.DB, batch int) error {
			for _, row := range rows {
				if err := s.syncFTS(tx, row.ID, Fold(row.Name), Fold(row.Path)); err != nil {
					return err
				}
			}
			return nil
		}).Error
	})
}
