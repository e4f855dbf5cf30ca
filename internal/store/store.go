// Package store owns the persistent index: the SQLite-backed schema
// described by the FileEntry/WatchRoot/IgnorePattern/BigramPosting
// models, the transactional write batches that keep the base table,
// the FTS5 trigram index and the bigram postings coherent, and the
// three-tier query planner in search.go.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/localindex/gofind/internal/coreerrors"
)

// Config configures the SQLite-backed Store.
type Config struct {
	Path         string
	BatchSize    int
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// Store is the single source of truth for the index. All mutations go
// through its transactional API. The connection pool holds a single
// connection (see Connect), so reads and writes issued from this
// process are serialized through it rather than running concurrently.
type Store struct {
	db        *gorm.DB
	path      string
	batchSize int
}

// DB returns the underlying GORM handle, for callers (migrations,
// repair) that need raw SQL the model-level API doesn't expose.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// New opens (but does not yet connect or migrate) a SQLite-backed Store.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite database: %w", err)
	}

	return &Store{
		db:        db,
		path:      cfg.Path,
		batchSize: cfg.BatchSize,
	}, nil
}

// Connect configures the connection pool: a single writer connection
// (SQLite's own constraint) plus WAL journaling and a busy timeout so
// concurrent readers don't immediately fail against the writer.
func (s *Store) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := s.db.WithContext(ctx).Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return fmt.Errorf("store: enable WAL: %w", err)
	}
	if err := s.db.WithContext(ctx).Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return fmt.Errorf("store: set busy_timeout: %w", err)
	}

	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Health checks database connectivity; a failure here is the
// StoreCorruption/FatalIO condition that takes the Coordinator out of
// service.
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return coreerrors.New(coreerrors.StoreCorruption, "store.Health", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return coreerrors.New(coreerrors.StoreCorruption, "store.Health", err)
	}
	return nil
}

// Migrate creates the base table and its indexes via AutoMigrate, then
// the FTS5 virtual table via raw DDL since GORM cannot express virtual
// tables. tokenize='trigram' matches the three-tier planner's len>=3
// regime directly against SQLite's own trigram tokenizer.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	if err := db.AutoMigrate(&FileEntry{}, &WatchRoot{}, &IgnorePattern{}, &BigramPosting{}); err != nil {
		return fmt.Errorf("store: auto-migrate base schema: %w", err)
	}

	if err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS file_entries_fts USING fts5(
		name, path,
		content='file_entries',
		content_rowid='id',
		tokenize='trigram'
	)`).Error; err != nil {
		return fmt.Errorf("store: create fts5 trigram index: %w", err)
	}

	return nil
}

// Count returns the number of indexed FileEntry rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&FileEntry{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("store: count file entries: %w", err)
	}
	return count, nil
}

// UpsertMany writes a batch of entries, committing in chunks of
// Store.batchSize so a large scan batch amortizes fsync instead of
// paying it once per row.
func (s *Store) UpsertMany(ctx context.Context, batch []UpsertInput) error {
	if len(batch) == 0 {
		return nil
	}

	for start := 0; start < len(batch); start += s.batchSize {
		end := start + s.batchSize
		if end > len(batch) {
			end = len(batch)
		}
		if err := s.upsertChunk(ctx, batch[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertChunk(ctx context.Context, chunk []UpsertInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, in := range chunk {
			if err := s.upsertOne(tx, in, true); err != nil {
				return err
			}
		}
		return nil
	})
}

// upsertOne implements the §4.1 upsert algorithm: update-in-place if the
// path already exists, else insert and assign an id; then rewrite the
// FTS document and bigram postings for that id, all inside the caller's
// transaction. A unique-constraint race (Scanner and Watcher both
// observing the same new path) is resolved by retrying once as an
// update, per the ConstraintConflict failure semantics in §7.
func (s *Store) upsertOne(tx *gorm.DB, in UpsertInput, retryOnConflict bool) error {
	var existing FileEntry
	err := tx.Where("path = ?", in.Path).First(&existing).Error

	var id uint
	switch {
	case err == nil:
		id = existing.ID
		if uerr := tx.Model(&FileEntry{}).Where("id = ?", id).Updates(map[string]any{
			"name":        in.Name,
			"path":        in.Path,
			"folded_path": Fold(in.Path),
			"kind":        string(in.Kind),
			"size":        in.Size,
			"mtime":       in.MTime,
			"parent_path": in.ParentPath,
		}).Error; uerr != nil {
			return fmt.Errorf("store: update file entry %q: %w", in.Path, uerr)
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		entry := FileEntry{
			Name:       in.Name,
			Path:       in.Path,
			FoldedPath: Fold(in.Path),
			Kind:       in.Kind,
			Size:       in.Size,
			MTime:      in.MTime,
			ParentPath: in.ParentPath,
		}
		if cerr := tx.Create(&entry).Error; cerr != nil {
			if retryOnConflict && isUniqueConstraintErr(cerr) {
				return s.upsertOne(tx, in, false)
			}
			return coreerrors.New(coreerrors.ConstraintConflict, fmt.Sprintf("store.UpsertMany %q", in.Path), cerr)
		}
		id = entry.ID

	default:
		return fmt.Errorf("store: lookup file entry %q: %w", in.Path, err)
	}

	if err := s.syncFTS(tx, id, Fold(in.Name), Fold(in.Path)); err != nil {
		return err
	}
	return s.syncBigrams(tx, id, Fold(in.Name))
}

func (s *Store) syncFTS(tx *gorm.DB, id uint, foldedName, foldedPath string) error {
	if err := tx.Exec("DELETE FROM file_entries_fts WHERE rowid = ?", id).Error; err != nil {
		return fmt.Errorf("store: delete fts doc %d: %w", id, err)
	}
	if err := tx.Exec(
		"INSERT INTO file_entries_fts(rowid, name, path) VALUES (?, ?, ?)",
		id, foldedName, foldedPath,
	).Error; err != nil {
		return fmt.Errorf("store: insert fts doc %d: %w", id, err)
	}
	return nil
}

func (s *Store) syncBigrams(tx *gorm.DB, id uint, foldedName string) error {
	if err := tx.Where("file_id = ?", id).Delete(&BigramPosting{}).Error; err != nil {
		return fmt.Errorf("store: delete bigram postings %d: %w", id, err)
	}

	grams := bigrams(foldedName)
	if len(grams) == 0 {
		return nil
	}

	rows := make([]BigramPosting, len(grams))
	for i, g := range grams {
		rows[i] = BigramPosting{FileID: id, Bigram: g, Position: i}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("store: insert bigram postings %d: %w", id, err)
	}
	return nil
}

// DeletePath removes the base row plus its FTS document and bigram
// postings in one transaction. Deleting a path that isn't indexed is a
// no-op, not an error.
func (s *Store) DeletePath(ctx context.Context, path string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry FileEntry
		err := tx.Where("path = ?", path).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("store: lookup file entry %q: %w", path, err)
		}
		return s.deleteEntry(tx, entry.ID)
	})
}

func (s *Store) deleteEntry(tx *gorm.DB, id uint) error {
	if err := tx.Exec("DELETE FROM file_entries_fts WHERE rowid = ?", id).Error; err != nil {
		return fmt.Errorf("store: delete fts doc %d: %w", id, err)
	}
	if err := tx.Where("file_id = ?", id).Delete(&BigramPosting{}).Error; err != nil {
		return fmt.Errorf("store: delete bigram postings %d: %w", id, err)
	}
	if err := tx.Delete(&FileEntry{}, id).Error; err != nil {
		return fmt.Errorf("store: delete file entry %d: %w", id, err)
	}
	return nil
}

// DeleteSubtree removes every row whose path equals prefix or begins
// with prefix+separator, and reports how many rows were removed.
func (s *Store) DeleteSubtree(ctx context.Context, prefix string) (int64, error) {
	var removed int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		like := prefix + pathSeparator + "%"
		if err := tx.Model(&FileEntry{}).
			Where("path = ? OR path LIKE ?", prefix, like).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("store: collect subtree ids under %q: %w", prefix, err)
		}

		for _, id := range ids {
			if err := s.deleteEntry(tx, id); err != nil {
				return err
			}
		}
		removed = int64(len(ids))
		return nil
	})

	return removed, err
}

// ClearRoot removes every indexed entry under rootPath, including
// rootPath's own row.
func (s *Store) ClearRoot(ctx context.Context, rootPath string) (int64, error) {
	return s.DeleteSubtree(ctx, rootPath)
}

// Rename atomically updates name/path/parent_path for the entry at
// oldPath and cascades the path prefix change to every descendant whose
// path began with oldPath+separator, all in one transaction. Renaming a
// path that isn't indexed is a no-op.
func (s *Store) Rename(ctx context.Context, oldPath, newPath string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry FileEntry
		err := tx.Where("path = ?", oldPath).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("store: lookup file entry %q: %w", oldPath, err)
		}

		newName := basename(newPath)
		newParent := dirname(newPath)

		if err := tx.Model(&FileEntry{}).Where("id = ?", entry.ID).Updates(map[string]any{
			"name":        newName,
			"path":        newPath,
			"folded_path": Fold(newPath),
			"parent_path": newParent,
		}).Error; err != nil {
			return fmt.Errorf("store: rename file entry %q: %w", oldPath, err)
		}
		if err := s.syncFTS(tx, entry.ID, Fold(newName), Fold(newPath)); err != nil {
			return err
		}
		if err := s.syncBigrams(tx, entry.ID, Fold(newName)); err != nil {
			return err
		}

		return s.cascadeRename(tx, oldPath, newPath)
	})
}

func (s *Store) cascadeRename(tx *gorm.DB, oldPath, newPath string) error {
	oldPrefix := oldPath + pathSeparator

	var descendants []FileEntry
	if err := tx.Where("path LIKE ?", oldPrefix+"%").Find(&descendants).Error; err != nil {
		return fmt.Errorf("store: collect rename descendants of %q: %w", oldPath, err)
	}

	for _, d := range descendants {
		suffix := strings.TrimPrefix(d.Path, oldPrefix)
		newDescPath := newPath + pathSeparator + suffix
		newDescParent := dirname(newDescPath)

		if err := tx.Model(&FileEntry{}).Where("id = ?", d.ID).Updates(map[string]any{
			"path":        newDescPath,
			"folded_path": Fold(newDescPath),
			"parent_path": newDescParent,
		}).Error; err != nil {
			return fmt.Errorf("store: cascade rename %q: %w", d.Path, err)
		}
		if err := s.syncFTS(tx, d.ID, Fold(d.Name), Fold(newDescPath)); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueConstraintErr(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
