package store

// Kind distinguishes a file entry from a directory entry.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// FileEntry is one row per filesystem object ever observed under any
// watched root. Path is the unique key; ID is assigned on first insert
// and never reused.
type FileEntry struct {
	ID         uint    `gorm:"primaryKey"`
	Name       string  `gorm:"type:text;not null;index:idx_file_entries_name"`
	Path       string  `gorm:"type:text;not null;uniqueIndex:idx_file_entries_path"`
	// FoldedPath is Fold(Path), kept in sync on every write alongside the
	// FTS document and bigram postings so the length-1 query tier can
	// compare against the same Unicode-aware folding every other tier
	// uses, instead of SQLite's ASCII-only LOWER().
	FoldedPath string  `gorm:"column:folded_path;type:text;not null;index:idx_file_entries_folded_path"`
	Kind       Kind    `gorm:"type:text;not null"`
	Size       int64   `gorm:"not null"`
	MTime      float64 `gorm:"column:mtime;not null"`
	ParentPath *string `gorm:"column:parent_path;index:idx_file_entries_parent_path"`
}

func (FileEntry) TableName() string {
	return "file_entries"
}

// WatchRootStatus is the per-root state-machine value surfaced by
// Coordinator.Status.
type WatchRootStatus string

const (
	WatchRootIdle      WatchRootStatus = "idle"
	WatchRootScanning  WatchRootStatus = "scanning"
	WatchRootWatching  WatchRootStatus = "watching"
	WatchRootError     WatchRootStatus = "error"
)

// WatchRoot is a user-declared root directory under monitoring.
type WatchRoot struct {
	ID            uint    `gorm:"primaryKey"`
	Path          string  `gorm:"type:text;not null;uniqueIndex"`
	Enabled       bool    `gorm:"not null;default:true"`
	Status        string  `gorm:"type:text;not null;default:'idle'"`
	TotalFiles    int64   `gorm:"not null;default:0"`
	IndexedFiles  int64   `gorm:"not null;default:0"`
	LastFullScan  *float64 `gorm:"column:last_full_scan"`
	LastUpdated   *float64 `gorm:"column:last_updated"`
	ErrorMessage  *string `gorm:"column:error_message"`
}

func (WatchRoot) TableName() string {
	return "watch_roots"
}

// IgnorePattern is one leaf-name glob/literal, or (for patterns that
// contain a path separator) a relative-path-segment literal, matched
// against scanned/watched entries.
type IgnorePattern struct {
	ID      uint   `gorm:"primaryKey"`
	Pattern string `gorm:"type:text;not null;uniqueIndex"`
}

func (IgnorePattern) TableName() string {
	return "ignore_patterns"
}

// BigramPosting is one row per 2-character window in a case-folded
// FileEntry.Name, used by the length-2 search tier.
type BigramPosting struct {
	ID       uint   `gorm:"primaryKey"`
	FileID   uint   `gorm:"column:file_id;not null;index:idx_bigram_postings_file_id"`
	Bigram   string `gorm:"type:text;not null;index:idx_bigram_postings_bigram"`
	Position int    `gorm:"column:position;not null"`
}

func (BigramPosting) TableName() string {
	return "bigram_postings"
}

// UpsertInput is the write-facing shape of a FileEntry: everything the
// Scanner and Watcher know about an observed filesystem object, keyed
// by Path rather than by an assigned ID.
type UpsertInput struct {
	Path       string
	Name       string
	Kind       Kind
	Size       int64
	MTime      float64
	ParentPath *string
}
