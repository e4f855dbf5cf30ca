package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(Config{Path: filepath.Join(t.TempDir(), "gofind.db")})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.Connect(ctx))
	require.NoError(t, st.Migrate(ctx))

	t.Cleanup(func() { _ = st.Close() })
	return st
}

func ptr(s string) *string { return &s }

func TestUpsertManyInsertsAndUpdates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertMany(ctx, []UpsertInput{
		{Path: "/root/alpha.txt", Name: "alpha.txt", Kind: KindFile, Size: 10, MTime: 1, ParentPath: ptr("/root")},
	}))
	count, err := st.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, st.UpsertMany(ctx, []UpsertInput{
		{Path: "/root/alpha.txt", Name: "alpha.txt", Kind: KindFile, Size: 20, MTime: 2, ParentPath: ptr("/root")},
	}))
	count, err = st.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count, "update-in-place must not duplicate the row")
}

func TestThreeTierSearch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertMany(ctx, []UpsertInput{
		{Path: "/root/申告書.pdf", Name: "申告書.pdf", Kind: KindFile, Size: 1, MTime: 1, ParentPath: ptr("/root")},
	}))

	for _, q := range []string{"申", "申告", "申告書"} {
		res, err := st.Search(ctx, SearchOptions{Query: q})
		require.NoError(t, err)
		require.Len(t, res.Entries, 1, "query %q should match", q)
		require.Equal(t, "申告書.pdf", res.Entries[0].Name)
	}
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertMany(ctx, []UpsertInput{
		{Path: "/root/Alpha.txt", Name: "Alpha.txt", Kind: KindFile, Size: 1, MTime: 1, ParentPath: ptr("/root")},
		{Path: "/root/beta.md", Name: "beta.md", Kind: KindFile, Size: 1, MTime: 1, ParentPath: ptr("/root")},
	}))

	res, err := st.Search(ctx, SearchOptions{Query: "al"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Equal(t, "Alpha.txt", res.Entries[0].Name)
}

func TestSearchMultiTokenIsAndOfPlans(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertMany(ctx, []UpsertInput{
		{Path: "/root/alpha-report.pdf", Name: "alpha-report.pdf", Kind: KindFile, MTime: 1, ParentPath: ptr("/root")},
		{Path: "/root/alpha-notes.txt", Name: "alpha-notes.txt", Kind: KindFile, MTime: 1, ParentPath: ptr("/root")},
	}))

	res, err := st.Search(ctx, SearchOptions{Query: "alpha report"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Equal(t, "alpha-report.pdf", res.Entries[0].Name)
}

func TestDeleteSubtreeRemovesDescendants(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertMany(ctx, []UpsertInput{
		{Path: "/root/sub", Name: "sub", Kind: KindDirectory, ParentPath: ptr("/root")},
		{Path: "/root/sub/a.txt", Name: "a.txt", Kind: KindFile, ParentPath: ptr("/root/sub")},
		{Path: "/root/sub/b.txt", Name: "b.txt", Kind: KindFile, ParentPath: ptr("/root/sub")},
		{Path: "/root/other.txt", Name: "other.txt", Kind: KindFile, ParentPath: ptr("/root")},
	}))

	removed, err := st.DeleteSubtree(ctx, "/root/sub")
	require.NoError(t, err)
	require.EqualValues(t, 3, removed)

	count, err := st.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestRenameCascadesToDescendants(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertMany(ctx, []UpsertInput{
		{Path: "/a", Name: "a", Kind: KindDirectory},
		{Path: "/a/child.txt", Name: "child.txt", Kind: KindFile, ParentPath: ptr("/a")},
	}))

	require.NoError(t, st.Rename(ctx, "/a", "/b"))

	res, err := st.Search(ctx, SearchOptions{Query: "child"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Equal(t, "/b/child.txt", res.Entries[0].Path)

	res, err = st.Search(ctx, SearchOptions{RootPrefix: "/a"})
	require.NoError(t, err)
	require.Empty(t, res.Entries, "nothing should remain under the old prefix")
}

func TestRepairIndexesRebuildsEmptyShadowTables(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertMany(ctx, []UpsertInput{
		{Path: "/root/alpha.txt", Name: "alpha.txt", Kind: KindFile, ParentPath: ptr("/root")},
	}))

	require.NoError(t, st.db.WithContext(ctx).Exec("DELETE FROM bigram_postings").Error)
	require.NoError(t, st.db.WithContext(ctx).Exec("DELETE FROM file_entries_fts").Error)

	require.NoError(t, st.RepairIndexes(ctx))

	res, err := st.Search(ctx, SearchOptions{Query: "al"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
}
