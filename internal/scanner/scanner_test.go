package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localindex/gofind/internal/ignore"
	"github.com/localindex/gofind/internal/store"
	"github.com/localindex/gofind/pkg/log"
)

type fakeLogger struct{}

func (fakeLogger) Debug(string, ...any)      {}
func (fakeLogger) Info(string, ...any)       {}
func (fakeLogger) Warn(string, ...any)       {}
func (fakeLogger) Error(string, ...any)      {}
func (fakeLogger) Fatal(string, ...any)      {}
func (fakeLogger) Named(string) log.LoggerService  { return fakeLogger{} }
func (fakeLogger) Fields(...any) log.LoggerService { return fakeLogger{} }

type collectingSink struct {
	mu    sync.Mutex
	batch []store.UpsertInput
}

func (c *collectingSink) sink(ctx context.Context, batch []store.UpsertInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch = append(c.batch, batch...)
	return nil
}

func (c *collectingSink) paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.batch))
	for i, in := range c.batch {
		out[i] = in.Path
	}
	return out
}

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "alpha.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "beta.txt"), []byte("y"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "node_modules"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pruned.js"), []byte("z"), 0644))

	return root
}

func TestScanVisitsEveryUnignoredEntry(t *testing.T) {
	root := buildTree(t)
	sink := &collectingSink{}
	ignores := func() *ignore.Set { return ignore.New(ignore.DefaultPatterns()) }

	sc := New(2, 10, sink.sink, ignores, fakeLogger{})
	var progress Progress
	require.NoError(t, sc.Scan(context.Background(), root, &progress))

	paths := sink.paths()
	require.Contains(t, paths, filepath.Join(root, "alpha.txt"))
	require.Contains(t, paths, filepath.Join(root, "sub"))
	require.Contains(t, paths, filepath.Join(root, "sub", "beta.txt"))
	require.NotContains(t, paths, filepath.Join(root, "node_modules"))
	require.NotContains(t, paths, filepath.Join(root, "node_modules", "pruned.js"))
}

func TestScanShallowDoesNotDescend(t *testing.T) {
	root := buildTree(t)
	sink := &collectingSink{}
	ignores := func() *ignore.Set { return ignore.New(nil) }

	sc := New(1, 10, sink.sink, ignores, fakeLogger{})
	require.NoError(t, sc.ScanShallow(context.Background(), root))

	paths := sink.paths()
	require.Contains(t, paths, filepath.Join(root, "alpha.txt"))
	require.Contains(t, paths, filepath.Join(root, "sub"))
	require.NotContains(t, paths, filepath.Join(root, "sub", "beta.txt"))
}

func TestScanRejectsNonDirectoryRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "notadir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	sink := &collectingSink{}
	ignores := func() *ignore.Set { return ignore.New(nil) }
	sc := New(1, 10, sink.sink, ignores, fakeLogger{})

	var progress Progress
	require.Error(t, sc.Scan(context.Background(), file, &progress))
}
