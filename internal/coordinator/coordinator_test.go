package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/localindex/gofind/internal/coreerrors"
	"github.com/localindex/gofind/internal/store"
	"github.com/localindex/gofind/pkg/log"
)

type fakeLogger struct{}

func (fakeLogger) Debug(string, ...any)           {}
func (fakeLogger) Info(string, ...any)            {}
func (fakeLogger) Warn(string, ...any)            {}
func (fakeLogger) Error(string, ...any)           {}
func (fakeLogger) Fatal(string, ...any)           {}
func (fakeLogger) Named(string) log.LoggerService     { return fakeLogger{} }
func (fakeLogger) Fields(...any) log.LoggerService    { return fakeLogger{} }

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()

	st, err := store.New(store.Config{Path: filepath.Join(t.TempDir(), "gofind.db")})
	require.NoError(t, err)
	require.NoError(t, st.Connect(context.Background()))
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	return New(st, Config{ScannerWorkers: 1, ScannerBatchSize: 100, WatcherDebounce: 10 * time.Millisecond}, fakeLogger{})
}

func TestAddRootRejectsNonExistentPath(t *testing.T) {
	c := newTestCoordinator(t)
	err := c.AddRoot(context.Background(), "/definitely/does/not/exist")
	require.Error(t, err)
	require.True(t, coreerrors.IsKind(err, coreerrors.InvalidInput))
}

func TestAddRootRejectsNestedRoot(t *testing.T) {
	c := newTestCoordinator(t)
	base := t.TempDir()

	require.NoError(t, c.AddRoot(context.Background(), base))
	waitForStatus(t, c, base, store.WatchRootWatching, store.WatchRootError)

	nested := filepath.Join(base, "nested")
	require.NoError(t, mkdirAll(nested))

	err := c.AddRoot(context.Background(), nested)
	require.Error(t, err)
	require.True(t, coreerrors.IsKind(err, coreerrors.InvalidInput))
}

func TestCoveringRoot(t *testing.T) {
	c := newTestCoordinator(t)
	base := t.TempDir()

	require.NoError(t, c.AddRoot(context.Background(), base))
	waitForStatus(t, c, base, store.WatchRootWatching, store.WatchRootError)

	covering, ok := c.CoveringRoot(filepath.Join(base, "anything.txt"))
	require.True(t, ok)
	require.Equal(t, base, covering)

	_, ok = c.CoveringRoot("/somewhere/else")
	require.False(t, ok)
}

func TestIgnoreCRUDPublishesSnapshot(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.AddDefaultIgnores(ctx))
	require.Contains(t, c.ListIgnores(), "node_modules")

	require.NoError(t, c.AddIgnore(ctx, "*.bak"))
	require.Contains(t, c.ListIgnores(), "*.bak")

	require.NoError(t, c.RemoveIgnore(ctx, "*.bak"))
	require.NotContains(t, c.ListIgnores(), "*.bak")
}

func TestSearchAppliesDefaults(t *testing.T) {
	c := newTestCoordinator(t)
	res, err := c.Search(context.Background(), store.SearchOptions{})
	require.NoError(t, err)
	require.Empty(t, res.Entries)
}

func waitForStatus(t *testing.T, c *Coordinator, path string, want ...store.WatchRootStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, rs := range c.Status().Roots {
			if rs.Path != path {
				continue
			}
			for _, w := range want {
				if rs.Status == w {
					return
				}
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("root %q never reached one of %v", path, want)
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}
