package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/localindex/gofind/internal/ignore"
	"github.com/localindex/gofind/internal/store"
	"github.com/localindex/gofind/pkg/log"
)

type fakeLogger struct{}

func (fakeLogger) Debug(string, ...any)           {}
func (fakeLogger) Info(string, ...any)            {}
func (fakeLogger) Warn(string, ...any)            {}
func (fakeLogger) Error(string, ...any)           {}
func (fakeLogger) Fatal(string, ...any)           {}
func (fakeLogger) Named(string) log.LoggerService  { return fakeLogger{} }
func (fakeLogger) Fields(...any) log.LoggerService { return fakeLogger{} }

type recorder struct {
	mu       sync.Mutex
	upserts  []string
	deletes  []string
	renames  [][2]string
}

func (r *recorder) upsertPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.upserts...)
}

func newTestWatcher(t *testing.T, root string) (*Watcher, *recorder) {
	t.Helper()
	rec := &recorder{}

	cb := Callbacks{
		Upsert: func(ctx context.Context, in store.UpsertInput) error {
			rec.mu.Lock()
			rec.upserts = append(rec.upserts, in.Path)
			rec.mu.Unlock()
			return nil
		},
		DeleteSubtree: func(ctx context.Context, path string) error {
			rec.mu.Lock()
			rec.deletes = append(rec.deletes, path)
			rec.mu.Unlock()
			return nil
		},
		Rename: func(ctx context.Context, oldPath, newPath string) error {
			rec.mu.Lock()
			rec.renames = append(rec.renames, [2]string{oldPath, newPath})
			rec.mu.Unlock()
			return nil
		},
		RescanDirectory:   func(string) {},
		RequestFullRescan: func(string) {},
		Ignores:           func() *ignore.Set { return ignore.New(ignore.DefaultPatterns()) },
	}

	w, err := New(root, 20*time.Millisecond, cb, fakeLogger{})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	return w, rec
}

func TestWatcherUpsertsOnCreate(t *testing.T) {
	root := t.TempDir()
	_, rec := newTestWatcher(t, root)

	target := filepath.Join(root, "new.log")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0644))

	require.Eventually(t, func() bool {
		for _, p := range rec.upsertPaths() {
			if p == target {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestWatcherDropsIgnoredEvents(t *testing.T) {
	root := t.TempDir()
	_, rec := newTestWatcher(t, root)

	require.NoError(t, os.Mkdir(filepath.Join(root, "node_modules"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "x.js"), []byte("x"), 0644))

	time.Sleep(200 * time.Millisecond)
	for _, p := range rec.upsertPaths() {
		require.NotContains(t, p, "node_modules")
	}
}
