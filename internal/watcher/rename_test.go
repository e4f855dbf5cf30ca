package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMatchCreatePairsFIFO(t *testing.T) {
	rt := newRenameTracker(100*time.Millisecond, func(*pendingRename) {})

	rt.trackRemoval("/a")
	rt.trackRemoval("/b")

	first := rt.matchCreate("/a-new")
	require.NotNil(t, first)
	require.Equal(t, "/a", first.oldPath)

	second := rt.matchCreate("/b-new")
	require.NotNil(t, second)
	require.Equal(t, "/b", second.oldPath)

	require.Nil(t, rt.matchCreate("/c-new"))
}

func TestTrackRemovalTimesOutWithoutMatch(t *testing.T) {
	var mu sync.Mutex
	var fired *pendingRename

	rt := newRenameTracker(20*time.Millisecond, func(pr *pendingRename) {
		mu.Lock()
		fired = pr
		mu.Unlock()
	})

	rt.trackRemoval("/gone")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired != nil && fired.oldPath == "/gone"
	}, time.Second, 5*time.Millisecond)
}

func TestMatchCreateCancelsTimeout(t *testing.T) {
	fired := false
	rt := newRenameTracker(20*time.Millisecond, func(*pendingRename) { fired = true })

	rt.trackRemoval("/old")
	require.NotNil(t, rt.matchCreate("/new"))

	time.Sleep(50 * time.Millisecond)
	require.False(t, fired, "a matched removal must not also fire its timeout")
}
