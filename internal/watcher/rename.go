package watcher

import (
	"sync"
	"time"
)

// pendingRename tracks one fsnotify Remove/Rename event on the chance
// it's actually the source half of a move: fsnotify reports renames as
// an unpaired Remove/Rename on the old path plus a separate Create on
// the new one, so pairing them is the watcher's job, not the library's.
type pendingRename struct {
	oldPath string
	timer   *time.Timer
}

// renameTracker pairs a Remove/Rename event with whichever Create
// event follows it within window. If nothing arrives in time, onTimeout
// fires and the caller treats the original event as a genuine delete
// (moved out of all watched roots).
type renameTracker struct {
	mu        sync.Mutex
	pending   []*pendingRename
	window    time.Duration
	onTimeout func(*pendingRename)
}

func newRenameTracker(window time.Duration, onTimeout func(*pendingRename)) *renameTracker {
	return &renameTracker{window: window, onTimeout: onTimeout}
}

func (rt *renameTracker) trackRemoval(oldPath string) {
	pr := &pendingRename{oldPath: oldPath}

	rt.mu.Lock()
	rt.pending = append(rt.pending, pr)
	rt.mu.Unlock()

	pr.timer = time.AfterFunc(rt.window, func() {
		rt.mu.Lock()
		removed := rt.removeLocked(pr)
		rt.mu.Unlock()
		if removed {
			rt.onTimeout(pr)
		}
	})
}

// matchCreate claims the oldest pending removal, FIFO, so a burst of
// renames pairs up in arrival order. It returns nil if nothing is
// pending, meaning this Create is a genuinely new path.
func (rt *renameTracker) matchCreate(newPath string) *pendingRename {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if len(rt.pending) == 0 {
		return nil
	}
	pr := rt.pending[0]
	rt.pending = rt.pending[1:]
	pr.timer.Stop()
	return pr
}

func (rt *renameTracker) removeLocked(target *pendingRename) bool {
	for i, pr := range rt.pending {
		if pr == target {
			rt.pending = append(rt.pending[:i], rt.pending[i+1:]...)
			return true
		}
	}
	return false
}
