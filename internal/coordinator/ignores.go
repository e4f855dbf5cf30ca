package coordinator

import (
	"context"

	"github.com/localindex/gofind/internal/ignore"
)

// ListIgnores returns the currently-active ignore pattern list.
func (c *Coordinator) ListIgnores() []string {
	return c.currentIgnores().Patterns()
}

// AddIgnore persists pattern and publishes a new immutable snapshot for
// future scanner/watcher operations to read; in-flight operations keep
// using whichever snapshot they already loaded.
func (c *Coordinator) AddIgnore(ctx context.Context, pattern string) error {
	if err := c.st.AddIgnorePattern(ctx, pattern); err != nil {
		return err
	}
	c.publishIgnores(append(c.ListIgnores(), pattern))
	return nil
}

// RemoveIgnore deletes pattern and publishes a new snapshot without it.
func (c *Coordinator) RemoveIgnore(ctx context.Context, pattern string) error {
	if err := c.st.RemoveIgnorePattern(ctx, pattern); err != nil {
		return err
	}

	current := c.ListIgnores()
	next := make([]string, 0, len(current))
	for _, p := range current {
		if p != pattern {
			next = append(next, p)
		}
	}
	c.publishIgnores(next)
	return nil
}

// AddDefaultIgnores populates the initial ignore set on a fresh
// database, per §6's default ignore list.
func (c *Coordinator) AddDefaultIgnores(ctx context.Context) error {
	for _, p := range ignore.DefaultPatterns() {
		if err := c.AddIgnore(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) publishIgnores(patterns []string) {
	c.ignores.Store(ignore.New(patterns))
}
