package gitrepo

import (
	"context"
	"sync"
	"time"
)

// Committer batches rapid board saves into one commit. Carrying a card
// through several columns fires a save per step; the debounce window lets
// those collapse into a single revision.
type Committer struct {
	dir      string
	file     string
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	running bool
}

type CommitterOpts struct {
	// Dir is the board directory, File the board file name within it.
	Dir  string
	File string

	Debounce time.Duration
}

func NewCommitter(opts CommitterOpts) *Committer {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Committer{
		dir:      opts.Dir,
		file:     opts.File,
		debounce: debounce,
	}
}

// Notify records that the board file changed and schedules a commit once
// the debounce window passes quietly.
func (c *Committer) Notify() {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.pending = true
	if c.timer == nil {
		c.timer = time.AfterFunc(c.debounce, c.onTimer)
		c.mu.Unlock()
		return
	}
	c.timer.Reset(c.debounce)
	c.mu.Unlock()
}

func (c *Committer) onTimer() {
	c.mu.Lock()
	if c.running {
		// Another run is in-flight; schedule again to pick up pending changes.
		if c.timer != nil {
			c.timer.Reset(c.debounce)
		}
		c.mu.Unlock()
		return
	}
	if !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.running = true
	c.mu.Unlock()

	// Best-effort: errors are intentionally dropped. The user can always
	// commit by hand; the next save retries anyway.
	_, _ = CommitBoardFile(context.Background(), c.dir, c.file, "")

	c.mu.Lock()
	c.running = false
	// If another Notify happened while running, schedule another run.
	if c.pending && c.timer != nil {
		c.timer.Reset(c.debounce)
	}
	c.mu.Unlock()
}

// Flush commits any pending change immediately, without waiting out the
// debounce window. Used on shutdown.
func (c *Committer) Flush(ctx context.Context) error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	pending := c.pending
	c.pending = false
	c.mu.Unlock()

	if !pending {
		return nil
	}
	_, err := CommitBoardFile(ctx, c.dir, c.file, "")
	return err
}
