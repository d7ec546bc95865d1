package app

import (
	"context"
	"sync"
	"time"

	"github.com/five82/shopfront/internal/logtail"
)

const (
	defaultActivityInterval = 2 * time.Second
	defaultActivityLines    = 400
)

// Activity holds the latest tail of the log file for the activity view.
type Activity struct {
	path     string
	maxLines int

	mu      sync.RWMutex
	entries []logtail.Entry
	err     error
	updated time.Time
}

// NewActivity returns an empty activity buffer over the log at path.
func NewActivity(path string, maxLines int) *Activity {
	if maxLines <= 0 {
		maxLines = defaultActivityLines
	}
	return &Activity{path: path, maxLines: maxLines}
}

// Snapshot returns a copy of the last read entries and the read error, if
// any.
func (a *Activity) Snapshot() ([]logtail.Entry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]logtail.Entry, len(a.entries))
	copy(out, a.entries)
	return out, a.err
}

// Updated reports when the buffer was last refreshed.
func (a *Activity) Updated() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.updated
}

// Refresh rereads the log tail.
func (a *Activity) Refresh() {
	var (
		entries []logtail.Entry
		err     error
	)
	if a.path != "" {
		entries, err = logtail.Tail(a.path, a.maxLines)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		a.entries = entries
	}
	a.err = err
	a.updated = time.Now()
}

// StartActivityPoller refreshes a at a fixed cadence until ctx ends. It
// returns immediately.
func StartActivityPoller(ctx context.Context, a *Activity, interval time.Duration) {
	if interval <= 0 {
		interval = defaultActivityInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			a.Refresh()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
