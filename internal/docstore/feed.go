package docstore

import "sync"

// Snapshot is one delivery on a Feed: either the full current result set of
// a live query, or the error that ended it.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Feed is a cancellable live-query handle. The producing backend publishes
// snapshots and calls Finish when it stops; consumers range over Events
// and call Stop when they no longer want updates.
type Feed struct {
	events chan Snapshot
	done   chan struct{}
	once   sync.Once
	onStop func()
}

// NewFeed returns a feed. onStop, when non-nil, runs once on the first Stop
// and should release backend resources (cancel a context, close a pub/sub).
func NewFeed(onStop func()) *Feed {
	return &Feed{
		events: make(chan Snapshot, 1),
		done:   make(chan struct{}),
		onStop: onStop,
	}
}

// Events delivers snapshots until the producer finishes.
func (f *Feed) Events() <-chan Snapshot {
	return f.events
}

// Done is closed once Stop has been called.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Stop cancels the feed. It is safe to call more than once.
func (f *Feed) Stop() {
	f.once.Do(func() {
		close(f.done)
		if f.onStop != nil {
			f.onStop()
		}
	})
}

// Stopped reports whether Stop has been called.
func (f *Feed) Stopped() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Publish blocks until the snapshot is accepted or the feed is stopped.
// It reports false when the feed was stopped. Only the producer calls it.
func (f *Feed) Publish(s Snapshot) bool {
	if f.Stopped() {
		return false
	}
	select {
	case f.events <- s:
		return true
	case <-f.done:
		return false
	}
}

// Fail publishes err and finishes the feed.
func (f *Feed) Fail(err error) {
	f.Publish(Snapshot{Err: err})
	f.Finish()
}

// Finish closes the event channel. The producer calls it exactly once.
func (f *Feed) Finish() {
	close(f.events)
}
