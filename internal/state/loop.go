package state

import (
	"context"
	"sync"
)

// Dispatcher accepts actions. *Store applies them inline; *Loop queues them
// for its single applying goroutine.
type Dispatcher interface {
	Dispatch(Action)
}

const defaultQueue = 64

// Loop serializes every state write through one goroutine so producers
// (subscription pumps, the pager, the session) never interleave inside a
// transition.
type Loop struct {
	store   *Store
	actions chan Action
	stopped chan struct{}
	once    sync.Once
}

// NewLoop returns a loop applying to store. Call Run to start it.
func NewLoop(store *Store) *Loop {
	return &Loop{
		store:   store,
		actions: make(chan Action, defaultQueue),
		stopped: make(chan struct{}),
	}
}

// Store returns the store the loop writes to.
func (l *Loop) Store() *Store { return l.store }

// Run applies queued actions until ctx is cancelled. Actions still queued
// at that point are dropped.
func (l *Loop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.stopped) })
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-l.actions:
			l.store.Dispatch(a)
		}
	}
}

// Dispatch queues a. It blocks while the queue is full and drops a once the
// loop has stopped.
func (l *Loop) Dispatch(a Action) {
	select {
	case l.actions <- a:
	case <-l.stopped:
	}
}

// Flush waits until every action queued before the call has been applied.
func (l *Loop) Flush(ctx context.Context) error {
	b := barrier{done: make(chan struct{})}
	select {
	case l.actions <- b:
	case <-l.stopped:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-b.done:
		return nil
	case <-l.stopped:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}
