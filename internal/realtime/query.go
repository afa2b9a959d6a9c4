package realtime

import (
	"context"
	"sync"
)

// Query describes one live subscription.
//
// Fetch runs the subscription's query against the store. Changes delivers a
// signal whenever the underlying collection may have changed; when it is
// closed the subscription ends quietly. Equal decides whether a fresh result
// differs from the last one delivered; nil means every fetch is delivered.
type Query[T any] struct {
	Fetch      func(ctx context.Context) ([]T, error)
	Changes    <-chan struct{}
	OnSnapshot func([]T)
	OnError    func(error)
	Equal      func(a, b []T) bool
}

// Run starts q on its own goroutine and returns its stop function.
//
// Snapshots are delivered one at a time from that goroutine, initial
// snapshot first. A Fetch error ends the subscription after being passed to
// OnError once. stop cancels the loop, calls release (which frees the
// change source), and is idempotent. stop waits for a callback already in
// progress, so once stop has returned no OnSnapshot or OnError call runs.
// For the same reason the callbacks must not call stop themselves.
// Cancelling ctx ends the loop as well.
func Run[T any](ctx context.Context, q Query[T], release func()) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	// mu is held across every callback and while stop marks the
	// subscription stopped.
	var (
		mu      sync.Mutex
		stopped bool
		once    sync.Once
	)

	stop = func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()

			cancel()
			if release != nil {
				release()
			}
		})
	}

	deliver := func(fn func()) bool {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return false
		}
		fn()
		return true
	}

	go func() {
		defer stop()

		var last []T
		delivered := false

		refresh := func() bool {
			items, err := q.Fetch(ctx)
			if err != nil {
				if ctx.Err() == nil && q.OnError != nil {
					deliver(func() { q.OnError(err) })
				}
				return false
			}
			if delivered && q.Equal != nil && q.Equal(last, items) {
				return true
			}
			last, delivered = items, true
			return deliver(func() { q.OnSnapshot(items) })
		}

		if !refresh() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-q.Changes:
				if !ok {
					return
				}
				if !refresh() {
					return
				}
			}
		}
	}()

	return stop
}
