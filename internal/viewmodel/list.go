// Package viewmodel keeps the latest snapshot of a subscription together
// with its derived counters, for display code to read.
package viewmodel

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/live"
	"context"
	"errors"
	"slices"
	"sync"
)

// ChangeFunc receives a copy of the new items and their counters.
type ChangeFunc[T any] func(items []T, counts domain.Counters)

// List mirrors the snapshots of one bound stream. Snapshots are the only
// way its state changes.
type List[T domain.Record[T]] struct {
	mu     sync.Mutex
	items  []T
	counts domain.Counters
	ready  chan struct{} // closed on the first snapshot of the current binding
	seen   bool
	stream *live.Stream[T]
	closed bool // set by Close; no snapshot is applied or delivered after it
	err    error

	listeners map[uint64]ChangeFunc[T]
	nextID    uint64
}

// New creates an empty, unbound list.
func New[T domain.Record[T]]() *List[T] {
	return &List[T]{
		ready:     make(chan struct{}),
		listeners: make(map[uint64]ChangeFunc[T]),
	}
}

// Bind starts mirroring stream. A previously bound stream is closed and
// the state is cleared until stream delivers its first snapshot.
func (l *List[T]) Bind(stream *live.Stream[T]) {
	l.mu.Lock()
	prev := l.stream
	l.stream = stream
	l.closed = false
	l.items = nil
	l.counts = domain.Counters{}
	l.err = nil
	if l.seen {
		l.ready = make(chan struct{})
		l.seen = false
	}
	l.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	go func() {
		err := stream.Run(func(snap live.Snapshot[T]) {
			l.apply(stream, snap.Items)
		})
		if errors.Is(err, live.ErrClosed) {
			return
		}
		l.mu.Lock()
		if l.stream == stream {
			l.err = err
		}
		l.mu.Unlock()
	}()
}

func (l *List[T]) apply(from *live.Stream[T], items []T) {
	l.mu.Lock()
	if l.closed || l.stream != from {
		l.mu.Unlock()
		return
	}
	l.items = slices.Clone(items)
	l.counts = domain.Count(l.items)
	if !l.seen {
		l.seen = true
		close(l.ready)
	}
	counts := l.counts
	ids := make([]uint64, 0, len(l.listeners))
	for id := range l.listeners {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	slices.Sort(ids) // registration order
	for _, id := range ids {
		fn, ok := l.listener(from, id)
		if !ok {
			continue
		}
		fn(slices.Clone(items), counts)
	}
}

// listener returns the callback registered under id while from is still
// the live binding. A listener cancelled or a list closed mid-delivery is
// skipped.
func (l *List[T]) listener(from *live.Stream[T], id uint64) (ChangeFunc[T], bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.stream != from {
		return nil, false
	}
	fn, ok := l.listeners[id]
	return fn, ok
}

// Items returns a copy of the latest snapshot.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Counts returns the counters of the latest snapshot.
func (l *List[T]) Counts() domain.Counters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts
}

// OnChange registers fn for every later snapshot. Calls happen on the
// stream's delivery goroutine, one at a time, in registration order. No
// call starts after cancel returns.
func (l *List[T]) OnChange(fn ChangeFunc[T]) (cancel func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.listeners, id)
			l.mu.Unlock()
		})
	}
}

// Wait blocks until the bound stream delivered its first snapshot, failed,
// or ctx is done.
func (l *List[T]) Wait(ctx context.Context) error {
	l.mu.Lock()
	ready, stream := l.ready, l.stream
	l.mu.Unlock()
	if stream == nil {
		return errors.New("viewmodel: no stream bound")
	}

	select {
	case <-ready:
		return nil
	case <-stream.Done():
		select {
		case <-ready:
			return nil
		default:
		}
		if err := stream.Err(); err != nil {
			return err
		}
		return live.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the bound stream ends. It is nil while unbound.
func (l *List[T]) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stream == nil {
		return nil
	}
	return l.stream.Done()
}

// Err returns why the bound stream failed, or nil.
func (l *List[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	if l.stream != nil {
		return l.stream.Err()
	}
	return nil
}

// Close stops mirroring. No listener call starts after Close returns and
// the items stay as they were; a listener already running may finish.
// Close may be called from inside a listener.
func (l *List[T]) Close() {
	l.mu.Lock()
	l.closed = true
	stream := l.stream
	l.mu.Unlock()
	if stream != nil {
		stream.Close()
	}
}
