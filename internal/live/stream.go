// Package live carries full-snapshot subscriptions from a producer (a
// change feed, a websocket) to a consumer (a view model, a websocket).
//
// A Stream is bounded with latest-wins semantics: every snapshot is a full
// replacement, so when the consumer falls behind the oldest pending
// snapshot is dropped instead of blocking the producer.
package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultBuffer is used when a non-positive buffer size is requested.
const DefaultBuffer = 16

// ErrClosed is returned by Next and Run once a stream was closed without failure.
var ErrClosed = errors.New("live: stream closed")

// Snapshot is the full set of records matching a subscription at one point.
type Snapshot[T any] struct {
	Seq   uint64 // increases by one per published snapshot
	Items []T
}

// Stream is a cancellable sequence of snapshots.
type Stream[T any] struct {
	ID string

	ch     chan Snapshot[T]
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex // guards closed, err, seq and sends on ch
	closed bool
	err    error
	seq    uint64

	deliverMu  sync.Mutex // held by Run while a callback executes
	delivering atomic.Bool
}

// NewStream creates a stream whose producer context is derived from parent.
// The returned context is cancelled when the stream closes; producers
// must stop publishing once it is done.
func NewStream[T any](parent context.Context, buffer int) (*Stream[T], context.Context) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Stream[T]{
		ID:     uuid.NewString(),
		ch:     make(chan Snapshot[T], buffer),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return s, ctx
}

// Publish queues a snapshot. It never blocks; it reports false once the
// stream is closed.
func (s *Stream[T]) Publish(items []T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.seq++
	snap := Snapshot[T]{Seq: s.seq, Items: items}

	select {
	case s.ch <- snap:
		return true
	default:
	}
	// Full: drop the oldest pending snapshot to make room.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
	return true
}

// Fail closes the stream recording err as the cause.
func (s *Stream[T]) Fail(err error) {
	s.mu.Lock()
	if !s.closed && s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.Close()
}

// Close releases the producer and discards pending snapshots. After Close
// returns no Run callback starts; one already in progress may still be
// finishing. Close may be called from inside a Run callback and is
// idempotent.
func (s *Stream[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
drain:
	for {
		select {
		case <-s.ch:
		default:
			break drain
		}
	}
	close(s.ch)
	close(s.done)
	s.mu.Unlock()

	if !s.delivering.Load() {
		// Wait out a callback that passed its closed check before we set it.
		s.deliverMu.Lock()
		s.deliverMu.Unlock()
	}
}

// Done is closed when the stream closes.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Err returns the failure cause, or nil while open or after a plain Close.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Next waits for the next snapshot. It returns the failure cause, or
// ErrClosed, once the stream is closed.
func (s *Stream[T]) Next(ctx context.Context) (Snapshot[T], error) {
	select {
	case snap, ok := <-s.ch:
		if !ok {
			return Snapshot[T]{}, s.closeErr()
		}
		return snap, nil
	case <-ctx.Done():
		return Snapshot[T]{}, ctx.Err()
	}
}

// Run invokes fn for every snapshot, in publish order, until the stream
// closes, and returns the failure cause or ErrClosed.
func (s *Stream[T]) Run(fn func(Snapshot[T])) error {
	for snap := range s.ch {
		s.deliverMu.Lock()
		if s.isClosed() {
			s.deliverMu.Unlock()
			break
		}
		s.delivering.Store(true)
		fn(snap)
		s.delivering.Store(false)
		s.deliverMu.Unlock()
	}
	return s.closeErr()
}

func (s *Stream[T]) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stream[T]) closeErr() error {
	if err := s.Err(); err != nil {
		return err
	}
	return ErrClosed
}
