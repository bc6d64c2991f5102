package live

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStreamDeliversInOrder(t *testing.T) {
	s, _ := NewStream[int](context.Background(), 4)
	defer s.Close()

	require.True(t, s.Publish([]int{1}))
	require.True(t, s.Publish([]int{1, 2}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	first, err := s.Next(ctx)
	require.NoError(t, err)
	second, err := s.Next(ctx)
	require.NoError(t, err)

	require.Equal(t, uint64(1), first.Seq)
	require.Equal(t, []int{1, 2}, second.Items)
}

func TestStreamDropsOldestWhenFull(t *testing.T) {
	s, _ := NewStream[int](context.Background(), 2)
	defer s.Close()

	for i := 1; i <= 5; i++ {
		require.True(t, s.Publish([]int{i}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a, err := s.Next(ctx)
	require.NoError(t, err)
	b, err := s.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{4}, a.Items)
	require.Equal(t, []int{5}, b.Items)
	require.Equal(t, uint64(5), b.Seq)
}

func TestStreamCloseReleasesProducer(t *testing.T) {
	s, producer := NewStream[int](context.Background(), 1)
	s.Close()
	s.Close()

	select {
	case <-producer.Done():
	case <-time.After(time.Second):
		t.Fatal("producer context not cancelled")
	}
	require.False(t, s.Publish([]int{1}))

	_, err := s.Next(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, s.Err())
}

func TestStreamParentCancelCloses(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s, _ := NewStream[int](parent, 1)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("stream not closed after parent cancel")
	}
}

func TestStreamFail(t *testing.T) {
	boom := errors.New("boom")
	s, _ := NewStream[int](context.Background(), 1)
	s.Fail(boom)

	require.ErrorIs(t, s.Err(), boom)
	require.ErrorIs(t, s.Run(func(Snapshot[int]) {}), boom)
}

func TestStreamNoCallbackStartsAfterClose(t *testing.T) {
	s, producer := NewStream[int](context.Background(), 8)

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- s.Run(func(Snapshot[int]) {
			calls.Add(1)
		})
	}()

	go func() {
		for i := 0; producer.Err() == nil; i++ {
			s.Publish([]int{i})
		}
	}()

	require.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, time.Millisecond)
	s.Close()
	atClose := calls.Load()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
	// Only a callback already past its check when Close ran may finish.
	require.LessOrEqual(t, calls.Load(), atClose+1)
}

func TestStreamCloseFromCallback(t *testing.T) {
	s, _ := NewStream[int](context.Background(), 4)
	s.Publish([]int{1})
	s.Publish([]int{2})

	var calls int
	err := s.Run(func(Snapshot[int]) {
		calls++
		s.Close()
	})
	require.ErrorIs(t, err, ErrClosed)
	require.Equal(t, 1, calls)
}
