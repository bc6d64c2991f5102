package viewmodel

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/live"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func todo(title string, done bool) domain.Todo {
	return domain.Todo{Meta: domain.Meta{ID: primitive.NewObjectID(), Completed: done}, Title: title}
}

func TestListMirrorsSnapshots(t *testing.T) {
	stream, _ := live.NewStream[domain.Todo](context.Background(), 4)
	list := New[domain.Todo]()
	defer list.Close()

	changes := make(chan domain.Counters, 4)
	cancel := list.OnChange(func(items []domain.Todo, counts domain.Counters) {
		changes <- counts
	})
	defer cancel()

	list.Bind(stream)
	stream.Publish([]domain.Todo{todo("a", true), todo("b", false), todo("c", false)})

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	require.NoError(t, list.Wait(ctx))
	require.Equal(t, domain.Counters{Total: 3, Completed: 1, Remaining: 2}, <-changes)
	require.Len(t, list.Items(), 3)
	require.Equal(t, 1, list.Counts().Completed)

	stream.Publish([]domain.Todo{})
	require.Equal(t, domain.Counters{}, <-changes)
	require.Empty(t, list.Items())
}

func TestListItemsIsACopy(t *testing.T) {
	stream, _ := live.NewStream[domain.Todo](context.Background(), 1)
	list := New[domain.Todo]()
	defer list.Close()
	list.Bind(stream)
	stream.Publish([]domain.Todo{todo("a", false)})

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	require.NoError(t, list.Wait(ctx))

	items := list.Items()
	items[0].Title = "changed"
	require.Equal(t, "a", list.Items()[0].Title)
}

func TestListNoChangeAfterClose(t *testing.T) {
	stream, _ := live.NewStream[domain.Todo](context.Background(), 1)
	list := New[domain.Todo]()

	var calls atomic.Int32
	list.OnChange(func([]domain.Todo, domain.Counters) { calls.Add(1) })
	list.Bind(stream)
	stream.Publish([]domain.Todo{todo("a", false)})
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	list.Close()
	require.False(t, stream.Publish([]domain.Todo{todo("b", false)}))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestListCloseDuringDelivery(t *testing.T) {
	stream, _ := live.NewStream[domain.Todo](context.Background(), 1)
	list := New[domain.Todo]()

	entered := make(chan struct{})
	release := make(chan struct{})
	var closed atomic.Bool
	var late atomic.Int32
	// The first listener holds the delivery while Close runs elsewhere.
	list.OnChange(func([]domain.Todo, domain.Counters) {
		if closed.Load() {
			late.Add(1)
		}
		close(entered)
		<-release
	})
	list.OnChange(func([]domain.Todo, domain.Counters) {
		if closed.Load() {
			late.Add(1)
		}
	})

	list.Bind(stream)
	stream.Publish([]domain.Todo{todo("a", false)})
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("snapshot was not delivered")
	}
	before := list.Items()

	closeDone := make(chan struct{})
	go func() {
		list.Close()
		closed.Store(true)
		close(closeDone)
	}()
	<-closeDone
	close(release)

	time.Sleep(20 * time.Millisecond)
	require.Zero(t, late.Load(), "listener started after Close returned")
	require.Equal(t, before, list.Items())
}

func TestListCloseFromListener(t *testing.T) {
	stream, _ := live.NewStream[domain.Todo](context.Background(), 1)
	list := New[domain.Todo]()

	var second atomic.Int32
	list.OnChange(func([]domain.Todo, domain.Counters) { list.Close() })
	list.OnChange(func([]domain.Todo, domain.Counters) { second.Add(1) })

	list.Bind(stream)
	stream.Publish([]domain.Todo{todo("a", false)})
	select {
	case <-stream.Done():
	case <-time.After(time.Second):
		t.Fatal("Close from a listener did not close the stream")
	}
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, second.Load())
	require.Len(t, list.Items(), 1)
}

func TestListCancelOnChange(t *testing.T) {
	stream, _ := live.NewStream[domain.Todo](context.Background(), 4)
	list := New[domain.Todo]()
	defer list.Close()

	var calls atomic.Int32
	cancel := list.OnChange(func([]domain.Todo, domain.Counters) { calls.Add(1) })
	cancel()
	cancel()

	list.Bind(stream)
	stream.Publish([]domain.Todo{todo("a", false)})
	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	require.NoError(t, list.Wait(ctx))
	require.Zero(t, calls.Load())
}

func TestListRebindClearsAndClosesPrevious(t *testing.T) {
	first, _ := live.NewStream[domain.Todo](context.Background(), 1)
	second, _ := live.NewStream[domain.Todo](context.Background(), 1)
	list := New[domain.Todo]()
	defer list.Close()

	list.Bind(first)
	first.Publish([]domain.Todo{todo("old", false)})
	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	require.NoError(t, list.Wait(ctx))

	list.Bind(second)
	require.Empty(t, list.Items())
	select {
	case <-first.Done():
	default:
		t.Fatal("previous stream left open")
	}

	second.Publish([]domain.Todo{todo("new", false)})
	require.NoError(t, list.Wait(ctx))
	require.Equal(t, "new", list.Items()[0].Title)
}

func TestListReportsStreamFailure(t *testing.T) {
	boom := errors.New("backend went away")
	stream, _ := live.NewStream[domain.Todo](context.Background(), 1)
	list := New[domain.Todo]()
	list.Bind(stream)
	stream.Fail(boom)

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	require.ErrorIs(t, list.Wait(ctx), boom)
	require.Eventually(t, func() bool { return errors.Is(list.Err(), boom) }, time.Second, time.Millisecond)
}
