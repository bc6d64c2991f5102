package service

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/live"
	"alcyxob/fitlist/internal/repository/memory"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func nextSnapshot[T any](t *testing.T, s *live.Stream[T]) live.Snapshot[T] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := s.Next(ctx)
	require.NoError(t, err)
	return snap
}

func squat() domain.Workout {
	return domain.Workout{Day: domain.Monday, Exercise: "Squat", Reps: 10, Sets: 3}
}

func TestRecordServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(memory.NewWorkoutRepository(), 0)
	owner := primitive.NewObjectID()

	input := squat()
	input.Completed = true
	input.UserID = primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, input)
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())
	require.Equal(t, owner, created.UserID)
	require.False(t, created.Completed)
	require.False(t, created.CreatedAt.IsZero())
	require.Nil(t, created.UpdatedAt)
}

func TestRecordServiceCreateValidates(t *testing.T) {
	svc := NewRecordService(memory.NewWorkoutRepository(), 0)

	_, err := svc.Create(context.Background(), primitive.NewObjectID(), domain.Workout{Day: domain.Monday})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"exercise", "reps", "sets"}, verr.Fields)
}

func TestRecordServiceUpdateStampsWorkoutEdits(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(memory.NewWorkoutRepository(), 0)
	owner := primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, squat())
	require.NoError(t, err)

	toggled, err := svc.Toggle(ctx, owner, created.ID)
	require.NoError(t, err)
	require.True(t, toggled.Completed)
	require.Nil(t, toggled.UpdatedAt)

	reps := 15
	updated, err := svc.Update(ctx, owner, created.ID, domain.WorkoutPatch{Reps: &reps})
	require.NoError(t, err)
	require.Equal(t, 15, updated.Reps)
	require.Equal(t, "Squat", updated.Exercise)
	require.True(t, updated.Completed)
	require.NotNil(t, updated.UpdatedAt)
}

func TestRecordServiceTodoEditsKeepNoTimestamp(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(memory.NewTodoRepository(), 0)
	owner := primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, domain.Todo{Title: "milk"})
	require.NoError(t, err)

	title := "oat milk"
	updated, err := svc.Update(ctx, owner, created.ID, domain.TodoPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "oat milk", updated.Title)
	require.Nil(t, updated.UpdatedAt)
}

func TestRecordServiceNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(memory.NewTodoRepository(), 0)
	owner, stranger := primitive.NewObjectID(), primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, domain.Todo{Title: "mine"})
	require.NoError(t, err)

	title := "yours now"
	_, err = svc.Update(ctx, stranger, created.ID, domain.TodoPatch{Title: &title})
	require.ErrorIs(t, err, ErrRecordNotFound)
	_, err = svc.Toggle(ctx, stranger, created.ID)
	require.ErrorIs(t, err, ErrRecordNotFound)
	require.ErrorIs(t, svc.Delete(ctx, stranger, created.ID), ErrRecordNotFound)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, owner, created.ID), ErrRecordNotFound)
}

func TestRecordServiceListOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(memory.NewTodoRepository(), 0)
	owner := primitive.NewObjectID()

	for _, title := range []string{"a", "b"} {
		_, err := svc.Create(ctx, owner, domain.Todo{Title: title})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	todos, err := svc.List(ctx, owner, "createdAt")
	require.NoError(t, err)
	require.Equal(t, "b", todos[0].Title)

	_, err = svc.List(ctx, owner, "title")
	require.ErrorIs(t, err, ErrUnsupportedSort)
}

func TestRecordServiceSubscribe(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTodoRepository()
	svc := NewRecordService(repo, 0)
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	stream, err := svc.Subscribe(ctx, alice, "createdAt")
	require.NoError(t, err)

	initial := nextSnapshot(t, stream)
	require.Empty(t, initial.Items)

	created, err := svc.Create(ctx, alice, domain.Todo{Title: "milk"})
	require.NoError(t, err)
	snap := nextSnapshot(t, stream)
	require.Len(t, snap.Items, 1)
	require.Equal(t, created.ID, snap.Items[0].ID)
	require.Greater(t, snap.Seq, initial.Seq)

	// Another owner's writes produce no snapshot for alice.
	_, err = svc.Create(ctx, bob, domain.Todo{Title: "not alice's"})
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, alice, created.ID)
	require.NoError(t, err)
	snap = nextSnapshot(t, stream)
	require.Len(t, snap.Items, 1)
	require.True(t, snap.Items[0].Completed)

	require.NoError(t, svc.Delete(ctx, alice, created.ID))
	snap = nextSnapshot(t, stream)
	require.Empty(t, snap.Items)

	stream.Close()
	require.Eventually(t, func() bool { return repo.WatcherCount() == 0 }, time.Second, time.Millisecond)
}

func TestRecordServiceSubscribeSkipsUnchangedResults(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(memory.NewTodoRepository(), 0)
	owner := primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, domain.Todo{Title: "milk"})
	require.NoError(t, err)
	stream, err := svc.Subscribe(ctx, owner, "")
	require.NoError(t, err)
	defer stream.Close()
	initial := nextSnapshot(t, stream)
	require.Len(t, initial.Items, 1)

	same := "milk"
	_, err = svc.Update(ctx, owner, created.ID, domain.TodoPatch{Title: &same})
	require.NoError(t, err)
	renamed := "oat milk"
	_, err = svc.Update(ctx, owner, created.ID, domain.TodoPatch{Title: &renamed})
	require.NoError(t, err)

	// The identical write is skipped, so the next snapshot is the rename.
	snap := nextSnapshot(t, stream)
	require.Equal(t, "oat milk", snap.Items[0].Title)
	require.Equal(t, initial.Seq+1, snap.Seq)
}

func TestRecordServiceSubscribeRejectsUnknownOrder(t *testing.T) {
	svc := NewRecordService(memory.NewTodoRepository(), 0)
	_, err := svc.Subscribe(context.Background(), primitive.NewObjectID(), "title")
	require.ErrorIs(t, err, ErrUnsupportedSort)
}
