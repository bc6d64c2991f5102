package memory

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTodo(owner primitive.ObjectID, title string) domain.Todo {
	return domain.Todo{Meta: domain.Meta{UserID: owner}, Title: title}
}

func TestRecordRepositoryOwnerScoping(t *testing.T) {
	ctx := context.Background()
	repo := NewTodoRepository()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	id, err := repo.Create(ctx, newTodo(alice, "milk"))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id, alice)
	require.NoError(t, err)
	require.Equal(t, "milk", got.Title)
	require.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetByID(ctx, id, bob)
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, id, bob, map[string]any{"title": "stolen"}), repository.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, id, bob), repository.ErrNotFound)

	bobs, err := repo.ListByOwner(ctx, bob, repository.ListOptions{})
	require.NoError(t, err)
	require.NotNil(t, bobs)
	require.Empty(t, bobs)
}

func TestRecordRepositoryCreateRequiresOwner(t *testing.T) {
	_, err := NewTodoRepository().Create(context.Background(), domain.Todo{Title: "orphan"})
	require.Error(t, err)
}

func TestRecordRepositoryOrderByCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewTodoRepository()
	owner := primitive.NewObjectID()

	for _, title := range []string{"first", "second", "third"} {
		_, err := repo.Create(ctx, newTodo(owner, title))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	natural, err := repo.ListByOwner(ctx, owner, repository.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, "first", natural[0].Title)

	newest, err := repo.ListByOwner(ctx, owner, repository.ListOptions{OrderBy: repository.OrderByCreatedAt})
	require.NoError(t, err)
	require.Equal(t, []string{"third", "second", "first"}, []string{newest[0].Title, newest[1].Title, newest[2].Title})

	_, err = repo.ListByOwner(ctx, owner, repository.ListOptions{OrderBy: "title"})
	require.Error(t, err)
}

func TestRecordRepositoryUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkoutRepository()
	owner := primitive.NewObjectID()

	id, err := repo.Create(ctx, domain.Workout{
		Meta: domain.Meta{UserID: owner},
		Day:  domain.Monday, Exercise: "Squat", Reps: 10, Sets: 3,
	})
	require.NoError(t, err)
	before, err := repo.GetByID(ctx, id, owner)
	require.NoError(t, err)

	stamp := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.Update(ctx, id, owner, map[string]any{"reps": 12, "updatedAt": stamp}))

	after, err := repo.GetByID(ctx, id, owner)
	require.NoError(t, err)
	require.Equal(t, 12, after.Reps)
	require.Equal(t, "Squat", after.Exercise)
	require.Equal(t, domain.Monday, after.Day)
	require.Equal(t, before.ID, after.ID)
	require.Equal(t, owner, after.UserID)
	require.True(t, before.CreatedAt.Equal(after.CreatedAt))
	require.NotNil(t, after.UpdatedAt)
	require.True(t, stamp.Equal(*after.UpdatedAt))
}

func TestRecordRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTodoRepository()
	owner := primitive.NewObjectID()

	id, err := repo.Create(ctx, newTodo(owner, "once"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, id, owner))
	require.ErrorIs(t, repo.Delete(ctx, id, owner), repository.ErrNotFound)

	left, err := repo.ListByOwner(ctx, owner, repository.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestRecordRepositoryWatch(t *testing.T) {
	repo := NewTodoRepository()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := repo.Watch(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 1, repo.WatcherCount())

	_, err = repo.Create(context.Background(), newTodo(bob, "not yours"))
	require.NoError(t, err)
	select {
	case <-changes:
		t.Fatal("signalled for another owner's change")
	case <-time.After(20 * time.Millisecond):
	}

	_, err = repo.Create(context.Background(), newTodo(alice, "yours"))
	require.NoError(t, err)
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("no signal for own change")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	require.Equal(t, 0, repo.WatcherCount())
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	user := &domain.User{Email: "Ann@Example.com", PasswordHash: "hash"}
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, id, got.ID)

	_, err = repo.Create(ctx, &domain.User{Email: "ann@example.com", PasswordHash: "other"})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = repo.GetByID(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, repository.ErrNotFound)
}
