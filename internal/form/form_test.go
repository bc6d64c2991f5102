package form

import (
	"alcyxob/fitlist/internal/domain"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeStore[T domain.Record[T]] struct {
	created []T
	patches []domain.Patch
	err     error
}

func (f *fakeStore[T]) Create(ctx context.Context, ownerID primitive.ObjectID, record T) (primitive.ObjectID, error) {
	if f.err != nil {
		return primitive.NilObjectID, f.err
	}
	f.created = append(f.created, record)
	return primitive.NewObjectID(), nil
}

func (f *fakeStore[T]) Update(ctx context.Context, id primitive.ObjectID, patch domain.Patch) error {
	if f.err != nil {
		return f.err
	}
	f.patches = append(f.patches, patch)
	return nil
}

func validationFields(t *testing.T, err error) []string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected *domain.ValidationError, got %v", err)
	return verr.Fields
}

func TestWorkoutDraftValidate(t *testing.T) {
	require.Equal(t, []string{"day", "exercise", "reps", "sets"}, validationFields(t, WorkoutDraft{}.Validate()))
	require.Equal(t, []string{"exercise"}, validationFields(t, WorkoutDraft{Day: "Monday", Exercise: "  ", Reps: "1", Sets: "1"}.Validate()))
	require.Equal(t, []string{"day"}, validationFields(t, WorkoutDraft{Day: "Caturday", Exercise: "Squat", Reps: "1", Sets: "1"}.Validate()))
	require.Equal(t, []string{"reps", "sets"}, validationFields(t, WorkoutDraft{Day: "Monday", Exercise: "Squat", Reps: "ten", Sets: "0"}.Validate()))
	require.NoError(t, WorkoutDraft{Day: "monday", Exercise: "Squat", Reps: " 10 ", Sets: "3"}.Validate())
}

func TestWorkoutDraftToPayload(t *testing.T) {
	w, err := WorkoutDraft{Day: "tuesday", Exercise: " Push Up ", Reps: "12", Sets: "3"}.ToPayload()
	require.NoError(t, err)
	require.Equal(t, domain.Workout{Day: domain.Tuesday, Exercise: "Push Up", Reps: 12, Sets: 3}, w)

	_, err = WorkoutDraft{Day: "Tuesday", Exercise: "Push Up", Reps: "12x", Sets: "3"}.ToPayload()
	require.Equal(t, []string{"reps"}, validationFields(t, err))
}

func TestWorkoutDraftSubmit(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore[domain.Workout]{}
	owner := primitive.NewObjectID()

	d := WorkoutDraft{Day: "Monday", Exercise: "Squat"}
	_, err := d.Submit(ctx, store, owner)
	require.Error(t, err)
	require.Empty(t, store.created)
	require.Equal(t, "Squat", d.Exercise)

	d.Reps, d.Sets = "10", "3"
	store.err = errors.New("offline")
	_, err = d.Submit(ctx, store, owner)
	require.Error(t, err)
	require.Equal(t, "10", d.Reps)

	store.err = nil
	id, err := d.Submit(ctx, store, owner)
	require.NoError(t, err)
	require.False(t, id.IsZero())
	require.Len(t, store.created, 1)
	require.Equal(t, 10, store.created[0].Reps)
	require.Equal(t, WorkoutDraft{}, d)
}

func TestWorkoutEditPatchOnlyChangedFields(t *testing.T) {
	ctx := context.Background()
	stored := domain.Workout{
		Meta: domain.Meta{ID: primitive.NewObjectID()},
		Day:  domain.Monday, Exercise: "Squat", Reps: 10, Sets: 3,
	}
	edit := EditWorkout(stored)
	require.Equal(t, WorkoutDraft{Day: "Monday", Exercise: "Squat", Reps: "10", Sets: "3"}, edit.Draft)

	store := &fakeStore[domain.Workout]{}
	changed, err := edit.Save(ctx, store)
	require.NoError(t, err)
	require.False(t, changed)
	require.Empty(t, store.patches)

	edit.Draft.Reps = "12"
	patch, err := edit.Patch()
	require.NoError(t, err)
	require.Equal(t, map[string]any{"reps": 12}, patch.Fields())

	changed, err = edit.Save(ctx, store)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, store.patches, 1)

	// Saved state becomes the new baseline.
	patch, err = edit.Patch()
	require.NoError(t, err)
	require.Empty(t, patch.Fields())

	edit.Draft.Sets = ""
	_, err = edit.Save(ctx, store)
	require.Equal(t, []string{"sets"}, validationFields(t, err))
}

func TestTodoDraft(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore[domain.Todo]{}

	d := TodoDraft{Title: "   "}
	_, err := d.Submit(ctx, store, primitive.NewObjectID())
	require.Equal(t, []string{"title"}, validationFields(t, err))

	d.Title = " milk "
	_, err = d.Submit(ctx, store, primitive.NewObjectID())
	require.NoError(t, err)
	require.Equal(t, "milk", store.created[0].Title)
	require.Empty(t, d.Title)

	store.err = errors.New("offline")
	d.Title = "eggs"
	_, err = d.Submit(ctx, store, primitive.NewObjectID())
	require.Error(t, err)
	require.Equal(t, "eggs", d.Title, "a failed submit keeps the draft")
	require.Len(t, store.created, 1)
}

func TestTodoEdit(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore[domain.Todo]{}
	edit := EditTodo(domain.Todo{Meta: domain.Meta{ID: primitive.NewObjectID()}, Title: "milk"})

	changed, err := edit.Save(ctx, store)
	require.NoError(t, err)
	require.False(t, changed)

	edit.Draft.Title = "oat milk"
	changed, err = edit.Save(ctx, store)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, map[string]any{"title": "oat milk"}, store.patches[0].Fields())

	edit.Draft.Title = " "
	_, err = edit.Save(ctx, store)
	require.Equal(t, []string{"title"}, validationFields(t, err))
	require.Len(t, store.patches, 1)
}

func TestCredentialsValidate(t *testing.T) {
	require.Equal(t, []string{"email", "password"}, validationFields(t, Credentials{}.Validate()))
	require.Equal(t, []string{"email"}, validationFields(t, Credentials{Email: "nope", Password: "x"}.Validate()))
	require.NoError(t, Credentials{Email: " ann@example.com ", Password: "x"}.Validate())
}

func TestSignupValidate(t *testing.T) {
	var verr *domain.ValidationError

	err := Signup{Email: "ann@example.com", Password: "secret1", Confirm: "secret2"}.Validate()
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"confirm"}, verr.Fields)

	err = Signup{Email: "ann@example.com", Password: "abc", Confirm: "abc"}.Validate()
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"password"}, verr.Fields)
	require.Equal(t, "must be at least 6 characters", verr.Reason)

	require.NoError(t, Signup{Email: "ann@example.com", Password: "secret1", Confirm: "secret1"}.Validate())
}
