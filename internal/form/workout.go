package form

import (
	"alcyxob/fitlist/internal/domain"
	"context"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutDraft is the text state of the workout form.
type WorkoutDraft struct {
	Day      string
	Exercise string
	Reps     string
	Sets     string
}

// Validate lists blank fields first; once all are filled it checks the day
// name and that reps and sets are positive integers.
func (d WorkoutDraft) Validate() error {
	var missing []string
	if blank(d.Day) {
		missing = append(missing, "day")
	}
	if blank(d.Exercise) {
		missing = append(missing, "exercise")
	}
	if blank(d.Reps) {
		missing = append(missing, "reps")
	}
	if blank(d.Sets) {
		missing = append(missing, "sets")
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Fields: missing, Reason: "required"}
	}

	if _, ok := domain.ParseWeekday(d.Day); !ok {
		return &domain.ValidationError{Fields: []string{"day"}, Reason: "must be a weekday name"}
	}
	var bad []string
	if n, ok := parseCount(d.Reps); !ok || n <= 0 {
		bad = append(bad, "reps")
	}
	if n, ok := parseCount(d.Sets); !ok || n <= 0 {
		bad = append(bad, "sets")
	}
	if len(bad) > 0 {
		return &domain.ValidationError{Fields: bad, Reason: "must be a positive integer"}
	}
	return nil
}

// ToPayload converts the draft into a workout. It fails rather than guess
// when the day or a number does not parse; range checks are left to Validate.
func (d WorkoutDraft) ToPayload() (domain.Workout, error) {
	day, ok := domain.ParseWeekday(d.Day)
	if !ok {
		return domain.Workout{}, &domain.ValidationError{Fields: []string{"day"}, Reason: "must be a weekday name"}
	}
	reps, repsOK := parseCount(d.Reps)
	sets, setsOK := parseCount(d.Sets)
	if !repsOK || !setsOK {
		var fields []string
		if !repsOK {
			fields = append(fields, "reps")
		}
		if !setsOK {
			fields = append(fields, "sets")
		}
		return domain.Workout{}, &domain.ValidationError{Fields: fields, Reason: "must be an integer"}
	}
	return domain.Workout{
		Day:      day,
		Exercise: strings.TrimSpace(d.Exercise),
		Reps:     reps,
		Sets:     sets,
	}, nil
}

// Submit validates, creates the workout and clears the draft. On any
// error the draft is left as typed.
func (d *WorkoutDraft) Submit(ctx context.Context, store Creator[domain.Workout], ownerID primitive.ObjectID) (primitive.ObjectID, error) {
	if err := d.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	workout, err := d.ToPayload()
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, err := store.Create(ctx, ownerID, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	d.Reset()
	return id, nil
}

// Reset empties the draft.
func (d *WorkoutDraft) Reset() {
	*d = WorkoutDraft{}
}

// WorkoutEdit is a draft seeded from a stored workout.
type WorkoutEdit struct {
	Draft    WorkoutDraft
	original domain.Workout
}

// EditWorkout starts an edit of w.
func EditWorkout(w domain.Workout) *WorkoutEdit {
	return &WorkoutEdit{
		Draft: WorkoutDraft{
			Day:      string(w.Day),
			Exercise: w.Exercise,
			Reps:     strconv.Itoa(w.Reps),
			Sets:     strconv.Itoa(w.Sets),
		},
		original: w,
	}
}

// ID is the workout being edited.
func (e *WorkoutEdit) ID() primitive.ObjectID {
	return e.original.ID
}

// Patch returns the fields that differ from the stored workout.
func (e *WorkoutEdit) Patch() (domain.WorkoutPatch, error) {
	var patch domain.WorkoutPatch
	if err := e.Draft.Validate(); err != nil {
		return patch, err
	}
	next, err := e.Draft.ToPayload()
	if err != nil {
		return patch, err
	}
	if next.Day != e.original.Day {
		patch.Day = &next.Day
	}
	if next.Exercise != e.original.Exercise {
		patch.Exercise = &next.Exercise
	}
	if next.Reps != e.original.Reps {
		patch.Reps = &next.Reps
	}
	if next.Sets != e.original.Sets {
		patch.Sets = &next.Sets
	}
	return patch, nil
}

// Save sends the changed fields. It reports changed=false and makes no
// call when nothing differs.
func (e *WorkoutEdit) Save(ctx context.Context, store Updater) (changed bool, err error) {
	patch, err := e.Patch()
	if err != nil {
		return false, err
	}
	if len(patch.Fields()) == 0 {
		return false, nil
	}
	if err := store.Update(ctx, e.original.ID, patch); err != nil {
		return false, err
	}
	e.apply(patch)
	return true, nil
}

func (e *WorkoutEdit) apply(p domain.WorkoutPatch) {
	if p.Day != nil {
		e.original.Day = *p.Day
	}
	if p.Exercise != nil {
		e.original.Exercise = *p.Exercise
	}
	if p.Reps != nil {
		e.original.Reps = *p.Reps
	}
	if p.Sets != nil {
		e.original.Sets = *p.Sets
	}
}
