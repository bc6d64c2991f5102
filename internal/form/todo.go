package form

import (
	"alcyxob/fitlist/internal/domain"
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TodoDraft is the text state of the to-do form.
type TodoDraft struct {
	Title string
}

// Validate requires a non-blank title.
func (d TodoDraft) Validate() error {
	if blank(d.Title) {
		return &domain.ValidationError{Fields: []string{"title"}, Reason: "required"}
	}
	return nil
}

// ToPayload converts the draft into a to-do.
func (d TodoDraft) ToPayload() (domain.Todo, error) {
	return domain.Todo{Title: strings.TrimSpace(d.Title)}, nil
}

// Submit validates, creates the to-do and clears the draft.
func (d *TodoDraft) Submit(ctx context.Context, store Creator[domain.Todo], ownerID primitive.ObjectID) (primitive.ObjectID, error) {
	if err := d.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	todo, err := d.ToPayload()
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, err := store.Create(ctx, ownerID, todo)
	if err != nil {
		return primitive.NilObjectID, err
	}
	d.Reset()
	return id, nil
}

// Reset empties the draft.
func (d *TodoDraft) Reset() {
	*d = TodoDraft{}
}

// TodoEdit is a draft seeded from a stored to-do.
type TodoEdit struct {
	Draft    TodoDraft
	original domain.Todo
}

// EditTodo starts an edit of t.
func EditTodo(t domain.Todo) *TodoEdit {
	return &TodoEdit{Draft: TodoDraft{Title: t.Title}, original: t}
}

// ID is the to-do being edited.
func (e *TodoEdit) ID() primitive.ObjectID {
	return e.original.ID
}

// Patch returns the title when it changed.
func (e *TodoEdit) Patch() (domain.TodoPatch, error) {
	var patch domain.TodoPatch
	if err := e.Draft.Validate(); err != nil {
		return patch, err
	}
	next, err := e.Draft.ToPayload()
	if err != nil {
		return patch, err
	}
	if next.Title != e.original.Title {
		patch.Title = &next.Title
	}
	return patch, nil
}

// Save sends the new title, if any.
func (e *TodoEdit) Save(ctx context.Context, store Updater) (changed bool, err error) {
	patch, err := e.Patch()
	if err != nil {
		return false, err
	}
	if patch.Title == nil {
		return false, nil
	}
	if err := store.Update(ctx, e.original.ID, patch); err != nil {
		return false, err
	}
	e.original.Title = *patch.Title
	return true, nil
}
