package domain

import "strings"

// TodoCollection is the collection holding to-do items.
const TodoCollection = "todos"

// Todo is a to-do entry.
type Todo struct {
	Meta  `bson:",inline"`
	Title string `bson:"title" json:"title"`
}

// WithHeader returns a copy of t carrying m.
func (t Todo) WithHeader(m Meta) Todo {
	t.Meta = m
	return t
}

// Collection implements Record.
func (Todo) Collection() string { return TodoCollection }

// Validate checks that the title is present.
func (t Todo) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Fields: []string{"title"}, Reason: "required"}
	}
	return nil
}

// TodoPatch carries the to-do fields to change.
type TodoPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Fields maps the patch onto stored field names.
func (p TodoPatch) Fields() map[string]any {
	set := make(map[string]any)
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Completed != nil {
		set["completed"] = *p.Completed
	}
	return set
}

// Validate rejects empty patches and blank titles.
func (p TodoPatch) Validate() error {
	if p.Title == nil && p.Completed == nil {
		return &ValidationError{Reason: "patch has no fields"}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Fields: []string{"title"}, Reason: "required"}
	}
	return nil
}

// StampsUpdatedAt is always false: to-do edits keep no edit timestamp.
func (TodoPatch) StampsUpdatedAt() bool { return false }
