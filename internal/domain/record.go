package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meta is the header every owned record carries. It is assigned by the
// backend on creation; clients never set ID, UserID or CreatedAt.
type Meta struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"` // Owner, filters every query and subscription
	Completed bool               `bson:"completed" json:"completed"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"` // Stamped on workout edits only
}

// Header returns the record header. Promoted into Workout and Todo.
func (m Meta) Header() Meta {
	return m
}

// Record is the constraint shared by the record variants (Workout, Todo).
// T is the concrete variant so WithHeader can return a copy of itself.
type Record[T any] interface {
	Header() Meta
	WithHeader(Meta) T
	Collection() string
	Validate() error
}

// Patch is a partial update: only the fields it carries are merged.
type Patch interface {
	Fields() map[string]any
	Validate() error
	// StampsUpdatedAt reports whether applying the patch should set updatedAt.
	StampsUpdatedAt() bool
}

// Counters are the aggregate numbers derived from a snapshot.
type Counters struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
}

// Count derives Counters from a snapshot.
func Count[T Record[T]](records []T) Counters {
	c := Counters{Total: len(records)}
	for _, r := range records {
		if r.Header().Completed {
			c.Completed++
		}
	}
	c.Remaining = c.Total - c.Completed
	return c
}
