// Package form holds typed drafts for the record and credential forms.
// Drafts keep user input as text; conversion to records happens in
// ToPayload and is checked by Validate first.
package form

import (
	"alcyxob/fitlist/internal/domain"
	"context"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Creator stores a new record. client.RecordStore satisfies it.
type Creator[T domain.Record[T]] interface {
	Create(ctx context.Context, ownerID primitive.ObjectID, record T) (primitive.ObjectID, error)
}

// Updater applies a patch to an existing record. client.RecordStore
// satisfies it.
type Updater interface {
	Update(ctx context.Context, id primitive.ObjectID, patch domain.Patch) error
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// parseCount reads a non-negative integer typed by the user.
func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
