package repository

import (
	"alcyxob/fitlist/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// OrderByCreatedAt sorts a listing newest first.
const OrderByCreatedAt = "createdAt"

// ListOptions controls record listings. An empty OrderBy keeps the natural
// (insertion) order, which callers must not rely on.
type ListOptions struct {
	OrderBy string
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// RecordRepository stores one record variant. Every method except Create
// is scoped by owner: a record owned by someone else behaves as missing.
type RecordRepository[T domain.Record[T]] interface {
	// Create stores the record, assigning ID and CreatedAt. The header's
	// UserID must already be set.
	Create(ctx context.Context, record T) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (T, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID, opts ListOptions) ([]T, error)
	// Update merges set into the stored document.
	Update(ctx context.Context, id, ownerID primitive.ObjectID, set map[string]any) error
	Delete(ctx context.Context, id, ownerID primitive.ObjectID) error
	// Watch signals on the returned channel after every change that may
	// affect ownerID's records. Signals coalesce; the channel is closed when
	// ctx is done or the underlying notification source fails.
	Watch(ctx context.Context, ownerID primitive.ObjectID) (<-chan struct{}, error)
}
