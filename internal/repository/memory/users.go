// Package memory holds in-process repositories for local development
// (database.driver: memory) and tests. Data is lost on restart.
package memory

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/repository"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository stores users in memory.
type UserRepository struct {
	mu      sync.RWMutex
	users   map[primitive.ObjectID]domain.User
	byEmail map[string]primitive.ObjectID
}

// NewUserRepository constructs an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[primitive.ObjectID]domain.User),
		byEmail: make(map[string]primitive.ObjectID),
	}
}

// Create implements repository.UserRepository.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" {
		return primitive.NilObjectID, errors.New("user email and password hash are required")
	}
	email := strings.ToLower(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return primitive.NilObjectID, repository.ErrDuplicate
	}

	user.ID = primitive.NewObjectID()
	user.Email = email
	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.users[user.ID] = *user
	r.byEmail[email] = user.ID
	return user.ID, nil
}

// GetByEmail implements repository.UserRepository.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := r.users[id]
	return &user, nil
}

// GetByID implements repository.UserRepository.
func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}
