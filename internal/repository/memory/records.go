package memory

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/repository"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type watcher struct {
	owner   primitive.ObjectID
	changes chan struct{}
}

// RecordRepository stores one record variant in memory and notifies
// watchers of the owner whose records changed.
type RecordRepository[T domain.Record[T]] struct {
	mu       sync.RWMutex
	records  map[primitive.ObjectID]T
	order    []primitive.ObjectID // insertion order
	watchers map[string]watcher
}

// NewRecordRepository constructs an empty repository for T.
func NewRecordRepository[T domain.Record[T]]() *RecordRepository[T] {
	return &RecordRepository[T]{
		records:  make(map[primitive.ObjectID]T),
		watchers: make(map[string]watcher),
	}
}

// NewWorkoutRepository constructs an in-memory workout repository.
func NewWorkoutRepository() *RecordRepository[domain.Workout] {
	return NewRecordRepository[domain.Workout]()
}

// NewTodoRepository constructs an in-memory to-do repository.
func NewTodoRepository() *RecordRepository[domain.Todo] {
	return NewRecordRepository[domain.Todo]()
}

// Create implements repository.RecordRepository.
func (r *RecordRepository[T]) Create(ctx context.Context, record T) (primitive.ObjectID, error) {
	meta := record.Header()
	if meta.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("record requires an owner")
	}
	meta.ID = primitive.NewObjectID()
	meta.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[meta.ID] = record.WithHeader(meta)
	r.order = append(r.order, meta.ID)
	r.notifyLocked(meta.UserID)
	return meta.ID, nil
}

// GetByID implements repository.RecordRepository.
func (r *RecordRepository[T]) GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok || record.Header().UserID != ownerID {
		var zero T
		return zero, repository.ErrNotFound
	}
	return record, nil
}

// ListByOwner implements repository.RecordRepository. Ties on createdAt
// keep the most recently inserted record first.
func (r *RecordRepository[T]) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, opts repository.ListOptions) ([]T, error) {
	if opts.OrderBy != "" && opts.OrderBy != repository.OrderByCreatedAt {
		return nil, fmt.Errorf("unsupported order key %q", opts.OrderBy)
	}

	r.mu.RLock()
	out := make([]T, 0)
	for _, id := range r.order {
		if record := r.records[id]; record.Header().UserID == ownerID {
			out = append(out, record)
		}
	}
	r.mu.RUnlock()

	if opts.OrderBy == repository.OrderByCreatedAt {
		slices.Reverse(out)
		slices.SortStableFunc(out, func(a, b T) int {
			return b.Header().CreatedAt.Compare(a.Header().CreatedAt)
		})
	}
	return out, nil
}

// Update implements repository.RecordRepository. The record is merged
// through its BSON form so field names match the Mongo implementation.
func (r *RecordRepository[T]) Update(ctx context.Context, id, ownerID primitive.ObjectID, set map[string]any) error {
	if len(set) == 0 {
		return errors.New("update requires at least one field")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.Header().UserID != ownerID {
		return repository.ErrNotFound
	}

	merged, err := mergeFields(record, set)
	if err != nil {
		return err
	}
	r.records[id] = merged
	r.notifyLocked(ownerID)
	return nil
}

// Delete implements repository.RecordRepository.
func (r *RecordRepository[T]) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.Header().UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.records, id)
	r.order = slices.DeleteFunc(r.order, func(o primitive.ObjectID) bool { return o == id })
	r.notifyLocked(ownerID)
	return nil
}

// Watch implements repository.RecordRepository.
func (r *RecordRepository[T]) Watch(ctx context.Context, ownerID primitive.ObjectID) (<-chan struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := uuid.NewString()
	w := watcher{owner: ownerID, changes: make(chan struct{}, 1)}

	r.mu.Lock()
	r.watchers[key] = w
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.watchers, key)
		close(w.changes)
		r.mu.Unlock()
	}()
	return w.changes, nil
}

// WatcherCount reports the number of open watches.
func (r *RecordRepository[T]) WatcherCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.watchers)
}

// notifyLocked signals every watcher of owner. Callers hold r.mu.
func (r *RecordRepository[T]) notifyLocked(owner primitive.ObjectID) {
	for _, w := range r.watchers {
		if w.owner != owner {
			continue
		}
		select {
		case w.changes <- struct{}{}:
		default:
		}
	}
}

func mergeFields[T domain.Record[T]](record T, set map[string]any) (T, error) {
	var merged T
	raw, err := bson.Marshal(record)
	if err != nil {
		return merged, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return merged, err
	}
	for k, v := range set {
		doc[k] = v
	}
	raw, err = bson.Marshal(doc)
	if err != nil {
		return merged, err
	}
	if err := bson.Unmarshal(raw, &merged); err != nil {
		return merged, err
	}
	// BSON decodes datetimes in the local zone; keep stored times in UTC.
	meta := merged.Header()
	meta.CreatedAt = meta.CreatedAt.UTC()
	if meta.UpdatedAt != nil {
		updated := meta.UpdatedAt.UTC()
		meta.UpdatedAt = &updated
	}
	return merged.WithHeader(meta), nil
}
