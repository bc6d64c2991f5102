package service

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/live"
	"alcyxob/fitlist/internal/observability"
	"alcyxob/fitlist/internal/repository"
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrRecordNotFound  = errors.New("record not found or not owned by user")
	ErrUnsupportedSort = errors.New("unsupported order key")
	ErrWatchClosed     = errors.New("change notifications stopped")
)

// RecordService applies owner scoping and validation to one record variant
// and turns repository change notifications into snapshot streams.
type RecordService[T domain.Record[T]] struct {
	repo       repository.RecordRepository[T]
	collection string
	buffer     int
}

// NewRecordService creates a service over repo. buffer bounds every
// subscription stream; non-positive means live.DefaultBuffer.
func NewRecordService[T domain.Record[T]](repo repository.RecordRepository[T], buffer int) *RecordService[T] {
	var zero T
	return &RecordService[T]{repo: repo, collection: zero.Collection(), buffer: buffer}
}

// Collection names the variant this service stores.
func (s *RecordService[T]) Collection() string {
	return s.collection
}

// ValidateOrder accepts "" (natural order) and "createdAt".
func ValidateOrder(orderBy string) error {
	if orderBy == "" || orderBy == repository.OrderByCreatedAt {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedSort, orderBy)
}

// Create stores record for ownerID. Header fields sent by the caller are
// ignored: the owner comes from the token, completed starts false.
func (s *RecordService[T]) Create(ctx context.Context, ownerID primitive.ObjectID, record T) (created T, err error) {
	defer func() { observability.RecordOperation(s.collection, "create", err) }()

	if err = record.Validate(); err != nil {
		return created, err
	}
	record = record.WithHeader(domain.Meta{UserID: ownerID})

	id, err := s.repo.Create(ctx, record)
	if err != nil {
		log.Printf("ERROR: Failed to create %s for user %s: %v", s.collection, ownerID.Hex(), err)
		return created, err
	}
	created, err = s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return created, s.mapErr(err)
	}
	log.Printf("INFO: Created %s %s for user %s", s.collection, id.Hex(), ownerID.Hex())
	return created, nil
}

// List returns ownerID's records, newest first when orderBy is "createdAt".
func (s *RecordService[T]) List(ctx context.Context, ownerID primitive.ObjectID, orderBy string) (records []T, err error) {
	defer func() { observability.RecordOperation(s.collection, "list", err) }()

	if err = ValidateOrder(orderBy); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, ownerID, repository.ListOptions{OrderBy: orderBy})
}

// Update merges patch into the record and returns the stored result.
func (s *RecordService[T]) Update(ctx context.Context, ownerID, id primitive.ObjectID, patch domain.Patch) (updated T, err error) {
	defer func() { observability.RecordOperation(s.collection, "update", err) }()

	if err = patch.Validate(); err != nil {
		return updated, err
	}
	set := patch.Fields()
	if patch.StampsUpdatedAt() {
		set["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)
	}
	if err = s.repo.Update(ctx, id, ownerID, set); err != nil {
		return updated, s.mapErr(err)
	}
	updated, err = s.repo.GetByID(ctx, id, ownerID)
	return updated, s.mapErr(err)
}

// Toggle flips the completed flag. It does not stamp updatedAt.
func (s *RecordService[T]) Toggle(ctx context.Context, ownerID, id primitive.ObjectID) (toggled T, err error) {
	defer func() { observability.RecordOperation(s.collection, "toggle", err) }()

	current, err := s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return toggled, s.mapErr(err)
	}
	completed := !current.Header().Completed
	if err = s.repo.Update(ctx, id, ownerID, map[string]any{"completed": completed}); err != nil {
		return toggled, s.mapErr(err)
	}
	toggled, err = s.repo.GetByID(ctx, id, ownerID)
	return toggled, s.mapErr(err)
}

// Delete removes the record permanently.
func (s *RecordService[T]) Delete(ctx context.Context, ownerID, id primitive.ObjectID) (err error) {
	defer func() { observability.RecordOperation(s.collection, "delete", err) }()

	if err = s.repo.Delete(ctx, id, ownerID); err != nil {
		return s.mapErr(err)
	}
	log.Printf("INFO: Deleted %s %s for user %s", s.collection, id.Hex(), ownerID.Hex())
	return nil
}

// Subscribe opens a snapshot stream of ownerID's records. The first snapshot
// is published as soon as the initial query completes; a new snapshot
// follows every change that alters the result. A write that stores the
// values already held, or a signal caused by another owner's delete (the
// mongo change stream cannot filter those by owner), re-queries but
// publishes nothing, since subscribers would receive the same snapshot
// again. Closing the stream (or cancelling ctx) releases the repository
// watch.
func (s *RecordService[T]) Subscribe(ctx context.Context, ownerID primitive.ObjectID, orderBy string) (*live.Stream[T], error) {
	if err := ValidateOrder(orderBy); err != nil {
		return nil, err
	}
	stream, sctx := live.NewStream[T](ctx, s.buffer)

	// Watch before the first query so no change falls between them.
	changes, err := s.repo.Watch(sctx, ownerID)
	if err != nil {
		stream.Close()
		return nil, err
	}
	observability.StreamOpened(s.collection)
	go s.pump(sctx, stream, changes, ownerID, repository.ListOptions{OrderBy: orderBy})
	return stream, nil
}

func (s *RecordService[T]) pump(ctx context.Context, stream *live.Stream[T], changes <-chan struct{}, ownerID primitive.ObjectID, opts repository.ListOptions) {
	defer observability.StreamClosed(s.collection)

	var last []T
	publish := func() bool {
		records, err := s.repo.ListByOwner(ctx, ownerID, opts)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("ERROR: Snapshot query on %s for user %s failed: %v", s.collection, ownerID.Hex(), err)
				stream.Fail(err)
			}
			return false
		}
		if last != nil && reflect.DeepEqual(last, records) {
			return true
		}
		last = records
		if !stream.Publish(records) {
			return false
		}
		observability.SnapshotPublished(s.collection)
		return true
	}

	if !publish() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() == nil {
					log.Printf("WARN: Change notifications on %s for user %s stopped", s.collection, ownerID.Hex())
					stream.Fail(ErrWatchClosed)
				}
				return
			}
			if !publish() {
				return
			}
		}
	}
}

func (s *RecordService[T]) mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRecordNotFound
	}
	return err
}
