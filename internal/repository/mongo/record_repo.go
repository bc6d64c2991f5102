package mongo

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/repository"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoRecordRepository implements repository.RecordRepository for one
// record variant; the collection name comes from the variant itself.
type mongoRecordRepository[T domain.Record[T]] struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.RecordRepository[domain.Workout] {
	return newRecordRepository[domain.Workout](db)
}

// NewMongoTodoRepository creates a new Todo repository.
func NewMongoTodoRepository(db *mongo.Database) repository.RecordRepository[domain.Todo] {
	return newRecordRepository[domain.Todo](db)
}

func newRecordRepository[T domain.Record[T]](db *mongo.Database) *mongoRecordRepository[T] {
	var zero T
	return &mongoRecordRepository[T]{
		collection: db.Collection(zero.Collection()),
	}
}

// Create inserts a new record.
func (r *mongoRecordRepository[T]) Create(ctx context.Context, record T) (primitive.ObjectID, error) {
	meta := record.Header()
	if meta.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("record requires an owner")
	}
	meta.ID = primitive.NewObjectID() // Generate new ID
	// Mongo keeps millisecond precision; truncating here keeps the returned value equal to the stored one
	meta.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, record.WithHeader(meta))
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted record ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single record owned by ownerID.
func (r *mongoRecordRepository[T]) GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (T, error) {
	var record T
	filter := bson.M{"_id": id, "userId": ownerID}
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return record, repository.ErrNotFound // Missing, or owned by someone else
		}
		return record, err // Return other errors
	}
	return record, nil
}

// ListByOwner retrieves all records of one owner. The owner filter is part
// of the query so no other user's document ever reaches the process.
func (r *mongoRecordRepository[T]) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, opts repository.ListOptions) ([]T, error) {
	findOptions := options.Find()
	if opts.OrderBy != "" {
		findOptions.SetSort(bson.D{{Key: opts.OrderBy, Value: -1}}) // Newest first
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": ownerID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx) // Ensure cursor is closed

	records := make([]T, 0) // Return empty slice, not nil, when the owner has nothing
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Update merges set into the record. Owner and ID are never part of set.
func (r *mongoRecordRepository[T]) Update(ctx context.Context, id, ownerID primitive.ObjectID, set map[string]any) error {
	if len(set) == 0 {
		return errors.New("update requires at least one field")
	}
	filter := bson.M{"_id": id, "userId": ownerID}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M(set)})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound // Missing, or owned by someone else
	}
	return nil
}

// Delete removes a record owned by ownerID.
func (r *mongoRecordRepository[T]) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound // Nothing deleted: missing or not owned
	}
	return nil
}

// Watch opens a change stream on the collection. Inserts and updates are
// matched on the owner of the post-image; deletes carry no document, so
// every delete is signalled and the subscriber's re-query decides whether
// anything changed for it.
func (r *mongoRecordRepository[T]) Watch(ctx context.Context, ownerID primitive.ObjectID) (<-chan struct{}, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"fullDocument.userId": ownerID},
				bson.M{"operationType": bson.M{"$in": bson.A{"delete", "drop", "invalidate"}}},
			},
		}}},
	}
	streamOptions := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := r.collection.Watch(ctx, pipeline, streamOptions)
	if err != nil {
		return nil, err
	}

	changes := make(chan struct{}, 1) // One pending signal is enough, the subscriber re-queries
	go func() {
		defer close(changes)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = stream.Close(closeCtx)
		}()

		for stream.Next(ctx) {
			select {
			case changes <- struct{}{}:
			default: // a signal is already pending
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Printf("WARN: change stream on %s for owner %s ended: %v", r.collection.Name(), ownerID.Hex(), err)
		}
	}()
	return changes, nil
}

// EnsureRecordIndexes creates the owner index used by every listing,
// compound with createdAt for the ordered variant. Call during startup.
func EnsureRecordIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}, // Owner listings, newest first
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
