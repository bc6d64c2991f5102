package client

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/live"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotSignedIn is wrapped in a StoreError when no token is available.
var ErrNotSignedIn = errors.New("not signed in")

// defaultReadLimit bounds one snapshot frame.
const defaultReadLimit = 8 << 20

// TokenSource supplies the bearer token of the signed-in identity.
// *session.Manager implements it.
type TokenSource interface {
	Token() string
}

// RecordStore is the record API of one collection, scoped to the
// identity behind the token. Failures are *domain.StoreError, except
// rejected input which is *domain.ValidationError.
type RecordStore[T domain.Record[T]] interface {
	// Subscribe returns at once; the first snapshot arrives on the stream
	// when the backend delivers it.
	Subscribe(ctx context.Context, ownerID primitive.ObjectID, opts ...SubscribeOption) (*live.Stream[T], error)
	Create(ctx context.Context, ownerID primitive.ObjectID, record T) (primitive.ObjectID, error)
	Update(ctx context.Context, id primitive.ObjectID, patch domain.Patch) error
	Toggle(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SubscribeOption tunes a subscription.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	orderBy   string
	buffer    int
	readLimit int64
}

// OrderByCreatedAt sorts snapshots newest first.
func OrderByCreatedAt() SubscribeOption {
	return func(o *subscribeOptions) { o.orderBy = "createdAt" }
}

// WithBuffer sets how many snapshots may queue before the oldest is dropped.
func WithBuffer(n int) SubscribeOption {
	return func(o *subscribeOptions) { o.buffer = n }
}

// Records implements RecordStore over the HTTP API.
type Records[T domain.Record[T]] struct {
	client     *Client
	tokens     TokenSource
	collection string
}

var (
	_ RecordStore[domain.Workout] = (*Records[domain.Workout])(nil)
	_ RecordStore[domain.Todo]    = (*Records[domain.Todo])(nil)
)

// NewRecords creates the store for T's collection.
func NewRecords[T domain.Record[T]](c *Client, tokens TokenSource) *Records[T] {
	var zero T
	return &Records[T]{client: c, tokens: tokens, collection: zero.Collection()}
}

// Workouts is the store of the workouts collection.
func Workouts(c *Client, tokens TokenSource) *Records[domain.Workout] {
	return NewRecords[domain.Workout](c, tokens)
}

// Todos is the store of the todos collection.
func Todos(c *Client, tokens TokenSource) *Records[domain.Todo] {
	return NewRecords[domain.Todo](c, tokens)
}

// List fetches the current records once, without subscribing.
func (r *Records[T]) List(ctx context.Context, opts ...SubscribeOption) ([]T, error) {
	o := applyOptions(opts)
	token, err := r.token("list")
	if err != nil {
		return nil, err
	}
	var query url.Values
	if o.orderBy != "" {
		query = url.Values{"orderBy": {o.orderBy}}
	}
	var records []T
	if err := r.client.do(ctx, http.MethodGet, "/"+r.collection, query, token, nil, &records); err != nil {
		return nil, r.storeError("list", err)
	}
	return records, nil
}

// Create stores record for ownerID and returns its assigned id.
func (r *Records[T]) Create(ctx context.Context, ownerID primitive.ObjectID, record T) (primitive.ObjectID, error) {
	if ownerID.IsZero() {
		return primitive.NilObjectID, &domain.ValidationError{Fields: []string{"userId"}, Reason: "required"}
	}
	token, err := r.token("create")
	if err != nil {
		return primitive.NilObjectID, err
	}
	meta := record.Header()
	meta.UserID = ownerID
	var created T
	if err := r.client.do(ctx, http.MethodPost, "/"+r.collection, nil, token, record.WithHeader(meta), &created); err != nil {
		return primitive.NilObjectID, r.storeError("create", err)
	}
	return created.Header().ID, nil
}

// Update merges the fields carried by patch.
func (r *Records[T]) Update(ctx context.Context, id primitive.ObjectID, patch domain.Patch) error {
	token, err := r.token("update")
	if err != nil {
		return err
	}
	if err := r.client.do(ctx, http.MethodPatch, r.itemPath(id), nil, token, patch, nil); err != nil {
		return r.storeError("update", err)
	}
	return nil
}

// Toggle flips completed on the backend.
func (r *Records[T]) Toggle(ctx context.Context, id primitive.ObjectID) error {
	token, err := r.token("toggle")
	if err != nil {
		return err
	}
	if err := r.client.do(ctx, http.MethodPost, r.itemPath(id)+"/toggle", nil, token, nil, nil); err != nil {
		return r.storeError("toggle", err)
	}
	return nil
}

// Delete removes the record. A missing record is reported, not ignored.
func (r *Records[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	token, err := r.token("delete")
	if err != nil {
		return err
	}
	if err := r.client.do(ctx, http.MethodDelete, r.itemPath(id), nil, token, nil, nil); err != nil {
		return r.storeError("delete", err)
	}
	return nil
}

// Subscribe opens a websocket in the background and feeds its snapshots
// into the returned stream. Connection failures end the stream with a
// *domain.StoreError.
func (r *Records[T]) Subscribe(ctx context.Context, ownerID primitive.ObjectID, opts ...SubscribeOption) (*live.Stream[T], error) {
	if ownerID.IsZero() {
		return nil, &domain.ValidationError{Fields: []string{"ownerId"}, Reason: "required"}
	}
	token, err := r.token("subscribe")
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	query := url.Values{"owner": {ownerID.Hex()}}
	if o.orderBy != "" {
		query.Set("orderBy", o.orderBy)
	}
	wsURL := r.client.websocketURL("/"+r.collection+"/live", query)

	stream, sctx := live.NewStream[T](ctx, o.buffer)
	go r.receive(sctx, stream, wsURL, token, o.readLimit)
	return stream, nil
}

func (r *Records[T]) receive(ctx context.Context, stream *live.Stream[T], wsURL, token string, readLimit int64) {
	conn, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Bearer " + token}},
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		stream.Fail(&domain.StoreError{Op: "subscribe", Collection: r.collection, Status: status, Err: err})
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	for {
		var msg live.Message[T]
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if ctx.Err() == nil {
				stream.Fail(&domain.StoreError{Op: "subscribe", Collection: r.collection, Err: err})
			}
			return
		}

		switch msg.Type {
		case live.MessageSnapshot:
			items := msg.Items
			if items == nil {
				items = []T{}
			}
			if !stream.Publish(items) {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
		case live.MessageError:
			stream.Fail(&domain.StoreError{Op: "subscribe", Collection: r.collection, Err: errors.New(msg.Error)})
			return
		}
	}
}

func (r *Records[T]) itemPath(id primitive.ObjectID) string {
	return "/" + r.collection + "/" + id.Hex()
}

func (r *Records[T]) token(op string) (string, error) {
	if r.tokens != nil {
		if token := r.tokens.Token(); token != "" {
			return token, nil
		}
	}
	return "", &domain.StoreError{Op: op, Collection: r.collection, Status: http.StatusUnauthorized, Err: ErrNotSignedIn}
}

// storeError maps a failed call. Backend validation rejections keep their
// own type so callers can show the offending fields.
func (r *Records[T]) storeError(op string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusBadRequest && apiErr.Code == "validation" {
			return &domain.ValidationError{Fields: apiErr.Fields, Reason: apiErr.Reason}
		}
		if apiErr.Status == http.StatusNotFound {
			return &domain.StoreError{Op: op, Collection: r.collection, Status: apiErr.Status, Err: errors.Join(domain.ErrNotFound, apiErr)}
		}
		return &domain.StoreError{Op: op, Collection: r.collection, Status: apiErr.Status, Err: apiErr}
	}
	return &domain.StoreError{Op: op, Collection: r.collection, Err: err}
}

func applyOptions(opts []SubscribeOption) subscribeOptions {
	o := subscribeOptions{readLimit: defaultReadLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
