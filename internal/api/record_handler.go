package api

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/live"
	"alcyxob/fitlist/internal/service"
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
)

// LiveOptions configures snapshot websockets.
type LiveOptions struct {
	OriginPatterns []string
	WriteTimeout   time.Duration
}

// RecordHandler serves one record variant. P is the variant's patch type.
type RecordHandler[T domain.Record[T], P domain.Patch] struct {
	service *service.RecordService[T]
	live    LiveOptions
}

// NewRecordHandler creates a handler over svc.
func NewRecordHandler[T domain.Record[T], P domain.Patch](svc *service.RecordService[T], opts LiveOptions) *RecordHandler[T, P] {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &RecordHandler[T, P]{service: svc, live: opts}
}

// Create godoc
// @Summary Create a record owned by the caller
// @Tags Records
// @Accept json
// @Produce json
// @Success 201 {object} object "Stored record with id, userId, createdAt"
// @Failure 400 {object} gin.H "validation"
// @Router /workouts [post]
// @Router /todos [post]
func (h *RecordHandler[T, P]) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var record T // Header fields in the body are ignored by the service
	if err := c.ShouldBindJSON(&record); err != nil {
		abortWithError(c, http.StatusBadRequest, CodeBadRequest, "Invalid record body: "+err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), userID, record)
	if err != nil {
		h.writeError(c, "create", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List returns the caller's records, newest first with ?orderBy=createdAt.
func (h *RecordHandler[T, P]) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	records, err := h.service.List(c.Request.Context(), userID, c.Query("orderBy"))
	if err != nil {
		h.writeError(c, "list", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Update merges the supplied fields into a record.
func (h *RecordHandler[T, P]) Update(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		h.writeError(c, "update", err)
		return
	}
	var patch P // Only fields present in the body are changed
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, CodeBadRequest, "Invalid patch body: "+err.Error())
		return
	}

	updated, err := h.service.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		h.writeError(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Toggle flips the completed flag of a record.
func (h *RecordHandler[T, P]) Toggle(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		h.writeError(c, "toggle", err)
		return
	}
	toggled, err := h.service.Toggle(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, "toggle", err)
		return
	}
	c.JSON(http.StatusOK, toggled)
}

// Delete removes a record.
func (h *RecordHandler[T, P]) Delete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		h.writeError(c, "delete", err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		h.writeError(c, "delete", err)
		return
	}
	c.Status(http.StatusNoContent) // Nothing to return
}

// Live upgrades to a websocket and streams full snapshots of the caller's
// records until either side closes. ?owner must match the token subject
// when given; ?orderBy=createdAt sorts newest first.
func (h *RecordHandler[T, P]) Live(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	if owner := c.Query("owner"); owner != "" && owner != userID.Hex() {
		abortWithError(c, http.StatusForbidden, CodeForbidden, "Subscriptions are limited to the caller's own records")
		return
	}
	orderBy := c.Query("orderBy")
	if err := service.ValidateOrder(orderBy); err != nil {
		h.writeError(c, "subscribe", err)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.live.OriginPatterns,
	})
	if err != nil {
		// Accept has already written the HTTP error.
		log.Printf("WARN: WebSocket upgrade failed for %s: %v", h.service.Collection(), err)
		return
	}
	defer conn.CloseNow()

	// Snapshots only flow server to client; CloseRead handles control frames
	// and cancels ctx when the peer goes away.
	ctx := conn.CloseRead(c.Request.Context())

	stream, err := h.service.Subscribe(ctx, userID, orderBy)
	if err != nil {
		log.Printf("ERROR: Subscribe to %s for user %s failed: %v", h.service.Collection(), userID.Hex(), err)
		h.send(ctx, conn, live.Message[T]{Type: live.MessageError, Error: "subscription failed"})
		conn.Close(websocket.StatusInternalError, "subscription failed")
		return
	}
	defer stream.Close()

	for {
		snap, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, live.ErrClosed) {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			h.send(ctx, conn, live.Message[T]{Type: live.MessageError, Error: err.Error()})
			conn.Close(websocket.StatusInternalError, "subscription failed")
			return
		}

		items := snap.Items
		if items == nil {
			items = []T{} // Clients expect [] for an empty list, not null
		}
		if err := h.send(ctx, conn, live.Message[T]{Type: live.MessageSnapshot, Seq: snap.Seq, Items: items}); err != nil {
			log.Printf("WARN: Dropping %s subscriber %s: %v", h.service.Collection(), stream.ID, err)
			return
		}
	}
}

func (h *RecordHandler[T, P]) send(ctx context.Context, conn *websocket.Conn, msg live.Message[T]) error {
	ctx, cancel := context.WithTimeout(ctx, h.live.WriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func (h *RecordHandler[T, P]) writeError(c *gin.Context, op string, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  validationErr.Error(),
			"code":   CodeValidation,
			"fields": validationErr.Fields,
			"reason": validationErr.Reason,
		})
	case errors.Is(err, service.ErrUnsupportedSort):
		abortWithError(c, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, service.ErrRecordNotFound):
		abortWithError(c, http.StatusNotFound, CodeNotFound, err.Error()) // Also covers records of other users
	default:
		log.Printf("ERROR: Failed to %s %s: %v", op, h.service.Collection(), err)
		abortWithError(c, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	}
}
