package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/service/cart"
)

// EventsHandler streams observer views as Server-Sent Events. Every
// connection is one mounted observer.
type EventsHandler struct {
	synchronizer *cart.Synchronizer
	logger       *zap.Logger
}

// NewEventsHandler constructs the SSE adapter.
func NewEventsHandler(synchronizer *cart.Synchronizer, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{synchronizer: synchronizer, logger: logger}
}

// Stream mounts the observer selected by ?view=badge|list|item and pushes its
// view until the client goes away.
func (h *EventsHandler) Stream(c *gin.Context) {
	view := c.DefaultQuery("view", "badge")

	switch view {
	case "badge":
		obs := cart.NewBadgeObserver()
		h.serve(c, obs, func(done <-chan struct{}) { stream(c, view, obs.Updates(), done) })
	case "list":
		obs := cart.NewListObserver()
		h.serve(c, obs, func(done <-chan struct{}) { stream(c, view, obs.Updates(), done) })
	case "item":
		id := c.Query("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required for the item view"})
			return
		}
		obs := cart.NewItemObserver(id)
		h.serve(c, obs, func(done <-chan struct{}) { stream(c, view, obs.Updates(), done) })
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown view"})
	}
}

func (h *EventsHandler) serve(c *gin.Context, obs cart.Observer, run func(done <-chan struct{})) {
	mount, err := h.synchronizer.Mount(obs)
	if err != nil {
		h.logger.Error("failed mounting observer", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart sync unavailable"})
		return
	}
	defer mount.Unmount()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	run(mount.Done())
}

func stream[T any](c *gin.Context, event string, updates <-chan T, detached <-chan struct{}) {
	gone := c.Request.Context().Done()
	c.Stream(func(io.Writer) bool {
		select {
		case <-gone:
			return false
		case <-detached:
			return false
		case v := <-updates:
			c.SSEvent(event, v)
			return true
		}
	})
}
