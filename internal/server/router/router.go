package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/metrics"
	"github.com/mamadbah2/medimart-cart/internal/server/handlers"
)

// Handlers groups the HTTP adapters the router mounts. Checkout may be nil
// when no checkout ledger is configured.
type Handlers struct {
	Cart     *handlers.CartHandler
	Events   *handlers.EventsHandler
	Checkout *handlers.CheckoutHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	c := r.Group("/cart")
	c.GET("", h.Cart.Get)
	c.DELETE("", h.Cart.Clear)
	c.GET("/count", h.Cart.Count)
	c.GET("/events", h.Events.Stream)
	c.POST("/items", h.Cart.Add)
	c.GET("/items/:id", h.Cart.Quantity)
	c.DELETE("/items/:id", h.Cart.Remove)
	c.POST("/items/:id/decrement", h.Cart.Decrement)

	if h.Checkout != nil {
		r.POST("/checkout", h.Checkout.Complete)
	}

	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
