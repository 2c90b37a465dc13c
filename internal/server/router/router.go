package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/metrics"
	"github.com/mamadbah2/rentledger/internal/server/handlers"
)

// Handlers groups the resource handlers mounted under /api.
type Handlers struct {
	Apartments *handlers.ApartmentHandler
	Bookings   *handlers.BookingHandler
	Expenses   *handlers.ExpenseHandler
	Statistics *handlers.StatisticsHandler
}

// New wires the Gin engine with required routes and middlewares. m may be nil,
// in which case /metrics is not served.
func New(h Handlers, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(tracingMiddleware())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")

	apartments := api.Group("/apartments")
	apartments.GET("", h.Apartments.List)
	apartments.POST("", h.Apartments.Create)
	apartments.GET("/:id", h.Apartments.Get)
	apartments.PATCH("/:id", h.Apartments.Update)
	apartments.DELETE("/:id", h.Apartments.Delete)
	apartments.GET("/:id/availability", h.Apartments.Availability)

	bookings := api.Group("/bookings")
	bookings.GET("", h.Bookings.List)
	bookings.POST("", h.Bookings.Create)
	bookings.GET("/:id", h.Bookings.Get)
	bookings.PATCH("/:id", h.Bookings.Update)
	bookings.DELETE("/:id", h.Bookings.Delete)
	bookings.GET("/:id/total", h.Bookings.Total)
	bookings.POST("/:id/receipts", h.Bookings.AddReceipt)
	bookings.DELETE("/:id/receipts/:receiptId", h.Bookings.RemoveReceipt)

	expenses := api.Group("/expenses")
	expenses.GET("", h.Expenses.List)
	expenses.POST("", h.Expenses.Create)
	expenses.PATCH("/:id", h.Expenses.Update)
	expenses.DELETE("/:id", h.Expenses.Delete)

	api.GET("/statistics/:year", h.Statistics.Year)
	api.GET("/statistics/:year/:month", h.Statistics.Month)
	api.GET("/snapshots/:year", h.Statistics.Snapshots)
	api.GET("/occupancy", h.Statistics.Occupancy)

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

// metricsMiddleware records request durations labelled by route template, so
// ids in the path do not create new series.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func tracingMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("http")
	propagator := otel.GetTextMapPropagator()
	if propagator == nil {
		propagator = propagation.TraceContext{}
	}

	return func(c *gin.Context) {
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath())
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}
