package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const requestIDHeader = "X-Request-ID"

// NewRouter monta as rotas da API de inventário
func NewRouter(handler *InventoryHandler, logger logrus.FieldLogger, serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(requestID())
	r.Use(requestLogger(logger))

	// Health check
	r.GET("/health", handler.HealthCheck)

	api := r.Group("/api")

	api.GET("/products", handler.ListProducts)
	api.POST("/products", handler.CreateProduct)
	api.GET("/products/:id", handler.GetProduct)
	api.PUT("/products/:id", handler.UpdateProduct)
	api.DELETE("/products/:id", handler.DeleteProduct)
	api.GET("/products/:id/transactions", handler.ListProductTransactions)

	api.GET("/transactions", handler.ListTransactions)
	api.POST("/transactions", handler.ApplyTransaction)
	// rota original; aceita compra e venda pelo campo type
	api.POST("/transactions/purchase", handler.ApplyTransaction)

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last()).Error("request failed")
			return
		}
		entry.Info("request handled")
	}
}
