package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/macromeal-backend/internal/database"
)

// HealthHandler reports liveness of the process and its backing stores.
type HealthHandler struct {
	db    *database.DB
	redis *redis.Client
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(db *database.DB, redis *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health returns 200 when the process and its dependencies respond.
func (h *HealthHandler) Health(c *gin.Context) {
	status := gin.H{"status": "ok"}
	code := http.StatusOK

	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, status)
}
