package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medibot/utils"
)

// Pinger is implemented by stores backed by a remote database.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	cache utils.RedisClient
	db    Pinger
}

// NewHealthHandler accepts nil for dependencies that are not configured.
func NewHealthHandler(cache utils.RedisClient, db Pinger) *HealthHandler {
	return &HealthHandler{cache: cache, db: db}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	details := gin.H{}
	healthy := true

	if h.cache != nil {
		if err := h.cache.SetToCache(ctx, "healthcheck", "ping", 10*time.Second); err != nil {
			details["redis"] = "unavailable"
			healthy = false
		} else {
			details["redis"] = "available"
		}
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			details["postgres"] = "unavailable"
			healthy = false
		} else {
			details["postgres"] = "available"
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "details": details})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "details": details})
}
