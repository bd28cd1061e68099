package ginserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"amoita/internal/domain/channel"
	"amoita/internal/infra/obs"
)

// AuditReader serves the persisted audit trail. Nil when no store is
// configured.
type AuditReader interface {
	Recent(ctx context.Context, action string, limit int64) ([]obs.AuditEntry, error)
}

type StatusHandler struct {
	API      channel.API
	MockMode bool
	Audit    AuditReader
}

// Status reports the upstream channel-manager connectivity alongside the
// service's own run mode.
func (h StatusHandler) Status(c *gin.Context) {
	connected := false
	var apiErr string
	if h.API != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := h.API.Health(ctx); err != nil {
			apiErr = err.Error()
		} else {
			connected = true
		}
	}

	body := gin.H{
		"channel_api_connected": connected,
		"mock_mode":             h.MockMode,
		"time":                  time.Now().UTC(),
	}
	if apiErr != "" {
		body["channel_api_error"] = apiErr
	}
	c.JSON(http.StatusOK, body)
}

// AuditLog lists recent audit entries, newest first, optionally filtered by
// action.
func (h StatusHandler) AuditLog(c *gin.Context) {
	if h.Audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit persistence not configured"})
		return
	}

	var limit int64
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.Audit.Recent(c.Request.Context(), c.Query("action"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []obs.AuditEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

var _ StatusHTTP = StatusHandler{}
