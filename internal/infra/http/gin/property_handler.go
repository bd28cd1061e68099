package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"amoita/internal/app/portfolio"
)

type PropertyHandler struct {
	Portfolio *portfolio.Manager
}

type propertyResponse struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Address           string            `json:"address"`
	Channels          []string          `json:"channels"`
	ConnectedChannels []channelResponse `json:"connected_channels"`
	SyncStatus        string            `json:"sync_status"`
	LastSync          *time.Time        `json:"last_sync,omitempty"`
	Metrics           metricsResponse   `json:"metrics"`
}

type channelResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Status   string    `json:"status"`
	LastSync time.Time `json:"last_sync"`
}

type metricsResponse struct {
	TotalReservations int     `json:"total_reservations"`
	OccupancyRate     float64 `json:"occupancy_rate"`
	AverageRate       float64 `json:"average_rate"`
	Revenue           float64 `json:"revenue"`
}

func (h PropertyHandler) List(c *gin.Context) {
	views, err := h.Portfolio.LoadProperties(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	out := make([]propertyResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toPropertyResponse(v))
	}
	c.JSON(http.StatusOK, gin.H{"properties": out})
}

func (h PropertyHandler) Get(c *gin.Context) {
	view, err := h.Portfolio.Property(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toPropertyResponse(view))
}

func (h PropertyHandler) Sync(c *gin.Context) {
	result, err := h.Portfolio.SyncProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) SyncAll(c *gin.Context) {
	results := h.Portfolio.SyncAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"results": results})
}

type connectChannelRequest struct {
	ChannelID   string            `json:"channel_id"`
	Credentials map[string]string `json:"credentials"`
}

func (h PropertyHandler) ConnectChannel(c *gin.Context) {
	var req connectChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ChannelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id is required"})
		return
	}
	if err := h.Portfolio.ConnectChannel(c.Request.Context(), c.Param("id"), req.ChannelID, req.Credentials); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h PropertyHandler) DisconnectChannel(c *gin.Context) {
	if err := h.Portfolio.DisconnectChannel(c.Request.Context(), c.Param("id"), c.Param("channelId")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func toPropertyResponse(v portfolio.PropertyView) propertyResponse {
	channels := make([]channelResponse, 0, len(v.ConnectedChannels))
	for _, ch := range v.ConnectedChannels {
		channels = append(channels, channelResponse{
			ID:       ch.ID,
			Name:     ch.Name,
			Type:     string(ch.Type),
			Status:   string(ch.Status),
			LastSync: ch.LastSync,
		})
	}
	out := propertyResponse{
		ID:                v.ID,
		Name:              v.Name,
		Address:           v.Address,
		Channels:          v.Channels,
		ConnectedChannels: channels,
		SyncStatus:        string(v.SyncStatus),
		Metrics: metricsResponse{
			TotalReservations: v.Metrics.TotalReservations,
			OccupancyRate:     v.Metrics.OccupancyRate,
			AverageRate:       v.Metrics.AverageRate,
			Revenue:           v.Metrics.Revenue,
		},
	}
	if !v.LastSync.IsZero() {
		t := v.LastSync
		out.LastSync = &t
	}
	return out
}

var _ PropertyHTTP = PropertyHandler{}
