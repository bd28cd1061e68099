package ginserver

import (
	"errors"
	"io"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"amoita/internal/app/calsync"
	"amoita/internal/domain/calendar"
	"amoita/internal/domain/shared/daterange"
)

type CalendarHandler struct {
	Sync *calsync.Manager
}

type syncCalendarRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type syncResultResponse struct {
	Success       bool               `json:"success"`
	PropertyID    string             `json:"property_id"`
	EventsUpdated int                `json:"events_updated"`
	Conflicts     []conflictResponse `json:"conflicts"`
	Errors        []string           `json:"errors,omitempty"`
	LastSync      time.Time          `json:"last_sync"`
}

type conflictResponse struct {
	ID          string     `json:"id"`
	PropertyID  string     `json:"property_id"`
	Date        string     `json:"date"`
	Kind        string     `json:"kind"`
	Description string     `json:"description"`
	Sources     []string   `json:"sources"`
	Resolution  string     `json:"resolution,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type eventResponse struct {
	ID          string          `json:"id"`
	PropertyID  string          `json:"property_id"`
	Kind        string          `json:"kind"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Title       string          `json:"title"`
	Source      string          `json:"source"`
	Guest       *guestResponse  `json:"guest,omitempty"`
	Amount      float64         `json:"amount,omitempty"`
	Status      string          `json:"status,omitempty"`
	LastUpdated time.Time       `json:"last_updated"`
}

type guestResponse struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// SyncCalendar runs a sync pass for a property. Sync failures are reported
// in the body with a 200; the operation itself completed.
func (h CalendarHandler) SyncCalendar(c *gin.Context) {
	propertyID := c.Param("id")

	var req syncCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rng *daterange.DateRange
	if req.StartDate != "" || req.EndDate != "" {
		parsed, err := daterange.Parse(req.StartDate, req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rng = &parsed
	}

	result := h.Sync.SyncCalendar(c.Request.Context(), propertyID, rng)
	c.JSON(http.StatusOK, toSyncResultResponse(result))
}

func (h CalendarHandler) Events(c *gin.Context) {
	propertyID := c.Param("id")

	var rng *daterange.DateRange
	start, end := c.Query("start_date"), c.Query("end_date")
	if start != "" || end != "" {
		parsed, err := daterange.Parse(start, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rng = &parsed
	}

	events := h.Sync.Events(propertyID, rng)
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventResponse(ev))
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

func (h CalendarHandler) Conflicts(c *gin.Context) {
	propertyID := c.Param("id")

	var conflicts []calendar.Conflict
	if c.Query("unresolved") == "true" {
		conflicts = h.Sync.UnresolvedConflicts(propertyID)
	} else {
		conflicts = h.Sync.Conflicts(propertyID)
	}

	out := make([]conflictResponse, 0, len(conflicts))
	for _, cf := range conflicts {
		out = append(out, toConflictResponse(cf))
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": out})
}

type availabilityDateRequest struct {
	Date      string  `json:"date"`
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
}

type updateAvailabilityRequest struct {
	Dates []availabilityDateRequest `json:"dates"`
}

func (h CalendarHandler) UpdateAvailability(c *gin.Context) {
	propertyID := c.Param("id")

	var req updateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Dates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dates is required"})
		return
	}

	updates := make([]calsync.AvailabilityUpdate, 0, len(req.Dates))
	for _, d := range req.Dates {
		day, err := daterange.ParseDay(d.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updates = append(updates, calsync.AvailabilityUpdate{Date: day, Available: d.Available, Price: d.Price})
	}

	if err := h.Sync.UpdateAvailability(c.Request.Context(), propertyID, updates); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(updates)})
}

type realtimeSyncRequest struct {
	IntervalMS int64 `json:"interval_ms"`
}

func (h CalendarHandler) StartRealTimeSync(c *gin.Context) {
	propertyID := c.Param("id")

	var req realtimeSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interval := time.Duration(req.IntervalMS) * time.Millisecond
	h.Sync.StartRealTimeSync(propertyID, interval)
	c.JSON(http.StatusAccepted, gin.H{"property_id": propertyID, "active": true})
}

func (h CalendarHandler) StopRealTimeSync(c *gin.Context) {
	propertyID := c.Param("id")
	h.Sync.StopRealTimeSync(propertyID)
	c.JSON(http.StatusOK, gin.H{"property_id": propertyID, "active": false})
}

// Metrics reports occupancy and revenue for an explicit date window.
func (h CalendarHandler) Metrics(c *gin.Context) {
	propertyID := c.Param("id")

	rng, err := daterange.Parse(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property_id":    propertyID,
		"occupancy_rate": h.Sync.OccupancyRate(propertyID, rng),
		"revenue":        h.Sync.Revenue(propertyID, rng),
	})
}

func toSyncResultResponse(r calsync.Result) syncResultResponse {
	conflicts := make([]conflictResponse, 0, len(r.Conflicts))
	for _, cf := range r.Conflicts {
		conflicts = append(conflicts, toConflictResponse(cf))
	}
	return syncResultResponse{
		Success:       r.Success,
		PropertyID:    r.PropertyID,
		EventsUpdated: r.EventsUpdated,
		Conflicts:     conflicts,
		Errors:        r.Errors,
		LastSync:      r.LastSync,
	}
}

func toConflictResponse(cf calendar.Conflict) conflictResponse {
	out := conflictResponse{
		ID:          cf.ID,
		PropertyID:  cf.PropertyID,
		Date:        cf.Date.Format(daterange.DayFormat),
		Kind:        string(cf.Kind),
		Description: cf.Description,
		Sources:     cf.Sources,
		Resolution:  string(cf.Resolution),
	}
	if !cf.ResolvedAt.IsZero() {
		t := cf.ResolvedAt
		out.ResolvedAt = &t
	}
	return out
}

func toEventResponse(ev calendar.Event) eventResponse {
	out := eventResponse{
		ID:          ev.ID,
		PropertyID:  ev.PropertyID,
		Kind:        string(ev.Kind),
		StartDate:   ev.Start.Format(daterange.DayFormat),
		EndDate:     ev.End.Format(daterange.DayFormat),
		Title:       ev.Title,
		Source:      ev.Source,
		Amount:      ev.Amount,
		Status:      string(ev.Status),
		LastUpdated: ev.LastUpdated,
	}
	if ev.Guest != nil {
		out.Guest = &guestResponse{Name: ev.Guest.Name, Email: ev.Guest.Email, Phone: ev.Guest.Phone}
	}
	return out
}

var _ CalendarHTTP = CalendarHandler{}
