package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"amoita/internal/app/automation"
	"amoita/internal/domain/channel"
	"amoita/internal/domain/messaging"
)

type MessagingHandler struct {
	Automation *automation.Manager
	API        channel.API
}

type templateRequest struct {
	Name          string   `json:"name"`
	Subject       string   `json:"subject"`
	Content       string   `json:"content"`
	TriggerType   string   `json:"trigger_type"`
	TriggerTiming string   `json:"trigger_timing"`
	TriggerValue  int      `json:"trigger_value"`
	Language      string   `json:"language"`
	Active        *bool    `json:"active"`
	Variables     []string `json:"variables"`
}

type templateResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Trigger   gin.H     `json:"trigger"`
	Language  string    `json:"language"`
	Active    bool      `json:"active"`
	Variables []string  `json:"variables"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h MessagingHandler) ListTemplates(c *gin.Context) {
	templates := h.Automation.Templates()
	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

func (h MessagingHandler) GetTemplate(c *gin.Context) {
	t, err := h.Automation.Template(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(t))
}

func (h MessagingHandler) CreateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created := h.Automation.CreateTemplate(req.toDomain())
	c.JSON(http.StatusCreated, toTemplateResponse(created))
}

func (h MessagingHandler) UpdateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.Automation.UpdateTemplate(c.Param("id"), req.toDomain())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(updated))
}

func (h MessagingHandler) DeleteTemplate(c *gin.Context) {
	if err := h.Automation.DeleteTemplate(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type ruleRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Active      *bool         `json:"active"`
	Triggers    []triggerSpec `json:"triggers"`
	Templates   []string      `json:"templates"`
	Conditions  struct {
		PropertyIDs []string `json:"property_ids"`
		Channels    []string `json:"channels"`
		GuestTypes  []string `json:"guest_types"`
		MinStayDays int      `json:"min_stay_days"`
		MaxStayDays int      `json:"max_stay_days"`
	} `json:"conditions"`
}

type triggerSpec struct {
	Type   string `json:"type"`
	Timing string `json:"timing"`
	Value  int    `json:"value"`
}

func (h MessagingHandler) ListRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.Automation.Rules()})
}

func (h MessagingHandler) CreateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created := h.Automation.CreateRule(req.toDomain())
	c.JSON(http.StatusCreated, created)
}

func (h MessagingHandler) UpdateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.Automation.UpdateRule(c.Param("id"), req.toDomain())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

type messageResponse struct {
	ID            string     `json:"id"`
	ReservationID string     `json:"reservation_id"`
	TemplateID    string     `json:"template_id"`
	Recipient     gin.H      `json:"recipient"`
	Subject       string     `json:"subject"`
	Content       string     `json:"content"`
	Channel       string     `json:"channel"`
	Status        string     `json:"status"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (h MessagingHandler) ListMessages(c *gin.Context) {
	messages := h.Automation.Messages(c.Query("reservation_id"))
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func (h MessagingHandler) GetMessage(c *gin.Context) {
	m, err := h.Automation.Message(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toMessageResponse(m))
}

type sendManualRequest struct {
	ReservationID string `json:"reservation_id"`
	Content       string `json:"content"`
	Channel       string `json:"channel"`
}

func (h MessagingHandler) SendManual(c *gin.Context) {
	var req sendManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ReservationID == "" || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reservation_id and content are required"})
		return
	}
	ch := messaging.MessageChannel(req.Channel)
	if ch == "" {
		ch = messaging.ChannelEmail
	}

	msg, err := h.Automation.SendManual(c.Request.Context(), req.ReservationID, req.Content, ch)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, channel.ErrReservationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error(), "message": toMessageResponse(msg)})
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(msg))
}

func (h MessagingHandler) CancelMessage(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Automation.Message(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.Automation.CancelScheduled(id)
	m, _ := h.Automation.Message(id)
	c.JSON(http.StatusOK, toMessageResponse(m))
}

type reservationEventRequest struct {
	EventType     string `json:"event_type"`
	ReservationID string `json:"reservation_id"`
}

// ProcessEvent runs messaging automation for a reservation lifecycle event,
// mirroring what the broker consumer does for pushed events.
func (h MessagingHandler) ProcessEvent(c *gin.Context) {
	var req reservationEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.API.GetReservation(c.Request.Context(), req.ReservationID)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, channel.ErrReservationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.Automation.ProcessReservationEvent(c.Request.Context(), messaging.TriggerType(req.EventType), res)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func (r templateRequest) toDomain() messaging.Template {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return messaging.Template{
		Name:    r.Name,
		Subject: r.Subject,
		Content: r.Content,
		Trigger: messaging.Trigger{
			Type:   messaging.TriggerType(r.TriggerType),
			Timing: messaging.TriggerTiming(r.TriggerTiming),
			Offset: r.TriggerValue,
		},
		Language:  messaging.Language(r.Language),
		Active:    active,
		Variables: r.Variables,
	}
}

func (r ruleRequest) toDomain() messaging.Rule {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	triggers := make([]messaging.Trigger, 0, len(r.Triggers))
	for _, t := range r.Triggers {
		triggers = append(triggers, messaging.Trigger{
			Type:   messaging.TriggerType(t.Type),
			Timing: messaging.TriggerTiming(t.Timing),
			Offset: t.Value,
		})
	}
	return messaging.Rule{
		Name:        r.Name,
		Description: r.Description,
		Active:      active,
		Triggers:    triggers,
		Templates:   r.Templates,
		Conditions: messaging.RuleConditions{
			PropertyIDs: r.Conditions.PropertyIDs,
			Channels:    r.Conditions.Channels,
			GuestTypes:  r.Conditions.GuestTypes,
			MinStayDays: r.Conditions.MinStayDays,
			MaxStayDays: r.Conditions.MaxStayDays,
		},
	}
}

func toTemplateResponse(t messaging.Template) templateResponse {
	return templateResponse{
		ID:      t.ID,
		Name:    t.Name,
		Subject: t.Subject,
		Content: t.Content,
		Trigger: gin.H{
			"type":   string(t.Trigger.Type),
			"timing": string(t.Trigger.Timing),
			"value":  t.Trigger.Offset,
		},
		Language:  string(t.Language),
		Active:    t.Active,
		Variables: t.Variables,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toMessageResponse(m messaging.Message) messageResponse {
	out := messageResponse{
		ID:            m.ID,
		ReservationID: m.ReservationID,
		TemplateID:    m.TemplateID,
		Recipient: gin.H{
			"name":  m.Recipient.Name,
			"email": m.Recipient.Email,
			"phone": m.Recipient.Phone,
		},
		Subject:   m.Subject,
		Content:   m.Content,
		Channel:   string(m.Channel),
		Status:    string(m.Status),
		Error:     m.Error,
		CreatedAt: m.CreatedAt,
	}
	if !m.ScheduledAt.IsZero() {
		t := m.ScheduledAt
		out.ScheduledAt = &t
	}
	if !m.SentAt.IsZero() {
		t := m.SentAt
		out.SentAt = &t
	}
	if !m.DeliveredAt.IsZero() {
		t := m.DeliveredAt
		out.DeliveredAt = &t
	}
	return out
}

var _ MessagingHTTP = MessagingHandler{}
