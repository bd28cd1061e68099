package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"amoita/internal/domain/channel"
	"amoita/internal/domain/messaging"
)

// ErrMessageNotPending rejects a send for a message already past pending.
var ErrMessageNotPending = errors.New("automation: message is not in pending status")

// DefaultDeliveryDelay simulates the channel manager's delivery confirmation.
const DefaultDeliveryDelay = 2 * time.Second

type AuditLog interface {
	Log(action string, details map[string]any)
}

// Manager owns message templates, automation rules and message records, and
// the timers backing deferred sends. All state is in memory; templates are
// seeded with the default guest-communication set at construction.
type Manager struct {
	api           channel.API
	audit         AuditLog
	logger        *slog.Logger
	now           func() time.Time
	deliveryDelay time.Duration

	mu        sync.RWMutex
	templates map[string]messaging.Template
	rules     map[string]messaging.Rule
	messages  map[string]*messaging.Message

	timersMu sync.Mutex
	timers   map[string]*time.Timer
	delivery map[string]*time.Timer
}

func New(api channel.API, audit AuditLog, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		api:           api,
		audit:         audit,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		deliveryDelay: DefaultDeliveryDelay,
		templates:     make(map[string]messaging.Template),
		rules:         make(map[string]messaging.Rule),
		messages:      make(map[string]*messaging.Message),
		timers:        make(map[string]*time.Timer),
		delivery:      make(map[string]*time.Timer),
	}
	m.seedDefaultTemplates()
	return m
}

// SetDeliveryDelay overrides the simulated delivery confirmation delay.
func (m *Manager) SetDeliveryDelay(d time.Duration) {
	if d > 0 {
		m.deliveryDelay = d
	}
}

// Close cancels every live timer: scheduled sends and pending delivery
// confirmations. Messages waiting on a cancelled schedule stay pending.
func (m *Manager) Close() {
	m.timersMu.Lock()
	defer m.timersMu.Unlock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	for id, t := range m.delivery {
		t.Stop()
		delete(m.delivery, id)
	}
}

// Template management

func (m *Manager) CreateTemplate(t messaging.Template) messaging.Template {
	now := m.now()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now

	m.mu.Lock()
	m.templates[t.ID] = t
	m.mu.Unlock()

	m.auditLog("CREATE_MESSAGE_TEMPLATE", map[string]any{"templateId": t.ID, "name": t.Name, "trigger": string(t.Trigger.Type)})
	return t
}

func (m *Manager) UpdateTemplate(id string, updated messaging.Template) (messaging.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.templates[id]
	if !ok {
		return messaging.Template{}, fmt.Errorf("%w: %s", messaging.ErrTemplateNotFound, id)
	}
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = m.now()
	m.templates[id] = updated

	m.auditLog("UPDATE_MESSAGE_TEMPLATE", map[string]any{"templateId": id, "name": updated.Name})
	return updated, nil
}

func (m *Manager) DeleteTemplate(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return fmt.Errorf("%w: %s", messaging.ErrTemplateNotFound, id)
	}
	delete(m.templates, id)
	m.auditLog("DELETE_MESSAGE_TEMPLATE", map[string]any{"templateId": id, "name": t.Name})
	return nil
}

func (m *Manager) Templates() []messaging.Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]messaging.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Manager) Template(id string) (messaging.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return messaging.Template{}, fmt.Errorf("%w: %s", messaging.ErrTemplateNotFound, id)
	}
	return t, nil
}

// Automation rules

func (m *Manager) CreateRule(r messaging.Rule) messaging.Rule {
	now := m.now()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now

	m.mu.Lock()
	m.rules[r.ID] = r
	m.mu.Unlock()

	triggers := make([]string, len(r.Triggers))
	for i, t := range r.Triggers {
		triggers[i] = string(t.Type)
	}
	m.auditLog("CREATE_AUTOMATION_RULE", map[string]any{"ruleId": r.ID, "name": r.Name, "triggers": triggers})
	return r
}

func (m *Manager) UpdateRule(id string, updated messaging.Rule) (messaging.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.rules[id]
	if !ok {
		return messaging.Rule{}, fmt.Errorf("%w: %s", messaging.ErrRuleNotFound, id)
	}
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = m.now()
	m.rules[id] = updated

	m.auditLog("UPDATE_AUTOMATION_RULE", map[string]any{"ruleId": id, "name": updated.Name})
	return updated, nil
}

func (m *Manager) Rules() []messaging.Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]messaging.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Message processing

// ProcessReservationEvent fans a reservation lifecycle event out through the
// active automation rules. Every matching rule contributes one message per
// referenced active template; immediate triggers send synchronously and any
// dispatch failure aborts processing with the error.
func (m *Manager) ProcessReservationEvent(ctx context.Context, eventType messaging.TriggerType, res channel.Reservation) ([]messaging.Message, error) {
	m.auditLog("PROCESS_RESERVATION_EVENT", map[string]any{
		"eventType":     string(eventType),
		"reservationId": res.ID,
		"propertyId":    res.PropertyID,
	})

	m.mu.RLock()
	var matching []messaging.Rule
	for _, rule := range m.rules {
		if rule.Matches(eventType, res) {
			matching = append(matching, rule)
		}
	}
	m.mu.RUnlock()
	sort.Slice(matching, func(i, j int) bool { return matching[i].CreatedAt.Before(matching[j].CreatedAt) })

	var created []messaging.Message
	for _, rule := range matching {
		for _, templateID := range rule.Templates {
			m.mu.RLock()
			template, ok := m.templates[templateID]
			m.mu.RUnlock()
			if !ok || !template.Active {
				continue
			}

			msg := m.composeMessage(template, res)
			created = append(created, msg)

			if template.Trigger.Timing == messaging.TimingImmediate {
				if err := m.Send(ctx, msg.ID); err != nil {
					m.auditLog("PROCESS_RESERVATION_EVENT", map[string]any{
						"eventType":     string(eventType),
						"reservationId": res.ID,
						"error":         err.Error(),
					})
					return created, err
				}
			} else {
				m.schedule(msg.ID, template.Trigger, res)
			}
		}
	}

	m.auditLog("PROCESS_RESERVATION_EVENT", map[string]any{
		"eventType":       string(eventType),
		"reservationId":   res.ID,
		"messagesCreated": len(created),
	})
	return created, nil
}

func (m *Manager) composeMessage(template messaging.Template, res channel.Reservation) messaging.Message {
	vars := messaging.Variables(res)
	msg := &messaging.Message{
		ID:            uuid.NewString(),
		ReservationID: res.ID,
		TemplateID:    template.ID,
		Recipient: messaging.Recipient{
			Name:  res.GuestName,
			Email: res.GuestEmail,
			Phone: res.GuestPhone,
		},
		Subject:   messaging.Substitute(template.Subject, vars),
		Content:   messaging.Substitute(template.Content, vars),
		Channel:   messaging.ChannelEmail,
		Status:    messaging.StatusPending,
		CreatedAt: m.now(),
	}
	m.mu.Lock()
	m.messages[msg.ID] = msg
	m.mu.Unlock()
	return *msg
}

// Send dispatches a pending message through the channel API. The message
// flips to sent immediately and to delivered after the simulated
// confirmation delay; a dispatch failure flips it to failed and the error is
// returned to the caller.
func (m *Manager) Send(ctx context.Context, messageID string) error {
	m.mu.Lock()
	msg, ok := m.messages[messageID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", messaging.ErrMessageNotFound, messageID)
	}
	if msg.Status != messaging.StatusPending {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMessageNotPending, messageID)
	}
	msg.Status = messaging.StatusSent
	msg.SentAt = m.now()
	reservationID, content, templateID := msg.ReservationID, msg.Content, msg.TemplateID
	recipient := msg.Recipient.Email
	channelName := string(msg.Channel)
	m.mu.Unlock()

	m.auditLog("SEND_MESSAGE", map[string]any{
		"messageId":     messageID,
		"reservationId": reservationID,
		"channel":       channelName,
		"recipient":     recipient,
	})

	sendTemplateID := templateID
	if sendTemplateID == messaging.ManualTemplateID {
		sendTemplateID = ""
	}
	if err := m.api.SendMessage(ctx, reservationID, content, sendTemplateID); err != nil {
		m.mu.Lock()
		msg.Status = messaging.StatusFailed
		msg.Error = err.Error()
		m.mu.Unlock()
		m.auditLog("SEND_MESSAGE", map[string]any{"messageId": messageID, "status": "failed", "error": err.Error()})
		return err
	}

	m.scheduleDeliveryConfirmation(messageID)
	m.auditLog("SEND_MESSAGE", map[string]any{"messageId": messageID, "status": "sent"})
	return nil
}

func (m *Manager) scheduleDeliveryConfirmation(messageID string) {
	m.timersMu.Lock()
	defer m.timersMu.Unlock()
	m.delivery[messageID] = time.AfterFunc(m.deliveryDelay, func() {
		m.timersMu.Lock()
		delete(m.delivery, messageID)
		m.timersMu.Unlock()

		m.mu.Lock()
		defer m.mu.Unlock()
		msg, ok := m.messages[messageID]
		if !ok || msg.Status != messaging.StatusSent {
			return
		}
		msg.Status = messaging.StatusDelivered
		msg.DeliveredAt = m.now()
	})
}

// SendManual composes and dispatches a one-off message without templates or
// rules; the caller supplies the content and channel directly.
func (m *Manager) SendManual(ctx context.Context, reservationID, content string, ch messaging.MessageChannel) (messaging.Message, error) {
	if ch == "" {
		ch = messaging.ChannelEmail
	}
	res, err := m.api.GetReservation(ctx, reservationID)
	if err != nil {
		m.auditLog("SEND_MANUAL_MESSAGE", map[string]any{"reservationId": reservationID, "error": err.Error()})
		return messaging.Message{}, err
	}

	msg := &messaging.Message{
		ID:            uuid.NewString(),
		ReservationID: reservationID,
		TemplateID:    messaging.ManualTemplateID,
		Recipient: messaging.Recipient{
			Name:  res.GuestName,
			Email: res.GuestEmail,
			Phone: res.GuestPhone,
		},
		Content:   content,
		Channel:   ch,
		Status:    messaging.StatusPending,
		CreatedAt: m.now(),
	}
	m.mu.Lock()
	m.messages[msg.ID] = msg
	m.mu.Unlock()

	if err := m.Send(ctx, msg.ID); err != nil {
		return m.snapshot(msg.ID), err
	}

	m.auditLog("SEND_MANUAL_MESSAGE", map[string]any{"messageId": msg.ID, "reservationId": reservationID, "channel": string(ch)})
	return m.snapshot(msg.ID), nil
}

// schedule installs the deferred-send timer for a message. A computed time
// already in the past drops the message silently: a reminder for a moment
// that has passed is worthless, so nothing is scheduled and the message
// stays pending forever.
func (m *Manager) schedule(messageID string, trigger messaging.Trigger, res channel.Reservation) {
	when, ok := trigger.ScheduleFor(res)
	if !ok {
		return
	}
	delay := when.Sub(m.now())
	if delay <= 0 {
		m.logger.Debug("dropping past-due scheduled message", "message_id", messageID, "scheduled_at", when)
		return
	}

	m.mu.Lock()
	if msg, ok := m.messages[messageID]; ok {
		msg.ScheduledAt = when
	}
	m.mu.Unlock()

	m.timersMu.Lock()
	m.timers[messageID] = time.AfterFunc(delay, func() {
		m.timersMu.Lock()
		delete(m.timers, messageID)
		m.timersMu.Unlock()
		if err := m.Send(context.Background(), messageID); err != nil {
			m.logger.Error("scheduled message send failed", "message_id", messageID, "error", err)
		}
	})
	m.timersMu.Unlock()
}

// CancelScheduled stops a deferred send before it fires and records the
// message as failed with a cancellation error. A message with no live timer
// is left untouched.
func (m *Manager) CancelScheduled(messageID string) {
	m.timersMu.Lock()
	timer, ok := m.timers[messageID]
	if ok {
		delete(m.timers, messageID)
	}
	m.timersMu.Unlock()
	if !ok || !timer.Stop() {
		return
	}

	m.mu.Lock()
	if msg, ok := m.messages[messageID]; ok {
		msg.Status = messaging.StatusFailed
		msg.Error = "Cancelled by user"
	}
	m.mu.Unlock()
	m.auditLog("CANCEL_SCHEDULED_MESSAGE", map[string]any{"messageId": messageID})
}

// Queries

func (m *Manager) snapshot(id string) messaging.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if msg, ok := m.messages[id]; ok {
		return *msg
	}
	return messaging.Message{}
}

func (m *Manager) Message(id string) (messaging.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	if !ok {
		return messaging.Message{}, fmt.Errorf("%w: %s", messaging.ErrMessageNotFound, id)
	}
	return *msg, nil
}

// Messages lists message records, optionally filtered by reservation.
func (m *Manager) Messages(reservationID string) []messaging.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []messaging.Message
	for _, msg := range m.messages {
		if reservationID == "" || msg.ReservationID == reservationID {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *Manager) PendingMessages() []messaging.Message {
	var out []messaging.Message
	for _, msg := range m.Messages("") {
		if msg.Status == messaging.StatusPending {
			out = append(out, msg)
		}
	}
	return out
}

// ScheduledMessages lists pending messages with a deferred delivery time.
func (m *Manager) ScheduledMessages() []messaging.Message {
	var out []messaging.Message
	for _, msg := range m.Messages("") {
		if msg.Status == messaging.StatusPending && !msg.ScheduledAt.IsZero() {
			out = append(out, msg)
		}
	}
	return out
}

func (m *Manager) auditLog(action string, details map[string]any) {
	if m.audit != nil {
		m.audit.Log(action, details)
	}
}
