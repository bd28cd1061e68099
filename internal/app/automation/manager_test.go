package automation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amoita/internal/domain/channel"
	"amoita/internal/domain/messaging"
)

type sentRecord struct {
	ReservationID string
	Content       string
	TemplateID    string
}

type stubAPI struct {
	mu      sync.Mutex
	sent    []sentRecord
	sendErr error

	reservations map[string]channel.Reservation
}

func (s *stubAPI) GetProperties(ctx context.Context) ([]channel.Property, error) { return nil, nil }
func (s *stubAPI) GetProperty(ctx context.Context, id string) (channel.Property, error) {
	return channel.Property{ID: id}, nil
}
func (s *stubAPI) GetReservations(ctx context.Context, propertyID string) ([]channel.Reservation, error) {
	return nil, nil
}
func (s *stubAPI) GetReservation(ctx context.Context, id string) (channel.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reservations[id]; ok {
		return r, nil
	}
	return channel.Reservation{}, channel.ErrReservationNotFound
}
func (s *stubAPI) GetAvailability(ctx context.Context, propertyID string, start, end time.Time) ([]channel.Availability, error) {
	return nil, nil
}
func (s *stubAPI) UpdateAvailability(ctx context.Context, propertyID string, items []channel.Availability) error {
	return nil
}
func (s *stubAPI) GetChannels(ctx context.Context) ([]channel.Channel, error) { return nil, nil }
func (s *stubAPI) ConnectChannel(ctx context.Context, propertyID, channelID string, credentials map[string]string) error {
	return nil
}
func (s *stubAPI) DisconnectChannel(ctx context.Context, propertyID, channelID string) error {
	return nil
}
func (s *stubAPI) SendMessage(ctx context.Context, reservationID, content, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, sentRecord{ReservationID: reservationID, Content: content, TemplateID: templateID})
	return nil
}
func (s *stubAPI) TriggerSync(ctx context.Context, propertyID string) error { return nil }
func (s *stubAPI) Health(ctx context.Context) error                        { return nil }

func (s *stubAPI) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func futureReservation(now time.Time) channel.Reservation {
	return channel.Reservation{
		ID:          "r1",
		PropertyID:  "prop-1",
		GuestName:   "Ana Silva",
		GuestEmail:  "ana@example.com",
		CheckIn:     now.AddDate(0, 0, 7),
		CheckOut:    now.AddDate(0, 0, 9),
		Guests:      2,
		Status:      channel.StatusConfirmed,
		Channel:     "airbnb",
		TotalAmount: 450.5,
		Currency:    "BRL",
	}
}

// allTemplatesRule wires every seeded template to the given trigger types.
func allTemplatesRule(m *Manager, types ...messaging.TriggerType) messaging.Rule {
	var ids []string
	for _, t := range m.Templates() {
		ids = append(ids, t.ID)
	}
	var triggers []messaging.Trigger
	for _, tt := range types {
		triggers = append(triggers, messaging.Trigger{Type: tt})
	}
	return m.CreateRule(messaging.Rule{
		Name:      "all templates",
		Active:    true,
		Triggers:  triggers,
		Templates: ids,
	})
}

func TestNewSeedsDefaultTemplates(t *testing.T) {
	m := New(&stubAPI{}, nil, nil)
	defer m.Close()

	templates := m.Templates()
	require.Len(t, templates, 4)

	names := make([]string, len(templates))
	for i, tpl := range templates {
		names[i] = tpl.Name
		assert.True(t, tpl.Active)
		assert.NotEmpty(t, tpl.ID)
	}
	assert.ElementsMatch(t, []string{
		"Confirmação de Reserva",
		"Lembrete Check-in",
		"Lembrete Check-out",
		"Agradecimento Pós-Estadia",
	}, names)
}

func TestTemplateCRUD(t *testing.T) {
	m := New(&stubAPI{}, nil, nil)
	defer m.Close()

	created := m.CreateTemplate(messaging.Template{Name: "Custom", Content: "Olá {{guestName}}", Active: true})
	require.NotEmpty(t, created.ID)

	got, err := m.Template(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Custom", got.Name)

	updated, err := m.UpdateTemplate(created.ID, messaging.Template{Name: "Renamed", Content: got.Content, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, m.DeleteTemplate(created.ID))
	_, err = m.Template(created.ID)
	assert.ErrorIs(t, err, messaging.ErrTemplateNotFound)

	err = m.DeleteTemplate("nope")
	assert.ErrorIs(t, err, messaging.ErrTemplateNotFound)
}

func TestProcessReservationEventImmediateSendAndDelivery(t *testing.T) {
	api := &stubAPI{}
	m := New(api, nil, nil)
	defer m.Close()
	m.SetDeliveryDelay(20 * time.Millisecond)

	allTemplatesRule(m, messaging.TriggerBookingConfirmed)
	res := futureReservation(time.Now().UTC())

	created, err := m.ProcessReservationEvent(context.Background(), messaging.TriggerBookingConfirmed, res)
	require.NoError(t, err)
	// only the confirmation template has a booking_confirmed trigger type
	// on its own, but the rule references all four; every referenced active
	// template produces a message, the immediate one sends now
	require.Len(t, created, 4)

	var immediate messaging.Message
	for _, msg := range created {
		tpl, err := m.Template(msg.TemplateID)
		require.NoError(t, err)
		if tpl.Trigger.Timing == messaging.TimingImmediate {
			immediate = msg
		}
	}
	require.NotEmpty(t, immediate.ID)

	sent, err := m.Message(immediate.ID)
	require.NoError(t, err)
	assert.Equal(t, messaging.StatusSent, sent.Status)
	assert.False(t, sent.SentAt.IsZero())
	assert.Contains(t, sent.Content, "Ana Silva")
	assert.NotContains(t, sent.Content, "{{guestName}}")
	assert.Equal(t, 1, api.sentCount())

	require.Eventually(t, func() bool {
		msg, err := m.Message(immediate.ID)
		return err == nil && msg.Status == messaging.StatusDelivered
	}, time.Second, 10*time.Millisecond)

	delivered, err := m.Message(immediate.ID)
	require.NoError(t, err)
	assert.False(t, delivered.DeliveredAt.IsZero())
}

func TestProcessReservationEventSchedulesDeferred(t *testing.T) {
	api := &stubAPI{}
	m := New(api, nil, nil)
	defer m.Close()

	allTemplatesRule(m, messaging.TriggerCheckInReminder)
	res := futureReservation(time.Now().UTC())

	created, err := m.ProcessReservationEvent(context.Background(), messaging.TriggerCheckInReminder, res)
	require.NoError(t, err)
	require.Len(t, created, 4)

	scheduled := m.ScheduledMessages()
	require.NotEmpty(t, scheduled)
	for _, msg := range scheduled {
		assert.Equal(t, messaging.StatusPending, msg.Status)
		assert.True(t, msg.ScheduledAt.After(time.Now().UTC()))
	}

	var checkinReminder *messaging.Message
	for i, msg := range scheduled {
		tpl, err := m.Template(msg.TemplateID)
		require.NoError(t, err)
		if tpl.Trigger.Timing == messaging.TimingDaysBefore {
			checkinReminder = &scheduled[i]
		}
	}
	require.NotNil(t, checkinReminder)
	assert.WithinDuration(t, res.CheckIn.AddDate(0, 0, -1), checkinReminder.ScheduledAt, time.Second)
}

func TestProcessReservationEventDropsPastDueSchedules(t *testing.T) {
	api := &stubAPI{}
	m := New(api, nil, nil)
	defer m.Close()

	allTemplatesRule(m, messaging.TriggerCheckInReminder)

	// the stay already ended, every deferred reminder is past due
	now := time.Now().UTC()
	res := futureReservation(now)
	res.CheckIn = now.AddDate(0, 0, -3)
	res.CheckOut = now.AddDate(0, 0, -2)

	created, err := m.ProcessReservationEvent(context.Background(), messaging.TriggerCheckInReminder, res)
	require.NoError(t, err)
	require.Len(t, created, 4)

	// nothing gets a timer; the immediate confirmation still went out
	assert.Empty(t, m.ScheduledMessages())
	assert.Equal(t, 1, api.sentCount())

	// dropped messages stay pending with no schedule
	pending := m.PendingMessages()
	require.Len(t, pending, 3)
	for _, msg := range pending {
		assert.True(t, msg.ScheduledAt.IsZero())
	}
}

func TestProcessReservationEventNoMatchingRules(t *testing.T) {
	m := New(&stubAPI{}, nil, nil)
	defer m.Close()

	created, err := m.ProcessReservationEvent(context.Background(), messaging.TriggerBookingConfirmed, futureReservation(time.Now().UTC()))
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestProcessReservationEventDispatchFailure(t *testing.T) {
	api := &stubAPI{sendErr: errors.New("smtp unavailable")}
	m := New(api, nil, nil)
	defer m.Close()

	allTemplatesRule(m, messaging.TriggerBookingConfirmed)

	created, err := m.ProcessReservationEvent(context.Background(), messaging.TriggerBookingConfirmed, futureReservation(time.Now().UTC()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp unavailable")
	require.NotEmpty(t, created)

	var failed int
	for _, msg := range m.Messages("r1") {
		if msg.Status == messaging.StatusFailed {
			failed++
			assert.Equal(t, "smtp unavailable", msg.Error)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestCancelScheduledMessage(t *testing.T) {
	api := &stubAPI{}
	m := New(api, nil, nil)
	defer m.Close()

	allTemplatesRule(m, messaging.TriggerCheckInReminder)
	res := futureReservation(time.Now().UTC())

	_, err := m.ProcessReservationEvent(context.Background(), messaging.TriggerCheckInReminder, res)
	require.NoError(t, err)

	scheduled := m.ScheduledMessages()
	require.NotEmpty(t, scheduled)
	target := scheduled[0]

	m.CancelScheduled(target.ID)

	cancelled, err := m.Message(target.ID)
	require.NoError(t, err)
	assert.Equal(t, messaging.StatusFailed, cancelled.Status)
	assert.Equal(t, "Cancelled by user", cancelled.Error)
	// only the immediate confirmation was dispatched, never the cancelled one
	assert.Equal(t, 1, api.sentCount())

	// cancelling a message without a live timer leaves it untouched
	m.CancelScheduled(target.ID)
	again, err := m.Message(target.ID)
	require.NoError(t, err)
	assert.Equal(t, messaging.StatusFailed, again.Status)
}

func TestSendManual(t *testing.T) {
	api := &stubAPI{reservations: map[string]channel.Reservation{
		"r1": futureReservation(time.Now().UTC()),
	}}
	m := New(api, nil, nil)
	defer m.Close()
	m.SetDeliveryDelay(time.Minute)

	msg, err := m.SendManual(context.Background(), "r1", "Obrigado pela visita!", messaging.ChannelWhatsApp)
	require.NoError(t, err)

	assert.Equal(t, messaging.ManualTemplateID, msg.TemplateID)
	assert.Equal(t, messaging.ChannelWhatsApp, msg.Channel)
	assert.Equal(t, messaging.StatusSent, msg.Status)
	assert.Equal(t, "Ana Silva", msg.Recipient.Name)

	api.mu.Lock()
	require.Len(t, api.sent, 1)
	// manual sends go out without a template reference
	assert.Empty(t, api.sent[0].TemplateID)
	assert.Equal(t, "Obrigado pela visita!", api.sent[0].Content)
	api.mu.Unlock()
}

func TestSendManualUnknownReservation(t *testing.T) {
	m := New(&stubAPI{}, nil, nil)
	defer m.Close()

	_, err := m.SendManual(context.Background(), "ghost", "hello", messaging.ChannelEmail)
	assert.ErrorIs(t, err, channel.ErrReservationNotFound)
}

func TestSendRejectsNonPending(t *testing.T) {
	api := &stubAPI{reservations: map[string]channel.Reservation{
		"r1": futureReservation(time.Now().UTC()),
	}}
	m := New(api, nil, nil)
	defer m.Close()
	m.SetDeliveryDelay(time.Minute)

	msg, err := m.SendManual(context.Background(), "r1", "hi", messaging.ChannelEmail)
	require.NoError(t, err)

	err = m.Send(context.Background(), msg.ID)
	assert.ErrorIs(t, err, ErrMessageNotPending)

	err = m.Send(context.Background(), "missing")
	assert.ErrorIs(t, err, messaging.ErrMessageNotFound)
}

func TestMessagesFilterByReservation(t *testing.T) {
	api := &stubAPI{reservations: map[string]channel.Reservation{
		"r1": futureReservation(time.Now().UTC()),
	}}
	m := New(api, nil, nil)
	defer m.Close()
	m.SetDeliveryDelay(time.Minute)

	_, err := m.SendManual(context.Background(), "r1", "first", messaging.ChannelEmail)
	require.NoError(t, err)

	assert.Len(t, m.Messages("r1"), 1)
	assert.Empty(t, m.Messages("other"))
	assert.Len(t, m.Messages(""), 1)
}
