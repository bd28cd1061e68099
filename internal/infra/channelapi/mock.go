package channelapi

import (
	"context"
	"sync"
	"time"

	"amoita/internal/domain/channel"
	"amoita/internal/domain/shared/daterange"
)

// Mock is an in-memory channel API used when no access token is configured
// and in tests. It serves seeded fixture data and records availability
// writes so re-syncs observe them.
type Mock struct {
	mu           sync.RWMutex
	properties   map[string]channel.Property
	reservations map[string]channel.Reservation
	availability map[string]map[string]channel.Availability // propertyID -> day key
	channels     []channel.Channel
	messages     []MockMessage
}

type MockMessage struct {
	ReservationID string
	Content       string
	TemplateID    string
	SentAt        time.Time
}

func NewMock() *Mock {
	m := &Mock{
		properties:   make(map[string]channel.Property),
		reservations: make(map[string]channel.Reservation),
		availability: make(map[string]map[string]channel.Availability),
		channels: []channel.Channel{
			{ID: "airbnb", Name: "Airbnb", Type: "airbnb", Status: channel.ChannelConnected},
			{ID: "booking", Name: "Booking.com", Type: "booking", Status: channel.ChannelConnected},
			{ID: "direct", Name: "Reserva Direta", Type: "direct", Status: channel.ChannelConnected},
		},
	}
	m.seed()
	return m
}

func (m *Mock) seed() {
	now := time.Now().UTC()
	m.properties["origem"] = channel.Property{
		ID:        "origem",
		Name:      "Chalé A Origem",
		Address:   "Serra da Mantiqueira",
		Type:      "cabin",
		Bedrooms:  2,
		Bathrooms: 1,
		MaxGuests: 4,
		Status:    channel.PropertyActive,
		Channels:  []string{"airbnb", "booking", "direct"},
		CreatedAt: now.AddDate(-1, 0, 0),
		UpdatedAt: now,
	}
}

func (m *Mock) SeedProperty(p channel.Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[p.ID] = p
}

func (m *Mock) SeedReservation(r channel.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = r
}

func (m *Mock) SeedAvailability(items ...channel.Availability) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		byDay, ok := m.availability[item.PropertyID]
		if !ok {
			byDay = make(map[string]channel.Availability)
			m.availability[item.PropertyID] = byDay
		}
		byDay[daterange.Key(item.Date)] = item
	}
}

func (m *Mock) SentMessages() []MockMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MockMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *Mock) GetProperties(ctx context.Context) ([]channel.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]channel.Property, 0, len(m.properties))
	for _, p := range m.properties {
		out = append(out, p)
	}
	return out, nil
}

func (m *Mock) GetProperty(ctx context.Context, id string) (channel.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[id]
	if !ok {
		return channel.Property{}, &APIError{Message: "property not found", StatusCode: 404}
	}
	return p, nil
}

func (m *Mock) GetReservations(ctx context.Context, propertyID string) ([]channel.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []channel.Reservation
	for _, r := range m.reservations {
		if propertyID == "" || r.PropertyID == propertyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Mock) GetReservation(ctx context.Context, id string) (channel.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return channel.Reservation{}, channel.ErrReservationNotFound
	}
	return r, nil
}

func (m *Mock) GetAvailability(ctx context.Context, propertyID string, start, end time.Time) ([]channel.Availability, error) {
	rng, err := daterange.New(start, end)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	byDay := m.availability[propertyID]
	var out []channel.Availability
	rng.EachDay(func(day time.Time) {
		if av, ok := byDay[daterange.Key(day)]; ok {
			out = append(out, av)
		}
	})
	return out, nil
}

func (m *Mock) UpdateAvailability(ctx context.Context, propertyID string, items []channel.Availability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDay, ok := m.availability[propertyID]
	if !ok {
		byDay = make(map[string]channel.Availability)
		m.availability[propertyID] = byDay
	}
	for _, item := range items {
		item.PropertyID = propertyID
		if item.MinStay <= 0 {
			item.MinStay = 1
		}
		if item.Currency == "" {
			item.Currency = channel.DefaultCurrency
		}
		byDay[daterange.Key(item.Date)] = item
	}
	return nil
}

func (m *Mock) GetChannels(ctx context.Context) ([]channel.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]channel.Channel, len(m.channels))
	copy(out, m.channels)
	return out, nil
}

func (m *Mock) ConnectChannel(ctx context.Context, propertyID, channelID string, credentials map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[propertyID]
	if !ok {
		return &APIError{Message: "property not found", StatusCode: 404}
	}
	for _, existing := range p.Channels {
		if existing == channelID {
			return nil
		}
	}
	p.Channels = append(p.Channels, channelID)
	m.properties[propertyID] = p
	return nil
}

func (m *Mock) DisconnectChannel(ctx context.Context, propertyID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[propertyID]
	if !ok {
		return &APIError{Message: "property not found", StatusCode: 404}
	}
	kept := p.Channels[:0]
	for _, existing := range p.Channels {
		if existing != channelID {
			kept = append(kept, existing)
		}
	}
	p.Channels = kept
	m.properties[propertyID] = p
	return nil
}

func (m *Mock) SendMessage(ctx context.Context, reservationID, content, templateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[reservationID]; !ok {
		return channel.ErrReservationNotFound
	}
	m.messages = append(m.messages, MockMessage{
		ReservationID: reservationID,
		Content:       content,
		TemplateID:    templateID,
		SentAt:        time.Now().UTC(),
	})
	return nil
}

func (m *Mock) TriggerSync(ctx context.Context, propertyID string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.properties[propertyID]; !ok {
		return &APIError{Message: "property not found", StatusCode: 404}
	}
	return nil
}

func (m *Mock) Health(ctx context.Context) error { return nil }

var _ channel.API = (*Mock)(nil)
