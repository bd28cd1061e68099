package calsync

import (
	"amoita/internal/domain/calendar"
	"amoita/internal/domain/channel"
	"amoita/internal/domain/shared/daterange"
)

// Events returns the cached events for a property. With a range, only events
// whose full span lies inside it are returned (both endpoints inside).
func (m *Manager) Events(propertyID string, rng *daterange.DateRange) []calendar.Event {
	m.mu.RLock()
	cached := m.calendars[propertyID]
	m.mu.RUnlock()

	if rng == nil {
		out := make([]calendar.Event, len(cached))
		copy(out, cached)
		return out
	}
	var out []calendar.Event
	for _, ev := range cached {
		if rng.Contains(ev.Range()) {
			out = append(out, ev)
		}
	}
	return out
}

// Conflicts returns every conflict from the property's latest sync pass.
func (m *Manager) Conflicts(propertyID string) []calendar.Conflict {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]calendar.Conflict, len(m.conflicts[propertyID]))
	copy(out, m.conflicts[propertyID])
	return out
}

// UnresolvedConflicts filters to conflicts still needing operator attention.
func (m *Manager) UnresolvedConflicts(propertyID string) []calendar.Conflict {
	var out []calendar.Conflict
	for _, c := range m.Conflicts(propertyID) {
		if c.Unresolved() {
			out = append(out, c)
		}
	}
	return out
}

// OccupancyRate reports occupied nights over the range's total nights as a
// percentage, counting confirmed reservations only.
func (m *Manager) OccupancyRate(propertyID string, rng daterange.DateRange) float64 {
	totalNights := rng.Nights()
	if totalNights <= 0 {
		return 0
	}
	occupied := 0
	for _, ev := range m.Events(propertyID, &rng) {
		if ev.Kind == calendar.KindReservation && ev.Status == channel.StatusConfirmed {
			occupied += ev.Range().Nights()
		}
	}
	return float64(occupied) / float64(totalNights) * 100
}

// Revenue sums the amounts of confirmed and pending reservations in range.
func (m *Manager) Revenue(propertyID string, rng daterange.DateRange) float64 {
	total := 0.0
	for _, ev := range m.Events(propertyID, &rng) {
		if ev.Kind != calendar.KindReservation || ev.Amount <= 0 {
			continue
		}
		if ev.Status == channel.StatusConfirmed || ev.Status == channel.StatusPending {
			total += ev.Amount
		}
	}
	return total
}
