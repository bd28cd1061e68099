package calendar

import (
	"fmt"
	"time"

	"amoita/internal/domain/channel"
	"amoita/internal/domain/shared/daterange"
)

type EventKind string

const (
	KindReservation EventKind = "reservation"
	KindBlocked     EventKind = "blocked"
	KindAvailable   EventKind = "available"
)

// SourceChannelManager labels events derived from the channel manager's own
// availability records, as opposed to a named distribution channel.
const SourceChannelManager = "channel-manager"

type GuestInfo struct {
	Name  string
	Email string
	Phone string
}

// Event is one normalized timeline entry for a property. Start and End are
// inclusive calendar days; a reservation spans check-in through check-out.
type Event struct {
	ID          string
	PropertyID  string
	Kind        EventKind
	Start       time.Time
	End         time.Time
	Title       string
	Source      string
	Guest       *GuestInfo
	Amount      float64
	Status      channel.ReservationStatus
	LastUpdated time.Time
}

func (e Event) Range() daterange.DateRange {
	return daterange.DateRange{Start: daterange.Day(e.Start), End: daterange.Day(e.End)}
}

// FromAvailability maps one availability record to a single-day event.
func FromAvailability(propertyID string, av channel.Availability, now time.Time) Event {
	kind := KindBlocked
	title := "Bloqueado"
	if av.Available {
		kind = KindAvailable
		title = fmt.Sprintf("Disponível - R$ %.2f", av.Price)
	}
	day := daterange.Day(av.Date)
	return Event{
		ID:          fmt.Sprintf("avail-%s-%s", propertyID, daterange.Key(day)),
		PropertyID:  propertyID,
		Kind:        kind,
		Start:       day,
		End:         day,
		Title:       title,
		Source:      SourceChannelManager,
		Amount:      av.Price,
		Status:      channel.StatusConfirmed,
		LastUpdated: now,
	}
}

// FromReservation maps a reservation to an event spanning its full stay.
func FromReservation(r channel.Reservation, now time.Time) Event {
	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	return Event{
		ID:         "res-" + r.ID,
		PropertyID: r.PropertyID,
		Kind:       KindReservation,
		Start:      daterange.Day(r.CheckIn),
		End:        daterange.Day(r.CheckOut),
		Title:      r.GuestName + " - " + r.Channel,
		Source:     r.Channel,
		Guest: &GuestInfo{
			Name:  r.GuestName,
			Email: r.GuestEmail,
			Phone: r.GuestPhone,
		},
		Amount:      r.TotalAmount,
		Status:      r.Status,
		LastUpdated: updated,
	}
}

// BuildTimeline normalizes availability records and reservations into one
// event collection. No deduplication happens here: several sources describing
// the same day stay as separate events so the detector can see them disagree.
func BuildTimeline(propertyID string, avail []channel.Availability, reservations []channel.Reservation, now time.Time) []Event {
	events := make([]Event, 0, len(avail)+len(reservations))
	for _, av := range avail {
		events = append(events, FromAvailability(propertyID, av, now))
	}
	for _, r := range reservations {
		events = append(events, FromReservation(r, now))
	}
	return events
}
