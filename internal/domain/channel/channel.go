package channel

import (
	"context"
	"errors"
	"time"
)

var ErrReservationNotFound = errors.New("channel: reservation not found")

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusPending   ReservationStatus = "pending"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// DefaultCurrency applies whenever the channel manager omits a currency code.
const DefaultCurrency = "BRL"

// Reservation is a stay record as reported by the channel manager. CheckIn
// and CheckOut carry date granularity only.
type Reservation struct {
	ID          string
	PropertyID  string
	GuestName   string
	GuestEmail  string
	GuestPhone  string
	CheckIn     time.Time
	CheckOut    time.Time
	Guests      int
	Status      ReservationStatus
	Channel     string
	TotalAmount float64
	Currency    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Availability is one per-date availability/price record for a property.
type Availability struct {
	PropertyID string
	Date       time.Time
	Available  bool
	MinStay    int
	Price      float64
	Currency   string
}

type PropertyStatus string

const (
	PropertyActive      PropertyStatus = "active"
	PropertyInactive    PropertyStatus = "inactive"
	PropertyMaintenance PropertyStatus = "maintenance"
)

type Property struct {
	ID        string
	Name      string
	Address   string
	Type      string
	Bedrooms  int
	Bathrooms int
	MaxGuests int
	Status    PropertyStatus
	Channels  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ChannelStatus string

const (
	ChannelConnected    ChannelStatus = "connected"
	ChannelDisconnected ChannelStatus = "disconnected"
	ChannelError        ChannelStatus = "error"
	ChannelSyncing      ChannelStatus = "syncing"
)

// Channel is a distribution platform (OTA or direct) a property is listed on.
type Channel struct {
	ID       string
	Name     string
	Type     string
	Status   ChannelStatus
	LastSync time.Time
}

// API is the port to the external channel-manager service. Calls may fail
// with transport errors; retries are the implementation's concern, never the
// caller's.
type API interface {
	GetProperties(ctx context.Context) ([]Property, error)
	GetProperty(ctx context.Context, id string) (Property, error)
	GetReservations(ctx context.Context, propertyID string) ([]Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	GetAvailability(ctx context.Context, propertyID string, start, end time.Time) ([]Availability, error)
	UpdateAvailability(ctx context.Context, propertyID string, items []Availability) error
	GetChannels(ctx context.Context) ([]Channel, error)
	ConnectChannel(ctx context.Context, propertyID, channelID string, credentials map[string]string) error
	DisconnectChannel(ctx context.Context, propertyID, channelID string) error
	SendMessage(ctx context.Context, reservationID, content, templateID string) error
	TriggerSync(ctx context.Context, propertyID string) error
	Health(ctx context.Context) error
}

// StayNights reports the stay length in whole nights, rounding partial days
// up the way the rule conditions expect.
func (r Reservation) StayNights() int {
	hours := r.CheckOut.Sub(r.CheckIn).Hours()
	nights := int(hours / 24)
	if float64(nights*24) < hours {
		nights++
	}
	return nights
}
