package channelapi

import (
	"strings"
	"time"

	"amoita/internal/domain/channel"
	"amoita/internal/domain/shared/daterange"
)

// apiDate accepts both yyyy-mm-dd and RFC 3339 timestamps; the channel
// manager is not consistent about which it emits.
type apiDate struct {
	time.Time
}

func (d *apiDate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(daterange.DayFormat, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

type propertyDoc struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Type      string   `json:"type"`
	Bedrooms  int      `json:"bedrooms"`
	Bathrooms int      `json:"bathrooms"`
	MaxGuests int      `json:"maxGuests"`
	Status    string   `json:"status"`
	Channels  []string `json:"channels"`
	CreatedAt apiDate  `json:"createdAt"`
	UpdatedAt apiDate  `json:"updatedAt"`
}

func (d propertyDoc) toDomain() channel.Property {
	return channel.Property{
		ID:        d.ID,
		Name:      d.Name,
		Address:   d.Address,
		Type:      d.Type,
		Bedrooms:  d.Bedrooms,
		Bathrooms: d.Bathrooms,
		MaxGuests: d.MaxGuests,
		Status:    channel.PropertyStatus(d.Status),
		Channels:  d.Channels,
		CreatedAt: d.CreatedAt.Time,
		UpdatedAt: d.UpdatedAt.Time,
	}
}

type reservationDoc struct {
	ID          string  `json:"id"`
	PropertyID  string  `json:"propertyId"`
	GuestName   string  `json:"guestName"`
	GuestEmail  string  `json:"guestEmail"`
	GuestPhone  string  `json:"guestPhone"`
	CheckIn     apiDate `json:"checkIn"`
	CheckOut    apiDate `json:"checkOut"`
	Guests      int     `json:"guests"`
	Status      string  `json:"status"`
	Channel     string  `json:"channel"`
	TotalAmount float64 `json:"totalAmount"`
	Currency    string  `json:"currency"`
	CreatedAt   apiDate `json:"createdAt"`
	UpdatedAt   apiDate `json:"updatedAt"`
}

func (d reservationDoc) toDomain() channel.Reservation {
	currency := d.Currency
	if currency == "" {
		currency = channel.DefaultCurrency
	}
	return channel.Reservation{
		ID:          d.ID,
		PropertyID:  d.PropertyID,
		GuestName:   d.GuestName,
		GuestEmail:  d.GuestEmail,
		GuestPhone:  d.GuestPhone,
		CheckIn:     d.CheckIn.Time,
		CheckOut:    d.CheckOut.Time,
		Guests:      d.Guests,
		Status:      channel.ReservationStatus(d.Status),
		Channel:     d.Channel,
		TotalAmount: d.TotalAmount,
		Currency:    currency,
		CreatedAt:   d.CreatedAt.Time,
		UpdatedAt:   d.UpdatedAt.Time,
	}
}

type availabilityDoc struct {
	PropertyID string  `json:"propertyId"`
	Date       apiDate `json:"date"`
	Available  bool    `json:"available"`
	MinStay    int     `json:"minStay"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
}

func (d availabilityDoc) toDomain() channel.Availability {
	minStay := d.MinStay
	if minStay <= 0 {
		minStay = 1
	}
	currency := d.Currency
	if currency == "" {
		currency = channel.DefaultCurrency
	}
	return channel.Availability{
		PropertyID: d.PropertyID,
		Date:       d.Date.Time,
		Available:  d.Available,
		MinStay:    minStay,
		Price:      d.Price,
		Currency:   currency,
	}
}

type availabilityUpdateDoc struct {
	Date      string  `json:"date"`
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
	MinStay   int     `json:"minStay"`
	Currency  string  `json:"currency"`
}

type channelDoc struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Status   string  `json:"status"`
	LastSync apiDate `json:"lastSync"`
}

func (d channelDoc) toDomain() channel.Channel {
	return channel.Channel{
		ID:       d.ID,
		Name:     d.Name,
		Type:     d.Type,
		Status:   channel.ChannelStatus(d.Status),
		LastSync: d.LastSync.Time,
	}
}
