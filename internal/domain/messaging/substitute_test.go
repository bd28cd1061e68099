package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"amoita/internal/domain/channel"
)

func sampleReservation() channel.Reservation {
	return channel.Reservation{
		ID:          "r1",
		PropertyID:  "prop-1",
		GuestName:   "Ana Silva",
		GuestEmail:  "ana@example.com",
		CheckIn:     time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		Guests:      2,
		Status:      channel.StatusConfirmed,
		Channel:     "airbnb",
		TotalAmount: 450.5,
		Currency:    "BRL",
	}
}

func TestVariables(t *testing.T) {
	vars := Variables(sampleReservation())

	assert.Equal(t, "Ana Silva", vars["guestName"])
	assert.Equal(t, "10/06/2024", vars["checkInDate"])
	assert.Equal(t, "12/06/2024", vars["checkOutDate"])
	assert.Equal(t, "15:00", vars["checkInTime"])
	assert.Equal(t, "11:00", vars["checkOutTime"])
	assert.Equal(t, "R$ 450.50", vars["totalAmount"])
	assert.Equal(t, "airbnb", vars["channel"])
	assert.Equal(t, "2", vars["guests"])
}

func TestSubstitute(t *testing.T) {
	vars := Variables(sampleReservation())
	content := "Olá {{guestName}}, seu check-in é {{checkInDate}} às {{checkInTime}}. Total: {{totalAmount}}."

	got := Substitute(content, vars)
	assert.Equal(t, "Olá Ana Silva, seu check-in é 10/06/2024 às 15:00. Total: R$ 450.50.", got)
}

func TestSubstituteWhitespaceInsidePlaceholder(t *testing.T) {
	got := Substitute("Olá {{ guestName }}!", map[string]string{"guestName": "Ana"})
	assert.Equal(t, "Olá Ana!", got)
}

func TestSubstituteLeavesUnknownPlaceholders(t *testing.T) {
	got := Substitute("Olá {{guestName}}, {{unknownVar}}", map[string]string{"guestName": "Ana"})
	assert.Equal(t, "Olá Ana, {{unknownVar}}", got)
}

func TestSubstituteNoVariables(t *testing.T) {
	got := Substitute("Olá {{guestName}}", nil)
	assert.Equal(t, "Olá {{guestName}}", got)
}
