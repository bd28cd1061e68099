package messaging

import (
	"fmt"
	"regexp"
	"strconv"

	"amoita/internal/domain/channel"
)

// Fixed arrival and departure times communicated to guests.
const (
	CheckInTime  = "15:00"
	CheckOutTime = "11:00"
)

const guestDateFormat = "02/01/2006"

// Variables extracts the substitution set for a reservation. Dates render as
// dd/mm/yyyy and amounts as formatted currency, matching what guests see.
func Variables(r channel.Reservation) map[string]string {
	return map[string]string{
		"guestName":     r.GuestName,
		"guestEmail":    r.GuestEmail,
		"checkInDate":   r.CheckIn.Format(guestDateFormat),
		"checkOutDate":  r.CheckOut.Format(guestDateFormat),
		"checkInTime":   CheckInTime,
		"checkOutTime":  CheckOutTime,
		"totalAmount":   fmt.Sprintf("R$ %.2f", r.TotalAmount),
		"currency":      r.Currency,
		"reservationId": r.ID,
		"channel":       r.Channel,
		"guests":        strconv.Itoa(r.Guests),
	}
}

// Substitute replaces every {{name}} placeholder with its variable value.
// Placeholders with no matching variable are left verbatim.
func Substitute(content string, vars map[string]string) string {
	result := content
	for key, value := range vars {
		re := regexp.MustCompile(`\{\{\s*` + regexp.QuoteMeta(key) + `\s*\}\}`)
		result = re.ReplaceAllLiteralString(result, value)
	}
	return result
}
