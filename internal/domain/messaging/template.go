package messaging

import (
	"errors"
	"time"

	"amoita/internal/domain/channel"
)

var (
	ErrTemplateNotFound = errors.New("messaging: template not found")
	ErrRuleNotFound     = errors.New("messaging: automation rule not found")
	ErrMessageNotFound  = errors.New("messaging: message not found")
)

type TriggerType string

const (
	TriggerBookingConfirmed TriggerType = "booking_confirmed"
	TriggerCheckInReminder  TriggerType = "check_in_reminder"
	TriggerCheckOutReminder TriggerType = "check_out_reminder"
	TriggerPostStay         TriggerType = "post_stay"
	TriggerCancellation     TriggerType = "cancellation"
	TriggerManual           TriggerType = "manual"
)

type TriggerTiming string

const (
	TimingImmediate   TriggerTiming = "immediate"
	TimingHoursBefore TriggerTiming = "hours_before"
	TimingDaysBefore  TriggerTiming = "days_before"
	TimingHoursAfter  TriggerTiming = "hours_after"
	TimingDaysAfter   TriggerTiming = "days_after"
)

type TriggerConditions struct {
	Channels    []string
	PropertyIDs []string
	GuestTypes  []string
}

// Trigger decides when a template fires relative to a reservation's
// check-in or check-out. Offset counts hours or days depending on Timing.
type Trigger struct {
	Type       TriggerType
	Timing     TriggerTiming
	Offset     int
	Conditions *TriggerConditions
}

// ScheduleFor computes the deferred delivery time for a reservation. The
// second return is false for immediate triggers and for triggers without an
// offset, which have no deferred schedule.
func (t Trigger) ScheduleFor(r channel.Reservation) (time.Time, bool) {
	if t.Offset == 0 {
		return time.Time{}, false
	}
	switch t.Timing {
	case TimingDaysBefore:
		return r.CheckIn.AddDate(0, 0, -t.Offset), true
	case TimingHoursBefore:
		return r.CheckIn.Add(-time.Duration(t.Offset) * time.Hour), true
	case TimingDaysAfter:
		return r.CheckOut.AddDate(0, 0, t.Offset), true
	case TimingHoursAfter:
		return r.CheckOut.Add(time.Duration(t.Offset) * time.Hour), true
	default:
		return time.Time{}, false
	}
}

type Language string

const (
	LanguagePT Language = "pt"
	LanguageEN Language = "en"
	LanguageES Language = "es"
)

// Template is a reusable, parameterized message body. Content and Subject
// may carry {{variable}} placeholders filled at send time.
type Template struct {
	ID        string
	Name      string
	Subject   string
	Content   string
	Trigger   Trigger
	Language  Language
	Active    bool
	Variables []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
