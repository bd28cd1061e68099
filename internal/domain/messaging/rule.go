package messaging

import (
	"time"

	"amoita/internal/domain/channel"
)

type RuleConditions struct {
	PropertyIDs []string
	Channels    []string
	GuestTypes  []string
	MinStayDays int
	MaxStayDays int
}

// Rule binds reservation lifecycle triggers to templates under conditions.
type Rule struct {
	ID          string
	Name        string
	Description string
	Active      bool
	Triggers    []Trigger
	Templates   []string
	Conditions  RuleConditions
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Matches reports whether the rule applies to a lifecycle event for the
// given reservation. The rule must be active and carry a trigger of the
// event's type, with every configured condition passing.
func (r Rule) Matches(eventType TriggerType, res channel.Reservation) bool {
	if !r.Active {
		return false
	}
	hasTrigger := false
	for _, t := range r.Triggers {
		if t.Type == eventType {
			hasTrigger = true
			break
		}
	}
	if !hasTrigger {
		return false
	}

	if len(r.Conditions.PropertyIDs) > 0 && !containsString(r.Conditions.PropertyIDs, res.PropertyID) {
		return false
	}
	if len(r.Conditions.Channels) > 0 && !containsString(r.Conditions.Channels, res.Channel) {
		return false
	}

	stay := res.StayNights()
	if r.Conditions.MinStayDays > 0 && stay < r.Conditions.MinStayDays {
		return false
	}
	if r.Conditions.MaxStayDays > 0 && stay > r.Conditions.MaxStayDays {
		return false
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
