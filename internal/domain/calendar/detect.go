package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"amoita/internal/domain/channel"
	"amoita/internal/domain/shared/daterange"
)

// DetectConflicts scans a property's events and reports every per-day
// contradiction. Each event is expanded into the days it touches (inclusive
// at both ends), then three independent rules run per day: overbooking,
// availability mismatch and price conflict. A single day can trip any
// combination of the three.
func DetectConflicts(propertyID string, events []Event) []Conflict {
	buckets := make(map[string][]Event)
	for _, ev := range events {
		ev.Range().EachDay(func(day time.Time) {
			key := daterange.Key(day)
			buckets[key] = append(buckets[key], ev)
		})
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	var conflicts []Conflict
	for _, key := range days {
		day, _ := daterange.ParseDay(key)
		conflicts = append(conflicts, detectDay(propertyID, day, key, buckets[key])...)
	}
	return conflicts
}

func detectDay(propertyID string, day time.Time, key string, dayEvents []Event) []Conflict {
	var conflicts []Conflict

	var reservations, available []Event
	for _, ev := range dayEvents {
		switch {
		case ev.Kind == KindReservation && ev.Status == channel.StatusConfirmed:
			reservations = append(reservations, ev)
		case ev.Kind == KindAvailable:
			available = append(available, ev)
		}
	}

	if len(reservations) > 1 {
		conflicts = append(conflicts, Conflict{
			ID:          uuid.NewString(),
			PropertyID:  propertyID,
			Date:        day,
			Kind:        ConflictOverbooking,
			Description: fmt.Sprintf("Multiple reservations on %s", key),
			Sources:     uniqueSources(reservations),
		})
	}

	if len(reservations) > 0 && len(available) > 0 {
		conflicts = append(conflicts, Conflict{
			ID:          uuid.NewString(),
			PropertyID:  propertyID,
			Date:        day,
			Kind:        ConflictAvailabilityMismatch,
			Description: fmt.Sprintf("Property marked as available but has reservation on %s", key),
			Sources:     uniqueSources(append(append([]Event(nil), reservations...), available...)),
		})
	}

	var priced []Event
	for _, ev := range dayEvents {
		if ev.Amount > 0 {
			priced = append(priced, ev)
		}
	}
	prices := uniquePrices(priced)
	if len(prices) > 1 {
		conflicts = append(conflicts, Conflict{
			ID:          uuid.NewString(),
			PropertyID:  propertyID,
			Date:        day,
			Kind:        ConflictPrice,
			Description: fmt.Sprintf("Different prices found for %s: %s", key, formatPrices(prices)),
			Sources:     uniqueSources(priced),
		})
	}

	return conflicts
}

func uniqueSources(events []Event) []string {
	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0, len(events))
	for _, ev := range events {
		if _, ok := seen[ev.Source]; ok {
			continue
		}
		seen[ev.Source] = struct{}{}
		out = append(out, ev.Source)
	}
	return out
}

func uniquePrices(events []Event) []float64 {
	seen := make(map[float64]struct{}, len(events))
	out := make([]float64, 0, len(events))
	for _, ev := range events {
		if _, ok := seen[ev.Amount]; ok {
			continue
		}
		seen[ev.Amount] = struct{}{}
		out = append(out, ev.Amount)
	}
	return out
}

func formatPrices(prices []float64) string {
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = fmt.Sprintf("%.2f", p)
	}
	return strings.Join(parts, ", ")
}
