package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"amoita/internal/domain/channel"
	"amoita/internal/domain/messaging"
)

// lifecycleEvent is the wire shape of reservation lifecycle notifications
// published by the channel manager.
type lifecycleEvent struct {
	EventType     string `json:"event_type"`
	ReservationID string `json:"reservation_id"`
	PropertyID    string `json:"property_id"`
}

// Automation consumes reservation lifecycle events to drive scheduled
// guest messaging.
type Automation interface {
	ProcessReservationEvent(ctx context.Context, eventType messaging.TriggerType, res channel.Reservation) ([]messaging.Message, error)
}

// LifecycleHandler turns reservation lifecycle messages into messaging
// automation runs and calendar re-syncs.
type LifecycleHandler struct {
	API        channel.API
	Automation Automation
	Resync     func(ctx context.Context, propertyID string)
	Logger     *slog.Logger
}

var _ MessageHandler = (*LifecycleHandler)(nil)

func (h *LifecycleHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt lifecycleEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.logger().Warn("lifecycle event decode failed", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		// malformed payloads are not retryable
		return nil
	}

	trigger, ok := triggerForEvent(evt.EventType)
	if !ok {
		h.logger().Debug("lifecycle event ignored", "event_type", evt.EventType)
		return nil
	}

	res, err := h.API.GetReservation(ctx, evt.ReservationID)
	if err != nil {
		return fmt.Errorf("kafka: fetch reservation %s: %w", evt.ReservationID, err)
	}

	if _, err := h.Automation.ProcessReservationEvent(ctx, trigger, res); err != nil {
		return fmt.Errorf("kafka: process %s for reservation %s: %w", evt.EventType, res.ID, err)
	}

	propertyID := evt.PropertyID
	if propertyID == "" {
		propertyID = res.PropertyID
	}
	if h.Resync != nil && propertyID != "" {
		h.Resync(ctx, propertyID)
	}

	h.logger().Info("lifecycle event processed",
		"event_type", evt.EventType,
		"reservation_id", res.ID,
		"property_id", propertyID,
	)
	return nil
}

func triggerForEvent(eventType string) (messaging.TriggerType, bool) {
	switch eventType {
	case "booking_confirmed", "reservation_confirmed":
		return messaging.TriggerBookingConfirmed, true
	case "cancellation", "reservation_cancelled":
		return messaging.TriggerCancellation, true
	case "check_in_reminder":
		return messaging.TriggerCheckInReminder, true
	case "check_out_reminder":
		return messaging.TriggerCheckOutReminder, true
	case "post_stay":
		return messaging.TriggerPostStay, true
	default:
		return "", false
	}
}

func (h *LifecycleHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
