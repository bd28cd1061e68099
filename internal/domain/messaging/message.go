package messaging

import "time"

type MessageChannel string

const (
	ChannelEmail    MessageChannel = "email"
	ChannelSMS      MessageChannel = "sms"
	ChannelWhatsApp MessageChannel = "whatsapp"
	ChannelInApp    MessageChannel = "in_app"
)

type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// ManualTemplateID marks messages composed directly by an operator rather
// than produced from a stored template.
const ManualTemplateID = "manual"

type Recipient struct {
	Name  string
	Email string
	Phone string
}

// Message is one template application to one reservation. Content is already
// variable-substituted. A message moves from pending to sent to delivered
// (or read), or from pending to failed; delivered and failed are terminal.
type Message struct {
	ID            string
	ReservationID string
	TemplateID    string
	Recipient     Recipient
	Subject       string
	Content       string
	Channel       MessageChannel
	Status        MessageStatus
	ScheduledAt   time.Time
	SentAt        time.Time
	DeliveredAt   time.Time
	ReadAt        time.Time
	Error         string
	CreatedAt     time.Time
}
