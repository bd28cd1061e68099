package kafka

import (
	"context"

	"amoita/internal/infra/obs"
)

// AuditPublisher fans audit entries out to a Kafka topic for downstream
// consumers (billing, compliance exports).
type AuditPublisher struct {
	Producer *Producer
	Topic    string
}

var _ obs.AuditStore = (*AuditPublisher)(nil)

func (p *AuditPublisher) Insert(ctx context.Context, entry obs.AuditEntry) error {
	return p.Producer.PublishJSON(ctx, p.Topic, entry.Action, entry)
}
