package obs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one observability record for a sensitive or billable action.
type AuditEntry struct {
	ID        string         `bson:"_id" json:"id"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Action    string         `bson:"action" json:"action"`
	Details   map[string]any `bson:"details" json:"details"`
}

// AuditStore persists audit entries. Implementations must tolerate
// concurrent inserts.
type AuditStore interface {
	Insert(ctx context.Context, entry AuditEntry) error
}

// MultiStore writes each entry to every sink, returning the first error.
type MultiStore []AuditStore

func (m MultiStore) Insert(ctx context.Context, entry AuditEntry) error {
	var firstErr error
	for _, s := range m {
		if err := s.Insert(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AuditLogger records audit events as structured logs and, when a store is
// configured, persists them asynchronously. Log never blocks the caller and
// never propagates sink failures; a nil logger is a no-op.
type AuditLogger struct {
	Logger       *slog.Logger
	Store        AuditStore
	StoreTimeout time.Duration
}

var sensitiveKeys = []string{"password", "apiKey", "apiSecret", "token", "secret", "accessToken"}

func (a *AuditLogger) Log(action string, details map[string]any) {
	if a == nil {
		return
	}
	entry := AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Details:   sanitizeDetails(details),
	}
	if a.Logger != nil {
		a.Logger.Info("audit", "action", entry.Action, "details", entry.Details, "audit_id", entry.ID)
	}
	if a.Store == nil {
		return
	}
	go func() {
		timeout := a.StoreTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.Store.Insert(ctx, entry); err != nil && a.Logger != nil {
			a.Logger.Warn("audit store insert failed", "action", entry.Action, "error", err)
		}
	}()
}

func sanitizeDetails(details map[string]any) map[string]any {
	if details == nil {
		return map[string]any{}
	}
	sanitized := make(map[string]any, len(details))
	for k, v := range details {
		sanitized[k] = v
	}
	for _, key := range sensitiveKeys {
		if _, ok := sanitized[key]; ok {
			sanitized[key] = "[REDACTED]"
		}
	}
	return sanitized
}
