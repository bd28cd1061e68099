package obs

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (s *recordingStore) Insert(ctx context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingStore) snapshot() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func TestAuditLoggerRedactsSensitiveKeys(t *testing.T) {
	store := &recordingStore{}
	audit := &AuditLogger{Logger: slog.Default(), Store: store}

	audit.Log("CONNECT_CHANNEL", map[string]any{
		"propertyId": "prop-1",
		"apiKey":     "super-secret",
		"password":   "hunter2",
	})

	require.Eventually(t, func() bool {
		return len(store.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	entry := store.snapshot()[0]
	assert.Equal(t, "CONNECT_CHANNEL", entry.Action)
	assert.Equal(t, "prop-1", entry.Details["propertyId"])
	assert.Equal(t, "[REDACTED]", entry.Details["apiKey"])
	assert.Equal(t, "[REDACTED]", entry.Details["password"])
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestAuditLoggerNilSafety(t *testing.T) {
	var audit *AuditLogger
	audit.Log("NOOP", nil)

	empty := &AuditLogger{}
	empty.Log("NO_SINKS", map[string]any{"k": "v"})
}

func TestMultiStoreFansOut(t *testing.T) {
	a, b := &recordingStore{}, &recordingStore{}
	multi := MultiStore{a, b}

	err := multi.Insert(context.Background(), AuditEntry{ID: "e1", Action: "X"})
	require.NoError(t, err)
	assert.Len(t, a.snapshot(), 1)
	assert.Len(t, b.snapshot(), 1)
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-7")
	assert.Equal(t, "req-7", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
