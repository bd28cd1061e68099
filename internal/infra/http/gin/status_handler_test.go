package ginserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amoita/internal/infra/obs"
)

type stubAuditReader struct {
	entries   []obs.AuditEntry
	err       error
	gotAction string
	gotLimit  int64
}

func (s *stubAuditReader) Recent(ctx context.Context, action string, limit int64) ([]obs.AuditEntry, error) {
	s.gotAction = action
	s.gotLimit = limit
	return s.entries, s.err
}

func auditTestServer(t *testing.T, h StatusHandler) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/v1/audit", h.AuditLog)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuditLogReturnsEntries(t *testing.T) {
	reader := &stubAuditReader{entries: []obs.AuditEntry{{
		ID:        "a1",
		Timestamp: time.Now().UTC(),
		Action:    "SYNC_CALENDAR",
	}}}
	srv := auditTestServer(t, StatusHandler{Audit: reader})

	resp, err := http.Get(srv.URL + "/api/v1/audit?action=SYNC_CALENDAR&limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Entries []obs.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "a1", body.Entries[0].ID)
	assert.Equal(t, "SYNC_CALENDAR", reader.gotAction)
	assert.Equal(t, int64(5), reader.gotLimit)
}

func TestAuditLogWithoutStore(t *testing.T) {
	srv := auditTestServer(t, StatusHandler{})

	resp, err := http.Get(srv.URL + "/api/v1/audit")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAuditLogRejectsBadLimit(t *testing.T) {
	srv := auditTestServer(t, StatusHandler{Audit: &stubAuditReader{}})

	resp, err := http.Get(srv.URL + "/api/v1/audit?limit=zero")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
