package channelapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amoita/internal/domain/channel"
	"amoita/internal/infra/obs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Options{BaseURL: srv.URL, AccessToken: "token-1", APISecret: "secret-1"})
	require.NoError(t, err)
	return client
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{AccessToken: "t"})
	assert.Error(t, err)
	_, err = New(Options{BaseURL: "https://example.com"})
	assert.Error(t, err)
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotToken, gotSecret string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("Hostex-Access-Token")
		gotSecret = r.Header.Get("X-API-Secret")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	require.NoError(t, client.Health(context.Background()))
	assert.Equal(t, "token-1", gotToken)
	assert.Equal(t, "secret-1", gotSecret)
}

func TestClientPropagatesRequestID(t *testing.T) {
	var gotID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	ctx := obs.ContextWithRequestID(context.Background(), "req-42")
	require.NoError(t, client.Health(ctx))
	assert.Equal(t, "req-42", gotID)

	require.NoError(t, client.Health(context.Background()))
	assert.Empty(t, gotID)
}

func TestGetReservationsMapsDocs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reservations", r.URL.Path)
		assert.Equal(t, "prop-1", r.URL.Query().Get("propertyId"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{{
				"id":          "r1",
				"propertyId":  "prop-1",
				"guestName":   "Ana Silva",
				"checkIn":     "2024-06-10",
				"checkOut":    "2024-06-12T00:00:00Z",
				"status":      "confirmed",
				"channel":     "airbnb",
				"totalAmount": 450.5,
			}},
		})
	})

	reservations, err := client.GetReservations(context.Background(), "prop-1")
	require.NoError(t, err)
	require.Len(t, reservations, 1)

	r := reservations[0]
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), r.CheckIn)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), r.CheckOut)
	assert.Equal(t, channel.StatusConfirmed, r.Status)
	// missing currency falls back to the default
	assert.Equal(t, channel.DefaultCurrency, r.Currency)
}

func TestGetAvailabilityDefaultsMinStay(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-06-30", r.URL.Query().Get("endDate"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{{
				"propertyId": "prop-1",
				"date":       "2024-06-10",
				"available":  true,
				"price":      200.0,
			}},
		})
	})

	avail, err := client.GetAvailability(context.Background(), "prop-1",
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, 1, avail[0].MinStay)
	assert.Equal(t, channel.DefaultCurrency, avail[0].Currency)
}

func TestUpdateAvailabilityBody(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/availability", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	err := client.UpdateAvailability(context.Background(), "prop-1", []channel.Availability{{
		Date:      time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		Available: false,
		MinStay:   1,
		Currency:  "BRL",
	}})
	require.NoError(t, err)

	assert.Equal(t, "prop-1", body["propertyId"])
	items, ok := body["availability"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "2024-06-10", first["date"])
	assert.Equal(t, false, first["available"])
}

func TestSendMessageOmitsEmptyTemplate(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reservations/r1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	require.NoError(t, client.SendMessage(context.Background(), "r1", "hello", ""))
	assert.Equal(t, "hello", body["message"])
	_, hasTemplate := body["template"]
	assert.False(t, hasTemplate)
}

func TestErrorResponsesBecomeAPIErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "invalid token",
			"errors":  []string{"token expired"},
		})
	})

	_, err := client.GetProperties(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid token", apiErr.Message)
	assert.Equal(t, []string{"token expired"}, apiErr.Errors)
}

func TestErrorWithoutBodyUsesStatusText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.Health(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}
