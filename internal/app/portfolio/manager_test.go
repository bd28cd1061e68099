package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amoita/internal/domain/channel"
	"amoita/internal/infra/channelapi"
)

func seededManager() (*Manager, *channelapi.Mock) {
	mock := channelapi.NewMock()
	return New(mock, nil, nil), mock
}

func TestLoadProperties(t *testing.T) {
	m, mock := seededManager()
	now := time.Now().UTC()
	mock.SeedReservation(channel.Reservation{
		ID:          "r1",
		PropertyID:  "origem",
		GuestName:   "Ana Silva",
		CheckIn:     now.AddDate(0, 0, 3),
		CheckOut:    now.AddDate(0, 0, 5),
		Status:      channel.StatusConfirmed,
		Channel:     "airbnb",
		TotalAmount: 600,
		CreatedAt:   now.AddDate(0, 0, -2),
	})

	views, err := m.LoadProperties(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)

	v := views[0]
	assert.Equal(t, "origem", v.ID)
	assert.Equal(t, "Chalé A Origem", v.Name)
	assert.Equal(t, SyncIdle, v.SyncStatus)
	require.Len(t, v.ConnectedChannels, 3)
	for _, ch := range v.ConnectedChannels {
		assert.Equal(t, channel.ChannelConnected, ch.Status)
	}

	assert.Equal(t, 1, v.Metrics.TotalReservations)
	assert.InDelta(t, 600.0, v.Metrics.Revenue, 0.001)
	assert.InDelta(t, 600.0, v.Metrics.AverageRate, 0.001)
	assert.Greater(t, v.Metrics.OccupancyRate, 0.0)
}

func TestMetricsIgnoreOldAndCancelledReservations(t *testing.T) {
	m, mock := seededManager()
	now := time.Now().UTC()
	mock.SeedReservation(channel.Reservation{
		ID: "old", PropertyID: "origem", Status: channel.StatusConfirmed,
		TotalAmount: 999, CreatedAt: now.AddDate(0, 0, -60),
	})
	mock.SeedReservation(channel.Reservation{
		ID: "cancelled", PropertyID: "origem", Status: channel.StatusCancelled,
		TotalAmount: 500, CreatedAt: now.AddDate(0, 0, -1),
	})
	mock.SeedReservation(channel.Reservation{
		ID: "good", PropertyID: "origem", Status: channel.StatusCompleted,
		TotalAmount: 300, CreatedAt: now.AddDate(0, 0, -1),
	})

	view, err := m.Property(context.Background(), "origem")
	require.NoError(t, err)

	assert.Equal(t, 3, view.Metrics.TotalReservations)
	assert.InDelta(t, 300.0, view.Metrics.Revenue, 0.001)
}

func TestPropertyCachesViews(t *testing.T) {
	m, _ := seededManager()

	first, err := m.Property(context.Background(), "origem")
	require.NoError(t, err)
	second, err := m.Property(context.Background(), "origem")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = m.Property(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestSyncProperty(t *testing.T) {
	m, _ := seededManager()
	_, err := m.LoadProperties(context.Background())
	require.NoError(t, err)

	result, err := m.SyncProperty(context.Background(), "origem")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "origem", result.PropertyID)
	assert.Equal(t, 3, result.ChannelsUpdated)
	assert.False(t, m.SyncInProgress("origem"))

	view, err := m.Property(context.Background(), "origem")
	require.NoError(t, err)
	assert.Equal(t, SyncIdle, view.SyncStatus)
	assert.False(t, view.LastSync.IsZero())
}

func TestSyncPropertyUpstreamFailure(t *testing.T) {
	m, _ := seededManager()

	result, err := m.SyncProperty(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
	assert.False(t, m.SyncInProgress("ghost"))
}

func TestConnectAndDisconnectChannel(t *testing.T) {
	m, mock := seededManager()
	mock.SeedProperty(channel.Property{ID: "p2", Name: "Casa Nova", Status: channel.PropertyActive})

	err := m.ConnectChannel(context.Background(), "p2", "airbnb", map[string]string{"apiKey": "k"})
	require.NoError(t, err)

	view, err := m.Property(context.Background(), "p2")
	require.NoError(t, err)
	require.Len(t, view.ConnectedChannels, 1)
	assert.Equal(t, "Airbnb", view.ConnectedChannels[0].Name)

	require.NoError(t, m.DisconnectChannel(context.Background(), "p2", "airbnb"))
	view, err = m.Property(context.Background(), "p2")
	require.NoError(t, err)
	assert.Empty(t, view.ConnectedChannels)
}

func TestSyncAll(t *testing.T) {
	m, mock := seededManager()
	mock.SeedProperty(channel.Property{ID: "p2", Name: "Casa Nova", Status: channel.PropertyActive})
	_, err := m.LoadProperties(context.Background())
	require.NoError(t, err)

	results := m.SyncAll(context.Background())
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Success)
	}
}
