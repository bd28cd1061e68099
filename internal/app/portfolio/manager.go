package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"amoita/internal/domain/channel"
)

type AuditLog interface {
	Log(action string, details map[string]any)
}

// Metrics is a property's trailing 30-day performance summary.
type Metrics struct {
	TotalReservations int
	OccupancyRate     float64
	AverageRate       float64
	Revenue           float64
}

type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncRunning SyncStatus = "syncing"
	SyncError   SyncStatus = "error"
)

// PropertyView is a property enriched with its connected channels, sync
// state and metrics for the dashboard.
type PropertyView struct {
	channel.Property
	ConnectedChannels []channel.Channel
	SyncStatus        SyncStatus
	LastSync          time.Time
	Metrics           Metrics
}

// SyncResult summarizes a channel-manager-side property sync.
type SyncResult struct {
	Success         bool
	PropertyID      string
	ChannelsUpdated int
	Errors          []string
}

// Manager caches the property portfolio and guards against overlapping
// syncs per property.
type Manager struct {
	api    channel.API
	audit  AuditLog
	logger *slog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	properties map[string]PropertyView
	inProgress map[string]struct{}
}

func New(api channel.API, audit AuditLog, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		api:        api,
		audit:      audit,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		properties: make(map[string]PropertyView),
		inProgress: make(map[string]struct{}),
	}
}

// LoadProperties fetches the portfolio with channels and metrics, replacing
// the cache.
func (m *Manager) LoadProperties(ctx context.Context) ([]PropertyView, error) {
	m.auditLog("LOAD_PROPERTIES", map[string]any{"action": "start"})

	properties, err := m.api.GetProperties(ctx)
	if err != nil {
		m.auditLog("LOAD_PROPERTIES", map[string]any{"action": "error", "error": err.Error()})
		return nil, err
	}

	views := make([]PropertyView, 0, len(properties))
	for _, p := range properties {
		view := PropertyView{
			Property:          p,
			ConnectedChannels: m.propertyChannels(ctx, p),
			SyncStatus:        SyncIdle,
			Metrics:           m.metrics(ctx, p.ID),
		}
		m.mu.Lock()
		m.properties[p.ID] = view
		m.mu.Unlock()
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })

	m.auditLog("LOAD_PROPERTIES", map[string]any{"action": "complete", "count": len(views)})
	return views, nil
}

// Property returns the cached view, loading it on a miss.
func (m *Manager) Property(ctx context.Context, id string) (PropertyView, error) {
	m.mu.RLock()
	cached, ok := m.properties[id]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	p, err := m.api.GetProperty(ctx, id)
	if err != nil {
		return PropertyView{}, err
	}
	view := PropertyView{
		Property:          p,
		ConnectedChannels: m.propertyChannels(ctx, p),
		SyncStatus:        SyncIdle,
		Metrics:           m.metrics(ctx, id),
	}
	m.mu.Lock()
	m.properties[id] = view
	m.mu.Unlock()
	return view, nil
}

// ConnectChannel attaches a distribution channel to a property and triggers
// an initial sync.
func (m *Manager) ConnectChannel(ctx context.Context, propertyID, channelID string, credentials map[string]string) error {
	m.auditLog("CONNECT_CHANNEL", map[string]any{"action": "start", "propertyId": propertyID, "channelId": channelID})

	if err := m.api.ConnectChannel(ctx, propertyID, channelID, credentials); err != nil {
		m.auditLog("CONNECT_CHANNEL", map[string]any{"action": "error", "propertyId": propertyID, "channelId": channelID, "error": err.Error()})
		return err
	}
	m.refresh(ctx, propertyID)

	m.auditLog("CONNECT_CHANNEL", map[string]any{"action": "complete", "propertyId": propertyID, "channelId": channelID})

	if _, err := m.SyncProperty(ctx, propertyID); err != nil {
		return err
	}
	return nil
}

func (m *Manager) DisconnectChannel(ctx context.Context, propertyID, channelID string) error {
	m.auditLog("DISCONNECT_CHANNEL", map[string]any{"action": "start", "propertyId": propertyID, "channelId": channelID})

	if err := m.api.DisconnectChannel(ctx, propertyID, channelID); err != nil {
		m.auditLog("DISCONNECT_CHANNEL", map[string]any{"action": "error", "propertyId": propertyID, "channelId": channelID, "error": err.Error()})
		return err
	}
	m.refresh(ctx, propertyID)

	m.auditLog("DISCONNECT_CHANNEL", map[string]any{"action": "complete", "propertyId": propertyID, "channelId": channelID})
	return nil
}

// SyncProperty asks the channel manager to re-sync a property's listings.
// Overlapping syncs for one property are rejected.
func (m *Manager) SyncProperty(ctx context.Context, propertyID string) (SyncResult, error) {
	m.mu.Lock()
	if _, busy := m.inProgress[propertyID]; busy {
		m.mu.Unlock()
		return SyncResult{}, fmt.Errorf("portfolio: sync already in progress for property %s", propertyID)
	}
	m.inProgress[propertyID] = struct{}{}
	m.setSyncStatus(propertyID, SyncRunning)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inProgress, propertyID)
		m.mu.Unlock()
	}()

	m.auditLog("SYNC_PROPERTY", map[string]any{"action": "start", "propertyId": propertyID})

	if err := m.api.TriggerSync(ctx, propertyID); err != nil {
		m.mu.Lock()
		m.setSyncStatus(propertyID, SyncError)
		m.mu.Unlock()
		m.auditLog("SYNC_PROPERTY", map[string]any{"action": "error", "propertyId": propertyID, "error": err.Error()})
		return SyncResult{PropertyID: propertyID, Errors: []string{err.Error()}}, nil
	}

	m.refresh(ctx, propertyID)
	m.mu.Lock()
	view := m.properties[propertyID]
	view.SyncStatus = SyncIdle
	view.LastSync = m.now()
	m.properties[propertyID] = view
	channelsUpdated := len(view.ConnectedChannels)
	m.mu.Unlock()

	result := SyncResult{Success: true, PropertyID: propertyID, ChannelsUpdated: channelsUpdated}
	m.auditLog("SYNC_PROPERTY", map[string]any{"action": "complete", "propertyId": propertyID, "channelsUpdated": channelsUpdated})
	return result, nil
}

// SyncAll syncs every cached property, collecting per-property results.
func (m *Manager) SyncAll(ctx context.Context) []SyncResult {
	m.mu.RLock()
	ids := make([]string, 0, len(m.properties))
	for id := range m.properties {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)

	m.auditLog("SYNC_ALL_PROPERTIES", map[string]any{"action": "start", "propertyCount": len(ids)})

	results := make([]SyncResult, 0, len(ids))
	for _, id := range ids {
		result, err := m.SyncProperty(ctx, id)
		if err != nil {
			result = SyncResult{PropertyID: id, Errors: []string{err.Error()}}
		}
		results = append(results, result)
	}

	m.auditLog("SYNC_ALL_PROPERTIES", map[string]any{"action": "complete", "count": len(results)})
	return results
}

func (m *Manager) SyncInProgress(propertyID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, busy := m.inProgress[propertyID]
	return busy
}

func (m *Manager) Properties() []PropertyView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PropertyView, 0, len(m.properties))
	for _, v := range m.properties {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// refresh reloads channels and metrics for a cached property.
func (m *Manager) refresh(ctx context.Context, propertyID string) {
	p, err := m.api.GetProperty(ctx, propertyID)
	if err != nil {
		m.logger.Warn("property refresh failed", "property_id", propertyID, "error", err)
		return
	}
	m.mu.Lock()
	view, ok := m.properties[propertyID]
	if !ok {
		view = PropertyView{SyncStatus: SyncIdle}
	}
	view.Property = p
	m.mu.Unlock()

	channels := m.propertyChannels(ctx, p)
	metrics := m.metrics(ctx, propertyID)

	m.mu.Lock()
	view.ConnectedChannels = channels
	view.Metrics = metrics
	m.properties[propertyID] = view
	m.mu.Unlock()
}

// propertyChannels resolves a property's channel list to connected-channel
// records, falling back to the id as display name for unknown channels.
func (m *Manager) propertyChannels(ctx context.Context, p channel.Property) []channel.Channel {
	known, err := m.api.GetChannels(ctx)
	if err != nil {
		m.logger.Warn("channel list fetch failed", "property_id", p.ID, "error", err)
		known = nil
	}
	byID := make(map[string]channel.Channel, len(known))
	for _, ch := range known {
		byID[ch.ID] = ch
	}

	out := make([]channel.Channel, 0, len(p.Channels))
	for _, id := range p.Channels {
		ch, ok := byID[id]
		if !ok {
			ch = channel.Channel{ID: id, Name: id, Type: "other"}
		}
		ch.Status = channel.ChannelConnected
		ch.LastSync = m.now()
		out = append(out, ch)
	}
	return out
}

// metrics derives the trailing 30-day figures from reservations. Errors
// degrade to zeroed metrics; the dashboard prefers stale zeros over a
// failing page.
func (m *Manager) metrics(ctx context.Context, propertyID string) Metrics {
	reservations, err := m.api.GetReservations(ctx, propertyID)
	if err != nil {
		m.logger.Warn("metrics fetch failed", "property_id", propertyID, "error", err)
		return Metrics{}
	}

	cutoff := m.now().AddDate(0, 0, -30)
	var confirmed []channel.Reservation
	for _, r := range reservations {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		if r.Status == channel.StatusConfirmed || r.Status == channel.StatusCompleted {
			confirmed = append(confirmed, r)
		}
	}

	var revenue float64
	for _, r := range confirmed {
		revenue += r.TotalAmount
	}
	averageRate := 0.0
	occupancy := 0.0
	if len(confirmed) > 0 {
		averageRate = revenue / float64(len(confirmed))
		occupancy = math.Min(float64(len(confirmed))/30*100, 100)
	}

	return Metrics{
		TotalReservations: len(reservations),
		OccupancyRate:     round2(occupancy),
		AverageRate:       round2(averageRate),
		Revenue:           round2(revenue),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// setSyncStatus must run with m.mu held.
func (m *Manager) setSyncStatus(propertyID string, status SyncStatus) {
	view, ok := m.properties[propertyID]
	if !ok {
		view = PropertyView{}
	}
	view.SyncStatus = status
	m.properties[propertyID] = view
}

func (m *Manager) auditLog(action string, details map[string]any) {
	if m.audit != nil {
		m.audit.Log(action, details)
	}
}
