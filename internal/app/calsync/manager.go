package calsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"amoita/internal/domain/calendar"
	"amoita/internal/domain/channel"
	"amoita/internal/domain/shared/daterange"
)

// DefaultSyncInterval is the cadence for real-time sync timers when the
// caller does not pick one.
const DefaultSyncInterval = 5 * time.Minute

// defaultHorizonDays bounds the availability window fetched when no range is given.
const defaultHorizonDays = 365

// AuditLog is the fire-and-forget observability sink for sync activity.
type AuditLog interface {
	Log(action string, details map[string]any)
}

// Result summarizes one sync pass. Failures are reported here, never
// panicked or returned as errors: callers must check Success.
type Result struct {
	Success       bool
	PropertyID    string
	EventsUpdated int
	Conflicts     []calendar.Conflict
	Errors        []string
	LastSync      time.Time
}

// Manager runs the full sync pass (fetch, detect, resolve, cache) for
// property calendars. The per-property event and conflict caches are owned
// exclusively by the manager and swapped wholesale on each pass; readers see
// either the previous pass or the new one, never a partial write.
//
// Concurrent syncs for the same property are not serialized: last write
// wins. That race is accepted, matching how the dashboard's manual refresh
// may overlap the interval timer.
type Manager struct {
	api    channel.API
	audit  AuditLog
	logger *slog.Logger
	now    func() time.Time

	// baseCtx parents every real-time sync loop, so timers live until the
	// manager is closed rather than until the caller's request finishes.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	defaultInterval time.Duration

	mu        sync.RWMutex
	calendars map[string][]calendar.Event
	conflicts map[string][]calendar.Conflict

	timersMu sync.Mutex
	timers   map[string]context.CancelFunc
}

func New(api channel.API, audit AuditLog, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Manager{
		api:             api,
		audit:           audit,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
		baseCtx:         baseCtx,
		baseCancel:      baseCancel,
		defaultInterval: DefaultSyncInterval,
		calendars:       make(map[string][]calendar.Event),
		conflicts:       make(map[string][]calendar.Conflict),
		timers:          make(map[string]context.CancelFunc),
	}
}

// SetDefaultInterval overrides the cadence used when StartRealTimeSync is
// called without an explicit interval. Non-positive values are ignored.
func (m *Manager) SetDefaultInterval(d time.Duration) {
	if d > 0 {
		m.defaultInterval = d
	}
}

// SyncCalendar runs one full sync pass for a property. A nil range defaults
// to today through +365 days.
func (m *Manager) SyncCalendar(ctx context.Context, propertyID string, rng *daterange.DateRange) Result {
	return m.sync(ctx, propertyID, rng, true)
}

func (m *Manager) sync(ctx context.Context, propertyID string, rng *daterange.DateRange, resolve bool) Result {
	m.auditLog("SYNC_CALENDAR", map[string]any{"action": "start", "propertyId": propertyID})

	window := m.windowOrDefault(rng)

	var (
		wg           sync.WaitGroup
		avail        []channel.Availability
		reservations []channel.Reservation
		availErr     error
		resErr       error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		avail, availErr = m.api.GetAvailability(ctx, propertyID, window.Start, window.End)
	}()
	go func() {
		defer wg.Done()
		reservations, resErr = m.api.GetReservations(ctx, propertyID)
	}()
	wg.Wait()

	if availErr != nil || resErr != nil {
		var msgs []string
		for _, err := range []error{availErr, resErr} {
			if err != nil {
				msgs = append(msgs, err.Error())
			}
		}
		m.auditLog("SYNC_CALENDAR", map[string]any{"action": "error", "propertyId": propertyID, "errors": msgs})
		return Result{PropertyID: propertyID, Errors: msgs, LastSync: m.now()}
	}

	now := m.now()
	events := calendar.BuildTimeline(propertyID, avail, reservations, now)
	conflicts := calendar.DetectConflicts(propertyID, events)

	// Resolutions are applied before the conflicts are published; readers
	// only ever see the slice after its tags are final.
	resolved, blocked := 0, false
	if resolve {
		resolved, blocked = m.autoResolve(ctx, propertyID, conflicts)
	}

	m.mu.Lock()
	m.calendars[propertyID] = events
	m.conflicts[propertyID] = conflicts
	m.mu.Unlock()

	if blocked {
		m.sync(ctx, propertyID, nil, false)
	}

	result := Result{
		Success:       true,
		PropertyID:    propertyID,
		EventsUpdated: len(events),
		Conflicts:     conflicts,
		LastSync:      m.now(),
	}
	m.auditLog("SYNC_CALENDAR", map[string]any{
		"action":            "complete",
		"propertyId":        propertyID,
		"eventsUpdated":     result.EventsUpdated,
		"conflictsCount":    len(conflicts),
		"resolvedConflicts": resolved,
	})
	return result
}

// autoResolve applies the deterministic remediation policies to a pass's
// conflicts in place, before the slice reaches the shared cache. Overbooking
// and availability mismatches block the offending date; price conflicts are
// only tagged for manual handling. The blocked return tells the caller to
// refresh the calendar once more without resolving again, so a resolve pass
// can never recurse into another resolve pass.
func (m *Manager) autoResolve(ctx context.Context, propertyID string, conflicts []calendar.Conflict) (int, bool) {
	resolved := 0
	blocked := false
	for i := range conflicts {
		c := &conflicts[i]
		switch c.Kind {
		case calendar.ConflictOverbooking, calendar.ConflictAvailabilityMismatch:
			update := []channel.Availability{{
				Date:      c.Date,
				Available: false,
				MinStay:   1,
				Currency:  channel.DefaultCurrency,
			}}
			if err := m.api.UpdateAvailability(ctx, propertyID, update); err != nil {
				m.logger.Error("conflict auto-resolution failed", "property_id", propertyID, "conflict_id", c.ID, "error", err)
				continue
			}
			c.Resolution = calendar.ResolutionAutoBlock
			c.ResolvedAt = m.now()
			resolved++
			blocked = true
		case calendar.ConflictPrice:
			c.Resolution = calendar.ResolutionManual
		}
	}
	if resolved > 0 {
		m.auditLog("AUTO_RESOLVE_CONFLICTS", map[string]any{
			"propertyId":    propertyID,
			"resolvedCount": resolved,
		})
	}
	return resolved, blocked
}

// AvailabilityUpdate is one caller-supplied date mutation.
type AvailabilityUpdate struct {
	Date      time.Time
	Available bool
	Price     float64
}

// UpdateAvailability pushes a batch of date updates to the channel manager
// and refreshes the property's cache.
func (m *Manager) UpdateAvailability(ctx context.Context, propertyID string, dates []AvailabilityUpdate) error {
	m.auditLog("UPDATE_AVAILABILITY", map[string]any{"action": "start", "propertyId": propertyID, "datesCount": len(dates)})

	items := make([]channel.Availability, len(dates))
	for i, d := range dates {
		items[i] = channel.Availability{
			Date:      d.Date,
			Available: d.Available,
			Price:     d.Price,
			MinStay:   1,
			Currency:  channel.DefaultCurrency,
		}
	}
	if err := m.api.UpdateAvailability(ctx, propertyID, items); err != nil {
		m.auditLog("UPDATE_AVAILABILITY", map[string]any{"action": "error", "propertyId": propertyID, "error": err.Error()})
		return err
	}

	m.SyncCalendar(ctx, propertyID, nil)

	m.auditLog("UPDATE_AVAILABILITY", map[string]any{"action": "complete", "propertyId": propertyID, "datesCount": len(dates)})
	return nil
}

// StartRealTimeSync installs a recurring sync for the property, replacing
// any timer already running for it. The loop's context is scoped to the
// manager, not to any caller, so it runs until StopRealTimeSync or Close.
// Sync failures inside the loop are logged and never stop the timer.
func (m *Manager) StartRealTimeSync(propertyID string, interval time.Duration) {
	if interval <= 0 {
		interval = m.defaultInterval
	}
	m.StopRealTimeSync(propertyID)

	loopCtx, cancel := context.WithCancel(m.baseCtx)
	m.timersMu.Lock()
	m.timers[propertyID] = cancel
	m.timersMu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				result := m.SyncCalendar(loopCtx, propertyID, nil)
				if !result.Success {
					m.logger.Error("real-time sync failed", "property_id", propertyID, "errors", result.Errors)
				}
			}
		}
	}()

	m.auditLog("START_REALTIME_SYNC", map[string]any{"propertyId": propertyID, "interval": interval.String()})
}

// StopRealTimeSync cancels the property's timer. Calling it for a property
// without one is a no-op.
func (m *Manager) StopRealTimeSync(propertyID string) {
	m.timersMu.Lock()
	cancel, ok := m.timers[propertyID]
	if ok {
		delete(m.timers, propertyID)
	}
	m.timersMu.Unlock()
	if !ok {
		return
	}
	cancel()
	m.auditLog("STOP_REALTIME_SYNC", map[string]any{"propertyId": propertyID})
}

func (m *Manager) StopAllRealTimeSync() {
	m.timersMu.Lock()
	ids := make([]string, 0, len(m.timers))
	for id := range m.timers {
		ids = append(ids, id)
	}
	m.timersMu.Unlock()
	for _, id := range ids {
		m.StopRealTimeSync(id)
	}
}

// Close stops every real-time sync loop and cancels the manager's base
// context. The manager must not be used after Close.
func (m *Manager) Close() {
	m.StopAllRealTimeSync()
	m.baseCancel()
}

// RealTimeSyncActive reports whether a timer is installed for the property.
func (m *Manager) RealTimeSyncActive(propertyID string) bool {
	m.timersMu.Lock()
	defer m.timersMu.Unlock()
	_, ok := m.timers[propertyID]
	return ok
}

func (m *Manager) windowOrDefault(rng *daterange.DateRange) daterange.DateRange {
	if rng != nil {
		return *rng
	}
	today := daterange.Day(m.now())
	return daterange.DateRange{Start: today, End: today.AddDate(0, 0, defaultHorizonDays)}
}

func (m *Manager) auditLog(action string, details map[string]any) {
	if m.audit != nil {
		m.audit.Log(action, details)
	}
}
