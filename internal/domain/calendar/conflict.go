package calendar

import "time"

type ConflictKind string

const (
	ConflictOverbooking          ConflictKind = "overbooking"
	ConflictAvailabilityMismatch ConflictKind = "availability_mismatch"
	ConflictPrice                ConflictKind = "price_conflict"
)

type Resolution string

const (
	ResolutionManual     Resolution = "manual"
	ResolutionAutoBlock  Resolution = "auto_block"
	ResolutionAutoCancel Resolution = "auto_cancel"
)

// Conflict is a detected contradiction among calendar sources for one
// property and day. IDs are regenerated on every detection pass; identity
// across passes is (PropertyID, Date, Kind) if a caller needs one.
type Conflict struct {
	ID          string
	PropertyID  string
	Date        time.Time
	Kind        ConflictKind
	Description string
	Sources     []string
	Resolution  Resolution
	ResolvedAt  time.Time
}

// Unresolved reports whether the conflict still needs operator attention.
// Auto-applied resolutions clear it. A manual tag does not, since it only
// records that no automatic policy exists for the kind.
func (c Conflict) Unresolved() bool {
	return c.Resolution == "" || c.Resolution == ResolutionManual
}
