package model

import "time"

// Action types recorded in the relocation log.  Every occupancy state
// transition maps to exactly one of these.
const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionRelocate = "RELOCATE"
	ActionSwap     = "SWAP"
	ActionCancel   = "CANCEL"
)

// ValidAction reports whether s is one of the recognized action types.
func ValidAction(s string) bool {
	switch s {
	case ActionCreate, ActionUpdate, ActionRelocate, ActionSwap, ActionCancel:
		return true
	}
	return false
}

// RelocationLogEntry is one immutable row of the audit trail.  Entries
// are appended once per state transition and never updated or deleted.
// Old is nil for CREATE (the booking had no address before); New is
// nil for CANCEL.  RelatedBookingID links the two halves of a SWAP.
//
// Fields:
//  ID               – primary key identifier.
//  EventID          – event the transition belongs to.
//  BookingID        – booking whose address changed.
//  BookingCode      – denormalized booking number for reporting.
//  Action           – CREATE, UPDATE, RELOCATE, SWAP or CANCEL.
//  Old              – address before the transition (nullable).
//  New              – address after the transition (nullable).
//  Reason           – operator-supplied reason, required except CREATE.
//  ActorID          – administrator who performed the change.
//  RelatedBookingID – counterpart booking for SWAP entries (nullable).
//  CreatedAt        – transition timestamp.
type RelocationLogEntry struct {
	ID               uint64    // relocation_log.id
	EventID          uint64    // relocation_log.event_id
	BookingID        uint64    // relocation_log.booking_id
	BookingCode      string    // relocation_log.booking_code
	Action           string    // relocation_log.action
	Old              *Location // relocation_log.old_* columns
	New              *Location // relocation_log.new_* columns
	Reason           string    // relocation_log.reason
	ActorID          uint64    // relocation_log.actor_id
	RelatedBookingID *uint64   // relocation_log.related_booking_id (nullable)
	CreatedAt        time.Time // relocation_log.created_at
}

// AuditFilter narrows a history query.  Zero values mean "no filter"
// for that dimension.  Results are always most-recent-first.
type AuditFilter struct {
	EventID     uint64
	BookingCode string
	ActorID     uint64
	Action      string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
