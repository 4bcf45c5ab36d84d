package model

import "time"

// Capacity modes supported by packages.  A SINGLE package admits at
// most one occupant per (package, date, slot) tuple.  A MULTIPLE
// package admits up to its capacity, tracked by a counter rather than
// individual seats.
const (
	ModeSingle   = "SINGLE"
	ModeMultiple = "MULTIPLE"
)

// Package is a sellable option attached to an event.  The capacity
// mode decides which allocation path a booking takes: seat-mode
// packages go through the assignment store, counter-mode packages go
// through the occupancy tracker.
//
// Fields:
//  ID           – primary key identifier.
//  EventID      – owning event.
//  Name         – display name of the package.
//  CapacityMode – SINGLE or MULTIPLE.
//  Capacity     – occupant limit; required and positive for MULTIPLE.
type Package struct {
	ID           uint64    // packages.id
	EventID      uint64    // packages.event_id
	Name         string    // packages.name
	CapacityMode string    // packages.capacity_mode
	Capacity     *uint32   // packages.capacity (nullable for SINGLE)
	CreatedAt    time.Time // packages.created_at
	UpdatedAt    time.Time // packages.updated_at
}

// EffectiveCapacity resolves the occupant limit for this package given
// an optional slot-level override.  SINGLE packages always resolve to
// one regardless of declared values.
func (p *Package) EffectiveCapacity(slot *TimeSlot) uint32 {
	if p.CapacityMode == ModeSingle {
		return 1
	}
	if slot != nil && slot.CapacityOverride != nil && *slot.CapacityOverride > 0 {
		return *slot.CapacityOverride
	}
	if p.Capacity != nil {
		return *p.Capacity
	}
	return 0
}

// TimeSlot is a bookable window within a package, e.g. the "morning"
// session of a ceremony day.  A slot may override the package capacity.
//
// Fields:
//  ID               – primary key identifier.
//  PackageID        – owning package.
//  Label            – short name such as "morning".
//  StartsAt         – slot start time (HH:MM, local to the event).
//  EndsAt           – slot end time.
//  CapacityOverride – per-slot occupant limit, nil to inherit.
type TimeSlot struct {
	ID               uint64    // time_slots.id
	PackageID        uint64    // time_slots.package_id
	Label            string    // time_slots.label
	StartsAt         string    // time_slots.starts_at
	EndsAt           string    // time_slots.ends_at
	CapacityOverride *uint32   // time_slots.capacity_override (nullable)
	CreatedAt        time.Time // time_slots.created_at
}
