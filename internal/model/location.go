package model

import "fmt"

// SeatLocation addresses one physical cell inside a table layout.  The
// number is the human-readable seat number produced by the layout
// generator; row and column pin the cell inside the grid.
type SeatLocation struct {
	LayoutID uint64 `json:"layout_id"`
	Row      uint32 `json:"row"`
	Column   uint32 `json:"column"`
	Number   uint32 `json:"number"`
}

// CounterLocation addresses one occupancy counter: a (package, date,
// slot) tuple for packages that have no physical seats.
type CounterLocation struct {
	PackageID uint64 `json:"package_id"`
	SlotDate  string `json:"slot_date"` // YYYY-MM-DD
	SlotID    uint64 `json:"slot_id"`
}

// Location is the tagged address variant used throughout the
// allocation core: exactly one of Seat or Counter is set, or neither
// when a request means "unassign".  It replaces the overloaded
// optional-field payloads the admin UI used to send.
type Location struct {
	Seat    *SeatLocation    `json:"seat,omitempty"`
	Counter *CounterLocation `json:"counter,omitempty"`
}

// IsZero reports whether no address is set at all.
func (l Location) IsZero() bool {
	return l.Seat == nil && l.Counter == nil
}

// String renders a compact address for logs and conflict payloads.
// Seat addresses render as "layout 3 seat 5 (r2c1)"; counter addresses
// as "package 7 slot 2 @ 2025-01-01".
func (l Location) String() string {
	switch {
	case l.Seat != nil:
		return fmt.Sprintf("layout %d seat %d (r%dc%d)", l.Seat.LayoutID, l.Seat.Number, l.Seat.Row, l.Seat.Column)
	case l.Counter != nil:
		return fmt.Sprintf("package %d slot %d @ %s", l.Counter.PackageID, l.Counter.SlotID, l.Counter.SlotDate)
	default:
		return "unassigned"
	}
}
