package model

import "time"

// Event represents a scheduled occurrence (a ceremony day, a festival
// session) that owns packages and, when seat assignment is enabled, one
// or more table layouts.  Events are authored by an external
// administration tool; this service reads them to validate assignment
// requests.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – display name of the event.
//  SeatAssignEnabled – whether bookings receive a physical seat.
//  RelocationEnabled – whether admins may relocate existing bookings.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Event struct {
	ID                uint64    // events.id
	Name              string    // events.name
	SeatAssignEnabled bool      // events.seat_assign_enabled
	RelocationEnabled bool      // events.relocation_enabled
	CreatedAt         time.Time // events.created_at
	UpdatedAt         time.Time // events.updated_at
}

// Numbering patterns supported by table layouts.  ROW_MAJOR numbers
// seats left-to-right then top-to-bottom; COLUMN_MAJOR numbers them
// top-to-bottom then left-to-right.
const (
	PatternRowMajor    = "ROW_MAJOR"
	PatternColumnMajor = "COLUMN_MAJOR"
)

// TableLayout describes one addressable grid of seats inside an event:
// a named table (or section) with a fixed number of rows and columns
// and a deterministic numbering scheme.  The grid itself is never
// persisted; it is expanded on demand by the layout generator.
//
// Fields:
//  ID          – primary key identifier.
//  EventID     – event to which the layout belongs.
//  Label       – short human-readable name, e.g. "A" or "Main".
//  RowCount    – number of rows, must be positive.
//  ColCount    – number of columns, must be positive.
//  StartNumber – first seat number; zero means "default to 1".
//  Pattern     – numbering pattern (ROW_MAJOR or COLUMN_MAJOR).
type TableLayout struct {
	ID          uint64    // table_layouts.id
	EventID     uint64    // table_layouts.event_id
	Label       string    // table_layouts.label
	RowCount    uint32    // table_layouts.row_count
	ColCount    uint32    // table_layouts.col_count
	StartNumber uint32    // table_layouts.start_number
	Pattern     string    // table_layouts.pattern
	CreatedAt   time.Time // table_layouts.created_at
	UpdatedAt   time.Time // table_layouts.updated_at
}
