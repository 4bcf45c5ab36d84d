package model

import "time"

// Assignment is the live occupancy record: one row per address
// currently held by a booking.  Seat-mode assignments fill the layout
// fields; counter-mode assignments leave them nil and carry the
// occupancy token issued by the tracker instead.  An assignment is
// created when a booking first obtains an address, rewritten only by
// the relocation engine, and deleted on cancellation.
//
// Fields:
//  ID           – primary key identifier.
//  EventID      – owning event.
//  PackageID    – package the booking purchased.
//  BookingID    – booking that holds the address (unique, live).
//  SlotDate     – date of the booked slot (YYYY-MM-DD).
//  SlotID       – time slot, nil when the package has no slots.
//  LayoutID     – table layout, nil for counter-mode assignments.
//  RowNum       – row inside the layout grid (nullable).
//  ColNum       – column inside the layout grid (nullable).
//  AssignNumber – human-readable seat number (nullable).
//  SeatLabel    – rendered label such as "A-5" (nullable).
//  Token        – occupancy token for counter-mode assignments.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last relocation timestamp.
type Assignment struct {
	ID           uint64    // assignments.id
	EventID      uint64    // assignments.event_id
	PackageID    uint64    // assignments.package_id
	BookingID    uint64    // assignments.booking_id
	SlotDate     string    // assignments.slot_date
	SlotID       *uint64   // assignments.slot_id (nullable)
	LayoutID     *uint64   // assignments.layout_id (nullable)
	RowNum       *uint32   // assignments.row_num (nullable)
	ColNum       *uint32   // assignments.col_num (nullable)
	AssignNumber *uint32   // assignments.assign_number (nullable)
	SeatLabel    *string   // assignments.seat_label (nullable)
	Token        string    // assignments.token
	CreatedAt    time.Time // assignments.created_at
	UpdatedAt    time.Time // assignments.updated_at
}

// Location rebuilds the tagged address this assignment holds.  An
// assignment without layout fields is a counter-mode occupancy.
func (a *Assignment) Location() Location {
	if a.LayoutID != nil && a.RowNum != nil && a.ColNum != nil && a.AssignNumber != nil {
		return Location{Seat: &SeatLocation{
			LayoutID: *a.LayoutID,
			Row:      *a.RowNum,
			Column:   *a.ColNum,
			Number:   *a.AssignNumber,
		}}
	}
	loc := Location{Counter: &CounterLocation{
		PackageID: a.PackageID,
		SlotDate:  a.SlotDate,
	}}
	if a.SlotID != nil {
		loc.Counter.SlotID = *a.SlotID
	}
	return loc
}
