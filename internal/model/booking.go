package model

// Booking is the purchase record owned by the booking collaborator.
// Only the identifier and denormalized display fields are needed here:
// they surface in conflict payloads and audit entries so an admin can
// tell who currently holds a seat.
//
// Fields:
//  ID          – primary key identifier.
//  Code        – human-facing booking number, e.g. "BK-2025-0100".
//  DevoteeName – display name of the person the booking is for.
type Booking struct {
	ID          uint64 // bookings.id
	Code        string // bookings.code
	DevoteeName string // bookings.devotee_name
}
