// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// allocation engine and handlers to distinguish between different
// failure scenarios without string matching. ErrDuplicateAddress in
// particular is the storage-level signal that a unique occupancy key
// was violated; the engine translates it into a structured conflict.
package repository

import "errors"

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// ErrLayoutNotFound is returned when a table layout lookup yields no rows.
var ErrLayoutNotFound = errors.New("table layout not found")

// ErrPackageNotFound is returned when a package lookup yields no rows.
var ErrPackageNotFound = errors.New("package not found")

// ErrSlotNotFound is returned when a time slot lookup yields no rows.
var ErrSlotNotFound = errors.New("time slot not found")

// ErrBookingNotFound is returned when a booking lookup yields no rows.
var ErrBookingNotFound = errors.New("booking not found")

// ErrAssignmentNotFound is returned when a booking holds no live
// assignment. Callers treating a relocation of an unassigned booking
// as a create should branch on this value.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrDuplicateAddress is returned when an insert or update collides
// with the unique occupancy key (event, layout, assign number) or the
// one-live-assignment-per-booking key. It means another transaction
// won the address between the pre-check and the write.
var ErrDuplicateAddress = errors.New("address already occupied")

// ErrNoOccupancyRow is returned when a counter operation targets a
// (package, date, slot) tuple that was never initialized.
var ErrNoOccupancyRow = errors.New("occupancy counter not found")
