package allocation

import (
	"errors"
	"fmt"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// ErrSeatAssignmentDisabled is returned when a seat operation targets
// an event that does not use seat layouts.
var ErrSeatAssignmentDisabled = errors.New("seat assignment disabled for event")

// ErrRelocationDisabled is returned when a relocation targets an event
// whose administration has relocation switched off.
var ErrRelocationDisabled = errors.New("relocation disabled for event")

// ValidationError reports a malformed request: a missing reason, an
// ill-formed address, an unknown action type. It is recoverable; the
// caller corrects the input and retries. No state is touched.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// ConflictError reports that the requested address is already held by
// a different booking. It carries the occupant's identity so an
// administrator can decide between swap, force and abort. No state is
// touched on this path.
type ConflictError struct {
	BookingID   uint64         `json:"booking_id"`
	BookingCode string         `json:"booking_code"`
	DevoteeName string         `json:"devotee_name"`
	Location    model.Location `json:"location"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("address held by booking %s at %s", e.BookingCode, e.Location.String())
}

// CapacityError reports that a counter tuple is full. For SINGLE
// packages the existing occupant is identified so the booking flow can
// surface who holds the slot.
type CapacityError struct {
	PackageID           uint64 `json:"package_id"`
	SlotID              uint64 `json:"slot_id"`
	SlotDate            string `json:"slot_date"`
	Capacity            uint32 `json:"capacity"`
	Current             uint32 `json:"current"`
	ExistingBookingID   uint64 `json:"existing_booking_id,omitempty"`
	ExistingBookingCode string `json:"existing_booking_code,omitempty"`
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded for package %d slot %d on %s (%d/%d)",
		e.PackageID, e.SlotID, e.SlotDate, e.Current, e.Capacity)
}
