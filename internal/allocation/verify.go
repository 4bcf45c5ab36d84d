package allocation

import (
	"context"
	"errors"

	"github.com/iliyamo/event-seat-allocation/internal/model"
	"github.com/iliyamo/event-seat-allocation/internal/repository"
)

// VerifyResult compares the address derived by replaying a booking's
// relocation log against the address the occupancy table holds.
type VerifyResult struct {
	BookingID  uint64          `json:"booking_id"`
	Consistent bool            `json:"consistent"`
	Derived    *model.Location `json:"derived,omitempty"`
	Stored     *model.Location `json:"stored,omitempty"`
	Entries    int             `json:"entries"`
}

func locationsEqual(a, b *model.Location) bool {
	if a == nil || b == nil {
		return (a == nil || a.IsZero()) == (b == nil || b.IsZero())
	}
	switch {
	case a.Seat != nil && b.Seat != nil:
		return a.Seat.LayoutID == b.Seat.LayoutID && a.Seat.Number == b.Seat.Number
	case a.Counter != nil && b.Counter != nil:
		return a.Counter.PackageID == b.Counter.PackageID &&
			a.Counter.SlotDate == b.Counter.SlotDate &&
			a.Counter.SlotID == b.Counter.SlotID
	default:
		return a.IsZero() && b.IsZero()
	}
}

// VerifyBooking replays the booking's relocation log in order and
// checks that the final derived address matches the occupancy table.
// Because every occupancy change commits together with its log entry,
// a mismatch means the invariant was broken out of band and is worth
// an operator's attention.
func (e *Engine) VerifyBooking(ctx context.Context, bookingID uint64) (*VerifyResult, error) {
	entries, err := e.audit.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var derived *model.Location
	for i := range entries {
		switch entries[i].Action {
		case model.ActionCancel:
			derived = nil
		default:
			derived = entries[i].New
		}
	}

	var stored *model.Location
	a, err := e.store.FindByBooking(ctx, bookingID)
	if err != nil && !errors.Is(err, repository.ErrAssignmentNotFound) {
		return nil, err
	}
	if a != nil {
		l := a.Location()
		stored = &l
	}

	return &VerifyResult{
		BookingID:  bookingID,
		Consistent: locationsEqual(derived, stored),
		Derived:    derived,
		Stored:     stored,
		Entries:    len(entries),
	}, nil
}
