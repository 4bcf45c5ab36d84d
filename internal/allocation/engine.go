// Package allocation implements the seat and capacity allocation core:
// deciding whether a booking can obtain an address, occupying it
// atomically, relocating or swapping occupants, and recording every
// transition in the append-only relocation log. Handlers translate the
// typed results of this package into HTTP; no occupancy decision lives
// outside it.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-seat-allocation/internal/clock"
	"github.com/iliyamo/event-seat-allocation/internal/layout"
	"github.com/iliyamo/event-seat-allocation/internal/model"
	"github.com/iliyamo/event-seat-allocation/internal/repository"
)

// Store is the authoritative occupancy table. Implementations must
// enforce the uniqueness invariant transactionally: Create and
// UpdateLocation fail with repository.ErrDuplicateAddress when another
// writer holds the address, never silently overwrite.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindBySeat(ctx context.Context, eventID, layoutID uint64, number uint32, forUpdate bool) (*model.Assignment, error)
	FindByBooking(ctx context.Context, bookingID uint64) (*model.Assignment, error)
	ListByCounter(ctx context.Context, packageID uint64, slotDate string, slotID uint64) ([]model.Assignment, error)
	OccupiedNumbers(ctx context.Context, eventID, layoutID uint64) (map[uint32]uint64, error)
	Create(ctx context.Context, a *model.Assignment) error
	UpdateLocation(ctx context.Context, a *model.Assignment) error
	ClearSeat(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

// Occupancy tracks counter-mode occupancy. Increment must be a single
// atomic check-and-increment bounded by capacity.
type Occupancy interface {
	Ensure(ctx context.Context, packageID uint64, slotDate string, slotID uint64, capacity uint32) error
	Increment(ctx context.Context, packageID uint64, slotDate string, slotID uint64, capacity uint32) (bool, error)
	Decrement(ctx context.Context, packageID uint64, slotDate string, slotID uint64) error
	Current(ctx context.Context, packageID uint64, slotDate string, slotID uint64) (uint32, uint32, error)
}

// Audit appends to and reads the relocation log.
type Audit interface {
	Append(ctx context.Context, e *model.RelocationLogEntry) error
	Query(ctx context.Context, f model.AuditFilter) ([]model.RelocationLogEntry, error)
	ListByBooking(ctx context.Context, bookingID uint64) ([]model.RelocationLogEntry, error)
}

// Catalog reads events, layouts, packages and slots.
type Catalog interface {
	GetEvent(ctx context.Context, id uint64) (*model.Event, error)
	GetLayout(ctx context.Context, id uint64) (*model.TableLayout, error)
	ListLayoutsByEvent(ctx context.Context, eventID uint64) ([]model.TableLayout, error)
	GetPackage(ctx context.Context, id uint64) (*model.Package, error)
	GetSlot(ctx context.Context, id uint64) (*model.TimeSlot, error)
}

// Bookings reads booking display data for conflict payloads and audit
// entries.
type Bookings interface {
	Get(ctx context.Context, id uint64) (*model.Booking, error)
}

// Engine orchestrates every occupancy change. A conflict is never
// resolved silently: moving onto an occupied seat requires an explicit
// SWAP action or force flag from the caller, so each double-occupancy
// decision is attributable to a human and lands in the audit log.
type Engine struct {
	store     Store
	occupancy Occupancy
	audit     Audit
	catalog   Catalog
	bookings  Bookings
	clock     clock.Clock
}

// NewEngine constructs an Engine. All dependencies must be non-nil.
func NewEngine(store Store, occupancy Occupancy, audit Audit, catalog Catalog, bookings Bookings, clk clock.Clock) *Engine {
	if store == nil || occupancy == nil || audit == nil || catalog == nil || bookings == nil {
		panic("nil dependency passed to NewEngine")
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Engine{store: store, occupancy: occupancy, audit: audit, catalog: catalog, bookings: bookings, clock: clk}
}

// RelocationResult is the outcome of a committed occupancy change: the
// booking's assignment after the change (nil after an unassign) and
// the audit entries written for it. An idempotent no-op returns the
// unchanged assignment and no entries.
type RelocationResult struct {
	Assignment *model.Assignment
	Entries    []model.RelocationLogEntry
}

func parseSlotDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return &ValidationError{Field: "slot_date", Message: "must be YYYY-MM-DD"}
	}
	return nil
}

// resolveCell pins a requested seat to its grid cell. A request may
// carry the seat number, the row/column pair, or both; whichever is
// present is resolved against the generated grid.
func resolveCell(lay *model.TableLayout, seat *model.SeatLocation) (layout.Cell, error) {
	if seat.Number != 0 {
		cell, err := layout.Lookup(lay, seat.Number)
		if err != nil {
			return layout.Cell{}, &ValidationError{Field: "seat", Message: err.Error()}
		}
		if seat.Row != 0 && (seat.Row != cell.Row || seat.Column != cell.Column) {
			return layout.Cell{}, &ValidationError{Field: "seat", Message: "row/column do not match seat number"}
		}
		return cell, nil
	}
	if seat.Row == 0 || seat.Column == 0 {
		return layout.Cell{}, &ValidationError{Field: "seat", Message: "seat number or row and column required"}
	}
	cells, err := layout.Generate(lay)
	if err != nil {
		return layout.Cell{}, err
	}
	for _, c := range cells {
		if c.Row == seat.Row && c.Column == seat.Column {
			return c, nil
		}
	}
	return layout.Cell{}, &ValidationError{Field: "seat", Message: "row/column outside layout"}
}

// conflictFor builds the structured conflict payload for the occupant
// of an address.
func (e *Engine) conflictFor(ctx context.Context, occ *model.Assignment) error {
	c := &ConflictError{BookingID: occ.BookingID, Location: occ.Location()}
	if b, err := e.bookings.Get(ctx, occ.BookingID); err == nil {
		c.BookingCode = b.Code
		c.DevoteeName = b.DevoteeName
	}
	return c
}

// effectiveCapacity resolves the occupant limit for a counter tuple.
func (e *Engine) effectiveCapacity(ctx context.Context, pkg *model.Package, slotID uint64) (uint32, *model.TimeSlot, error) {
	var slot *model.TimeSlot
	if slotID != 0 {
		s, err := e.catalog.GetSlot(ctx, slotID)
		if err != nil {
			return 0, nil, err
		}
		if s.PackageID != pkg.ID {
			return 0, nil, &ValidationError{Field: "slot_id", Message: "slot does not belong to package"}
		}
		slot = s
	}
	capacity := pkg.EffectiveCapacity(slot)
	if capacity == 0 {
		return 0, nil, &ValidationError{Field: "capacity", Message: "package has no usable capacity"}
	}
	return capacity, slot, nil
}

// reserveCounter performs the atomic check-and-increment for a counter
// tuple and builds the CapacityError when the tuple is full.
func (e *Engine) reserveCounter(ctx context.Context, pkg *model.Package, slotDate string, slotID uint64, capacity uint32) error {
	if err := e.occupancy.Ensure(ctx, pkg.ID, slotDate, slotID, capacity); err != nil {
		return err
	}
	ok, err := e.occupancy.Increment(ctx, pkg.ID, slotDate, slotID, capacity)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	capErr := &CapacityError{PackageID: pkg.ID, SlotID: slotID, SlotDate: slotDate, Capacity: capacity}
	if current, _, err := e.occupancy.Current(ctx, pkg.ID, slotDate, slotID); err == nil {
		capErr.Current = current
	}
	if capacity == 1 {
		// single mode: identify who holds the slot
		occupants, err := e.store.ListByCounter(ctx, pkg.ID, slotDate, slotID)
		if err == nil && len(occupants) > 0 {
			capErr.ExistingBookingID = occupants[0].BookingID
			if b, err := e.bookings.Get(ctx, occupants[0].BookingID); err == nil {
				capErr.ExistingBookingCode = b.Code
			}
		}
	}
	return capErr
}

// AssignInitialInput describes a confirmed booking asking for its
// first address. Seat is optional; when absent on a seat-assigned
// event the engine picks the first free cell in layout order.
type AssignInitialInput struct {
	EventID   uint64
	PackageID uint64
	SlotDate  string
	SlotID    uint64 // zero when the package has no slots
	BookingID uint64
	ActorID   uint64
	Seat      *model.SeatLocation
}

// AssignInitial gives a confirmed booking its initial address: a
// counter occupancy for MULTIPLE packages (and for events without seat
// layouts), or a physical seat otherwise. The capacity check, the
// occupancy write and the CREATE audit entry commit in one
// transaction.
func (e *Engine) AssignInitial(ctx context.Context, in AssignInitialInput) (*RelocationResult, error) {
	if err := parseSlotDate(in.SlotDate); err != nil {
		return nil, err
	}
	booking, err := e.bookings.Get(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	event, err := e.catalog.GetEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	pkg, err := e.catalog.GetPackage(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg.EventID != in.EventID {
		return nil, &ValidationError{Field: "package_id", Message: "package does not belong to event"}
	}
	if in.Seat != nil && !event.SeatAssignEnabled {
		return nil, ErrSeatAssignmentDisabled
	}

	seatMode := event.SeatAssignEnabled && pkg.CapacityMode != model.ModeMultiple
	var result *RelocationResult
	err = e.store.WithTx(ctx, func(txCtx context.Context) error {
		// Idempotency: a booking that already holds an address is
		// returned as-is, with no counter change and no audit entry.
		if existing, err := e.store.FindByBooking(txCtx, in.BookingID); err == nil {
			result = &RelocationResult{Assignment: existing}
			return nil
		} else if !errors.Is(err, repository.ErrAssignmentNotFound) {
			return err
		}

		var a *model.Assignment
		var err error
		if seatMode {
			a, err = e.occupySeat(txCtx, event, pkg, in)
		} else {
			a, err = e.occupyCounter(txCtx, pkg, in)
		}
		if err != nil {
			return err
		}

		loc := a.Location()
		entry := &model.RelocationLogEntry{
			EventID:     in.EventID,
			BookingID:   in.BookingID,
			BookingCode: booking.Code,
			Action:      model.ActionCreate,
			New:         &loc,
			ActorID:     in.ActorID,
			CreatedAt:   e.clock.Now(),
		}
		if err := e.audit.Append(txCtx, entry); err != nil {
			return err
		}
		result = &RelocationResult{Assignment: a, Entries: []model.RelocationLogEntry{*entry}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// occupyCounter reserves one occupancy on the counter tuple and
// creates the assignment row carrying its token.
func (e *Engine) occupyCounter(ctx context.Context, pkg *model.Package, in AssignInitialInput) (*model.Assignment, error) {
	capacity, _, err := e.effectiveCapacity(ctx, pkg, in.SlotID)
	if err != nil {
		return nil, err
	}
	if err := e.reserveCounter(ctx, pkg, in.SlotDate, in.SlotID, capacity); err != nil {
		return nil, err
	}
	a := &model.Assignment{
		EventID:   in.EventID,
		PackageID: in.PackageID,
		BookingID: in.BookingID,
		SlotDate:  in.SlotDate,
		Token:     uuid.NewString(),
	}
	if in.SlotID != 0 {
		sid := in.SlotID
		a.SlotID = &sid
	}
	if err := e.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// occupySeat occupies the requested seat, or walks the event's layouts
// for the first free cell when no seat was requested. The unique key
// on the assignment table is the final arbiter: a duplicate-key error
// on the requested seat is re-read and reported as a conflict, and the
// auto-pick simply moves on to the next cell.
func (e *Engine) occupySeat(ctx context.Context, event *model.Event, pkg *model.Package, in AssignInitialInput) (*model.Assignment, error) {
	newSeatAssignment := func(lay *model.TableLayout, cell layout.Cell) *model.Assignment {
		label := layout.SeatLabel(lay, cell.Number)
		layID := lay.ID
		row, col, num := cell.Row, cell.Column, cell.Number
		a := &model.Assignment{
			EventID:      in.EventID,
			PackageID:    in.PackageID,
			BookingID:    in.BookingID,
			SlotDate:     in.SlotDate,
			LayoutID:     &layID,
			RowNum:       &row,
			ColNum:       &col,
			AssignNumber: &num,
			SeatLabel:    &label,
			Token:        uuid.NewString(),
		}
		if in.SlotID != 0 {
			sid := in.SlotID
			a.SlotID = &sid
		}
		return a
	}

	if in.Seat != nil {
		lay, err := e.catalog.GetLayout(ctx, in.Seat.LayoutID)
		if err != nil {
			return nil, err
		}
		if lay.EventID != in.EventID {
			return nil, &ValidationError{Field: "layout_id", Message: "layout does not belong to event"}
		}
		cell, err := resolveCell(lay, in.Seat)
		if err != nil {
			return nil, err
		}
		occ, err := e.store.FindBySeat(ctx, in.EventID, lay.ID, cell.Number, true)
		if err != nil {
			return nil, err
		}
		if occ != nil {
			return nil, e.conflictFor(ctx, occ)
		}
		a := newSeatAssignment(lay, cell)
		if err := e.store.Create(ctx, a); err != nil {
			if errors.Is(err, repository.ErrDuplicateAddress) {
				if occ, ferr := e.store.FindBySeat(ctx, in.EventID, lay.ID, cell.Number, false); ferr == nil && occ != nil {
					return nil, e.conflictFor(ctx, occ)
				}
			}
			return nil, err
		}
		return a, nil
	}

	// auto-pick: first free cell across the event's layouts
	layouts, err := e.catalog.ListLayoutsByEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	total := uint32(0)
	for i := range layouts {
		lay := &layouts[i]
		cells, err := layout.Generate(lay)
		if err != nil {
			return nil, err
		}
		total += uint32(len(cells))
		occupied, err := e.store.OccupiedNumbers(ctx, in.EventID, lay.ID)
		if err != nil {
			return nil, err
		}
		for _, cell := range cells {
			if _, taken := occupied[cell.Number]; taken {
				continue
			}
			a := newSeatAssignment(lay, cell)
			if err := e.store.Create(ctx, a); err != nil {
				if errors.Is(err, repository.ErrDuplicateAddress) {
					continue // lost the race for this cell, try the next
				}
				return nil, err
			}
			return a, nil
		}
	}
	return nil, &CapacityError{PackageID: pkg.ID, SlotID: in.SlotID, SlotDate: in.SlotDate, Capacity: total, Current: total}
}

// CancelInput identifies the assignment to release.
type CancelInput struct {
	BookingID uint64
	ActorID   uint64
	Reason    string
}

// Cancel releases a booking's address: the assignment row is removed,
// a counter occupancy is decremented, and a CANCEL entry records the
// freed address. Returns repository.ErrAssignmentNotFound when the
// booking holds nothing.
func (e *Engine) Cancel(ctx context.Context, in CancelInput) (*RelocationResult, error) {
	if in.Reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "is required"}
	}
	booking, err := e.bookings.Get(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	var result *RelocationResult
	err = e.store.WithTx(ctx, func(txCtx context.Context) error {
		a, err := e.store.FindByBooking(txCtx, in.BookingID)
		if err != nil {
			return err
		}
		entry, err := e.release(txCtx, a, booking.Code, in.Reason, in.ActorID, nil)
		if err != nil {
			return err
		}
		result = &RelocationResult{Entries: []model.RelocationLogEntry{*entry}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// release frees an assignment's address inside the ambient transaction
// and appends the CANCEL entry. relatedID marks forced evictions with
// the booking that displaced the occupant.
func (e *Engine) release(ctx context.Context, a *model.Assignment, bookingCode, reason string, actorID uint64, relatedID *uint64) (*model.RelocationLogEntry, error) {
	if a.LayoutID == nil {
		slotID := uint64(0)
		if a.SlotID != nil {
			slotID = *a.SlotID
		}
		if err := e.occupancy.Decrement(ctx, a.PackageID, a.SlotDate, slotID); err != nil {
			return nil, err
		}
	}
	if err := e.store.Delete(ctx, a.ID); err != nil {
		return nil, err
	}
	loc := a.Location()
	entry := &model.RelocationLogEntry{
		EventID:          a.EventID,
		BookingID:        a.BookingID,
		BookingCode:      bookingCode,
		Action:           model.ActionCancel,
		Old:              &loc,
		Reason:           reason,
		ActorID:          actorID,
		RelatedBookingID: relatedID,
		CreatedAt:        e.clock.Now(),
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RelocateInput describes an administrative relocation request. When
// the booking is currently unassigned the request is treated as a
// create, and PackageID/SlotDate (and SlotID when applicable) must be
// supplied to establish the booking's context.
type RelocateInput struct {
	BookingID uint64
	Requested model.Location
	Reason    string
	Action    string // defaults to RELOCATE
	Force     bool
	ActorID   uint64

	// context for create-on-relocate of an unassigned booking
	EventID   uint64
	PackageID uint64
	SlotDate  string
	SlotID    uint64
}

// Relocate applies one administrative address change following the
// conflict protocol: an occupied target yields a structured conflict
// unless the caller explicitly chose SWAP or force. All writes — the
// release of the old address, the occupation of the new one, and every
// audit entry — commit atomically; on any failure the pre-call state
// is preserved.
func (e *Engine) Relocate(ctx context.Context, in RelocateInput) (*RelocationResult, error) {
	if in.Action == "" {
		in.Action = model.ActionRelocate
	}
	if !model.ValidAction(in.Action) {
		return nil, &ValidationError{Field: "action", Message: "unknown action type"}
	}
	if in.Reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "is required"}
	}
	if in.Requested.Seat != nil && in.Requested.Counter != nil {
		return nil, &ValidationError{Field: "location", Message: "seat and counter are mutually exclusive"}
	}
	// Swaps are only defined between two seat holders; a counter or
	// empty target would degenerate into a one-way move mislabeled as
	// an exchange.
	if in.Action == model.ActionSwap && in.Requested.Seat == nil {
		return nil, &ValidationError{Field: "action", Message: "swap requires a seat target"}
	}
	booking, err := e.bookings.Get(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}

	var result *RelocationResult
	err = e.store.WithTx(ctx, func(txCtx context.Context) error {
		cur, err := e.store.FindByBooking(txCtx, in.BookingID)
		if err != nil && !errors.Is(err, repository.ErrAssignmentNotFound) {
			return err
		}

		// Unassign request: both address forms absent.
		if in.Requested.IsZero() {
			if cur == nil {
				return repository.ErrAssignmentNotFound
			}
			entry, err := e.release(txCtx, cur, booking.Code, in.Reason, in.ActorID, nil)
			if err != nil {
				return err
			}
			result = &RelocationResult{Entries: []model.RelocationLogEntry{*entry}}
			return nil
		}

		if cur != nil {
			event, err := e.catalog.GetEvent(txCtx, cur.EventID)
			if err != nil {
				return err
			}
			if !event.RelocationEnabled {
				return ErrRelocationDisabled
			}
		}

		if in.Requested.Seat != nil {
			r, err := e.relocateToSeat(txCtx, booking, cur, in)
			if err != nil {
				return err
			}
			result = r
			return nil
		}
		r, err := e.relocateToCounter(txCtx, booking, cur, in)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// relocateToSeat moves (or creates) a booking onto a physical seat,
// applying the swap/force/conflict protocol against the current
// occupant.
func (e *Engine) relocateToSeat(ctx context.Context, booking *model.Booking, cur *model.Assignment, in RelocateInput) (*RelocationResult, error) {
	lay, err := e.catalog.GetLayout(ctx, in.Requested.Seat.LayoutID)
	if err != nil {
		return nil, err
	}
	cell, err := resolveCell(lay, in.Requested.Seat)
	if err != nil {
		return nil, err
	}
	label := layout.SeatLabel(lay, cell.Number)

	occ, err := e.store.FindBySeat(ctx, lay.EventID, lay.ID, cell.Number, true)
	if err != nil {
		return nil, err
	}
	if occ != nil && occ.BookingID == in.BookingID {
		// already holding the requested seat: no-op, no audit entry
		return &RelocationResult{Assignment: occ}, nil
	}

	if in.Action == model.ActionSwap && occ == nil {
		return nil, &ValidationError{Field: "action", Message: "swap target seat is unoccupied"}
	}

	now := e.clock.Now()
	var evictEntry *model.RelocationLogEntry
	if occ != nil {
		switch {
		case in.Action == model.ActionSwap:
			return e.swapSeats(ctx, booking, cur, occ, lay, cell, label, in, now)
		case in.Force:
			occBooking, err := e.bookings.Get(ctx, occ.BookingID)
			if err != nil {
				return nil, err
			}
			related := in.BookingID
			evictReason := fmt.Sprintf("forced eviction for booking %s: %s", booking.Code, in.Reason)
			evictEntry, err = e.release(ctx, occ, occBooking.Code, evictReason, in.ActorID, &related)
			if err != nil {
				return nil, err
			}
		default:
			return nil, e.conflictFor(ctx, occ)
		}
	}

	// target is free (or was just evicted): move or create
	var oldLoc *model.Location
	action := in.Action
	if cur == nil {
		action = model.ActionCreate
		if in.PackageID == 0 || in.SlotDate == "" {
			return nil, &ValidationError{Field: "package_id", Message: "required to assign an unassigned booking"}
		}
		if err := parseSlotDate(in.SlotDate); err != nil {
			return nil, err
		}
		cur = &model.Assignment{
			EventID:   lay.EventID,
			PackageID: in.PackageID,
			BookingID: in.BookingID,
			SlotDate:  in.SlotDate,
			Token:     uuid.NewString(),
		}
		if in.SlotID != 0 {
			sid := in.SlotID
			cur.SlotID = &sid
		}
	} else {
		l := cur.Location()
		oldLoc = &l
		if cur.LayoutID == nil {
			// leaving a counter address frees one occupancy
			slotID := uint64(0)
			if cur.SlotID != nil {
				slotID = *cur.SlotID
			}
			if err := e.occupancy.Decrement(ctx, cur.PackageID, cur.SlotDate, slotID); err != nil {
				return nil, err
			}
		}
	}

	layID := lay.ID
	row, col, num := cell.Row, cell.Column, cell.Number
	cur.LayoutID = &layID
	cur.RowNum = &row
	cur.ColNum = &col
	cur.AssignNumber = &num
	cur.SeatLabel = &label

	if cur.ID == 0 {
		err = e.store.Create(ctx, cur)
	} else {
		err = e.store.UpdateLocation(ctx, cur)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateAddress) {
			if occ, ferr := e.store.FindBySeat(ctx, lay.EventID, lay.ID, cell.Number, false); ferr == nil && occ != nil {
				return nil, e.conflictFor(ctx, occ)
			}
		}
		return nil, err
	}

	newLoc := cur.Location()
	entry := &model.RelocationLogEntry{
		EventID:     cur.EventID,
		BookingID:   in.BookingID,
		BookingCode: booking.Code,
		Action:      action,
		Old:         oldLoc,
		New:         &newLoc,
		Reason:      in.Reason,
		ActorID:     in.ActorID,
		CreatedAt:   now,
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		return nil, err
	}
	res := &RelocationResult{Assignment: cur, Entries: []model.RelocationLogEntry{*entry}}
	if evictEntry != nil {
		res.Entries = append(res.Entries, *evictEntry)
	}
	return res, nil
}

// swapSeats atomically exchanges the seats of two bookings. One side
// is cleared first so the unique seat key is never violated
// mid-exchange; the whole sequence runs inside the caller's
// transaction and rolls back as a unit.
func (e *Engine) swapSeats(ctx context.Context, booking *model.Booking, cur, occ *model.Assignment, lay *model.TableLayout, cell layout.Cell, label string, in RelocateInput, now time.Time) (*RelocationResult, error) {
	if cur == nil {
		return nil, &ValidationError{Field: "action", Message: "swap requires the booking to hold an assignment"}
	}
	if cur.LayoutID == nil || occ.LayoutID == nil {
		return nil, &ValidationError{Field: "action", Message: "swap requires both bookings to hold seats"}
	}
	occBooking, err := e.bookings.Get(ctx, occ.BookingID)
	if err != nil {
		return nil, err
	}

	curOld := cur.Location()
	occOld := occ.Location()
	oldLayID, oldRow, oldCol, oldNum := *cur.LayoutID, *cur.RowNum, *cur.ColNum, *cur.AssignNumber
	oldLabel := *cur.SeatLabel

	// free cur's seat, move occ onto it, then take occ's old seat
	if err := e.store.ClearSeat(ctx, cur.ID); err != nil {
		return nil, err
	}
	occ.LayoutID, occ.RowNum, occ.ColNum, occ.AssignNumber, occ.SeatLabel =
		&oldLayID, &oldRow, &oldCol, &oldNum, &oldLabel
	if err := e.store.UpdateLocation(ctx, occ); err != nil {
		return nil, err
	}
	layID := lay.ID
	row, col, num := cell.Row, cell.Column, cell.Number
	cur.LayoutID, cur.RowNum, cur.ColNum, cur.AssignNumber, cur.SeatLabel = &layID, &row, &col, &num, &label
	if err := e.store.UpdateLocation(ctx, cur); err != nil {
		return nil, err
	}

	curID, occID := in.BookingID, occ.BookingID
	curNew := cur.Location()
	occNew := occ.Location()
	entries := []*model.RelocationLogEntry{
		{
			EventID: cur.EventID, BookingID: curID, BookingCode: booking.Code,
			Action: model.ActionSwap, Old: &curOld, New: &curNew,
			Reason: in.Reason, ActorID: in.ActorID, RelatedBookingID: &occID, CreatedAt: now,
		},
		{
			EventID: occ.EventID, BookingID: occID, BookingCode: occBooking.Code,
			Action: model.ActionSwap, Old: &occOld, New: &occNew,
			Reason: in.Reason, ActorID: in.ActorID, RelatedBookingID: &curID, CreatedAt: now,
		},
	}
	result := &RelocationResult{Assignment: cur}
	for _, entry := range entries {
		if err := e.audit.Append(ctx, entry); err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, *entry)
	}
	return result, nil
}

// relocateToCounter moves (or creates) a booking onto a counter
// address. Full tuples surface as CapacityError; the occupant of a
// full SINGLE tuple is identified so the admin can decide.
func (e *Engine) relocateToCounter(ctx context.Context, booking *model.Booking, cur *model.Assignment, in RelocateInput) (*RelocationResult, error) {
	target := in.Requested.Counter
	if err := parseSlotDate(target.SlotDate); err != nil {
		return nil, err
	}
	pkg, err := e.catalog.GetPackage(ctx, target.PackageID)
	if err != nil {
		return nil, err
	}
	capacity, _, err := e.effectiveCapacity(ctx, pkg, target.SlotID)
	if err != nil {
		return nil, err
	}

	// no-op when already on the requested tuple
	if cur != nil && cur.LayoutID == nil && cur.PackageID == target.PackageID && cur.SlotDate == target.SlotDate {
		curSlot := uint64(0)
		if cur.SlotID != nil {
			curSlot = *cur.SlotID
		}
		if curSlot == target.SlotID {
			return &RelocationResult{Assignment: cur}, nil
		}
	}

	if err := e.reserveCounter(ctx, pkg, target.SlotDate, target.SlotID, capacity); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	var oldLoc *model.Location
	action := in.Action
	if cur == nil {
		action = model.ActionCreate
		cur = &model.Assignment{
			EventID:   pkg.EventID,
			BookingID: in.BookingID,
			Token:     uuid.NewString(),
		}
	} else {
		l := cur.Location()
		oldLoc = &l
		if cur.LayoutID == nil {
			slotID := uint64(0)
			if cur.SlotID != nil {
				slotID = *cur.SlotID
			}
			if err := e.occupancy.Decrement(ctx, cur.PackageID, cur.SlotDate, slotID); err != nil {
				return nil, err
			}
		}
	}

	cur.PackageID = target.PackageID
	cur.SlotDate = target.SlotDate
	cur.LayoutID, cur.RowNum, cur.ColNum, cur.AssignNumber, cur.SeatLabel = nil, nil, nil, nil, nil
	cur.SlotID = nil
	if target.SlotID != 0 {
		sid := target.SlotID
		cur.SlotID = &sid
	}

	if cur.ID == 0 {
		err = e.store.Create(ctx, cur)
	} else {
		err = e.store.UpdateLocation(ctx, cur)
	}
	if err != nil {
		return nil, err
	}

	newLoc := cur.Location()
	entry := &model.RelocationLogEntry{
		EventID:     cur.EventID,
		BookingID:   in.BookingID,
		BookingCode: booking.Code,
		Action:      action,
		Old:         oldLoc,
		New:         &newLoc,
		Reason:      in.Reason,
		ActorID:     in.ActorID,
		CreatedAt:   now,
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		return nil, err
	}
	return &RelocationResult{Assignment: cur, Entries: []model.RelocationLogEntry{*entry}}, nil
}

// SwapInput names the two bookings whose addresses exchange.
type SwapInput struct {
	BookingID      uint64
	OtherBookingID uint64
	Reason         string
	ActorID        uint64
}

// Swap exchanges the seats of two seat-holding bookings atomically,
// writing one SWAP entry per booking with each referencing the other.
func (e *Engine) Swap(ctx context.Context, in SwapInput) (*RelocationResult, error) {
	if in.BookingID == in.OtherBookingID {
		return nil, &ValidationError{Field: "other_booking_id", Message: "cannot swap a booking with itself"}
	}
	other, err := e.store.FindByBooking(ctx, in.OtherBookingID)
	if err != nil {
		return nil, err
	}
	if other.LayoutID == nil {
		return nil, &ValidationError{Field: "other_booking_id", Message: "swap requires both bookings to hold seats"}
	}
	target := other.Location()
	return e.Relocate(ctx, RelocateInput{
		BookingID: in.BookingID,
		Requested: target,
		Reason:    in.Reason,
		Action:    model.ActionSwap,
		ActorID:   in.ActorID,
	})
}

// History returns relocation log entries matching the filter, most
// recent first. This is the feed the reporting and export
// collaborators consume.
func (e *Engine) History(ctx context.Context, f model.AuditFilter) ([]model.RelocationLogEntry, error) {
	return e.audit.Query(ctx, f)
}

// Availability reports the live occupant count against the effective
// capacity of a counter tuple.
func (e *Engine) Availability(ctx context.Context, packageID uint64, slotDate string, slotID uint64) (current, capacity uint32, err error) {
	if err := parseSlotDate(slotDate); err != nil {
		return 0, 0, err
	}
	pkg, err := e.catalog.GetPackage(ctx, packageID)
	if err != nil {
		return 0, 0, err
	}
	capacity, _, err = e.effectiveCapacity(ctx, pkg, slotID)
	if err != nil {
		return 0, 0, err
	}
	current, _, err = e.occupancy.Current(ctx, packageID, slotDate, slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNoOccupancyRow) {
			return 0, capacity, nil
		}
		return 0, 0, err
	}
	return current, capacity, nil
}
