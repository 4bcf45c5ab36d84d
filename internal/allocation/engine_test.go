package allocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-allocation/internal/clock"
	"github.com/iliyamo/event-seat-allocation/internal/model"
	"github.com/iliyamo/event-seat-allocation/internal/repository"
)

// ---- in-memory fakes -------------------------------------------------

type seatKey struct {
	eventID  uint64
	layoutID uint64
	number   uint32
}

// fakeStore mimics the MySQL assignment table: unique live booking,
// unique seat address, duplicate writes rejected with
// repository.ErrDuplicateAddress.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Assignment
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[uint64]*model.Assignment{}}
}

func copyAssignment(a *model.Assignment) *model.Assignment {
	c := *a
	if a.SlotID != nil {
		v := *a.SlotID
		c.SlotID = &v
	}
	if a.LayoutID != nil {
		v := *a.LayoutID
		c.LayoutID = &v
	}
	if a.RowNum != nil {
		v := *a.RowNum
		c.RowNum = &v
	}
	if a.ColNum != nil {
		v := *a.ColNum
		c.ColNum = &v
	}
	if a.AssignNumber != nil {
		v := *a.AssignNumber
		c.AssignNumber = &v
	}
	if a.SeatLabel != nil {
		v := *a.SeatLabel
		c.SeatLabel = &v
	}
	return &c
}

func (s *fakeStore) seatOf(a *model.Assignment) (seatKey, bool) {
	if a.LayoutID == nil || a.AssignNumber == nil {
		return seatKey{}, false
	}
	return seatKey{eventID: a.EventID, layoutID: *a.LayoutID, number: *a.AssignNumber}, true
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeStore) FindBySeat(_ context.Context, eventID, layoutID uint64, number uint32, _ bool) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := seatKey{eventID: eventID, layoutID: layoutID, number: number}
	for _, a := range s.rows {
		if k, ok := s.seatOf(a); ok && k == want {
			return copyAssignment(a), nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByBooking(_ context.Context, bookingID uint64) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.rows {
		if a.BookingID == bookingID {
			return copyAssignment(a), nil
		}
	}
	return nil, repository.ErrAssignmentNotFound
}

func (s *fakeStore) ListByCounter(_ context.Context, packageID uint64, slotDate string, slotID uint64) ([]model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Assignment
	for _, a := range s.rows {
		if a.LayoutID != nil || a.PackageID != packageID || a.SlotDate != slotDate {
			continue
		}
		sid := uint64(0)
		if a.SlotID != nil {
			sid = *a.SlotID
		}
		if sid == slotID {
			out = append(out, *copyAssignment(a))
		}
	}
	return out, nil
}

func (s *fakeStore) OccupiedNumbers(_ context.Context, eventID, layoutID uint64) (map[uint32]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uint32]uint64{}
	for _, a := range s.rows {
		if k, ok := s.seatOf(a); ok && k.eventID == eventID && k.layoutID == layoutID {
			out[k.number] = a.BookingID
		}
	}
	return out, nil
}

func (s *fakeStore) Create(_ context.Context, a *model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.BookingID == a.BookingID {
			return repository.ErrDuplicateAddress
		}
	}
	if k, ok := s.seatOf(a); ok {
		for _, existing := range s.rows {
			if ek, eok := s.seatOf(existing); eok && ek == k {
				return repository.ErrDuplicateAddress
			}
		}
	}
	s.nextID++
	a.ID = s.nextID
	s.rows[a.ID] = copyAssignment(a)
	return nil
}

func (s *fakeStore) UpdateLocation(_ context.Context, a *model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[a.ID]; !ok {
		return repository.ErrAssignmentNotFound
	}
	if k, ok := s.seatOf(a); ok {
		for id, existing := range s.rows {
			if id == a.ID {
				continue
			}
			if ek, eok := s.seatOf(existing); eok && ek == k {
				return repository.ErrDuplicateAddress
			}
		}
	}
	s.rows[a.ID] = copyAssignment(a)
	return nil
}

func (s *fakeStore) ClearSeat(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return repository.ErrAssignmentNotFound
	}
	a.LayoutID, a.RowNum, a.ColNum, a.AssignNumber, a.SeatLabel = nil, nil, nil, nil, nil
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return repository.ErrAssignmentNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type counterKey struct {
	packageID uint64
	slotDate  string
	slotID    uint64
}

type counterRow struct {
	count    uint32
	capacity uint32
}

type fakeOccupancy struct {
	mu   sync.Mutex
	rows map[counterKey]*counterRow
}

func newFakeOccupancy() *fakeOccupancy {
	return &fakeOccupancy{rows: map[counterKey]*counterRow{}}
}

func (o *fakeOccupancy) Ensure(_ context.Context, packageID uint64, slotDate string, slotID uint64, capacity uint32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := counterKey{packageID, slotDate, slotID}
	if r, ok := o.rows[k]; ok {
		r.capacity = capacity
		return nil
	}
	o.rows[k] = &counterRow{capacity: capacity}
	return nil
}

func (o *fakeOccupancy) Increment(_ context.Context, packageID uint64, slotDate string, slotID uint64, capacity uint32) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, ok := o.rows[counterKey{packageID, slotDate, slotID}]
	if !ok || r.count >= capacity {
		return false, nil
	}
	r.count++
	return true, nil
}

func (o *fakeOccupancy) Decrement(_ context.Context, packageID uint64, slotDate string, slotID uint64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if r, ok := o.rows[counterKey{packageID, slotDate, slotID}]; ok && r.count > 0 {
		r.count--
	}
	return nil
}

func (o *fakeOccupancy) Current(_ context.Context, packageID uint64, slotDate string, slotID uint64) (uint32, uint32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, ok := o.rows[counterKey{packageID, slotDate, slotID}]
	if !ok {
		return 0, 0, repository.ErrNoOccupancyRow
	}
	return r.count, r.capacity, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []model.RelocationLogEntry
}

func (a *fakeAudit) Append(_ context.Context, e *model.RelocationLogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	e.ID = uint64(len(a.entries) + 1)
	a.entries = append(a.entries, *e)
	return nil
}

func (a *fakeAudit) Query(_ context.Context, f model.AuditFilter) ([]model.RelocationLogEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.RelocationLogEntry
	for i := len(a.entries) - 1; i >= 0; i-- {
		e := a.entries[i]
		if f.EventID != 0 && e.EventID != f.EventID {
			continue
		}
		if f.BookingCode != "" && e.BookingCode != f.BookingCode {
			continue
		}
		if f.ActorID != 0 && e.ActorID != f.ActorID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, e)
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (a *fakeAudit) ListByBooking(_ context.Context, bookingID uint64) ([]model.RelocationLogEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.RelocationLogEntry
	for _, e := range a.entries {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *fakeAudit) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

type fakeCatalog struct {
	events   map[uint64]*model.Event
	layouts  map[uint64]*model.TableLayout
	packages map[uint64]*model.Package
	slots    map[uint64]*model.TimeSlot
}

func (c *fakeCatalog) GetEvent(_ context.Context, id uint64) (*model.Event, error) {
	if e, ok := c.events[id]; ok {
		return e, nil
	}
	return nil, repository.ErrEventNotFound
}

func (c *fakeCatalog) GetLayout(_ context.Context, id uint64) (*model.TableLayout, error) {
	if l, ok := c.layouts[id]; ok {
		return l, nil
	}
	return nil, repository.ErrLayoutNotFound
}

func (c *fakeCatalog) ListLayoutsByEvent(_ context.Context, eventID uint64) ([]model.TableLayout, error) {
	var out []model.TableLayout
	for id := uint64(1); id <= uint64(len(c.layouts)+10); id++ {
		if l, ok := c.layouts[id]; ok && l.EventID == eventID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (c *fakeCatalog) GetPackage(_ context.Context, id uint64) (*model.Package, error) {
	if p, ok := c.packages[id]; ok {
		return p, nil
	}
	return nil, repository.ErrPackageNotFound
}

func (c *fakeCatalog) GetSlot(_ context.Context, id uint64) (*model.TimeSlot, error) {
	if s, ok := c.slots[id]; ok {
		return s, nil
	}
	return nil, repository.ErrSlotNotFound
}

type fakeBookings struct {
	rows map[uint64]*model.Booking
}

func (b *fakeBookings) Get(_ context.Context, id uint64) (*model.Booking, error) {
	if r, ok := b.rows[id]; ok {
		return r, nil
	}
	return nil, repository.ErrBookingNotFound
}

// ---- fixture ---------------------------------------------------------

const testDate = "2026-10-04"

type testWorld struct {
	engine    *Engine
	store     *fakeStore
	occupancy *fakeOccupancy
	audit     *fakeAudit
}

// newTestWorld builds a small catalog: event 1 has seat assignment and
// relocation enabled with one 3x4 layout; package 1 is SINGLE, package
// 2 is MULTIPLE with capacity 3. Event 3 has relocation disabled.
func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	capThree := uint32(3)
	catalog := &fakeCatalog{
		events: map[uint64]*model.Event{
			1: {ID: 1, Name: "Full Moon Ceremony", SeatAssignEnabled: true, RelocationEnabled: true},
			2: {ID: 2, Name: "Devotee Day", SeatAssignEnabled: false, RelocationEnabled: true},
			3: {ID: 3, Name: "Closed Session", SeatAssignEnabled: true, RelocationEnabled: false},
		},
		layouts: map[uint64]*model.TableLayout{
			1: {ID: 1, EventID: 1, Label: "A", RowCount: 3, ColCount: 4, StartNumber: 1, Pattern: model.PatternRowMajor},
			2: {ID: 2, EventID: 3, Label: "B", RowCount: 2, ColCount: 2, StartNumber: 1, Pattern: model.PatternRowMajor},
		},
		packages: map[uint64]*model.Package{
			1: {ID: 1, EventID: 1, Name: "Private Table", CapacityMode: model.ModeSingle},
			2: {ID: 2, EventID: 1, Name: "Group Entry", CapacityMode: model.ModeMultiple, Capacity: &capThree},
			3: {ID: 3, EventID: 2, Name: "Day Pass", CapacityMode: model.ModeMultiple, Capacity: &capThree},
			4: {ID: 4, EventID: 3, Name: "Closed Table", CapacityMode: model.ModeSingle},
		},
		slots: map[uint64]*model.TimeSlot{},
	}
	bookings := &fakeBookings{rows: map[uint64]*model.Booking{}}
	for id := uint64(100); id < 130; id++ {
		bookings.rows[id] = &model.Booking{ID: id, Code: "BK-" + time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006") + "-" + string(rune('A'+id-100)), DevoteeName: "Devotee"}
	}
	store := newFakeStore()
	occupancy := newFakeOccupancy()
	audit := &fakeAudit{}
	clk := clock.NewFixed(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	return &testWorld{
		engine:    NewEngine(store, occupancy, audit, catalog, bookings, clk),
		store:     store,
		occupancy: occupancy,
		audit:     audit,
	}
}

func (w *testWorld) assignSeat(t *testing.T, bookingID uint64, number uint32) *model.Assignment {
	t.Helper()
	res, err := w.engine.AssignInitial(context.Background(), AssignInitialInput{
		EventID:   1,
		PackageID: 1,
		SlotDate:  testDate,
		BookingID: bookingID,
		ActorID:   7,
		Seat:      &model.SeatLocation{LayoutID: 1, Number: number},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Assignment)
	return res.Assignment
}

// ---- tests -----------------------------------------------------------

func TestAssignInitialSeatAutoPick(t *testing.T) {
	w := newTestWorld(t)
	res, err := w.engine.AssignInitial(context.Background(), AssignInitialInput{
		EventID:   1,
		PackageID: 1,
		SlotDate:  testDate,
		BookingID: 100,
		ActorID:   7,
	})
	require.NoError(t, err)
	a := res.Assignment
	require.NotNil(t, a.LayoutID)
	require.Equal(t, uint32(1), *a.AssignNumber) // first free cell in layout order
	require.Equal(t, "A-1", *a.SeatLabel)
	require.Len(t, res.Entries, 1)
	require.Equal(t, model.ActionCreate, res.Entries[0].Action)
	require.Nil(t, res.Entries[0].Old)
	require.NotNil(t, res.Entries[0].New)
	require.Equal(t, uint32(1), res.Entries[0].New.Seat.Number)
}

func TestAssignInitialRequestedSeatByRowColumn(t *testing.T) {
	w := newTestWorld(t)
	res, err := w.engine.AssignInitial(context.Background(), AssignInitialInput{
		EventID:   1,
		PackageID: 1,
		SlotDate:  testDate,
		BookingID: 100,
		ActorID:   7,
		Seat:      &model.SeatLocation{LayoutID: 1, Row: 2, Column: 3},
	})
	require.NoError(t, err)
	// row-major 3x4: row 2 col 3 is seat 7
	require.Equal(t, uint32(7), *res.Assignment.AssignNumber)
	require.Equal(t, "A-7", *res.Assignment.SeatLabel)
}

func TestAssignInitialIdempotent(t *testing.T) {
	w := newTestWorld(t)
	first := w.assignSeat(t, 100, 5)
	require.Equal(t, 1, w.audit.size())

	res, err := w.engine.AssignInitial(context.Background(), AssignInitialInput{
		EventID:   1,
		PackageID: 1,
		SlotDate:  testDate,
		BookingID: 100,
		ActorID:   7,
		Seat:      &model.SeatLocation{LayoutID: 1, Number: 5},
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, res.Assignment.ID)
	require.Empty(t, res.Entries)
	require.Equal(t, 1, w.audit.size(), "replay must not add audit entries")
	require.Equal(t, 1, w.store.count())
}

func TestAssignInitialSeatConflict(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)

	_, err := w.engine.AssignInitial(context.Background(), AssignInitialInput{
		EventID:   1,
		PackageID: 1,
		SlotDate:  testDate,
		BookingID: 101,
		ActorID:   7,
		Seat:      &model.SeatLocation{LayoutID: 1, Number: 5},
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, uint64(100), conflict.BookingID)
	require.NotEmpty(t, conflict.BookingCode)
	require.Equal(t, uint32(5), conflict.Location.Seat.Number)
	require.Equal(t, 1, w.store.count(), "conflict must not mutate occupancy")
}

func TestConcurrentSeatContention(t *testing.T) {
	w := newTestWorld(t)
	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = w.engine.AssignInitial(context.Background(), AssignInitialInput{
				EventID:   1,
				PackageID: 1,
				SlotDate:  testDate,
				BookingID: uint64(100 + i),
				ActorID:   7,
				Seat:      &model.SeatLocation{LayoutID: 1, Number: 5},
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
	}
	require.Equal(t, 1, won, "exactly one caller may win the seat")
	require.Equal(t, 1, w.store.count())
	require.Equal(t, 1, w.audit.size())
}

func TestCounterCapacityBound(t *testing.T) {
	w := newTestWorld(t)
	for i := uint64(0); i < 3; i++ {
		res, err := w.engine.AssignInitial(context.Background(), AssignInitialInput{
			EventID:   1,
			PackageID: 2,
			SlotDate:  testDate,
			BookingID: 100 + i,
			ActorID:   7,
		})
		require.NoError(t, err)
		require.Nil(t, res.Assignment.LayoutID)
		require.NotEmpty(t, res.Assignment.Token)
	}

	_, err := w.engine.AssignInitial(context.Background(), AssignInitialInput{
		EventID:   1,
		PackageID: 2,
		SlotDate:  testDate,
		BookingID: 103,
		ActorID:   7,
	})
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, uint32(3), capErr.Capacity)
	require.Equal(t, uint32(3), capErr.Current)
	require.Equal(t, 3, w.store.count())
}

func TestConcurrentCounterContention(t *testing.T) {
	w := newTestWorld(t)
	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = w.engine.AssignInitial(context.Background(), AssignInitialInput{
				EventID:   1,
				PackageID: 2,
				SlotDate:  testDate,
				BookingID: uint64(100 + i),
				ActorID:   7,
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var capErr *CapacityError
		require.ErrorAs(t, err, &capErr)
	}
	require.Equal(t, 3, won, "occupant count must never exceed capacity")
	current, capacity, err := w.occupancy.Current(context.Background(), 2, testDate, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(3), current)
	require.Equal(t, uint32(3), capacity)
}

func TestSingleCounterIdentifiesOccupant(t *testing.T) {
	w := newTestWorld(t)
	// place an unassigned booking on the SINGLE package's counter
	res, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Counter: &model.CounterLocation{PackageID: 1, SlotDate: testDate}},
		Reason:    "initial placement",
		ActorID:   7,
	})
	require.NoError(t, err)
	require.Equal(t, model.ActionCreate, res.Entries[0].Action)

	_, err = w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 101,
		Requested: model.Location{Counter: &model.CounterLocation{PackageID: 1, SlotDate: testDate}},
		Reason:    "initial placement",
		ActorID:   7,
	})
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, uint32(1), capErr.Capacity)
	require.Equal(t, uint64(100), capErr.ExistingBookingID)
	require.NotEmpty(t, capErr.ExistingBookingCode)
}

func TestCancelAndReassign(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)

	res, err := w.engine.Cancel(context.Background(), CancelInput{BookingID: 100, ActorID: 7, Reason: "guest cancelled"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Equal(t, model.ActionCancel, res.Entries[0].Action)
	require.NotNil(t, res.Entries[0].Old)
	require.Nil(t, res.Entries[0].New)
	require.Equal(t, 0, w.store.count())

	// the freed seat is immediately reusable by another booking
	a := w.assignSeat(t, 101, 5)
	require.Equal(t, uint32(5), *a.AssignNumber)
}

func TestCancelRequiresReason(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	_, err := w.engine.Cancel(context.Background(), CancelInput{BookingID: 100, ActorID: 7})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "reason", verr.Field)
}

func TestCancelCounterDecrements(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.engine.AssignInitial(context.Background(), AssignInitialInput{
		EventID: 1, PackageID: 2, SlotDate: testDate, BookingID: 100, ActorID: 7,
	})
	require.NoError(t, err)

	_, err = w.engine.Cancel(context.Background(), CancelInput{BookingID: 100, ActorID: 7, Reason: "no-show"})
	require.NoError(t, err)
	current, _, err := w.occupancy.Current(context.Background(), 2, testDate, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), current)
}

func TestRelocateToFreeSeat(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)

	res, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 1, Number: 9}},
		Reason:    "guest requested aisle",
		ActorID:   7,
	})
	require.NoError(t, err)
	require.Equal(t, uint32(9), *res.Assignment.AssignNumber)
	require.Equal(t, "A-9", *res.Assignment.SeatLabel)
	require.Len(t, res.Entries, 1)
	entry := res.Entries[0]
	require.Equal(t, model.ActionRelocate, entry.Action)
	require.Equal(t, uint32(5), entry.Old.Seat.Number)
	require.Equal(t, uint32(9), entry.New.Seat.Number)
	require.Equal(t, "guest requested aisle", entry.Reason)

	free, err := w.store.FindBySeat(context.Background(), 1, 1, 5, false)
	require.NoError(t, err)
	require.Nil(t, free, "old seat must be freed")
}

func TestRelocateSameSeatIsNoOp(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	res, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 1, Number: 5}},
		Reason:    "same seat",
		ActorID:   7,
	})
	require.NoError(t, err)
	require.Empty(t, res.Entries)
	require.Equal(t, 1, w.audit.size())
}

func TestRelocateConflictLeavesStateUntouched(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	w.assignSeat(t, 101, 9)
	before := w.audit.size()

	_, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 1, Number: 9}},
		Reason:    "move closer",
		ActorID:   7,
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, uint64(101), conflict.BookingID)

	a, err := w.store.FindByBooking(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, uint32(5), *a.AssignNumber, "requester keeps its seat")
	b, err := w.store.FindByBooking(context.Background(), 101)
	require.NoError(t, err)
	require.Equal(t, uint32(9), *b.AssignNumber, "occupant keeps its seat")
	require.Equal(t, before, w.audit.size(), "a rejected conflict writes no entries")
}

func TestRelocateForceEvictsOccupant(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	w.assignSeat(t, 101, 9)

	res, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 1, Number: 9}},
		Reason:    "VIP priority",
		Force:     true,
		ActorID:   7,
	})
	require.NoError(t, err)
	require.Equal(t, uint32(9), *res.Assignment.AssignNumber)
	require.Len(t, res.Entries, 2)

	var evict *model.RelocationLogEntry
	for i := range res.Entries {
		if res.Entries[i].Action == model.ActionCancel {
			evict = &res.Entries[i]
		}
	}
	require.NotNil(t, evict, "eviction must be logged as CANCEL")
	require.Equal(t, uint64(101), evict.BookingID)
	require.NotNil(t, evict.RelatedBookingID)
	require.Equal(t, uint64(100), *evict.RelatedBookingID)

	_, err = w.store.FindByBooking(context.Background(), 101)
	require.ErrorIs(t, err, repository.ErrAssignmentNotFound)
}

func TestSwapExchangesSeats(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	w.assignSeat(t, 101, 9)

	res, err := w.engine.Swap(context.Background(), SwapInput{
		BookingID:      100,
		OtherBookingID: 101,
		Reason:         "family groups split across tables",
		ActorID:        7,
	})
	require.NoError(t, err)
	require.Equal(t, uint32(9), *res.Assignment.AssignNumber)

	a, err := w.store.FindByBooking(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, uint32(9), *a.AssignNumber)
	require.Equal(t, "A-9", *a.SeatLabel)
	b, err := w.store.FindByBooking(context.Background(), 101)
	require.NoError(t, err)
	require.Equal(t, uint32(5), *b.AssignNumber)
	require.Equal(t, "A-5", *b.SeatLabel)

	require.Len(t, res.Entries, 2)
	first, second := res.Entries[0], res.Entries[1]
	require.Equal(t, model.ActionSwap, first.Action)
	require.Equal(t, model.ActionSwap, second.Action)
	require.Equal(t, uint64(101), *first.RelatedBookingID)
	require.Equal(t, uint64(100), *second.RelatedBookingID)
	require.Equal(t, uint32(5), first.Old.Seat.Number)
	require.Equal(t, uint32(9), first.New.Seat.Number)
	require.Equal(t, uint32(9), second.Old.Seat.Number)
	require.Equal(t, uint32(5), second.New.Seat.Number)
}

func TestSwapRequiresOtherAssignment(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	_, err := w.engine.Swap(context.Background(), SwapInput{
		BookingID:      100,
		OtherBookingID: 101,
		Reason:         "swap",
		ActorID:        7,
	})
	require.ErrorIs(t, err, repository.ErrAssignmentNotFound)
}

func TestSwapRejectsCounterCounterpart(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	_, err := w.engine.AssignInitial(context.Background(), AssignInitialInput{
		EventID: 1, PackageID: 2, SlotDate: testDate, BookingID: 101, ActorID: 7,
	})
	require.NoError(t, err)
	auditBefore := w.audit.size()

	var verr *ValidationError
	_, err = w.engine.Swap(context.Background(), SwapInput{
		BookingID:      100,
		OtherBookingID: 101,
		Reason:         "move group to table",
		ActorID:        7,
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "other_booking_id", verr.Field)

	// both addresses and the occupancy counter are untouched
	a, err := w.store.FindByBooking(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, uint32(5), *a.AssignNumber)
	b, err := w.store.FindByBooking(context.Background(), 101)
	require.NoError(t, err)
	require.Nil(t, b.LayoutID)
	current, _, err := w.occupancy.Current(context.Background(), 2, testDate, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), current)
	require.Equal(t, auditBefore, w.audit.size())
}

func TestRelocateSwapRequiresSeatTarget(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	var verr *ValidationError

	_, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Counter: &model.CounterLocation{PackageID: 2, SlotDate: testDate}},
		Reason:    "exchange with day pass",
		Action:    model.ActionSwap,
		ActorID:   7,
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "action", verr.Field)

	_, err = w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Reason:    "exchange with nothing",
		Action:    model.ActionSwap,
		ActorID:   7,
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "action", verr.Field)

	a, err := w.store.FindByBooking(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, uint32(5), *a.AssignNumber)
}

func TestRelocateSwapOntoFreeSeatRejected(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	auditBefore := w.audit.size()

	var verr *ValidationError
	_, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 1, Number: 9}},
		Reason:    "exchange seats",
		Action:    model.ActionSwap,
		ActorID:   7,
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "action", verr.Field)

	a, err := w.store.FindByBooking(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, uint32(5), *a.AssignNumber)
	require.Equal(t, auditBefore, w.audit.size())
}

func TestRelocateUnassignRemovesAddress(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)

	res, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Reason:    "moved offline",
		ActorID:   7,
	})
	require.NoError(t, err)
	require.Nil(t, res.Assignment)
	require.Equal(t, model.ActionCancel, res.Entries[0].Action)
	require.Equal(t, 0, w.store.count())
}

func TestRelocateSeatToCounter(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)

	res, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Counter: &model.CounterLocation{PackageID: 2, SlotDate: testDate}},
		Reason:    "downgrade to group entry",
		ActorID:   7,
	})
	require.NoError(t, err)
	require.Nil(t, res.Assignment.LayoutID)
	require.Equal(t, uint64(2), res.Assignment.PackageID)
	require.NotNil(t, res.Entries[0].Old.Seat)
	require.NotNil(t, res.Entries[0].New.Counter)

	current, _, err := w.occupancy.Current(context.Background(), 2, testDate, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), current)
	free, err := w.store.FindBySeat(context.Background(), 1, 1, 5, false)
	require.NoError(t, err)
	require.Nil(t, free)
}

func TestRelocateDisabledEvent(t *testing.T) {
	w := newTestWorld(t)
	// seed an assignment on event 3 via the create path
	_, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 2, Number: 1}},
		Reason:    "initial placement",
		ActorID:   7,
		PackageID: 4,
		SlotDate:  testDate,
	})
	require.NoError(t, err)

	_, err = w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 2, Number: 2}},
		Reason:    "try to move",
		ActorID:   7,
	})
	require.ErrorIs(t, err, ErrRelocationDisabled)
}

func TestRelocateValidation(t *testing.T) {
	w := newTestWorld(t)
	var verr *ValidationError

	_, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 1, Number: 5}},
		ActorID:   7,
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "reason", verr.Field)

	_, err = w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 1, Number: 5}},
		Reason:    "bad action",
		Action:    "TELEPORT",
		ActorID:   7,
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "action", verr.Field)

	_, err = w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{
			Seat:    &model.SeatLocation{LayoutID: 1, Number: 5},
			Counter: &model.CounterLocation{PackageID: 2, SlotDate: testDate},
		},
		Reason:  "both set",
		ActorID: 7,
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "location", verr.Field)
}

func TestHistoryFilter(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	_, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 1, Number: 9}},
		Reason:    "move",
		ActorID:   7,
	})
	require.NoError(t, err)

	all, err := w.engine.History(context.Background(), model.AuditFilter{EventID: 1})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, model.ActionRelocate, all[0].Action, "most recent first")

	relocations, err := w.engine.History(context.Background(), model.AuditFilter{Action: model.ActionRelocate})
	require.NoError(t, err)
	require.Len(t, relocations, 1)
}

func TestVerifyBookingConsistent(t *testing.T) {
	w := newTestWorld(t)
	w.assignSeat(t, 100, 5)
	_, err := w.engine.Relocate(context.Background(), RelocateInput{
		BookingID: 100,
		Requested: model.Location{Seat: &model.SeatLocation{LayoutID: 1, Number: 9}},
		Reason:    "move",
		ActorID:   7,
	})
	require.NoError(t, err)

	res, err := w.engine.VerifyBooking(context.Background(), 100)
	require.NoError(t, err)
	require.True(t, res.Consistent)
	require.Equal(t, 2, res.Entries)
	require.Equal(t, uint32(9), res.Derived.Seat.Number)

	// cancelled booking derives to unassigned and stays consistent
	_, err = w.engine.Cancel(context.Background(), CancelInput{BookingID: 100, ActorID: 7, Reason: "done"})
	require.NoError(t, err)
	res, err = w.engine.VerifyBooking(context.Background(), 100)
	require.NoError(t, err)
	require.True(t, res.Consistent)
	require.Nil(t, res.Derived)
}

func TestVerifyBookingDetectsDrift(t *testing.T) {
	w := newTestWorld(t)
	a := w.assignSeat(t, 100, 5)

	// simulate an out-of-band deletion that bypassed the engine
	require.NoError(t, w.store.Delete(context.Background(), a.ID))

	res, err := w.engine.VerifyBooking(context.Background(), 100)
	require.NoError(t, err)
	require.False(t, res.Consistent)
	require.NotNil(t, res.Derived)
	require.Nil(t, res.Stored)
}

func TestAvailability(t *testing.T) {
	w := newTestWorld(t)
	current, capacity, err := w.engine.Availability(context.Background(), 2, testDate, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), current)
	require.Equal(t, uint32(3), capacity)

	_, err = w.engine.AssignInitial(context.Background(), AssignInitialInput{
		EventID: 1, PackageID: 2, SlotDate: testDate, BookingID: 100, ActorID: 7,
	})
	require.NoError(t, err)
	current, capacity, err = w.engine.Availability(context.Background(), 2, testDate, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), current)
	require.Equal(t, uint32(3), capacity)
}
