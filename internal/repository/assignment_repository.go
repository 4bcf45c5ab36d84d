package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// AssignmentRepo is the authoritative store of current occupancy: one
// row per address currently held by a booking. The uniqueness
// invariant is enforced at this boundary by two unique keys, not by
// check-then-write: (event_id, layout_id, assign_number) guarantees at
// most one live holder per seat, and booking_id guarantees at most one
// live assignment per booking. Counter-mode rows leave the layout
// columns NULL, which MySQL excludes from the seat key.
type AssignmentRepo struct {
	db *sql.DB
}

// NewAssignmentRepo constructs an AssignmentRepo with the given DB handle.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// WithTx runs fn inside a transaction on this repository's database.
// All repository methods called with the derived context join the same
// transaction, which is how the engine keeps release+occupy+append
// atomic.
func (r *AssignmentRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.db, fn)
}

const assignmentColumns = `id, event_id, package_id, booking_id, slot_date, slot_id,
	layout_id, row_num, col_num, assign_number, seat_label, token, created_at, updated_at`

// scanAssignment reads one assignment row with its nullable columns.
func scanAssignment(row interface{ Scan(dest ...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	var slotDate time.Time
	var slotID, layoutID sql.NullInt64
	var rowNum, colNum, number sql.NullInt32
	var label sql.NullString
	err := row.Scan(&a.ID, &a.EventID, &a.PackageID, &a.BookingID, &slotDate, &slotID,
		&layoutID, &rowNum, &colNum, &number, &label, &a.Token, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.SlotDate = slotDate.Format("2006-01-02")
	if slotID.Valid {
		v := uint64(slotID.Int64)
		a.SlotID = &v
	}
	if layoutID.Valid {
		v := uint64(layoutID.Int64)
		a.LayoutID = &v
	}
	if rowNum.Valid {
		v := uint32(rowNum.Int32)
		a.RowNum = &v
	}
	if colNum.Valid {
		v := uint32(colNum.Int32)
		a.ColNum = &v
	}
	if number.Valid {
		v := uint32(number.Int32)
		a.AssignNumber = &v
	}
	if label.Valid {
		s := label.String
		a.SeatLabel = &s
	}
	return &a, nil
}

// FindBySeat looks up the current occupant of a seat address. It
// returns nil without error when the seat is free. With forUpdate set,
// the matched row is locked for the duration of the surrounding
// transaction so a concurrent relocation targeting the same seat
// blocks until this one commits.
func (r *AssignmentRepo) FindBySeat(ctx context.Context, eventID, layoutID uint64, number uint32, forUpdate bool) (*model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + `
	          FROM assignments
	          WHERE event_id = ? AND layout_id = ? AND assign_number = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	a, err := scanAssignment(q(ctx, r.db).QueryRowContext(ctx, query, eventID, layoutID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// FindByBooking returns the live assignment held by a booking, or
// ErrAssignmentNotFound when the booking is unassigned.
func (r *AssignmentRepo) FindByBooking(ctx context.Context, bookingID uint64) (*model.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE booking_id = ?`
	a, err := scanAssignment(q(ctx, r.db).QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListByCounter returns the occupants of a counter address, oldest
// first. For SINGLE packages the result has at most one element and
// identifies the booking a second reserve attempt collides with.
func (r *AssignmentRepo) ListByCounter(ctx context.Context, packageID uint64, slotDate string, slotID uint64) ([]model.Assignment, error) {
	// slotless packages store slot_id as NULL; zero means "no slot"
	query := `SELECT ` + assignmentColumns + `
	          FROM assignments
	          WHERE package_id = ? AND slot_date = ? AND layout_id IS NULL`
	args := []any{packageID, slotDate}
	if slotID == 0 {
		query += ` AND slot_id IS NULL`
	} else {
		query += ` AND slot_id = ?`
		args = append(args, slotID)
	}
	query += ` ORDER BY created_at`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// OccupiedNumbers returns a map from assign number to holding booking
// for every occupied seat of a layout. The engine subtracts this set
// from the generated grid when auto-picking a free seat or rendering
// the seat map.
func (r *AssignmentRepo) OccupiedNumbers(ctx context.Context, eventID, layoutID uint64) (map[uint32]uint64, error) {
	const query = `SELECT assign_number, booking_id
	               FROM assignments
	               WHERE event_id = ? AND layout_id = ?`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, eventID, layoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occupied := make(map[uint32]uint64)
	for rows.Next() {
		var number uint32
		var bookingID uint64
		if err := rows.Scan(&number, &bookingID); err != nil {
			return nil, err
		}
		occupied[number] = bookingID
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return occupied, nil
}

// Create inserts a new assignment row and populates the generated ID.
// A duplicate-key violation means another writer occupied the address
// (or the booking already holds one) between pre-check and insert, and
// is surfaced as ErrDuplicateAddress so the engine can re-read and
// report a structured conflict.
func (r *AssignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	const query = `INSERT INTO assignments
	               (event_id, package_id, booking_id, slot_date, slot_id, layout_id, row_num, col_num, assign_number, seat_label, token)
	               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := q(ctx, r.db).ExecContext(ctx, query,
		a.EventID, a.PackageID, a.BookingID, a.SlotDate, a.SlotID,
		a.LayoutID, a.RowNum, a.ColNum, a.AssignNumber, a.SeatLabel, a.Token)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateAddress
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// UpdateLocation rewrites the address columns of an existing
// assignment in place, keeping the row (and its created_at) while the
// booking moves. Duplicate-key violations map to ErrDuplicateAddress
// like Create.
func (r *AssignmentRepo) UpdateLocation(ctx context.Context, a *model.Assignment) error {
	const query = `UPDATE assignments
	               SET slot_date = ?, slot_id = ?, layout_id = ?, row_num = ?, col_num = ?,
	                   assign_number = ?, seat_label = ?, updated_at = CURRENT_TIMESTAMP
	               WHERE id = ?`
	res, err := q(ctx, r.db).ExecContext(ctx, query,
		a.SlotDate, a.SlotID, a.LayoutID, a.RowNum, a.ColNum, a.AssignNumber, a.SeatLabel, a.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateAddress
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// ClearSeat nulls the seat columns of an assignment. A swap clears one
// side first so the two subsequent updates never collide with the seat
// key mid-exchange; NULLed rows do not participate in the unique index.
func (r *AssignmentRepo) ClearSeat(ctx context.Context, id uint64) error {
	const query = `UPDATE assignments
	               SET layout_id = NULL, row_num = NULL, col_num = NULL, assign_number = NULL, seat_label = NULL,
	                   updated_at = CURRENT_TIMESTAMP
	               WHERE id = ?`
	res, err := q(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// Delete removes an assignment row, freeing its address.
func (r *AssignmentRepo) Delete(ctx context.Context, id uint64) error {
	const query = `DELETE FROM assignments WHERE id = ?`
	res, err := q(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}
