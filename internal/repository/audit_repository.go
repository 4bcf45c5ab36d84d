package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// AuditRepo persists the relocation log: the append-only ledger of
// every occupancy state transition. Append is the only write path this
// package exposes for the table; rows are never updated or deleted.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo constructs an AuditRepo with the given DB handle.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// locationCols flattens a tagged location into the seven nullable
// columns of one side (old_* or new_*) of a log row.
func locationCols(l *model.Location) (layoutID, slotID, packageID any, rowNum, colNum, number any, slotDate any) {
	if l == nil {
		return nil, nil, nil, nil, nil, nil, nil
	}
	if l.Seat != nil {
		return l.Seat.LayoutID, nil, nil, l.Seat.Row, l.Seat.Column, l.Seat.Number, nil
	}
	if l.Counter != nil {
		return nil, l.Counter.SlotID, l.Counter.PackageID, nil, nil, nil, l.Counter.SlotDate
	}
	return nil, nil, nil, nil, nil, nil, nil
}

// locationFromCols rebuilds the tagged location from one side's
// columns. Both sides NULL yields nil (no address).
func locationFromCols(layoutID, slotID, packageID sql.NullInt64, rowNum, colNum, number sql.NullInt32, slotDate sql.NullString) *model.Location {
	if layoutID.Valid {
		return &model.Location{Seat: &model.SeatLocation{
			LayoutID: uint64(layoutID.Int64),
			Row:      uint32(rowNum.Int32),
			Column:   uint32(colNum.Int32),
			Number:   uint32(number.Int32),
		}}
	}
	if packageID.Valid {
		return &model.Location{Counter: &model.CounterLocation{
			PackageID: uint64(packageID.Int64),
			SlotID:    uint64(slotID.Int64),
			SlotDate:  slotDate.String,
		}}
	}
	return nil
}

// Append inserts one immutable log entry and populates its generated
// ID and timestamp. It participates in the ambient transaction so the
// entry commits or rolls back together with the occupancy change it
// records.
func (r *AuditRepo) Append(ctx context.Context, e *model.RelocationLogEntry) error {
	const query = `INSERT INTO relocation_log
	               (event_id, booking_id, booking_code, action,
	                old_layout_id, old_slot_id, old_package_id, old_row_num, old_col_num, old_assign_number, old_slot_date,
	                new_layout_id, new_slot_id, new_package_id, new_row_num, new_col_num, new_assign_number, new_slot_date,
	                reason, actor_id, related_booking_id, created_at)
	               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	oLayout, oSlot, oPkg, oRow, oCol, oNum, oDate := locationCols(e.Old)
	nLayout, nSlot, nPkg, nRow, nCol, nNum, nDate := locationCols(e.New)
	res, err := q(ctx, r.db).ExecContext(ctx, query,
		e.EventID, e.BookingID, e.BookingCode, e.Action,
		oLayout, oSlot, oPkg, oRow, oCol, oNum, oDate,
		nLayout, nSlot, nPkg, nRow, nCol, nNum, nDate,
		e.Reason, e.ActorID, e.RelatedBookingID, e.CreatedAt.Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

const auditColumns = `id, event_id, booking_id, booking_code, action,
	old_layout_id, old_slot_id, old_package_id, old_row_num, old_col_num, old_assign_number, old_slot_date,
	new_layout_id, new_slot_id, new_package_id, new_row_num, new_col_num, new_assign_number, new_slot_date,
	reason, actor_id, related_booking_id, created_at`

func scanAuditEntry(row interface{ Scan(dest ...any) error }) (*model.RelocationLogEntry, error) {
	var e model.RelocationLogEntry
	var oLayout, oSlot, oPkg, nLayout, nSlot, nPkg, related sql.NullInt64
	var oRow, oCol, oNum, nRow, nCol, nNum sql.NullInt32
	var oDate, nDate sql.NullString
	err := row.Scan(&e.ID, &e.EventID, &e.BookingID, &e.BookingCode, &e.Action,
		&oLayout, &oSlot, &oPkg, &oRow, &oCol, &oNum, &oDate,
		&nLayout, &nSlot, &nPkg, &nRow, &nCol, &nNum, &nDate,
		&e.Reason, &e.ActorID, &related, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Old = locationFromCols(oLayout, oSlot, oPkg, oRow, oCol, oNum, oDate)
	e.New = locationFromCols(nLayout, nSlot, nPkg, nRow, nCol, nNum, nDate)
	if related.Valid {
		v := uint64(related.Int64)
		e.RelatedBookingID = &v
	}
	return &e, nil
}

// Query returns log entries matching the filter, most recent first.
// Zero-valued filter fields are skipped; the WHERE clause is built
// only from the dimensions the caller actually set.
func (r *AuditRepo) Query(ctx context.Context, f model.AuditFilter) ([]model.RelocationLogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM relocation_log`
	var conds []string
	var args []any
	if f.EventID != 0 {
		conds = append(conds, "event_id = ?")
		args = append(args, f.EventID)
	}
	if f.BookingCode != "" {
		conds = append(conds, "booking_code = ?")
		args = append(args, f.BookingCode)
	}
	if f.ActorID != 0 {
		conds = append(conds, "actor_id = ?")
		args = append(args, f.ActorID)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, f.Action)
	}
	if f.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.From.UTC().Format("2006-01-02 15:04:05"))
	}
	if f.To != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, f.To.UTC().Format("2006-01-02 15:04:05"))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	limit := pageLimit(f.Limit)
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]model.RelocationLogEntry, 0)
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByBooking returns the full transition history of one booking in
// chronological order. The verifier replays this sequence to derive
// the booking's expected current address.
func (r *AuditRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.RelocationLogEntry, error) {
	query := `SELECT ` + auditColumns + `
	          FROM relocation_log
	          WHERE booking_id = ?
	          ORDER BY created_at, id`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.RelocationLogEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// pageLimit normalizes a caller-supplied page size: unset falls back
// to 100 rows and oversized requests are clamped to the 500-row
// ceiling rather than silently shrunk below what was asked for.
func pageLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 500 {
		return 500
	}
	return limit
}
