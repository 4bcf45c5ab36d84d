package repository

import (
	"context"
	"database/sql"
	"errors"
)

// OccupancyRepo tracks counter-mode occupancy per (package, date,
// slot). The reserve path is a single atomic check-and-increment: the
// UPDATE only matches while occupant_count is below capacity, so under
// concurrent reserves the database serializes the row and exactly
// capacity increments can ever succeed. There is no read-check-write
// window to race through.
type OccupancyRepo struct {
	db *sql.DB
}

// NewOccupancyRepo constructs an OccupancyRepo with the given DB handle.
func NewOccupancyRepo(db *sql.DB) *OccupancyRepo {
	return &OccupancyRepo{db: db}
}

// Ensure creates the counter row for a tuple if it does not exist yet
// and refreshes the declared capacity when it does. Idempotent.
func (r *OccupancyRepo) Ensure(ctx context.Context, packageID uint64, slotDate string, slotID uint64, capacity uint32) error {
	const query = `INSERT INTO slot_occupancy (package_id, slot_date, slot_id, occupant_count, capacity)
	               VALUES (?, ?, ?, 0, ?)
	               ON DUPLICATE KEY UPDATE capacity = VALUES(capacity)`
	_, err := q(ctx, r.db).ExecContext(ctx, query, packageID, slotDate, slotID, capacity)
	return err
}

// Increment attempts to take one occupancy. It returns true when the
// counter was below capacity and has been incremented, false when the
// tuple is full. The capacity bound is re-stated in the WHERE clause
// rather than trusted from the stored column so a stale row can never
// admit more occupants than the caller's effective capacity.
func (r *OccupancyRepo) Increment(ctx context.Context, packageID uint64, slotDate string, slotID uint64, capacity uint32) (bool, error) {
	const query = `UPDATE slot_occupancy
	               SET occupant_count = occupant_count + 1
	               WHERE package_id = ? AND slot_date = ? AND slot_id = ? AND occupant_count < ?`
	res, err := q(ctx, r.db).ExecContext(ctx, query, packageID, slotDate, slotID, capacity)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Decrement releases one occupancy, used on cancellation and when a
// booking relocates away from a counter address. The guard keeps the
// counter from ever going below zero.
func (r *OccupancyRepo) Decrement(ctx context.Context, packageID uint64, slotDate string, slotID uint64) error {
	const query = `UPDATE slot_occupancy
	               SET occupant_count = occupant_count - 1
	               WHERE package_id = ? AND slot_date = ? AND slot_id = ? AND occupant_count > 0`
	_, err := q(ctx, r.db).ExecContext(ctx, query, packageID, slotDate, slotID)
	return err
}

// Current returns the live occupant count and declared capacity of a
// tuple. ErrNoOccupancyRow signals a tuple that was never reserved
// against; callers usually treat that as zero occupancy.
func (r *OccupancyRepo) Current(ctx context.Context, packageID uint64, slotDate string, slotID uint64) (uint32, uint32, error) {
	const query = `SELECT occupant_count, capacity
	               FROM slot_occupancy
	               WHERE package_id = ? AND slot_date = ? AND slot_id = ?`
	var count, capacity uint32
	err := q(ctx, r.db).QueryRowContext(ctx, query, packageID, slotDate, slotID).Scan(&count, &capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrNoOccupancyRow
		}
		return 0, 0, err
	}
	return count, capacity, nil
}
