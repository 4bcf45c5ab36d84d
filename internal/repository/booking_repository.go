package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// BookingRepo reads the bookings table. Bookings are created and owned
// by the purchase flow; the allocation core only needs the identifier
// and the denormalized display fields that surface in conflict
// payloads and audit entries.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// Get retrieves a booking by its id.
func (r *BookingRepo) Get(ctx context.Context, id uint64) (*model.Booking, error) {
	const query = `SELECT id, code, devotee_name FROM bookings WHERE id = ?`
	var b model.Booking
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Code, &b.DevoteeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetByCode retrieves a booking by its human-facing booking number.
func (r *BookingRepo) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	const query = `SELECT id, code, devotee_name FROM bookings WHERE code = ?`
	var b model.Booking
	err := q(ctx, r.db).QueryRowContext(ctx, query, code).Scan(&b.ID, &b.Code, &b.DevoteeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}
