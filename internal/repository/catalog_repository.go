package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// CatalogRepo reads the event, layout, package and time slot tables.
// These records are authored by the event administration tool and are
// read-only to the allocation core; they are consulted to validate
// assignment requests and to resolve effective capacities.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo constructs a CatalogRepo with the given DB handle.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// GetEvent retrieves an event by its id.
func (r *CatalogRepo) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	const query = `SELECT id, name, seat_assign_enabled, relocation_enabled, created_at, updated_at
	               FROM events WHERE id = ?`
	var e model.Event
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).
		Scan(&e.ID, &e.Name, &e.SeatAssignEnabled, &e.RelocationEnabled, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetLayout retrieves a table layout by its id.
func (r *CatalogRepo) GetLayout(ctx context.Context, id uint64) (*model.TableLayout, error) {
	const query = `SELECT id, event_id, label, row_count, col_count, start_number, pattern, created_at, updated_at
	               FROM table_layouts WHERE id = ?`
	var l model.TableLayout
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).
		Scan(&l.ID, &l.EventID, &l.Label, &l.RowCount, &l.ColCount, &l.StartNumber, &l.Pattern, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLayoutNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListLayoutsByEvent retrieves all layouts of an event in their
// declared order. The allocation engine walks this list when asked to
// auto-pick the first free seat of an event.
func (r *CatalogRepo) ListLayoutsByEvent(ctx context.Context, eventID uint64) ([]model.TableLayout, error) {
	const query = `SELECT id, event_id, label, row_count, col_count, start_number, pattern, created_at, updated_at
	               FROM table_layouts
	               WHERE event_id = ?
	               ORDER BY id`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.TableLayout
	for rows.Next() {
		var l model.TableLayout
		if err := rows.Scan(&l.ID, &l.EventID, &l.Label, &l.RowCount, &l.ColCount,
			&l.StartNumber, &l.Pattern, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPackage retrieves a package by its id.
func (r *CatalogRepo) GetPackage(ctx context.Context, id uint64) (*model.Package, error) {
	const query = `SELECT id, event_id, name, capacity_mode, capacity, created_at, updated_at
	               FROM packages WHERE id = ?`
	var p model.Package
	var capacity sql.NullInt64
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.EventID, &p.Name, &p.CapacityMode, &capacity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	if capacity.Valid {
		c := uint32(capacity.Int64)
		p.Capacity = &c
	}
	return &p, nil
}

// GetSlot retrieves a time slot by its id.
func (r *CatalogRepo) GetSlot(ctx context.Context, id uint64) (*model.TimeSlot, error) {
	const query = `SELECT id, package_id, label, starts_at, ends_at, capacity_override, created_at
	               FROM time_slots WHERE id = ?`
	var s model.TimeSlot
	var override sql.NullInt64
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.PackageID, &s.Label, &s.StartsAt, &s.EndsAt, &override, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if override.Valid {
		o := uint32(override.Int64)
		s.CapacityOverride = &o
	}
	return &s, nil
}
