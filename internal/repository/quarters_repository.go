package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

// QuartersRepo reads lodging units.  Quarters administration lives
// outside this service; scheduling needs identifiers and capacities.
type QuartersRepo struct {
	db *sql.DB
}

// NewQuartersRepo returns a repo bound to the given database.
func NewQuartersRepo(db *sql.DB) *QuartersRepo { return &QuartersRepo{db: db} }

// GetByID loads one quarters record; ErrNotFound when absent.
func (r *QuartersRepo) GetByID(ctx context.Context, id uint64) (*model.Quarters, error) {
	const q = `SELECT id, facility_id, name, capacity, created_at, updated_at FROM quarters WHERE id = ?`
	var u model.Quarters
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.FacilityID, &u.Name, &u.Capacity, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
