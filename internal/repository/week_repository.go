package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

// WeekRepo reads week records for date validation and display labels.
type WeekRepo struct {
	db *sql.DB
}

// NewWeekRepo returns a repo bound to the given database.
func NewWeekRepo(db *sql.DB) *WeekRepo { return &WeekRepo{db: db} }

// GetByID loads one week; ErrNotFound when absent.
func (r *WeekRepo) GetByID(ctx context.Context, id uint64) (*model.Week, error) {
	const q = "SELECT id, name, `start`, `end` FROM weeks WHERE id = ?"
	var w model.Week
	err := r.db.QueryRowContext(ctx, q, id).Scan(&w.ID, &w.Name, &w.Start, &w.End)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
