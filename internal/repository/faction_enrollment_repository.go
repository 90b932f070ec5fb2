package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

// FactionEnrollmentRepo provides CRUD operations for faction enrollments,
// the records that drive exclusive week-quarters reservations.  Mutations
// run inside the scheduling transaction so the ledger and the record
// commit or roll back together.
type FactionEnrollmentRepo struct {
	db *sql.DB
}

// NewFactionEnrollmentRepo returns a repo bound to the given database.
func NewFactionEnrollmentRepo(db *sql.DB) *FactionEnrollmentRepo {
	return &FactionEnrollmentRepo{db: db}
}

const factionEnrollmentColumns = "id, faction_id, facility_enrollment_id, week_id, quarters_id, name, `start`, `end`, created_at, updated_at"

func scanFactionEnrollment(row interface{ Scan(...interface{}) error }) (*model.FactionEnrollment, error) {
	var f model.FactionEnrollment
	err := row.Scan(
		&f.ID, &f.FactionID, &f.FacilityEnrollmentID, &f.WeekID, &f.QuartersID,
		&f.Name, &f.Start, &f.End, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID loads one faction enrollment.  Returns ErrNotFound when the id
// does not exist.
func (r *FactionEnrollmentRepo) GetByID(ctx context.Context, id uint64) (*model.FactionEnrollment, error) {
	const q = `SELECT ` + factionEnrollmentColumns + ` FROM faction_enrollments WHERE id = ?`
	f, err := scanFactionEnrollment(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// CreateTx inserts a faction enrollment and populates its generated ID.
func (r *FactionEnrollmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *model.FactionEnrollment) error {
	const q = "INSERT INTO faction_enrollments (faction_id, facility_enrollment_id, week_id, quarters_id, name, `start`, `end`) VALUES (?, ?, ?, ?, ?, ?, ?)"
	res, err := tx.ExecContext(ctx, q,
		f.FactionID, f.FacilityEnrollmentID, f.WeekID, f.QuartersID, f.Name, f.Start, f.End)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// UpdateTx rewrites the mutable fields of an existing faction enrollment.
func (r *FactionEnrollmentRepo) UpdateTx(ctx context.Context, tx *sql.Tx, f *model.FactionEnrollment) error {
	const q = "UPDATE faction_enrollments SET faction_id = ?, facility_enrollment_id = ?, week_id = ?, quarters_id = ?, name = ?, `start` = ?, `end` = ? WHERE id = ?"
	_, err := tx.ExecContext(ctx, q,
		f.FactionID, f.FacilityEnrollmentID, f.WeekID, f.QuartersID, f.Name, f.Start, f.End, f.ID)
	return err
}

// DeleteTx removes a faction enrollment by id.
func (r *FactionEnrollmentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM faction_enrollments WHERE id = ?`, id)
	return err
}
