package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

// FacultyEnrollmentRepo provides CRUD and occupancy counts for faculty
// enrollments in staff quarters.  The capacity guard counts live rows
// inside the scheduling transaction, so the count has a Tx variant.
type FacultyEnrollmentRepo struct {
	db *sql.DB
}

// NewFacultyEnrollmentRepo returns a repo bound to the given database.
func NewFacultyEnrollmentRepo(db *sql.DB) *FacultyEnrollmentRepo {
	return &FacultyEnrollmentRepo{db: db}
}

const facultyEnrollmentColumns = `id, faculty_id, facility_enrollment_id, quarters_id, role, name, created_at, updated_at`

func scanFacultyEnrollment(row interface{ Scan(...interface{}) error }) (*model.FacultyEnrollment, error) {
	var e model.FacultyEnrollment
	var role sql.NullString
	err := row.Scan(
		&e.ID, &e.FacultyID, &e.FacilityEnrollmentID, &e.QuartersID,
		&role, &e.Name, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if role.Valid {
		v := role.String
		e.Role = &v
	}
	return &e, nil
}

// GetByID loads one faculty enrollment; ErrNotFound when absent.
func (r *FacultyEnrollmentRepo) GetByID(ctx context.Context, id uint64) (*model.FacultyEnrollment, error) {
	const q = `SELECT ` + facultyEnrollmentColumns + ` FROM faculty_enrollments WHERE id = ?`
	e, err := scanFacultyEnrollment(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// CountByFacilityAndQuartersTx counts faculty enrollments for a staff
// quarters pair inside a transaction, optionally excluding one record by
// primary key (zero means no exclusion).  Used when validating an update
// so the record does not count against itself.
func (r *FacultyEnrollmentRepo) CountByFacilityAndQuartersTx(ctx context.Context, tx *sql.Tx, facilityEnrollmentID, quartersID, excludeID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM faculty_enrollments WHERE facility_enrollment_id = ? AND quarters_id = ? AND id <> ?`
	var n int
	err := tx.QueryRowContext(ctx, q, facilityEnrollmentID, quartersID, excludeID).Scan(&n)
	return n, err
}

// CreateTx inserts a faculty enrollment and populates its generated ID.
func (r *FacultyEnrollmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.FacultyEnrollment) error {
	const q = `INSERT INTO faculty_enrollments (faculty_id, facility_enrollment_id, quarters_id, role, name) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		e.FacultyID, e.FacilityEnrollmentID, e.QuartersID, e.Role, e.Name)
	if err != nil {
		if isDuplicateKey(err) {
			return NewScheduleError(ErrConflict, "This faculty member is already enrolled in these quarters.")
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// UpdateTx rewrites the mutable fields of an existing faculty enrollment.
func (r *FacultyEnrollmentRepo) UpdateTx(ctx context.Context, tx *sql.Tx, e *model.FacultyEnrollment) error {
	const q = `UPDATE faculty_enrollments SET faculty_id = ?, facility_enrollment_id = ?, quarters_id = ?, role = ?, name = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		e.FacultyID, e.FacilityEnrollmentID, e.QuartersID, e.Role, e.Name, e.ID)
	return err
}

// DeleteTx removes a faculty enrollment by id.
func (r *FacultyEnrollmentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM faculty_enrollments WHERE id = ?`, id)
	return err
}
