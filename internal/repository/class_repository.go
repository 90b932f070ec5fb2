package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

// ClassOfferingRepo reads class offerings.  Offerings themselves are
// administered elsewhere; scheduling only needs their identifiers and
// configured seat counts.
type ClassOfferingRepo struct {
	db *sql.DB
}

// NewClassOfferingRepo returns a repo bound to the given database.
func NewClassOfferingRepo(db *sql.DB) *ClassOfferingRepo { return &ClassOfferingRepo{db: db} }

// GetByID loads one class offering; ErrNotFound when absent.
func (r *ClassOfferingRepo) GetByID(ctx context.Context, id uint64) (*model.ClassOffering, error) {
	const q = `SELECT id, facility_enrollment_id, name, max_enrollment, created_at, updated_at
	           FROM class_offerings WHERE id = ?`
	var o model.ClassOffering
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&o.ID, &o.FacilityEnrollmentID, &o.Name, &o.MaxEnrollment, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// AttendeeClassEnrollmentRepo provides CRUD for attendee seats in class
// offerings.
type AttendeeClassEnrollmentRepo struct {
	db *sql.DB
}

// NewAttendeeClassEnrollmentRepo returns a repo bound to the given database.
func NewAttendeeClassEnrollmentRepo(db *sql.DB) *AttendeeClassEnrollmentRepo {
	return &AttendeeClassEnrollmentRepo{db: db}
}

// GetByID loads one attendee class enrollment; ErrNotFound when absent.
func (r *AttendeeClassEnrollmentRepo) GetByID(ctx context.Context, id uint64) (*model.AttendeeClassEnrollment, error) {
	const q = `SELECT id, attendee_id, class_offering_id, attendee_enrollment_id, created_at
	           FROM attendee_class_enrollments WHERE id = ?`
	var e model.AttendeeClassEnrollment
	var parent sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.AttendeeID, &e.ClassOfferingID, &parent, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		v := uint64(parent.Int64)
		e.AttendeeEnrollmentID = &v
	}
	return &e, nil
}

// CreateTx inserts an attendee class enrollment and populates its
// generated ID.  A duplicate (attendee, offering) pair surfaces as
// ErrConflict.
func (r *AttendeeClassEnrollmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.AttendeeClassEnrollment) error {
	const q = `INSERT INTO attendee_class_enrollments (attendee_id, class_offering_id, attendee_enrollment_id) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, e.AttendeeID, e.ClassOfferingID, e.AttendeeEnrollmentID)
	if err != nil {
		if isDuplicateKey(err) {
			return NewScheduleError(ErrConflict, "This attendee is already assigned to this class.")
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

// DeleteTx removes an attendee class enrollment by id.
func (r *AttendeeClassEnrollmentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM attendee_class_enrollments WHERE id = ?`, id)
	return err
}

// FacultyClassEnrollmentRepo provides CRUD for faculty seats in class
// offerings.  Faculty draw from the same seat pool as attendees.
type FacultyClassEnrollmentRepo struct {
	db *sql.DB
}

// NewFacultyClassEnrollmentRepo returns a repo bound to the given database.
func NewFacultyClassEnrollmentRepo(db *sql.DB) *FacultyClassEnrollmentRepo {
	return &FacultyClassEnrollmentRepo{db: db}
}

// GetByID loads one faculty class enrollment; ErrNotFound when absent.
func (r *FacultyClassEnrollmentRepo) GetByID(ctx context.Context, id uint64) (*model.FacultyClassEnrollment, error) {
	const q = `SELECT id, faculty_id, class_offering_id, faculty_enrollment_id, created_at
	           FROM faculty_class_enrollments WHERE id = ?`
	var e model.FacultyClassEnrollment
	var parent sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.FacultyID, &e.ClassOfferingID, &parent, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		v := uint64(parent.Int64)
		e.FacultyEnrollmentID = &v
	}
	return &e, nil
}

// CreateTx inserts a faculty class enrollment and populates its generated ID.
func (r *FacultyClassEnrollmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.FacultyClassEnrollment) error {
	const q = `INSERT INTO faculty_class_enrollments (faculty_id, class_offering_id, faculty_enrollment_id) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, e.FacultyID, e.ClassOfferingID, e.FacultyEnrollmentID)
	if err != nil {
		if isDuplicateKey(err) {
			return NewScheduleError(ErrConflict, "This faculty member is already assigned to this class.")
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

// DeleteTx removes a faculty class enrollment by id.
func (r *FacultyClassEnrollmentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM faculty_class_enrollments WHERE id = ?`, id)
	return err
}
