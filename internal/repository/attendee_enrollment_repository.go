package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

// AttendeeEnrollmentRepo provides CRUD and occupancy counts for attendee
// enrollments.  The count query is the raw half of the quarters usage
// check; the service layer caches it.
type AttendeeEnrollmentRepo struct {
	db *sql.DB
}

// NewAttendeeEnrollmentRepo returns a repo bound to the given database.
func NewAttendeeEnrollmentRepo(db *sql.DB) *AttendeeEnrollmentRepo {
	return &AttendeeEnrollmentRepo{db: db}
}

const attendeeEnrollmentColumns = "id, attendee_id, faction_enrollment_id, quarters_id, role, name, `start`, `end`, created_at, updated_at"

func scanAttendeeEnrollment(row interface{ Scan(...interface{}) error }) (*model.AttendeeEnrollment, error) {
	var e model.AttendeeEnrollment
	var role sql.NullString
	err := row.Scan(
		&e.ID, &e.AttendeeID, &e.FactionEnrollmentID, &e.QuartersID,
		&role, &e.Name, &e.Start, &e.End, &e.CreatedAt, &e.UpdatedAt,
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

// GetByID loads one attendee enrollment; ErrNotFound when absent.
func (r *AttendeeEnrollmentRepo) GetByID(ctx context.Context, id uint64) (*model.AttendeeEnrollment, error) {
	const q = `SELECT ` + attendeeEnrollmentColumns + ` FROM attendee_enrollments WHERE id = ?`
	e, err := scanAttendeeEnrollment(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// CountByFactionAndQuarters returns how many attendee enrollments occupy
// the given faction enrollment and quarters pair.
func (r *AttendeeEnrollmentRepo) CountByFactionAndQuarters(ctx context.Context, factionEnrollmentID, quartersID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM attendee_enrollments WHERE faction_enrollment_id = ? AND quarters_id = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, factionEnrollmentID, quartersID).Scan(&n)
	return n, err
}

// CreateTx inserts an attendee enrollment and populates its generated ID.
// A duplicate (attendee, faction enrollment, quarters) triple surfaces as
// ErrConflict.
func (r *AttendeeEnrollmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.AttendeeEnrollment) error {
	const q = "INSERT INTO attendee_enrollments (attendee_id, faction_enrollment_id, quarters_id, role, name, `start`, `end`) VALUES (?, ?, ?, ?, ?, ?, ?)"
	res, err := tx.ExecContext(ctx, q,
		e.AttendeeID, e.FactionEnrollmentID, e.QuartersID, e.Role, e.Name, e.Start, e.End)
	if err != nil {
		if isDuplicateKey(err) {
			return NewScheduleError(ErrConflict, "This attendee is already enrolled in these quarters.")
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

// UpdateTx rewrites the mutable fields of an existing attendee enrollment.
func (r *AttendeeEnrollmentRepo) UpdateTx(ctx context.Context, tx *sql.Tx, e *model.AttendeeEnrollment) error {
	const q = "UPDATE attendee_enrollments SET attendee_id = ?, faction_enrollment_id = ?, quarters_id = ?, role = ?, name = ?, `start` = ?, `end` = ? WHERE id = ?"
	_, err := tx.ExecContext(ctx, q,
		e.AttendeeID, e.FactionEnrollmentID, e.QuartersID, e.Role, e.Name, e.Start, e.End, e.ID)
	return err
}

// DeleteTx removes an attendee enrollment by id.
func (r *AttendeeEnrollmentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM attendee_enrollments WHERE id = ?`, id)
	return err
}
