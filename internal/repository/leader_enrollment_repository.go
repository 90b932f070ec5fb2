package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

// LeaderEnrollmentRepo provides CRUD and occupancy counts for leader
// enrollments.  Leaders occupy the same faction-quarters pool as
// attendees, so the count query mirrors the attendee one.
type LeaderEnrollmentRepo struct {
	db *sql.DB
}

// NewLeaderEnrollmentRepo returns a repo bound to the given database.
func NewLeaderEnrollmentRepo(db *sql.DB) *LeaderEnrollmentRepo {
	return &LeaderEnrollmentRepo{db: db}
}

const leaderEnrollmentColumns = "id, leader_id, faction_enrollment_id, quarters_id, role, name, `start`, `end`, created_at, updated_at"

func scanLeaderEnrollment(row interface{ Scan(...interface{}) error }) (*model.LeaderEnrollment, error) {
	var e model.LeaderEnrollment
	var role sql.NullString
	err := row.Scan(
		&e.ID, &e.LeaderID, &e.FactionEnrollmentID, &e.QuartersID,
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

// GetByID loads one leader enrollment; ErrNotFound when absent.
func (r *LeaderEnrollmentRepo) GetByID(ctx context.Context, id uint64) (*model.LeaderEnrollment, error) {
	const q = `SELECT ` + leaderEnrollmentColumns + ` FROM leader_enrollments WHERE id = ?`
	e, err := scanLeaderEnrollment(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// CountByFactionAndQuarters returns how many leader enrollments occupy
// the given faction enrollment and quarters pair.
func (r *LeaderEnrollmentRepo) CountByFactionAndQuarters(ctx context.Context, factionEnrollmentID, quartersID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM leader_enrollments WHERE faction_enrollment_id = ? AND quarters_id = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, factionEnrollmentID, quartersID).Scan(&n)
	return n, err
}

// CreateTx inserts a leader enrollment and populates its generated ID.
func (r *LeaderEnrollmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.LeaderEnrollment) error {
	const q = "INSERT INTO leader_enrollments (leader_id, faction_enrollment_id, quarters_id, role, name, `start`, `end`) VALUES (?, ?, ?, ?, ?, ?, ?)"
	res, err := tx.ExecContext(ctx, q,
		e.LeaderID, e.FactionEnrollmentID, e.QuartersID, e.Role, e.Name, e.Start, e.End)
	if err != nil {
		if isDuplicateKey(err) {
			return NewScheduleError(ErrConflict, "This leader is already enrolled in these quarters.")
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

// UpdateTx rewrites the mutable fields of an existing leader enrollment.
func (r *LeaderEnrollmentRepo) UpdateTx(ctx context.Context, tx *sql.Tx, e *model.LeaderEnrollment) error {
	const q = "UPDATE leader_enrollments SET leader_id = ?, faction_enrollment_id = ?, quarters_id = ?, role = ?, name = ?, `start` = ?, `end` = ? WHERE id = ?"
	_, err := tx.ExecContext(ctx, q,
		e.LeaderID, e.FactionEnrollmentID, e.QuartersID, e.Role, e.Name, e.Start, e.End, e.ID)
	return err
}

// DeleteTx removes a leader enrollment by id.
func (r *LeaderEnrollmentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM leader_enrollments WHERE id = ?`, id)
	return err
}
