package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

// AvailabilityRepo manages the availability ledger: one row per resource
// instance holding capacity, reserved and on-hold counters.  All mutating
// methods operate on a row previously locked through
// GetOrCreateForUpdateTx so that concurrent reservation attempts on the
// same resource serialize at the database.  Attempts on different
// resources lock different rows and do not block each other.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns an AvailabilityRepo bound to the given database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

const availabilityColumns = `id, kind, facility_enrollment_id, week_id, quarters_id, class_offering_id, capacity, reserved, on_hold, updated_at`

// scanAvailability scans one ledger row from any row scanner.
func scanAvailability(row interface{ Scan(...interface{}) error }) (*model.Availability, error) {
	var a model.Availability
	var kind string
	err := row.Scan(
		&a.ID, &kind, &a.Key.FacilityEnrollmentID, &a.Key.WeekID,
		&a.Key.QuartersID, &a.Key.ClassOfferingID,
		&a.Capacity, &a.Reserved, &a.OnHold, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Key.Kind = model.ResourceKind(kind)
	return &a, nil
}

// selectForUpdateTx reads the ledger row for a key with a write-intent
// lock.  Key components a kind does not use are stored as zero, never
// NULL: MySQL unique indexes admit any number of NULLs, so only
// zero-filled columns let uq_availability_resource hold the one-row-per-
// resource invariant against concurrent inserts.
func (r *AvailabilityRepo) selectForUpdateTx(ctx context.Context, tx *sql.Tx, key model.ResourceKey) (*model.Availability, error) {
	const q = `SELECT ` + availabilityColumns + `
	           FROM availability
	           WHERE kind = ? AND facility_enrollment_id = ? AND week_id = ?
	             AND quarters_id = ? AND class_offering_id = ?
	           FOR UPDATE`
	row := tx.QueryRowContext(ctx, q,
		string(key.Kind), key.FacilityEnrollmentID, key.WeekID,
		key.QuartersID, key.ClassOfferingID,
	)
	return scanAvailability(row)
}

// GetOrCreateForUpdateTx returns the ledger entry for the given resource
// key, creating it with the supplied capacity on first use, and locks the
// row for the remainder of the transaction.  A concurrent insert of the
// same key loses the unique-key race and falls back to locking the row
// the winner created.
func (r *AvailabilityRepo) GetOrCreateForUpdateTx(ctx context.Context, tx *sql.Tx, key model.ResourceKey, capacity uint32) (*model.Availability, error) {
	a, err := r.selectForUpdateTx(ctx, tx, key)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	const ins = `INSERT INTO availability
	             (kind, facility_enrollment_id, week_id, quarters_id, class_offering_id, capacity, reserved, on_hold)
	             VALUES (?, ?, ?, ?, ?, ?, 0, 0)`
	res, err := tx.ExecContext(ctx, ins,
		string(key.Kind), key.FacilityEnrollmentID, key.WeekID,
		key.QuartersID, key.ClassOfferingID, capacity,
	)
	if err != nil {
		if isDuplicateKey(err) {
			// lost the insert race; the winner's row exists now
			return r.selectForUpdateTx(ctx, tx, key)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Availability{ID: uint64(id), Key: key, Capacity: capacity}, nil
}

// GetByKey reads a ledger entry without locking.  It is used by read-only
// availability lookups; scheduling paths must use the locked variant.
// Returns ErrNotFound when no entry exists yet.
func (r *AvailabilityRepo) GetByKey(ctx context.Context, key model.ResourceKey) (*model.Availability, error) {
	const q = `SELECT ` + availabilityColumns + `
	           FROM availability
	           WHERE kind = ? AND facility_enrollment_id = ? AND week_id = ?
	             AND quarters_id = ? AND class_offering_id = ?`
	row := r.db.QueryRowContext(ctx, q,
		string(key.Kind), key.FacilityEnrollmentID, key.WeekID,
		key.QuartersID, key.ClassOfferingID,
	)
	a, err := scanAvailability(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// writeCountersTx persists the in-memory counters of a previously locked
// entry.
func (r *AvailabilityRepo) writeCountersTx(ctx context.Context, tx *sql.Tx, a *model.Availability) error {
	const q = `UPDATE availability SET capacity = ?, reserved = ?, on_hold = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, a.Capacity, a.Reserved, a.OnHold, a.ID)
	return err
}

// ReserveTx increments the reserved counter by amount.  It fails with
// ErrCapacityExceeded when the increment would pass capacity, leaving the
// row untouched.  Amounts below one are ignored.
func (r *AvailabilityRepo) ReserveTx(ctx context.Context, tx *sql.Tx, a *model.Availability, amount uint32) error {
	if amount == 0 {
		return nil
	}
	if a.Reserved+amount > a.Capacity {
		return NewScheduleError(ErrCapacityExceeded, "Capacity exceeded for this resource.")
	}
	a.Reserved += amount
	return r.writeCountersTx(ctx, tx, a)
}

// ReleaseTx decrements the reserved counter by amount, flooring at zero.
// Releasing past zero is a no-op rather than an error so compensating
// releases in partial-failure paths and duplicate drops stay safe.
func (r *AvailabilityRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, a *model.Availability, amount uint32) error {
	if amount == 0 {
		return nil
	}
	next := uint32(0)
	if a.Reserved > amount {
		next = a.Reserved - amount
	}
	if next == a.Reserved {
		return nil
	}
	a.Reserved = next
	return r.writeCountersTx(ctx, tx, a)
}

// ReserveFullTx takes the whole capacity of a week-quarters entry in one
// step.  It fails with ErrAlreadyReserved when the entry is already at
// capacity, which covers both an existing hold and zero-capacity quarters.
func (r *AvailabilityRepo) ReserveFullTx(ctx context.Context, tx *sql.Tx, a *model.Availability) error {
	if a.IsReserved() {
		return NewScheduleError(ErrAlreadyReserved, "Selected quarters are already reserved for this week.")
	}
	a.Reserved = a.Capacity
	return r.writeCountersTx(ctx, tx, a)
}

// ReleaseFullTx clears the reserved counter of a week-quarters entry.
// Releasing an already free entry is a no-op.
func (r *AvailabilityRepo) ReleaseFullTx(ctx context.Context, tx *sql.Tx, a *model.Availability) error {
	if a.Reserved == 0 {
		return nil
	}
	a.Reserved = 0
	return r.writeCountersTx(ctx, tx, a)
}

// EnsureCapacityTx synchronizes a class-seat entry's capacity with the
// offering's configured maximum.  Non-positive capacities are rejected
// with ErrInvalidCapacity.  Lowering capacity below the current reserved
// count clamps reserved down silently; the shrink is an administrative
// correction and the extra enrollments are left to be resolved manually.
func (r *AvailabilityRepo) EnsureCapacityTx(ctx context.Context, tx *sql.Tx, a *model.Availability, capacity uint32) error {
	if capacity == 0 {
		return NewScheduleError(ErrInvalidCapacity, "Capacity must be greater than zero.")
	}
	if a.Capacity == capacity {
		return nil
	}
	a.Capacity = capacity
	if a.Reserved > a.Capacity {
		a.Reserved = a.Capacity
	}
	return r.writeCountersTx(ctx, tx, a)
}
