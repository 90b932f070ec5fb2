package service

import (
	"context"
	"database/sql"

	"github.com/campreserve/enrollment-scheduler/internal/model"
	"github.com/campreserve/enrollment-scheduler/internal/repository"
)

// CapacityGuard holds the validation checks run before any enrollment
// record is persisted.  Checks that decide against a ledger row take the
// scheduling transaction and lock the row first, so a passing check
// cannot be invalidated by a concurrent request before commit.  The
// faction-quarters check reads cached raw counts instead; its authority
// is weaker by design (see UsageCalculator).
type CapacityGuard struct {
	availability *repository.AvailabilityRepo
	faculty      *repository.FacultyEnrollmentRepo
	usage        *UsageCalculator
}

// NewCapacityGuard wires the guard.
func NewCapacityGuard(availability *repository.AvailabilityRepo, faculty *repository.FacultyEnrollmentRepo, usage *UsageCalculator) *CapacityGuard {
	return &CapacityGuard{availability: availability, faculty: faculty, usage: usage}
}

// EnsureWeekQuartersAvailableTx verifies that the quarters are free for
// the given week, creating the ledger entry on first use with the
// quarters' capacity.  Fails with ErrAlreadyReserved when another
// faction already holds the week.  The returned entry stays locked for
// the rest of the transaction.
func (g *CapacityGuard) EnsureWeekQuartersAvailableTx(ctx context.Context, tx *sql.Tx, facilityEnrollmentID, weekID uint64, quarters *model.Quarters) (*model.Availability, error) {
	key := model.WeekQuartersKey(facilityEnrollmentID, weekID, quarters.ID)
	entry, err := g.availability.GetOrCreateForUpdateTx(ctx, tx, key, quarters.Capacity)
	if err != nil {
		return nil, err
	}
	if entry.IsReserved() {
		return nil, repository.NewScheduleError(repository.ErrAlreadyReserved,
			"Selected quarters are already reserved for this week.")
	}
	return entry, nil
}

// EnsureClassCapacityTx verifies that the offering has a free seat.  The
// ledger entry is created lazily and its capacity re-synced with the
// offering's configured maximum on every call, clamping reservations if
// the class shrank.  When excludeOccupies is true the caller is
// re-validating an assignment already counted against this offering, so
// one seat is handed back before the comparison.
func (g *CapacityGuard) EnsureClassCapacityTx(ctx context.Context, tx *sql.Tx, offering *model.ClassOffering, excludeOccupies bool) (*model.Availability, error) {
	entry, err := g.availability.GetOrCreateForUpdateTx(ctx, tx, offering.ClassSeatKey(), offering.MaxEnrollment)
	if err != nil {
		return nil, err
	}
	if err := g.availability.EnsureCapacityTx(ctx, tx, entry, offering.MaxEnrollment); err != nil {
		return nil, err
	}
	remaining := int(entry.Remaining())
	if excludeOccupies {
		remaining++
	}
	if remaining <= 0 {
		return nil, repository.NewScheduleError(repository.ErrCapacityExceeded,
			"This class is already at capacity.")
	}
	return entry, nil
}

// EnsureFactionQuartersCapacity verifies that the quarters still have
// room for one more attendee or leader.  Quarters with zero capacity are
// treated as unlimited; that is the configured policy for unbounded
// lodging, not an oversight.  Occupancy comes from the usage calculator
// and may be up to one TTL stale.
func (g *CapacityGuard) EnsureFactionQuartersCapacity(ctx context.Context, factionEnrollmentID uint64, quarters *model.Quarters, excludeAttendeeID, excludeLeaderID uint64) error {
	capacity := int(quarters.Capacity)
	if capacity <= 0 {
		return nil
	}
	occupied, err := g.usage.Usage(ctx, factionEnrollmentID, quarters.ID, excludeAttendeeID, excludeLeaderID)
	if err != nil {
		return err
	}
	if occupied >= capacity {
		return repository.NewScheduleError(repository.ErrCapacityExceeded,
			"Selected quarters are already full.")
	}
	return nil
}

// EnsureStaffQuartersCapacityTx verifies that staff quarters have a free
// bed by counting live faculty enrollments inside the transaction,
// excluding one record by id for updates.  Quarters without a configured
// capacity default to a single bed.
func (g *CapacityGuard) EnsureStaffQuartersCapacityTx(ctx context.Context, tx *sql.Tx, facilityEnrollmentID uint64, quarters *model.Quarters, excludeID uint64) error {
	capacity := int(quarters.Capacity)
	if capacity <= 0 {
		capacity = 1
	}
	count, err := g.faculty.CountByFacilityAndQuartersTx(ctx, tx, facilityEnrollmentID, quarters.ID, excludeID)
	if err != nil {
		return err
	}
	if count >= capacity {
		return repository.NewScheduleError(repository.ErrCapacityExceeded,
			"Faculty quarters are already full.")
	}
	return nil
}
