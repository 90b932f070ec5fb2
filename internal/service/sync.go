package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campreserve/enrollment-scheduler/internal/model"
	"github.com/campreserve/enrollment-scheduler/internal/repository"
)

// ReservationSync reconciles ledger counters with enrollment record
// transitions.  Every scheduling write funnels its ledger effects
// through ApplyTx so counters only ever change together with the record
// that claims or frees the capacity, inside the same transaction.
type ReservationSync struct {
	availability *repository.AvailabilityRepo
	quarters     *repository.QuartersRepo
	offerings    *repository.ClassOfferingRepo
}

// NewReservationSync wires the synchronizer.
func NewReservationSync(availability *repository.AvailabilityRepo, quarters *repository.QuartersRepo, offerings *repository.ClassOfferingRepo) *ReservationSync {
	return &ReservationSync{availability: availability, quarters: quarters, offerings: offerings}
}

// ApplyTx applies one record transition to the ledger: prev is the key
// the record held before the write (nil on create), next the key it
// holds after (nil on delete).  The previous hold is released before the
// new one is taken so a move within the same pool cannot fail against
// capacity the record itself still occupies.  Equal keys are a no-op.
func (s *ReservationSync) ApplyTx(ctx context.Context, tx *sql.Tx, prev, next *model.ResourceKey) error {
	if prev != nil && next != nil && prev.Equal(*next) {
		return nil
	}
	if prev != nil {
		if err := s.releaseTx(ctx, tx, *prev); err != nil {
			return err
		}
	}
	if next != nil {
		if err := s.reserveTx(ctx, tx, *next); err != nil {
			return err
		}
	}
	return nil
}

// capacityFor resolves the authoritative capacity for a resource key
// from its owning record.  Staff quarters without a configured capacity
// default to a single bed.
func (s *ReservationSync) capacityFor(ctx context.Context, key model.ResourceKey) (uint32, error) {
	switch key.Kind {
	case model.KindWeekQuarters:
		q, err := s.quarters.GetByID(ctx, key.QuartersID)
		if err != nil {
			return 0, err
		}
		return q.Capacity, nil
	case model.KindStaffQuarters:
		q, err := s.quarters.GetByID(ctx, key.QuartersID)
		if err != nil {
			return 0, err
		}
		if q.Capacity == 0 {
			return 1, nil
		}
		return q.Capacity, nil
	case model.KindClassSeat:
		o, err := s.offerings.GetByID(ctx, key.ClassOfferingID)
		if err != nil {
			return 0, err
		}
		return o.MaxEnrollment, nil
	}
	return 0, fmt.Errorf("unknown resource kind %q", key.Kind)
}

func (s *ReservationSync) releaseTx(ctx context.Context, tx *sql.Tx, key model.ResourceKey) error {
	capacity, err := s.capacityFor(ctx, key)
	if err != nil {
		return err
	}
	entry, err := s.availability.GetOrCreateForUpdateTx(ctx, tx, key, capacity)
	if err != nil {
		return err
	}
	if key.Kind == model.KindWeekQuarters {
		return s.availability.ReleaseFullTx(ctx, tx, entry)
	}
	return s.availability.ReleaseTx(ctx, tx, entry, 1)
}

func (s *ReservationSync) reserveTx(ctx context.Context, tx *sql.Tx, key model.ResourceKey) error {
	capacity, err := s.capacityFor(ctx, key)
	if err != nil {
		return err
	}
	entry, err := s.availability.GetOrCreateForUpdateTx(ctx, tx, key, capacity)
	if err != nil {
		return err
	}
	if key.Kind == model.KindWeekQuarters {
		return s.availability.ReserveFullTx(ctx, tx, entry)
	}
	// Counted pools re-sync capacity on reserve so a resized class or
	// quarters takes effect without an out-of-band migration.
	if err := s.availability.EnsureCapacityTx(ctx, tx, entry, capacity); err != nil {
		return err
	}
	return s.availability.ReserveTx(ctx, tx, entry, 1)
}
