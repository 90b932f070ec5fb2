// Package service implements the scheduling core: capacity validation,
// ledger synchronization and the transactional orchestration that ties
// enrollment records to the availability ledger.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/campreserve/enrollment-scheduler/internal/cache"
	"github.com/campreserve/enrollment-scheduler/internal/model"
	"github.com/campreserve/enrollment-scheduler/internal/queue"
	"github.com/campreserve/enrollment-scheduler/internal/repository"
)

// AuditPublisher emits scheduling audit events.  The AMQP publisher in
// the queue package implements it; tests substitute a recorder.
type AuditPublisher interface {
	Publish(ctx context.Context, event queue.AuditEvent) error
}

// SchedulingService orchestrates every enrollment mutation.  Each
// operation validates capacity, persists the record and synchronizes the
// ledger inside one database transaction, then invalidates the affected
// cache keys and emits an audit event after commit.  Audit and cache
// failures never fail the operation; the transaction is the source of
// truth.
type SchedulingService struct {
	DB *sql.DB

	Factions        *repository.FactionEnrollmentRepo
	Attendees       *repository.AttendeeEnrollmentRepo
	Leaders         *repository.LeaderEnrollmentRepo
	Faculty         *repository.FacultyEnrollmentRepo
	Offerings       *repository.ClassOfferingRepo
	AttendeeClasses *repository.AttendeeClassEnrollmentRepo
	FacultyClasses  *repository.FacultyClassEnrollmentRepo
	Quarters        *repository.QuartersRepo
	Weeks           *repository.WeekRepo
	Availability    *repository.AvailabilityRepo

	Guard *CapacityGuard
	Sync  *ReservationSync
	Usage *UsageCalculator

	Cache    cache.Store
	CacheTTL time.Duration // zero means DefaultUsageTTL
	Audit    AuditPublisher
}

// withTx runs fn inside a transaction, rolling back unless the commit
// lands.  Lock wait timeouts and deadlocks from the row-locked ledger
// surface as ErrStoreConflict so handlers can answer with a retryable
// status.
func (s *SchedulingService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		if repository.IsStoreConflict(err) {
			return repository.NewScheduleError(repository.ErrStoreConflict,
				"The schedule changed concurrently. Please retry.")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if repository.IsStoreConflict(err) {
			return repository.NewScheduleError(repository.ErrStoreConflict,
				"The schedule changed concurrently. Please retry.")
		}
		return err
	}
	committed = true
	return nil
}

func (s *SchedulingService) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return DefaultUsageTTL
}

// invalidate drops cache keys after a committed write; failures are
// logged, never surfaced.
func (s *SchedulingService) invalidate(ctx context.Context, keys ...string) {
	if s.Cache == nil || len(keys) == 0 {
		return
	}
	if err := s.Cache.Delete(ctx, keys...); err != nil {
		log.Printf("cache: invalidate failed: %v", err)
	}
}

// emit publishes an audit event after a committed write; failures are
// logged, never surfaced.
func (s *SchedulingService) emit(ctx context.Context, action string, actorID uint64, extra map[string]interface{}) {
	if s.Audit == nil {
		return
	}
	evt := queue.AuditEvent{
		Action:     action,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Extra:      extra,
	}
	if err := s.Audit.Publish(ctx, evt); err != nil {
		log.Printf("audit: publish %s failed: %v", action, err)
	}
}

// FactionEnrollmentInput carries one faction enrollment write.  Existing
// is nil on create; on update its current week/quarters hold is released
// if the write moves the faction.
type FactionEnrollmentInput struct {
	Existing             *model.FactionEnrollment
	FactionID            uint64
	FactionLabel         string // display label of the faction, used when Name is empty
	FacilityEnrollmentID uint64
	WeekID               uint64
	QuartersID           uint64
	Name                 string
	Start                time.Time
	End                  time.Time
	ActorID              uint64
}

// ScheduleFactionEnrollment books a faction into quarters for one week.
// The quarters must be free for that week; the exclusive hold is taken
// inside the transaction so two factions cannot book the same pair.
func (s *SchedulingService) ScheduleFactionEnrollment(ctx context.Context, in FactionEnrollmentInput) (*model.FactionEnrollment, error) {
	if in.QuartersID == 0 {
		return nil, repository.NewScheduleError(repository.ErrMissingResource,
			"Quarters are required for faction enrollment.")
	}
	week, err := s.Weeks.GetByID(ctx, in.WeekID)
	if err != nil {
		return nil, err
	}
	quarters, err := s.Quarters.GetByID(ctx, in.QuartersID)
	if err != nil {
		return nil, err
	}

	rec := &model.FactionEnrollment{}
	var prev *model.ResourceKey
	if in.Existing != nil {
		cp := *in.Existing
		rec = &cp
		k := in.Existing.WeekQuartersKey()
		prev = &k
	}
	rec.FactionID = in.FactionID
	rec.FacilityEnrollmentID = in.FacilityEnrollmentID
	rec.WeekID = in.WeekID
	rec.QuartersID = in.QuartersID
	rec.Name = in.Name
	rec.Start = in.Start
	rec.End = in.End
	if rec.Start.IsZero() {
		rec.Start = week.Start
	}
	if rec.End.IsZero() {
		rec.End = week.End
	}
	if week.Start.Before(rec.Start) || week.End.After(rec.End) {
		return nil, repository.NewScheduleError(repository.ErrConflict,
			"Selected week falls outside the enrollment period.")
	}
	if rec.Name == "" {
		label := in.FactionLabel
		if label == "" {
			label = fmt.Sprintf("Faction #%d", rec.FactionID)
		}
		rec.Name = fmt.Sprintf("%s (%s)", label, week.Name)
	}

	next := rec.WeekQuartersKey()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if prev == nil || !prev.Equal(next) {
			if _, err := s.Guard.EnsureWeekQuartersAvailableTx(ctx, tx, rec.FacilityEnrollmentID, rec.WeekID, quarters); err != nil {
				return err
			}
		}
		if rec.ID == 0 {
			if err := s.Factions.CreateTx(ctx, tx, rec); err != nil {
				return err
			}
		} else if err := s.Factions.UpdateTx(ctx, tx, rec); err != nil {
			return err
		}
		return s.Sync.ApplyTx(ctx, tx, prev, &next)
	})
	if err != nil {
		return nil, err
	}

	keys := []string{cache.AvailabilityKey(next)}
	if prev != nil && !prev.Equal(next) {
		keys = append(keys, cache.AvailabilityKey(*prev))
	}
	s.invalidate(ctx, keys...)
	s.emit(ctx, "faction_enrollment.scheduled", in.ActorID, map[string]interface{}{
		"faction_enrollment_id": rec.ID,
		"faction_id":            rec.FactionID,
		"week_id":               rec.WeekID,
		"quarters_id":           rec.QuartersID,
	})
	return rec, nil
}

// DropFactionEnrollment deletes a faction enrollment and releases its
// week-quarters hold.  Dropping an unsaved record is a no-op.
func (s *SchedulingService) DropFactionEnrollment(ctx context.Context, rec *model.FactionEnrollment, actorID uint64) error {
	if rec == nil || rec.ID == 0 {
		return nil
	}
	key := rec.WeekQuartersKey()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.Factions.DeleteTx(ctx, tx, rec.ID); err != nil {
			return err
		}
		return s.Sync.ApplyTx(ctx, tx, &key, nil)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, cache.AvailabilityKey(key))
	s.emit(ctx, "faction_enrollment.dropped", actorID, map[string]interface{}{
		"faction_enrollment_id": rec.ID,
		"week_id":               rec.WeekID,
		"quarters_id":           rec.QuartersID,
	})
	return nil
}

// AttendeeEnrollmentInput carries one attendee enrollment write.
// QuartersID of zero inherits the parent faction enrollment's quarters.
type AttendeeEnrollmentInput struct {
	Existing            *model.AttendeeEnrollment
	AttendeeID          uint64
	AttendeeLabel       string // display label of the attendee, used when Name is empty
	FactionEnrollmentID uint64
	QuartersID          uint64
	Role                *string
	Name                string
	Start               time.Time
	End                 time.Time
	ActorID             uint64
}

// ScheduleAttendeeEnrollment places an attendee into a faction
// enrollment's quarters.  Occupancy is validated against the cached
// attendee+leader count before the write; the record itself is excluded
// when updating so it does not count against its own move.
func (s *SchedulingService) ScheduleAttendeeEnrollment(ctx context.Context, in AttendeeEnrollmentInput) (*model.AttendeeEnrollment, error) {
	fe, err := s.Factions.GetByID(ctx, in.FactionEnrollmentID)
	if err != nil {
		return nil, err
	}
	quartersID := in.QuartersID
	if quartersID == 0 {
		quartersID = fe.QuartersID
	}
	if quartersID == 0 {
		return nil, repository.NewScheduleError(repository.ErrMissingResource,
			"Quarters are required for attendee enrollment.")
	}
	quarters, err := s.Quarters.GetByID(ctx, quartersID)
	if err != nil {
		return nil, err
	}

	var excludeID uint64
	rec := &model.AttendeeEnrollment{}
	if in.Existing != nil {
		cp := *in.Existing
		rec = &cp
		excludeID = in.Existing.ID
	}
	if err := s.Guard.EnsureFactionQuartersCapacity(ctx, fe.ID, quarters, excludeID, 0); err != nil {
		return nil, err
	}

	rec.AttendeeID = in.AttendeeID
	rec.FactionEnrollmentID = fe.ID
	rec.QuartersID = quartersID
	rec.Role = in.Role
	rec.Name = in.Name
	rec.Start = in.Start
	rec.End = in.End
	if rec.Start.IsZero() {
		rec.Start = fe.Start
	}
	if rec.End.IsZero() {
		rec.End = fe.End
	}
	if rec.Name == "" {
		rec.Name = s.personLabel(ctx, in.AttendeeLabel, "Attendee", in.AttendeeID, fe.WeekID)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if rec.ID == 0 {
			return s.Attendees.CreateTx(ctx, tx, rec)
		}
		return s.Attendees.UpdateTx(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateUsage(ctx, fe.ID, quartersID, in.Existing)
	s.emit(ctx, "attendee_enrollment.scheduled", in.ActorID, map[string]interface{}{
		"attendee_enrollment_id": rec.ID,
		"attendee_id":            rec.AttendeeID,
		"faction_enrollment_id":  rec.FactionEnrollmentID,
		"quarters_id":            rec.QuartersID,
	})
	return rec, nil
}

// DropAttendeeEnrollment deletes an attendee enrollment.  Dropping an
// unsaved record is a no-op.
func (s *SchedulingService) DropAttendeeEnrollment(ctx context.Context, rec *model.AttendeeEnrollment, actorID uint64) error {
	if rec == nil || rec.ID == 0 {
		return nil
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.Attendees.DeleteTx(ctx, tx, rec.ID)
	})
	if err != nil {
		return err
	}
	if err := s.Usage.Invalidate(ctx, rec.FactionEnrollmentID, rec.QuartersID); err != nil {
		log.Printf("cache: invalidate failed: %v", err)
	}
	s.emit(ctx, "attendee_enrollment.dropped", actorID, map[string]interface{}{
		"attendee_enrollment_id": rec.ID,
		"faction_enrollment_id":  rec.FactionEnrollmentID,
		"quarters_id":            rec.QuartersID,
	})
	return nil
}

// LeaderEnrollmentInput carries one leader enrollment write.  Leaders
// share the quarters occupancy pool with attendees.
type LeaderEnrollmentInput struct {
	Existing            *model.LeaderEnrollment
	LeaderID            uint64
	LeaderLabel         string
	FactionEnrollmentID uint64
	QuartersID          uint64
	Role                *string
	Name                string
	Start               time.Time
	End                 time.Time
	ActorID             uint64
}

// ScheduleLeaderEnrollment places a faction leader into a faction
// enrollment's quarters, mirroring the attendee path.
func (s *SchedulingService) ScheduleLeaderEnrollment(ctx context.Context, in LeaderEnrollmentInput) (*model.LeaderEnrollment, error) {
	fe, err := s.Factions.GetByID(ctx, in.FactionEnrollmentID)
	if err != nil {
		return nil, err
	}
	quartersID := in.QuartersID
	if quartersID == 0 {
		quartersID = fe.QuartersID
	}
	if quartersID == 0 {
		return nil, repository.NewScheduleError(repository.ErrMissingResource,
			"Quarters are required for leader enrollment.")
	}
	quarters, err := s.Quarters.GetByID(ctx, quartersID)
	if err != nil {
		return nil, err
	}

	var excludeID uint64
	rec := &model.LeaderEnrollment{}
	if in.Existing != nil {
		cp := *in.Existing
		rec = &cp
		excludeID = in.Existing.ID
	}
	if err := s.Guard.EnsureFactionQuartersCapacity(ctx, fe.ID, quarters, 0, excludeID); err != nil {
		return nil, err
	}

	rec.LeaderID = in.LeaderID
	rec.FactionEnrollmentID = fe.ID
	rec.QuartersID = quartersID
	rec.Role = in.Role
	rec.Name = in.Name
	rec.Start = in.Start
	rec.End = in.End
	if rec.Start.IsZero() {
		rec.Start = fe.Start
	}
	if rec.End.IsZero() {
		rec.End = fe.End
	}
	if rec.Name == "" {
		rec.Name = s.personLabel(ctx, in.LeaderLabel, "Leader", in.LeaderID, fe.WeekID)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if rec.ID == 0 {
			return s.Leaders.CreateTx(ctx, tx, rec)
		}
		return s.Leaders.UpdateTx(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLeaderUsage(ctx, fe.ID, quartersID, in.Existing)
	s.emit(ctx, "leader_enrollment.scheduled", in.ActorID, map[string]interface{}{
		"leader_enrollment_id":  rec.ID,
		"leader_id":             rec.LeaderID,
		"faction_enrollment_id": rec.FactionEnrollmentID,
		"quarters_id":           rec.QuartersID,
	})
	return rec, nil
}

// DropLeaderEnrollment deletes a leader enrollment.  Dropping an unsaved
// record is a no-op.
func (s *SchedulingService) DropLeaderEnrollment(ctx context.Context, rec *model.LeaderEnrollment, actorID uint64) error {
	if rec == nil || rec.ID == 0 {
		return nil
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.Leaders.DeleteTx(ctx, tx, rec.ID)
	})
	if err != nil {
		return err
	}
	if err := s.Usage.Invalidate(ctx, rec.FactionEnrollmentID, rec.QuartersID); err != nil {
		log.Printf("cache: invalidate failed: %v", err)
	}
	s.emit(ctx, "leader_enrollment.dropped", actorID, map[string]interface{}{
		"leader_enrollment_id":  rec.ID,
		"faction_enrollment_id": rec.FactionEnrollmentID,
		"quarters_id":           rec.QuartersID,
	})
	return nil
}

// FacultyEnrollmentInput carries one faculty enrollment write.
type FacultyEnrollmentInput struct {
	Existing             *model.FacultyEnrollment
	FacultyID            uint64
	FacultyLabel         string
	FacilityEnrollmentID uint64
	QuartersID           uint64
	Role                 *string
	Name                 string
	ActorID              uint64
}

// ScheduleFacultyEnrollment places a faculty member into staff quarters.
// The bed count is validated against live rows inside the transaction
// and the staff-quarters ledger entry is kept in sync.
func (s *SchedulingService) ScheduleFacultyEnrollment(ctx context.Context, in FacultyEnrollmentInput) (*model.FacultyEnrollment, error) {
	if in.QuartersID == 0 {
		return nil, repository.NewScheduleError(repository.ErrMissingResource,
			"Quarters are required for faculty enrollment.")
	}
	quarters, err := s.Quarters.GetByID(ctx, in.QuartersID)
	if err != nil {
		return nil, err
	}

	var excludeID uint64
	rec := &model.FacultyEnrollment{}
	var prev *model.ResourceKey
	if in.Existing != nil {
		cp := *in.Existing
		rec = &cp
		excludeID = in.Existing.ID
		k := in.Existing.StaffQuartersKey()
		prev = &k
	}
	rec.FacultyID = in.FacultyID
	rec.FacilityEnrollmentID = in.FacilityEnrollmentID
	rec.QuartersID = in.QuartersID
	rec.Role = in.Role
	rec.Name = in.Name
	if rec.Name == "" {
		label := in.FacultyLabel
		if label == "" {
			label = fmt.Sprintf("Faculty #%d", rec.FacultyID)
		}
		rec.Name = fmt.Sprintf("%s (%s)", label, quarters.Name)
	}

	next := rec.StaffQuartersKey()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if prev == nil || !prev.Equal(next) {
			if err := s.Guard.EnsureStaffQuartersCapacityTx(ctx, tx, rec.FacilityEnrollmentID, quarters, excludeID); err != nil {
				return err
			}
		}
		if rec.ID == 0 {
			if err := s.Faculty.CreateTx(ctx, tx, rec); err != nil {
				return err
			}
		} else if err := s.Faculty.UpdateTx(ctx, tx, rec); err != nil {
			return err
		}
		return s.Sync.ApplyTx(ctx, tx, prev, &next)
	})
	if err != nil {
		return nil, err
	}

	keys := []string{cache.AvailabilityKey(next)}
	if prev != nil && !prev.Equal(next) {
		keys = append(keys, cache.AvailabilityKey(*prev))
	}
	s.invalidate(ctx, keys...)
	s.emit(ctx, "faculty_enrollment.scheduled", in.ActorID, map[string]interface{}{
		"faculty_enrollment_id":  rec.ID,
		"faculty_id":             rec.FacultyID,
		"facility_enrollment_id": rec.FacilityEnrollmentID,
		"quarters_id":            rec.QuartersID,
	})
	return rec, nil
}

// DropFacultyEnrollment deletes a faculty enrollment and releases its
// staff-quarters slot.  Dropping an unsaved record is a no-op.
func (s *SchedulingService) DropFacultyEnrollment(ctx context.Context, rec *model.FacultyEnrollment, actorID uint64) error {
	if rec == nil || rec.ID == 0 {
		return nil
	}
	key := rec.StaffQuartersKey()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.Faculty.DeleteTx(ctx, tx, rec.ID); err != nil {
			return err
		}
		return s.Sync.ApplyTx(ctx, tx, &key, nil)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, cache.AvailabilityKey(key))
	s.emit(ctx, "faculty_enrollment.dropped", actorID, map[string]interface{}{
		"faculty_enrollment_id":  rec.ID,
		"facility_enrollment_id": rec.FacilityEnrollmentID,
		"quarters_id":            rec.QuartersID,
	})
	return nil
}

// ClassAssignmentInput carries one class seat assignment for an attendee
// or a faculty member.
type ClassAssignmentInput struct {
	PersonID        uint64  // attendee or faculty id
	ClassOfferingID uint64
	EnrollmentID    *uint64 // optional parent enrollment record
	ActorID         uint64
}

// AssignAttendeeToClass seats an attendee in a class offering.  The seat
// is claimed under the locked ledger row, so the offering can never be
// oversubscribed by concurrent assignments.
func (s *SchedulingService) AssignAttendeeToClass(ctx context.Context, in ClassAssignmentInput) (*model.AttendeeClassEnrollment, error) {
	offering, err := s.Offerings.GetByID(ctx, in.ClassOfferingID)
	if err != nil {
		return nil, err
	}
	rec := &model.AttendeeClassEnrollment{
		AttendeeID:           in.PersonID,
		ClassOfferingID:      offering.ID,
		AttendeeEnrollmentID: in.EnrollmentID,
	}
	key := offering.ClassSeatKey()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.Guard.EnsureClassCapacityTx(ctx, tx, offering, false); err != nil {
			return err
		}
		if err := s.AttendeeClasses.CreateTx(ctx, tx, rec); err != nil {
			return err
		}
		return s.Sync.ApplyTx(ctx, tx, nil, &key)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.AvailabilityKey(key))
	s.emit(ctx, "attendee_class_enrollment.assigned", in.ActorID, map[string]interface{}{
		"attendee_class_enrollment_id": rec.ID,
		"attendee_id":                  rec.AttendeeID,
		"class_offering_id":            rec.ClassOfferingID,
	})
	return rec, nil
}

// DropAttendeeClassEnrollment frees an attendee's class seat.  Dropping
// an unsaved record is a no-op.
func (s *SchedulingService) DropAttendeeClassEnrollment(ctx context.Context, rec *model.AttendeeClassEnrollment, actorID uint64) error {
	if rec == nil || rec.ID == 0 {
		return nil
	}
	key := model.ClassSeatKey(rec.ClassOfferingID)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.AttendeeClasses.DeleteTx(ctx, tx, rec.ID); err != nil {
			return err
		}
		return s.Sync.ApplyTx(ctx, tx, &key, nil)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, cache.AvailabilityKey(key))
	s.emit(ctx, "attendee_class_enrollment.dropped", actorID, map[string]interface{}{
		"attendee_class_enrollment_id": rec.ID,
		"class_offering_id":            rec.ClassOfferingID,
	})
	return nil
}

// AssignFacultyToClass seats a faculty member in a class offering, drawing
// from the same seat pool as attendee assignments.
func (s *SchedulingService) AssignFacultyToClass(ctx context.Context, in ClassAssignmentInput) (*model.FacultyClassEnrollment, error) {
	offering, err := s.Offerings.GetByID(ctx, in.ClassOfferingID)
	if err != nil {
		return nil, err
	}
	rec := &model.FacultyClassEnrollment{
		FacultyID:           in.PersonID,
		ClassOfferingID:     offering.ID,
		FacultyEnrollmentID: in.EnrollmentID,
	}
	key := offering.ClassSeatKey()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.Guard.EnsureClassCapacityTx(ctx, tx, offering, false); err != nil {
			return err
		}
		if err := s.FacultyClasses.CreateTx(ctx, tx, rec); err != nil {
			return err
		}
		return s.Sync.ApplyTx(ctx, tx, nil, &key)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.AvailabilityKey(key))
	s.emit(ctx, "faculty_class_enrollment.assigned", in.ActorID, map[string]interface{}{
		"faculty_class_enrollment_id": rec.ID,
		"faculty_id":                  rec.FacultyID,
		"class_offering_id":           rec.ClassOfferingID,
	})
	return rec, nil
}

// DropFacultyClassEnrollment frees a faculty member's class seat.
// Dropping an unsaved record is a no-op.
func (s *SchedulingService) DropFacultyClassEnrollment(ctx context.Context, rec *model.FacultyClassEnrollment, actorID uint64) error {
	if rec == nil || rec.ID == 0 {
		return nil
	}
	key := model.ClassSeatKey(rec.ClassOfferingID)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.FacultyClasses.DeleteTx(ctx, tx, rec.ID); err != nil {
			return err
		}
		return s.Sync.ApplyTx(ctx, tx, &key, nil)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, cache.AvailabilityKey(key))
	s.emit(ctx, "faculty_class_enrollment.dropped", actorID, map[string]interface{}{
		"faculty_class_enrollment_id": rec.ID,
		"class_offering_id":           rec.ClassOfferingID,
	})
	return nil
}

// ClassSeatsRemaining reports the free seats of an offering from the
// cached ledger view.  Offerings without a ledger entry yet report their
// full configured capacity.  The number is advisory; the transactional
// guard re-checks under the row lock before any seat is claimed.
func (s *SchedulingService) ClassSeatsRemaining(ctx context.Context, offeringID uint64) (int, error) {
	offering, err := s.Offerings.GetByID(ctx, offeringID)
	if err != nil {
		return 0, err
	}
	key := cache.AvailabilityKey(offering.ClassSeatKey())
	return s.Cache.GetOrComputeInt(ctx, key, s.cacheTTL(), func() (int, error) {
		entry, err := s.Availability.GetByKey(ctx, offering.ClassSeatKey())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return int(offering.MaxEnrollment), nil
			}
			return 0, err
		}
		return int(entry.Remaining()), nil
	})
}

// personLabel derives the display name "{person} ({week})" for attendee
// and leader enrollments.  The week lookup is best-effort; a missing
// week leaves the label without the suffix.
func (s *SchedulingService) personLabel(ctx context.Context, label, kind string, personID, weekID uint64) string {
	if label == "" {
		label = fmt.Sprintf("%s #%d", kind, personID)
	}
	week, err := s.Weeks.GetByID(ctx, weekID)
	if err != nil {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, week.Name)
}

// invalidateUsage drops the usage count for the written pair and, when
// an update moved the record, for the pair it left.
func (s *SchedulingService) invalidateUsage(ctx context.Context, factionEnrollmentID, quartersID uint64, existing *model.AttendeeEnrollment) {
	if err := s.Usage.Invalidate(ctx, factionEnrollmentID, quartersID); err != nil {
		log.Printf("cache: invalidate failed: %v", err)
	}
	if existing != nil && (existing.FactionEnrollmentID != factionEnrollmentID || existing.QuartersID != quartersID) {
		if err := s.Usage.Invalidate(ctx, existing.FactionEnrollmentID, existing.QuartersID); err != nil {
			log.Printf("cache: invalidate failed: %v", err)
		}
	}
}

func (s *SchedulingService) invalidateLeaderUsage(ctx context.Context, factionEnrollmentID, quartersID uint64, existing *model.LeaderEnrollment) {
	if err := s.Usage.Invalidate(ctx, factionEnrollmentID, quartersID); err != nil {
		log.Printf("cache: invalidate failed: %v", err)
	}
	if existing != nil && (existing.FactionEnrollmentID != factionEnrollmentID || existing.QuartersID != quartersID) {
		if err := s.Usage.Invalidate(ctx, existing.FactionEnrollmentID, existing.QuartersID); err != nil {
			log.Printf("cache: invalidate failed: %v", err)
		}
	}
}
