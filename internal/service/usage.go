package service

import (
	"context"
	"time"

	"github.com/campreserve/enrollment-scheduler/internal/cache"
	"github.com/campreserve/enrollment-scheduler/internal/repository"
)

// DefaultUsageTTL bounds how stale a cached quarters occupancy count may
// be.  Writes invalidate the key as well, so the window only matters for
// mutations that race within it.
const DefaultUsageTTL = 60 * time.Second

// UsageCalculator computes how many attendee and leader enrollments
// occupy a (faction enrollment, quarters) pair.  Faction quarters are
// the one resource validated against raw enrollment counts instead of a
// ledger row, so this count sits on the hot path of every attendee and
// leader scheduling request and is cached with a short TTL.
//
// The exclusion adjustment happens after the cached read on purpose: it
// keeps one cache entry per pair instead of one per (pair, excluded
// record), at the cost of a small staleness window bounded by the TTL.
type UsageCalculator struct {
	attendees *repository.AttendeeEnrollmentRepo
	leaders   *repository.LeaderEnrollmentRepo
	store     cache.Store
	ttl       time.Duration
}

// NewUsageCalculator wires the calculator.  A zero ttl falls back to
// DefaultUsageTTL.
func NewUsageCalculator(attendees *repository.AttendeeEnrollmentRepo, leaders *repository.LeaderEnrollmentRepo, store cache.Store, ttl time.Duration) *UsageCalculator {
	if ttl <= 0 {
		ttl = DefaultUsageTTL
	}
	return &UsageCalculator{attendees: attendees, leaders: leaders, store: store, ttl: ttl}
}

// Usage returns the occupancy of the pair, excluding at most one
// attendee enrollment and one leader enrollment by id (zero means no
// exclusion).  Exclusions are for validating updates so a record does
// not count against itself; they are subtracted after the cached raw
// count and the result never drops below zero.
func (u *UsageCalculator) Usage(ctx context.Context, factionEnrollmentID, quartersID, excludeAttendeeID, excludeLeaderID uint64) (int, error) {
	key := cache.QuartersUsageKey(factionEnrollmentID, quartersID)
	base, err := u.store.GetOrComputeInt(ctx, key, u.ttl, func() (int, error) {
		a, err := u.attendees.CountByFactionAndQuarters(ctx, factionEnrollmentID, quartersID)
		if err != nil {
			return 0, err
		}
		l, err := u.leaders.CountByFactionAndQuarters(ctx, factionEnrollmentID, quartersID)
		if err != nil {
			return 0, err
		}
		return a + l, nil
	})
	if err != nil {
		return 0, err
	}
	if excludeAttendeeID != 0 {
		base--
	}
	if excludeLeaderID != 0 {
		base--
	}
	if base < 0 {
		base = 0
	}
	return base, nil
}

// Invalidate drops the cached count for the pair.  Every create, update
// and delete of an attendee or leader enrollment must call this for the
// pairs it touched.
func (u *UsageCalculator) Invalidate(ctx context.Context, factionEnrollmentID, quartersID uint64) error {
	return u.store.Delete(ctx, cache.QuartersUsageKey(factionEnrollmentID, quartersID))
}
