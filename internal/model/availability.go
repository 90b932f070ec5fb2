package model

import "time"

// ResourceKind tags which capacity pool an availability row belongs to.
// Week-quarters rows are binary (a faction holds the whole unit for the
// week or not at all); class-seat and staff-quarters rows are counted.
type ResourceKind string

const (
	KindWeekQuarters  ResourceKind = "WEEK_QUARTERS"  // exclusive weekly hold of quarters by a faction
	KindClassSeat     ResourceKind = "CLASS_SEAT"     // counted seats in a class offering
	KindStaffQuarters ResourceKind = "STAFF_QUARTERS" // counted faculty beds in quarters
)

// ResourceKey identifies one resource instance within a kind's pool.
// Unused components are zero; the repository maps zeros to SQL NULLs so
// each kind keeps its own uniqueness shape in the availability table.
type ResourceKey struct {
	Kind                 ResourceKind
	FacilityEnrollmentID uint64
	WeekID               uint64
	QuartersID           uint64
	ClassOfferingID      uint64
}

// WeekQuartersKey builds the key for a faction's exclusive weekly hold.
func WeekQuartersKey(facilityEnrollmentID, weekID, quartersID uint64) ResourceKey {
	return ResourceKey{
		Kind:                 KindWeekQuarters,
		FacilityEnrollmentID: facilityEnrollmentID,
		WeekID:               weekID,
		QuartersID:           quartersID,
	}
}

// ClassSeatKey builds the key for a class offering's seat pool.
func ClassSeatKey(classOfferingID uint64) ResourceKey {
	return ResourceKey{Kind: KindClassSeat, ClassOfferingID: classOfferingID}
}

// StaffQuartersKey builds the key for faculty lodging in quarters during a
// facility enrollment.
func StaffQuartersKey(facilityEnrollmentID, quartersID uint64) ResourceKey {
	return ResourceKey{
		Kind:                 KindStaffQuarters,
		FacilityEnrollmentID: facilityEnrollmentID,
		QuartersID:           quartersID,
	}
}

// Equal reports whether two keys address the same resource instance.
func (k ResourceKey) Equal(other ResourceKey) bool { return k == other }

// Availability is the ledger entry for one resource instance: how much
// capacity exists and how much of it is consumed.  Rows are created lazily
// on the first reservation attempt and never deleted; they remain as
// historical capacity records.  The reserved counter is written only by
// the reservation synchronizer so it always matches the enrollment rows
// that claim the capacity.
//
// Fields:
//  ID        – primary key identifier.
//  Key       – resource kind plus instance identifiers.
//  Capacity  – authoritative maximum for the resource.
//  Reserved  – currently consumed count; never exceeds Capacity after a write.
//  OnHold    – reserved-but-unconfirmed count; carried for hold flows, unset today.
//  UpdatedAt – last write, used to invalidate the per-entry cache.
type Availability struct {
	ID        uint64      // availability.id
	Key       ResourceKey // availability.kind + key columns
	Capacity  uint32      // availability.capacity
	Reserved  uint32      // availability.reserved
	OnHold    uint32      // availability.on_hold
	UpdatedAt time.Time   // availability.updated_at
}

// Remaining returns the free capacity after reservations and holds,
// floored at zero.
func (a *Availability) Remaining() uint32 {
	used := a.Reserved + a.OnHold
	if used >= a.Capacity {
		return 0
	}
	return a.Capacity - used
}

// IsReserved reports whether a week-quarters row is exclusively held.
func (a *Availability) IsReserved() bool { return a.Reserved >= a.Capacity }
