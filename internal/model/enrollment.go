package model

import "time"

// FactionEnrollment books a faction into a facility enrollment for one
// week, occupying one quarters exclusively.  Creating or moving one of
// these records drives the week-quarters ledger through full reserve and
// release transitions.
//
// Fields:
//  ID                   – primary key identifier.
//  FactionID            – faction being enrolled.
//  FacilityEnrollmentID – parent enrollment season.
//  WeekID               – the week being booked.
//  QuartersID           – the quarters held for that week.
//  Name                 – display label, derived when absent.
//  Start / End          – date range; the week must fall inside it.
type FactionEnrollment struct {
	ID                   uint64    // faction_enrollments.id
	FactionID            uint64    // faction_enrollments.faction_id
	FacilityEnrollmentID uint64    // faction_enrollments.facility_enrollment_id
	WeekID               uint64    // faction_enrollments.week_id
	QuartersID           uint64    // faction_enrollments.quarters_id
	Name                 string    // faction_enrollments.name
	Start                time.Time // faction_enrollments.start
	End                  time.Time // faction_enrollments.end
	CreatedAt            time.Time // faction_enrollments.created_at
	UpdatedAt            time.Time // faction_enrollments.updated_at
}

// WeekQuartersKey returns the ledger key this record holds.
func (f *FactionEnrollment) WeekQuartersKey() ResourceKey {
	return WeekQuartersKey(f.FacilityEnrollmentID, f.WeekID, f.QuartersID)
}

// AttendeeEnrollment places an attendee into a faction enrollment and its
// quarters.  Attendee and leader enrollments share the faction-quarters
// occupancy pool, which is validated against raw enrollment counts rather
// than a ledger row.
type AttendeeEnrollment struct {
	ID                  uint64    // attendee_enrollments.id
	AttendeeID          uint64    // attendee_enrollments.attendee_id
	FactionEnrollmentID uint64    // attendee_enrollments.faction_enrollment_id
	QuartersID          uint64    // attendee_enrollments.quarters_id
	Role                *string   // attendee_enrollments.role (nullable)
	Name                string    // attendee_enrollments.name
	Start               time.Time // attendee_enrollments.start
	End                 time.Time // attendee_enrollments.end
	CreatedAt           time.Time // attendee_enrollments.created_at
	UpdatedAt           time.Time // attendee_enrollments.updated_at
}

// LeaderEnrollment places a faction leader into a faction enrollment and
// its quarters.  It counts against the same quarters occupancy pool as
// attendee enrollments.
type LeaderEnrollment struct {
	ID                  uint64    // leader_enrollments.id
	LeaderID            uint64    // leader_enrollments.leader_id
	FactionEnrollmentID uint64    // leader_enrollments.faction_enrollment_id
	QuartersID          uint64    // leader_enrollments.quarters_id
	Role                *string   // leader_enrollments.role (nullable)
	Name                string    // leader_enrollments.name
	Start               time.Time // leader_enrollments.start
	End                 time.Time // leader_enrollments.end
	CreatedAt           time.Time // leader_enrollments.created_at
	UpdatedAt           time.Time // leader_enrollments.updated_at
}

// FacultyEnrollment places a faculty member into staff quarters for a
// facility enrollment season.  Each record consumes one counted slot in
// the staff-quarters ledger.
type FacultyEnrollment struct {
	ID                   uint64    // faculty_enrollments.id
	FacultyID            uint64    // faculty_enrollments.faculty_id
	FacilityEnrollmentID uint64    // faculty_enrollments.facility_enrollment_id
	QuartersID           uint64    // faculty_enrollments.quarters_id
	Role                 *string   // faculty_enrollments.role (nullable)
	Name                 string    // faculty_enrollments.name
	CreatedAt            time.Time // faculty_enrollments.created_at
	UpdatedAt            time.Time // faculty_enrollments.updated_at
}

// StaffQuartersKey returns the ledger key this record consumes a slot in.
func (f *FacultyEnrollment) StaffQuartersKey() ResourceKey {
	return StaffQuartersKey(f.FacilityEnrollmentID, f.QuartersID)
}
