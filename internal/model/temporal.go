package model

import "time"

// Week is one bookable slice of a facility enrollment period.  Week-level
// quarters reservations are exclusive: one faction holds one quarters for
// one week, all-or-nothing.
//
// Fields:
//  ID    – primary key identifier.
//  Name  – display label (e.g. "Week 3").
//  Start – first day of the week.
//  End   – last day of the week.
type Week struct {
	ID    uint64    // weeks.id
	Name  string    // weeks.name
	Start time.Time // weeks.start
	End   time.Time // weeks.end
}

// FacilityEnrollment represents a facility's enrollment season.  It is the
// parent context for faction enrollments, faculty enrollments and class
// offerings.  Only the identifier and date range matter to scheduling;
// facility administration lives outside this service.
type FacilityEnrollment struct {
	ID         uint64    // facility_enrollments.id
	FacilityID uint64    // facility_enrollments.facility_id
	Name       string    // facility_enrollments.name
	Start      time.Time // facility_enrollments.start
	End        time.Time // facility_enrollments.end
}
