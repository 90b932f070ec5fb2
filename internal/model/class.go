package model

import "time"

// ClassOffering is a scheduled class within a facility enrollment season
// with a bounded number of seats.  MaxEnrollment is the configured seat
// count; the class-seat ledger row is kept in sync with it on every
// capacity check, clamping reservations downward if an administrator
// shrinks the class.
type ClassOffering struct {
	ID                   uint64    // class_offerings.id
	FacilityEnrollmentID uint64    // class_offerings.facility_enrollment_id
	Name                 string    // class_offerings.name
	MaxEnrollment        uint32    // class_offerings.max_enrollment
	CreatedAt            time.Time // class_offerings.created_at
	UpdatedAt            time.Time // class_offerings.updated_at
}

// ClassSeatKey returns the ledger key for this offering's seat pool.
func (o *ClassOffering) ClassSeatKey() ResourceKey { return ClassSeatKey(o.ID) }

// AttendeeClassEnrollment seats an attendee in a class offering.  The
// optional parent attendee enrollment links the seat back to the week the
// attendee is on site.
type AttendeeClassEnrollment struct {
	ID                   uint64    // attendee_class_enrollments.id
	AttendeeID           uint64    // attendee_class_enrollments.attendee_id
	ClassOfferingID      uint64    // attendee_class_enrollments.class_offering_id
	AttendeeEnrollmentID *uint64   // attendee_class_enrollments.attendee_enrollment_id (nullable)
	CreatedAt            time.Time // attendee_class_enrollments.created_at
}

// FacultyClassEnrollment seats a faculty member in a class offering.  It
// draws from the same seat pool as attendee assignments.
type FacultyClassEnrollment struct {
	ID                  uint64    // faculty_class_enrollments.id
	FacultyID           uint64    // faculty_class_enrollments.faculty_id
	ClassOfferingID     uint64    // faculty_class_enrollments.class_offering_id
	FacultyEnrollmentID *uint64   // faculty_class_enrollments.faculty_enrollment_id (nullable)
	CreatedAt           time.Time // faculty_class_enrollments.created_at
}
