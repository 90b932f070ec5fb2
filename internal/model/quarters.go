package model

import "time"

// Quarters represents a physical lodging unit inside a facility with a
// fixed occupant capacity.  Quarters are the shared resource that faction,
// attendee, leader and faculty enrollments compete for.  A capacity of
// zero means "no limit" for faction lodging checks and "one bed" for
// staff lodging checks; both policies are enforced in the service layer.
//
// Fields:
//  ID         – primary key identifier.
//  FacilityID – facility that owns these quarters.
//  Name       – human readable label (e.g. "Cabin 7").
//  Capacity   – number of occupants the quarters can hold.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Quarters struct {
	ID         uint64    // quarters.id
	FacilityID uint64    // quarters.facility_id
	Name       string    // quarters.name
	Capacity   uint32    // quarters.capacity
	CreatedAt  time.Time // quarters.created_at
	UpdatedAt  time.Time // quarters.updated_at
}
