package database

import (
	"time"

	"github.com/shiftbase/faceclock/internal/facerec"
)

// Employee is an employee record as stored by the collaborator. Profiles are
// created and deleted by the management layer; this subsystem only reads them
// and replaces their face profile.
type Employee struct {
	ID          string
	Name        string
	Descriptors [][]float64 // insertion order, oldest first
	Enrolled    bool
	EnrolledAt  *time.Time
	FaceImage   []byte // compressed reference snapshot from the latest registration
	CreatedAt   time.Time
}

// FaceProfile converts the stored record into the matcher's in-memory form.
// Legacy single-descriptor records have already been normalized into a
// one-element list by the repository, so this is a plain projection.
func (e *Employee) FaceProfile() facerec.Profile {
	descriptors := make([]facerec.Descriptor, 0, len(e.Descriptors))
	for _, d := range e.Descriptors {
		descriptors = append(descriptors, facerec.Descriptor(d))
	}
	p := facerec.Profile{
		EmployeeID:  e.ID,
		Name:        e.Name,
		Descriptors: descriptors,
		Enrolled:    e.Enrolled,
	}
	if e.EnrolledAt != nil {
		p.EnrolledAt = *e.EnrolledAt
	}
	return p
}

// FaceProfileUpdate is the atomic write that replaces an employee's face
// profile: descriptor set, enrollment state and timestamp, and optionally the
// reference snapshot.
type FaceProfileUpdate struct {
	Descriptors [][]float64
	Enrolled    bool
	EnrolledAt  time.Time
	FaceImage   []byte // nil keeps the existing snapshot
}

// ProfileUpdateFrom builds the storage write for a mutated in-memory profile.
func ProfileUpdateFrom(p facerec.Profile, image []byte) FaceProfileUpdate {
	descriptors := make([][]float64, 0, len(p.Descriptors))
	for _, d := range p.Descriptors {
		descriptors = append(descriptors, []float64(d))
	}
	return FaceProfileUpdate{
		Descriptors: descriptors,
		Enrolled:    p.Enrolled,
		EnrolledAt:  p.EnrolledAt,
		FaceImage:   image,
	}
}

// TimeclockEntry is one attendance record: a clock-in and, once the shift
// ends, the matching clock-out.
type TimeclockEntry struct {
	ID                 string
	EmployeeID         string
	EmployeeName       string
	StoreID            string
	ClockIn            time.Time
	ClockOut           *time.Time
	HoursWorked        *float64
	ClockInConfidence  *float64
	ClockOutConfidence *float64
	ClockInImage       []byte
	ClockOutImage      []byte
}

// ClockOutUpdate closes an open timeclock entry.
type ClockOutUpdate struct {
	ClockOut    time.Time
	HoursWorked float64
	Confidence  *float64
	Image       []byte
}
