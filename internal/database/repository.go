package database

import (
	"context"
	"time"
)

// EmployeeReader provides read-only access to employee face profiles.
type EmployeeReader interface {
	// GetEmployee retrieves an employee by id, returns nil if not found.
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	// GetEmployeeByName retrieves an employee by exact display name.
	// Comparison is case-insensitive and ignores diacritics (see NormalizeName).
	// Returns nil if not found.
	GetEmployeeByName(ctx context.Context, name string) (*Employee, error)
	// ListEnrolled returns all employees with a non-empty descriptor set.
	// When excludeID is non-empty that employee is left out, which is how
	// registration builds the uniqueness pool of "everyone else".
	ListEnrolled(ctx context.Context, excludeID string) ([]Employee, error)
}

// EmployeeWriter extends EmployeeReader with the single write this subsystem
// performs: replacing an employee's face profile as one atomic update.
type EmployeeWriter interface {
	EmployeeReader

	// ReplaceFaceProfile replaces the employee's descriptor set, enrollment
	// state and timestamp, and (when update.FaceImage is non-nil) the
	// reference snapshot, in one atomic update. Legacy single-descriptor
	// storage for the employee is cleared by the same write.
	ReplaceFaceProfile(ctx context.Context, employeeID string, update FaceProfileUpdate) error
}

// TimeclockRepository stores attendance entries.
type TimeclockRepository interface {
	// ClockIn inserts a new open entry and returns its id.
	ClockIn(ctx context.Context, entry *TimeclockEntry) (string, error)
	// ClockOut closes an open entry.
	ClockOut(ctx context.Context, entryID string, update ClockOutUpdate) error
	// ActiveEntry returns the employee's open entry (no clock-out) with a
	// clock-in at or after since, or nil when there is none.
	ActiveEntry(ctx context.Context, employeeID string, since time.Time) (*TimeclockEntry, error)
	// EntriesBetween returns a store's entries with clock-in in [from, to),
	// newest first.
	EntriesBetween(ctx context.Context, storeID string, from, to time.Time) ([]TimeclockEntry, error)
	// EmployeeEntries returns one employee's entries with clock-in at or
	// after since, newest first.
	EmployeeEntries(ctx context.Context, employeeID string, since time.Time) ([]TimeclockEntry, error)
}
