// Package facerec implements face descriptor matching and adaptive enrollment
// for the attendance pipeline. It operates purely on in-memory profiles: the
// storage layer reads and persists them, handlers orchestrate the calls.
package facerec

import "time"

// DescriptorDim is the fixed length of a face descriptor vector.
const DescriptorDim = 128

// Descriptor is a face embedding produced by the capture frontend.
// Descriptors are immutable once created.
type Descriptor []float64

// Profile is one employee's face profile as seen by the matcher and enroller.
// Descriptors are kept in insertion order; the oldest is evicted first when
// the configured cap is exceeded.
type Profile struct {
	EmployeeID  string
	Name        string
	Descriptors []Descriptor
	Enrolled    bool
	EnrolledAt  time.Time
}

// Match is a successful recognition result.
type Match struct {
	EmployeeID string  `json:"employee_id"`
	Name       string  `json:"employee_name"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
}

// Config holds the matching and learning parameters. All thresholds are
// injected here so they stay tunable and independently testable; nothing in
// this package hardcodes them.
type Config struct {
	// Threshold is the strict upper bound on the distance of an accepted
	// match. A candidate at exactly this distance is not a match.
	Threshold float64

	// DuplicateThreshold is the distance below which a new descriptor is
	// considered a duplicate of one already stored for the same employee.
	DuplicateThreshold float64

	// LearningConfidence gates adaptive learning: a clock event only appends
	// the observed descriptor when the match confidence exceeds it.
	LearningConfidence float64

	// MaxDescriptors caps the per-employee descriptor set.
	MaxDescriptors int

	// MaxDistanceScale normalizes distance into a 0..1 confidence score:
	// confidence = max(0, 1 - distance/MaxDistanceScale). Advisory only;
	// acceptance is always decided by Threshold.
	MaxDistanceScale float64
}

// DefaultConfig returns the calibration used in production.
func DefaultConfig() Config {
	return Config{
		Threshold:          0.6,
		DuplicateThreshold: 0.3,
		LearningConfidence: 0.7,
		MaxDescriptors:     5,
		MaxDistanceScale:   1.6,
	}
}
