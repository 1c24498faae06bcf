package facerec

import "time"

// Outcome classifies the result of a registration attempt.
type Outcome string

const (
	// OutcomeAccepted means the descriptor was appended to the profile.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeDuplicate means the descriptor was too similar to one already
	// stored for the same employee. This is a successful no-op, not an error.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeConflict means the descriptor matched a different enrolled
	// employee; it was not stored.
	OutcomeConflict Outcome = "conflict"
)

// RegisterResult reports what a Register call did to the profile.
type RegisterResult struct {
	Outcome  Outcome
	Conflict *Match // the other employee this face matched, set iff OutcomeConflict
	Count    int    // descriptors stored on the profile after the call
}

// Enroller owns the policy for growing an employee's descriptor set: global
// one-face-one-employee uniqueness, per-employee duplicate suppression, the
// bounded descriptor history, and confidence-gated adaptive learning.
type Enroller struct {
	cfg     Config
	matcher *Matcher
}

// NewEnroller creates an enroller with the given calibration.
func NewEnroller(cfg Config) *Enroller {
	return &Enroller{cfg: cfg, matcher: NewMatcher(cfg)}
}

// Register attempts to add descriptor to profile. others is the pool of all
// enrolled employees excluding this one; when the descriptor matches any of
// them at the recognition threshold the registration is rejected as a
// conflict and the profile is left untouched. A descriptor within the
// duplicate threshold of the profile's own set is reported as a duplicate
// no-op. Otherwise the descriptor is appended with FIFO eviction at the cap
// and the enrollment timestamp is refreshed.
//
// The caller is responsible for persisting the mutated profile.
func (e *Enroller) Register(profile *Profile, others []Profile, descriptor Descriptor) RegisterResult {
	if conflict := e.matcher.FindBestMatch(descriptor, others); conflict != nil {
		return RegisterResult{
			Outcome:  OutcomeConflict,
			Conflict: conflict,
			Count:    len(profile.Descriptors),
		}
	}

	if minDistance(descriptor, profile.Descriptors) < e.cfg.DuplicateThreshold {
		return RegisterResult{
			Outcome: OutcomeDuplicate,
			Count:   len(profile.Descriptors),
		}
	}

	e.append(profile, descriptor)
	return RegisterResult{
		Outcome: OutcomeAccepted,
		Count:   len(profile.Descriptors),
	}
}

// Observe feeds a successfully recognized descriptor back into the matched
// employee's profile. The descriptor is appended only when it is a genuinely
// new appearance (minimum distance to the existing set above the duplicate
// threshold) and the match confidence exceeds the learning gate; the double
// condition avoids both redundant storage and learning from a possibly-wrong
// match. Returns whether the profile changed.
//
// Observe never fails: a skipped append must not affect the outcome of the
// surrounding clock event.
func (e *Enroller) Observe(profile *Profile, descriptor Descriptor, confidence float64) bool {
	if confidence <= e.cfg.LearningConfidence {
		return false
	}
	if minDistance(descriptor, profile.Descriptors) <= e.cfg.DuplicateThreshold {
		return false
	}
	e.append(profile, descriptor)
	return true
}

// append adds the descriptor to the profile, evicting the oldest entry when
// the cap is exceeded, and marks the profile enrolled.
func (e *Enroller) append(profile *Profile, descriptor Descriptor) {
	profile.Descriptors = append(profile.Descriptors, descriptor)
	if n := len(profile.Descriptors); n > e.cfg.MaxDescriptors {
		profile.Descriptors = profile.Descriptors[n-e.cfg.MaxDescriptors:]
	}
	profile.Enrolled = true
	profile.EnrolledAt = time.Now().UTC()
}
