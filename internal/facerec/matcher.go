package facerec

// Matcher finds the enrolled employee whose stored appearance best matches a
// query descriptor.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a matcher with the given calibration.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// Confidence converts a match distance into an advisory 0..1 score.
// The mapping is monotone decreasing; it never influences acceptance.
func (m *Matcher) Confidence(distance float64) float64 {
	c := 1 - distance/m.cfg.MaxDistanceScale
	if c < 0 {
		return 0
	}
	return c
}

// FindBestMatch scores query against every enrolled candidate and returns the
// best match, or nil when no candidate clears the configured threshold.
//
// Each candidate is represented by the minimum distance from the query to any
// of its stored descriptors: an employee matches if any of their recorded
// appearances is close, not the average of them. Candidates with an empty
// descriptor set never match. When two candidates produce identical minimum
// distances the first one in iteration order wins; callers must not rely on
// a particular tie-break.
func (m *Matcher) FindBestMatch(query Descriptor, candidates []Profile) *Match {
	return m.FindBestMatchThreshold(query, candidates, m.cfg.Threshold)
}

// FindBestMatchThreshold is FindBestMatch with a per-call threshold override.
// Acceptance is strict: the winning distance must be below the threshold.
func (m *Matcher) FindBestMatchThreshold(query Descriptor, candidates []Profile, threshold float64) *Match {
	var best *Match
	for i := range candidates {
		c := &candidates[i]
		if !c.Enrolled || len(c.Descriptors) == 0 {
			continue
		}
		dist := minDistance(query, c.Descriptors)
		if dist >= threshold {
			continue
		}
		if best == nil || dist < best.Distance {
			best = &Match{
				EmployeeID: c.EmployeeID,
				Name:       c.Name,
				Distance:   dist,
				Confidence: m.Confidence(dist),
			}
		}
	}
	return best
}
