package facerec

import (
	"math"
	"testing"
)

func enrolledProfile(id, name string, descriptors ...Descriptor) Profile {
	return Profile{
		EmployeeID:  id,
		Name:        name,
		Descriptors: descriptors,
		Enrolled:    len(descriptors) > 0,
	}
}

func TestFindBestMatchEmptyPool(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	if got := m.FindBestMatch(descriptorAt(0), nil); got != nil {
		t.Errorf("match against empty pool = %+v, want nil", got)
	}
	if got := m.FindBestMatch(descriptorAt(0), []Profile{}); got != nil {
		t.Errorf("match against empty slice = %+v, want nil", got)
	}
}

func TestFindBestMatchSkipsUnenrolled(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	pool := []Profile{
		{EmployeeID: "e1", Name: "Alice", Enrolled: false},
		{EmployeeID: "e2", Name: "Bob", Enrolled: true}, // enrolled flag set but set empty
	}

	if got := m.FindBestMatch(descriptorAt(0), pool); got != nil {
		t.Errorf("match = %+v, want nil; unenrolled profiles must not be candidates", got)
	}
}

func TestFindBestMatchThresholdBoundary(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMatcher(cfg)
	pool := []Profile{enrolledProfile("e1", "Alice", descriptorAt(0))}

	// Exactly at the threshold: not a match (strict <).
	if got := m.FindBestMatch(descriptorAt(cfg.Threshold), pool); got != nil {
		t.Errorf("distance == threshold matched: %+v", got)
	}

	// Just under the threshold: match.
	got := m.FindBestMatch(descriptorAt(cfg.Threshold-1e-9), pool)
	if got == nil {
		t.Fatal("distance just under threshold did not match")
	}
	if got.EmployeeID != "e1" {
		t.Errorf("matched employee = %s, want e1", got.EmployeeID)
	}
}

func TestFindBestMatchUsesClosestOwnDescriptor(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	// Alice has a far appearance and a close one; the close one must win.
	pool := []Profile{
		enrolledProfile("e1", "Alice", descriptorAt(5), descriptorAt(0.1)),
	}

	got := m.FindBestMatch(descriptorAt(0), pool)
	if got == nil {
		t.Fatal("expected a match")
	}
	if math.Abs(got.Distance-0.1) > 1e-12 {
		t.Errorf("representative distance = %v, want 0.1 (best appearance wins)", got.Distance)
	}
}

func TestFindBestMatchPicksGlobalMinimum(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	pool := []Profile{
		enrolledProfile("e1", "Alice", descriptorAt(0.4)),
		enrolledProfile("e2", "Bob", descriptorAt(0.2)),
		enrolledProfile("e3", "Carol", descriptorAt(0.5)),
	}

	got := m.FindBestMatch(descriptorAt(0), pool)
	if got == nil {
		t.Fatal("expected a match")
	}
	if got.EmployeeID != "e2" {
		t.Errorf("matched %s, want e2 (global minimum distance)", got.EmployeeID)
	}
}

func TestFindBestMatchThresholdOverride(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	pool := []Profile{enrolledProfile("e1", "Alice", descriptorAt(0))}
	query := descriptorAt(0.5)

	if got := m.FindBestMatch(query, pool); got == nil {
		t.Error("0.5 should match at the default 0.6 threshold")
	}
	if got := m.FindBestMatchThreshold(query, pool, 0.4); got != nil {
		t.Errorf("0.5 matched with an 0.4 override: %+v", got)
	}
}

func TestConfidenceMapping(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	if got := m.Confidence(0); got != 1 {
		t.Errorf("Confidence(0) = %v, want 1", got)
	}
	if got := m.Confidence(0.4); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("Confidence(0.4) = %v, want 0.75", got)
	}
	if got := m.Confidence(100); got != 0 {
		t.Errorf("Confidence(100) = %v, want clamp to 0", got)
	}
	// Monotone decreasing.
	prev := m.Confidence(0)
	for d := 0.1; d < 2; d += 0.1 {
		c := m.Confidence(d)
		if c > prev {
			t.Fatalf("confidence not monotone: Confidence(%v)=%v > %v", d, c, prev)
		}
		prev = c
	}
}
