package facerec

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Distance computes the Euclidean (L2) distance between two descriptors.
// Both descriptors must have the same length; callers are expected to have
// run ValidDescriptor on untrusted input first.
func Distance(a, b Descriptor) float64 {
	return floats.Distance(a, b, 2)
}

// ValidDescriptor reports whether x is a well-formed face descriptor:
// exactly DescriptorDim finite values. NaN and infinity are rejected because
// they would poison every distance computation they touch.
func ValidDescriptor(x []float64) bool {
	if len(x) != DescriptorDim {
		return false
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// minDistance returns the smallest distance from query to any descriptor in
// the set, or +Inf for an empty set.
func minDistance(query Descriptor, set []Descriptor) float64 {
	best := math.Inf(1)
	for _, d := range set {
		if dist := Distance(query, d); dist < best {
			best = dist
		}
	}
	return best
}
