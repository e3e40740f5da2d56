package distance

import (
	"fmt"

	"github.com/hupe1980/metrigo/internal/math32"
)

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	// MetricEuclidean is the L2 norm. A valid metric: reflexive, symmetric
	// and subadditive (triangle inequality holds).
	MetricEuclidean Metric = iota
	// MetricSquaredL2 is the squared L2 norm. Cheaper than Euclidean but
	// NOT subadditive; it cannot drive triangle-inequality pruning.
	MetricSquaredL2
	// MetricManhattan is the L1 norm. A valid metric.
	MetricManhattan
	// MetricChebyshev is the L∞ norm. A valid metric.
	MetricChebyshev
	// MetricCosine is cosine distance (1 - cosine similarity). Not a
	// valid metric.
	MetricCosine
	// MetricDot is negated dot product, so that smaller means closer.
	// Not a valid metric.
	MetricDot
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "Euclidean"
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricManhattan:
		return "Manhattan"
	case MetricChebyshev:
		return "Chebyshev"
	case MetricCosine:
		return "Cosine"
	case MetricDot:
		return "Dot"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Func is a function type for distance calculation.
// Implementations assume both vectors have the same length
// (caller's responsibility).
type Func func(a, b []float32) float32

// Euclidean calculates the L2 distance between two vectors.
func Euclidean(a, b []float32) float32 {
	return math32.Sqrt(math32.SquaredL2(a, b))
}

// SquaredL2 calculates the squared L2 distance between two vectors.
func SquaredL2(a, b []float32) float32 {
	return math32.SquaredL2(a, b)
}

// Manhattan calculates the L1 distance between two vectors.
func Manhattan(a, b []float32) float32 {
	return math32.L1(a, b)
}

// Chebyshev calculates the L∞ distance between two vectors.
func Chebyshev(a, b []float32) float32 {
	return math32.LInf(a, b)
}

// Cosine calculates the cosine distance (1 - cosine similarity).
// Zero vectors are treated as maximally distant (distance 1).
func Cosine(a, b []float32) float32 {
	dot := math32.Dot(a, b)
	na := math32.Sqrt(math32.Dot(a, a))
	nb := math32.Sqrt(math32.Dot(b, b))
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(na*nb)
}

// NegDot calculates the negated dot product of two vectors.
func NegDot(a, b []float32) float32 {
	return -math32.Dot(a, b)
}

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricSquaredL2:
		return SquaredL2, nil
	case MetricManhattan:
		return Manhattan, nil
	case MetricChebyshev:
		return Chebyshev, nil
	case MetricCosine:
		return Cosine, nil
	case MetricDot:
		return NegDot, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Subadditive reports whether the metric obeys the triangle inequality
// dist(a,c) <= dist(a,b) + dist(b,c). Subadditivity is a precondition for
// VP-tree pruning and for TRIKMEDS bounds; running those on a
// non-subadditive metric silently produces wrong answers, so callers gate
// on this predicate and fail fast.
func Subadditive(m Metric) bool {
	switch m {
	case MetricEuclidean, MetricManhattan, MetricChebyshev:
		return true
	default:
		return false
	}
}

// Valid reports whether the metric is a proper metric: reflexive,
// symmetric and subadditive.
func Valid(m Metric) bool {
	return Subadditive(m)
}

// SupportsAcceleration reports whether the metric benefits from the
// squared-norm acceleration cache (see Space).
func SupportsAcceleration(m Metric) bool {
	switch m {
	case MetricEuclidean, MetricSquaredL2:
		return true
	default:
		return false
	}
}
