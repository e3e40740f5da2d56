package distance

import (
	"github.com/hupe1980/metrigo/internal/math32"
	"github.com/hupe1980/metrigo/store"
)

// Space binds a metric to a vector store, together with the metric's
// acceleration cache (per-point squared norms, computed once over the
// collection). For Euclidean and squared-L2 metrics, pairwise distances are
// then derived as |u|² + |v|² - 2·u·v, skipping per-call norm work.
//
// The cache is tied to the store contents: after appending vectors, call
// Extend (or Refresh) before computing distances involving the new points.
// Distances for points beyond the cached range fall back to the direct
// distance function, so a stale cache is never incorrect, only slower.
type Space struct {
	metric Metric
	fn     Func
	data   store.Store
	norms  []float64 // squared norms; nil when the metric is not accelerated
}

// NewSpace creates a Space over the given store, precomputing the
// acceleration cache when the metric supports one.
func NewSpace(data store.Store, m Metric) (*Space, error) {
	fn, err := Provider(m)
	if err != nil {
		return nil, err
	}

	s := &Space{
		metric: m,
		fn:     fn,
		data:   data,
	}
	if SupportsAcceleration(m) {
		s.norms = make([]float64, 0, data.Len())
		s.Extend()
	}
	return s, nil
}

// Metric returns the metric this space was built with.
func (s *Space) Metric() Metric { return s.metric }

// Data returns the underlying vector store.
func (s *Space) Data() store.Store { return s.data }

// FuncOf returns the underlying distance function.
func (s *Space) FuncOf() Func { return s.fn }

// Accelerated reports whether the space carries an acceleration cache.
func (s *Space) Accelerated() bool { return s.norms != nil }

// Subadditive reports whether the space's metric obeys the triangle inequality.
func (s *Space) Subadditive() bool { return Subadditive(s.metric) }

// Valid reports whether the space's metric is a proper metric.
func (s *Space) Valid() bool { return Valid(s.metric) }

// Extend appends cache entries for points added to the store since the
// cache was last built. No-op for non-accelerated metrics.
func (s *Space) Extend() {
	if s.norms == nil {
		return
	}
	for i := len(s.norms); i < s.data.Len(); i++ {
		v := s.data.Vector(i)
		s.norms = append(s.norms, float64(math32.Dot(v, v)))
	}
}

// Refresh rebuilds the acceleration cache from scratch. Required if stored
// vectors were replaced in place rather than appended.
func (s *Space) Refresh() {
	if s.norms == nil {
		return
	}
	s.norms = s.norms[:0]
	s.Extend()
}

// Between returns the distance between points i and j of the store.
func (s *Space) Between(i, j int) float32 {
	if s.norms != nil && i < len(s.norms) && j < len(s.norms) {
		return s.fromSquared(s.sqFromCache(s.norms[i], s.norms[j], s.data.Vector(i), s.data.Vector(j)))
	}
	return s.fn(s.data.Vector(i), s.data.Vector(j))
}

// Query holds a fixed query vector with its precomputed squared norm,
// amortizing the norm over every distance evaluated during one search.
type Query struct {
	s    *Space
	q    []float32
	qSq  float64
	fast bool
}

// NewQuery prepares q for repeated distance evaluation against the store.
func (s *Space) NewQuery(q []float32) Query {
	qu := Query{s: s, q: q}
	if s.norms != nil {
		qu.qSq = float64(math32.Dot(q, q))
		qu.fast = true
	}
	return qu
}

// To returns the distance from the query to point i of the store.
func (qu Query) To(i int) float32 {
	s := qu.s
	if qu.fast && i < len(s.norms) {
		return s.fromSquared(s.sqFromCache(qu.qSq, s.norms[i], qu.q, s.data.Vector(i)))
	}
	return s.fn(qu.q, s.data.Vector(i))
}

// Vec returns the raw query vector.
func (qu Query) Vec() []float32 { return qu.q }

// sqFromCache derives the squared L2 distance from cached norms and one dot
// product, accumulated in float64 to avoid cancellation noise.
func (s *Space) sqFromCache(na, nb float64, a, b []float32) float64 {
	sq := na + nb - 2*float64(math32.Dot(a, b))
	if sq < 0 {
		sq = 0
	}
	return sq
}

func (s *Space) fromSquared(sq float64) float32 {
	if s.metric == MetricEuclidean {
		return math32.Sqrt(float32(sq))
	}
	return float32(sq)
}
