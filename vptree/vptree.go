// Package vptree implements a vantage-point tree: a binary spatial
// partition over a metric space supporting exact k-nearest-neighbor and
// range queries with triangle-inequality pruning.
//
// Each internal node holds a vantage point and the min/max distance from it
// to the points of each child subtree; a query skips a subtree whose
// distance band cannot contain a better candidate than the current worst.
// The metric must be subadditive (obey the triangle inequality) or pruning
// silently returns wrong results, so construction fails fast for
// non-subadditive metrics.
package vptree

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/store"
)

var (
	// ErrNotSubadditive is returned when the tree is constructed with a
	// metric that does not obey the triangle inequality.
	ErrNotSubadditive = errors.New("vptree: metric is not subadditive")
	// ErrInvalidK is returned for non-positive k in KNNSearch.
	ErrInvalidK = errors.New("vptree: k must be positive")
	// ErrInvalidRange is returned for negative radius in RangeSearch.
	ErrInvalidRange = errors.New("vptree: range must be non-negative")
)

// SelectionStrategy controls how the vantage point of an internal node is
// chosen during construction.
type SelectionStrategy int

const (
	// SelectRandom picks a uniformly random point of the working set.
	SelectRandom SelectionStrategy = iota
	// SelectSampling draws a sample of candidate points and a sample of
	// target points and keeps the candidate whose distances to the targets
	// have the largest spread (sum of absolute deviations from the
	// median), approximating the point that best separates the space.
	SelectSampling
)

func (s SelectionStrategy) String() string {
	switch s {
	case SelectRandom:
		return "Random"
	case SelectSampling:
		return "Sampling"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Options contains configuration options for the VP-tree.
type Options struct {
	// LeafCapacity is the target number of points per leaf. A leaf grown
	// past LeafCapacity² by Insert is rebuilt as a subtree.
	LeafCapacity int

	// Selection is the vantage-point selection strategy.
	Selection SelectionStrategy

	// SampleSize is the number of candidates and of targets drawn per
	// internal node when Selection is SelectSampling.
	SampleSize int

	// Seed seeds the RNG used for vantage-point selection. Construction
	// is deterministic for a fixed seed.
	Seed int64
}

// DefaultOptions contains the default configuration options for the VP-tree.
var DefaultOptions = Options{
	LeafCapacity: 5,
	Selection:    SelectRandom,
	SampleSize:   20,
	Seed:         1,
}

// VPTree is a vantage-point tree over a vector store.
//
// The tree references point indices of the store and never copies vectors.
// It is safe for concurrent queries; Insert must not run concurrently with
// queries or other inserts.
type VPTree struct {
	data  store.Store
	space *distance.Space
	opts  Options
	rng   *rand.Rand
	root  *node
	size  int
}

// New builds a VP-tree over all points currently in data. An empty store
// yields an empty tree whose searches return empty results.
func New(data store.Store, m distance.Metric, optFns ...func(o *Options)) (*VPTree, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.LeafCapacity < 1 {
		return nil, fmt.Errorf("vptree: leaf capacity must be >= 1, got %d", opts.LeafCapacity)
	}
	if opts.Selection == SelectSampling && opts.SampleSize < 2 {
		return nil, fmt.Errorf("vptree: sample size must be >= 2, got %d", opts.SampleSize)
	}
	if !distance.Subadditive(m) {
		return nil, fmt.Errorf("%w: %s", ErrNotSubadditive, m)
	}

	space, err := distance.NewSpace(data, m)
	if err != nil {
		return nil, err
	}

	t := &VPTree{
		data:  data,
		space: space,
		opts:  opts,
		rng:   rand.New(rand.NewSource(opts.Seed)), // nolint gosec
	}

	n := data.Len()
	if n > 0 {
		ids := make([]uint32, n)
		for i := range ids {
			ids[i] = uint32(i)
		}
		t.root = t.build(ids, nil)
		t.size = n
	}

	return t, nil
}

// Len returns the number of indexed points.
func (t *VPTree) Len() int { return t.size }

// Metric returns the metric the tree was built with.
func (t *VPTree) Metric() distance.Metric { return t.space.Metric() }

// build recursively constructs the subtree over ids. parentDists[i] is the
// distance from ids[i] to the parent node's vantage point (nil at the root);
// it is retained only when the set becomes a leaf, as the leaf pre-filter
// distance.
func (t *VPTree) build(ids []uint32, parentDists []float32) *node {
	if len(ids) == 0 {
		return nil
	}

	// Sets too small to split safely become leaves even if slightly over
	// capacity (splitting 2 points leaves an empty side).
	if len(ids) <= t.opts.LeafCapacity || len(ids) < 3 {
		items := make([]item, len(ids))
		for i, id := range ids {
			var pd float32
			if parentDists != nil {
				pd = parentDists[i]
			}
			items[i] = item{id: id, parentDist: pd}
		}
		return &node{leaf: true, items: items}
	}

	sel := t.selectVantagePoint(ids)
	vp := ids[sel]
	ids[sel] = ids[len(ids)-1]
	rest := ids[:len(ids)-1]

	byDist := make([]pointDist, len(rest))
	for i, id := range rest {
		byDist[i] = pointDist{id: id, dist: t.space.Between(int(vp), int(id))}
	}
	sort.Slice(byDist, func(i, j int) bool {
		if byDist[i].dist != byDist[j].dist {
			return byDist[i].dist < byDist[j].dist
		}
		return byDist[i].id < byDist[j].id
	})

	median := len(byDist) / 2
	leftIDs := make([]uint32, median)
	leftDists := make([]float32, median)
	for i, pd := range byDist[:median] {
		leftIDs[i] = pd.id
		leftDists[i] = pd.dist
	}
	rightIDs := make([]uint32, len(byDist)-median)
	rightDists := make([]float32, len(byDist)-median)
	for i, pd := range byDist[median:] {
		rightIDs[i] = pd.id
		rightDists[i] = pd.dist
	}

	n := &node{
		vp:        vp,
		leftLow:   leftDists[0],
		leftHigh:  leftDists[len(leftDists)-1],
		rightLow:  rightDists[0],
		rightHigh: rightDists[len(rightDists)-1],
	}
	n.left = t.build(leftIDs, leftDists)
	n.right = t.build(rightIDs, rightDists)
	return n
}

type pointDist struct {
	id   uint32
	dist float32
}

// selectVantagePoint returns the position within ids of the chosen vantage
// point.
func (t *VPTree) selectVantagePoint(ids []uint32) int {
	if t.opts.Selection == SelectRandom || len(ids) <= 2 {
		return t.rng.Intn(len(ids))
	}

	sample := t.opts.SampleSize
	if sample > len(ids) {
		sample = len(ids)
	}

	// Candidates and targets are drawn with replacement; the strategy is a
	// heuristic and exact de-duplication is not worth the bookkeeping.
	candidates := make([]int, sample)
	targets := make([]uint32, sample)
	for i := 0; i < sample; i++ {
		candidates[i] = t.rng.Intn(len(ids))
		targets[i] = ids[t.rng.Intn(len(ids))]
	}

	dists := make([]float64, sample)
	best := candidates[0]
	bestSpread := -1.0
	for _, c := range candidates {
		cid := ids[c]
		for i, tid := range targets {
			dists[i] = float64(t.space.Between(int(cid), int(tid)))
		}
		sort.Float64s(dists)
		med := dists[len(dists)/2]

		var spread float64
		for _, d := range dists {
			spread += math.Abs(d - med)
		}
		if spread > bestSpread {
			bestSpread = spread
			best = c
		}
	}
	return best
}

// Insert appends v to the underlying store and grows the tree to cover it.
// The store must support appending (store.Appender); read-only stores such
// as mmap-backed files return store.ErrReadOnly.
//
// A leaf grown past LeafCapacity² is rebuilt in place as a subtree,
// amortizing rebuild cost while bounding leaf bloat.
func (t *VPTree) Insert(v []float32) (uint32, error) {
	app, ok := t.data.(store.Appender)
	if !ok {
		return 0, store.ErrReadOnly
	}
	if dims := t.data.Dims(); dims != 0 && len(v) != dims {
		return 0, &store.ErrDimensionMismatch{Expected: dims, Actual: len(v)}
	}

	idx, err := app.Append(v)
	if err != nil {
		return 0, err
	}
	t.space.Extend()
	id := uint32(idx)

	if t.root == nil {
		t.root = &node{leaf: true, items: []item{{id: id}}}
		t.size++
		return id, nil
	}

	n := t.root
	var parentDist float32
	for !n.leaf {
		d := t.space.Between(int(n.vp), int(id))
		mid := (n.leftHigh + n.rightLow) / 2
		if d < mid {
			if d < n.leftLow {
				n.leftLow = d
			}
			if d > n.leftHigh {
				n.leftHigh = d
			}
			n = n.left
		} else {
			if d < n.rightLow {
				n.rightLow = d
			}
			if d > n.rightHigh {
				n.rightHigh = d
			}
			n = n.right
		}
		parentDist = d
	}

	n.items = append(n.items, item{id: id, parentDist: parentDist})
	t.size++

	if len(n.items) > t.opts.LeafCapacity*t.opts.LeafCapacity {
		ids := make([]uint32, len(n.items))
		dists := make([]float32, len(n.items))
		for i, it := range n.items {
			ids[i] = it.id
			dists[i] = it.parentDist
		}
		rebuilt := t.build(ids, dists)
		*n = *rebuilt
	}

	return id, nil
}

// Stats describes the shape of the tree.
type Stats struct {
	Size          int // indexed points
	InternalNodes int
	Leaves        int
	MaxDepth      int
	MaxLeafSize   int
}

// Stats walks the tree and returns shape statistics.
func (t *VPTree) Stats() Stats {
	s := Stats{Size: t.size}

	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		if n == nil {
			return
		}
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if n.leaf {
			s.Leaves++
			if len(n.items) > s.MaxLeafSize {
				s.MaxLeafSize = len(n.items)
			}
			return
		}
		s.InternalNodes++
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(t.root, 0)
	return s
}
