package vptree

import (
	"math"
	"sort"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/internal/queue"
	"github.com/hupe1980/metrigo/store"
)

// Result represents a search result.
type Result struct {
	// ID is the index of the matched point in the store.
	ID uint32

	// Distance is the distance between the query and the matched point.
	Distance float32
}

// sortResults orders results by ascending distance, then ascending ID.
// Together with the eviction policy of the bounded heap this makes every
// search deterministic: equal-distance candidates resolve in favor of the
// lowest point index.
func sortResults(rs []Result) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Distance != rs[j].Distance {
			return rs[i].Distance < rs[j].Distance
		}
		return rs[i].ID < rs[j].ID
	})
}

// knnCollector is a bounded max-heap of the best k candidates seen so far.
type knnCollector struct {
	h *queue.PriorityQueue
	k int
}

func newKNNCollector(k int) *knnCollector {
	return &knnCollector{h: queue.NewMax(k), k: k}
}

// tau returns the current worst acceptable distance: the heap max while
// full, +Inf otherwise.
func (c *knnCollector) tau() float32 {
	if c.h.Len() < c.k {
		return float32(math.Inf(1))
	}
	top, _ := c.h.Top()
	return top.Distance
}

// offer inserts the candidate if the heap has room or it beats the current
// worst. Ties on distance keep the lower ID.
func (c *knnCollector) offer(id uint32, d float32) {
	if c.h.Len() < c.k {
		c.h.Push(queue.Item{ID: id, Distance: d})
		return
	}
	top, _ := c.h.Top()
	if d < top.Distance || (d == top.Distance && id < top.ID) {
		c.h.ReplaceTop(queue.Item{ID: id, Distance: d})
	}
}

func (c *knnCollector) results() []Result {
	rs := make([]Result, 0, c.h.Len())
	for _, it := range c.h.Items() {
		rs = append(rs, Result{ID: it.ID, Distance: it.Distance})
	}
	sortResults(rs)
	return rs
}

// KNNSearch returns the k nearest neighbors of q, sorted by ascending
// distance (ties by ascending point index). filter, if non-nil, restricts
// results to IDs it accepts; filtered points still participate in tree
// routing. Fewer than k results are returned when the tree (or the
// filtered subset) is smaller than k.
func (t *VPTree) KNNSearch(q []float32, k int, filter func(id uint32) bool) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if err := t.checkDims(q); err != nil {
		return nil, err
	}
	if t.root == nil {
		return []Result{}, nil
	}

	qu := t.space.NewQuery(q)
	c := newKNNCollector(k)
	t.searchNode(t.root, qu, c, 0, false, filter)
	return c.results(), nil
}

func (t *VPTree) searchNode(n *node, qu distance.Query, c *knnCollector, parentDist float32, haveParent bool, filter func(id uint32) bool) {
	if n.leaf {
		for _, it := range n.items {
			if haveParent {
				// |d(q,vp) - d(p,vp)| lower-bounds d(q,p); skip points
				// that cannot beat the current worst.
				if diff := abs32(parentDist - it.parentDist); diff > c.tau() {
					continue
				}
			}
			if filter != nil && !filter(it.id) {
				continue
			}
			c.offer(it.id, qu.To(int(it.id)))
		}
		return
	}

	d := qu.To(int(n.vp))
	if filter == nil || filter(n.vp) {
		c.offer(n.vp, d)
	}

	mid := (n.leftHigh + n.rightLow) / 2

	type side struct {
		child     *node
		low, high float32
	}
	near := side{n.left, n.leftLow, n.leftHigh}
	far := side{n.right, n.rightLow, n.rightHigh}
	if d >= mid {
		near, far = far, near
	}

	// Search the nearer side first so tau tightens before the far side's
	// band is tested.
	if near.child != nil {
		if tau := c.tau(); d >= near.low-tau && d <= near.high+tau {
			t.searchNode(near.child, qu, c, d, true, filter)
		}
	}
	if far.child != nil {
		if tau := c.tau(); d >= far.low-tau && d <= far.high+tau {
			t.searchNode(far.child, qu, c, d, true, filter)
		}
	}
}

// RangeSearch returns all points within radius r of q, sorted by ascending
// distance (ties by ascending point index).
func (t *VPTree) RangeSearch(q []float32, r float32, filter func(id uint32) bool) ([]Result, error) {
	if r < 0 {
		return nil, ErrInvalidRange
	}
	if err := t.checkDims(q); err != nil {
		return nil, err
	}
	if t.root == nil {
		return []Result{}, nil
	}

	qu := t.space.NewQuery(q)
	var rs []Result
	t.rangeNode(t.root, qu, r, 0, false, filter, &rs)
	sortResults(rs)
	return rs, nil
}

func (t *VPTree) rangeNode(n *node, qu distance.Query, r, parentDist float32, haveParent bool, filter func(id uint32) bool, out *[]Result) {
	if n.leaf {
		for _, it := range n.items {
			if haveParent && abs32(parentDist-it.parentDist) > r {
				continue
			}
			if filter != nil && !filter(it.id) {
				continue
			}
			if d := qu.To(int(it.id)); d <= r {
				*out = append(*out, Result{ID: it.id, Distance: d})
			}
		}
		return
	}

	d := qu.To(int(n.vp))
	if d <= r && (filter == nil || filter(n.vp)) {
		*out = append(*out, Result{ID: n.vp, Distance: d})
	}

	if n.left != nil && d >= n.leftLow-r && d <= n.leftHigh+r {
		t.rangeNode(n.left, qu, r, d, true, filter, out)
	}
	if n.right != nil && d >= n.rightLow-r && d <= n.rightHigh+r {
		t.rangeNode(n.right, qu, r, d, true, filter, out)
	}
}

// BruteSearch performs a linear-scan k-nearest-neighbor search over the
// store with the same result semantics as KNNSearch. It is the reference
// oracle for the tree and the sensible choice for very small collections.
func (t *VPTree) BruteSearch(q []float32, k int, filter func(id uint32) bool) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if err := t.checkDims(q); err != nil {
		return nil, err
	}

	qu := t.space.NewQuery(q)
	c := newKNNCollector(k)
	for i := 0; i < t.data.Len(); i++ {
		id := uint32(i)
		if filter != nil && !filter(id) {
			continue
		}
		c.offer(id, qu.To(i))
	}
	return c.results(), nil
}

func (t *VPTree) checkDims(q []float32) error {
	if dims := t.data.Dims(); dims != 0 && len(q) != dims {
		return &store.ErrDimensionMismatch{Expected: dims, Actual: len(q)}
	}
	return nil
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
