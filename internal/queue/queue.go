// Package queue provides a value-based binary heap keyed by distance.
// Value-based storage avoids pointer indirection and keeps heap operations
// allocation-free on the search hot path.
package queue

// Item is one heap entry: a point ID and its distance to the query.
type Item struct {
	ID       uint32
	Distance float32
}

// PriorityQueue is a binary heap of Items.
//
// Ordering is deterministic: ties on Distance are broken by ID. For a
// max-heap the larger ID sorts first, so when a bounded heap evicts its
// top, equal-distance entries with lower IDs are the ones retained.
type PriorityQueue struct {
	isMaxHeap bool
	items     []Item
}

// NewMin initializes a min-heap with the given capacity.
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{
		isMaxHeap: false,
		items:     make([]Item, 0, capacity),
	}
}

// NewMax initializes a max-heap with the given capacity.
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{
		isMaxHeap: true,
		items:     make([]Item, 0, capacity),
	}
}

// Len returns the number of elements in the queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Top returns the top element without removing it.
func (pq *PriorityQueue) Top() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// Push inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) Push(item Item) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// Pop removes and returns the top element.
func (pq *PriorityQueue) Pop() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items[n-1] = Item{}
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// ReplaceTop swaps the top element for item in a single sift.
func (pq *PriorityQueue) ReplaceTop(item Item) {
	if len(pq.items) == 0 {
		pq.Push(item)
		return
	}
	pq.items[0] = item
	pq.siftDown(0)
}

// Items returns the backing slice in heap order (not sorted).
func (pq *PriorityQueue) Items() []Item {
	return pq.items
}

// Reset clears the queue for reuse, keeping capacity.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

func (pq *PriorityQueue) less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if pq.isMaxHeap {
		if a.Distance != b.Distance {
			return a.Distance > b.Distance
		}
		return a.ID > b.ID
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.less(i, p) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && pq.less(r, l) {
			best = r
		}
		if !pq.less(best, i) {
			return
		}
		pq.items[i], pq.items[best] = pq.items[best], pq.items[i]
		i = best
	}
}
