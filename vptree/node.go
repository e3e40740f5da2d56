package vptree

// node is a tagged internal/leaf variant. For internal nodes, every point
// in the left subtree is at distance [leftLow, leftHigh] from vp, and every
// point in the right subtree at [rightLow, rightHigh]; these bands drive
// subtree pruning.
type node struct {
	// internal
	vp        uint32
	leftLow   float32
	leftHigh  float32
	rightLow  float32
	rightHigh float32
	left      *node
	right     *node

	// leaf
	leaf  bool
	items []item
}

// item is one leaf entry: a point index plus its distance to the parent
// node's vantage point, used as a cheap triangle-inequality pre-filter
// before the true distance is computed.
type item struct {
	id         uint32
	parentDist float32
}
