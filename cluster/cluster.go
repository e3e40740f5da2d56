// Package cluster provides partitional clustering over a metric space:
// shared result types, seed selection strategies, and the common
// preconditions of the concrete algorithms in the subpackages kmeans and
// kmedoids.
package cluster

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyData is returned when clustering is requested over an empty
	// data set.
	ErrEmptyData = errors.New("cluster: data set is empty")
	// ErrInvalidK is returned for a non-positive cluster count.
	ErrInvalidK = errors.New("cluster: k must be positive")
)

// ErrTooManyClusters is a named error type returned when more clusters are
// requested than there are data points.
type ErrTooManyClusters struct {
	K int // Requested clusters
	N int // Available points
}

func (e *ErrTooManyClusters) Error() string {
	return fmt.Sprintf("cluster: %d clusters requested over %d points", e.K, e.N)
}

// Result is the outcome of a clustering run.
type Result struct {
	// Assignments maps each point index to its cluster in [0, K).
	Assignments []int

	// Centroids are the synthetic cluster centers (k-means); nil for
	// medoid-based algorithms.
	Centroids [][]float32

	// Medoids are the point indices acting as cluster centers (k-medoids);
	// nil for centroid-based algorithms.
	Medoids []int

	// Iterations is the number of iterations performed.
	Iterations int

	// Changes is the number of points that changed assignment in the final
	// iteration; zero when converged.
	Changes int

	// Converged reports whether the run stopped because no assignment
	// changed, as opposed to hitting the iteration cap.
	Converged bool
}

// Clusterer partitions its data set into k clusters.
type Clusterer interface {
	Cluster(ctx context.Context, k int) (*Result, error)
}

// CheckArgs validates the common preconditions of every clustering entry
// point: a non-empty data set and 0 < k <= n. The checks run before any
// work begins or any caller-visible state is touched.
func CheckArgs(n, k int) error {
	if n == 0 {
		return ErrEmptyData
	}
	if k <= 0 {
		return ErrInvalidK
	}
	if k > n {
		return &ErrTooManyClusters{K: k, N: n}
	}
	return nil
}
