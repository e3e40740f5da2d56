package metrigo

import (
	"context"

	"github.com/hupe1980/metrigo/cluster"
	"github.com/hupe1980/metrigo/cluster/kmeans"
	"github.com/hupe1980/metrigo/cluster/kmedoids"
	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/store"
	"github.com/hupe1980/metrigo/vptree"
)

// NewVPTree builds a VP-tree over the given vectors.
func NewVPTree(vectors [][]float32, m distance.Metric, optFns ...func(o *vptree.Options)) (*vptree.VPTree, error) {
	mem, err := store.NewMemoryFromVectors(vectors)
	if err != nil {
		return nil, err
	}
	return vptree.New(mem, m, optFns...)
}

// KMeans partitions the given vectors into k clusters around mean centers.
func KMeans(ctx context.Context, vectors [][]float32, k int, m distance.Metric, optFns ...func(o *kmeans.Options)) (*cluster.Result, error) {
	mem, err := store.NewMemoryFromVectors(vectors)
	if err != nil {
		return nil, err
	}
	km, err := kmeans.New(mem, m, optFns...)
	if err != nil {
		return nil, err
	}
	return km.Cluster(ctx, k)
}

// KMedoids partitions the given vectors into k clusters around medoid
// points.
func KMedoids(ctx context.Context, vectors [][]float32, k int, m distance.Metric, optFns ...func(o *kmedoids.Options)) (*cluster.Result, error) {
	mem, err := store.NewMemoryFromVectors(vectors)
	if err != nil {
		return nil, err
	}
	km, err := kmedoids.New(mem, m, optFns...)
	if err != nil {
		return nil, err
	}
	return km.Cluster(ctx, k)
}
