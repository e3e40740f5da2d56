// Package metrigo provides metric-space indexing and accelerated
// clustering for Go.
//
// The library is organized around a small set of composable packages:
//
//   - distance: metric functions, property predicates (subadditivity,
//     metric validity) and the norm acceleration cache
//   - store: random-access vector collections (in-memory, mmap-backed)
//   - vptree: an exact k-NN / range index over any subadditive metric
//   - cluster: seed selection and shared clustering types
//   - cluster/kmeans: Lloyd and Hamerly-accelerated k-means
//   - cluster/kmedoids: PAM, TRIKMEDS (exact) and MEDDIT (approximate)
//   - snapshot, blobstore: persistence of indexes and models
//
// # Quick Start
//
// Index a point set and query it:
//
//	vecs, _ := store.NewMemoryFromVectors(points)
//	tree, _ := vptree.New(vecs, distance.MetricEuclidean)
//	hits, _ := tree.KNNSearch(query, 10, nil)
//
// Cluster it:
//
//	km, _ := kmeans.New(vecs, distance.MetricEuclidean)
//	res, _ := km.Cluster(ctx, 8)
//
// The root package offers one-call conveniences over raw [][]float32 for
// the common cases; drop to the subpackages for options, read-only mmap
// stores, filters and persistence.
package metrigo
