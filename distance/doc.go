// Package distance provides the distance-metric contract shared by the
// vptree and cluster packages: concrete distance functions, metric property
// predicates that gate which accelerated algorithms may safely run, and an
// acceleration cache (Space) that reuses precomputed per-point squared norms
// across repeated distance evaluations against a fixed collection.
package distance
