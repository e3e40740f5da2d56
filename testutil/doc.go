// Package testutil provides deterministic random data generation shared by
// tests and benchmarks: a seeded, thread-safe RNG and generators for
// uniform vectors and Gaussian cluster blobs.
package testutil
