package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformVectors generates num random vectors with values in [-1, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()*2 - 1
		}
		vectors[i] = vec
	}

	return vectors
}

// UniformFlat generates num random vectors in [-1, 1) as one flat
// row-major slice.
func (r *RNG) UniformFlat(num, dimensions int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	for i := range data {
		data[i] = r.rand.Float32()*2 - 1
	}
	return data
}

// GaussianBlobs generates perBlob points around each center with the given
// standard deviation. Points are emitted blob-by-blob, so point i belongs
// to blob i/perBlob.
func (r *RNG) GaussianBlobs(centers [][]float32, perBlob int, sigma float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var vectors [][]float32
	for _, c := range centers {
		for i := 0; i < perBlob; i++ {
			v := make([]float32, len(c))
			for j := range v {
				v[j] = c[j] + float32(r.rand.NormFloat64())*sigma
			}
			vectors = append(vectors, v)
		}
	}
	return vectors
}

// Line1D returns the integers 0..n-1 embedded as 1-D points.
func Line1D(n int) [][]float32 {
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{float32(i)}
	}
	return vectors
}

// NearlyEqual reports whether two floats are within tol of each other.
func NearlyEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
