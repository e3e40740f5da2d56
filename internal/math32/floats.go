// Package math32 provides float32 vector primitives shared by the distance
// and clustering packages. This is an internal package - external users should
// use the distance package.
package math32

import "math"

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}

	return ret
}

// SquaredL2 calculates the squared L2 distance between two vectors.
func SquaredL2(a, b []float32) float32 {
	var distance float32
	for i := range a {
		distance += (a[i] - b[i]) * (a[i] - b[i])
	}

	return distance
}

// L1 calculates the Manhattan distance between two vectors.
func L1(a, b []float32) float32 {
	var distance float32
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		distance += d
	}

	return distance
}

// LInf calculates the Chebyshev distance between two vectors.
func LInf(a, b []float32) float32 {
	var distance float32
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > distance {
			distance = d
		}
	}

	return distance
}

// Sqrt returns the square root of x.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace(a []float32, scalar float32) {
	for i := range a {
		a[i] *= scalar
	}
}
