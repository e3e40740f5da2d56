package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{1, 1, -2}, -4},
		{"Empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Dot(tt.a, tt.b), 1e-5)
		})
	}
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1}, []float32{-1, 1}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SquaredL2(tt.a, tt.b), 1e-5)
		})
	}
}

func TestL1(t *testing.T) {
	assert.InDelta(t, 9, L1([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-5)
	assert.InDelta(t, 4, L1([]float32{1, -1}, []float32{-1, 1}), 1e-5)
	assert.InDelta(t, 0, L1([]float32{1, 2}, []float32{1, 2}), 1e-5)
}

func TestLInf(t *testing.T) {
	assert.InDelta(t, 3, LInf([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-5)
	assert.InDelta(t, 2, LInf([]float32{1, -1}, []float32{-1, 1}), 1e-5)
}

func TestScaleInPlace(t *testing.T) {
	v := []float32{1, 2, 3}
	ScaleInPlace(v, 2)
	assert.Equal(t, []float32{2, 4, 6}, v)
}
