package store

// Compile-time checks to ensure Memory satisfies required interfaces.
var (
	_ Store    = (*Memory)(nil)
	_ Appender = (*Memory)(nil)
)

// Memory is an in-memory Store backed by a single flat float32 slice.
type Memory struct {
	data []float32
	dims int
}

// NewMemory creates an empty in-memory store with the given dimensionality.
// dims may be 0, in which case the first Append fixes the dimension.
func NewMemory(dims int) *Memory {
	return &Memory{dims: dims}
}

// NewMemoryFromFlat creates a store over flat row-major data with the given
// dimensionality. The slice is retained, not copied.
func NewMemoryFromFlat(data []float32, dims int) (*Memory, error) {
	if dims <= 0 {
		return nil, &ErrDimensionMismatch{Expected: 1, Actual: dims}
	}
	if len(data)%dims != 0 {
		return nil, &ErrDimensionMismatch{Expected: dims, Actual: len(data) % dims}
	}
	return &Memory{data: data, dims: dims}, nil
}

// NewMemoryFromVectors creates a store holding a copy of the given vectors.
func NewMemoryFromVectors(vectors [][]float32) (*Memory, error) {
	m := NewMemory(0)
	for _, v := range vectors {
		if _, err := m.Append(v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Len returns the number of vectors in the store.
func (m *Memory) Len() int {
	if m.dims == 0 {
		return 0
	}
	return len(m.data) / m.dims
}

// Dims returns the vector dimensionality.
func (m *Memory) Dims() int { return m.dims }

// Vector returns the vector at index i, aliasing internal memory.
func (m *Memory) Vector(i int) []float32 {
	return m.data[i*m.dims : (i+1)*m.dims]
}

// Append adds a copy of v and returns its index.
func (m *Memory) Append(v []float32) (int, error) {
	if len(v) == 0 {
		return 0, ErrEmptyVector
	}
	if m.dims == 0 {
		m.dims = len(v)
	} else if len(v) != m.dims {
		return 0, &ErrDimensionMismatch{Expected: m.dims, Actual: len(v)}
	}

	id := len(m.data) / m.dims
	m.data = append(m.data, v...)
	return id, nil
}

// Flat returns the backing row-major slice, aliasing internal memory.
func (m *Memory) Flat() []float32 { return m.data }
