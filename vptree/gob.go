package vptree

import (
	"bytes"
	"encoding/gob"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/store"
)

// GobEncode serializes the tree's vectors, metric and options. The node
// structure itself is not persisted: decoding rebuilds the tree
// deterministically from the stored seed, which yields a query-equivalent
// (not necessarily shape-identical) tree.
func (t *VPTree) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)

	dims := t.data.Dims()
	if err := encoder.Encode(dims); err != nil {
		return nil, err
	}

	flat := make([]float32, 0, t.data.Len()*dims)
	for i := 0; i < t.data.Len(); i++ {
		flat = append(flat, t.data.Vector(i)...)
	}
	if err := encoder.Encode(flat); err != nil {
		return nil, err
	}

	if err := encoder.Encode(t.space.Metric()); err != nil {
		return nil, err
	}

	if err := encoder.Encode(t.opts); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GobDecode rebuilds the tree over an in-memory copy of the encoded
// vectors. The decoded tree supports Insert regardless of the store type
// the original was built on.
func (t *VPTree) GobDecode(data []byte) error {
	decoder := gob.NewDecoder(bytes.NewBuffer(data))

	var dims int
	if err := decoder.Decode(&dims); err != nil {
		return err
	}

	var flat []float32
	if err := decoder.Decode(&flat); err != nil {
		return err
	}

	var m distance.Metric
	if err := decoder.Decode(&m); err != nil {
		return err
	}

	var opts Options
	if err := decoder.Decode(&opts); err != nil {
		return err
	}

	var mem *store.Memory
	if dims > 0 {
		var err error
		mem, err = store.NewMemoryFromFlat(flat, dims)
		if err != nil {
			return err
		}
	} else {
		mem = store.NewMemory(0)
	}

	rebuilt, err := New(mem, m, func(o *Options) { *o = opts })
	if err != nil {
		return err
	}

	*t = *rebuilt
	return nil
}
