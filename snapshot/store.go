package snapshot

import (
	"context"

	"github.com/hupe1980/metrigo/blobstore"
	"github.com/hupe1980/metrigo/cluster"
	"github.com/hupe1980/metrigo/vptree"
)

// Options contains configuration options for writing snapshots.
type Options struct {
	// Codec is the payload compression.
	Codec Codec
}

// DefaultOptions contains the default configuration options for snapshots.
var DefaultOptions = Options{
	Codec: CodecZstd,
}

// WriteVPTree persists a VP-tree (with its vectors) as a named blob.
func WriteVPTree(ctx context.Context, s blobstore.Store, name string, tree *vptree.VPTree, optFns ...func(o *Options)) error {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	data, err := Encode(KindVPTree, opts.Codec, tree)
	if err != nil {
		return err
	}
	return s.Put(ctx, name, data)
}

// ReadVPTree loads a VP-tree from a named blob. The loaded tree is backed
// by an in-memory store and supports further inserts.
func ReadVPTree(ctx context.Context, s blobstore.Store, name string) (*vptree.VPTree, error) {
	data, err := blobstore.ReadAll(ctx, s, name)
	if err != nil {
		return nil, err
	}

	tree := new(vptree.VPTree)
	if err := Decode(data, KindVPTree, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// WriteResult persists a clustering result as a named blob.
func WriteResult(ctx context.Context, s blobstore.Store, name string, res *cluster.Result, optFns ...func(o *Options)) error {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	data, err := Encode(KindClustering, opts.Codec, res)
	if err != nil {
		return err
	}
	return s.Put(ctx, name, data)
}

// ReadResult loads a clustering result from a named blob.
func ReadResult(ctx context.Context, s blobstore.Store, name string) (*cluster.Result, error) {
	data, err := blobstore.ReadAll(ctx, s, name)
	if err != nil {
		return nil, err
	}

	res := new(cluster.Result)
	if err := Decode(data, KindClustering, res); err != nil {
		return nil, err
	}
	return res, nil
}
