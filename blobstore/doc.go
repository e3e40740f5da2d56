// Package blobstore provides storage abstraction for immutable named blobs,
// the unit the snapshot package persists indexes and clustering models as.
//
// Store is the interface for reading and writing blobs. Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem with mmap-backed reads and atomic writes
//   - minio.Store: S3-compatible object storage
//   - Throttled: byte-rate-limiting wrapper around any other Store
package blobstore
