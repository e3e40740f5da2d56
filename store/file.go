package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/hupe1980/metrigo/internal/mmap"
)

const (
	// fileMagic identifies metrigo vector files (ASCII: "MTG0").
	fileMagic = 0x4D544730
	// fileVersion is the current vector file format version.
	fileVersion = 0x00010000
)

var (
	// ErrInvalidMagic is returned when a file does not start with the
	// vector file magic number.
	ErrInvalidMagic = errors.New("store: invalid magic number")
	// ErrInvalidVersion is returned for unsupported file format versions.
	ErrInvalidVersion = errors.New("store: unsupported version")
	// ErrChecksum is returned when stored data fails CRC verification.
	ErrChecksum = errors.New("store: checksum mismatch")
	// ErrTruncated is returned when a vector file is shorter than its
	// header claims.
	ErrTruncated = errors.New("store: truncated file")
)

// fileHeader is the fixed 24-byte header at the start of every vector file.
// All fields are little-endian. The header size keeps the vector payload
// 4-byte aligned for the zero-copy mmap read path.
type fileHeader struct {
	Magic     uint32
	Version   uint32
	Count     uint64
	Dimension uint32
	Checksum  uint32 // CRC32 (IEEE) of the vector payload
}

const fileHeaderSize = 24

// WriteFile persists the contents of s at path: header followed by the raw
// little-endian float32 payload. The write is atomic (temp file + rename).
func WriteFile(path string, s Store) error {
	n, dims := s.Len(), s.Dims()

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("store: create %s: %w", tmp, err)
	}
	defer os.Remove(tmp)

	crc := crc32.NewIEEE()
	row := make([]byte, dims*4)
	for i := 0; i < n; i++ {
		encodeRow(row, s.Vector(i))
		crc.Write(row)
	}

	w := bufio.NewWriter(f)
	hdr := fileHeader{
		Magic:     fileMagic,
		Version:   fileVersion,
		Count:     uint64(n),
		Dimension: uint32(dims),
		Checksum:  crc.Sum32(),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		f.Close()
		return err
	}
	for i := 0; i < n; i++ {
		encodeRow(row, s.Vector(i))
		if _, err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	return syncDir(filepath.Dir(path))
}

func encodeRow(dst []byte, v []float32) {
	for i, x := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], float32bits(x))
	}
}

func float32bits(f float32) uint32 {
	return *(*uint32)(unsafe.Pointer(&f))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		// Directory sync is best-effort on platforms that disallow it.
		return nil
	}
	defer d.Close()
	_ = d.Sync()
	return nil
}

// Compile-time check to ensure File satisfies the Store interface.
var _ Store = (*File)(nil)

// File is a read-only Store memory-mapped from a vector file written by
// WriteFile. Vector returns slices aliasing the mapping; they are valid
// until Close.
type File struct {
	m    *mmap.File
	data []float32 // payload view into the mapping
	n    int
	dims int
}

// OpenFile maps the vector file at path. The payload CRC is verified once
// at open time.
func OpenFile(path string) (*File, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	raw := m.Bytes()
	if len(raw) < fileHeaderSize {
		m.Close()
		return nil, ErrTruncated
	}

	var hdr fileHeader
	hdr.Magic = binary.LittleEndian.Uint32(raw[0:])
	hdr.Version = binary.LittleEndian.Uint32(raw[4:])
	hdr.Count = binary.LittleEndian.Uint64(raw[8:])
	hdr.Dimension = binary.LittleEndian.Uint32(raw[16:])
	hdr.Checksum = binary.LittleEndian.Uint32(raw[20:])

	if hdr.Magic != fileMagic {
		m.Close()
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != fileVersion {
		m.Close()
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, hdr.Version)
	}

	payload := raw[fileHeaderSize:]
	want := int(hdr.Count) * int(hdr.Dimension) * 4
	if len(payload) < want {
		m.Close()
		return nil, ErrTruncated
	}
	payload = payload[:want]

	if crc32.ChecksumIEEE(payload) != hdr.Checksum {
		m.Close()
		return nil, ErrChecksum
	}

	var data []float32
	if want > 0 {
		data = unsafe.Slice((*float32)(unsafe.Pointer(&payload[0])), int(hdr.Count)*int(hdr.Dimension))
	}

	return &File{
		m:    m,
		data: data,
		n:    int(hdr.Count),
		dims: int(hdr.Dimension),
	}, nil
}

// Len returns the number of vectors in the file.
func (f *File) Len() int { return f.n }

// Dims returns the vector dimensionality.
func (f *File) Dims() int { return f.dims }

// Vector returns the vector at index i, aliasing the mapping.
func (f *File) Vector(i int) []float32 {
	return f.data[i*f.dims : (i+1)*f.dims]
}

// Close unmaps the file. Vectors returned earlier become invalid.
func (f *File) Close() error {
	f.data = nil
	return f.m.Close()
}
