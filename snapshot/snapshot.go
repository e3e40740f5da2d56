// Package snapshot persists indexes and clustering models as versioned,
// checksummed, optionally compressed blobs.
//
// A snapshot is a fixed 24-byte header followed by a gob payload run
// through the chosen codec. The header carries a magic number, format
// version, payload kind, codec tag, CRC32 and payload length, so a reader
// can reject foreign files, truncation and bit rot before decoding
// anything.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
)

const (
	// MagicNumber identifies snapshot blobs (ASCII: "MGS0").
	MagicNumber = 0x4D475330
	// Version is the current snapshot format version (v1.0.0).
	Version = 0x00010000

	headerSize = 24
)

var (
	ErrInvalidMagic   = errors.New("snapshot: invalid magic number")
	ErrInvalidVersion = errors.New("snapshot: unsupported version")
	ErrChecksum       = errors.New("snapshot: checksum mismatch")
	ErrTruncated      = errors.New("snapshot: truncated data")
	ErrKindMismatch   = errors.New("snapshot: unexpected payload kind")
	ErrUnknownCodec   = errors.New("snapshot: unknown codec")
)

// Kind tags what a snapshot payload decodes into.
type Kind uint8

const (
	// KindVPTree is a serialized vptree.VPTree.
	KindVPTree Kind = 1
	// KindClustering is a serialized cluster.Result.
	KindClustering Kind = 2
)

// header is the fixed-size prefix of every snapshot blob, little endian.
type header struct {
	Magic    uint32
	Version  uint32
	Kind     uint8
	Codec    uint8
	Reserved uint16
	Checksum uint32 // CRC32 (IEEE) of the encoded payload
	Length   uint64 // encoded payload length in bytes
}

// Encode serializes v (via gob) into a framed snapshot.
func Encode(kind Kind, codec Codec, v any) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(v); err != nil {
		return nil, fmt.Errorf("snapshot: encode payload: %w", err)
	}

	payload, err := compress(codec, raw.Bytes())
	if err != nil {
		return nil, err
	}

	h := header{
		Magic:    MagicNumber,
		Version:  Version,
		Kind:     uint8(kind),
		Codec:    uint8(codec),
		Checksum: crc32.ChecksumIEEE(payload),
		Length:   uint64(len(payload)),
	}

	out := bytes.NewBuffer(make([]byte, 0, headerSize+len(payload)))
	if err := binary.Write(out, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	out.Write(payload)
	return out.Bytes(), nil
}

// Decode verifies the framing of data and gob-decodes its payload into v,
// which must match the expected kind.
func Decode(data []byte, kind Kind, v any) error {
	if len(data) < headerSize {
		return ErrTruncated
	}

	var h header
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &h); err != nil {
		return err
	}

	if h.Magic != MagicNumber {
		return ErrInvalidMagic
	}
	if h.Version != Version {
		return fmt.Errorf("%w: 0x%08X", ErrInvalidVersion, h.Version)
	}
	if Kind(h.Kind) != kind {
		return fmt.Errorf("%w: got %d, want %d", ErrKindMismatch, h.Kind, kind)
	}

	payload := data[headerSize:]
	if uint64(len(payload)) != h.Length {
		return ErrTruncated
	}
	if crc32.ChecksumIEEE(payload) != h.Checksum {
		return ErrChecksum
	}

	raw, err := decompress(Codec(h.Codec), payload)
	if err != nil {
		return err
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return fmt.Errorf("snapshot: decode payload: %w", err)
	}
	return nil
}
