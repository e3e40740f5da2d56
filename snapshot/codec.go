package snapshot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the payload compression.
type Codec uint8

const (
	// CodecNone stores the payload uncompressed.
	CodecNone Codec = iota
	// CodecZstd compresses with zstandard: the default, best ratio.
	CodecZstd
	// CodecLZ4 compresses with lz4: faster, lighter ratio.
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "None"
	case CodecZstd:
		return "Zstd"
	case CodecLZ4:
		return "LZ4"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

func compress(c Codec, raw []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return raw, nil
	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, make([]byte, 0, len(raw))), nil
	case CodecLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, c)
	}
}

func decompress(c Codec, payload []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return payload, nil
	case CodecZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(payload, nil)
	case CodecLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, c)
	}
}
