// Package compressstore implements optional whole-file compression for
// CFM warp and feature files. A store compiled with compression declares
// it per file in meta.json; cfm.Open passes every mapped file through
// Decompress, which decompresses a compressed file into a heap buffer and
// returns a raw file's bytes unchanged.
package compressstore

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm identifies the codec used for one file, mirrored from
// meta.json's per-feature "compress" string.
type Algorithm string

const (
	None Algorithm = ""
	Zstd Algorithm = "zstd"
	Lz4  Algorithm = "lz4"
)

// headerSize is the 4-byte little-endian uncompressed-size prefix written
// ahead of every compressed payload, needed because lz4's block API (unlike
// zstd's self-describing frames) requires the destination size up front.
const headerSize = 4

var (
	zstdEncoders sync.Pool
	zstdDecoders sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoders.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) { zstdEncoders.Put(enc) }

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoders.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) { zstdDecoders.Put(dec) }

// Compress encodes data with algo. None returns data unchanged.
func Compress(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case None:
		return data, nil
	case Zstd:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		out := make([]byte, headerSize, headerSize+len(data)/2)
		binary.LittleEndian.PutUint32(out, uint32(len(data)))
		return enc.EncodeAll(data, out), nil
	case Lz4:
		bound := lz4.CompressBlockBound(len(data))
		out := make([]byte, headerSize+bound)
		binary.LittleEndian.PutUint32(out, uint32(len(data)))
		n, err := lz4.CompressBlock(data, out[headerSize:], nil)
		if err != nil {
			return nil, fmt.Errorf("compressstore: lz4 compress: %w", err)
		}
		if n == 0 && len(data) > 0 {
			return nil, fmt.Errorf("compressstore: lz4 block incompressible")
		}
		return out[:headerSize+n], nil
	default:
		return nil, fmt.Errorf("compressstore: unknown algorithm %q", algo)
	}
}

// Decompress decodes data previously produced by Compress with algo. None
// returns data unchanged (no copy).
func Decompress(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case None:
		return data, nil
	case Zstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		if len(data) < headerSize {
			return nil, fmt.Errorf("compressstore: zstd payload too small")
		}
		size := binary.LittleEndian.Uint32(data[:headerSize])
		out, err := dec.DecodeAll(data[headerSize:], make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("compressstore: zstd decompress: %w", err)
		}
		if uint32(len(out)) != size {
			return nil, fmt.Errorf("compressstore: zstd size mismatch: got %d want %d", len(out), size)
		}
		return out, nil
	case Lz4:
		if len(data) < headerSize {
			return nil, fmt.Errorf("compressstore: lz4 payload too small")
		}
		size := binary.LittleEndian.Uint32(data[:headerSize])
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data[headerSize:], out)
		if err != nil {
			return nil, fmt.Errorf("compressstore: lz4 decompress: %w", err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("compressstore: lz4 size mismatch: got %d want %d", n, size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("compressstore: unknown algorithm %q", algo)
	}
}

// ParseAlgorithm validates a meta.json "compress" string.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case None, Zstd, Lz4:
		return Algorithm(s), nil
	default:
		return None, fmt.Errorf("compressstore: unknown algorithm %q", s)
	}
}
