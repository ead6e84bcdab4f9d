// Package cfm implements the Context-Fabric binary backing store: the
// on-disk v{N}/ directory of contiguous integer/string arrays plus a
// meta.json descriptor, and the loader that maps it read-only (spec §4.1).
package cfm

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Magic identifies a CFM warp/feature/edge array file (ASCII "CFM1").
	Magic uint32 = 0x43464D31
	// FormatVersion is the current on-disk format version.
	FormatVersion uint32 = 1

	// arrayHeaderSize is the fixed-size header prefixing every dense array
	// and CSR file: Magic(4) + Version(4) + Kind(1) + pad(3) + Count(8).
	arrayHeaderSize = 20
)

// ArrayKind distinguishes the payload shape of a warp/feature/edge file.
type ArrayKind uint8

const (
	KindDenseInt32  ArrayKind = 1 // one int32 per node/slot (otype, boundary halves, int feature)
	KindDenseUint32 ArrayKind = 2 // one uint32 per node (order, rank, string-feature indices)
	KindCSR         ArrayKind = 3 // offsets[0..K] + values[0..offsets[K]-1]
	KindCSRValued   ArrayKind = 4 // CSR plus a parallel int32 values array (edge feature values)
)

// ArrayHeader is the fixed header written at the start of every array file.
type ArrayHeader struct {
	Magic   uint32
	Version uint32
	Kind    ArrayKind
	Count   uint64 // element count; meaning depends on Kind (see readers below)
}

func writeArrayHeader(w io.Writer, h ArrayHeader) error {
	var buf [arrayHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	buf[8] = byte(h.Kind)
	binary.LittleEndian.PutUint64(buf[12:20], h.Count)
	_, err := w.Write(buf[:])
	return err
}

func readArrayHeader(r io.Reader) (ArrayHeader, error) {
	var buf [arrayHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return ArrayHeader{}, fmt.Errorf("read array header: %w", err)
	}
	h := ArrayHeader{
		Magic:   binary.LittleEndian.Uint32(buf[0:4]),
		Version: binary.LittleEndian.Uint32(buf[4:8]),
		Kind:    ArrayKind(buf[8]),
		Count:   binary.LittleEndian.Uint64(buf[12:20]),
	}
	if h.Magic != Magic {
		return h, fmt.Errorf("%w: bad magic %#x", errBadMagic, h.Magic)
	}
	if h.Version != FormatVersion {
		return h, fmt.Errorf("%w: got %d, want %d", errBadVersion, h.Version, FormatVersion)
	}
	return h, nil
}
