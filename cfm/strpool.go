package cfm

import (
	"fmt"
	"io"
)

// StringPool is an interned string table: Offsets has K+1 entries into the
// concatenated Bytes blob, string i spans Bytes[Offsets[i]:Offsets[i+1]].
// A string-valued feature stores one DenseUint32 index per node into a
// pool's Offsets, so repeated values share their backing bytes once.
type StringPool struct {
	Offsets []uint32
	Bytes   []byte
}

func (p StringPool) Len() int {
	if len(p.Offsets) == 0 {
		return 0
	}
	return len(p.Offsets) - 1
}

// At returns a copy of string i, so the result stays valid after the
// store is closed even when the pool is mmap-backed.
func (p StringPool) At(i int) string {
	return string(p.Bytes[p.Offsets[i]:p.Offsets[i+1]])
}

// WriteStringPool writes a pool built by a compiler-side string interner.
func WriteStringPool(w io.Writer, p StringPool) error {
	if err := writeArrayHeader(w, ArrayHeader{
		Magic: Magic, Version: FormatVersion, Kind: KindCSR,
		Count: uint64(len(p.Offsets)),
	}); err != nil {
		return err
	}
	if err := writeUint32Slice(w, p.Offsets); err != nil {
		return fmt.Errorf("write string pool offsets: %w", err)
	}
	var byteCount uint64
	if len(p.Offsets) > 0 {
		byteCount = uint64(p.Offsets[len(p.Offsets)-1])
	}
	if err := writeUint64(w, byteCount); err != nil {
		return fmt.Errorf("write string pool byte count: %w", err)
	}
	if _, err := w.Write(p.Bytes); err != nil {
		return fmt.Errorf("write string pool bytes: %w", err)
	}
	return nil
}

// ReadStringPool reads a pool written by WriteStringPool.
func ReadStringPool(r io.Reader) (StringPool, error) {
	h, err := readArrayHeader(r)
	if err != nil {
		return StringPool{}, err
	}
	if h.Kind != KindCSR {
		return StringPool{}, fmt.Errorf("read string pool: unexpected array kind %d", h.Kind)
	}
	offsets, err := readUint32Slice(r, int(h.Count))
	if err != nil {
		return StringPool{}, fmt.Errorf("read string pool offsets: %w", err)
	}
	byteCount, err := readUint64(r)
	if err != nil {
		return StringPool{}, fmt.Errorf("read string pool byte count: %w", err)
	}
	if len(offsets) > 0 && offsets[len(offsets)-1] != uint32(byteCount) {
		return StringPool{}, fmt.Errorf("%w: string pool offsets end %d != byte count %d",
			errBadMagic, offsets[len(offsets)-1], byteCount)
	}
	buf := make([]byte, byteCount)
	if _, err := io.ReadFull(r, buf); err != nil {
		return StringPool{}, fmt.Errorf("read string pool bytes: %w", err)
	}
	return StringPool{Offsets: offsets, Bytes: buf}, nil
}
