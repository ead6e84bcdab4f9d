package cfm

import (
	"fmt"
	"io"
)

// AbsentInt32 is the sentinel written for a node/slot that has no value in
// a dense int32 feature array. Real feature values never collide with it:
// the compiler rejects a source value equal to the sentinel (spec §4.3).
const AbsentInt32 = int32(-1 << 31)

// AbsentStringIndex is the sentinel written into a string feature's index
// array for a node that has no value. It is one past the largest valid
// pool index, since a pool's offsets array can never use this value.
const AbsentStringIndex = ^uint32(0)

// DenseInt32 is a flat, one-entry-per-node array of signed 32-bit values,
// used for otype.bin, the two boundary.bin halves, and int-valued node
// features. Absent entries hold AbsentInt32.
type DenseInt32 struct {
	Values []int32
}

func (d DenseInt32) Len() int { return len(d.Values) }

// Get returns the value at i and whether it is present.
func (d DenseInt32) Get(i int) (int32, bool) {
	v := d.Values[i]
	return v, v != AbsentInt32
}

// DenseUint32 is a flat, one-entry-per-node array of unsigned 32-bit
// values, used for order.bin, rank.bin, and string-feature index arrays.
type DenseUint32 struct {
	Values []uint32
}

func (d DenseUint32) Len() int { return len(d.Values) }

func (d DenseUint32) Get(i int) uint32 { return d.Values[i] }

// WriteDenseInt32 writes a signed dense array.
func WriteDenseInt32(w io.Writer, d DenseInt32) error {
	if err := writeArrayHeader(w, ArrayHeader{
		Magic: Magic, Version: FormatVersion, Kind: KindDenseInt32,
		Count: uint64(len(d.Values)),
	}); err != nil {
		return err
	}
	if err := writeInt32Slice(w, d.Values); err != nil {
		return fmt.Errorf("write dense int32: %w", err)
	}
	return nil
}

// ReadDenseInt32 reads an array written by WriteDenseInt32.
func ReadDenseInt32(r io.Reader) (DenseInt32, error) {
	h, err := readArrayHeader(r)
	if err != nil {
		return DenseInt32{}, err
	}
	if h.Kind != KindDenseInt32 {
		return DenseInt32{}, fmt.Errorf("read dense int32: unexpected array kind %d", h.Kind)
	}
	values, err := readInt32Slice(r, int(h.Count))
	if err != nil {
		return DenseInt32{}, fmt.Errorf("read dense int32 values: %w", err)
	}
	return DenseInt32{Values: values}, nil
}

// WriteDenseUint32 writes a dense unsigned array.
func WriteDenseUint32(w io.Writer, d DenseUint32) error {
	if err := writeArrayHeader(w, ArrayHeader{
		Magic: Magic, Version: FormatVersion, Kind: KindDenseUint32,
		Count: uint64(len(d.Values)),
	}); err != nil {
		return err
	}
	if err := writeUint32Slice(w, d.Values); err != nil {
		return fmt.Errorf("write dense uint32: %w", err)
	}
	return nil
}

// ReadDenseUint32 reads an array written by WriteDenseUint32.
func ReadDenseUint32(r io.Reader) (DenseUint32, error) {
	h, err := readArrayHeader(r)
	if err != nil {
		return DenseUint32{}, err
	}
	if h.Kind != KindDenseUint32 {
		return DenseUint32{}, fmt.Errorf("read dense uint32: unexpected array kind %d", h.Kind)
	}
	values, err := readUint32Slice(r, int(h.Count))
	if err != nil {
		return DenseUint32{}, fmt.Errorf("read dense uint32 values: %w", err)
	}
	return DenseUint32{Values: values}, nil
}
