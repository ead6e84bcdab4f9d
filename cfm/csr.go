package cfm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// CSR is a compressed-sparse-row encoding: Offsets has K+1 entries
// (monotonic non-decreasing), Values has Offsets[K] entries. Row i spans
// Values[Offsets[i]:Offsets[i+1]].
type CSR struct {
	Offsets []uint32
	Values  []uint32
	// ExtraValues parallels Values 1:1 and is only present for edge
	// features that carry a value per edge (KindCSRValued).
	ExtraValues []int32
}

// Row returns the values slice for row i. It does not copy.
func (c CSR) Row(i int) []uint32 {
	return c.Values[c.Offsets[i]:c.Offsets[i+1]]
}

// NumRows returns the number of encoded rows (len(Offsets)-1).
func (c CSR) NumRows() int {
	if len(c.Offsets) == 0 {
		return 0
	}
	return len(c.Offsets) - 1
}

// WriteCSR writes a plain (unvalued) CSR array.
func WriteCSR(w io.Writer, c CSR) error {
	return writeCSR(w, c, KindCSR)
}

// WriteCSRValued writes a CSR array with a parallel int32 ExtraValues column.
func WriteCSRValued(w io.Writer, c CSR) error {
	return writeCSR(w, c, KindCSRValued)
}

func writeCSR(w io.Writer, c CSR, kind ArrayKind) error {
	if err := writeArrayHeader(w, ArrayHeader{
		Magic: Magic, Version: FormatVersion, Kind: kind,
		Count: uint64(len(c.Offsets)),
	}); err != nil {
		return err
	}
	if err := writeUint32Slice(w, c.Offsets); err != nil {
		return fmt.Errorf("write csr offsets: %w", err)
	}
	var valueCount uint64
	if n := c.NumRows(); n >= 0 && len(c.Offsets) > 0 {
		valueCount = uint64(c.Offsets[len(c.Offsets)-1])
	}
	if err := writeUint64(w, valueCount); err != nil {
		return fmt.Errorf("write csr value count: %w", err)
	}
	if err := writeUint32Slice(w, c.Values); err != nil {
		return fmt.Errorf("write csr values: %w", err)
	}
	if kind == KindCSRValued {
		if err := writeInt32Slice(w, c.ExtraValues); err != nil {
			return fmt.Errorf("write csr extra values: %w", err)
		}
	}
	return nil
}

// ReadCSR reads a CSR array written by WriteCSR or WriteCSRValued, validating
// that every offset is within the declared values bound.
func ReadCSR(r io.Reader) (CSR, error) {
	h, err := readArrayHeader(r)
	if err != nil {
		return CSR{}, err
	}
	if h.Kind != KindCSR && h.Kind != KindCSRValued {
		return CSR{}, fmt.Errorf("read csr: unexpected array kind %d", h.Kind)
	}
	offsets, err := readUint32Slice(r, int(h.Count))
	if err != nil {
		return CSR{}, fmt.Errorf("read csr offsets: %w", err)
	}
	valueCount, err := readUint64(r)
	if err != nil {
		return CSR{}, fmt.Errorf("read csr value count: %w", err)
	}
	if len(offsets) > 0 && offsets[len(offsets)-1] != uint32(valueCount) {
		return CSR{}, fmt.Errorf("%w: csr offsets end %d != value count %d",
			errBadMagic, offsets[len(offsets)-1], valueCount)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return CSR{}, fmt.Errorf("csr offsets not monotonic at row %d", i)
		}
	}
	values, err := readUint32Slice(r, int(valueCount))
	if err != nil {
		return CSR{}, fmt.Errorf("read csr values: %w", err)
	}
	c := CSR{Offsets: offsets, Values: values}
	if h.Kind == KindCSRValued {
		extra, err := readInt32Slice(r, int(valueCount))
		if err != nil {
			return CSR{}, fmt.Errorf("read csr extra values: %w", err)
		}
		c.ExtraValues = extra
	}
	return c, nil
}

func writeUint32Slice(w io.Writer, s []uint32) error {
	buf := make([]byte, 4*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	_, err := w.Write(buf)
	return err
}

func writeInt32Slice(w io.Writer, s []int32) error {
	buf := make([]byte, 4*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	_, err := w.Write(buf)
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return out, nil
}

func readInt32Slice(r io.Reader, n int) ([]int32, error) {
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}
