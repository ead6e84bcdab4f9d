package cfm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/context-fabric/fabric/ferr"
)

// Writer emits a v{N}/ store directory. It is used by the corpus compiler
// (import pipeline) and by round-trip tests; Store.Open never writes.
type Writer struct {
	Dir string
}

// NewWriter creates the v{N}/ directory (and its warp/features/edges
// subdirectories) under root, returning a Writer positioned there.
func NewWriter(root string, version uint32) (*Writer, error) {
	dir := filepath.Join(root, fmt.Sprintf("v%d", version))
	for _, sub := range []string{"", "warp", "features", "edges"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, &ferr.IoError{Path: filepath.Join(dir, sub), Cause: err}
		}
	}
	return &Writer{Dir: dir}, nil
}

func (w *Writer) create(rel string) (*os.File, error) {
	p := filepath.Join(w.Dir, rel)
	f, err := os.Create(p)
	if err != nil {
		return nil, &ferr.IoError{Path: p, Cause: err}
	}
	return f, nil
}

func (w *Writer) writeFile(rel string, write func(*os.File) error) error {
	f, err := w.create(rel)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := write(f); err != nil {
		return &ferr.IoError{Path: filepath.Join(w.Dir, rel), Cause: err}
	}
	return nil
}

// WriteMeta writes meta.json.
func (w *Writer) WriteMeta(m *Meta) error {
	return w.writeFile("meta.json", func(f *os.File) error { return WriteMeta(f, m) })
}

// WriteOType writes warp/otype.bin.
func (w *Writer) WriteOType(d DenseInt32) error {
	return w.writeFile(filepath.Join("warp", "otype.bin"), func(f *os.File) error { return WriteDenseInt32(f, d) })
}

// WriteOSlots writes warp/oslots.csr.
func (w *Writer) WriteOSlots(c CSR) error {
	return w.writeFile(filepath.Join("warp", "oslots.csr"), func(f *os.File) error { return WriteCSR(f, c) })
}

// WriteOrder writes warp/order.bin.
func (w *Writer) WriteOrder(d DenseUint32) error {
	return w.writeFile(filepath.Join("warp", "order.bin"), func(f *os.File) error { return WriteDenseUint32(f, d) })
}

// WriteRank writes warp/rank.bin.
func (w *Writer) WriteRank(d DenseUint32) error {
	return w.writeFile(filepath.Join("warp", "rank.bin"), func(f *os.File) error { return WriteDenseUint32(f, d) })
}

// WriteLevels writes warp/levels.bin.
func (w *Writer) WriteLevels(levels []LevelRange) error {
	return w.writeFile(filepath.Join("warp", "levels.bin"), func(f *os.File) error {
		if err := writeArrayHeader(f, ArrayHeader{
			Magic: Magic, Version: FormatVersion, Kind: KindDenseUint32,
			Count: uint64(len(levels)),
		}); err != nil {
			return err
		}
		for _, l := range levels {
			if err := writeUint32Slice(f, []uint32{l.MinNode, l.MaxNode, l.Count}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteLevUp writes warp/levUp.csr.
func (w *Writer) WriteLevUp(c CSR) error {
	return w.writeFile(filepath.Join("warp", "levUp.csr"), func(f *os.File) error { return WriteCSR(f, c) })
}

// WriteLevDown writes warp/levDown.csr.
func (w *Writer) WriteLevDown(c CSR) error {
	return w.writeFile(filepath.Join("warp", "levDown.csr"), func(f *os.File) error { return WriteCSR(f, c) })
}

// WriteBoundary writes warp/boundary.bin: first_slot then last_slot.
func (w *Writer) WriteBoundary(b Boundary) error {
	return w.writeFile(filepath.Join("warp", "boundary.bin"), func(f *os.File) error {
		if err := WriteDenseInt32(f, b.FirstSlot); err != nil {
			return err
		}
		return WriteDenseInt32(f, b.LastSlot)
	})
}

// WriteIntFeature writes features/<name>.bin for an int-valued feature.
func (w *Writer) WriteIntFeature(relPath string, d DenseInt32) error {
	return w.writeFile(relPath, func(f *os.File) error { return WriteDenseInt32(f, d) })
}

// WriteStringFeature writes features/<name>.str: a dense index array
// immediately followed by the pool it indexes into.
func (w *Writer) WriteStringFeature(relPath string, idx DenseUint32, pool StringPool) error {
	return w.writeFile(relPath, func(f *os.File) error {
		if err := WriteDenseUint32(f, idx); err != nil {
			return err
		}
		return WriteStringPool(f, pool)
	})
}

// WriteEdge writes edges/<name>.csr, optionally with a parallel values
// column when c.ExtraValues is non-nil.
func (w *Writer) WriteEdge(relPath string, c CSR) error {
	return w.writeFile(relPath, func(f *os.File) error {
		if c.ExtraValues != nil {
			return WriteCSRValued(f, c)
		}
		return WriteCSR(f, c)
	})
}
