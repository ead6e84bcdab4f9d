package cfm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/context-fabric/fabric/compressstore"
	"github.com/context-fabric/fabric/ferr"
	"github.com/context-fabric/fabric/internal/mmap"
)

// LevelRange is the decoded form of one warp/levels.bin row: the contiguous
// node range occupied by one type after canonical sort.
type LevelRange struct {
	TypeID  int
	MinNode uint32
	MaxNode uint32
	Count   uint32
}

// Boundary holds the two parallel arrays backing L's boundary queries.
type Boundary struct {
	FirstSlot DenseInt32
	LastSlot  DenseInt32
}

// Store is a loaded, read-only v{N}/ store directory: meta.json plus every
// warp array, mapped read-only and decoded once at Open (spec §4.1). It does
// not load feature or edge files; those are opened on demand via OpenFeature
// and OpenEdge so that Fabric.Load can honor an empty or partial feature
// spec without paying for unused columns.
type Store struct {
	Dir     string
	Version uint32
	Meta    *Meta

	OType    DenseInt32
	OSlots   CSR
	Order    DenseUint32
	Rank     DenseUint32
	Levels   []LevelRange
	LevUp    CSR
	LevDown  CSR
	Boundary Boundary

	mappings []*mmap.Mapping
}

// Open loads the store at root/v{version}. If version is 0, it picks the
// highest v{N} subdirectory present under root.
func Open(root string, version uint32) (*Store, error) {
	dir, resolved, err := resolveVersionDir(root, version)
	if err != nil {
		return nil, err
	}

	metaPath := filepath.Join(dir, "meta.json")
	metaFile, err := os.Open(metaPath)
	if err != nil {
		return nil, &ferr.IoError{Path: metaPath, Cause: err}
	}
	meta, err := ReadMeta(metaFile)
	metaFile.Close()
	if err != nil {
		return nil, wrapCorrupt(metaPath, err.Error())
	}
	if meta.FormatVersion != FormatVersion {
		return nil, &ferr.VersionMismatch{Got: meta.FormatVersion, Want: FormatVersion}
	}

	s := &Store{Dir: dir, Version: resolved, Meta: meta}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	otypeBytes, err := s.mapWarpFile("otype.bin")
	if err != nil {
		return nil, err
	}
	s.OType, err = ReadDenseInt32(bytes.NewReader(otypeBytes))
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(dir, "warp", "otype.bin"), err.Error())
	}
	if uint32(s.OType.Len()) != meta.NodeCount {
		return nil, wrapCorrupt(dir, fmt.Sprintf("otype length %d != node_count %d", s.OType.Len(), meta.NodeCount))
	}

	oslotsBytes, err := s.mapWarpFile("oslots.csr")
	if err != nil {
		return nil, err
	}
	s.OSlots, err = ReadCSR(bytes.NewReader(oslotsBytes))
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(dir, "warp", "oslots.csr"), err.Error())
	}
	if err := checkCSRBound(s.OSlots, uint32(meta.NodeCount), "oslots"); err != nil {
		return nil, err
	}

	orderBytes, err := s.mapWarpFile("order.bin")
	if err != nil {
		return nil, err
	}
	s.Order, err = ReadDenseUint32(bytes.NewReader(orderBytes))
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(dir, "warp", "order.bin"), err.Error())
	}

	rankBytes, err := s.mapWarpFile("rank.bin")
	if err != nil {
		return nil, err
	}
	s.Rank, err = ReadDenseUint32(bytes.NewReader(rankBytes))
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(dir, "warp", "rank.bin"), err.Error())
	}
	if s.Order.Len() != int(meta.NodeCount) || s.Rank.Len() != int(meta.NodeCount) {
		return nil, wrapCorrupt(dir, "order/rank length mismatch with node_count")
	}

	levelsBytes, err := s.mapWarpFile("levels.bin")
	if err != nil {
		return nil, err
	}
	s.Levels, err = readLevels(bytes.NewReader(levelsBytes))
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(dir, "warp", "levels.bin"), err.Error())
	}

	levUpBytes, err := s.mapWarpFile("levUp.csr")
	if err != nil {
		return nil, err
	}
	s.LevUp, err = ReadCSR(bytes.NewReader(levUpBytes))
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(dir, "warp", "levUp.csr"), err.Error())
	}
	if err := checkCSRBound(s.LevUp, meta.NodeCount, "levUp"); err != nil {
		return nil, err
	}

	levDownBytes, err := s.mapWarpFile("levDown.csr")
	if err != nil {
		return nil, err
	}
	s.LevDown, err = ReadCSR(bytes.NewReader(levDownBytes))
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(dir, "warp", "levDown.csr"), err.Error())
	}
	if err := checkCSRBound(s.LevDown, meta.NodeCount, "levDown"); err != nil {
		return nil, err
	}

	boundaryBytes, err := s.mapWarpFile("boundary.bin")
	if err != nil {
		return nil, err
	}
	s.Boundary, err = readBoundary(bytes.NewReader(boundaryBytes), int(meta.NodeCount))
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(dir, "warp", "boundary.bin"), err.Error())
	}

	ok = true
	return s, nil
}

// Close releases every mmap'd file underlying the store.
func (s *Store) Close() error {
	var first error
	for _, m := range s.mappings {
		if err := m.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.mappings = nil
	return first
}

// mapFile mmaps rel (relative to s.Dir) and returns its bytes. The mapping
// is kept alive for the lifetime of the Store.
func (s *Store) mapFile(rel string) ([]byte, error) {
	p := filepath.Join(s.Dir, rel)
	m, err := mmap.Open(p)
	if err != nil {
		return nil, &ferr.IoError{Path: p, Cause: err}
	}
	s.mappings = append(s.mappings, m)
	return m.Bytes(), nil
}

// mapWarpFile mmaps warp/name and transparently decompresses it per
// meta.json's warp_compress table. An uncompressed file is returned as
// the raw mapped bytes with no copy; a compressed one is decompressed
// into a heap buffer, trading the mmap's zero-copy paging for disk space.
func (s *Store) mapWarpFile(name string) ([]byte, error) {
	raw, err := s.mapFile(filepath.Join("warp", name))
	if err != nil {
		return nil, err
	}
	algo, err := compressstore.ParseAlgorithm(s.Meta.WarpCompressionOf(name))
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(s.Dir, "warp", name), err.Error())
	}
	out, err := compressstore.Decompress(algo, raw)
	if err != nil {
		return nil, wrapCorrupt(filepath.Join(s.Dir, "warp", name), err.Error())
	}
	return out, nil
}

// OpenFeature mmaps and decodes the feature file named by desc, returning
// either a DenseInt32 (for an int feature) or a DenseUint32 index array plus
// its StringPool (for a string feature), via the two out params used.
func (s *Store) OpenFeature(desc FeatureDescriptor) (DenseInt32, DenseUint32, StringPool, error) {
	raw, err := s.mapFile(desc.Path)
	if err != nil {
		if os.IsNotExist(unwrapIoError(err)) {
			return DenseInt32{}, DenseUint32{}, StringPool{}, &ferr.MissingFeature{Name: desc.Name, Path: desc.Path}
		}
		return DenseInt32{}, DenseUint32{}, StringPool{}, err
	}
	path := filepath.Join(s.Dir, desc.Path)
	algo, err := compressstore.ParseAlgorithm(desc.Compress)
	if err != nil {
		return DenseInt32{}, DenseUint32{}, StringPool{}, wrapCorrupt(path, err.Error())
	}
	raw, err = compressstore.Decompress(algo, raw)
	if err != nil {
		return DenseInt32{}, DenseUint32{}, StringPool{}, wrapCorrupt(path, err.Error())
	}
	if desc.ValueType == ValueInt {
		d, err := ReadDenseInt32(bytes.NewReader(raw))
		if err != nil {
			return DenseInt32{}, DenseUint32{}, StringPool{}, wrapCorrupt(path, err.Error())
		}
		return d, DenseUint32{}, StringPool{}, nil
	}

	// String feature: dense uint32 index array, immediately followed in the
	// same file by the pool it indexes into.
	r := bytes.NewReader(raw)
	idx, err := ReadDenseUint32(r)
	if err != nil {
		return DenseInt32{}, DenseUint32{}, StringPool{}, wrapCorrupt(path, err.Error())
	}
	pool, err := ReadStringPool(r)
	if err != nil {
		return DenseInt32{}, DenseUint32{}, StringPool{}, wrapCorrupt(path, err.Error())
	}
	return DenseInt32{}, idx, pool, nil
}

// OpenEdge mmaps and decodes the edge file named by desc.
func (s *Store) OpenEdge(desc FeatureDescriptor) (CSR, error) {
	raw, err := s.mapFile(desc.Path)
	if err != nil {
		if os.IsNotExist(unwrapIoError(err)) {
			return CSR{}, &ferr.MissingFeature{Name: desc.Name, Path: desc.Path}
		}
		return CSR{}, err
	}
	path := filepath.Join(s.Dir, desc.Path)
	algo, err := compressstore.ParseAlgorithm(desc.Compress)
	if err != nil {
		return CSR{}, wrapCorrupt(path, err.Error())
	}
	raw, err = compressstore.Decompress(algo, raw)
	if err != nil {
		return CSR{}, wrapCorrupt(path, err.Error())
	}
	c, err := ReadCSR(bytes.NewReader(raw))
	if err != nil {
		return CSR{}, wrapCorrupt(path, err.Error())
	}
	if err := checkCSRBound(c, s.Meta.NodeCount, desc.Name); err != nil {
		return CSR{}, err
	}
	return c, nil
}

func unwrapIoError(err error) error {
	if io, ok := err.(*ferr.IoError); ok {
		return io.Cause
	}
	return err
}

func checkCSRBound(c CSR, bound uint32, name string) error {
	for _, v := range c.Values {
		if v > bound {
			return &ferr.ArrayOutOfRange{Array: name, Index: int(v), Bound: int(bound)}
		}
	}
	return nil
}

func readLevels(r *bytes.Reader) ([]LevelRange, error) {
	h, err := readArrayHeader(r)
	if err != nil {
		return nil, err
	}
	if h.Kind != KindDenseUint32 {
		return nil, fmt.Errorf("read levels: unexpected array kind %d", h.Kind)
	}
	out := make([]LevelRange, h.Count)
	for i := range out {
		row, err := readUint32Slice(r, 3)
		if err != nil {
			return nil, fmt.Errorf("read levels row %d: %w", i, err)
		}
		out[i] = LevelRange{TypeID: i, MinNode: row[0], MaxNode: row[1], Count: row[2]}
	}
	return out, nil
}

func readBoundary(r *bytes.Reader, n int) (Boundary, error) {
	first, err := ReadDenseInt32(r)
	if err != nil {
		return Boundary{}, fmt.Errorf("read boundary first_slot: %w", err)
	}
	last, err := ReadDenseInt32(r)
	if err != nil {
		return Boundary{}, fmt.Errorf("read boundary last_slot: %w", err)
	}
	if first.Len() != n || last.Len() != n {
		return Boundary{}, fmt.Errorf("boundary length mismatch: got %d/%d, want %d", first.Len(), last.Len(), n)
	}
	return Boundary{FirstSlot: first, LastSlot: last}, nil
}

func resolveVersionDir(root string, version uint32) (dir string, resolved uint32, err error) {
	if version != 0 {
		dir = filepath.Join(root, fmt.Sprintf("v%d", version))
		if _, statErr := os.Stat(dir); statErr != nil {
			return "", 0, &ferr.IoError{Path: dir, Cause: statErr}
		}
		return dir, version, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", 0, &ferr.IoError{Path: root, Cause: err}
	}
	var best uint32
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var v uint32
		if _, scanErr := fmt.Sscanf(e.Name(), "v%d", &v); scanErr != nil {
			continue
		}
		if v > best {
			best = v
		}
	}
	if best == 0 {
		return "", 0, wrapCorrupt(root, "no v{N} store directory found")
	}
	return filepath.Join(root, fmt.Sprintf("v%d", best)), best, nil
}
