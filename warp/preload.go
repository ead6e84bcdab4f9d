package warp

import (
	"unsafe"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/internal/mmap"
)

// Preloaded copies the levUp/levDown CSR value arrays out of mmap'd pages
// into anonymous, non-mapped memory (spec §4.3: "optional RAM preload...
// trades memory for the removal of mmap page faults on traversal-heavy
// queries"). Offsets stay as plain Go slices; only the larger Values
// arrays are worth moving off the page cache.
type Preloaded struct {
	LevUpValues, LevDownValues *mmap.AnonMapping
	LevUpOffsets, LevDownOffsets []uint32
}

// Preload copies idx's embedding CSRs into anonymous memory. Close
// releases the anonymous mappings; the CSRs in idx are left untouched.
func Preload(idx *Index) (*Preloaded, error) {
	up, err := copyToAnon(idx.LevUp.Values)
	if err != nil {
		return nil, err
	}
	down, err := copyToAnon(idx.LevDown.Values)
	if err != nil {
		up.Close()
		return nil, err
	}
	return &Preloaded{
		LevUpValues:    up,
		LevDownValues:  down,
		LevUpOffsets:   idx.LevUp.Offsets,
		LevDownOffsets: idx.LevDown.Offsets,
	}, nil
}

// LevUpCSR reconstructs a cfm.CSR view backed by the preloaded anonymous
// buffer, reinterpreting it back into a uint32 slice.
func (p *Preloaded) LevUpCSR() cfm.CSR {
	return cfm.CSR{Offsets: p.LevUpOffsets, Values: bytesToUint32(p.LevUpValues.Bytes())}
}

func (p *Preloaded) LevDownCSR() cfm.CSR {
	return cfm.CSR{Offsets: p.LevDownOffsets, Values: bytesToUint32(p.LevDownValues.Bytes())}
}

// Close releases both anonymous mappings.
func (p *Preloaded) Close() error {
	err1 := p.LevUpValues.Close()
	err2 := p.LevDownValues.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func copyToAnon(values []uint32) (*mmap.AnonMapping, error) {
	size := len(values) * 4
	m, err := mmap.MapAnon(size)
	if err != nil {
		return nil, err
	}
	dst := bytesToUint32(m.Bytes())
	copy(dst, values)
	return m, nil
}

// bytesToUint32 reinterprets a byte slice as a uint32 slice with no copy,
// assuming a little-endian host (true for every platform internal/mmap
// currently supports, and the only reason Preload is worth having: a copy
// would defeat the point of moving bytes off mapped pages).
func bytesToUint32(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}
