package mmap

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A store's offsets table and values table live back to back in the same
// warp segment file; Region lets each be advised independently, matching
// how cfm.Store carves a mapped file into offsets/values slices.
func TestRegionCarvesOffsetsAndValuesOutOfOneSegment(t *testing.T) {
	f, err := os.CreateTemp("", "levup_segment")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	offsets := []uint32{0, 2, 2, 5} // CSR offsets for 3 nodes
	values := []uint32{13, 17, 19, 20, 21}
	buf := make([]byte, 4*(len(offsets)+len(values)))
	for i, v := range offsets {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	base := 4 * len(offsets)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[base+i*4:], v)
	}
	_, err = f.Write(buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	m, err := Open(f.Name())
	require.NoError(t, err)

	offsetsRegion, err := m.Region(0, base)
	require.NoError(t, err)
	require.NoError(t, offsetsRegion.Advise(AccessRandom)) // offsets are point-looked-up

	valuesRegion, err := m.Region(base, len(buf)-base)
	require.NoError(t, err)
	require.NoError(t, valuesRegion.Advise(AccessSequential)) // a row is scanned linearly

	assert.Len(t, valuesRegion.Bytes(), 4*len(values))
	assert.Equal(t, uint32(19), binary.LittleEndian.Uint32(valuesRegion.Bytes()[8:]))

	_, err = m.Region(-1, 0)
	assert.Error(t, err)
	_, err = m.Region(0, len(buf)+1)
	assert.Error(t, err)

	require.NoError(t, m.Close())

	// a region outlives its parent's Close call as a handle, but reading
	// through it must not resurrect the unmapped memory
	assert.Nil(t, valuesRegion.Bytes())
	assert.Error(t, valuesRegion.Advise(AccessDefault))
}

func TestMappingMethodsFailAfterClose(t *testing.T) {
	f, err := os.CreateTemp("", "segment_closed")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	m, err := Open(f.Name())
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close()) // idempotent

	assert.Nil(t, m.Bytes())
	assert.Error(t, m.Advise(AccessRandom))
	_, err = m.Region(0, 1)
	assert.Error(t, err)
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.Error(t, err)
}

// The embedding-cache preload path (warp.Preload) copies a CSR values
// array into anonymous memory so the GC never scans it; these exercise
// the same round trip directly against the mmap layer.
func TestMapAnonRoundTripsUint32CSRValues(t *testing.T) {
	values := []uint32{13, 17, 19, 20, 21}
	m, err := MapAnon(4 * len(values))
	require.NoError(t, err)
	defer m.Close()

	b := m.Bytes()
	require.Len(t, b, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	for i, v := range values {
		assert.Equal(t, v, binary.LittleEndian.Uint32(b[i*4:]))
	}
}

func TestMapAnonZeroSizeIsUsableAndEmpty(t *testing.T) {
	m, err := MapAnon(0)
	require.NoError(t, err)
	defer m.Close()
	assert.Nil(t, m.Bytes())
}

func TestMapAnonCloseIsIdempotentAndBlanksBytes(t *testing.T) {
	m, err := MapAnon(64)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
}
