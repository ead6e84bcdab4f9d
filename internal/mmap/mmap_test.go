package mmap

import (
	"encoding/binary"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCSRFile writes a tiny uint32 CSR values array (little-endian) to a
// temp file, standing in for a warp/levUp.bin or feature segment on disk.
func writeCSRFile(t *testing.T, values []uint32) string {
	t.Helper()
	f, err := os.CreateTemp("", "segment")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(f.Name()) })

	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	_, err = f.Write(buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestOpenMapsSegmentBytesForZeroCopyRead(t *testing.T) {
	values := []uint32{13, 17, 19, 20, 21} // a levUp row for one word
	path := writeCSRFile(t, values)

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(values)*4, m.Size())

	got := make([]uint32, len(values))
	for i := range got {
		got[i] = binary.LittleEndian.Uint32(m.Bytes()[i*4:])
	}
	assert.Equal(t, values, got)
}

func TestReadAtReadsAnArbitraryOffsetIntoASegment(t *testing.T) {
	path := writeCSRFile(t, []uint32{13, 17, 19, 20, 21})
	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	// the third entry (19) starts at byte offset 8
	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 8)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, uint32(19), binary.LittleEndian.Uint32(buf))

	buf2 := make([]byte, 4)
	n, err = m.ReadAt(buf2, 1000)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(buf, -1)
	assert.Equal(t, ErrInvalidOffset, err)
}

func TestOpenEmptyFileMapsToZeroBytes(t *testing.T) {
	// an empty warp file, e.g. a store with no non-slot nodes of a given type
	f, err := os.CreateTemp("", "segment_empty")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	require.NoError(t, f.Close())

	m, err := Open(f.Name())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
	assert.Nil(t, m.Bytes())
}
