package compressstore_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-fabric/fabric/compressstore"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)

	names := map[compressstore.Algorithm]string{compressstore.None: "none", compressstore.Zstd: "zstd", compressstore.Lz4: "lz4"}
	for _, algo := range []compressstore.Algorithm{compressstore.None, compressstore.Zstd, compressstore.Lz4} {
		t.Run(names[algo], func(t *testing.T) {
			compressed, err := compressstore.Compress(algo, data)
			require.NoError(t, err)

			out, err := compressstore.Decompress(algo, compressed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressNoneIsIdentity(t *testing.T) {
	data := []byte("unchanged")
	out, err := compressstore.Compress(compressstore.None, data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecompressRejectsTruncatedZstdPayload(t *testing.T) {
	_, err := compressstore.Decompress(compressstore.Zstd, []byte{1, 2})
	assert.Error(t, err)
}

func TestParseAlgorithmRejectsUnknown(t *testing.T) {
	_, err := compressstore.ParseAlgorithm("brotli")
	assert.Error(t, err)
}

func TestParseAlgorithmAcceptsKnown(t *testing.T) {
	for _, s := range []string{"", "zstd", "lz4"} {
		algo, err := compressstore.ParseAlgorithm(s)
		require.NoError(t, err)
		assert.Equal(t, compressstore.Algorithm(s), algo)
	}
}
