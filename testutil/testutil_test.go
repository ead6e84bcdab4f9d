package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-fabric/fabric/core"
)

func TestCorpusLoads(t *testing.T) {
	store, registry := Corpus(t)

	assert.EqualValues(t, 12, store.Meta.SlotCount)
	assert.Greater(t, store.Meta.NodeCount, store.Meta.SlotCount)

	h, err := registry.Load("sp")
	require.NoError(t, err)
	require.NotNil(t, h.String)
	assert.Equal(t, "verb", h.String.Get(core.NodeID(2)).String())
}

func TestCorpusRankIsPermutation(t *testing.T) {
	store, _ := Corpus(t)

	seen := make(map[uint32]bool, store.Meta.NodeCount)
	for _, r := range store.Rank.Values {
		assert.False(t, seen[r], "duplicate rank %d", r)
		seen[r] = true
	}
	assert.Len(t, seen, int(store.Meta.NodeCount))
	for i, n := range store.Order.Values {
		assert.Equal(t, uint32(i+1), store.Rank.Values[n-1])
	}
}
