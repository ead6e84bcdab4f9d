package nav_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/nav"
	"github.com/context-fabric/fabric/testutil"
)

func TestWalkWithoutTypesVisitsEveryNodeInCanonicalOrder(t *testing.T) {
	store, _ := testutil.Corpus(t)
	n := nav.N{Store: store}

	seq, err := n.Walk()
	require.NoError(t, err)

	var ids []core.NodeID
	for id := range seq {
		ids = append(ids, id)
	}
	assert.Len(t, ids, int(store.Meta.NodeCount))
}

func TestWalkWithTypeClipsToThatType(t *testing.T) {
	store, _ := testutil.Corpus(t)
	n := nav.N{Store: store}

	seq, err := n.Walk("phrase")
	require.NoError(t, err)

	var ids []core.NodeID
	for id := range seq {
		ids = append(ids, id)
	}
	assert.Len(t, ids, 4) // testutil.Corpus has 4 phrases
}

func TestWalkUnknownTypeFails(t *testing.T) {
	store, _ := testutil.Corpus(t)
	n := nav.N{Store: store}

	_, err := n.Walk("sentence")
	assert.Error(t, err)
}

func TestLocalityDRestrictedToWordReturnsPhraseMembers(t *testing.T) {
	store, _ := testutil.Corpus(t)
	l := nav.L{Store: store}

	// phrase 13 (the first phrase testutil.Corpus builds) embeds words 1-3.
	words, err := l.D(13, "word")
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.NodeID{1, 2, 3}, words)
}

func TestLocalityURestrictedToPhraseReturnsEmbeddingPhrase(t *testing.T) {
	store, _ := testutil.Corpus(t)
	l := nav.L{Store: store}

	phrases, err := l.U(1, "phrase")
	require.NoError(t, err)
	assert.Equal(t, []core.NodeID{13}, phrases)
}

func TestLocalityAdjacentsWalkWordsInOrder(t *testing.T) {
	store, _ := testutil.Corpus(t)
	l := nav.L{Store: store}

	assert.Equal(t, core.NodeID(1), l.P(2))
	assert.Equal(t, core.NodeID(3), l.N(2))
	assert.Equal(t, core.NoNode, l.P(1))
	assert.Equal(t, core.NoNode, l.N(12))
}
