// Package testutil builds small, real compiled stores for fast unit
// tests: it writes an actual v{N}/ directory via cfm.Writer, derives its
// warp arrays with warp.Compute exactly as the import pipeline would, and
// opens it back with cfm.Open — so tests exercise the real load path
// instead of a hand-assembled in-memory fake.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/feature"
	"github.com/context-fabric/fabric/warp"
)

// Corpus is a small, fixed BHSA-shaped fixture used across package tests:
// 12 words grouped into 4 phrases of 3, grouped into 2 clauses of 2
// phrases each, wrapped in one book/chapter/verse path so section-ref
// tests have something to climb. Word ids are slots 1..12.
//
//	clause 1 (17): phrase 13 (w1-3), phrase 14 (w4-6)
//	clause 2 (18): phrase 15 (w7-9), phrase 16 (w10-12)
//	verse 19: clause 17, clause 18
//	chapter 20: verse 19
//	book 21: chapter 20
func Corpus(t *testing.T) (*cfm.Store, *feature.Registry) {
	t.Helper()

	const (
		typeWord = iota
		typePhrase
		typeClause
		typeVerse
		typeChapter
		typeBook
	)
	types := []cfm.TypeDescriptor{
		{ID: typeWord, Name: "word", LevelOrder: 0, SlotType: true},
		{ID: typePhrase, Name: "phrase", LevelOrder: 1},
		{ID: typeClause, Name: "clause", LevelOrder: 2},
		{ID: typeVerse, Name: "verse", LevelOrder: 3},
		{ID: typeChapter, Name: "chapter", LevelOrder: 4},
		{ID: typeBook, Name: "book", LevelOrder: 5},
	}

	const slotCount = 12
	phraseSlots := [][]uint32{
		{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {10, 11, 12},
	}
	clausePhrases := [][]int{{0, 1}, {2, 3}} // indices into phraseSlots

	b := newBuilder(slotCount, types)
	phraseIDs := make([]core.NodeID, len(phraseSlots))
	for i, slots := range phraseSlots {
		phraseIDs[i] = b.addNode(typePhrase, slots)
	}
	clauseIDs := make([]core.NodeID, len(clausePhrases))
	for i, members := range clausePhrases {
		var slots []uint32
		for _, pi := range members {
			slots = append(slots, phraseSlots[pi]...)
		}
		clauseIDs[i] = b.addNode(typeClause, slots)
	}
	allSlots := []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	b.addNode(typeVerse, allSlots)
	b.addNode(typeChapter, allSlots)
	b.addNode(typeBook, allSlots)

	sp := map[core.NodeID]string{
		1: "noun", 2: "verb", 3: "noun", 4: "verb", 5: "noun", 6: "prep",
		7: "noun", 8: "verb", 9: "noun", 10: "verb", 11: "noun", 12: "conj",
	}
	vt := map[core.NodeID]string{2: "perf", 4: "impf", 8: "perf", 10: "perf"}
	function := map[core.NodeID]string{phraseIDs[0]: "Subj", phraseIDs[1]: "Pred", phraseIDs[2]: "Subj", phraseIDs[3]: "Pred"}

	dir := t.TempDir()
	store, registry := b.build(t, dir, map[string]map[core.NodeID]string{
		"sp": sp, "vt": vt, "function": function,
	}, []cfm.TextFormatDescriptor{
		{Name: "text-orig-full", Template: "{sp}"},
	}, "text-orig-full", []string{"book", "chapter", "verse"})

	return store, registry
}

// builder accumulates a synthetic corpus's otype/oslots arrays node by
// node, in id order, mirroring the import pipeline's own "append as you
// go, compute warps at the end" shape.
type builder struct {
	slotCount int
	types     []cfm.TypeDescriptor
	nextID    core.NodeID

	otype     []int32
	oslotRows [][]uint32 // one row per non-slot node, in id order
}

func newBuilder(slotCount int, types []cfm.TypeDescriptor) *builder {
	b := &builder{slotCount: slotCount, types: types, nextID: core.NodeID(slotCount + 1)}
	b.otype = make([]int32, slotCount)
	for i := 0; i < slotCount; i++ {
		b.otype[i] = 0 // word type id
	}
	return b
}

func (b *builder) addNode(typeID int, slots []uint32) core.NodeID {
	sorted := append([]uint32(nil), slots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	id := b.nextID
	b.nextID++
	b.otype = append(b.otype, int32(typeID))
	b.oslotRows = append(b.oslotRows, sorted)
	return id
}

func (b *builder) build(t *testing.T, dir string, features map[string]map[core.NodeID]string, formats []cfm.TextFormatDescriptor, defaultFormat string, sectionTypes []string) (*cfm.Store, *feature.Registry) {
	t.Helper()

	nodeCount := len(b.otype)
	offsets := make([]uint32, len(b.oslotRows)+1)
	var values []uint32
	for i, row := range b.oslotRows {
		values = append(values, row...)
		offsets[i+1] = uint32(len(values))
	}
	oslots := cfm.CSR{Offsets: offsets, Values: values}
	otype := cfm.DenseInt32{Values: b.otype}

	meta := &cfm.Meta{
		FormatVersion: cfm.FormatVersion,
		NodeCount:     uint32(nodeCount),
		SlotCount:     uint32(b.slotCount),
		Types:         b.types,
		TextFormats:   formats,
		DefaultFormat: defaultFormat,
		SectionTypes:  sectionTypes,
	}

	idx, err := warp.Compute(context.Background(), meta, otype, oslots)
	require.NoError(t, err)

	w, err := cfm.NewWriter(dir, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteOType(otype))
	require.NoError(t, w.WriteOSlots(oslots))
	require.NoError(t, w.WriteOrder(idx.Order))
	require.NoError(t, w.WriteRank(idx.Rank))
	require.NoError(t, w.WriteLevels(idx.Levels))
	require.NoError(t, w.WriteLevUp(idx.LevUp))
	require.NoError(t, w.WriteLevDown(idx.LevDown))
	require.NoError(t, w.WriteBoundary(idx.Boundary))

	for name, values := range features {
		relPath := filepath.Join("features", name+".str")
		idxArr, pool := buildStringFeature(nodeCount, values)
		require.NoError(t, w.WriteStringFeature(relPath, idxArr, pool))
		meta.Features = append(meta.Features, cfm.FeatureDescriptor{
			Name: name, Kind: cfm.FeatureNode, ValueType: cfm.ValueStr, Path: relPath,
		})
	}
	require.NoError(t, w.WriteMeta(meta))

	store, err := cfm.Open(dir, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, feature.NewRegistry(store)
}

// buildStringFeature interns values's distinct strings into a pool and
// builds a dense index array over every node 1..nodeCount, absent where
// values has no entry.
func buildStringFeature(nodeCount int, values map[core.NodeID]string) (cfm.DenseUint32, cfm.StringPool) {
	var interned []string
	seen := make(map[string]uint32)
	for n := core.NodeID(1); n <= core.NodeID(nodeCount); n++ {
		v, ok := values[n]
		if !ok {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = uint32(len(interned))
			interned = append(interned, v)
		}
	}

	offsets := make([]uint32, len(interned)+1)
	var bytes []byte
	for i, s := range interned {
		bytes = append(bytes, s...)
		offsets[i+1] = uint32(len(bytes))
	}
	pool := cfm.StringPool{Offsets: offsets, Bytes: bytes}

	idx := make([]uint32, nodeCount)
	for i := range idx {
		idx[i] = cfm.AbsentStringIndex
	}
	for n, v := range values {
		idx[int(n)-1] = seen[v]
	}
	return cfm.DenseUint32{Values: idx}, pool
}

// WriteDir is exposed for tests that need the raw store directory (e.g.
// round-trip compile/reopen checks).
func WriteDir(t *testing.T, store *cfm.Store) string {
	t.Helper()
	_, err := os.Stat(store.Dir)
	require.NoError(t, err)
	return store.Dir
}
