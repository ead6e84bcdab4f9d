package spincache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/resource"
	"github.com/context-fabric/fabric/spin"
)

func tuples(n int) []spin.Tuple {
	out := make([]spin.Tuple, n)
	for i := range out {
		out[i] = spin.Tuple{core.NodeID(i + 1)}
	}
	return out
}

func TestCacheLookupHitAndMiss(t *testing.T) {
	c := New(0, time.Hour, nil)
	key := Key{CorpusID: "corpus-1", Template: "word sp=verb", ReturnType: spin.ReturnResults}

	_, ok := c.Lookup(key)
	assert.False(t, ok)

	h := c.Set(key, tuples(3))
	got, ok := c.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, h.ID, got.ID)
	assert.Len(t, got.Tuples, 3)
}

func TestCacheSliceCursor(t *testing.T) {
	c := New(0, time.Hour, nil)
	key := Key{CorpusID: "corpus-1", Template: "word sp*", ReturnType: spin.ReturnResults}
	h := c.Set(key, tuples(7))

	page1, hasMore, _, ok := c.Slice(h.ID, 0, 3)
	require.True(t, ok)
	assert.Len(t, page1, 3)
	assert.True(t, hasMore)

	page2, hasMore, _, ok := c.Slice(h.ID, 3, 3)
	require.True(t, ok)
	assert.Len(t, page2, 3)
	assert.True(t, hasMore)

	page3, hasMore, _, ok := c.Slice(h.ID, 6, 3)
	require.True(t, ok)
	assert.Len(t, page3, 1)
	assert.False(t, hasMore)

	_, _, _, ok = c.Slice("not-a-real-handle", 0, 3)
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(0, time.Millisecond, nil)
	key := Key{CorpusID: "corpus-1", Template: "word sp=verb", ReturnType: spin.ReturnCount}
	h := c.Set(key, tuples(1))

	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(h.ID)
	assert.False(t, ok, "handle should have expired")
	_, ok = c.Lookup(key)
	assert.False(t, ok, "expired entry shouldn't be reachable by key either")
}

func TestCacheCapacityEviction(t *testing.T) {
	// Each tuple costs 24 + 4 = 28 bytes; cap at ~60 bytes so a third
	// one-tuple handle evicts the oldest of two.
	c := New(60, time.Hour, nil)

	k1 := Key{CorpusID: "c", Template: "a", ReturnType: spin.ReturnResults}
	k2 := Key{CorpusID: "c", Template: "b", ReturnType: spin.ReturnResults}
	k3 := Key{CorpusID: "c", Template: "c", ReturnType: spin.ReturnResults}

	h1 := c.Set(k1, tuples(1))
	c.Set(k2, tuples(1))
	c.Set(k3, tuples(1))

	_, ok := c.Get(h1.ID)
	assert.False(t, ok, "oldest handle should have been evicted")

	_, ok = c.Lookup(k3)
	assert.True(t, ok, "most recently set handle should survive")
}

func TestCacheInvalidateByCorpus(t *testing.T) {
	c := New(0, time.Hour, nil)
	kA := Key{CorpusID: "corpus-a", Template: "word sp*", ReturnType: spin.ReturnResults}
	kB := Key{CorpusID: "corpus-b", Template: "word sp*", ReturnType: spin.ReturnResults}

	hA := c.Set(kA, tuples(2))
	hB := c.Set(kB, tuples(2))

	c.Invalidate("corpus-a")

	_, ok := c.Get(hA.ID)
	assert.False(t, ok)
	_, ok = c.Get(hB.ID)
	assert.True(t, ok)
}

func TestCursorRoundTrip(t *testing.T) {
	c := New(0, time.Hour, nil)
	key := Key{CorpusID: "corpus-1", Template: "word sp*", ReturnType: spin.ReturnResults}
	h := c.Set(key, tuples(5))

	token, err := EncodeCursor(Cursor{HandleID: h.ID, Offset: 2})
	require.NoError(t, err)
	assert.Contains(t, token, "go-json.")

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, h.ID, decoded.HandleID)
	assert.Equal(t, 2, decoded.Offset)

	page, hasMore, _, ok := c.Slice(decoded.HandleID, decoded.Offset, 2)
	require.True(t, ok)
	assert.Len(t, page, 2)
	assert.True(t, hasMore)
}

func TestDecodeCursorRejectsMalformedToken(t *testing.T) {
	_, err := DecodeCursor("not-a-valid-token")
	assert.Error(t, err)

	_, err = DecodeCursor("unknown-codec.deadbeef")
	assert.Error(t, err)
}

func TestCacheGlobalMemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 30})
	c := New(1<<20, time.Hour, rc) // local cap effectively unlimited, global bites first

	k1 := Key{CorpusID: "c", Template: "a", ReturnType: spin.ReturnResults}
	k2 := Key{CorpusID: "c", Template: "b", ReturnType: spin.ReturnResults}

	h1 := c.Set(k1, tuples(1)) // 28 bytes, fits under 30
	_, ok := c.Get(h1.ID)
	require.True(t, ok)

	c.Set(k2, tuples(1)) // another 28 bytes would push past 30; RC denies it
	_, ok = c.Lookup(k2)
	assert.False(t, ok, "second handle should not be cached once the global limit is hit")
}
