package fabric_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-fabric/fabric"
	"github.com/context-fabric/fabric/spin"
	"github.com/context-fabric/fabric/testutil"
)

// openTestFabric builds testutil.Corpus's fixture and reopens it through
// the public fabric.Open entry point, exercising the real load path
// instead of reaching into cfm/feature directly.
func openTestFabric(t *testing.T, optFns ...fabric.Option) *fabric.Fabric {
	t.Helper()
	store, _ := testutil.Corpus(t)
	root := filepath.Dir(store.Dir) // testutil.Corpus writes to root/v1
	require.NoError(t, store.Close())

	fab, err := fabric.Open(root, 1, optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fab.Close() })
	return fab
}

func TestOpenAndLoadAll(t *testing.T) {
	fab := openTestFabric(t)

	api, err := fab.Load("all")
	require.NoError(t, err)

	seq, err := api.N.Walk("word")
	require.NoError(t, err)

	var words []int
	for n := range seq {
		words = append(words, int(n))
	}
	assert.Len(t, words, 12)
}

func TestLoadEmptyLoadsNothingEagerly(t *testing.T) {
	fab := openTestFabric(t)

	api, err := fab.Load()
	require.NoError(t, err)

	// F still resolves a feature lazily even though Load requested none.
	h, err := api.F("sp")
	require.NoError(t, err)
	assert.NotNil(t, h.String)
}

func TestTextRendersDefaultFormat(t *testing.T) {
	fab := openTestFabric(t)
	api, err := fab.Load("all")
	require.NoError(t, err)

	text, err := api.T.Text(1, "")
	require.NoError(t, err)
	assert.Equal(t, "noun", text)
}

func TestSearchCountMatchesFixture(t *testing.T) {
	fab := openTestFabric(t)
	api, err := fab.Load("all")
	require.NoError(t, err)

	page, err := api.S.Search(context.Background(), "word sp=verb", spin.SearchOptions{ReturnType: spin.ReturnCount})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Result.Count)
}

func TestSearchContinuePagesPastFirstWindow(t *testing.T) {
	fab := openTestFabric(t)
	api, err := fab.Load("all")
	require.NoError(t, err)

	page1, err := api.S.Search(context.Background(), "word sp*", spin.SearchOptions{ReturnType: spin.ReturnResults, Limit: 3})
	require.NoError(t, err)
	require.Len(t, page1.Result.Tuples, 3)
	require.NotEmpty(t, page1.Cursor)

	page2, err := api.S.SearchContinue(page1.Cursor, 3)
	require.NoError(t, err)
	require.Len(t, page2.Result.Tuples, 3)
	assert.NotEqual(t, page1.Result.Tuples, page2.Result.Tuples)

	// Walking every page via SearchContinue should reach all 12 words with
	// no duplicates, since the cache holds the full unwindowed result.
	seen := map[uint32]bool{}
	for _, tup := range page1.Result.Tuples {
		seen[uint32(tup[0])] = true
	}
	for _, tup := range page2.Result.Tuples {
		seen[uint32(tup[0])] = true
	}
	cursor := page2.Cursor
	for cursor != "" {
		next, err := api.S.SearchContinue(cursor, 3)
		require.NoError(t, err)
		require.False(t, next.Stale)
		for _, tup := range next.Result.Tuples {
			seen[uint32(tup[0])] = true
		}
		cursor = next.Cursor
	}
	assert.Len(t, seen, 12)
}

func TestSearchCachesIdenticalQueries(t *testing.T) {
	fab := openTestFabric(t)
	api, err := fab.Load("all")
	require.NoError(t, err)

	page1, err := api.S.Search(context.Background(), "word sp=verb", spin.SearchOptions{ReturnType: spin.ReturnResults})
	require.NoError(t, err)
	page2, err := api.S.Search(context.Background(), "word sp=verb", spin.SearchOptions{ReturnType: spin.ReturnResults})
	require.NoError(t, err)
	assert.Equal(t, page1.Result.Tuples, page2.Result.Tuples)
}

func TestSearchRejectsNegativeLimit(t *testing.T) {
	fab := openTestFabric(t)
	api, err := fab.Load("all")
	require.NoError(t, err)

	_, err = api.S.Search(context.Background(), "word sp*", spin.SearchOptions{ReturnType: spin.ReturnResults, Limit: -1})
	assert.ErrorIs(t, err, fabric.ErrInvalidLimit)
}

func TestSearchContinueStaleCursorIsNotAnError(t *testing.T) {
	fab := openTestFabric(t)
	api, err := fab.Load("all")
	require.NoError(t, err)

	page, err := api.S.SearchContinue("bogus-cursor-token", 3)
	require.NoError(t, err)
	assert.True(t, page.Stale)
}

func TestOpenUnknownPathFails(t *testing.T) {
	_, err := fabric.Open(filepath.Join(t.TempDir(), "missing"), 1)
	assert.Error(t, err)
}
