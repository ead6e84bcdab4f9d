package spin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-fabric/fabric/spin"
	"github.com/context-fabric/fabric/testutil"
)

func TestParseSimpleAtom(t *testing.T) {
	tmpl, err := spin.Parse("word sp=verb vt=perf")
	require.NoError(t, err)
	require.Len(t, tmpl.TopLevel, 1)

	a := tmpl.Atom(tmpl.TopLevel[0])
	assert.Equal(t, "word", a.TypeName)
	require.Len(t, a.Predicates, 2)
	assert.Equal(t, "sp", a.Predicates[0].Feature)
	assert.Equal(t, spin.PredEq, a.Predicates[0].Op)
}

func TestParseNestedStructure(t *testing.T) {
	tmpl, err := spin.Parse(`
clause
  phrase function=Pred
    word sp=verb
`)
	require.NoError(t, err)
	require.Len(t, tmpl.Atoms, 3)
	require.Len(t, tmpl.TopLevel, 1)

	clause := tmpl.Atom(tmpl.TopLevel[0])
	assert.Equal(t, "clause", clause.TypeName)
	children := tmpl.Children(clause.ID)
	require.Len(t, children, 1)

	phrase := tmpl.Atom(children[0])
	assert.Equal(t, "phrase", phrase.TypeName)
	assert.Equal(t, spin.RelEmbeds, phrase.ParentRel)

	grandchildren := tmpl.Children(phrase.ID)
	require.Len(t, grandchildren, 1)
	word := tmpl.Atom(grandchildren[0])
	assert.Equal(t, "word", word.TypeName)
}

func TestParseRejectsQuantifierWithoutHost(t *testing.T) {
	_, err := spin.Parse("/where/\n  word sp=verb\n")
	assert.Error(t, err)
}

func TestParseRejectsBadPredicate(t *testing.T) {
	_, err := spin.Parse("word sp#verb")
	assert.Error(t, err)
}

func TestSearchCount(t *testing.T) {
	store, registry := testutil.Corpus(t)
	tmpl, err := spin.Parse("word sp=verb")
	require.NoError(t, err)

	exec := spin.NewExecutor(store, registry)
	res, err := exec.Search(context.Background(), tmpl, spin.SearchOptions{ReturnType: spin.ReturnCount})
	require.NoError(t, err)
	assert.EqualValues(t, 4, res.Count) // nodes 2,4,8,10 per testutil.Corpus
}

func TestSearchStructural(t *testing.T) {
	store, registry := testutil.Corpus(t)
	tmpl, err := spin.Parse(`
clause
  phrase function=Pred
    word sp=verb
`)
	require.NoError(t, err)

	exec := spin.NewExecutor(store, registry)
	res, err := exec.Search(context.Background(), tmpl, spin.SearchOptions{ReturnType: spin.ReturnResults})
	require.NoError(t, err)
	require.NotEmpty(t, res.Tuples)
	for _, tuple := range res.Tuples {
		require.Len(t, tuple, 3)
	}
}

func TestSearchUnknownFeatureFails(t *testing.T) {
	store, registry := testutil.Corpus(t)
	tmpl, err := spin.Parse("word bogus=verb")
	require.NoError(t, err)

	exec := spin.NewExecutor(store, registry)
	_, err = exec.Search(context.Background(), tmpl, spin.SearchOptions{ReturnType: spin.ReturnCount})
	assert.Error(t, err)
}

func TestSearchUnknownTypeFails(t *testing.T) {
	store, registry := testutil.Corpus(t)
	tmpl, err := spin.Parse("paragraph")
	require.NoError(t, err)

	exec := spin.NewExecutor(store, registry)
	_, err = exec.Search(context.Background(), tmpl, spin.SearchOptions{ReturnType: spin.ReturnCount})
	assert.Error(t, err)
}

func TestSearchWithoutQuantifier(t *testing.T) {
	store, registry := testutil.Corpus(t)
	// phrases whose words are never marked vt=impf
	tmpl, err := spin.Parse(`
phrase
/without/
  word vt=impf
`)
	require.NoError(t, err)

	exec := spin.NewExecutor(store, registry)
	res, err := exec.Search(context.Background(), tmpl, spin.SearchOptions{ReturnType: spin.ReturnResults})
	require.NoError(t, err)
	// only phrase 14 (words 4-6) has a vt=impf word (word 4); the other
	// three phrases should survive the /without/ filter.
	assert.Len(t, res.Tuples, 3)
}

func TestSearchPlanOrderIndependent(t *testing.T) {
	store, registry := testutil.Corpus(t)
	tmpl, err := spin.Parse(`
clause
  phrase function=Pred
    word sp=verb
`)
	require.NoError(t, err)

	exec := spin.NewExecutor(store, registry)
	res1, err := exec.Search(context.Background(), tmpl, spin.SearchOptions{ReturnType: spin.ReturnResults})
	require.NoError(t, err)
	res2, err := exec.Search(context.Background(), tmpl, spin.SearchOptions{ReturnType: spin.ReturnResults})
	require.NoError(t, err)
	assert.Equal(t, res1.Tuples, res2.Tuples) // idempotence, spec §8 invariant 9
}

func TestSearchPagination(t *testing.T) {
	store, registry := testutil.Corpus(t)
	tmpl, err := spin.Parse("word sp*")
	require.NoError(t, err)

	exec := spin.NewExecutor(store, registry)
	page1, err := exec.Search(context.Background(), tmpl, spin.SearchOptions{ReturnType: spin.ReturnResults, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page1.Tuples, 3)
	assert.True(t, page1.HasMore)

	page2, err := exec.Search(context.Background(), tmpl, spin.SearchOptions{ReturnType: spin.ReturnResults, Limit: 3, Offset: 3})
	require.NoError(t, err)
	assert.Len(t, page2.Tuples, 3)
	assert.NotEqual(t, page1.Tuples, page2.Tuples)
}

func TestSearchStatistics(t *testing.T) {
	store, registry := testutil.Corpus(t)
	tmpl, err := spin.Parse("word sp=verb")
	require.NoError(t, err)

	exec := spin.NewExecutor(store, registry)
	res, err := exec.Search(context.Background(), tmpl, spin.SearchOptions{
		ReturnType:        spin.ReturnStatistics,
		AggregateFeatures: []string{"vt"},
	})
	require.NoError(t, err)
	require.Len(t, res.Statistics, 1)
	assert.Equal(t, "vt", res.Statistics[0].Feature)

	var sum int64
	for _, c := range res.Statistics[0].Counts {
		sum += c
	}
	assert.Equal(t, res.Statistics[0].Total, sum)
}

func TestSearchCancelledContext(t *testing.T) {
	store, registry := testutil.Corpus(t)
	tmpl, err := spin.Parse("word sp*")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := spin.NewExecutor(store, registry)

	// A pre-cancelled context only surfaces on the 1024th candidate check,
	// so a template over a 12-word corpus never actually hits it; this
	// just confirms Search doesn't error out on a cancelled-but-small run.
	_, err = exec.Search(ctx, tmpl, spin.SearchOptions{ReturnType: spin.ReturnCount})
	require.NoError(t, err)
}
