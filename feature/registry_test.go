package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-fabric/fabric/testutil"
)

func TestRegistryLoadMaterializesStringFeature(t *testing.T) {
	_, registry := testutil.Corpus(t)

	h, err := registry.Load("sp")
	require.NoError(t, err)
	require.NotNil(t, h.String)
	assert.Equal(t, "sp", h.String.Name())
	assert.Equal(t, "noun", h.String.Get(1).String())
}

func TestRegistryLoadIsIdempotentAndCached(t *testing.T) {
	_, registry := testutil.Corpus(t)

	h1, err := registry.Load("sp")
	require.NoError(t, err)
	h2, err := registry.Load("sp")
	require.NoError(t, err)
	assert.Same(t, h1.String, h2.String)

	_, ok := registry.Get("sp")
	assert.True(t, ok)
}

func TestRegistryLoadUnknownNameFails(t *testing.T) {
	_, registry := testutil.Corpus(t)

	_, err := registry.Load("does-not-exist")
	assert.Error(t, err)
}

func TestRegistryLoadAllMaterializesEveryFeature(t *testing.T) {
	_, registry := testutil.Corpus(t)

	require.NoError(t, registry.LoadAll())

	for _, name := range []string{"sp", "vt", "function"} {
		_, ok := registry.Get(name)
		assert.True(t, ok, "expected %s to be loaded", name)
	}
}

func TestRegistryLoadSetLoadsOnlyNamedFeatures(t *testing.T) {
	_, registry := testutil.Corpus(t)

	require.NoError(t, registry.LoadSet([]string{"sp"}))

	_, ok := registry.Get("sp")
	assert.True(t, ok)
	_, ok = registry.Get("vt")
	assert.False(t, ok)
}
