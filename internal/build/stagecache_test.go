package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageCacheRecordAndUnchanged(t *testing.T) {
	cache := NewStageCache(t.TempDir())
	key := Key("echo hi\n", "foo=bar\n")

	assert.False(t, cache.Unchanged(Prep, key), "no marker recorded yet")
	require.NoError(t, cache.Record(Prep, key))
	assert.True(t, cache.Unchanged(Prep, key))

	other := Key("echo bye\n", "foo=bar\n")
	assert.False(t, cache.Unchanged(Prep, other))
}

func TestNilStageCacheAlwaysChanged(t *testing.T) {
	var cache *StageCache
	assert.False(t, cache.Unchanged(Prep, Key("a", "b")))
	assert.NoError(t, cache.Record(Prep, Key("a", "b")))
}

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("body", "snapshot")
	b := Key("body", "snapshot")
	assert.Equal(t, a, b)
}
