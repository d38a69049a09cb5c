package catalog

import (
	"path"
	"testing"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// abandon closes the db without flushing the state record, as when a run is killed.
func (set *lsmSet) abandon() {
	set.db.Close()
	set.db = nil
}

func TestLSMRecountAfterAbandon(t *testing.T) {
	opts := isofilter.CacheOpts{
		Backend:    isofilter.BackendLSM,
		KeyStyle:   isofilter.KeyCompact,
		DbPathName: path.Join(t.TempDir(), "catalog"),
	}

	set, err := openLSMSet(opts)
	require.NoError(t, err)
	for _, key := range []string{"a", "b"} {
		added, err := set.TryAdd([]byte(key))
		require.NoError(t, err)
		assert.True(t, added)
	}
	set.abandon()

	set, err = openLSMSet(opts)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	added, err := set.TryAdd([]byte("c"))
	require.NoError(t, err)
	assert.True(t, added)
	require.NoError(t, set.Close())

	set, err = openLSMSet(opts)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())

	added, err = set.TryAdd([]byte("d"))
	require.NoError(t, err)
	assert.True(t, added)
	set.abandon()

	set, err = openLSMSet(opts)
	require.NoError(t, err)
	defer set.Close()
	assert.Equal(t, 4, set.Len())

	found, err := set.Has([]byte("d"))
	require.NoError(t, err)
	assert.True(t, found)
}
