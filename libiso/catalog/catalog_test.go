package catalog_test

import (
	"os"
	"path"
	"sort"
	"testing"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/2x3systems/isofilter/libiso/canon"
	"github.com/2x3systems/isofilter/libiso/catalog"
	"github.com/2x3systems/isofilter/libiso/graph"
	"github.com/2x3systems/isofilter/libiso/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryModel(tbl [][]int) *model.Model {
	return &model.Model{
		Order:     len(tbl),
		BinaryOps: [][][]int{tbl},
		Symbols:   model.Symbols{BinaryOps: []string{"*"}},
	}
}

var (
	gAnd  = binaryModel([][]int{{0, 0}, {0, 1}})
	gOr   = binaryModel([][]int{{0, 1}, {1, 1}}) // gAnd under 0 <-> 1
	gXor  = binaryModel([][]int{{0, 1}, {1, 0}})
	gProj = binaryModel([][]int{{0, 0}, {1, 1}})
)

func openCatalog(t *testing.T, opts isofilter.CacheOpts) *catalog.Catalog {
	cat, err := catalog.Open(opts, canon.NewCanonizer(isofilter.SearchOpts{}))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat
}

func admit(t *testing.T, cat *catalog.Catalog, m *model.Model) bool {
	added, err := cat.Admit(m)
	require.NoError(t, err)
	return added
}

func allConfigs() map[string]isofilter.CacheOpts {
	return map[string]isofilter.CacheOpts{
		"hash":           {MaxSize: -1, Backend: isofilter.BackendHash},
		"tree":           {MaxSize: -1, Backend: isofilter.BackendTree},
		"lsm":            {MaxSize: -1, Backend: isofilter.BackendLSM},
		"hash-verbose":   {MaxSize: -1, Backend: isofilter.BackendHash, KeyStyle: isofilter.KeyVerbose},
		"linear":         {MaxSize: -1, Strategy: isofilter.StrategyLinear},
		"tiny-hash-pool": {MaxSize: -1, Backend: isofilter.BackendHash, PoolSz: 4},
	}
}

func TestAdmitIdempotent(t *testing.T) {
	for name, opts := range allConfigs() {
		t.Run(name, func(t *testing.T) {
			cat := openCatalog(t, opts)

			assert.True(t, admit(t, cat, gAnd))
			assert.False(t, admit(t, cat, gAnd))
			assert.False(t, admit(t, cat, gOr))
			assert.True(t, admit(t, cat, gXor))
			assert.True(t, admit(t, cat, gProj))
			assert.False(t, admit(t, cat, gXor))
			assert.Equal(t, 3, cat.Len())
		})
	}
}

func TestAdmitCap(t *testing.T) {
	for _, strategy := range []isofilter.Strategy{isofilter.StrategyCanonical, isofilter.StrategyLinear} {
		t.Run(string(strategy), func(t *testing.T) {
			none := openCatalog(t, isofilter.CacheOpts{MaxSize: 0, Strategy: strategy})
			assert.True(t, admit(t, none, gAnd))
			assert.True(t, admit(t, none, gAnd))
			assert.True(t, admit(t, none, gOr))
			assert.Zero(t, none.Len())

			one := openCatalog(t, isofilter.CacheOpts{MaxSize: 1, Strategy: strategy})
			assert.True(t, admit(t, one, gAnd))
			assert.True(t, admit(t, one, gXor))
			assert.True(t, admit(t, one, gXor)) // not retained, so reported again
			assert.False(t, admit(t, one, gOr))
			assert.Equal(t, 1, one.Len())
		})
	}
}

func TestInspectKeys(t *testing.T) {
	cat := openCatalog(t, isofilter.CacheOpts{MaxSize: -1})

	and, err := cat.Inspect(gAnd)
	require.NoError(t, err)
	andKey := append([]byte(nil), and.Key...)

	or, err := cat.Inspect(gOr)
	require.NoError(t, err)
	assert.Equal(t, andKey, or.Key)
	assert.Equal(t, "2:0,0,1,0;", string(or.Key[:10]))

	_, err = cat.Inspect(&model.Model{Order: 2})
	assert.Equal(t, isofilter.ErrEmptyModel, err)
}

type failingCanonizer struct{}

func (failingCanonizer) Canonize(G *graph.Graph, ptn graph.Partition) (*graph.Canonical, error) {
	return nil, errors.New("no luck")
}

func TestOracleFailure(t *testing.T) {
	cat, err := catalog.Open(isofilter.CacheOpts{MaxSize: -1}, failingCanonizer{})
	require.NoError(t, err)
	defer cat.Close()

	_, err = cat.Admit(gAnd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, isofilter.ErrOracleFailed))
	assert.Zero(t, cat.Len())

	_, err = catalog.Open(isofilter.CacheOpts{}, nil)
	assert.Error(t, err)
}

func TestVisitKeys(t *testing.T) {
	for _, backend := range []isofilter.CacheBackend{isofilter.BackendTree, isofilter.BackendLSM} {
		t.Run(string(backend), func(t *testing.T) {
			cat := openCatalog(t, isofilter.CacheOpts{MaxSize: -1, Backend: backend})
			for _, m := range []*model.Model{gXor, gAnd, gProj, gOr} {
				admit(t, cat, m)
			}

			var keys []string
			require.NoError(t, cat.VisitKeys(func(key []byte) bool {
				keys = append(keys, string(key))
				return true
			}))
			assert.Len(t, keys, 3)
			assert.True(t, sort.StringsAreSorted(keys))
		})
	}

	cat := openCatalog(t, isofilter.CacheOpts{MaxSize: -1})
	assert.Error(t, cat.VisitKeys(func([]byte) bool { return true }))
}

func TestPersistentCatalog(t *testing.T) {
	dir, err := os.MkdirTemp("", "isofilter*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	opts := isofilter.CacheOpts{
		MaxSize:    -1,
		Backend:    isofilter.BackendLSM,
		DbPathName: path.Join(dir, "TestPersistentCatalog"),
	}
	cz := canon.NewCanonizer(isofilter.SearchOpts{})

	cat, err := catalog.Open(opts, cz)
	require.NoError(t, err)
	assert.True(t, admit(t, cat, gAnd))
	assert.True(t, admit(t, cat, gXor))
	require.NoError(t, cat.Close())

	cat, err = catalog.Open(opts, cz)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.False(t, admit(t, cat, gOr))
	assert.True(t, admit(t, cat, gProj))
	require.NoError(t, cat.Close())

	// A catalog holds keys of one style only
	opts.KeyStyle = isofilter.KeyVerbose
	_, err = catalog.Open(opts, cz)
	assert.True(t, errors.Is(err, isofilter.ErrBadCatalogParam))
}

func TestBadOpts(t *testing.T) {
	cz := canon.NewCanonizer(isofilter.SearchOpts{})

	_, err := catalog.Open(isofilter.CacheOpts{Backend: "btree"}, cz)
	assert.True(t, errors.Is(err, isofilter.ErrBadCatalogParam))

	_, err = catalog.Open(isofilter.CacheOpts{DbPathName: "/tmp/x"}, cz)
	assert.True(t, errors.Is(err, isofilter.ErrBadCatalogParam))
}
