package codec

import (
	"strings"
	"testing"

	"github.com/2x3systems/isofilter/libiso/graph"
	"github.com/2x3systems/isofilter/libiso/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const U = model.Unassigned

func binaryModel(tbl [][]int) *model.Model {
	return &model.Model{
		Order:     len(tbl),
		BinaryOps: [][][]int{tbl},
		Symbols:   model.Symbols{BinaryOps: []string{"*"}},
	}
}

func TestCompactNibbles(t *testing.T) {
	and := binaryModel([][]int{{0, 0}, {0, 1}})
	or := binaryModel([][]int{{0, 1}, {1, 1}})

	keyAnd := AppendCompact(nil, and, []int{0, 1})
	keyOr := AppendCompact(nil, or, []int{1, 0})
	assert.Equal(t, "2:0,0,1,0;\x00\x01;", string(keyAnd))
	assert.Equal(t, keyAnd, keyOr)

	m := &model.Model{
		Order:     3,
		Constants: []int{1},
		UnaryOps:  [][]int{{2, U, 0}},
		Symbols:   model.Symbols{Constants: []string{"c"}, UnaryOps: []string{"f"}},
	}
	assert.Equal(t, "3:1,1,0,0;\x2f\x0f;\x1f;", string(AppendCompact(nil, m, []int{0, 1, 2})))

	// Fixed length: a trailing unassigned cell is kept
	trailing := binaryModel([][]int{{0, 0}, {0, U}})
	assert.Equal(t, "2:0,0,1,0;\x00\x0f;", string(AppendCompact(nil, trailing, []int{0, 1})))
}

func TestCompactRelations(t *testing.T) {
	m := &model.Model{
		Order:      2,
		BinaryRels: [][][]int{{{1, 1}, {0, 1}}, {{1, U}, {0, U}}},
		Symbols:    model.Symbols{Relations: []string{"<", "r"}},
	}
	assert.Equal(t, "2:0,0,0,2;BBAB;B?A;", string(AppendCompact(nil, m, []int{0, 1})))
	assert.Equal(t, "2:0,0,0,2;BABB;?A?B;", string(AppendCompact(nil, m, []int{1, 0})))
}

func TestCompactBase64(t *testing.T) {
	f := make([]int, 16)
	f[0] = 15
	f[1] = U
	f[15] = 3
	m := &model.Model{
		Order:    16,
		UnaryOps: [][]int{f},
		Symbols:  model.Symbols{UnaryOps: []string{"f"}},
	}
	iso := make([]int, 16)
	for i := range iso {
		iso[i] = i
	}
	assert.Equal(t, "16:0,1,0,0;P?AAAAAAAAAAAAAD;", string(AppendCompact(nil, m, iso)))

	// Trailing unassigned cells are stripped
	f[15] = U
	assert.Equal(t, "16:0,1,0,0;P;", string(AppendCompact(nil, m, iso)))
}

func TestCellWidth(t *testing.T) {
	assert.Equal(t, 1, CellWidth(2))
	assert.Equal(t, 1, CellWidth(64))
	assert.Equal(t, 2, CellWidth(65))
	assert.Equal(t, 2, CellWidth(4096))
	assert.Equal(t, 3, CellWidth(4097))

	assert.True(t, UsesNibbles(15))
	assert.False(t, UsesNibbles(16))

	assert.Equal(t, "BB", string(appendBase64(nil, 65, 2)))
	assert.Equal(t, "//", string(appendBase64(nil, 4095, 2)))
	assert.Equal(t, "AAk", string(appendBase64(nil, 36, 3)))
}

func pathGraph() *graph.Graph {
	return &graph.Graph{
		V: []int{0, 1, 3},
		D: []int{1, 2, 1},
		E: []int{1, 0, 2, 1},
	}
}

func TestVerbose(t *testing.T) {
	ptn := graph.Partition{Ends: []int{1, 3}}

	out := AppendVerbose(nil, pathGraph(), ptn, VerboseOpts{})
	assert.Equal(t, "cells 1 2\n0 : 1\n1 : 2\n2 :\n", string(out))

	out = AppendVerbose(nil, pathGraph(), ptn, VerboseOpts{Shorten: true})
	assert.Equal(t, "cells 1 2\n0 1\n1 2\n", string(out))

	out = AppendVerbose(nil, pathGraph(), ptn, VerboseOpts{Shorten: true, NoCells: true, Sep: ";"})
	assert.Equal(t, "0 1;1 2;", string(out))
}

// starGraph joins vertex 0 to each of vertices 1..n.
func starGraph(n int) *graph.Graph {
	G := &graph.Graph{
		V: make([]int, n+1),
		D: make([]int, n+1),
	}
	G.D[0] = n
	for i := 1; i <= n; i++ {
		G.E = append(G.E, i)
	}
	for i := 1; i <= n; i++ {
		G.V[i] = len(G.E)
		G.D[i] = 1
		G.E = append(G.E, 0)
	}
	return G
}

func TestVerboseMultiDigit(t *testing.T) {
	ptn := graph.Partition{Ends: []int{1, 12}}

	out := AppendVerbose(nil, starGraph(11), ptn, VerboseOpts{Shorten: true})
	assert.Equal(t, "cells 1 11\n0 1 2 3 4 5 6 7 8 9 10 11\n", string(out))

	out = AppendVerbose(nil, starGraph(11), ptn, VerboseOpts{NoCells: true, Sep: ";"})
	assert.True(t, strings.HasPrefix(string(out), "0 : 1 2 3 4 5 6 7 8 9 10 11;1 :;"), string(out))
	assert.True(t, strings.HasSuffix(string(out), ";9 :;10 :;11 :;"), string(out))
}

func TestCompressor(t *testing.T) {
	cmp, err := NewCompressor()
	require.NoError(t, err)
	defer cmp.Close()

	src := []byte(strings.Repeat("0 : 12 13 14\n", 40))
	armored := cmp.AppendCompressed([]byte("% "), src)
	require.True(t, strings.HasPrefix(string(armored), "% "))
	assert.NotContains(t, string(armored), "\n")
	assert.Less(t, len(armored), len(src))

	back, err := cmp.Decompress(armored[2:])
	require.NoError(t, err)
	assert.Equal(t, src, back)

	_, err = cmp.Decompress([]byte("!!"))
	assert.Error(t, err)
}
