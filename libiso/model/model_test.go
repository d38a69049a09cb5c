package model_test

import (
	"io"
	"strings"
	"testing"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/2x3systems/isofilter/libiso/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quasigroupBlock = `interpretation( 2, [number=1, seconds=0], [
  function(*(_,_), [
    0,0,
    0,1 ]),
  function(/(_,_), [
    1,0,
    1,1 ]),
  function(\(_,_), [
    1,1,
    0,1 ]),
  relation(<(_,_), [
    1,1,
    0,1 ])]).
`

func TestParseBlock(t *testing.T) {
	m, err := model.Parse(quasigroupBlock, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Order)
	assert.Equal(t, 1, m.Number)
	assert.Len(t, m.BinaryOps, 3)
	assert.Len(t, m.BinaryRels, 1)
	assert.Equal(t, []string{"*", "/", `\`}, m.Symbols.BinaryOps)
	assert.Equal(t, []string{"<"}, m.Symbols.Relations)
	assert.Equal(t, [][]int{{1, 0}, {1, 1}}, m.BinaryOps[1])
	assert.Equal(t, [][]int{{1, 1}, {0, 1}}, m.BinaryRels[0])
	assert.Equal(t, quasigroupBlock, m.Source)
	assert.Zero(t, m.NumUnassigned())
}

func TestParseConstantsAndUnary(t *testing.T) {
	block := `interpretation( 3, [number=7, seconds=0], [
  function(e, [ 0 ]),
  function('(_), [ 0,2,1 ]),
  function(f(_,_,_), [ 0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0 ]),
  relation(p(_), [ 1,0,1 ]),
  function(*(_,_), [
    0,1,2,
    1,2,0,
    2,0,- ])]).
`
	m, err := model.Parse(block, nil)
	require.NoError(t, err)

	assert.Equal(t, 7, m.Number)
	assert.Equal(t, []int{0}, m.Constants)
	assert.Equal(t, [][]int{{0, 2, 1}}, m.UnaryOps)
	assert.Equal(t, []string{"'"}, m.Symbols.UnaryOps)
	assert.Equal(t, 2, m.NumUnencoded)
	assert.Equal(t, model.Unassigned, m.BinaryOps[0][2][2])
	assert.Equal(t, 1, m.NumUnassigned())
}

func TestSymbolFilter(t *testing.T) {
	m, err := model.Parse(quasigroupBlock, model.NewSymbolFilter([]string{"*", "<"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"*"}, m.Symbols.BinaryOps)
	assert.Equal(t, []string{"<"}, m.Symbols.Relations)
	assert.Equal(t, 2, m.NumIgnored)

	m, err = model.Parse(quasigroupBlock, model.NewSymbolFilter([]string{"nope"}))
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]struct {
		block string
		cause error
	}{
		"short table": {
			block: "interpretation( 2, [number=1], [\n  function(*(_,_), [\n    0,1,\n    1 ])]).\n",
			cause: isofilter.ErrDimensionMismatch,
		},
		"value out of range": {
			block: "interpretation( 2, [number=1], [\n  function(f(_), [ 0,2 ])]).\n",
			cause: isofilter.ErrBadCellValue,
		},
		"relation not boolean": {
			block: "interpretation( 2, [number=1], [\n  relation(r(_,_), [\n    0,1,\n    2,0 ])]).\n",
			cause: isofilter.ErrBadCellValue,
		},
		"grammar": {
			block: "interpretation( 2, [number=1], [\n  function(f(_), 0,1 ])]).\n",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := model.Parse(tc.block, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, isofilter.ErrMalformedModel), err.Error())
			if tc.cause != nil {
				assert.Contains(t, err.Error(), tc.cause.Error())
			}
		})
	}
}

func TestReaderFraming(t *testing.T) {
	stream := `% Mace4 preamble
============================== MODEL =================================

` + quasigroupBlock + `
% a comment between models
interpretation( 1, [number=2], [function(c, [ 0 ])]).
interpretation( 2, [number=3], [
  function(f(_), [
% an interior comment
 1,0 ]),
interpretation( 2, [number=4], [
  function(f(_), [ 0,1 ])]).
interpretation( 2, [number=5], [
  function(g(_), [ 1,1 ])
`
	rd := model.NewReader(strings.NewReader(stream))

	blk, err := rd.Next()
	require.NoError(t, err)
	assert.Equal(t, quasigroupBlock, blk.Text)
	assert.Equal(t, 4, blk.Line)

	blk, err = rd.Next()
	require.NoError(t, err)
	assert.Equal(t, "interpretation( 1, [number=2], [function(c, [ 0 ])]).\n", blk.Text)

	blk, err = rd.Next()
	assert.True(t, errors.Is(err, isofilter.ErrMissingTerminator))
	assert.NotContains(t, blk.Text, "comment")

	blk, err = rd.Next()
	require.NoError(t, err)
	m, err := model.Parse(blk.Text, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Number)

	_, err = rd.Next()
	assert.True(t, errors.Is(err, isofilter.ErrMissingTerminator))

	_, err = rd.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderLongLines(t *testing.T) {
	long := strings.Repeat("0,", 40)
	stream := `interpretation( 2, [number=1], [
  function(f(_,_), [
    ` + long + `
    0,1 ])]).
interpretation( 2, [number=2], [function(c, [ 0 ]), ` + long + `
  function(g(_), [ 1,0 ])]).
% ` + long + `
interpretation( 2, [number=3], [
  function(f(_), [ 0,1 ])]).
`
	rd := model.NewReaderSize(strings.NewReader(stream), 64)

	blk, err := rd.Next()
	assert.True(t, errors.Is(err, isofilter.ErrLineTooLong))
	assert.True(t, errors.Is(err, isofilter.ErrMalformedModel))
	assert.Equal(t, 1, blk.Line)
	assert.Equal(t, "interpretation( 2, [number=1], [\n  function(f(_,_), [\n", blk.Text)

	_, err = rd.Next()
	assert.True(t, errors.Is(err, isofilter.ErrLineTooLong))

	blk, err = rd.Next()
	require.NoError(t, err)
	assert.Equal(t, 8, blk.Line)
	m, err := model.Parse(blk.Text, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Number)

	_, err = rd.Next()
	assert.Equal(t, io.EOF, err)
}

func TestPermuteRoundTrip(t *testing.T) {
	m, err := model.Parse(quasigroupBlock, nil)
	require.NoError(t, err)

	swap, err := m.Permute([]int{1, 0})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {1, 1}}, swap.BinaryOps[0])
	assert.Equal(t, [][]int{{1, 0}, {1, 1}}, swap.BinaryRels[0])

	reparsed, err := model.Parse(swap.Source, nil)
	require.NoError(t, err)
	assert.Equal(t, swap.BinaryOps, reparsed.BinaryOps)
	assert.Equal(t, swap.BinaryRels, reparsed.BinaryRels)
	assert.Equal(t, swap.Symbols, reparsed.Symbols)

	back, err := swap.Permute([]int{1, 0})
	require.NoError(t, err)
	assert.Equal(t, m.BinaryOps, back.BinaryOps)

	_, err = m.Permute([]int{0, 0})
	assert.Error(t, err)
}
