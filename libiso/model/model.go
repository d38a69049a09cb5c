package model

import (
	"strconv"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/pkg/errors"
)

// Unassigned marks a table cell that a partial model leaves undefined.
const Unassigned = -1

// Symbols names the loaded tables of a Model, one slice per table kind, in table order.
type Symbols struct {
	Constants []string
	UnaryOps  []string
	BinaryOps []string
	Relations []string
}

// Model is a finite algebra over the domain {0..Order-1}.
//
// Function tables hold domain elements; relation tables hold 0 (false) or 1 (true).
// Any cell may hold Unassigned.  A Model is not modified once parsed.
type Model struct {
	Order      int
	Number     int // Mace4 "number=" meta value, 0 if absent
	Constants  []int
	UnaryOps   [][]int   // [op][x]
	BinaryOps  [][][]int // [op][x][y]
	BinaryRels [][][]int // [rel][x][y]
	Symbols    Symbols

	NumIgnored   int // tables dropped by the symbol filter
	NumUnencoded int // tables of arity > 2 and relations of arity < 2

	// Source is the text of the interpretation block this model was parsed from (comment lines excluded).
	Source string
}

// NumTables returns the number of loaded tables of all kinds.
func (m *Model) NumTables() int {
	return len(m.Constants) + len(m.UnaryOps) + len(m.BinaryOps) + len(m.BinaryRels)
}

// IsEmpty reports if m has no constants, operations, or relations.
func (m *Model) IsEmpty() bool {
	return m.NumTables() == 0
}

// OnlyConstants reports if m has constants but no operations or relations.
func (m *Model) OnlyConstants() bool {
	return len(m.Constants) > 0 && len(m.UnaryOps)+len(m.BinaryOps)+len(m.BinaryRels) == 0
}

// Validate checks every table dimension against Order and every cell against its value range.
func (m *Model) Validate() error {
	if m.Order < 1 {
		return errors.Wrapf(isofilter.ErrDimensionMismatch, "order %d", m.Order)
	}

	checkFn := func(v int) bool { return v == Unassigned || (v >= 0 && v < m.Order) }
	checkRel := func(v int) bool { return v == Unassigned || v == 0 || v == 1 }

	for i, c := range m.Constants {
		if !checkFn(c) {
			return errors.Wrapf(isofilter.ErrBadCellValue, "constant %s = %d", m.Symbols.Constants[i], c)
		}
	}
	for i, op := range m.UnaryOps {
		if len(op) != m.Order {
			return errors.Wrapf(isofilter.ErrDimensionMismatch, "unary op %s has %d cells", m.Symbols.UnaryOps[i], len(op))
		}
		for _, v := range op {
			if !checkFn(v) {
				return errors.Wrapf(isofilter.ErrBadCellValue, "unary op %s has value %d", m.Symbols.UnaryOps[i], v)
			}
		}
	}
	check2D := func(kind, sym string, tbl [][]int, check func(int) bool) error {
		if len(tbl) != m.Order {
			return errors.Wrapf(isofilter.ErrDimensionMismatch, "%s %s has %d rows", kind, sym, len(tbl))
		}
		for _, row := range tbl {
			if len(row) != m.Order {
				return errors.Wrapf(isofilter.ErrDimensionMismatch, "%s %s has a row of %d cells", kind, sym, len(row))
			}
			for _, v := range row {
				if !check(v) {
					return errors.Wrapf(isofilter.ErrBadCellValue, "%s %s has value %d", kind, sym, v)
				}
			}
		}
		return nil
	}
	for i, op := range m.BinaryOps {
		if err := check2D("binary op", m.Symbols.BinaryOps[i], op, checkFn); err != nil {
			return err
		}
	}
	for i, rel := range m.BinaryRels {
		if err := check2D("relation", m.Symbols.Relations[i], rel, checkRel); err != nil {
			return err
		}
	}
	return nil
}

// NumUnassigned returns the number of Unassigned cells across all tables.
func (m *Model) NumUnassigned() int {
	count := 0
	m.ForEachCell(func(kind TableKind, v int) {
		if v == Unassigned {
			count++
		}
	})
	return count
}

// TableKind identifies one of the four table kinds of a Model.
type TableKind int8

const (
	KindConstant TableKind = iota
	KindUnary
	KindBinary
	KindRelation
)

// ForEachCell calls fn for every cell in table order: constants, unary ops, binary ops, then relations.
// Multi-dimensional tables are walked row-major.
func (m *Model) ForEachCell(fn func(kind TableKind, v int)) {
	for _, c := range m.Constants {
		fn(KindConstant, c)
	}
	for _, op := range m.UnaryOps {
		for _, v := range op {
			fn(KindUnary, v)
		}
	}
	for _, op := range m.BinaryOps {
		for _, row := range op {
			for _, v := range row {
				fn(KindBinary, v)
			}
		}
	}
	for _, rel := range m.BinaryRels {
		for _, row := range rel {
			for _, v := range row {
				fn(KindRelation, v)
			}
		}
	}
}

// Permute returns the image of m under the domain relabeling x -> perm[x].
//
// perm must be a permutation of {0..Order-1}.  The returned model is isomorphic to m and its
// Source is regenerated from its tables.
func (m *Model) Permute(perm []int) (*Model, error) {
	N := m.Order
	if len(perm) != N {
		return nil, errors.Wrapf(isofilter.ErrDimensionMismatch, "permutation of length %d for order %d", len(perm), N)
	}
	seen := make([]bool, N)
	for _, p := range perm {
		if p < 0 || p >= N || seen[p] {
			return nil, errors.Wrap(isofilter.ErrBadCellValue, "not a permutation")
		}
		seen[p] = true
	}

	mapFn := func(v int) int {
		if v == Unassigned {
			return v
		}
		return perm[v]
	}

	img := &Model{
		Order:        N,
		Number:       m.Number,
		Symbols:      m.Symbols,
		NumIgnored:   m.NumIgnored,
		NumUnencoded: m.NumUnencoded,
	}
	for _, c := range m.Constants {
		img.Constants = append(img.Constants, mapFn(c))
	}
	for _, op := range m.UnaryOps {
		out := make([]int, N)
		for x, v := range op {
			out[perm[x]] = mapFn(v)
		}
		img.UnaryOps = append(img.UnaryOps, out)
	}
	permute2D := func(tbl [][]int, valFn func(int) int) [][]int {
		out := newTable(N)
		for x, row := range tbl {
			for y, v := range row {
				out[perm[x]][perm[y]] = valFn(v)
			}
		}
		return out
	}
	for _, op := range m.BinaryOps {
		img.BinaryOps = append(img.BinaryOps, permute2D(op, mapFn))
	}
	for _, rel := range m.BinaryRels {
		img.BinaryRels = append(img.BinaryRels, permute2D(rel, func(v int) int { return v }))
	}

	img.Source = string(img.AppendInterpretation(nil))
	return img, nil
}

func newTable(N int) [][]int {
	cells := make([]int, N*N)
	tbl := make([][]int, N)
	for i := range tbl {
		tbl[i] = cells[i*N : (i+1)*N]
	}
	return tbl
}

// AppendInterpretation appends m as a Mace4 interpretation block, suitable for Parse().
func (m *Model) AppendInterpretation(out []byte) []byte {
	out = append(out, "interpretation( "...)
	out = strconv.AppendInt(out, int64(m.Order), 10)
	out = append(out, ", [number="...)
	out = strconv.AppendInt(out, int64(m.Number), 10)
	out = append(out, "], ["...)

	appendCell := func(out []byte, v int) []byte {
		if v == Unassigned {
			return append(out, '-')
		}
		return strconv.AppendInt(out, int64(v), 10)
	}

	first := true
	openTable := func(out []byte, kind, sym, args string) []byte {
		if !first {
			out = append(out, ',')
		}
		first = false
		out = append(out, "\n  "...)
		out = append(out, kind...)
		out = append(out, '(')
		out = append(out, sym...)
		out = append(out, args...)
		return append(out, ", ["...)
	}
	append2D := func(out []byte, tbl [][]int) []byte {
		for x, row := range tbl {
			out = append(out, "\n    "...)
			for y, v := range row {
				if y > 0 {
					out = append(out, ',')
				}
				out = appendCell(out, v)
			}
			if x < len(tbl)-1 {
				out = append(out, ',')
			}
		}
		return append(out, " ])"...)
	}

	for i, c := range m.Constants {
		out = openTable(out, "function", m.Symbols.Constants[i], "")
		out = append(out, ' ')
		out = appendCell(out, c)
		out = append(out, " ])"...)
	}
	for i, op := range m.UnaryOps {
		out = openTable(out, "function", m.Symbols.UnaryOps[i], "(_)")
		out = append(out, ' ')
		for x, v := range op {
			if x > 0 {
				out = append(out, ',')
			}
			out = appendCell(out, v)
		}
		out = append(out, " ])"...)
	}
	for i, op := range m.BinaryOps {
		out = openTable(out, "function", m.Symbols.BinaryOps[i], "(_,_)")
		out = append2D(out, op)
	}
	for i, rel := range m.BinaryRels {
		out = openTable(out, "relation", m.Symbols.Relations[i], "(_,_)")
		out = append2D(out, rel)
	}

	out = append(out, "])."...)
	out = append(out, '\n')
	return out
}
