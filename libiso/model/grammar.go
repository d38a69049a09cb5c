package model

import (
	"strconv"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// InterpretationExpr is the parse tree of one Mace4 interpretation block:
//
//	interpretation( 2, [number=1, seconds=0], [
//	  function(*(_,_), [
//	    0,1,
//	    1,0 ]),
//	  relation(<(_,_), [
//	    1,1,
//	    0,1 ])]).
type InterpretationExpr struct {
	Order  int          `"interpretation" "(" @Int ","`
	Meta   []*MetaExpr  `"[" (@@ ("," @@)*)? "]" ","`
	Tables []*TableExpr `"[" (@@ ("," @@)*)? "]" ")" "."`
}

type MetaExpr struct {
	Key   string `@Ident "="`
	Value string `@(Int | Float | Ident)`
}

type TableExpr struct {
	Kind  string      `@("function" | "relation")`
	Sym   string      `"(" @(Ident | Op | Int)`
	Args  []string    `("(" @"_" ("," @"_")* ")")?`
	Cells []*CellExpr `"," "[" (@@ ("," @@)*)? "]" ")"`
}

// CellExpr is a table entry: a value, or "-" (or any negative value) for an unassigned cell.
type CellExpr struct {
	Value      *int `  @Int`
	Unassigned bool `| @"-"`
}

func (cell *CellExpr) value() int {
	if cell.Unassigned || cell.Value == nil || *cell.Value < 0 {
		return Unassigned
	}
	return *cell.Value
}

var mace4Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `%[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Float", Pattern: `-?\d+\.\d+`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`},
	{Name: "Op", Pattern: `[^\s\w(),\[\].%"]+`},
	{Name: "Punct", Pattern: `[(),\[\].]`},
})

var parseInterpretation = participle.MustBuild[InterpretationExpr](
	participle.Lexer(mace4Lexer),
	participle.Elide("Comment", "Whitespace"),
)

// SymbolFilter selects which tables of a block are loaded.  A nil or empty filter loads every table.
type SymbolFilter map[string]struct{}

// NewSymbolFilter returns a filter admitting only the given symbols.
func NewSymbolFilter(syms []string) SymbolFilter {
	if len(syms) == 0 {
		return nil
	}
	filter := make(SymbolFilter, len(syms))
	for _, sym := range syms {
		filter[sym] = struct{}{}
	}
	return filter
}

func (filter SymbolFilter) Admits(sym string) bool {
	if len(filter) == 0 {
		return true
	}
	_, ok := filter[sym]
	return ok
}

// Parse parses and validates one interpretation block.
//
// The returned Model retains block as its Source.  Any error returned wraps isofilter.ErrMalformedModel.
func Parse(block string, filter SymbolFilter) (*Model, error) {
	expr, err := parseInterpretation.ParseString("", block)
	if err != nil {
		return nil, errors.Wrap(isofilter.ErrMalformedModel, err.Error())
	}

	m, err := expr.build(filter)
	if err == nil {
		err = m.Validate()
	}
	if err != nil {
		return nil, errors.Wrap(isofilter.ErrMalformedModel, err.Error())
	}

	m.Source = block
	return m, nil
}

func (expr *InterpretationExpr) build(filter SymbolFilter) (*Model, error) {
	m := &Model{
		Order: expr.Order,
	}

	for _, meta := range expr.Meta {
		if meta.Key == "number" {
			m.Number, _ = strconv.Atoi(meta.Value)
		}
	}

	N := m.Order
	for _, tbl := range expr.Tables {
		if !filter.Admits(tbl.Sym) {
			m.NumIgnored++
			continue
		}

		arity := len(tbl.Args)
		isFunc := tbl.Kind == "function"
		if arity > 2 || (!isFunc && arity != 2) {
			m.NumUnencoded++
			continue
		}

		cells := make([]int, len(tbl.Cells))
		for i, cell := range tbl.Cells {
			cells[i] = cell.value()
		}

		want := 1
		for i := 0; i < arity; i++ {
			want *= N
		}
		if len(cells) != want {
			return nil, errors.Wrapf(isofilter.ErrDimensionMismatch, "%s %s has %d cells, expected %d", tbl.Kind, tbl.Sym, len(cells), want)
		}

		switch {
		case arity == 0:
			m.Constants = append(m.Constants, cells[0])
			m.Symbols.Constants = append(m.Symbols.Constants, tbl.Sym)
		case arity == 1:
			m.UnaryOps = append(m.UnaryOps, cells)
			m.Symbols.UnaryOps = append(m.Symbols.UnaryOps, tbl.Sym)
		case isFunc:
			m.BinaryOps = append(m.BinaryOps, reshape(cells, N))
			m.Symbols.BinaryOps = append(m.Symbols.BinaryOps, tbl.Sym)
		default:
			m.BinaryRels = append(m.BinaryRels, reshape(cells, N))
			m.Symbols.Relations = append(m.Symbols.Relations, tbl.Sym)
		}
	}

	return m, nil
}

func reshape(cells []int, N int) [][]int {
	tbl := make([][]int, N)
	for i := range tbl {
		tbl[i] = cells[i*N : (i+1)*N : (i+1)*N]
	}
	return tbl
}
