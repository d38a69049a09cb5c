package graph

import (
	"github.com/2x3systems/isofilter/isofilter"
	"github.com/2x3systems/isofilter/libiso/model"
)

// Shape is the vertex layout and edge count of a model's graph, computed in closed form before any allocation.
//
// Vertex classes appear in this order, each contiguous:
//
//	E  Order   domain elements
//	R  Order   value occurrences in function tables (if any constants or ops)
//	L  2       relation truth values false, true (if any relations)
//	U  1       unassigned cells (if any)
//	F  Order   first argument positions
//	S  Order   second argument positions (if any binary ops or relations)
//	A  cells   one vertex per table cell: constants, unary cells, binary cells, relation cells
type Shape struct {
	Order     int
	NumConst  int
	NumUnary  int
	NumBinary int
	NumRels   int

	HasR bool
	HasL bool
	HasU bool
	HasS bool

	// First vertex of each class; only meaningful when the class is present
	E, R, L, U, F, S, A int

	NumVerts int
	NumEdges int // directed edge count, twice the undirected count
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ComputeShape returns the graph shape of m.
//
// isofilter.ErrEmptyModel is returned if m has no tables and isofilter.ErrOnlyConstants if m has only constants.
func ComputeShape(m *model.Model) (Shape, error) {
	if m.IsEmpty() {
		return Shape{}, isofilter.ErrEmptyModel
	}
	if m.OnlyConstants() {
		return Shape{}, isofilter.ErrOnlyConstants
	}

	N := m.Order
	sh := Shape{
		Order:     N,
		NumConst:  len(m.Constants),
		NumUnary:  len(m.UnaryOps),
		NumBinary: len(m.BinaryOps),
		NumRels:   len(m.BinaryRels),
	}
	sh.HasR = sh.NumConst+sh.NumUnary+sh.NumBinary > 0
	sh.HasL = sh.NumRels > 0
	sh.HasU = m.NumUnassigned() > 0
	sh.HasS = sh.NumBinary+sh.NumRels > 0

	next := 0
	sh.E, next = next, next+N
	sh.R, next = next, next+N*b2i(sh.HasR)
	sh.L, next = next, next+2*b2i(sh.HasL)
	sh.U, next = next, next+b2i(sh.HasU)
	sh.F, next = next, next+N
	sh.S, next = next, next+N*b2i(sh.HasS)
	sh.A = next

	N2 := N * N
	sh.NumVerts = N*(2+b2i(sh.HasR)+b2i(sh.HasS)) + 2*b2i(sh.HasL) + b2i(sh.HasU) +
		sh.NumConst + N*sh.NumUnary + N2*(sh.NumBinary+sh.NumRels)

	undirected := N*(1+b2i(sh.HasR)+b2i(sh.HasS)) + sh.NumConst + 2*N*sh.NumUnary + 3*N2*(sh.NumBinary+sh.NumRels)
	sh.NumEdges = 2 * undirected

	return sh, nil
}

func (sh *Shape) RVtx(v int) int { return sh.R + v }
func (sh *Shape) LVtx(t int) int { return sh.L + t }
func (sh *Shape) FVtx(x int) int { return sh.F + x }
func (sh *Shape) SVtx(y int) int { return sh.S + y }

func (sh *Shape) ConstVtx(ci int) int {
	return sh.A + ci
}

func (sh *Shape) UnaryVtx(op, x int) int {
	return sh.A + sh.NumConst + op*sh.Order + x
}

func (sh *Shape) BinaryVtx(op, x, y int) int {
	N := sh.Order
	return sh.A + sh.NumConst + sh.NumUnary*N + (op*N+x)*N + y
}

func (sh *Shape) RelVtx(rel, x, y int) int {
	N := sh.Order
	return sh.A + sh.NumConst + sh.NumUnary*N + sh.NumBinary*N*N + (rel*N+x)*N + y
}

// valueVtx returns the vertex a function cell links to for its value.
func (sh *Shape) valueVtx(v int) int {
	if v == model.Unassigned {
		return sh.U
	}
	return sh.R + v
}

// truthVtx returns the vertex a relation cell links to for its value.
func (sh *Shape) truthVtx(t int) int {
	if t == model.Unassigned {
		return sh.U
	}
	return sh.L + t
}

// Partition returns the color partition of this shape:
// E, R, L0, L1, U, F, S, then one cell per constant, unary op, binary op, and relation.
func (sh *Shape) Partition() Partition {
	N := sh.Order
	ends := make([]int, 0, 8+sh.NumConst+sh.NumUnary+sh.NumBinary+sh.NumRels)

	end := N
	ends = append(ends, end)
	if sh.HasR {
		end += N
		ends = append(ends, end)
	}
	if sh.HasL {
		ends = append(ends, end+1, end+2)
		end += 2
	}
	if sh.HasU {
		end++
		ends = append(ends, end)
	}
	end += N
	ends = append(ends, end)
	if sh.HasS {
		end += N
		ends = append(ends, end)
	}
	for i := 0; i < sh.NumConst; i++ {
		end++
		ends = append(ends, end)
	}
	for i := 0; i < sh.NumUnary; i++ {
		end += N
		ends = append(ends, end)
	}
	for i := 0; i < sh.NumBinary+sh.NumRels; i++ {
		end += N * N
		ends = append(ends, end)
	}

	return Partition{Ends: ends}
}
