package graph

import (
	"github.com/2x3systems/isofilter/isofilter"
	"github.com/2x3systems/isofilter/libiso/model"
	"github.com/pkg/errors"
)

// Builder fills a Graph for a model in two passes: degrees and offsets first, then edges.
//
// A Builder may be reused across models; its buffers are resized as needed.
type Builder struct {
	shape  Shape
	G      Graph
	cursor []int
}

// Build lays out and fills the graph of m according to sh, which must come from ComputeShape(m).
//
// The returned Graph aliases the Builder's buffers and is valid until the next call to Build.
func (Xb *Builder) Build(m *model.Model, sh Shape) (*Graph, error) {
	Xb.shape = sh
	Xb.allocate()
	Xb.setDegrees(m)

	if err := Xb.setOffsets(); err != nil {
		return nil, err
	}

	Xb.fillEdges(m)

	if err := Xb.checkCursors(); err != nil {
		return nil, err
	}
	return &Xb.G, nil
}

func resize(buf []int, n int) []int {
	if cap(buf) < n {
		return make([]int, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

func (Xb *Builder) allocate() {
	sh := &Xb.shape
	Xb.G.V = resize(Xb.G.V, sh.NumVerts)
	Xb.G.D = resize(Xb.G.D, sh.NumVerts)
	Xb.G.E = resize(Xb.G.E, sh.NumEdges)
	Xb.cursor = resize(Xb.cursor, sh.NumVerts)
}

// setDegrees is pass one: every vertex degree is set before any edge is placed.
func (Xb *Builder) setDegrees(m *model.Model) {
	sh := &Xb.shape
	D := Xb.G.D
	N := sh.Order

	opCells := (sh.NumBinary + sh.NumRels) * N
	for x := 0; x < N; x++ {
		D[sh.E+x] = 1 + b2i(sh.HasR) + b2i(sh.HasS)
		D[sh.FVtx(x)] = 1 + sh.NumUnary + opCells
		if sh.HasR {
			D[sh.RVtx(x)] = 1
		}
		if sh.HasS {
			D[sh.SVtx(x)] = 1 + opCells
		}
	}

	// R_v and U tally value occurrences; L_t tallies truth values
	m.ForEachCell(func(kind model.TableKind, v int) {
		if kind == model.KindRelation {
			D[sh.truthVtx(v)]++
		} else {
			D[sh.valueVtx(v)]++
		}
	})

	for ci := 0; ci < sh.NumConst; ci++ {
		D[sh.ConstVtx(ci)] = 1
	}
	for op := 0; op < sh.NumUnary; op++ {
		for x := 0; x < N; x++ {
			D[sh.UnaryVtx(op, x)] = 2
		}
	}
	for vi := sh.BinaryVtx(0, 0, 0); vi < sh.NumVerts; vi++ {
		D[vi] = 3
	}
}

func (Xb *Builder) setOffsets() error {
	G := &Xb.G
	ofs := 0
	for v, d := range G.D {
		G.V[v] = ofs
		Xb.cursor[v] = ofs
		ofs += d
	}
	if ofs != Xb.shape.NumEdges {
		return errors.Wrapf(isofilter.ErrShapeMismatch, "degrees sum to %d, shape has %d edges", ofs, Xb.shape.NumEdges)
	}
	return nil
}

func (Xb *Builder) addEdge(a, b int) {
	E := Xb.G.E
	E[Xb.cursor[a]] = b
	Xb.cursor[a]++
	E[Xb.cursor[b]] = a
	Xb.cursor[b]++
}

// fillEdges is pass two: structural edges, then cell edges in table order.
func (Xb *Builder) fillEdges(m *model.Model) {
	sh := &Xb.shape
	N := sh.Order

	for x := 0; x < N; x++ {
		e := sh.E + x
		Xb.addEdge(e, sh.FVtx(x))
		if sh.HasR {
			Xb.addEdge(e, sh.RVtx(x))
		}
		if sh.HasS {
			Xb.addEdge(e, sh.SVtx(x))
		}
	}

	for ci, c := range m.Constants {
		Xb.addEdge(sh.ConstVtx(ci), sh.valueVtx(c))
	}
	for op, tbl := range m.UnaryOps {
		for x, v := range tbl {
			a := sh.UnaryVtx(op, x)
			Xb.addEdge(a, sh.FVtx(x))
			Xb.addEdge(a, sh.valueVtx(v))
		}
	}
	for op, tbl := range m.BinaryOps {
		for x, row := range tbl {
			for y, v := range row {
				a := sh.BinaryVtx(op, x, y)
				Xb.addEdge(a, sh.FVtx(x))
				Xb.addEdge(a, sh.SVtx(y))
				Xb.addEdge(a, sh.valueVtx(v))
			}
		}
	}
	for rel, tbl := range m.BinaryRels {
		for x, row := range tbl {
			for y, t := range row {
				a := sh.RelVtx(rel, x, y)
				Xb.addEdge(a, sh.FVtx(x))
				Xb.addEdge(a, sh.SVtx(y))
				Xb.addEdge(a, sh.truthVtx(t))
			}
		}
	}
}

// checkCursors verifies every vertex received exactly its pass-one degree.
func (Xb *Builder) checkCursors() error {
	G := &Xb.G
	for v, c := range Xb.cursor {
		if c != G.V[v]+G.D[v] {
			return errors.Wrapf(isofilter.ErrShapeMismatch, "vertex %d filled %d of %d edges", v, c-G.V[v], G.D[v])
		}
	}
	return nil
}
