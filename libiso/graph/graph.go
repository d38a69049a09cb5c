package graph

import (
	"sort"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/pkg/errors"
)

// Graph is an undirected graph in compressed sparse row form.
//
// Each undirected edge {a,b} is stored as the two directed edges a->b and b->a.
// The neighbors of vertex v are E[V[v] : V[v]+D[v]].
type Graph struct {
	V []int // offset into E of each vertex's neighbor list
	D []int // degree of each vertex
	E []int // concatenated neighbor lists
}

func (G *Graph) NumVerts() int {
	return len(G.V)
}

// NumEdges returns the number of directed edges (twice the number of undirected edges).
func (G *Graph) NumEdges() int {
	return len(G.E)
}

func (G *Graph) Neighbors(v int) []int {
	start := G.V[v]
	return G.E[start : start+G.D[v]]
}

// Equal reports if G and other have identical vertex order and identical neighbor lists.
//
// Neighbor lists are compared in order, so both graphs should have sorted neighbor lists (as canonical graphs do).
func (G *Graph) Equal(other *Graph) bool {
	if G.NumVerts() != other.NumVerts() || G.NumEdges() != other.NumEdges() {
		return false
	}
	for v := range G.V {
		Nv := G.Neighbors(v)
		No := other.Neighbors(v)
		if len(Nv) != len(No) {
			return false
		}
		for i := range Nv {
			if Nv[i] != No[i] {
				return false
			}
		}
	}
	return true
}

// SortNeighbors sorts each neighbor list ascending.
func (G *Graph) SortNeighbors() {
	for v := range G.V {
		sort.Ints(G.Neighbors(v))
	}
}

// CheckSymmetric returns an error if some directed edge a->b has no matching b->a.
func (G *Graph) CheckSymmetric() error {
	Nv := G.NumVerts()
	counts := make(map[[2]int]int, G.NumEdges())
	for a := 0; a < Nv; a++ {
		for _, b := range G.Neighbors(a) {
			if b < 0 || b >= Nv {
				return errors.Wrapf(isofilter.ErrShapeMismatch, "edge %d->%d out of range", a, b)
			}
			counts[[2]int{a, b}]++
		}
	}
	for ab, n := range counts {
		if counts[[2]int{ab[1], ab[0]}] != n {
			return errors.Wrapf(isofilter.ErrShapeMismatch, "edge %d->%d is not reciprocated", ab[0], ab[1])
		}
	}
	return nil
}

// Partition is an ordered partition of a graph's vertices into contiguous color cells.
//
// Cell i spans vertices [Ends[i-1], Ends[i]) where Ends[-1] is taken as 0.
type Partition struct {
	Ends []int
}

func (ptn Partition) NumCells() int {
	return len(ptn.Ends)
}

// NumVerts returns the number of vertices covered by ptn.
func (ptn Partition) NumVerts() int {
	if len(ptn.Ends) == 0 {
		return 0
	}
	return ptn.Ends[len(ptn.Ends)-1]
}

// CellSizes appends the size of each cell to out.
func (ptn Partition) CellSizes(out []int) []int {
	start := 0
	for _, end := range ptn.Ends {
		out = append(out, end-start)
		start = end
	}
	return out
}

// Colors returns the cell index of every vertex.
func (ptn Partition) Colors() []int {
	colors := make([]int, ptn.NumVerts())
	start := 0
	for ci, end := range ptn.Ends {
		for v := start; v < end; v++ {
			colors[v] = ci
		}
		start = end
	}
	return colors
}

// Validate checks that ptn is a partition of {0..Nv-1} with no empty cells.
func (ptn Partition) Validate(Nv int) error {
	start := 0
	for ci, end := range ptn.Ends {
		if end <= start {
			return errors.Wrapf(isofilter.ErrBadPartition, "cell %d is empty", ci)
		}
		start = end
	}
	if start != Nv {
		return errors.Wrapf(isofilter.ErrBadPartition, "partition covers %d of %d vertices", start, Nv)
	}
	return nil
}

// Canonical is the output of a Canonizer.
type Canonical struct {

	// Lab maps each canonical position to the original vertex placed there.
	Lab []int

	// Graph is the input graph relabeled by Lab, with each neighbor list sorted ascending.
	Graph *Graph
}

// DomainIso returns the canonical relabeling of the first cell, which for an encoded model is the domain.
//
// DomainIso(order)[r] is the original domain element placed at canonical rank r.
func (cg *Canonical) DomainIso(order int) []int {
	return cg.Lab[:order]
}

// Canonizer computes a canonical labeling of a colored graph.
//
// Implementations must respect ptn (vertices only map within their own cell, and cell order is preserved)
// and must be deterministic: two isomorphic colored inputs yield identical Canonical.Graph values.
// Any error returned should wrap isofilter.ErrOracleFailed.
type Canonizer interface {
	Canonize(G *Graph, ptn Partition) (*Canonical, error)
}
