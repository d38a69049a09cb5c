// Package canon computes canonical labelings of vertex-colored graphs.
//
// The search is individualization-refinement: the coloring is refined to an equitable partition,
// the first non-singleton cell is split by individualizing each of its vertices in turn, and the
// search recurses until every cell is a singleton.  Each such leaf yields a relabeled graph; the
// leaf whose relabeled adjacency is lexicographically least is canonical.  Leaves that tie with the
// best leaf reveal automorphisms, which prune sibling branches lying in the same orbit.
package canon

import (
	"github.com/2x3systems/isofilter/isofilter"
	"github.com/2x3systems/isofilter/libiso/graph"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// Canonizer is an in-process graph.Canonizer.  It holds no state between calls and is safe for concurrent use.
type Canonizer struct {
	opts isofilter.SearchOpts
}

func NewCanonizer(opts isofilter.SearchOpts) *Canonizer {
	if opts.MaxLeaves <= 0 {
		opts.MaxLeaves = isofilter.DefaultMaxLeaves
	}
	return &Canonizer{
		opts: opts,
	}
}

// Canonize implements graph.Canonizer.
func (cz *Canonizer) Canonize(G *graph.Graph, ptn graph.Partition) (*graph.Canonical, error) {
	Nv := G.NumVerts()
	if err := ptn.Validate(Nv); err != nil {
		return nil, errors.Wrap(isofilter.ErrOracleFailed, err.Error())
	}

	s := newSearch(G, cz.opts)
	col := ptn.Colors()
	numColors := s.rf.refine(col, ptn.NumCells())

	if err := s.descend(col, numColors, nil); err != nil {
		return nil, err
	}

	klog.V(3).Infof("canon: %d vertices, %d leaves, %d automorphisms", Nv, s.numLeaves, len(s.gens))

	return &graph.Canonical{
		Lab:   s.bestLab,
		Graph: relabel(G, s.bestLab),
	}, nil
}

// search is the per-call state of one canonical labeling.
type search struct {
	G         *graph.Graph
	opts      isofilter.SearchOpts
	rf        *refiner
	counts    []int
	numLeaves int

	bestLab  []int
	bestCert []int
	leafCert []int
	leafLab  []int

	gens [][]int // automorphisms discovered so far
	uf   unionFind
}

func newSearch(G *graph.Graph, opts isofilter.SearchOpts) *search {
	Nv := G.NumVerts()
	return &search{
		G:       G,
		opts:    opts,
		rf:      newRefiner(Nv, G.Neighbors),
		counts:  make([]int, Nv+1),
		leafLab: make([]int, Nv),
		uf:      newUnionFind(Nv),
	}
}

// descend explores the subtree rooted at the equitable coloring col, reached by individualizing path.
func (s *search) descend(col []int, numColors int, path []int) error {
	cell := targetCell(col, numColors, s.counts)
	if cell == nil {
		return s.visitLeaf(col)
	}

	explored := make([]int, 0, len(cell))
	for _, v := range cell {
		if len(explored) > 0 && s.inExploredOrbit(v, explored, path) {
			continue
		}
		explored = append(explored, v)

		child := individualize(col, v)
		childColors := s.rf.refine(child, numColors+1)
		if err := s.descend(child, childColors, append(path, v)); err != nil {
			return err
		}
	}
	return nil
}

// inExploredOrbit reports if v is the image of an explored sibling under automorphisms that fix path pointwise.
func (s *search) inExploredOrbit(v int, explored, path []int) bool {
	if len(s.gens) == 0 {
		return false
	}

	s.uf.reset()
	merged := false
	for _, gamma := range s.gens {
		if !fixesPointwise(gamma, path) {
			continue
		}
		merged = true
		for a, b := range gamma {
			s.uf.union(a, b)
		}
	}
	if !merged {
		return false
	}

	root := s.uf.find(v)
	for _, w := range explored {
		if s.uf.find(w) == root {
			return true
		}
	}
	return false
}

func fixesPointwise(gamma []int, path []int) bool {
	for _, v := range path {
		if gamma[v] != v {
			return false
		}
	}
	return true
}

// visitLeaf compares the discrete coloring col against the best leaf so far.
func (s *search) visitLeaf(col []int) error {
	s.numLeaves++
	if s.numLeaves > s.opts.MaxLeaves {
		return errors.Wrapf(isofilter.ErrSearchExhausted, "%d leaves", s.opts.MaxLeaves)
	}

	for v, pos := range col {
		s.leafLab[pos] = v
	}
	s.leafCert = appendCertificate(s.leafCert[:0], s.G, s.leafLab, col)

	if s.bestLab == nil {
		s.bestLab = append([]int(nil), s.leafLab...)
		s.bestCert, s.leafCert = s.leafCert, s.bestCert
		return nil
	}

	switch cmp := compareSigs(s.leafCert, s.bestCert); {
	case cmp < 0:
		copy(s.bestLab, s.leafLab)
		s.bestCert, s.leafCert = s.leafCert, s.bestCert
	case cmp == 0:
		s.addAutomorphism()
	}
	return nil
}

// addAutomorphism records gamma: leafLab[i] -> bestLab[i], which maps the current leaf onto the best leaf.
func (s *search) addAutomorphism() {
	if s.opts.MaxGenerators > 0 && len(s.gens) >= s.opts.MaxGenerators {
		return
	}

	gamma := make([]int, len(s.leafLab))
	identity := true
	for i, v := range s.leafLab {
		gamma[v] = s.bestLab[i]
		if v != s.bestLab[i] {
			identity = false
		}
	}
	if !identity {
		s.gens = append(s.gens, gamma)
	}
}

// appendCertificate appends, for each position in lab order, the vertex degree followed by its sorted relabeled neighbors.
func appendCertificate(cert []int, G *graph.Graph, lab, pos []int) []int {
	for _, v := range lab {
		nbrs := G.Neighbors(v)
		cert = append(cert, len(nbrs))
		start := len(cert)
		for _, u := range nbrs {
			cert = append(cert, pos[u])
		}
		insertionSort(cert[start:])
	}
	return cert
}

func insertionSort(a []int) {
	for i := 1; i < len(a); i++ {
		x := a[i]
		j := i
		for ; j > 0 && a[j-1] > x; j-- {
			a[j] = a[j-1]
		}
		a[j] = x
	}
}

// relabel returns G with vertex lab[i] renamed i and every neighbor list sorted ascending.
func relabel(G *graph.Graph, lab []int) *graph.Graph {
	Nv := G.NumVerts()
	pos := make([]int, Nv)
	for i, v := range lab {
		pos[v] = i
	}

	cg := &graph.Graph{
		V: make([]int, Nv),
		D: make([]int, Nv),
		E: make([]int, 0, G.NumEdges()),
	}
	for i, v := range lab {
		cg.V[i] = len(cg.E)
		cg.D[i] = G.D[v]
		for _, u := range G.Neighbors(v) {
			cg.E = append(cg.E, pos[u])
		}
	}
	cg.SortNeighbors()
	return cg
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) unionFind {
	return unionFind{parent: make([]int, n)}
}

func (uf *unionFind) reset() {
	for i := range uf.parent {
		uf.parent[i] = i
	}
}

func (uf *unionFind) find(a int) int {
	for uf.parent[a] != a {
		uf.parent[a] = uf.parent[uf.parent[a]]
		a = uf.parent[a]
	}
	return a
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra < rb {
		uf.parent[rb] = ra
	} else if rb < ra {
		uf.parent[ra] = rb
	}
}
