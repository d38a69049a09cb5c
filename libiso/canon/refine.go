package canon

import (
	"sort"
)

// refiner computes the coarsest equitable refinement of a vertex coloring.
//
// A color is a dense rank in [0, numColors).  Refinement only ever splits colors and preserves
// the relative order of existing colors, so every vertex stays within its original partition cell.
type refiner struct {
	nbrs  func(v int) []int
	sigs  [][]int // per-vertex signature scratch: color, then sorted neighbor colors
	order []int
}

func newRefiner(numVerts int, nbrs func(v int) []int) *refiner {
	return &refiner{
		nbrs:  nbrs,
		sigs:  make([][]int, numVerts),
		order: make([]int, numVerts),
	}
}

func compareSigs(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if d := a[i] - b[i]; d != 0 {
			return d
		}
	}
	return len(a) - len(b)
}

// refine recolors col in place until no color class splits, returning the final number of colors.
func (rf *refiner) refine(col []int, numColors int) int {
	n := len(col)
	for {
		for v := 0; v < n; v++ {
			sig := append(rf.sigs[v][:0], col[v])
			for _, u := range rf.nbrs(v) {
				sig = append(sig, col[u])
			}
			sort.Ints(sig[1:])
			rf.sigs[v] = sig
			rf.order[v] = v
		}

		sort.Slice(rf.order, func(i, j int) bool {
			return compareSigs(rf.sigs[rf.order[i]], rf.sigs[rf.order[j]]) < 0
		})

		rank := 0
		for i, v := range rf.order {
			if i > 0 && compareSigs(rf.sigs[rf.order[i-1]], rf.sigs[v]) != 0 {
				rank++
			}
			col[v] = rank
		}

		newCount := rank + 1
		if n == 0 {
			newCount = 0
		}
		if newCount == numColors {
			return numColors
		}
		numColors = newCount
	}
}

// individualize returns a copy of col in which v alone holds the lowest slot of its former color.
func individualize(col []int, v int) []int {
	out := make([]int, len(col))
	for u, c := range col {
		out[u] = 2*c + 1
	}
	out[v]--
	return out
}

// targetCell returns the vertices (ascending) of the lowest color shared by more than one vertex, or nil if col is discrete.
func targetCell(col []int, numColors int, counts []int) []int {
	counts = counts[:numColors]
	for i := range counts {
		counts[i] = 0
	}
	for _, c := range col {
		counts[c]++
	}

	target := -1
	for c, k := range counts {
		if k > 1 {
			target = c
			break
		}
	}
	if target < 0 {
		return nil
	}

	cell := make([]int, 0, counts[target])
	for v, c := range col {
		if c == target {
			cell = append(cell, v)
		}
	}
	return cell
}
