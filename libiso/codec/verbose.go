package codec

import (
	"strconv"

	"github.com/2x3systems/isofilter/libiso/graph"
)

// VerboseOpts controls AppendVerbose.
type VerboseOpts struct {
	Sep     string // line separator; "" denotes "\n"
	Shorten bool   // omit " :" after each vertex and skip vertices listing no neighbors
	NoCells bool   // omit the leading partition line
}

// AppendVerbose appends an adjacency dump of a canonical graph.
//
// The first line lists the partition cell sizes.  Then, for each vertex i with nonzero degree,
// a line "i : j k ..." lists its neighbors j >= i in ascending order, so each undirected edge appears once.
func AppendVerbose(out []byte, cg *graph.Graph, ptn graph.Partition, opts VerboseOpts) []byte {
	sep := opts.Sep
	if sep == "" {
		sep = "\n"
	}

	if !opts.NoCells {
		out = append(out, "cells"...)
		var sizeBuf [32]int
		for _, sz := range ptn.CellSizes(sizeBuf[:0]) {
			out = append(out, ' ')
			out = strconv.AppendInt(out, int64(sz), 10)
		}
		out = append(out, sep...)
	}

	for i := 0; i < cg.NumVerts(); i++ {
		nbrs := cg.Neighbors(i)
		if len(nbrs) == 0 {
			continue
		}

		wroteLabel := false
		if !opts.Shorten {
			out = strconv.AppendInt(out, int64(i), 10)
			out = append(out, " :"...)
			wroteLabel = true
		}
		for _, j := range nbrs {
			if j < i {
				continue
			}
			if !wroteLabel {
				out = strconv.AppendInt(out, int64(i), 10)
				wroteLabel = true
			}
			out = append(out, ' ')
			out = strconv.AppendInt(out, int64(j), 10)
		}
		if wroteLabel {
			out = append(out, sep...)
		}
	}
	return out
}
