package graph

import (
	"github.com/2x3systems/isofilter/libiso/model"
)

// Encoded is a model reduced to a colored graph whose automorphisms are exactly the model's automorphisms.
type Encoded struct {
	Shape     Shape
	Graph     *Graph
	Partition Partition
}

// Encode reduces m to its colored graph.
//
// Errors from ComputeShape (isofilter.ErrEmptyModel, isofilter.ErrOnlyConstants) are returned unwrapped.
func Encode(m *model.Model) (*Encoded, error) {
	var Xb Builder
	return Xb.Encode(m)
}

// Encode is as the package-level Encode(), but reuses Xb's buffers.
func (Xb *Builder) Encode(m *model.Model) (*Encoded, error) {
	sh, err := ComputeShape(m)
	if err != nil {
		return nil, err
	}

	G, err := Xb.Build(m, sh)
	if err != nil {
		return nil, err
	}

	return &Encoded{
		Shape:     sh,
		Graph:     G,
		Partition: sh.Partition(),
	}, nil
}
