// Package catalog is the dedup cache: it retains one canonical key per isomorphism class seen so far.
package catalog

import (
	"github.com/2x3systems/isofilter/isofilter"
	"github.com/2x3systems/isofilter/libiso/codec"
	"github.com/2x3systems/isofilter/libiso/graph"
	"github.com/2x3systems/isofilter/libiso/model"
	"github.com/pkg/errors"
)

// Entry is a model reduced to its canonical form.
type Entry struct {
	Model     *model.Model
	Encoded   *graph.Encoded   // colored graph; aliases the catalog's builder until the next call to Inspect()
	Canonical *graph.Canonical // canonical labeling of Encoded
	Key       []byte           // canonical key in the catalog's KeyStyle
}

// DomainIso returns the canonical relabeling of the model's domain.
func (e *Entry) DomainIso() []int {
	return e.Canonical.DomainIso(e.Model.Order)
}

// AppendCompact appends the compact canonical form of the entry's model.
func (e *Entry) AppendCompact(out []byte) []byte {
	return codec.AppendCompact(out, e.Model, e.DomainIso())
}

// AppendVerbose appends the adjacency dump of the entry's canonical graph.
func (e *Entry) AppendVerbose(out []byte, opts codec.VerboseOpts) []byte {
	return codec.AppendVerbose(out, e.Canonical.Graph, e.Encoded.Partition, opts)
}

// Catalog decides, one model at a time, whether a model is isomorphic to one already admitted.
//
// Growth is bounded by CacheOpts.MaxSize: once full, a model not already retained is still reported
// as new but is not retained, so a later isomorphic model may be reported as new again.  A model
// isomorphic to a retained one is never reported as new.
type Catalog struct {
	opts      isofilter.CacheOpts
	canonizer graph.Canonizer
	builder   graph.Builder
	set       isofilter.CanonicSet // StrategyCanonical
	linear    []linearEntry        // StrategyLinear
}

type linearEntry struct {
	cells []int
	cg    *graph.Graph
}

// Open returns a new Catalog.  cz computes canonical labelings for Inspect() and Admit().
func Open(opts isofilter.CacheOpts, cz graph.Canonizer) (*Catalog, error) {
	if cz == nil {
		return nil, errors.Wrap(isofilter.ErrBadCatalogParam, "nil Canonizer")
	}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cat := &Catalog{
		opts:      opts,
		canonizer: cz,
	}

	if opts.Strategy == isofilter.StrategyCanonical {
		var err error
		cat.set, err = NewCanonicSet(opts)
		if err != nil {
			return nil, err
		}
	}

	return cat, nil
}

// NewCanonicSet returns the CanonicSet backend selected by opts.Backend.
func NewCanonicSet(opts isofilter.CacheOpts) (isofilter.CanonicSet, error) {
	switch opts.Backend {
	case isofilter.BackendHash, "":
		return newHashSet(opts.PoolSz), nil
	case isofilter.BackendTree:
		return newTreeSet(), nil
	case isofilter.BackendLSM:
		if opts.KeyStyle == "" {
			opts.KeyStyle = isofilter.KeyCompact
		}
		return openLSMSet(opts)
	}
	return nil, errors.Wrapf(isofilter.ErrBadCatalogParam, "unknown cache backend %q", opts.Backend)
}

func (cat *Catalog) Opts() isofilter.CacheOpts {
	return cat.opts
}

// Inspect encodes and canonically labels m.
//
// isofilter.ErrEmptyModel and isofilter.ErrOnlyConstants are returned as is; a labeling failure wraps isofilter.ErrOracleFailed.
func (cat *Catalog) Inspect(m *model.Model) (*Entry, error) {
	enc, err := cat.builder.Encode(m)
	if err != nil {
		return nil, err
	}

	cg, err := cat.canonizer.Canonize(enc.Graph, enc.Partition)
	if err != nil {
		if !errors.Is(err, isofilter.ErrOracleFailed) {
			err = errors.Wrap(isofilter.ErrOracleFailed, err.Error())
		}
		return nil, err
	}

	entry := &Entry{
		Model:     m,
		Encoded:   enc,
		Canonical: cg,
	}
	switch cat.opts.KeyStyle {
	case isofilter.KeyVerbose:
		entry.Key = entry.AppendVerbose(nil, codec.VerboseOpts{Shorten: true, Sep: ";"})
	default:
		entry.Key = entry.AppendCompact(nil)
	}
	return entry, nil
}

// Admit reports if m is not isomorphic to any model retained so far, retaining it if there is room.
func (cat *Catalog) Admit(m *model.Model) (bool, error) {
	entry, err := cat.Inspect(m)
	if err != nil {
		return false, err
	}
	return cat.AdmitEntry(entry)
}

// AdmitEntry is Admit() for an entry returned by Inspect().
func (cat *Catalog) AdmitEntry(entry *Entry) (bool, error) {
	if cat.opts.Strategy == isofilter.StrategyLinear {
		return cat.admitLinear(entry), nil
	}
	return cat.AdmitKey(entry.Key)
}

func (cat *Catalog) hasRoom() bool {
	return cat.opts.MaxSize < 0 || cat.Len() < cat.opts.MaxSize
}

// AdmitKey reports if key is new, retaining it if there is room.
func (cat *Catalog) AdmitKey(key []byte) (bool, error) {
	if cat.set == nil {
		return false, errors.Wrap(isofilter.ErrBadCatalogParam, "catalog does not retain keys")
	}
	if !cat.hasRoom() {
		found, err := cat.set.Has(key)
		return !found, err
	}
	return cat.set.TryAdd(key)
}

func (cat *Catalog) admitLinear(entry *Entry) bool {
	cells := entry.Encoded.Partition.CellSizes(nil)
	for _, kept := range cat.linear {
		if equalInts(kept.cells, cells) && kept.cg.Equal(entry.Canonical.Graph) {
			return false
		}
	}
	if cat.hasRoom() {
		cat.linear = append(cat.linear, linearEntry{
			cells: cells,
			cg:    entry.Canonical.Graph,
		})
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Len returns the number of retained classes.
func (cat *Catalog) Len() int {
	if cat.set != nil {
		return cat.set.Len()
	}
	return len(cat.linear)
}

type sortedVisitor interface {
	VisitSorted(onKey func(key []byte) bool) error
}

// VisitKeys calls onKey with every retained key in ascending order until onKey returns false.
//
// Only the tree and lsm backends retain keys in order; other backends return isofilter.ErrBadCatalogParam.
func (cat *Catalog) VisitKeys(onKey func(key []byte) bool) error {
	visitor, ok := cat.set.(sortedVisitor)
	if !ok {
		return errors.Wrapf(isofilter.ErrBadCatalogParam, "backend %q cannot list keys", cat.opts.Backend)
	}
	return visitor.VisitSorted(onKey)
}

func (cat *Catalog) Close() error {
	cat.linear = nil
	if cat.set == nil {
		return nil
	}
	err := cat.set.Close()
	cat.set = nil
	return err
}
