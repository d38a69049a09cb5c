// Package filter reads a stream of interpretation blocks and writes one model per isomorphism class.
package filter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/2x3systems/isofilter/libiso/canon"
	"github.com/2x3systems/isofilter/libiso/catalog"
	"github.com/2x3systems/isofilter/libiso/codec"
	"github.com/2x3systems/isofilter/libiso/graph"
	"github.com/2x3systems/isofilter/libiso/model"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// Filter processes models one at a time, in stream order.
type Filter struct {
	opts    isofilter.FilterOpts
	cat     *catalog.Catalog
	symbols model.SymbolFilter
	cmp     *codec.Compressor
	stats   isofilter.Stats
	buf     []byte
}

// New returns a Filter using the in-process canonical labeling search.
func New(opts isofilter.FilterOpts) (*Filter, error) {
	opts.ApplyDefaults()
	return NewWithCanonizer(opts, canon.NewCanonizer(opts.Search))
}

// NewWithCanonizer returns a Filter that canonically labels models with cz.
func NewWithCanonizer(opts isofilter.FilterOpts, cz graph.Canonizer) (*Filter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f := &Filter{
		opts:    opts,
		symbols: model.NewSymbolFilter(opts.Symbols),
	}

	var err error
	f.cat, err = catalog.Open(opts.Cache, cz)
	if err != nil {
		return nil, err
	}

	if opts.EmitCanon && opts.Compress {
		f.cmp, err = codec.NewCompressor()
		if err != nil {
			f.cat.Close()
			return nil, err
		}
	}
	return f, nil
}

func (f *Filter) Stats() isofilter.Stats {
	return f.stats
}

// Catalog returns the catalog retaining this filter's admitted classes.
func (f *Filter) Catalog() *catalog.Catalog {
	return f.cat
}

// Close releases the catalog and compressor.
func (f *Filter) Close() error {
	if f.cmp != nil {
		f.cmp.Close()
		f.cmp = nil
	}
	if f.cat == nil {
		return nil
	}
	err := f.cat.Close()
	f.cat = nil
	return err
}

// RunFile runs a Filter over opts.InputPath ("-" denotes stdin), writing to out.
func RunFile(ctx context.Context, opts isofilter.FilterOpts, out io.Writer) (isofilter.Stats, error) {
	opts.ApplyDefaults()

	in := io.Reader(os.Stdin)
	if opts.InputPath != "-" {
		file, err := os.Open(opts.InputPath)
		if err != nil {
			return isofilter.Stats{}, err
		}
		defer file.Close()
		in = file
	}

	f, err := New(opts)
	if err != nil {
		return isofilter.Stats{}, err
	}

	stats, err := f.Run(ctx, in, out)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return stats, err
}

// Run reads every interpretation block from in and writes each model not isomorphic to an earlier one to out.
//
// Malformed blocks, empty or constants-only models, and models whose canonical labeling fails are logged,
// counted, and skipped.  Run returns early only on an I/O or catalog error, or when ctx is done.
func (f *Filter) Run(ctx context.Context, in io.Reader, out io.Writer) (isofilter.Stats, error) {
	start := time.Now()
	wr := bufio.NewWriter(out)
	rd := model.NewReader(in)

	var err error
	for err == nil {
		if err = ctx.Err(); err != nil {
			break
		}

		var blk model.Block
		blk, err = rd.Next()
		if err == io.EOF {
			err = nil
			break
		}

		if err != nil && !isMalformed(err) {
			break
		}

		f.stats.NumProcessed++
		if err != nil {
			f.stats.NumMalformed++
			klog.Warningf("skipping model at line %d: %v", blk.Line, err)
			err = nil
			continue
		}

		err = f.Process(blk, wr)
	}

	f.stats.NumCached = int64(f.cat.Len())
	f.stats.Elapsed = time.Since(start)

	if err == nil && f.opts.Summary {
		err = f.writeSummary(wr)
	}
	if flushErr := wr.Flush(); err == nil {
		err = flushErr
	}

	klog.V(1).Infof("processed %d models: %d admitted, %d skipped, %d retained",
		f.stats.NumProcessed, f.stats.NumAdmitted, f.stats.NumSkipped(), f.stats.NumCached)
	return f.stats, err
}

// isMalformed reports if a framing error affects only the returned block.
func isMalformed(err error) bool {
	return errors.Is(err, isofilter.ErrMissingTerminator) || errors.Is(err, isofilter.ErrMalformedModel)
}

// Process filters a single block, writing it to out if its model is admitted.
//
// Only I/O and catalog errors are returned; a block that cannot be filtered is counted and skipped.
func (f *Filter) Process(blk model.Block, out io.Writer) error {
	m, err := model.Parse(blk.Text, f.symbols)
	if err != nil {
		f.stats.NumMalformed++
		klog.Warningf("skipping model at line %d: %v", blk.Line, err)
		return nil
	}
	if m.NumUnencoded > 0 {
		klog.V(1).Infof("model %d at line %d: %d tables of unsupported arity not compared", m.Number, blk.Line, m.NumUnencoded)
	}

	entry, err := f.cat.Inspect(m)
	switch {
	case err == nil:
	case err == isofilter.ErrEmptyModel:
		f.stats.NumEmpty++
		klog.V(1).Infof("skipping empty model %d at line %d", m.Number, blk.Line)
		return nil
	case err == isofilter.ErrOnlyConstants:
		f.stats.NumOnlyConstants++
		klog.V(1).Infof("skipping constants-only model %d at line %d", m.Number, blk.Line)
		return nil
	case errors.Is(err, isofilter.ErrOracleFailed):
		f.stats.NumOracleFailed++
		klog.Warningf("skipping model %d at line %d: %v", m.Number, blk.Line, err)
		return nil
	default:
		return err
	}

	admitted, err := f.cat.AdmitEntry(entry)
	if err != nil {
		return err
	}
	if !admitted {
		klog.V(2).Infof("model %d at line %d is isomorphic to an earlier model", m.Number, blk.Line)
		return nil
	}

	f.stats.NumAdmitted++
	return f.emit(entry, out)
}

func (f *Filter) emit(entry *catalog.Entry, out io.Writer) error {
	buf := append(f.buf[:0], entry.Model.Source...)

	if f.opts.EmitCanon {
		var canonical []byte
		switch f.opts.Style {
		case isofilter.KeyVerbose:
			vopts := codec.VerboseOpts{}
			if f.opts.Shorten || f.cmp != nil {
				vopts.Shorten = true
				vopts.Sep = ";"
			}
			canonical = entry.AppendVerbose(nil, vopts)
		default:
			canonical = entry.AppendCompact(nil)
		}

		switch {
		case f.cmp != nil:
			buf = f.cmp.AppendCompressed(buf, canonical)
		case f.opts.Style == isofilter.KeyVerbose:
			buf = append(buf, canonical...)
		default:
			buf = codec.AppendArmored(buf, canonical)
		}
		if buf[len(buf)-1] != '\n' {
			buf = append(buf, '\n')
		}
	}

	f.buf = buf
	_, err := out.Write(buf)
	return err
}

func (f *Filter) writeSummary(out io.Writer) error {
	_, err := fmt.Fprintf(out,
		"%% Number of models processed: %d\n%% Number of non-iso models: %d\n%% Elapsed time: %.3f seconds.\n",
		f.stats.NumProcessed, f.stats.NumAdmitted, f.stats.Elapsed.Seconds())
	return err
}
