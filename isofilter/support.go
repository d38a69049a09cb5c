package isofilter

import (
	"strings"

	"github.com/pkg/errors"
)

// ApplyDefaults fills in zero-valued fields with their documented defaults.
func (opts *CacheOpts) ApplyDefaults() {
	if opts.Backend == "" {
		opts.Backend = BackendHash
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyCanonical
	}
	if opts.KeyStyle == "" {
		opts.KeyStyle = KeyCompact
	}
	if opts.PoolSz <= 0 {
		opts.PoolSz = DefaultPoolSz
	}
}

// Validate checks opts after ApplyDefaults().
func (opts *CacheOpts) Validate() error {
	switch opts.Backend {
	case BackendHash, BackendTree, BackendLSM:
	default:
		return errors.Wrapf(ErrBadCatalogParam, "unknown cache backend %q", opts.Backend)
	}
	switch opts.Strategy {
	case StrategyCanonical, StrategyLinear:
	default:
		return errors.Wrapf(ErrBadCatalogParam, "unknown strategy %q", opts.Strategy)
	}
	if err := opts.KeyStyle.Validate(); err != nil {
		return err
	}
	if opts.DbPathName != "" && opts.Backend != BackendLSM {
		return errors.Wrap(ErrBadCatalogParam, "DbPathName requires the lsm backend")
	}
	return nil
}

func (style KeyStyle) Validate() error {
	switch style {
	case KeyCompact, KeyVerbose:
		return nil
	}
	return errors.Wrapf(ErrBadConfig, "unknown canonical style %q", style)
}

// ApplyDefaults fills in zero-valued fields with their documented defaults.
func (opts *FilterOpts) ApplyDefaults() {
	if opts.InputPath == "" {
		opts.InputPath = "-"
	}
	if opts.Style == "" {
		opts.Style = KeyCompact
	}
	if opts.Search.MaxLeaves <= 0 {
		opts.Search.MaxLeaves = DefaultMaxLeaves
	}
	opts.Cache.ApplyDefaults()
}

// Validate applies defaults and then checks that opts describes a runnable filter.
func (opts *FilterOpts) Validate() error {
	opts.ApplyDefaults()
	if err := opts.Style.Validate(); err != nil {
		return err
	}
	if opts.Search.MaxGenerators < 0 {
		return errors.Wrap(ErrBadConfig, "MaxGenerators must be >= 0")
	}
	if err := opts.Cache.Validate(); err != nil {
		return err
	}
	return nil
}

// ParseSymbols splits a comma delimited symbol list such as "*,',f" into its symbols.
func ParseSymbols(list string) []string {
	var syms []string
	for _, sym := range strings.Split(list, ",") {
		sym = strings.TrimSpace(sym)
		if sym != "" {
			syms = append(syms, sym)
		}
	}
	return syms
}

// NumSkipped returns the number of processed models that were never offered to the catalog.
func (st *Stats) NumSkipped() int64 {
	return st.NumMalformed + st.NumEmpty + st.NumOnlyConstants + st.NumOracleFailed
}
