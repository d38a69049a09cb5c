package isofilter

import (
	"time"
)

const (

	// MaxNibbleOrder is the largest model order whose function tables are packed two cells per byte.
	// Nibble value 0xF is reserved for an unassigned cell.
	MaxNibbleOrder = 15

	// DefaultPoolSz is the default slab size used by the hash-backed CanonicSet to retain keys.
	DefaultPoolSz = 32 * 1024

	// DefaultMaxLeaves bounds the number of leaves a single canonical search may visit.
	DefaultMaxLeaves = 1 << 20
)

// CacheBackend selects the CanonicSet implementation that retains canonical keys.
type CacheBackend string

const (
	BackendHash CacheBackend = "hash" // maphash open addressing over pooled key slabs
	BackendTree CacheBackend = "tree" // ordered set, sortable key export
	BackendLSM  CacheBackend = "lsm"  // badger LSM, in-memory or persisted to DbPathName
)

// Strategy selects how a catalog decides whether a model is new.
type Strategy string

const (
	// StrategyCanonical derives a canonical string key and looks it up in a CanonicSet.
	StrategyCanonical Strategy = "canonical"

	// StrategyLinear retains canonical graphs and compares each candidate against every one of them.
	// Intended for debugging the canonical keys; O(n) per model.
	StrategyLinear Strategy = "linear"
)

// KeyStyle selects the canonical form used as a dedup key or emitted alongside a model.
type KeyStyle string

const (
	KeyCompact KeyStyle = "compact"
	KeyVerbose KeyStyle = "verbose"
)

// SearchOpts bounds the canonical labeling search.
type SearchOpts struct {
	MaxLeaves     int `mapstructure:"max-leaves"`     // 0 denotes DefaultMaxLeaves
	MaxGenerators int `mapstructure:"max-generators"` // automorphisms retained for pruning; 0 denotes no limit
}

// CacheOpts configures a model catalog.
type CacheOpts struct {
	MaxSize    int          `mapstructure:"max-size"`  // max number of retained keys; < 0 denotes unbounded
	Backend    CacheBackend `mapstructure:"backend"`   // "" denotes BackendHash
	DbPathName string       `mapstructure:"db"`        // BackendLSM only: if empty, the LSM is kept in memory
	Strategy   Strategy     `mapstructure:"strategy"`  // "" denotes StrategyCanonical
	KeyStyle   KeyStyle     `mapstructure:"key-style"` // "" denotes KeyCompact
	PoolSz     int          `mapstructure:"pool-size"` // 0 denotes DefaultPoolSz
}

// FilterOpts is the complete configuration of one filter run.
type FilterOpts struct {
	InputPath string     `mapstructure:"input"`      // "-" denotes stdin
	EmitCanon bool       `mapstructure:"emit-canon"` // if set, each admitted model is followed by its canonical form
	Symbols   []string   `mapstructure:"symbols"`    // if non-empty, only tables with these symbols are loaded
	Style     KeyStyle   `mapstructure:"style"`      // canonical form emitted when EmitCanon is set
	Compress  bool       `mapstructure:"compress"`   // if set, emitted canonical forms are zstd compressed and base64 armored
	Shorten   bool       `mapstructure:"shorten"`    // if set, verbose forms are emitted on one line
	Summary   bool       `mapstructure:"summary"`    // if set, summary lines are written after the last model
	Cache     CacheOpts  `mapstructure:"cache"`
	Search    SearchOpts `mapstructure:"search"`
}

// DefaultFilterOpts returns the options of a plain "isofilter -" invocation.
func DefaultFilterOpts() FilterOpts {
	return FilterOpts{
		InputPath: "-",
		Style:     KeyCompact,
		Summary:   true,
		Cache: CacheOpts{
			MaxSize:  -1,
			Backend:  BackendHash,
			Strategy: StrategyCanonical,
			KeyStyle: KeyCompact,
		},
		Search: SearchOpts{
			MaxLeaves: DefaultMaxLeaves,
		},
	}
}

// Stats tallies one filter run.
type Stats struct {
	NumProcessed     int64 // interpretation blocks encountered
	NumAdmitted      int64 // models emitted as non-isomorphic
	NumMalformed     int64 // blocks that failed to parse or validate
	NumEmpty         int64 // models with no operations or relations
	NumOnlyConstants int64 // models with only constants
	NumOracleFailed  int64 // models whose canonical labeling failed
	NumCached        int64 // keys retained by the catalog at end of run
	Elapsed          time.Duration
}

// CanonicSet retains canonical keys and reports whether a given key has already been added.
type CanonicSet interface {

	// TryAdd adds the given key if it is not already present.
	//
	// If key is already in this set, this call has no effect and TryAdd() returns false.
	// If key isn't in this set, a copy of key is added and true is returned.
	TryAdd(key []byte) (bool, error)

	// Has reports if key has been added.
	Has(key []byte) (bool, error)

	// Len returns the number of retained keys.
	Len() int

	// Close releases all resources held by this set.
	Close() error
}
