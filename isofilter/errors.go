package isofilter

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrEmptyModel        = errors.New("model has no operations or relations")
	ErrOnlyConstants     = errors.New("model has only constants")
	ErrMalformedModel    = errors.New("malformed interpretation block")
	ErrMissingTerminator = errors.New("interpretation block missing terminator")
	ErrDimensionMismatch = errors.New("table dimension does not match model order")
	ErrBadCellValue      = errors.New("table cell value out of range")
	ErrShapeMismatch     = errors.New("graph builder disagrees with computed shape")
	ErrBadPartition      = errors.New("bad color partition")
	ErrOracleFailed      = errors.New("canonical labeling failed")
	ErrBadCatalogParam   = errors.New("bad catalog param")
	ErrCatalogVersion    = errors.New("catalog version is incompatible")
	ErrCatalogClosed     = errors.New("catalog is closed")
	ErrBadConfig         = errors.New("bad filter config")
	ErrUnmarshal         = errors.New("unmarshal failed")
)

// ErrSearchExhausted is an oracle failure: errors.Is(ErrSearchExhausted, ErrOracleFailed) holds.
var ErrSearchExhausted = fmt.Errorf("canonical search exceeded its leaf budget: %w", ErrOracleFailed)


// ErrLineTooLong marks a block holding a line longer than the reader accepts; errors.Is(ErrLineTooLong, ErrMalformedModel) holds.
var ErrLineTooLong = fmt.Errorf("line exceeds max line size: %w", ErrMalformedModel)
