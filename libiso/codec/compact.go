// Package codec renders canonically relabeled models and graphs as strings.
//
// The compact form is the dedup key: a header followed by every table of the model,
// re-indexed through the canonical domain relabeling.  Two models are isomorphic exactly
// when their compact forms are equal.
package codec

import (
	"strconv"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/2x3systems/isofilter/libiso/model"
)

const (
	TableSep   = ';'
	Unassigned = '?'
	Padding    = '.'
	nibbleNone = 0x0F
)

// Base64Table is the digit alphabet of base-64 cells.
const Base64Table = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// CellWidth returns the number of base-64 digits per function cell for a given order: the least w with 64^w >= order.
func CellWidth(order int) int {
	w := 1
	for span := 64; span < order; span *= 64 {
		w++
	}
	return w
}

// UsesNibbles reports if function tables of the given order are packed two cells per byte.
func UsesNibbles(order int) bool {
	return order <= isofilter.MaxNibbleOrder
}

// AppendCompact appends the compact canonical form of m to out.
//
// iso is the canonical domain relabeling: iso[r] is the element of m placed at canonical rank r.
// The form is "order:c,u,b,r;" followed by the binary ops, relations, unary ops, then constants,
// each terminated by TableSep.
//
// Function cells of models with order <= isofilter.MaxNibbleOrder are packed two per byte, high nibble first,
// with 0xF marking an unassigned cell (or padding the last byte); these tables have fixed length.
// Otherwise each function cell is CellWidth(order) big-endian digits of Base64Table, and an unassigned cell is
// Unassigned followed by Padding.  Relation cells are always one digit: 'A' (false), 'B' (true), or Unassigned.
// Trailing unassigned cells of base-64 tables are dropped.
func AppendCompact(out []byte, m *model.Model, iso []int) []byte {
	N := m.Order
	inv := make([]int, N)
	for r, v := range iso {
		inv[v] = r
	}

	enc := tableEncoder{
		out:     out,
		nibbles: UsesNibbles(N),
		width:   CellWidth(N),
	}

	enc.out = strconv.AppendInt(enc.out, int64(N), 10)
	enc.out = append(enc.out, ':')
	enc.out = strconv.AppendInt(enc.out, int64(len(m.Constants)), 10)
	enc.out = append(enc.out, ',')
	enc.out = strconv.AppendInt(enc.out, int64(len(m.UnaryOps)), 10)
	enc.out = append(enc.out, ',')
	enc.out = strconv.AppendInt(enc.out, int64(len(m.BinaryOps)), 10)
	enc.out = append(enc.out, ',')
	enc.out = strconv.AppendInt(enc.out, int64(len(m.BinaryRels)), 10)
	enc.out = append(enc.out, TableSep)

	relabel := func(v int) int {
		if v == model.Unassigned {
			return v
		}
		return inv[v]
	}

	for _, op := range m.BinaryOps {
		enc.beginTable()
		for r := 0; r < N; r++ {
			row := op[iso[r]]
			for c := 0; c < N; c++ {
				enc.putFunc(relabel(row[iso[c]]))
			}
		}
		enc.endTable()
	}
	for _, rel := range m.BinaryRels {
		enc.beginTable()
		for r := 0; r < N; r++ {
			row := rel[iso[r]]
			for c := 0; c < N; c++ {
				enc.putRel(row[iso[c]])
			}
		}
		enc.endRelTable()
	}
	for _, op := range m.UnaryOps {
		enc.beginTable()
		for r := 0; r < N; r++ {
			enc.putFunc(relabel(op[iso[r]]))
		}
		enc.endTable()
	}
	for _, c := range m.Constants {
		enc.beginTable()
		enc.putFunc(relabel(c))
		enc.endTable()
	}

	return enc.out
}

type tableEncoder struct {
	out       []byte
	nibbles   bool
	width     int
	tblStart  int  // offset in out of the current table
	lastValid int  // offset in out just past the last assigned cell of the current table
	halfByte  bool // nibble mode: the last byte has an open low nibble
}

func (enc *tableEncoder) beginTable() {
	enc.tblStart = len(enc.out)
	enc.lastValid = enc.tblStart
	enc.halfByte = false
}

func (enc *tableEncoder) putFunc(v int) {
	if enc.nibbles {
		x := byte(nibbleNone)
		if v != model.Unassigned {
			x = byte(v)
		}
		if enc.halfByte {
			enc.out[len(enc.out)-1] = enc.out[len(enc.out)-1]&0xF0 | x
		} else {
			enc.out = append(enc.out, x<<4|nibbleNone)
		}
		enc.halfByte = !enc.halfByte
		return
	}

	if v == model.Unassigned {
		enc.out = append(enc.out, Unassigned)
		for i := 1; i < enc.width; i++ {
			enc.out = append(enc.out, Padding)
		}
		return
	}
	enc.out = appendBase64(enc.out, v, enc.width)
	enc.lastValid = len(enc.out)
}

func (enc *tableEncoder) putRel(t int) {
	if t == model.Unassigned {
		enc.out = append(enc.out, Unassigned)
		return
	}
	enc.out = append(enc.out, Base64Table[t])
	enc.lastValid = len(enc.out)
}

// endTable terminates a function table.
func (enc *tableEncoder) endTable() {
	if !enc.nibbles {
		enc.out = enc.out[:enc.lastValid]
	}
	enc.out = append(enc.out, TableSep)
}

// endRelTable terminates a relation table, which is always base-64.
func (enc *tableEncoder) endRelTable() {
	enc.out = append(enc.out[:enc.lastValid], TableSep)
}

// appendBase64 appends val as exactly width big-endian digits of Base64Table.
func appendBase64(out []byte, val, width int) []byte {
	var digits [8]byte
	for i := width - 1; i >= 0; i-- {
		digits[i] = Base64Table[val&63]
		val >>= 6
	}
	return append(out, digits[:width]...)
}
