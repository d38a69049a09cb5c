package model

import (
	"bufio"
	"io"
	"strings"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/pkg/errors"
)

const (
	blockStart      = "interpretation"
	blockTerminator = "])."
	commentPrefix   = "%"

	// DefaultMaxLineSz is the longest line NewReader() accepts; a block holding a longer line is malformed.
	DefaultMaxLineSz = 16 * 1024 * 1024
)

// Block is the raw text of one interpretation block.
type Block struct {
	Text string // block lines (comment lines excluded), each followed by '\n'
	Line int    // one-based line number of the block's first line
}

// Reader frames a Mace4 output stream into interpretation blocks.
//
// Lines outside of a block are ignored, as are lines starting with '%'.
type Reader struct {
	rd        *bufio.Reader
	maxLineSz int
	lineNum   int
	pending   string // a block start line already consumed by the previous call
	hasNext   bool
	line      []byte
	buf       strings.Builder
}

func NewReader(in io.Reader) *Reader {
	return NewReaderSize(in, DefaultMaxLineSz)
}

// NewReaderSize returns a Reader that accepts lines of up to maxLineSz bytes.
func NewReaderSize(in io.Reader, maxLineSz int) *Reader {
	if maxLineSz <= 0 {
		maxLineSz = DefaultMaxLineSz
	}
	return &Reader{
		rd:        bufio.NewReaderSize(in, 64*1024),
		maxLineSz: maxLineSz,
	}
}

// readLine returns the next line, less its line ending.
// A line longer than maxLineSz is consumed in full but returned truncated, with tooLong set.
func (rd *Reader) readLine() (line string, tooLong bool, err error) {
	rd.line = rd.line[:0]
	for {
		frag, isPrefix, err := rd.rd.ReadLine()
		if err != nil {
			if err == io.EOF && (len(rd.line) > 0 || tooLong) {
				break
			}
			return "", false, err
		}
		if !tooLong {
			if room := rd.maxLineSz - len(rd.line); len(frag) > room {
				rd.line = append(rd.line, frag[:room]...)
				tooLong = true
			} else {
				rd.line = append(rd.line, frag...)
			}
		}
		if !isPrefix {
			break
		}
	}
	rd.lineNum++
	return string(rd.line), tooLong, nil
}

// Next returns the next interpretation block.
//
// io.EOF is returned when the stream holds no further blocks.  If a block ends (by end of stream
// or by the start of another block) before its terminator, the partial block is returned along
// with an error wrapping isofilter.ErrMissingTerminator.  If a block holds a line longer than the
// Reader's max line size, the block up to that line is returned with isofilter.ErrLineTooLong and
// the rest of the block is skipped.  In either case the caller may call Next() again.
func (rd *Reader) Next() (Block, error) {
	var blk Block

	// Find the start of the next block
	var line string
	if rd.hasNext {
		line = rd.pending
		rd.hasNext = false
	} else {
		for {
			var tooLong bool
			var err error
			line, tooLong, err = rd.readLine()
			if err != nil {
				return blk, err
			}
			if strings.HasPrefix(line, commentPrefix) {
				continue
			}
			if strings.Contains(line, blockStart) {
				if tooLong {
					blk.Line = rd.lineNum
					return blk, errors.Wrapf(isofilter.ErrLineTooLong, "line %d", rd.lineNum)
				}
				break
			}
		}
	}

	blk.Line = rd.lineNum
	rd.buf.Reset()

	for {
		rd.buf.WriteString(line)
		rd.buf.WriteByte('\n')
		if strings.Contains(line, blockTerminator) {
			blk.Text = rd.buf.String()
			return blk, nil
		}

		// Advance to the next non-comment line
		for {
			var tooLong bool
			var err error
			line, tooLong, err = rd.readLine()
			if err == io.EOF {
				blk.Text = rd.buf.String()
				return blk, errors.Wrapf(isofilter.ErrMissingTerminator, "block at line %d", blk.Line)
			}
			if err != nil {
				return blk, err
			}
			if tooLong {
				blk.Text = rd.buf.String()
				return blk, errors.Wrapf(isofilter.ErrLineTooLong, "block at line %d, line %d", blk.Line, rd.lineNum)
			}
			if !strings.HasPrefix(line, commentPrefix) {
				break
			}
		}

		if strings.Contains(line, blockStart) {
			rd.pending = line
			rd.hasNext = true
			blk.Text = rd.buf.String()
			return blk, errors.Wrapf(isofilter.ErrMissingTerminator, "block at line %d", blk.Line)
		}
	}
}
