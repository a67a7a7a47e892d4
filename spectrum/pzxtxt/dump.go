// Package pzxtxt implements the PZX text dump format: a readable,
// line-oriented rendering of a PZX binary stream (Dump) and its inverse,
// a parser that replays the dump through a pzx.Writer (Parse).
package pzxtxt

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/logging"
	"github.com/raxoft/pzxtools/pzx"
)

// DumpOptions controls how Dump renders DATA and PULSES blocks.
type DumpOptions struct {
	DumpPulses     bool // dump data block content as raw pulses instead of DATA/BODY lines
	DumpAscii      bool // render printable bytes as ".c" instead of hex
	DumpHeaders    bool // recognize 19-byte DATA payloads as BASIC tape headers
	SkipData       bool // omit BODY lines entirely
	ExpandPulses   bool // one PULSE line per pulse instead of a run
	AnnotatePulses bool // suffix PULSE with the pulse's starting level
}

func le16(b []byte, o int) uint16 { return uint16(b[o]) | uint16(b[o+1])<<8 }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeLine writes prefix followed by the quoted, escaped rendering of
// data, matching dump_string's escape table (backslash/quote/\n/\r/\t
// shorthand, other control characters as \xHH, everything else verbatim
// including bytes above 127 since strings are UTF-8).
func escapeLine(w *bufio.Writer, prefix string, data []byte) {
	fmt.Fprintf(w, "%s \"", prefix)
	for _, b := range data {
		switch b {
		case '\\', '"':
			fmt.Fprintf(w, "\\%c", b)
			continue
		case '\n':
			w.WriteString(`\n`)
			continue
		case '\r':
			w.WriteString(`\r`)
			continue
		case '\t':
			w.WriteString(`\t`)
			continue
		}
		if b < 32 {
			fmt.Fprintf(w, "\\x%02X", b)
			continue
		}
		w.WriteByte(b)
	}
	w.WriteString("\"\n")
}

// dumpStrings splits data on zero bytes and dumps each resulting segment.
func dumpStrings(w *bufio.Writer, prefix string, data []byte) {
	for len(data) > 0 {
		i := 0
		for i < len(data) && data[i] != 0 {
			i++
		}
		escapeLine(w, prefix, data[:i])
		if i < len(data) {
			i++
		}
		data = data[i:]
	}
}

// dumpDataLine renders up to 32 bytes as a single BODY line.
func dumpDataLine(w *bufio.Writer, data []byte, ascii bool) {
	if len(data) == 0 {
		return
	}
	w.WriteString("BODY ")
	for _, b := range data {
		if ascii && b > 32 && b < 127 {
			fmt.Fprintf(w, ".%c", b)
		} else {
			fmt.Fprintf(w, "%02X", b)
		}
	}
	w.WriteByte('\n')
}

// dumpData renders data in 32-byte BODY chunks, unless skip suppresses it.
func dumpData(w *bufio.Writer, data []byte, ascii, skip bool) {
	if skip {
		return
	}
	const limit = 32
	for len(data) > limit {
		dumpDataLine(w, data[:limit], ascii)
		data = data[limit:]
	}
	dumpDataLine(w, data, ascii)
}

// dumpPulses writes one or more PULSE lines for count pulses of the given
// duration and advances level past all of them.
func dumpPulses(w *bufio.Writer, level *bool, duration uint32, count uint32, opts DumpOptions) {
	if opts.ExpandPulses {
		for ; count > 0; count-- {
			if opts.AnnotatePulses {
				fmt.Fprintf(w, "PULSE%d %d\n", boolInt(*level), duration)
			} else {
				fmt.Fprintf(w, "PULSE %d\n", duration)
			}
			*level = !*level
		}
		return
	}

	if opts.AnnotatePulses {
		fmt.Fprintf(w, "PULSE%d %d", boolInt(*level), duration)
	} else {
		fmt.Fprintf(w, "PULSE %d", duration)
	}
	if count > 1 {
		fmt.Fprintf(w, " %d", count)
	}
	w.WriteByte('\n')
	if count&1 != 0 {
		*level = !*level
	}
}

// dumpBits renders up to 8 bits of a data byte, MSB first, using the two
// bit pulse sequences.
func dumpBits(w *bufio.Writer, level *bool, bitCount int, b byte, seq0, seq1 []byte, opts DumpOptions) {
	for ; bitCount > 0; bitCount-- {
		seq := seq0
		if b&0x80 != 0 {
			seq = seq1
		}
		b <<= 1
		for i := 0; i+1 < len(seq); i += 2 {
			dumpPulses(w, level, uint32(le16(seq, i)), 1, opts)
		}
	}
}

// dumpBitSequence writes a BIT0/BIT1 line listing every pulse duration in
// the sequence.
func dumpBitSequence(w *bufio.Writer, index int, seq []byte) {
	fmt.Fprintf(w, "BIT%d", index)
	for i := 0; i+1 < len(seq); i += 2 {
		fmt.Fprintf(w, " %d", le16(seq, i))
	}
	w.WriteByte('\n')
}

// dumpPulseBlock decodes a PULS block's run-length encoded pulses and
// dumps them as PULSE lines.
func dumpPulseBlock(w *bufio.Writer, data []byte, opts DumpOptions) error {
	w.WriteString("PULSES\n")

	level := false
	pos := 0
	for pos < len(data) {
		if len(data)-pos < 2 {
			return errors.New("pzxtxt: truncated pulse")
		}
		count := uint32(1)
		duration := uint32(le16(data, pos))
		pos += 2

		if duration > 0x8000 {
			if len(data)-pos < 2 {
				return errors.New("pzxtxt: truncated pulse count")
			}
			count = duration & 0x7FFF
			duration = uint32(le16(data, pos))
			pos += 2
		}
		if duration >= 0x8000 {
			if len(data)-pos < 2 {
				return errors.New("pzxtxt: truncated pulse duration")
			}
			duration &= 0x7FFF
			duration <<= 16
			duration |= uint32(le16(data, pos))
			pos += 2
		}

		dumpPulses(w, &level, duration, count, opts)
	}
	return nil
}

// dumpDataBlock decodes a DATA block, either as raw pulses (DumpPulses)
// or as its structured DATA/SIZE/BITS/TAIL/BIT0/BIT1/BODY representation,
// recognizing a 19-byte payload as a BASIC tape header when DumpHeaders
// is set.
func dumpDataBlock(w *bufio.Writer, data []byte, opts DumpOptions) error {
	if len(data) < 8 {
		return errors.New("pzxtxt: truncated data block")
	}
	rawBitCount := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	tailCycles := le16(data, 4)
	pulseCount0 := int(data[6])
	pulseCount1 := int(data[7])

	level := rawBitCount>>31 != 0
	bitCount := rawBitCount & 0x7FFFFFFF

	pos := 8
	seqLen0, seqLen1 := 2*pulseCount0, 2*pulseCount1
	if len(data)-pos < seqLen0+seqLen1 {
		return errors.New("pzxtxt: truncated data block sequences")
	}
	seq0 := data[pos : pos+seqLen0]
	pos += seqLen0
	seq1 := data[pos : pos+seqLen1]
	pos += seqLen1

	body := data[pos:]
	if uint32(len(body)) != (bitCount+7)/8 {
		return errors.Errorf("pzxtxt: bit count %d does not match the actual data size %d", bitCount, len(body))
	}

	if opts.DumpPulses {
		w.WriteString("PULSES\n")
		if level {
			level = false
			dumpPulses(w, &level, 0, 1, opts)
		}

		idx := 0
		remaining := bitCount
		for remaining > 8 {
			dumpBits(w, &level, 8, body[idx], seq0, seq1, opts)
			idx++
			remaining -= 8
		}
		var last byte
		if idx < len(body) {
			last = body[idx]
		}
		dumpBits(w, &level, int(remaining), last, seq0, seq1, opts)

		if tailCycles > 0 {
			dumpPulses(w, &level, uint32(tailCycles), 1, opts)
		}
		return nil
	}

	fmt.Fprintf(w, "DATA %d\n", boolInt(level))
	fmt.Fprintf(w, "SIZE %d\n", bitCount/8)
	if bitCount&7 != 0 {
		fmt.Fprintf(w, "BITS %d\n", bitCount&7)
	}
	fmt.Fprintf(w, "TAIL %d\n", tailCycles)

	dumpBitSequence(w, 0, seq0)
	dumpBitSequence(w, 1, seq1)

	if opts.DumpHeaders && len(body) == 19 {
		fmt.Fprintf(w, "BYTE %d %d\n", body[0], body[1])
		dumpDataLine(w, body[2:12], true)
		fmt.Fprintf(w, "WORD %d %d %d\n", le16(body, 12), le16(body, 14), le16(body, 16))
		fmt.Fprintf(w, "BYTE %d\n", body[18])
		return nil
	}

	dumpData(w, body, opts.DumpAscii, opts.SkipData)
	return nil
}

// dumpBlock dumps a single PZX block according to its tag.
func dumpBlock(w *bufio.Writer, tag string, data []byte, opts DumpOptions) error {
	switch tag {
	case pzx.TagHeader:
		if len(data) < 2 {
			return errors.New("pzxtxt: truncated header block")
		}
		major, minor := data[0], data[1]
		if major != pzx.Major {
			return errors.Errorf("pzxtxt: unsupported PZX major version %d.%d - stopping", major, minor)
		}
		if minor > pzx.Minor {
			logging.Warn("unsupported PZX minor version %d.%d - proceeding", major, minor)
		}
		fmt.Fprintf(w, "PZX %d.%d\n", major, minor)
		dumpStrings(w, "INFO", data[2:])
		return nil

	case pzx.TagPulses:
		return dumpPulseBlock(w, data, opts)

	case pzx.TagData:
		return dumpDataBlock(w, data, opts)

	case pzx.TagPause:
		if len(data) < 4 {
			return errors.New("pzxtxt: truncated pause block")
		}
		raw := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		fmt.Fprintf(w, "PAUSE %d %d\n", raw&0x7FFFFFFF, raw>>31)
		return nil

	case pzx.TagStop:
		if len(data) < 2 {
			return errors.New("pzxtxt: truncated stop block")
		}
		fmt.Fprintf(w, "STOP %d\n", le16(data, 0))
		return nil

	case pzx.TagBrowse:
		escapeLine(w, "BROWSE", data)
		return nil

	default:
		fmt.Fprintf(w, "TAG %s\n", tag)
		fmt.Fprintf(w, "SIZE %d\n", len(data))
		dumpData(w, data, opts.DumpAscii, opts.SkipData)
		return nil
	}
}

// Dump renders a complete PZX binary image as a text dump, separating
// successive blocks with a blank line.
func Dump(out io.Writer, data []byte, opts DumpOptions) error {
	blocks, err := pzx.ScanBlocks(data)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	for i, b := range blocks {
		if i > 0 {
			w.WriteByte('\n')
		}
		if err := dumpBlock(w, b.Tag, b.Data, opts); err != nil {
			return err
		}
	}
	return w.Flush()
}
