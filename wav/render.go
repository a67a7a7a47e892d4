package wav

import (
	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/pzx"
)

// renderPulseBlock decodes a PULS block's pulse runs (the same short/long
// count+duration encoding Writer.Store produces) and feeds each resulting
// pulse to w, alternating level starting low.
func renderPulseBlock(w *Writer, data []byte) error {
	level := false
	pos := 0
	for pos < len(data) {
		if len(data)-pos < 2 {
			return errors.New("pzx: truncated pulse")
		}
		count := uint32(1)
		duration := uint32(data[pos]) | uint32(data[pos+1])<<8
		pos += 2

		if duration > 0x8000 {
			count = duration & 0x7FFF
			if len(data)-pos < 2 {
				return errors.New("pzx: truncated pulse count")
			}
			duration = uint32(data[pos]) | uint32(data[pos+1])<<8
			pos += 2
		}
		if duration >= 0x8000 {
			if len(data)-pos < 2 {
				return errors.New("pzx: truncated pulse duration")
			}
			duration &= 0x7FFF
			duration <<= 16
			duration |= uint32(data[pos]) | uint32(data[pos+1])<<8
			pos += 2
		}

		for i := uint32(0); i < count; i++ {
			w.Out(duration, level)
			level = !level
		}
	}
	return nil
}

// renderDataBlock decodes a DATA block's bit-packed body using its two
// pulse sequences, feeding each pulse to w, and finishes with the tail
// pulse.
func renderDataBlock(w *Writer, data []byte) error {
	if len(data) < 8 {
		return errors.New("pzx: truncated data block")
	}
	raw := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	tailCycles := uint32(data[4]) | uint32(data[5])<<8
	pulseCount0 := int(data[6])
	pulseCount1 := int(data[7])

	level := raw>>31 != 0
	bitCount := raw & 0x7FFFFFFF

	pos := 8
	seqLen0, seqLen1 := 2*pulseCount0, 2*pulseCount1
	if len(data)-pos < seqLen0+seqLen1 {
		return errors.New("pzx: truncated data block sequences")
	}
	seq0 := data[pos : pos+seqLen0]
	pos += seqLen0
	seq1 := data[pos : pos+seqLen1]
	pos += seqLen1

	bits := data[pos:]
	if uint32(len(bits)) != (bitCount+7)/8 {
		return errors.Errorf("pzx: bit count %d does not match the actual data size %d", bitCount, len(bits))
	}

	renderBits := func(n uint32, b byte) {
		for n > 0 {
			n--
			seq, count := seq0, pulseCount0
			if b&0x80 != 0 {
				seq, count = seq1, pulseCount1
			}
			b <<= 1
			for i := 0; i < count; i++ {
				d := uint32(seq[2*i]) | uint32(seq[2*i+1])<<8
				w.Out(d, level)
				level = !level
			}
		}
	}

	idx := 0
	remaining := bitCount
	for remaining > 8 {
		renderBits(8, bits[idx])
		idx++
		remaining -= 8
	}
	if remaining > 0 {
		renderBits(remaining, bits[idx])
	}

	w.Out(tailCycles, level)
	return nil
}

// Render decodes a complete PZX binary image and feeds its pulse train to
// w, interpreting HEADER, PULSES, DATA and PAUSE blocks; every other tag
// is ignored, matching the original text dump and WAV converters' own
// tolerance for unknown blocks.
func Render(w *Writer, data []byte) error {
	blocks, err := pzx.ScanBlocks(data)
	if err != nil {
		return err
	}

	for _, b := range blocks {
		switch b.Tag {
		case pzx.TagHeader:
			if len(b.Data) < 2 {
				return errors.New("pzx: truncated header block")
			}
			major, minor := b.Data[0], b.Data[1]
			if major != pzx.Major {
				return errors.Errorf("pzx: unsupported PZX major version %d.%d", major, minor)
			}

		case pzx.TagPulses:
			if err := renderPulseBlock(w, b.Data); err != nil {
				return errors.Wrap(err, "pzx: rendering pulses block")
			}

		case pzx.TagData:
			if err := renderDataBlock(w, b.Data); err != nil {
				return errors.Wrap(err, "pzx: rendering data block")
			}

		case pzx.TagPause:
			if len(b.Data) < 4 {
				return errors.New("pzx: truncated pause block")
			}
			raw := uint32(b.Data[0]) | uint32(b.Data[1])<<8 | uint32(b.Data[2])<<16 | uint32(b.Data[3])<<24
			w.Out(raw&0x7FFFFFFF, raw>>31 != 0)
		}
	}
	return nil
}
