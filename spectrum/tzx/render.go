// Package tzx renders the TZX tape format — a self-describing sequence
// of typed blocks, some carrying pilot/data timing, some carrying
// control flow (jump, loop, call) — to a PZX writer.
package tzx

import (
	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/logging"
	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/spectrum/csw"
	"github.com/raxoft/pzxtools/tape"
)

const maxNesting = 10

// renderPulse emits a single pulse at level and flips it.
func renderPulse(w *pzx.Writer, level *bool, duration uint32) {
	w.Out(duration, *level)
	*level = !*level
}

// renderPulses emits count identical pulses, alternating level.
func renderPulses(w *pzx.Writer, level *bool, count, duration uint32) {
	for i := uint32(0); i < count; i++ {
		renderPulse(w, level, duration)
	}
}

// renderPilot emits a pilot tone followed by the two sync pulses that
// precede a standard/turbo/pure-data block.
func renderPilot(w *pzx.Writer, level *bool, leaderCount, leaderCycles, sync1Cycles, sync2Cycles uint32) {
	renderPulses(w, level, leaderCount, leaderCycles)
	renderPulse(w, level, sync1Cycles)
	renderPulse(w, level, sync2Cycles)
}

// renderData emits a bit-packed data block (MSB-first, optionally short
// in its last byte), and settles level on whichever of finalLevel0/1
// the last bit output dictates, or forces it low if a pause follows.
func renderData(w *pzx.Writer, level *bool, initialLevel, finalLevel0, finalLevel1 bool, data []byte, bitsInLastByte int, bit0a, bit0b, bit1a, bit1b uint16, tailCycles uint16, pauseLength uint32) error {
	bitCount := uint32(len(data)) * 8
	if bitsInLastByte <= 8 && bitCount >= 8 {
		bitCount = bitCount - 8 + uint32(bitsInLastByte)
	}
	seq0 := []uint16{bit0a, bit0b}
	seq1 := []uint16{bit1a, bit1b}

	if bitCount > 0 {
		tail := tailCycles
		if pauseLength == 0 {
			tail = 0
		}
		if err := w.Data(data, bitCount, initialLevel, seq0, seq1, tail); err != nil {
			return errors.Wrap(err, "tzx: writing data block")
		}

		bitIndex := bitCount - 1
		bitMask := byte(0x80 >> (bitIndex & 7))
		lastByte := data[bitIndex/8]
		if lastByte&bitMask != 0 {
			*level = finalLevel1
		} else {
			*level = finalLevel0
		}
	}

	if pauseLength > 0 {
		*level = false
		if pauseLength > 1 || tailCycles == 0 || bitCount == 0 {
			if err := w.Pause(pauseLength*tape.MillisecondCycles, *level); err != nil {
				return errors.Wrap(err, "tzx: writing pause")
			}
		}
	}
	return nil
}

// renderStandardData is the common case for standard/turbo/pure-data
// blocks: initial and both final levels are all the current level, so
// the net effect on level is a no-op unless a pause forces it low.
func renderStandardData(w *pzx.Writer, level *bool, data []byte, bitsInLastByte int, bit0, bit1 uint16, tailCycles uint16, pauseLength uint32) error {
	cur := *level
	return renderData(w, level, cur, cur, cur, data, bitsInLastByte, bit0, bit0, bit1, bit1, tailCycles, pauseLength)
}

// renderPause emits a millisecond pause, first settling a high level low
// with a one-millisecond pulse so the pause itself always starts low.
func renderPause(w *pzx.Writer, level *bool, durationMs uint32) error {
	if durationMs == 0 {
		return nil
	}
	if *level {
		renderPulse(w, level, tape.MillisecondCycles)
	}
	if err := w.Pause(durationMs*tape.MillisecondCycles, *level); err != nil {
		return errors.Wrap(err, "tzx: writing pause")
	}
	return nil
}

// le16/le24/le32 read a little-endian scalar at an absolute offset,
// relying on tape.Cursor's bounds-checked peek helpers. Every call site
// reads within a header or data slice already sized by scanBlocks, so
// the truncation error is discarded rather than threaded through every
// block-rendering branch.
func le16(b []byte, o int) uint32 { v, _ := tape.PeekU16At(b, o); return uint32(v) }
func le24(b []byte, o int) uint32 { v, _ := tape.PeekU24At(b, o); return v }
func le32(b []byte, o int) uint32 { v, _ := tape.PeekU32At(b, o); return v }

// renderCSW decodes an embedded CSW block (header + compressed pulse
// stream) and emits its pulses, followed by its optional pause.
func renderCSW(w *pzx.Writer, level *bool, data []byte) error {
	if len(data) < 0x0E {
		logging.Warn("TZX CSW block is too small")
		return nil
	}

	pauseLength := le16(data, 0)
	sampleRate := le24(data, 2)
	compression := data[5]
	expectedPulseCount := le32(data, 6)
	payload := data[10:]

	if sampleRate == 0 {
		logging.Warn("TZX CSW sample rate %d is invalid", sampleRate)
		return nil
	}

	pulseCount, newLevel := csw.RenderCompressedBlock(w, *level, compression, sampleRate, payload)
	if pulseCount != expectedPulseCount {
		logging.Warn("TZX CSW block actual pulse count %d differs from expected pulse count %d", pulseCount, expectedPulseCount)
	}

	*level = newLevel
	if pulseCount > 0 {
		*level = !*level
	}

	return renderPause(w, level, pauseLength)
}

// setBlockIndex applies a relative jump, clamped so it can never escape
// the block table. It returns false (leaving block_index at next_index)
// when the offset reaches too far in either direction.
func setBlockIndex(blockIndex *int, nextIndex int, offset int, blockCount int) bool {
	*blockIndex = nextIndex - 1

	var limit int
	if offset < 0 {
		limit = *blockIndex
	} else {
		limit = blockCount - nextIndex
	}
	distance := offset
	if distance < 0 {
		distance = -distance
	}

	if distance > limit {
		*blockIndex = nextIndex
		return false
	}

	*blockIndex += offset
	return true
}

func int16At(b []byte, o int) int {
	return int(int16(uint16(b[o]) | uint16(b[o+1])<<8))
}

// renderBlock dispatches a single TZX block. It returns false to signal
// the enclosing processBlocks loop to stop (a loop/call terminator, or
// a glue block whose major version this renderer cannot handle).
func renderBlock(w *pzx.Writer, level *bool, blockIndex *int, blocks []block, blockCount int, endType byte, nestingLevel int, jumpCount *int) (bool, error) {
	b := blocks[*blockIndex]
	*blockIndex++

	switch b.id {
	case idStandard:
		leaderCount := uint32(tape.ShortLeaderCount)
		if len(b.data) > 0 && b.data[0] < 128 {
			leaderCount = tape.LongLeaderCount
		}
		renderPilot(w, level, leaderCount, tape.LeaderCycles, tape.Sync1Cycles, tape.Sync2Cycles)
		pause := le16(b.header, 0)
		if err := renderStandardData(w, level, b.data, 8, tape.Bit0Cycles, tape.Bit1Cycles, tape.TailCycles, pause); err != nil {
			return false, err
		}

	case idTurbo:
		h := b.header
		renderPilot(w, level, le16(h, 0x0A), le16(h, 0x00), le16(h, 0x02), le16(h, 0x04))
		bitsInLastByte := int(h[0x0C])
		bit0, bit1 := uint16(le16(h, 0x06)), uint16(le16(h, 0x08))
		pause := le16(h, 0x0D)
		if err := renderStandardData(w, level, b.data, bitsInLastByte, bit0, bit1, tape.TailCycles, pause); err != nil {
			return false, err
		}

	case idPureTone:
		renderPulses(w, level, le16(b.header, 2), le16(b.header, 0))

	case idPulseSequence:
		count := int(b.header[0])
		for i := 0; i < count; i++ {
			renderPulse(w, level, le16(b.data, 2*i))
		}

	case idPureData:
		h := b.header
		bit0, bit1 := uint16(le16(h, 0x00)), uint16(le16(h, 0x02))
		bitsInLastByte := int(h[0x04])
		pause := le16(h, 0x05)
		if err := renderStandardData(w, level, b.data, bitsInLastByte, bit0, bit1, tape.TailCycles, pause); err != nil {
			return false, err
		}

	case idDirectRec:
		h := b.header
		duration := uint16(le16(h, 0x00))
		bitsInLastByte := int(h[0x04])
		pause := le16(h, 0x02)
		if err := renderData(w, level, false, false, true, b.data, bitsInLastByte, duration, 0, 0, duration, tape.MillisecondCycles, pause); err != nil {
			return false, err
		}

	case idCSW:
		if err := renderCSW(w, level, b.data); err != nil {
			return false, err
		}

	case idGDB:
		if err := renderGDB(w, level, b.data); err != nil {
			return false, err
		}

	case idSetLevel:
		if len(b.data) < 1 {
			logging.Warn("TZX set level block is too small")
		} else {
			*level = b.data[0] != 0
		}

	case idPause:
		duration := le16(b.header, 0)
		if duration > 0 {
			if err := renderPause(w, level, duration); err != nil {
				return false, err
			}
		} else if err := w.Stop(0); err != nil {
			return false, errors.Wrap(err, "tzx: writing stop")
		}

	case idStop48K:
		if err := w.Stop(1); err != nil {
			return false, errors.Wrap(err, "tzx: writing stop")
		}

	case idGroupStart:
		if err := w.Browse(b.data); err != nil {
			return false, errors.Wrap(err, "tzx: writing browse")
		}

	case idGroupEnd:
		// Nothing to do; the group name was already browsed at its start.

	case idJump:
		*jumpCount++
		setBlockIndex(blockIndex, *blockIndex, int16At(b.header, 0), blockCount)

	case idLoopStart:
		count := int(le16(b.header, 0))
		nextIndex := *blockIndex
		for i := 0; i < count; i++ {
			*blockIndex = nextIndex
			if err := processBlocks(w, level, blockIndex, blocks, blockCount, idLoopEnd, nestingLevel); err != nil {
				return false, err
			}
		}

	case idLoopEnd:
		if endType == idLoopEnd {
			return false, nil
		}
		logging.Warn("unexpected loop end block encountered")

	case idCallSequence:
		count := int(le16(b.header, 0))
		nextIndex := *blockIndex
		for i := 0; i < count; i++ {
			if !setBlockIndex(blockIndex, nextIndex, int16At(b.data, 2*i), blockCount) {
				break
			}
			if err := processBlocks(w, level, blockIndex, blocks, blockCount, idReturn, nestingLevel); err != nil {
				return false, err
			}
		}
		*blockIndex = nextIndex

	case idReturn:
		if endType == idReturn {
			return false, nil
		}
		logging.Warn("unexpected return block encountered")

	case idSelect:
		logging.Warn("select block was ignored")

	case idText:
		if err := w.Browse(b.data); err != nil {
			return false, errors.Wrap(err, "tzx: writing browse")
		}

	case idMessage:
		logging.Warn("message block was ignored")

	case idArchiveInfo:
		convertInfo(w, b.data, true)
		convertInfo(w, b.data, false)

	case idHardwareInfo:
		logging.Warn("hardware info block was ignored")

	case idCustomInfo:
		logging.Warn("custom info block was ignored")

	case idGlue:
		if err := checkGlue(b.header); err != nil {
			logging.Warn("%v", err)
			return false, nil
		}

	default:
		logging.Warn("unrecognized TZX block 0x%02x was ignored", b.id)
	}

	return true, nil
}

// processBlocks walks blocks starting at *blockIndex, stopping when
// endType is encountered, the table runs out, nesting runs too deep, or
// jump handling runs away — the same two safety caps the interpreter
// has always carried (depth 10, jumps bounded by block count).
func processBlocks(w *pzx.Writer, level *bool, blockIndex *int, blocks []block, blockCount int, endType byte, nestingLevel int) error {
	if nestingLevel > maxNesting {
		logging.Warn("too deep nesting detected - returning")
		return nil
	}

	jumpCount := 0
	for *blockIndex < blockCount {
		cont, err := renderBlock(w, level, blockIndex, blocks, blockCount, endType, nestingLevel+1, &jumpCount)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
		if jumpCount > blockCount {
			logging.Warn("too many jumps detected - stopping")
			break
		}
	}
	return nil
}

// Render decodes a complete TZX (or CDT) file and renders it to w.
func Render(w *pzx.Writer, data []byte) error {
	_, body, err := parseHeader(data)
	if err != nil {
		return err
	}

	blocks, err := scanBlocks(body)
	if err != nil {
		return errors.Wrap(err, "tzx: scanning blocks")
	}

	level := false
	blockIndex := 0
	return processBlocks(w, &level, &blockIndex, blocks, len(blocks), 0, 0)
}
