// Package pzx implements the PZX pulse-stream writer (the state machine
// that coalesces individual pulses into runs and flushes complete
// blocks) and the pulse packer that folds a raw pulse stream into a
// compact two-sequence DATA block.
package pzx

import (
	"io"

	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/storage"
	"github.com/raxoft/pzxtools/tape"
)

// pulseLimit is the largest single pulse duration a PZX file can carry;
// out() recursively splits anything larger.
const pulseLimit = tape.PulseLimit

// lastPulse is the pulse currently being accumulated but not yet
// committed to the pending run.
type lastPulse struct {
	level    bool
	duration uint32
}

// pendingRun is the most recently completed pulse duration, awaiting
// possible run-length merging with the next one of the same duration.
type pendingRun struct {
	count    uint32
	duration uint32
}

// Writer drives the PZX pulse state machine described in the pending-
// pulse-state data model: at most one unfinished pulse (last) and one
// unfinished run (repeat) are ever outstanding, and both are drained
// only by flush.
type Writer struct {
	sink io.Writer

	header storage.Buffer
	pulses storage.Buffer
	data   storage.Buffer

	last   lastPulse
	repeat pendingRun

	opened bool
}

// Open binds the writer to an output sink. Nothing is written yet; the
// header buffer is primed with the two version bytes so the first flush
// always emits a PZXT block even if no info strings were added.
func Open(sink io.Writer) *Writer {
	w := &Writer{sink: sink, opened: true}
	w.header.WriteByte(Major)
	w.header.WriteByte(Minor)
	return w
}

// Close flushes any pending state and unbinds the writer.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	w.opened = false
	return nil
}

func (w *Writer) requireOpen() {
	if !w.opened {
		panic("pzx: writer used before Open or after Close")
	}
}

// HeaderAppend appends raw bytes to the pending PZXT header block.
func (w *Writer) HeaderAppend(b []byte) {
	w.requireOpen()
	w.header.Write(b)
}

// Info appends a UTF-8 info string to the pending header block. Infos
// accumulated so far are zero-separated, but only once the header
// already carries data past the two version bytes.
func (w *Writer) Info(s string) {
	w.requireOpen()
	if w.header.Len() > 2 {
		w.header.WriteByte(0)
	}
	w.HeaderAppend([]byte(s))
}

// writeBlock writes a tag, a little-endian size, and the payload, then
// clears the payload buffer — the same "write and reset" shape every
// PZX block emission follows.
func (w *Writer) writeBlock(tag string, payload *storage.Buffer) error {
	if _, err := w.sink.Write([]byte(tag)); err != nil {
		return errors.Wrap(err, "pzx: write block tag")
	}
	var size [4]byte
	n := uint32(payload.Len())
	size[0] = byte(n)
	size[1] = byte(n >> 8)
	size[2] = byte(n >> 16)
	size[3] = byte(n >> 24)
	if _, err := w.sink.Write(size[:]); err != nil {
		return errors.Wrap(err, "pzx: write block size")
	}
	if payload.Len() > 0 {
		if _, err := w.sink.Write(payload.Bytes()); err != nil {
			return errors.Wrap(err, "pzx: write block payload")
		}
	}
	payload.Clear()
	return nil
}

// Store commits a (count, duration) run to the pulse buffer using the
// short/long encoding documented in the wire format: the count word is
// only written when count>1 or the duration exceeds 16 bits, and the
// duration itself is one u16 when it fits 15 bits, or a marked pair
// otherwise. A lone long-form duration below 0x10000 therefore starts
// with the word 0x8000, which readers take as a duration marker rather
// than a count.
func (w *Writer) Store(count uint32, duration uint32) {
	w.requireOpen()
	if count > 1 || duration > 0xFFFF {
		w.pulses.WriteU16LE(uint16(0x8000 | count))
	}
	if duration < 0x8000 {
		w.pulses.WriteU16LE(uint16(duration))
	} else {
		w.pulses.WriteU16LE(uint16(0x8000 | (duration >> 16)))
		w.pulses.WriteU16LE(uint16(duration & 0xFFFF))
	}
}

// Pulse appends a raw repeatable pulse duration to the pending run,
// merging it with the previous one when they're identical and the count
// hasn't hit the 15-bit ceiling.
func (w *Writer) Pulse(duration uint32) {
	w.requireOpen()
	if w.repeat.count > 0 && w.repeat.duration == duration && w.repeat.count < 0x7FFF {
		w.repeat.count++
		return
	}
	if w.repeat.count > 0 {
		w.Store(w.repeat.count, w.repeat.duration)
	}
	w.repeat = pendingRun{count: 1, duration: duration}
}

// Out appends a pulse of the given level. A zero duration is a no-op.
// Durations beyond the pulse limit are split into same-level chunks.
func (w *Writer) Out(duration uint32, level bool) {
	w.requireOpen()
	if duration == 0 {
		return
	}
	for duration > pulseLimit {
		w.Out(pulseLimit, level)
		duration -= pulseLimit
	}

	if w.last.level != level {
		w.Pulse(w.last.duration)
		w.last = lastPulse{level: level, duration: 0}
	}

	w.last.duration += duration
	if w.last.duration > pulseLimit {
		w.Pulse(pulseLimit)
		w.Pulse(0)
		w.last.duration -= pulseLimit
	}
}

// Flush commits any pending header, then the pending last pulse, then
// the pending run, then emits the PULSES block if it isn't empty. This
// ordering is mandatory: it's the only exit path for the two pending
// state tuples, and every non-pulse block implicitly calls it first.
func (w *Writer) Flush() error {
	w.requireOpen()

	if !w.header.IsEmpty() {
		if err := w.writeBlock(TagHeader, &w.header); err != nil {
			return err
		}
	}

	if w.last.duration > 0 {
		w.Pulse(w.last.duration)
		w.last = lastPulse{}
	}

	if w.repeat.count > 0 {
		w.Store(w.repeat.count, w.repeat.duration)
		w.repeat = pendingRun{}
	}

	if !w.pulses.IsEmpty() {
		if err := w.writeBlock(TagPulses, &w.pulses); err != nil {
			return err
		}
	}

	return nil
}

// Data flushes pending state, then emits a DATA block for the given
// MSB-first bit stream, framed by the two pulse sequences that encode a
// 0 and a 1 bit respectively and an optional tail pulse.
func (w *Writer) Data(bits []byte, bitCount uint32, initialLevel bool, seq0, seq1 []uint16, tailCycles uint16) error {
	w.requireOpen()
	if err := w.Flush(); err != nil {
		return err
	}

	bitCountWithLevel := bitCount & 0x7FFFFFFF
	if initialLevel {
		bitCountWithLevel |= 0x80000000
	}
	w.data.WriteU32LE(bitCountWithLevel)
	w.data.WriteU16LE(tailCycles)
	w.data.WriteByte(uint8(len(seq0)))
	w.data.WriteByte(uint8(len(seq1)))
	for _, d := range seq0 {
		w.data.WriteU16LE(d)
	}
	for _, d := range seq1 {
		w.data.WriteU16LE(d)
	}
	w.data.Write(bits)

	return w.writeBlock(TagData, &w.data)
}

// Pulses is the unpacked fallback: it emits each duration alternating
// level starting from initialLevel, then an optional tail pulse.
func (w *Writer) Pulses(pulses []uint16, initialLevel bool, tailCycles uint16) {
	w.requireOpen()
	level := initialLevel
	for _, d := range pulses {
		w.Out(uint32(d), level)
		level = !level
	}
	if tailCycles > 0 {
		w.Out(uint32(tailCycles), level)
	}
}

// Pause flushes pending state and emits a PAUS block. duration must fit
// 31 bits; level is folded into the high bit.
func (w *Writer) Pause(duration uint32, level bool) error {
	w.requireOpen()
	if err := w.Flush(); err != nil {
		return err
	}
	v := duration & 0x7FFFFFFF
	if level {
		v |= 0x80000000
	}
	w.data.WriteU32LE(v)
	return w.writeBlock(TagPause, &w.data)
}

// Stop flushes pending state and emits a STOP block. flags bit 0 = 48K
// only; 0 = always.
func (w *Writer) Stop(flags uint16) error {
	w.requireOpen()
	if err := w.Flush(); err != nil {
		return err
	}
	w.data.WriteU16LE(flags)
	return w.writeBlock(TagStop, &w.data)
}

// Browse flushes pending state and emits a BRWS block verbatim.
func (w *Writer) Browse(b []byte) error {
	w.requireOpen()
	if err := w.Flush(); err != nil {
		return err
	}
	w.data.Write(b)
	return w.writeBlock(TagBrowse, &w.data)
}

// WriteRaw emits an arbitrary tagged block verbatim, after flushing
// pending state. Used by the text-dump reader to round-trip unknown
// PZX tags it doesn't otherwise understand.
func (w *Writer) WriteRaw(tag string, payload []byte) error {
	w.requireOpen()
	if err := w.Flush(); err != nil {
		return err
	}
	w.data.Write(payload)
	return w.writeBlock(tag, &w.data)
}
