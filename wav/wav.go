// Package wav renders a PZX pulse train to an 8-bit PCM mono WAV file.
package wav

import (
	"io"

	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/storage"
)

// Writer accumulates pulses into 8-bit PCM samples and emits a RIFF/WAVE
// container on Close. Durations are converted to samples via
// numerator/denominator — at the reference 3.5MHz clock, numerator is
// the sample rate and denominator is 3_500_000.
type Writer struct {
	sink io.Writer

	numerator   uint32
	denominator uint32

	sampleValue    uint64
	sampleDuration uint64

	samples storage.Buffer
}

// Open binds a Writer that converts T-cycle durations to samples at
// numerator/denominator samples per T-cycle.
func Open(sink io.Writer, numerator, denominator uint32) *Writer {
	if numerator == 0 || denominator == 0 {
		panic("wav: Open called with zero numerator or denominator")
	}
	return &Writer{sink: sink, numerator: numerator, denominator: denominator}
}

// Out appends a pulse of the given duration and level, accumulating
// fractional on-time into the sample currently being built and emitting
// whole samples as they complete.
func (w *Writer) Out(duration uint32, level bool) {
	timePassed := uint64(duration) * uint64(w.numerator)
	timeLeft := uint64(w.denominator) - w.sampleDuration

	if timePassed >= timeLeft {
		timePassed -= timeLeft
		if level {
			w.sampleValue += timeLeft
		}
		w.samples.WriteByte(byte(255 * w.sampleValue / uint64(w.denominator)))
		w.sampleValue = 0
		w.sampleDuration = 0
	}

	for ; timePassed >= uint64(w.denominator); timePassed -= uint64(w.denominator) {
		if level {
			w.samples.WriteByte(255)
		} else {
			w.samples.WriteByte(0)
		}
	}

	w.sampleDuration += timePassed
	if level {
		w.sampleValue += timePassed
	}
}

// flush emits whatever partial sample remains accumulated.
func (w *Writer) flush() {
	if w.sampleDuration > 0 {
		w.samples.WriteByte(byte(255 * w.sampleValue / uint64(w.denominator)))
		w.sampleValue = 0
		w.sampleDuration = 0
	}
}

// Close flushes the final partial sample, pads to an even byte count,
// and writes the RIFF/WAVE/fmt/data header followed by the sample data.
func (w *Writer) Close() error {
	w.flush()

	size := uint32(w.samples.Len())
	if size&1 != 0 {
		w.samples.WriteByte(0)
		size++
	}

	var header storage.Buffer
	header.Write([]byte("RIFF"))
	header.WriteU32LE(4 + (8 + 16) + (8 + size))
	header.Write([]byte("WAVE"))

	header.Write([]byte("fmt "))
	header.WriteU32LE(16)
	header.WriteU16LE(1)            // PCM format
	header.WriteU16LE(1)            // 1 channel
	header.WriteU32LE(w.numerator)  // sample rate
	header.WriteU32LE(w.numerator)  // byte rate (8 bits/sample, mono)
	header.WriteU16LE(1)            // block alignment
	header.WriteU16LE(8)            // bits per sample

	header.Write([]byte("data"))
	header.WriteU32LE(size)

	if _, err := w.sink.Write(header.Bytes()); err != nil {
		return errors.Wrap(err, "wav: writing header")
	}
	if _, err := w.sink.Write(w.samples.Bytes()); err != nil {
		return errors.Wrap(err, "wav: writing samples")
	}
	return nil
}
