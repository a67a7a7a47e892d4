package pzx

// Pack tries every two-sequence partition of pulses (lengths up to
// min(sequenceLimit, 255, len(pulses))) looking for one that consumes
// the entire stream, and if it finds one, emits it as a DATA block via
// Data. It returns false without writing anything when no partition
// fits; PackOrPulses is the usual entry point, which falls back to the
// unpacked emission automatically.
//
// sequenceOrder selects which discovered sequence becomes bit 0: 0 or 1
// pin it explicitly, 2 picks whichever sequence has the shorter total
// duration (ties, or either sequence summing to zero, keep the order
// they were discovered in).
func (w *Writer) Pack(pulses []uint16, initialLevel bool, sequenceLimit int, sequenceOrder int, tailCycles uint16) bool {
	w.requireOpen()

	limit := sequenceLimit
	if limit > 255 {
		limit = 255
	}
	if limit > len(pulses) {
		limit = len(pulses)
	}
	if limit == 0 || len(pulses) == 0 {
		return false
	}

	for l0 := limit; l0 >= 1; l0-- {
		seq0 := pulses[:l0]
		split := repeatSplit(pulses, seq0)

		if split == len(pulses) {
			bitCount := len(pulses) / l0
			bits := make([]bool, bitCount)
			return w.emitPacked(bits, seq0, []uint16{0}, initialLevel, sequenceOrder, tailCycles)
		}

		maxL1 := limit
		if split+maxL1 > len(pulses) {
			maxL1 = len(pulses) - split
		}
		for l1 := maxL1; l1 >= 1; l1-- {
			seq1 := pulses[split : split+l1]
			if bits, ok := matchAll(pulses, seq0, seq1); ok {
				return w.emitPacked(bits, seq0, seq1, initialLevel, sequenceOrder, tailCycles)
			}
		}
	}

	return false
}

// PackOrPulses tries Pack and falls back to the unpacked Pulses
// emission when no partition succeeds, matching the "pack fallback
// totality" guarantee: no pulse stream is ever silently dropped.
func (w *Writer) PackOrPulses(pulses []uint16, initialLevel bool, sequenceLimit int, sequenceOrder int, tailCycles uint16) {
	if w.Pack(pulses, initialLevel, sequenceLimit, sequenceOrder, tailCycles) {
		return
	}
	w.Pulses(pulses, initialLevel, tailCycles)
}

// repeatSplit returns the offset of the first pulse that isn't part of
// a contiguous repetition of seq starting at 0. If it equals len(pulses)
// the whole stream is one repeated sequence.
func repeatSplit(pulses []uint16, seq []uint16) int {
	i := 0
	for i+len(seq) <= len(pulses) && matchesAt(pulses, i, seq) {
		i += len(seq)
	}
	return i
}

// matchesAt reports whether seq occurs verbatim at pulses[pos:].
func matchesAt(pulses []uint16, pos int, seq []uint16) bool {
	if len(seq) == 0 || pos+len(seq) > len(pulses) {
		return false
	}
	for j, d := range seq {
		if pulses[pos+j] != d {
			return false
		}
	}
	return true
}

// matchAll greedily decomposes the whole pulse stream into copies of
// seq0 (bit 0) and seq1 (bit 1), preferring seq0 at every position. It
// succeeds only if the decomposition consumes every pulse exactly.
func matchAll(pulses []uint16, seq0, seq1 []uint16) ([]bool, bool) {
	var bits []bool
	i := 0
	for i < len(pulses) {
		switch {
		case matchesAt(pulses, i, seq0):
			bits = append(bits, false)
			i += len(seq0)
		case matchesAt(pulses, i, seq1):
			bits = append(bits, true)
			i += len(seq1)
		default:
			return nil, false
		}
	}
	return bits, true
}

// emitPacked orders the two sequences per sequenceOrder, packs bits
// MSB-first into bytes (a partial last byte is left-shifted to the high
// end, which falls out naturally from leaving the unused low bits
// clear), and writes the resulting DATA block.
func (w *Writer) emitPacked(bits []bool, seq0, seq1 []uint16, initialLevel bool, sequenceOrder int, tailCycles uint16) bool {
	outSeq0, outSeq1, swapped := chooseOrder(seq0, seq1, sequenceOrder)
	if swapped {
		for i := range bits {
			bits[i] = !bits[i]
		}
	}

	packed := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			packed[i/8] |= 1 << uint(7-(i%8))
		}
	}

	if err := w.Data(packed, uint32(len(bits)), initialLevel, outSeq0, outSeq1, tailCycles); err != nil {
		panic(err)
	}
	return true
}

// chooseOrder decides which sequence becomes bit 0/bit 1.
func chooseOrder(seq0, seq1 []uint16, order int) (bit0, bit1 []uint16, swapped bool) {
	switch order {
	case 0:
		return seq0, seq1, false
	case 1:
		return seq1, seq0, true
	default:
		sum0, sum1 := sumDurations(seq0), sumDurations(seq1)
		if sum0 == 0 || sum1 == 0 || sum0 <= sum1 {
			return seq0, seq1, false
		}
		return seq1, seq0, true
	}
}

func sumDurations(seq []uint16) uint64 {
	var sum uint64
	for _, d := range seq {
		sum += uint64(d)
	}
	return sum
}
