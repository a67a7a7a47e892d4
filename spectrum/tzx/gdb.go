package tzx

import (
	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/logging"
	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/tape"
)

// renderGDBPulses flushes an accumulated raw pulse buffer through the
// packer, falling back to unpacked emission on failure — the same
// pack-or-fallback contract every DATA-producing renderer follows.
func renderGDBPulses(w *pzx.Writer, initialLevel bool, pulses []uint16, sequenceLimit, sequenceOrder int, tailCycles uint16) {
	w.PackOrPulses(pulses, initialLevel, sequenceLimit, sequenceOrder, tailCycles)
}

// gdbSymbol applies a GDB alphabet entry's level-adjustment byte, then
// appends up to pulseLimit u16 durations (terminated early by a zero
// duration) to buf, flipping level after each one appended — including
// the level-adjustment's own zero pulse, when it inserts one.
func gdbSymbol(level *bool, buf *[]uint16, entry []byte, pulseLimit int) {
	switch entry[0] {
	case 0:
		// Continue: no adjustment.
	case 1:
		*buf = append(*buf, 0)
		*level = !*level
	case 2:
		if *level {
			*buf = append(*buf, 0)
		}
		*level = false
	case 3:
		if !*level {
			*buf = append(*buf, 0)
		}
		*level = true
	default:
		logging.Warn("invalid GDB pulse sequence level bits 0x%02x", entry[0])
	}

	for i := 0; i < pulseLimit; i++ {
		o := 1 + 2*i
		d := uint16(entry[o]) | uint16(entry[o+1])<<8
		if d == 0 {
			break
		}
		*buf = append(*buf, d)
		*level = !*level
	}
}

// gdbAlphabetEntry slices out symbol's alphabet table row.
func gdbAlphabetEntry(table []byte, symbol, pulsesPerSymbol int) []byte {
	stride := 2*pulsesPerSymbol + 1
	return table[symbol*stride : symbol*stride+stride]
}

// renderGDBPilot decodes the pilot symbol stream (symbol byte + u16
// repeat count triples) and emits the resulting pulses unpacked — pilot
// streams are always rendered raw, since calling the packer with
// sequenceLimit 0 deterministically fails and falls back anyway.
func renderGDBPilot(w *pzx.Writer, level *bool, stream []byte, count int, table []byte, symbolCount, symbolPulses int) {
	initialLevel := *level
	var buf []uint16

	pos := 0
	for i := 0; i < count; i++ {
		symbol := int(stream[pos])
		repeat := int(stream[pos+1]) | int(stream[pos+2])<<8
		pos += 3

		if symbol >= symbolCount {
			logging.Warn("pilot symbol %d is out of range <0,%d>", symbol, symbolCount-1)
			continue
		}
		entry := gdbAlphabetEntry(table, symbol, symbolPulses)
		for r := 0; r < repeat; r++ {
			gdbSymbol(level, &buf, entry, symbolPulses)
		}
	}

	renderGDBPulses(w, initialLevel, buf, 0, 0, 0)
}

// renderGDBData decodes the bit-packed data symbol stream and emits the
// resulting pulses, trying to pack them into a DATA block first.
func renderGDBData(w *pzx.Writer, level *bool, stream []byte, count int, bitCount int, table []byte, symbolCount, symbolPulses int, pauseLength uint32) error {
	initialLevel := *level
	var buf []uint16

	firstByte := byte(0)
	if count > 0 {
		firstByte = stream[0]
	}
	sequenceOrder := int((firstByte >> 7) & 1)

	mask := uint8(0x80)
	pos := 0
	for i := 0; i < count; i++ {
		symbol := 0
		for b := 0; b < bitCount; b++ {
			symbol <<= 1
			if stream[pos]&mask != 0 {
				symbol |= 1
			}
			mask >>= 1
			if mask == 0 {
				mask = 0x80
				pos++
			}
		}

		if symbol >= symbolCount {
			logging.Warn("data symbol %d is out of range <0,%d>", symbol, symbolCount-1)
			continue
		}
		entry := gdbAlphabetEntry(table, symbol, symbolPulses)
		gdbSymbol(level, &buf, entry, symbolPulses)
	}

	var tailCycles uint16
	if pauseLength > 0 {
		tailCycles = tape.MillisecondCycles
	}

	renderGDBPulses(w, initialLevel, buf, symbolPulses+1, sequenceOrder, tailCycles)

	if pauseLength > 0 {
		*level = false
		if err := w.Pause(pauseLength*tape.MillisecondCycles, *level); err != nil {
			return errors.Wrap(err, "tzx: writing GDB pause")
		}
	}
	return nil
}

// renderGDB interprets a Generalized Data Block: two alphabet tables
// (pilot and data), followed by a pilot symbol stream and a bit-packed
// data symbol stream.
func renderGDB(w *pzx.Writer, level *bool, data []byte) error {
	if len(data) < 0x12 {
		logging.Warn("TZX GDB block is too small")
		return nil
	}

	pauseLength := uint32(data[0]) | uint32(data[1])<<8
	pilotSymbols := int(uint32(data[2]) | uint32(data[3])<<8 | uint32(data[4])<<16 | uint32(data[5])<<24)
	pilotPulses := int(data[6])
	pilotCount := int(data[7])
	if pilotCount == 0 {
		pilotCount = 256
	}
	dataSymbols := int(uint32(data[8]) | uint32(data[9])<<8 | uint32(data[10])<<16 | uint32(data[11])<<24)
	dataPulses := int(data[12])
	dataCount := int(data[13])
	if dataCount == 0 {
		dataCount = 256
	}

	dataBits := 1
	for dataCount > (1 << uint(dataBits)) {
		dataBits++
	}

	pilotTableSize := 0
	if pilotSymbols > 0 {
		pilotTableSize = pilotCount * (pilotPulses*2 + 1)
	}
	pilotStreamSize := pilotSymbols * 3

	dataTableSize := 0
	if dataSymbols > 0 {
		dataTableSize = dataCount * (dataPulses*2 + 1)
	}
	dataStreamSize := (dataSymbols*dataBits + 7) / 8

	pilotTableStart := 0x0E
	pilotStreamStart := pilotTableStart + pilotTableSize
	dataTableStart := pilotStreamStart + pilotStreamSize
	dataStreamStart := dataTableStart + dataTableSize
	end := dataStreamStart + dataStreamSize

	if end > len(data) {
		logging.Warn("TZX GDB block has invalid size")
		return nil
	}
	if end != len(data) {
		logging.Warn("TZX GDB block contains unused data")
	}

	pilotTable := data[pilotTableStart:pilotStreamStart]
	pilotStream := data[pilotStreamStart:dataTableStart]
	dataTable := data[dataTableStart:dataStreamStart]
	dataStream := data[dataStreamStart:end]

	renderGDBPilot(w, level, pilotStream, pilotSymbols, pilotTable, pilotCount, pilotPulses)
	return renderGDBData(w, level, dataStream, dataSymbols, dataBits, dataTable, dataCount, dataPulses, pauseLength)
}
