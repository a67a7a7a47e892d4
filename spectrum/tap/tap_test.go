package tap

import (
	"bytes"
	"testing"

	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/tape"
)

// TestPilotLeaderCount exercises the documented TAP block pilot scenario:
// a single block with flag byte 0xFF (>= 128) takes the short leader
// count, and its DATA block carries the flag byte itself as part of the
// bit stream.
func TestPilotLeaderCount(t *testing.T) {
	block := []byte{0xFF, 0xAA}
	tapData := append([]byte{byte(len(block)), 0}, block...)

	var buf bytes.Buffer
	w := pzx.Open(&buf)
	if err := Render(w, tapData, Options{}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	blocks, err := pzx.ScanBlocks(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	var pulses, data []byte
	for _, b := range blocks {
		switch b.Tag {
		case pzx.TagPulses:
			pulses = b.Data
		case pzx.TagData:
			data = b.Data
		}
	}
	if len(pulses) < 4 {
		t.Fatal("expected a PULS block carrying the pilot+sync pulses")
	}
	leaderCountWord := uint16(pulses[0]) | uint16(pulses[1])<<8
	if leaderCountWord&0x8000 == 0 || leaderCountWord&0x7FFF != tape.ShortLeaderCount {
		t.Errorf("expected a leader run of %d pulses, got count word 0x%04x", tape.ShortLeaderCount, leaderCountWord)
	}
	if leaderCycles := uint16(pulses[2]) | uint16(pulses[3])<<8; leaderCycles != tape.LeaderCycles {
		t.Errorf("expected leader pulses of %d cycles, got %d", tape.LeaderCycles, leaderCycles)
	}
	if data == nil {
		t.Fatal("expected a DATA block")
	}

	rawBitCount := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	level := rawBitCount>>31 != 0
	bitCount := rawBitCount & 0x7FFFFFFF
	if !level {
		t.Error("expected initial pulse level to be high")
	}
	if bitCount != 16 {
		t.Errorf("expected 16 data bits (2 bytes), got %d", bitCount)
	}

	tailCycles := uint16(data[4]) | uint16(data[5])<<8
	if tailCycles != tape.TailCycles {
		t.Errorf("expected tail cycles %d, got %d", tape.TailCycles, tailCycles)
	}

	pulseCount0, pulseCount1 := int(data[6]), int(data[7])
	if pulseCount0 != 2 || pulseCount1 != 2 {
		t.Fatalf("expected 2 pulses per bit, got %d/%d", pulseCount0, pulseCount1)
	}

	pos := 8
	bit0a := uint16(data[pos]) | uint16(data[pos+1])<<8
	bit0b := uint16(data[pos+2]) | uint16(data[pos+3])<<8
	pos += 4
	bit1a := uint16(data[pos]) | uint16(data[pos+1])<<8
	bit1b := uint16(data[pos+2]) | uint16(data[pos+3])<<8
	pos += 4

	if bit0a != tape.Bit0Cycles || bit0b != tape.Bit0Cycles {
		t.Errorf("expected bit0 sequence {%d,%d}, got {%d,%d}", tape.Bit0Cycles, tape.Bit0Cycles, bit0a, bit0b)
	}
	if bit1a != tape.Bit1Cycles || bit1b != tape.Bit1Cycles {
		t.Errorf("expected bit1 sequence {%d,%d}, got {%d,%d}", tape.Bit1Cycles, tape.Bit1Cycles, bit1a, bit1b)
	}

	body := data[pos:]
	if !bytes.Equal(body, block) {
		t.Errorf("expected data body %x, got %x", block, body)
	}
}

// TestPauseBetweenBlocks checks that an inter-block pause only appears
// between blocks, never after the last one.
func TestPauseBetweenBlocks(t *testing.T) {
	block1 := []byte{0x00, 0x01, 0x02}
	block2 := []byte{0x00, 0x03, 0x04}
	var tapData []byte
	for _, b := range [][]byte{block1, block2} {
		tapData = append(tapData, byte(len(b)), 0)
		tapData = append(tapData, b...)
	}

	var buf bytes.Buffer
	w := pzx.Open(&buf)
	if err := Render(w, tapData, Options{PauseCycles: 1000}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	blocks, err := pzx.ScanBlocks(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	pauseCount := 0
	for _, b := range blocks {
		if b.Tag == pzx.TagPause {
			pauseCount++
		}
	}
	if pauseCount != 1 {
		t.Errorf("expected exactly 1 pause block between the 2 data blocks, got %d", pauseCount)
	}
}
