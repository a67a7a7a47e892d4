package pzx

import (
	"bytes"
	"testing"
)

// TestHeaderFirst checks that Close always emits the PZXT block first,
// even when nothing but a single pulse was ever written.
func TestHeaderFirst(t *testing.T) {
	var buf bytes.Buffer
	w := Open(&buf)
	w.Out(100, true)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	out := buf.Bytes()
	if len(out) < 4 || string(out[:4]) != TagHeader {
		t.Fatalf("expected file to start with %s, got %q", TagHeader, out[:min(4, len(out))])
	}
}

// TestRunLengthCollapse checks that repeated identical pulse durations
// collapse into a single (count, duration) run rather than N separate
// entries in the pulses buffer.
func TestRunLengthCollapse(t *testing.T) {
	var buf bytes.Buffer
	w := Open(&buf)
	level := false
	for i := 0; i < 10; i++ {
		w.Out(1000, level)
		level = !level
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	blocks, err := ScanBlocks(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	var pulses []byte
	for _, b := range blocks {
		if b.Tag == TagPulses {
			pulses = b.Data
		}
	}
	if pulses == nil {
		t.Fatal("no PULS block emitted")
	}
	// 10 identical-duration pulses collapse to one (count=10, duration=1000)
	// run: a count word (0x8000|10) followed by the duration word.
	if len(pulses) != 4 {
		t.Fatalf("expected a single packed run (4 bytes), got %d bytes: %x", len(pulses), pulses)
	}
}

// TestPackRoundTrip checks that a pulse train made of two distinct
// durations packs into a DATA block whose decoded bits reconstruct the
// original pulse stream.
func TestPackRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := Open(&buf)

	seq0 := []uint16{100, 100}
	seq1 := []uint16{200, 200}
	var pulses []uint16
	bits := []bool{false, true, true, false, true}
	for _, b := range bits {
		if b {
			pulses = append(pulses, seq1...)
		} else {
			pulses = append(pulses, seq0...)
		}
	}

	if !w.Pack(pulses, false, 2, 0, 0) {
		t.Fatal("expected Pack to succeed on a clean two-sequence stream")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	blocks, err := ScanBlocks(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	var data []byte
	for _, b := range blocks {
		if b.Tag == TagData {
			data = b.Data
		}
	}
	if data == nil {
		t.Fatal("expected a DATA block from a packable pulse stream")
	}

	// Decode the DATA block by expanding each bit's pulse sequence in turn.
	bitCount := int((uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24) & 0x7FFFFFFF)
	p0, p1 := int(data[6]), int(data[7])
	word := func(o int) uint16 { return uint16(data[o]) | uint16(data[o+1])<<8 }
	body := 8 + 2*(p0+p1)
	var decoded []uint16
	for i := 0; i < bitCount; i++ {
		start, n := 8, p0
		if data[body+i/8]&(0x80>>uint(i%8)) != 0 {
			start, n = 8+2*p0, p1
		}
		for j := 0; j < n; j++ {
			decoded = append(decoded, word(start+2*j))
		}
	}
	if len(decoded) != len(pulses) {
		t.Fatalf("expected %d decoded pulses, got %d: %v", len(pulses), len(decoded), decoded)
	}
	for i := range pulses {
		if decoded[i] != pulses[i] {
			t.Fatalf("decoded pulses %v differ from the original %v", decoded, pulses)
		}
	}
}

// TestPackFallbackTotality checks that a pulse stream with no clean
// two-sequence partition is never silently dropped: PackOrPulses must
// still emit every pulse, just unpacked.
func TestPackFallbackTotality(t *testing.T) {
	var buf bytes.Buffer
	w := Open(&buf)

	// No repeating structure: every pulse is a distinct duration.
	pulses := []uint16{11, 23, 37, 41, 53, 67}
	w.PackOrPulses(pulses, false, 2, 0, 0)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	blocks, err := ScanBlocks(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	var pulseData []byte
	for _, b := range blocks {
		if b.Tag == TagPulses {
			pulseData = b.Data
		}
	}
	if pulseData == nil {
		t.Fatal("expected a PULS block from the unpackable fallback")
	}
	// Every pulse fits the short form and none repeats, so each one is a
	// single little-endian duration word.
	want := []byte{11, 0, 23, 0, 37, 0, 41, 0, 53, 0, 67, 0}
	if !bytes.Equal(pulseData, want) {
		t.Fatalf("expected every pulse in the PULS block %x, got %x", want, pulseData)
	}
}
