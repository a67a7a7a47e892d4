package pzxtxt

import (
	"bytes"
	"testing"

	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/wav"
)

// renderSamples decodes a binary PZX image to raw 8-bit PCM samples at
// unity rate (1 sample per T-cycle) so two images can be compared for
// exact pulse-level equivalence regardless of how each one happened to
// encode its durations.
func renderSamples(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := wav.Open(&buf, 1, 1)
	if err := wav.Render(w, data); err != nil {
		t.Fatalf("rendering PZX to samples: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	out := buf.Bytes()
	return out[44:] // strip the fixed-size RIFF/WAVE/fmt/data header
}

// TestDumpParseRoundTrip exercises the documented PZX -> text -> PZX
// round-trip law: without -p (PreservePulses) and without any PACK
// regions, pulse levels and durations at 3.5MHz survive exactly, even
// though the text dump and the replayed binary may choose different
// short/long duration encodings.
func TestDumpParseRoundTrip(t *testing.T) {
	var buf1 bytes.Buffer
	w := pzx.Open(&buf1)
	w.Info("test tape")
	level := false
	for _, d := range []uint32{100, 100, 100, 70000, 2168, 2168, 2168, 2168, 2168, 1} {
		w.Out(d, level)
		level = !level
	}
	if err := w.Pause(1000, false); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var text bytes.Buffer
	if err := Dump(&text, buf1.Bytes(), DumpOptions{}); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	var buf2 bytes.Buffer
	w2 := pzx.Open(&buf2)
	if err := Parse(w2, bytes.NewReader(text.Bytes()), ParseOptions{}); err != nil {
		t.Fatalf("Parse failed: %v\ntext:\n%s", err, text.String())
	}
	if err := w2.Close(); err != nil {
		t.Fatal(err)
	}

	got := renderSamples(t, buf2.Bytes())
	want := renderSamples(t, buf1.Bytes())
	if !bytes.Equal(got, want) {
		t.Fatalf("round-tripped pulse train differs from the original\ntext dump:\n%s", text.String())
	}
}

// TestStructuredHeaderDetection checks that a 19-byte DATA payload is
// recognized and dumped as a structured BASIC tape header when
// DumpHeaders is set, and that txt2pzx's BYTE/BODY/WORD lines parse
// back into the same bytes.
func TestStructuredHeaderDetection(t *testing.T) {
	body := make([]byte, 19)
	body[0] = 0    // flag byte
	body[1] = 3    // header type (bytes)
	copy(body[2:12], []byte("myprogram  "[:10]))
	body[12], body[13] = 0x00, 0x80 // size LE
	body[14], body[15] = 0x00, 0x00 // start LE
	body[16], body[17] = 0x00, 0x00 // extra LE
	body[18] = 0xAB                 // checksum

	var buf1 bytes.Buffer
	w := pzx.Open(&buf1)
	seq0 := []uint16{855, 855}
	seq1 := []uint16{1710, 1710}
	if err := w.Data(body, uint32(len(body)*8), true, seq0, seq1, 945); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var text bytes.Buffer
	if err := Dump(&text, buf1.Bytes(), DumpOptions{DumpHeaders: true}); err != nil {
		t.Fatal(err)
	}

	var buf2 bytes.Buffer
	w2 := pzx.Open(&buf2)
	if err := Parse(w2, bytes.NewReader(text.Bytes()), ParseOptions{}); err != nil {
		t.Fatalf("Parse failed: %v\ntext:\n%s", err, text.String())
	}
	if err := w2.Close(); err != nil {
		t.Fatal(err)
	}

	blocks, err := pzx.ScanBlocks(buf2.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	var dataBlock []byte
	for _, b := range blocks {
		if b.Tag == pzx.TagData {
			dataBlock = b.Data
		}
	}
	if dataBlock == nil {
		t.Fatal("expected a DATA block in the reparsed output")
	}
	gotBody := dataBlock[8+2*2+2*2:]
	if !bytes.Equal(gotBody, body) {
		t.Errorf("expected reparsed header body %x, got %x", body, gotBody)
	}
}

// TestXorChecksumLine checks that an XOR line with no explicit seed
// appends the running XOR checksum of the buffered data so far.
func TestXorChecksumLine(t *testing.T) {
	var buf bytes.Buffer
	w := pzx.Open(&buf)
	p := &parser{w: w}
	p.lastTag = tagData
	p.dataBuffer = []byte{0x01, 0x02, 0x03}

	if err := p.processLine("XOR"); err != nil {
		t.Fatal(err)
	}
	want := byte(0x01 ^ 0x02 ^ 0x03)
	if got := p.dataBuffer[len(p.dataBuffer)-1]; got != want {
		t.Errorf("expected checksum byte 0x%02x, got 0x%02x", want, got)
	}
}
