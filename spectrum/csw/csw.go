// Package csw renders Compressed Square Wave pulse streams — either a
// standalone .csw file or a CSW block embedded in a TZX tape — into a
// PZX writer's pulse stream.
package csw

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/logging"
	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/tape"
)

const signature = "Compressed Square Wave\x1a"

// RenderBlock decodes a raw (uncompressed) CSW pulse stream: a byte N in
// [1,255] is a run of N samples at the given level, a zero byte
// introduces a u32 little-endian sample count. Each pulse's T-cycle
// duration is floor(3_500_000 * samples / sampleRate); anything past the
// PZX pulse limit is split into same-level chunks. Returns the number
// of pulses rendered and the level the train ends on.
func RenderBlock(w *pzx.Writer, level bool, sampleRate uint32, data []byte) (uint32, bool) {
	if sampleRate == 0 {
		panic("csw: RenderBlock called with zero sample rate")
	}

	var pulseCount uint32
	p := 0
	for p < len(data) {
		sampleCount := uint32(data[p])
		p++
		if sampleCount == 0 {
			if len(data)-p < 4 {
				logging.Warn("premature end of CSW data detected")
				break
			}
			sampleCount = uint32(data[p]) | uint32(data[p+1])<<8 | uint32(data[p+2])<<16 | uint32(data[p+3])<<24
			p += 4
		}

		duration := uint64(3_500_000) * uint64(sampleCount) / uint64(sampleRate)
		for duration > tape.PulseLimit {
			w.Out(tape.PulseLimit, level)
			duration -= tape.PulseLimit
		}
		w.Out(uint32(duration), level)

		level = !level
		pulseCount++
	}

	return pulseCount, level
}

// unpack inflates a DEFLATE-compressed (compression mode 2) CSW pulse
// stream. github.com/klauspost/compress/zlib stands in for the original
// tool's libz usage.
func unpack(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		logging.Warn("error initializing zlib decompressor for CSW block: %v", err)
		return nil, nil
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil && err != io.ErrUnexpectedEOF {
		logging.Warn("error while decompressing CSW block: %v", err)
	}
	return out, nil
}

// RenderCompressedBlock dispatches on the CSW compression mode (1 = raw,
// 2 = DEFLATE) before rendering.
func RenderCompressedBlock(w *pzx.Writer, level bool, compression uint8, sampleRate uint32, data []byte) (uint32, bool) {
	switch compression {
	case 1:
		return RenderBlock(w, level, sampleRate, data)
	case 2:
		unpacked, err := unpack(data)
		if err != nil {
			logging.Warn("%v", err)
			return 0, level
		}
		return RenderBlock(w, level, sampleRate, unpacked)
	default:
		logging.Warn("unsupported CSW compression 0x%02x scheme", compression)
		return 0, level
	}
}

// Render decodes a complete standalone CSW file (major version 1 or 2)
// and renders its pulse train to w, returning the level the tape is
// left on.
func Render(w *pzx.Writer, data []byte) (bool, error) {
	if len(data) < 0x20 {
		return false, errors.New("csw: file is too small to be a CSW file")
	}

	major := data[0x17]
	minor := data[0x18]

	var supportedMinor uint8
	headerSize := 0x20
	switch major {
	case 1:
		supportedMinor = 1
	case 2:
		headerSize = 0x34
	default:
		return false, errors.Errorf("csw: unsupported CSW major version %d.%02d", major, minor)
	}

	if headerSize > len(data) {
		return false, errors.New("csw: header is incomplete")
	}
	if minor > supportedMinor {
		logging.Warn("unsupported CSW minor version %d.%02d - proceeding", major, minor)
	}

	var sampleRate uint32
	var compression uint8
	var flags uint8
	dataOffset := headerSize

	switch major {
	case 1:
		sampleRate = uint32(data[0x19]) | uint32(data[0x1A])<<8
		compression = data[0x1B]
		flags = data[0x1C]
	case 2:
		sampleRate = uint32(data[0x19]) | uint32(data[0x1A])<<8 | uint32(data[0x1B])<<16 | uint32(data[0x1C])<<24
		compression = data[0x21]
		flags = data[0x22]
		dataOffset += int(data[0x23])
	}

	if sampleRate == 0 {
		return false, errors.Errorf("csw: invalid sample rate %d", sampleRate)
	}
	if dataOffset > len(data) {
		return false, errors.New("csw: file is incomplete")
	}

	level := (flags & 1) != 0
	pulseCount, level := RenderCompressedBlock(w, level, compression, sampleRate, data[dataOffset:])

	if major == 2 {
		expected := uint32(data[0x1D]) | uint32(data[0x1E])<<8 | uint32(data[0x1F])<<16 | uint32(data[0x20])<<24
		if pulseCount != expected {
			logging.Warn("real CSW pulse count %d doesn't match the advertised pulse count %d", pulseCount, expected)
		}
	}

	return level, nil
}

// IsCSW reports whether data begins with the CSW file signature.
func IsCSW(data []byte) bool {
	return len(data) >= len(signature) && string(data[:len(signature)]) == signature
}
