package tzx

import (
	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/tape"
)

// Block IDs this renderer understands, per the TZX specification.
const (
	idStandard      = 0x10
	idTurbo         = 0x11
	idPureTone      = 0x12
	idPulseSequence = 0x13
	idPureData      = 0x14
	idDirectRec     = 0x15
	idCSW           = 0x18
	idGDB           = 0x19
	idPause         = 0x20
	idGroupStart    = 0x21
	idGroupEnd      = 0x22
	idJump          = 0x23
	idLoopStart     = 0x24
	idLoopEnd       = 0x25
	idCallSequence  = 0x26
	idReturn        = 0x27
	idSelect        = 0x28
	idStop48K       = 0x2A
	idSetLevel      = 0x2B
	idText          = 0x30
	idMessage       = 0x31
	idArchiveInfo   = 0x32
	idHardwareInfo  = 0x33
	idCustomInfo    = 0x35
	idGlue          = 0x5A
)

// headerSize returns the fixed header length (in bytes, after the ID
// byte) for a given block ID. Unrecognized IDs use the TZX forward-
// compatibility default of a 4-byte header (a u32 length field).
func headerSize(id byte) int {
	switch id {
	case idStandard:
		return 4
	case idTurbo:
		return 0x12
	case idPureTone:
		return 4
	case idPulseSequence:
		return 1
	case idPureData:
		return 0x0A
	case idDirectRec:
		return 8
	case idCSW:
		return 4
	case idGDB:
		return 4
	case idPause:
		return 2
	case idGroupStart:
		return 1
	case idGroupEnd:
		return 0
	case idJump:
		return 2
	case idLoopStart:
		return 2
	case idLoopEnd:
		return 0
	case idCallSequence:
		return 2
	case idReturn:
		return 0
	case idSelect:
		return 2
	case idStop48K:
		return 4
	case idSetLevel:
		return 4
	case idText:
		return 1
	case idMessage:
		return 2
	case idArchiveInfo:
		return 2
	case idHardwareInfo:
		return 1
	case idCustomInfo:
		return 0x14
	case idGlue:
		return 9
	default:
		return 4
	}
}

// dataSize returns the variable-length payload size that follows the
// fixed header, computed from fields within header (which is already
// sliced to exactly headerSize(id) bytes).
func dataSize(id byte, header []byte) uint32 {
	le16 := func(o int) uint32 { v, _ := tape.PeekU16At(header, o); return uint32(v) }
	le24 := func(o int) uint32 { v, _ := tape.PeekU24At(header, o); return v }
	le32 := func(o int) uint32 { v, _ := tape.PeekU32At(header, o); return v }

	switch id {
	case idStandard:
		return le16(2)
	case idTurbo:
		return le24(0x0F)
	case idPureTone:
		return 0
	case idPulseSequence:
		return uint32(header[0]) * 2
	case idPureData:
		return le24(7)
	case idDirectRec:
		return le24(5)
	case idCSW:
		return le32(0)
	case idGDB:
		return le32(0)
	case idPause:
		return 0
	case idGroupStart:
		return uint32(header[0])
	case idGroupEnd:
		return 0
	case idJump:
		return 0
	case idLoopStart:
		return 0
	case idLoopEnd:
		return 0
	case idCallSequence:
		return le16(0) * 2
	case idReturn:
		return 0
	case idSelect:
		return le16(0)
	case idStop48K:
		return le32(0)
	case idSetLevel:
		return le32(0)
	case idText:
		return uint32(header[0])
	case idMessage:
		return uint32(header[1])
	case idArchiveInfo:
		return le16(0)
	case idHardwareInfo:
		return uint32(header[0]) * 3
	case idCustomInfo:
		return le32(0x10)
	case idGlue:
		return 0
	default:
		return le32(0)
	}
}

// block describes one TZX block's location within the tape body.
type block struct {
	id     byte
	header []byte
	data   []byte
}

// scanBlocks walks the tape body, recording the start of every block.
// It stops (without error) at a clean end of tape, and returns an error
// the moment a block's declared size would run past the end.
func scanBlocks(body []byte) ([]block, error) {
	var blocks []block
	c := tape.NewCursor(body)
	for c.Remaining() > 0 {
		id, err := c.TakeU8()
		if err != nil {
			return blocks, errTruncated("block header")
		}
		hSize := headerSize(id)
		header, err := c.TakeBytes(hSize)
		if err != nil {
			return blocks, errTruncated("block header")
		}
		dSize := dataSize(id, header)

		data, err := c.TakeBytes(int(dSize))
		if err != nil {
			return blocks, errTruncated("block data")
		}

		blocks = append(blocks, block{id: id, header: header, data: data})
	}
	return blocks, nil
}

func errTruncated(what string) error {
	return errors.Wrapf(tape.ErrTruncated, "%s", what)
}
