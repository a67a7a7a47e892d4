package pzx

import "github.com/pkg/errors"

// RawBlock is one tag-prefixed block of a PZX binary stream, as read back
// by a consumer rather than produced by Writer.
type RawBlock struct {
	Tag  string
	Data []byte
}

// ScanBlocks splits a PZX binary image into its tag+u32-size+payload
// blocks. It does not interpret any block's payload.
func ScanBlocks(data []byte) ([]RawBlock, error) {
	var blocks []RawBlock
	pos := 0
	for pos < len(data) {
		if len(data)-pos < 8 {
			return nil, errors.New("pzx: truncated block header")
		}
		tag := string(data[pos : pos+4])
		size := uint32(data[pos+4]) | uint32(data[pos+5])<<8 | uint32(data[pos+6])<<16 | uint32(data[pos+7])<<24
		pos += 8

		if uint32(len(data)-pos) < size {
			return nil, errors.New("pzx: truncated block data")
		}
		blocks = append(blocks, RawBlock{Tag: tag, Data: data[pos : pos+int(size)]})
		pos += int(size)
	}
	if len(blocks) == 0 || blocks[0].Tag != TagHeader {
		return nil, errors.New("pzx: input is not a PZX file")
	}
	return blocks, nil
}
