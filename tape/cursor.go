package tape

import "github.com/pkg/errors"

// Cursor is a read-only view over a byte slice with a moving offset and
// checked little-endian scalar reads. It replaces the pointer-and-length
// argument pairs and hand-rolled GET1/GET2/GET4 macros the format
// renderers would otherwise need, surfacing truncation uniformly as an
// error instead of reading past the end of the block.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor creates a Cursor over data, starting at offset 0.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// ErrTruncated is returned whenever a read or skip runs past the end of
// the underlying slice.
var ErrTruncated = errors.New("tape: truncated block")

func (c *Cursor) require(n int) error {
	if c.Remaining() < n {
		return ErrTruncated
	}
	return nil
}

// TakeU8 reads one byte.
func (c *Cursor) TakeU8() (uint8, error) {
	if err := c.require(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// TakeU16 reads a little-endian u16.
func (c *Cursor) TakeU16() (uint16, error) {
	if err := c.require(2); err != nil {
		return 0, err
	}
	v := uint16(c.data[c.pos]) | uint16(c.data[c.pos+1])<<8
	c.pos += 2
	return v, nil
}

// TakeU24 reads a little-endian 24-bit value into a uint32.
func (c *Cursor) TakeU24() (uint32, error) {
	if err := c.require(3); err != nil {
		return 0, err
	}
	v := uint32(c.data[c.pos]) | uint32(c.data[c.pos+1])<<8 | uint32(c.data[c.pos+2])<<16
	c.pos += 3
	return v, nil
}

// TakeU32 reads a little-endian u32.
func (c *Cursor) TakeU32() (uint32, error) {
	if err := c.require(4); err != nil {
		return 0, err
	}
	v := uint32(c.data[c.pos]) | uint32(c.data[c.pos+1])<<8 | uint32(c.data[c.pos+2])<<16 | uint32(c.data[c.pos+3])<<24
	c.pos += 4
	return v, nil
}

// TakeBytes reads n raw bytes.
func (c *Cursor) TakeBytes(n int) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	v := c.data[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

// Skip advances the cursor by n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	if err := c.require(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// PeekU8At reads a byte at an absolute offset without moving the cursor.
// Its u16/u24/u32 siblings below are what the block-size formulas use to
// read fields relative to a block's start before the block has been fully
// consumed.
func PeekU8At(data []byte, offset int) (uint8, error) {
	if offset < 0 || offset >= len(data) {
		return 0, ErrTruncated
	}
	return data[offset], nil
}

// PeekU16At reads a little-endian u16 at an absolute offset.
func PeekU16At(data []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(data) {
		return 0, ErrTruncated
	}
	return uint16(data[offset]) | uint16(data[offset+1])<<8, nil
}

// PeekU24At reads a little-endian 24-bit value at an absolute offset.
func PeekU24At(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+3 > len(data) {
		return 0, ErrTruncated
	}
	return uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16, nil
}

// PeekU32At reads a little-endian u32 at an absolute offset.
func PeekU32At(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, ErrTruncated
	}
	return uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24, nil
}
