package storage

import "encoding/binary"

// defaultBufferSize is the initial capacity new buffers start with,
// matching the original C++ tool's default of 64KiB.
const defaultBufferSize = 64 * 1024

// Buffer is an append-only, doubling-growth byte sink. It underlies the
// PZX writer's header/pulse/data buffers, the WAV writer's sample buffer
// and ReadAll's whole-file input.
type Buffer struct {
	data []byte
}

// NewBuffer creates an empty Buffer with the given initial capacity hint.
func NewBuffer(initialCapacity int) *Buffer {
	if initialCapacity <= 0 {
		initialCapacity = defaultBufferSize
	}
	return &Buffer{data: make([]byte, 0, initialCapacity)}
}

// Clear empties the buffer without releasing its backing array.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
}

// Write appends raw bytes.
func (b *Buffer) Write(p []byte) {
	b.data = append(b.data, p...)
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(v uint8) {
	b.data = append(b.data, v)
}

// WriteU16LE appends a little-endian u16.
func (b *Buffer) WriteU16LE(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// WriteU32LE appends a little-endian u32.
func (b *Buffer) WriteU32LE(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// Bytes returns the buffer's current contents. The slice is only valid
// until the next mutating call.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int {
	return len(b.data)
}

// IsEmpty reports whether the buffer holds no data.
func (b *Buffer) IsEmpty() bool {
	return len(b.data) == 0
}
