// Package storage provides the byte-level plumbing shared by every tape
// and container format reader/writer: a whole-file "self-inflating"
// read helper, and a growable output buffer used to build blocks before
// they are flushed to a sink.
package storage

import (
	"io"

	"github.com/pkg/errors"
)

// ReadAll drains r into a single growable Buffer, doubling its capacity
// as needed, mirroring the original tool's "self-inflating" buffer read
// loop: every command reads its whole input file up front before
// scanning it block by block.
func ReadAll(r io.Reader) (*Buffer, error) {
	buf := NewBuffer(64 * 1024)
	chunk := make([]byte, 64*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return buf, errors.Wrap(err, "storage: read error")
		}
	}
}
