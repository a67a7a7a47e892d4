// Package tap renders the TAP format — concatenated, 2-byte-length-
// prefixed data blocks with implicit ROM-routine timings — to a PZX
// writer.
package tap

import (
	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/tape"
)

// Options configures TAP rendering. PauseCycles is the optional T-cycle
// pause emitted between blocks; zero means no pause.
type Options struct {
	PauseCycles uint32
}

// Render walks the concatenated TAP blocks in data and emits one DATA
// block (preceded by pilot and sync pulses) per TAP block, with an
// optional pause between them.
func Render(w *pzx.Writer, data []byte, opts Options) error {
	pos := 0
	for pos < len(data) {
		if len(data)-pos < 2 {
			return errors.New("tap: truncated block length")
		}
		size := int(data[pos]) | int(data[pos+1])<<8
		pos += 2

		if len(data)-pos < size {
			return errors.New("tap: truncated block body")
		}
		block := data[pos : pos+size]
		pos += size

		if size == 0 {
			continue
		}

		leaderCount := tape.ShortLeaderCount
		if block[0] < 128 {
			leaderCount = tape.LongLeaderCount
		}

		w.Store(uint32(leaderCount), tape.LeaderCycles)
		w.Store(1, tape.Sync1Cycles)
		w.Store(1, tape.Sync2Cycles)

		seq0 := []uint16{tape.Bit0Cycles, tape.Bit0Cycles}
		seq1 := []uint16{tape.Bit1Cycles, tape.Bit1Cycles}

		if err := w.Data(block, uint32(size)*8, true, seq0, seq1, tape.TailCycles); err != nil {
			return errors.Wrap(err, "tap: writing data block")
		}

		if opts.PauseCycles > 0 && pos < len(data) {
			if err := w.Pause(opts.PauseCycles, false); err != nil {
				return errors.Wrap(err, "tap: writing pause")
			}
		}
	}
	return nil
}
