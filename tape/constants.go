// Package tape holds the reference timing constants and small binary
// decoding helpers shared by every tape format renderer (TZX, CSW, TAP).
package tape

// Reference cycle counts, all in T cycles of the 3.5MHz ZX Spectrum
// clock. These are the Spectrum ROM's own save/load routine timings and
// are the defaults every renderer falls back to when a format doesn't
// carry its own.
const (
	LeaderCycles      = 2168
	ShortLeaderCount  = 3223
	LongLeaderCount   = 8063
	Sync1Cycles       = 667
	Sync2Cycles       = 735
	Bit0Cycles        = 855
	Bit1Cycles        = 1710
	TailCycles        = 945
	MillisecondCycles = 3500
)

// PulseLimit is the largest duration a single PZX pulse may carry before
// it must be split across multiple Out calls.
const PulseLimit = 0x7FFFFFFF
