// api/util/clock.go

package util

import "sync/atomic"

// Clock supplies the logical time used for every expiration comparison.
// Policies and attributes share the one clock, so "now > expires_at" means
// the same thing everywhere.
type Clock interface {
	Now() uint64
}

// LogicalClock is a monotonically increasing tick counter, the serial-ledger
// analog of a block number. It only ever moves forward.
type LogicalClock struct {
	ticks atomic.Uint64
}

func NewLogicalClock() *LogicalClock {
	return &LogicalClock{}
}

// Now returns the current tick.
func (c *LogicalClock) Now() uint64 {
	return c.ticks.Load()
}

// Advance moves the clock forward one tick and returns the new value.
func (c *LogicalClock) Advance() uint64 {
	return c.ticks.Add(1)
}

// ManualClock is a settable clock for tests.
type ManualClock struct {
	Ticks uint64
}

func (c *ManualClock) Now() uint64 {
	return c.Ticks
}
