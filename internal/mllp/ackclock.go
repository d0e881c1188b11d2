package mllp

import (
	"sync/atomic"
	"time"
)

// AckClock tracks the timestamp of the most recent successful ACK write
// across every connection this listener owns, for the /readyz supplement
// in SPEC_FULL.md. It is the one piece of state intentionally shared
// across connection goroutines (spec.md §5 otherwise keeps each
// connection's state private).
type AckClock struct {
	lastNano atomic.Int64
}

// Record stamps t as the most recent ACK write, if later than what is
// already recorded.
func (c *AckClock) Record(t time.Time) {
	nano := t.UnixNano()
	for {
		cur := c.lastNano.Load()
		if nano <= cur {
			return
		}
		if c.lastNano.CompareAndSwap(cur, nano) {
			return
		}
	}
}

// LastAckWrite returns the zero Time if no ACK has ever been written.
func (c *AckClock) LastAckWrite() time.Time {
	nano := c.lastNano.Load()
	if nano == 0 {
		return time.Time{}
	}
	return time.Unix(0, nano)
}
