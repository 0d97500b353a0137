package engine

import (
	"fmt"

	"go.uber.org/atomic"
)

// Stats is a snapshot of the engine counters.
type Stats struct {
	TxFrames        uint64
	RxFrames        uint64
	Retransmissions uint64
	Timeouts        uint64
	Dropped         uint64
	Recoveries      uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("tx=%d rx=%d retx=%d timeouts=%d dropped=%d recoveries=%d",
		s.TxFrames, s.RxFrames, s.Retransmissions, s.Timeouts, s.Dropped, s.Recoveries)
}

// counters are updated by the loop and read from any goroutine.
type counters struct {
	tx         atomic.Uint64
	rx         atomic.Uint64
	retx       atomic.Uint64
	timeouts   atomic.Uint64
	dropped    atomic.Uint64
	recoveries atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		TxFrames:        c.tx.Load(),
		RxFrames:        c.rx.Load(),
		Retransmissions: c.retx.Load(),
		Timeouts:        c.timeouts.Load(),
		Dropped:         c.dropped.Load(),
		Recoveries:      c.recoveries.Load(),
	}
}
