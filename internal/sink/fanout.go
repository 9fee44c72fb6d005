// Package sink dispatches decoded pressure readings to their consumers
// (terminal panel, time-series logger), each behind an independent
// minimum-interval gate.
package sink

import (
	"time"

	"gaugebridge/internal/itr90"
)

// Sink consumes decoded readings. Implementations must not block for
// long: Accept is called inline on the relay's device read path.
type Sink interface {
	Accept(r itr90.Reading)
}

// Fanout delivers each reading to every registered sink whose throttle
// window has elapsed. Readings inside a sink's window are dropped for
// that sink only, never queued. Not safe for concurrent use; the relay
// calls Dispatch from a single goroutine.
type Fanout struct {
	now   func() time.Time
	gates []*gate
}

type gate struct {
	sink Sink
	min  time.Duration
	last time.Time
}

// NewFanout returns an empty Fanout.
func NewFanout() *Fanout {
	return &Fanout{now: time.Now}
}

// Add registers a sink that accepts at most one reading per minInterval
// of wall-clock time. A zero interval disables throttling for the sink.
func (f *Fanout) Add(s Sink, minInterval time.Duration) {
	f.gates = append(f.gates, &gate{sink: s, min: minInterval})
}

// Active reports whether any sink is registered; the relay skips frame
// decoding entirely when none is.
func (f *Fanout) Active() bool { return len(f.gates) > 0 }

// Dispatch offers each reading to each sink in registration order. The
// first reading a sink sees is always accepted.
func (f *Fanout) Dispatch(readings ...itr90.Reading) {
	for _, r := range readings {
		for _, g := range f.gates {
			now := f.now()
			if !g.last.IsZero() && now.Sub(g.last) < g.min {
				continue
			}
			g.last = now
			g.sink.Accept(r)
		}
	}
}
