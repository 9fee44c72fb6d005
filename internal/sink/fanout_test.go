package sink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gaugebridge/internal/itr90"
)

type recordSink struct {
	got []itr90.Reading
}

func (s *recordSink) Accept(r itr90.Reading) { s.got = append(s.got, r) }

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func reading(p float64) itr90.Reading {
	return itr90.Reading{Pressure: p, At: time.Now()}
}

func TestFanoutThrottleDropsInsideWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	f := NewFanout()
	f.now = clock.now

	logger := &recordSink{}
	f.Add(logger, time.Second)

	f.Dispatch(reading(1e-5))
	clock.advance(100 * time.Millisecond)
	f.Dispatch(reading(2e-5))

	require.Len(t, logger.got, 1)
	require.Equal(t, 1e-5, logger.got[0].Pressure)
}

func TestFanoutThrottleAcceptsOutsideWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	f := NewFanout()
	f.now = clock.now

	logger := &recordSink{}
	f.Add(logger, time.Second)

	f.Dispatch(reading(1e-5))
	clock.advance(1100 * time.Millisecond)
	f.Dispatch(reading(2e-5))

	require.Len(t, logger.got, 2)
}

func TestFanoutSinksThrottledIndependently(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	f := NewFanout()
	f.now = clock.now

	logger := &recordSink{}
	panel := &recordSink{}
	f.Add(logger, time.Second)
	f.Add(panel, 200*time.Millisecond)

	f.Dispatch(reading(1e-5))
	clock.advance(300 * time.Millisecond)
	f.Dispatch(reading(2e-5))

	// Inside the logger's window but outside the panel's: only the
	// panel takes the second reading.
	require.Len(t, logger.got, 1)
	require.Len(t, panel.got, 2)
}

func TestFanoutZeroIntervalPassesEverything(t *testing.T) {
	f := NewFanout()
	s := &recordSink{}
	f.Add(s, 0)

	f.Dispatch(reading(1), reading(2), reading(3))
	require.Len(t, s.got, 3)
}

func TestFanoutActive(t *testing.T) {
	f := NewFanout()
	require.False(t, f.Active())
	f.Add(&recordSink{}, 0)
	require.True(t, f.Active())
}
