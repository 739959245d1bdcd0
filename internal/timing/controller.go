// Package timing paces pcap replay to reproduce the original capture
// timestamps on the wire: each packet's offset from the first capture
// timestamp is replayed against a wall-clock origin, with every wait
// cancellable by the stop channel.
package timing

import (
	"time"

	"github.com/banshee-data/udpgen/internal/monitoring"
	"github.com/banshee-data/udpgen/internal/timeutil"
)

// Controller paces replayed packets to match their original inter-arrival
// times.
type Controller struct {
	clock             timeutil.Clock
	maxDelayThreshold time.Duration // 0 means uncapped

	firstPacketTime time.Time
	realStart       time.Time
	initialized     bool
}

// New creates a Controller. maxDelayThreshold caps any single wait; zero
// disables the cap.
func New(clock timeutil.Clock, maxDelayThreshold time.Duration) *Controller {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Controller{clock: clock, maxDelayThreshold: maxDelayThreshold}
}

// Wait blocks, if necessary, until t's scheduled real-time arrival: the
// first call establishes the origin and returns immediately;
// subsequent calls compute the proportional offset and suspend until that
// offset has elapsed in real time. stopCh, when closed, cancels the wait
// early.
func (c *Controller) Wait(t time.Time, stopCh <-chan struct{}) {
	if !c.initialized {
		c.firstPacketTime = t
		c.realStart = c.clock.Now()
		c.initialized = true
		return
	}

	offset := t.Sub(c.firstPacketTime)
	if offset < 0 {
		offset = 0
	}

	target := c.realStart.Add(offset)
	now := c.clock.Now()
	delay := target.Sub(now)
	if delay < time.Nanosecond {
		return
	}

	if c.maxDelayThreshold > 0 && delay > c.maxDelayThreshold {
		monitoring.Logf("timing: drift warning, expected delay %.3fs exceeds threshold %.3fs, not sleeping",
			delay.Seconds(), c.maxDelayThreshold.Seconds())
		return
	}

	select {
	case <-stopCh:
	case <-c.clock.After(delay):
	}
}
