// Package scheduler drives N concurrent message emitters over one socket:
// a single cooperative loop that selects on the shutdown signal and a
// fixed-interval ticker, emitting every due message per tick.
package scheduler

import (
	"net"
	"time"

	"github.com/banshee-data/udpgen/internal/blueprint"
	"github.com/banshee-data/udpgen/internal/monitoring"
	"github.com/banshee-data/udpgen/internal/shutdown"
	"github.com/banshee-data/udpgen/internal/stats"
	"github.com/banshee-data/udpgen/internal/timeutil"
	"github.com/banshee-data/udpgen/internal/udpsock"
)

// tickInterval is the scheduler's fixed poll period.
const tickInterval = 10 * time.Millisecond

// Scheduler drives a fixed set of Schedulables over one socket.
type Scheduler struct {
	messages []*blueprint.Schedulable
	socket   udpsock.Socket
	dest     *net.UDPAddr
	signal   *shutdown.Signal
	stats    *stats.Collector
	clock    timeutil.Clock
}

// New creates a Scheduler. dest is nil for already-connected sockets that
// know their own destination.
func New(messages []*blueprint.Schedulable, socket udpsock.Socket, dest *net.UDPAddr, signal *shutdown.Signal, collector *stats.Collector, clock timeutil.Clock) *Scheduler {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Scheduler{
		messages: messages,
		socket:   socket,
		dest:     dest,
		signal:   signal,
		stats:    collector,
		clock:    clock,
	}
}

// Run executes the emit loop until a stop is requested, an
// auto-stop condition is reached, or every message is exhausted. It returns
// once the loop exits; callers typically invoke it in its own goroutine.
func (s *Scheduler) Run() {
	s.signal.Start()
	defer s.finalize()

	ticker := s.clock.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.signal.Stopped():
			return
		case <-ticker.C():
			if s.signal.ShouldExit() {
				return
			}
			if s.autoStop() {
				s.signal.Complete()
				return
			}
			s.tick()
		}
	}
}

// autoStop reports whether emission is finished: at least one bounded message
// exists and every bounded message has reached its packet_count.
func (s *Scheduler) autoStop() bool {
	sawBounded := false
	for _, m := range s.messages {
		if m.Blueprint.PacketCount == 0 {
			continue
		}
		sawBounded = true
		if !m.Exhausted() {
			return false
		}
	}
	return sawBounded
}

// tick emits one packet for every due message, in
// declared order. Assembly and send errors are counted and logged; they
// never terminate the loop.
func (s *Scheduler) tick() {
	now := s.clock.Now()
	for _, m := range s.messages {
		if !m.Due(now) {
			continue
		}
		s.emit(m, now)
	}
}

func (s *Scheduler) emit(m *blueprint.Schedulable, now time.Time) {
	packetIndex := m.PacketsEmitted
	payload, err := blueprint.Assemble(m, packetIndex)
	if err != nil {
		monitoring.Logf("scheduler: assemble %q packet %d: %v", m.Blueprint.Name, packetIndex, err)
		s.stats.RecordError(m.Blueprint.Name)
		return
	}

	n, err := s.socket.Send(payload, s.dest)
	if err != nil {
		monitoring.Logf("scheduler: send %q packet %d: %v", m.Blueprint.Name, packetIndex, err)
		s.stats.RecordError(m.Blueprint.Name)
		return
	}

	m.PacketsEmitted++
	emitTime := now
	m.LastEmit = &emitTime
	s.stats.RecordSent(m.Blueprint.Name, n, now)
}

func (s *Scheduler) finalize() {
	s.stats.FinalizeAll(s.clock.Now())
}
