package csvgen

import (
	"net"
	"time"

	"github.com/banshee-data/udpgen/internal/monitoring"
	"github.com/banshee-data/udpgen/internal/shutdown"
	"github.com/banshee-data/udpgen/internal/stats"
	"github.com/banshee-data/udpgen/internal/timeutil"
	"github.com/banshee-data/udpgen/internal/udpsock"
)

// statsName is the fixed StatsCollector key used for CSV-driven traffic.
const statsName = "csv"

// Emitter sends one packet per dataset row at a fixed interval, the
// secondary CSV-driven mode. Rows are emitted in order; a row that fails to
// assemble is counted as an error and skipped.
type Emitter struct {
	dataset  *Dataset
	socket   udpsock.Socket
	dest     *net.UDPAddr
	interval time.Duration
	signal   *shutdown.Signal
	stats    *stats.Collector
	clock    timeutil.Clock
}

// NewEmitter creates an Emitter. clock may be nil to use the real clock.
func NewEmitter(dataset *Dataset, socket udpsock.Socket, dest *net.UDPAddr, interval time.Duration, signal *shutdown.Signal, collector *stats.Collector, clock timeutil.Clock) *Emitter {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Emitter{
		dataset:  dataset,
		socket:   socket,
		dest:     dest,
		interval: interval,
		signal:   signal,
		stats:    collector,
		clock:    clock,
	}
}

// Run emits every dataset row in order, one per interval, until the rows are
// exhausted or a shutdown request arrives. It transitions ShutdownSignal to
// Completed after the last row and finalizes stats either way.
func (e *Emitter) Run() error {
	e.signal.Start()
	defer e.stats.FinalizeAll(e.clock.Now())

	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for row := 0; row < len(e.dataset.Rows); {
		select {
		case <-e.signal.Stopped():
			return nil
		case <-ticker.C():
			if e.signal.ShouldExit() {
				return nil
			}
			e.emit(row)
			row++
		}
	}

	e.signal.Complete()
	return nil
}

func (e *Emitter) emit(row int) {
	payload, err := e.dataset.AssembleRow(row)
	if err != nil {
		monitoring.Logf("csvgen: assemble row %d: %v", row, err)
		e.stats.RecordError(statsName)
		return
	}
	n, err := e.socket.Send(payload, e.dest)
	if err != nil {
		monitoring.Logf("csvgen: send row %d: %v", row, err)
		e.stats.RecordError(statsName)
		return
	}
	e.stats.RecordSent(statsName, n, e.clock.Now())
}
