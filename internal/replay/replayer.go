// Package replay streams records from a capture file, paces them with the
// timing controller, and resends them over a live socket.
package replay

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/banshee-data/udpgen/internal/monitoring"
	"github.com/banshee-data/udpgen/internal/pcapio"
	"github.com/banshee-data/udpgen/internal/shutdown"
	"github.com/banshee-data/udpgen/internal/stats"
	"github.com/banshee-data/udpgen/internal/timing"
	"github.com/banshee-data/udpgen/internal/udpsock"
)

// pollInterval is not used by the replay loop, which does not poll on a
// timer: it checks ShouldExit before and after every pacing wait, and each
// wait returns as soon as ShutdownSignal's stop channel closes.
const pollInterval = 100 * time.Millisecond

// statsName is the fixed StatsCollector key used for replayed traffic.
const statsName = "replay"

// Replayer drives one capture file's records through a TimingController and
// out a live socket.
type Replayer struct {
	reader    pcapio.Reader
	socket    udpsock.Socket
	dest      *net.UDPAddr
	pacer     *timing.Controller
	signal    *shutdown.Signal
	collector *stats.Collector
}

// New creates a Replayer.
func New(reader pcapio.Reader, socket udpsock.Socket, dest *net.UDPAddr, pacer *timing.Controller, signal *shutdown.Signal, collector *stats.Collector) *Replayer {
	return &Replayer{reader: reader, socket: socket, dest: dest, pacer: pacer, signal: signal, collector: collector}
}

// Run streams every record in the capture file until EOF or a shutdown
// request, transitioning the shared ShutdownSignal to Completed on clean
// exit and finalizing stats either way.
func (r *Replayer) Run() error {
	r.signal.Start()
	defer r.collector.FinalizeAll(time.Now())

	for {
		if r.signal.ShouldExit() {
			return nil
		}

		rec, err := r.reader.Next()
		if errors.Is(err, io.EOF) {
			r.signal.Complete()
			return nil
		}
		if err != nil {
			r.signal.Fail(err.Error())
			return err
		}

		r.pacer.Wait(rec.CaptureTime, r.signal.Stopped())
		if r.signal.ShouldExit() {
			return nil
		}

		n, err := r.socket.Send(rec.Data, r.dest)
		if err != nil {
			monitoring.Logf("replay: send error: %v", err)
			r.collector.RecordError(statsName)
			continue
		}
		r.collector.RecordSent(statsName, n, time.Now())
	}
}
