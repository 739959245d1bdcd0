// Package capture receives UDP datagrams and appends them to a pcap
// dataset: a cooperative loop that races socket reads against a fixed poll
// tick so a shutdown request is never observed late.
package capture

import (
	"net"
	"time"

	"github.com/banshee-data/udpgen/internal/monitoring"
	"github.com/banshee-data/udpgen/internal/pcapio"
	"github.com/banshee-data/udpgen/internal/shutdown"
	"github.com/banshee-data/udpgen/internal/stats"
	"github.com/banshee-data/udpgen/internal/udpsock"
)

// pollInterval bounds the read deadline applied on each loop iteration so
// ShutdownSignal is observed at least this often.
const pollInterval = 100 * time.Millisecond

// recvBufferSize is large enough for any UDP datagram (max IPv4 payload).
const recvBufferSize = 65535

// statsName is the fixed StatsCollector key used for captured traffic.
const statsName = "capture"

// IndexRecorder is the best-effort side-index collaborator. A nil
// IndexRecorder disables indexing entirely; a non-nil one whose writes fail
// only bumps the error counter and never blocks the primary pcap write.
type IndexRecorder interface {
	RecordPacket(sequence int64, captureTime time.Time, length int, sourceAddr *net.UDPAddr) error
}

// Writer binds a receiver socket and appends every received datagram to a
// pcap writer, optionally indexing each record via IndexRecorder.
type Writer struct {
	socket    udpsock.Socket
	writer    pcapio.Writer
	index     IndexRecorder
	signal    *shutdown.Signal
	collector *stats.Collector
	sequence  int64
}

// New creates a Writer. index may be nil to disable the side index.
func New(socket udpsock.Socket, writer pcapio.Writer, index IndexRecorder, signal *shutdown.Signal, collector *stats.Collector) *Writer {
	return &Writer{socket: socket, writer: writer, index: index, signal: signal, collector: collector}
}

// Run receives datagrams until a shutdown request, writing each to the
// configured pcap writer. It polls the socket with a bounded read deadline
// so ShutdownSignal is never observed more than pollInterval late. On exit
// it finalizes stats and the pcap writer.
func (w *Writer) Run() error {
	w.signal.Start()
	defer w.collector.FinalizeAll(time.Now())
	defer w.writer.Close()

	buf := make([]byte, recvBufferSize)

	for {
		if w.signal.ShouldExit() {
			return nil
		}

		if err := w.socket.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			monitoring.Logf("capture: set read deadline: %v", err)
		}

		n, srcAddr, err := w.socket.ReadFromUDP(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			monitoring.Logf("capture: recv error: %v", err)
			w.collector.RecordError(statsName)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		now := time.Now()

		if err := w.writer.WritePacket(pcapio.PacketRecord{CaptureTime: now, Data: data}); err != nil {
			monitoring.Logf("capture: write error: %v", err)
			w.collector.RecordError(statsName)
			continue
		}
		w.collector.RecordSent(statsName, n, now)

		if w.index != nil {
			seq := w.sequence
			w.sequence++
			if err := w.index.RecordPacket(seq, now, n, srcAddr); err != nil {
				monitoring.Logf("capture: index write error (packet still captured): %v", err)
				w.collector.RecordError(statsName + ".index")
			}
		}
	}
}

func isTimeout(err error) bool {
	type timeouter interface {
		Timeout() bool
	}
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}
