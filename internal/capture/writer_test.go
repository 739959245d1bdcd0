package capture

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/banshee-data/udpgen/internal/pcapio"
	"github.com/banshee-data/udpgen/internal/shutdown"
	"github.com/banshee-data/udpgen/internal/stats"
	"github.com/banshee-data/udpgen/internal/udpsock"
)

var errIndexDown = errors.New("index unavailable")

func TestCaptureWriterWritesReceivedDatagrams(t *testing.T) {
	inbound := []udpsock.MockPacket{
		{Data: []byte{0x01, 0x02}, Addr: &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: 9001}},
		{Data: []byte{0x03, 0x04, 0x05}, Addr: &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: 9001}},
	}
	sock := udpsock.NewMockSocket(inbound)
	pcapWriter := pcapio.NewMockWriter()
	signal := shutdown.New()
	collector := stats.New()

	w := New(sock, pcapWriter, nil, signal, collector)

	done := make(chan error, 1)
	go func() { done <- w.Run() }()

	deadline := time.After(2 * time.Second)
	for {
		if len(pcapWriter.Written) >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for captured packets to be written")
		case <-time.After(time.Millisecond):
		}
	}

	signal.RequestStop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not exit after RequestStop")
	}

	if len(pcapWriter.Written) != 2 {
		t.Fatalf("wrote %d packets, want 2", len(pcapWriter.Written))
	}
	if !pcapWriter.Closed {
		t.Fatalf("pcap writer was not closed on exit")
	}
	agg := collector.Aggregate()
	if agg.Packets != 2 {
		t.Fatalf("aggregate packets = %d, want 2", agg.Packets)
	}
}

type fakeIndex struct {
	records []fakeIndexRecord
	err     error
}

type fakeIndexRecord struct {
	sequence int64
	length   int
}

func (f *fakeIndex) RecordPacket(sequence int64, captureTime time.Time, length int, sourceAddr *net.UDPAddr) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, fakeIndexRecord{sequence: sequence, length: length})
	return nil
}

func TestCaptureWriterIndexesReceivedDatagramsBySequence(t *testing.T) {
	inbound := []udpsock.MockPacket{
		{Data: []byte{0x01, 0x02}, Addr: &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: 9001}},
		{Data: []byte{0x03, 0x04, 0x05}, Addr: &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: 9001}},
	}
	sock := udpsock.NewMockSocket(inbound)
	pcapWriter := pcapio.NewMockWriter()
	idx := &fakeIndex{}
	signal := shutdown.New()
	collector := stats.New()

	w := New(sock, pcapWriter, idx, signal, collector)

	done := make(chan error, 1)
	go func() { done <- w.Run() }()

	deadline := time.After(2 * time.Second)
	for {
		if len(idx.records) >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for indexed packets")
		case <-time.After(time.Millisecond):
		}
	}
	signal.RequestStop()
	<-done

	if idx.records[0].sequence != 0 || idx.records[1].sequence != 1 {
		t.Fatalf("index sequences = %+v, want 0 then 1", idx.records)
	}
	if idx.records[1].length != 3 {
		t.Fatalf("index record length = %d, want 3", idx.records[1].length)
	}
}

func TestCaptureWriterIndexErrorDoesNotStopCapture(t *testing.T) {
	inbound := []udpsock.MockPacket{
		{Data: []byte{0x01}, Addr: &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: 9001}},
	}
	sock := udpsock.NewMockSocket(inbound)
	pcapWriter := pcapio.NewMockWriter()
	idx := &fakeIndex{err: errIndexDown}
	signal := shutdown.New()
	collector := stats.New()

	w := New(sock, pcapWriter, idx, signal, collector)

	done := make(chan error, 1)
	go func() { done <- w.Run() }()

	deadline := time.After(2 * time.Second)
	for {
		if len(pcapWriter.Written) >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the packet to reach the primary pcap writer")
		case <-time.After(time.Millisecond):
		}
	}
	signal.RequestStop()
	<-done

	if len(pcapWriter.Written) != 1 {
		t.Fatalf("primary pcap write was blocked by an index failure, wrote %d", len(pcapWriter.Written))
	}
}
