// Package pcapio defines the packet-record reader/writer abstraction:
// per-record (utc timestamp, bytes), with the concrete on-disk encoding
// delegated to gopacket/pcapgo behind a pcap build tag so the rest of the
// tree builds without it.
package pcapio

import "time"

// PacketRecord is one packet as read from, or written to, a capture file.
type PacketRecord struct {
	CaptureTime time.Time
	Data        []byte
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	// MaxPacketsPerFile rotates to a new file after this many packets are
	// written. Zero or negative means unbounded.
	MaxPacketsPerFile int

	// EnableIndexCache reports that the caller keeps a side index of the
	// written records (see internal/pcapio/index). The writer itself does
	// not read this option and stores no record offsets.
	EnableIndexCache bool
}

// Reader streams PacketRecords from an open capture file.
type Reader interface {
	// Next returns the next record, or io.EOF when the file is exhausted.
	Next() (PacketRecord, error)
	Close() error
}

// ReaderFactory opens a capture file for reading.
type ReaderFactory interface {
	Open(path string) (Reader, error)
}

// Writer appends PacketRecords to a capture file (or rotated sequence of
// files, per WriterOptions.MaxPacketsPerFile).
type Writer interface {
	WritePacket(PacketRecord) error
	Close() error
}

// WriterFactory creates a capture file for writing.
type WriterFactory interface {
	Create(path string, opts WriterOptions) (Writer, error)
}
