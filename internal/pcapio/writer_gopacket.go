//go:build pcap
// +build pcap

package pcapio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// snapLen is generous enough for any UDP payload this system generates or
// captures; it is not a per-packet truncation limit in practice.
const snapLen = 65535

// gopacketWriterFactory creates pcap files via the pure-Go pcapgo encoder.
type gopacketWriterFactory struct{}

// NewWriterFactory creates the pcap-tagged WriterFactory.
func NewWriterFactory() WriterFactory {
	return gopacketWriterFactory{}
}

func (gopacketWriterFactory) Create(path string, opts WriterOptions) (Writer, error) {
	w := &gopacketWriter{basePath: path, opts: opts}
	if err := w.rotate(); err != nil {
		return nil, err
	}
	return w, nil
}

type gopacketWriter struct {
	basePath     string
	opts         WriterOptions
	file         *os.File
	pcapWriter   *pcapgo.Writer
	fileIndex    int
	packetsInCur int
}

func (w *gopacketWriter) rotate() error {
	if w.file != nil {
		w.file.Close()
	}

	path := w.basePath
	if w.fileIndex > 0 {
		ext := filepath.Ext(w.basePath)
		base := strings.TrimSuffix(w.basePath, ext)
		path = fmt.Sprintf("%s.%04d%s", base, w.fileIndex, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pcapio: create %s: %w", path, err)
	}
	pw := pcapgo.NewWriter(f)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeRaw); err != nil {
		f.Close()
		return fmt.Errorf("pcapio: write header for %s: %w", path, err)
	}

	w.file = f
	w.pcapWriter = pw
	w.fileIndex++
	w.packetsInCur = 0
	return nil
}

func (w *gopacketWriter) WritePacket(rec PacketRecord) error {
	if w.opts.MaxPacketsPerFile > 0 && w.packetsInCur >= w.opts.MaxPacketsPerFile {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     rec.CaptureTime,
		CaptureLength: len(rec.Data),
		Length:        len(rec.Data),
	}
	if err := w.pcapWriter.WritePacket(ci, rec.Data); err != nil {
		return fmt.Errorf("pcapio: write packet: %w", err)
	}
	w.packetsInCur++
	return nil
}

func (w *gopacketWriter) Close() error {
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}
