//go:build pcap
// +build pcap

package pcapio

import (
	"fmt"
	"os"

	"github.com/google/gopacket/pcapgo"
)

// gopacketReaderFactory opens capture files via the pure-Go pcapgo decoder.
type gopacketReaderFactory struct{}

// NewReaderFactory creates the pcap-tagged ReaderFactory.
func NewReaderFactory() ReaderFactory {
	return gopacketReaderFactory{}
}

func (gopacketReaderFactory) Open(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pcapio: open %s: %w", path, err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pcapio: read header of %s: %w", path, err)
	}
	return &gopacketReader{file: f, reader: r}, nil
}

type gopacketReader struct {
	file   *os.File
	reader *pcapgo.Reader
}

func (r *gopacketReader) Next() (PacketRecord, error) {
	data, ci, err := r.reader.ReadPacketData()
	if err != nil {
		return PacketRecord{}, err
	}
	return PacketRecord{CaptureTime: ci.Timestamp, Data: data}, nil
}

func (r *gopacketReader) Close() error {
	return r.file.Close()
}
