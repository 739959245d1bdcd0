//go:build !pcap
// +build !pcap

package pcapio

import "fmt"

type stubReaderFactory struct{}

// NewReaderFactory is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable PCAP file reading.
func NewReaderFactory() ReaderFactory {
	return stubReaderFactory{}
}

func (stubReaderFactory) Open(path string) (Reader, error) {
	return nil, fmt.Errorf("pcapio: PCAP support not enabled: rebuild with -tags=pcap to read %s", path)
}
