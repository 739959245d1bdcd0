//go:build !pcap
// +build !pcap

package pcapio

import "fmt"

type stubWriterFactory struct{}

// NewWriterFactory is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable PCAP file writing.
func NewWriterFactory() WriterFactory {
	return stubWriterFactory{}
}

func (stubWriterFactory) Create(path string, opts WriterOptions) (Writer, error) {
	return nil, fmt.Errorf("pcapio: PCAP support not enabled: rebuild with -tags=pcap to write %s", path)
}
