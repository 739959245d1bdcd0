package udpsock

import (
	"net"
	"sync"
	"time"
)

// MockSocket implements Socket for testing.
type MockSocket struct {
	mu sync.Mutex

	// Inbound holds packets to return from ReadFromUDP.
	Inbound   []MockPacket
	readIndex int

	// Sent records every Send call.
	Sent []MockPacket

	Closed         bool
	ReadBufferSize int
	ReadDeadline   time.Time
	LocalAddress   *net.UDPAddr

	ReadError          error
	SendError          error
	SetReadBufferError error
}

// MockPacket represents one packet for mock testing, on either side.
type MockPacket struct {
	Data []byte
	Addr *net.UDPAddr
}

// NewMockSocket creates a MockSocket seeded with inbound packets.
func NewMockSocket(inbound []MockPacket) *MockSocket {
	return &MockSocket{
		Inbound: inbound,
		LocalAddress: &net.UDPAddr{
			IP:   net.ParseIP("127.0.0.1"),
			Port: 9000,
		},
	}
}

func (m *MockSocket) Send(b []byte, addr *net.UDPAddr) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendError != nil {
		return 0, m.SendError
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	m.Sent = append(m.Sent, MockPacket{Data: cp, Addr: addr})
	return len(b), nil
}

func (m *MockSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return 0, nil, net.ErrClosed
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		return 0, nil, err
	}
	if m.readIndex >= len(m.Inbound) {
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: &timeoutError{}}
	}
	pkt := m.Inbound[m.readIndex]
	m.readIndex++
	n := copy(b, pkt.Data)
	return n, pkt.Addr, nil
}

func (m *MockSocket) SetReadBuffer(bytes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetReadBufferError != nil {
		return m.SetReadBufferError
	}
	m.ReadBufferSize = bytes
	return nil
}

func (m *MockSocket) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadDeadline = t
	return nil
}

func (m *MockSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockSocket) LocalAddr() net.Addr {
	return m.LocalAddress
}

// Reset clears mutable read/write state for reuse across test cases.
func (m *MockSocket) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readIndex = 0
	m.Closed = false
	m.Sent = nil
	m.ReadBufferSize = 0
	m.ReadDeadline = time.Time{}
	m.ReadError = nil
}

// timeoutError implements net.Error for read-timeout simulation.
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

// MockFactory implements Factory for testing.
type MockFactory struct {
	mu sync.Mutex

	Sender   *MockSocket
	Receiver *MockSocket

	SenderErr   error
	ReceiverErr error

	SenderCalls   []NetworkEndpoint
	ReceiverCalls []NetworkEndpoint
}

// NewMockFactory creates a MockFactory that returns the given sockets.
func NewMockFactory(sender, receiver *MockSocket) *MockFactory {
	return &MockFactory{Sender: sender, Receiver: receiver}
}

func (f *MockFactory) NewSender(e NetworkEndpoint) (Socket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SenderCalls = append(f.SenderCalls, e)
	if f.SenderErr != nil {
		return nil, f.SenderErr
	}
	return f.Sender, nil
}

func (f *MockFactory) NewReceiver(e NetworkEndpoint) (Socket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReceiverCalls = append(f.ReceiverCalls, e)
	if f.ReceiverErr != nil {
		return nil, f.ReceiverErr
	}
	return f.Receiver, nil
}
