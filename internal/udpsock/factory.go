package udpsock

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"

	"github.com/banshee-data/udpgen/internal/monitoring"
)

// recvBufferBytes is the OS receive buffer size requested on every
// receiver socket, on a best-effort basis.
const recvBufferBytes = 2 * 1024 * 1024

// multicastTTL is the outgoing multicast TTL applied to sender sockets in
// Multicast mode.
const multicastTTL = 32

// Factory creates configured sockets for either side of a NetworkEndpoint.
// The indirection exists so tests can swap in a mock.
type Factory interface {
	NewSender(endpoint NetworkEndpoint) (Socket, error)
	NewReceiver(endpoint NetworkEndpoint) (Socket, error)
}

// RealFactory creates sockets backed by the OS network stack.
type RealFactory struct{}

// NewRealFactory creates a RealFactory.
func NewRealFactory() *RealFactory { return &RealFactory{} }

// NewSender creates a non-blocking UDP socket bound to 0.0.0.0:0, configured
// for the endpoint's mode.
func (RealFactory) NewSender(e NetworkEndpoint) (Socket, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	laddr := &net.UDPAddr{IP: net.IPv4zero, Port: 0}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("udpsock: listen for sender: %w", err)
	}

	switch e.Mode {
	case Broadcast:
		if err := enableBroadcast(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("udpsock: enable broadcast: %w", err)
		}
	case Multicast:
		if e.Address.To4() == nil {
			monitoring.Logf("udpsock: IPv6 multicast is not supported, sending as plain unicast/broadcast instead")
			break
		}
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastTTL(multicastTTL); err != nil {
			monitoring.Logf("udpsock: failed to set multicast TTL: %v", err)
		}
		if e.Interface != "" {
			ifi, err := net.InterfaceByName(e.Interface)
			if err != nil {
				monitoring.Logf("udpsock: failed to resolve multicast interface %q: %v", e.Interface, err)
			} else if err := pc.SetMulticastInterface(ifi); err != nil {
				monitoring.Logf("udpsock: failed to set multicast interface %q: %v", e.Interface, err)
			}
		}
	}

	return NewRealSocket(conn), nil
}

// NewReceiver creates a UDP socket bound to the endpoint's address/port,
// joining a multicast group when the mode requires it, and requesting a
// larger OS receive buffer on a best-effort basis.
func (RealFactory) NewReceiver(e NetworkEndpoint) (Socket, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if e.Mode == Multicast {
		var ifi *net.Interface
		if e.Interface != "" {
			var err error
			ifi, err = net.InterfaceByName(e.Interface)
			if err != nil {
				return nil, fmt.Errorf("udpsock: resolve multicast interface %q: %w", e.Interface, err)
			}
		}
		conn, err := net.ListenMulticastUDP("udp4", ifi, &net.UDPAddr{IP: e.Address, Port: int(e.Port)})
		if err != nil {
			return nil, fmt.Errorf("udpsock: listen multicast: %w", err)
		}
		if err := conn.SetReadBuffer(recvBufferBytes); err != nil {
			monitoring.Logf("udpsock: failed to set receive buffer size: %v", err)
		}
		return NewRealSocket(conn), nil
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: e.Address, Port: int(e.Port)})
	if err != nil {
		return nil, fmt.Errorf("udpsock: listen: %w", err)
	}
	if e.Mode == Broadcast {
		if err := enableBroadcast(conn); err != nil {
			monitoring.Logf("udpsock: failed to enable broadcast on receiver: %v", err)
		}
	}
	if err := conn.SetReadBuffer(recvBufferBytes); err != nil {
		monitoring.Logf("udpsock: failed to set receive buffer size: %v", err)
	}
	return NewRealSocket(conn), nil
}
