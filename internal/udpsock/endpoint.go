// Package udpsock creates configured UDP sockets: unicast, broadcast, and
// multicast, for both send and receive, behind a small interface so loops
// can be tested against a mock.
package udpsock

import (
	"fmt"
	"net"
)

// Mode is the closed set of NetworkEndpoint transmission modes.
type Mode int

const (
	Unicast Mode = iota
	Broadcast
	Multicast
)

func (m Mode) String() string {
	switch m {
	case Unicast:
		return "unicast"
	case Broadcast:
		return "broadcast"
	case Multicast:
		return "multicast"
	default:
		return "unknown"
	}
}

// NetworkEndpoint describes where a socket binds
// and/or sends.
type NetworkEndpoint struct {
	Address   net.IP
	Port      uint16 // 1..65535
	Mode      Mode
	Interface string // empty means "no interface selected"
}

// Validate enforces the NetworkEndpoint invariants: multicast requires
// an IPv4 multicast address (224.0.0.0/4); broadcast addresses that aren't a
// directed or limited broadcast address produce a warning, not a rejection,
// so Validate never errors for that case — callers that want the warning
// surfaced should check BroadcastAddressLooksWrong themselves.
func (e NetworkEndpoint) Validate() error {
	if e.Port == 0 {
		return fmt.Errorf("network endpoint: port must be in [1,65535], got 0")
	}
	if e.Mode == Multicast {
		if e.Address == nil || !e.Address.IsMulticast() || e.Address.To4() == nil {
			return fmt.Errorf("network endpoint: multicast mode requires an IPv4 multicast address, got %v", e.Address)
		}
	}
	return nil
}

// BroadcastAddressLooksWrong reports whether a Broadcast-mode endpoint's
// address is neither a directed broadcast (x.x.x.255) nor the limited
// broadcast address (255.255.255.255). This is a warning, not a
// validation failure.
func (e NetworkEndpoint) BroadcastAddressLooksWrong() bool {
	if e.Mode != Broadcast || e.Address == nil {
		return false
	}
	v4 := e.Address.To4()
	if v4 == nil {
		return true
	}
	if v4.Equal(net.IPv4bcast) {
		return false
	}
	return v4[3] != 255
}

// UDPAddr renders the endpoint as a *net.UDPAddr for dialing/sending.
func (e NetworkEndpoint) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: e.Address, Port: int(e.Port)}
}
