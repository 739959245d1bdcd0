//go:build windows

package udpsock

import "net"

// enableBroadcast is a no-op on Windows, where UDP sockets may send to a
// broadcast address without an explicit socket option in the common case.
func enableBroadcast(conn *net.UDPConn) error {
	return nil
}
