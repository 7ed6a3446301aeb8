// Package netutil opens the UDP sockets the server multiplexes over.
package netutil

import (
	"context"
	"net"
	"strconv"
)

// ListenUDP binds a datagram socket on port, optionally restricted to
// bindIP, with broadcast sends enabled.
func ListenUDP(bindIP string, port int) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: enableBroadcast}
	pc, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort(bindIP, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// BroadcastAddr is the IPv4 limited broadcast address for port.
func BroadcastAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4bcast, Port: port}
}
