package net

import (
	"net"
	"strconv"
)

// Endpoint recognizes the addresses under which a local socket is reachable.
// Datagrams from a socket bound to a wildcard address may carry any loopback
// or interface address with the bound port as their source.
type Endpoint struct {
	addr     string
	port     int
	ip       net.IP
	wildcard bool
	hostIPs  []net.IP
}

// NewEndpoint creates an Endpoint for the local address of a transport.
// Addresses that are not host:port pairs, like those of an InmemTransport,
// only match themselves.
func NewEndpoint(local string) *Endpoint {
	e := &Endpoint{addr: local, port: -1}

	ip, port, ok := splitAddr(local)
	if !ok {
		return e
	}

	e.ip = ip
	e.port = port
	e.wildcard = ip == nil || ip.IsUnspecified()

	if e.wildcard {
		if addrs, err := net.InterfaceAddrs(); err == nil {
			for _, a := range addrs {
				if ipNet, ok := a.(*net.IPNet); ok {
					e.hostIPs = append(e.hostIPs, ipNet.IP)
				}
			}
		}
	}

	return e
}

// String returns the local address.
func (e *Endpoint) String() string {
	return e.addr
}

// Matches reports whether addr designates the local socket.
func (e *Endpoint) Matches(addr string) bool {
	if addr == e.addr {
		return true
	}
	if e.port < 0 {
		return false
	}

	ip, port, ok := splitAddr(addr)
	if !ok || ip == nil || port != e.port {
		return false
	}

	if !e.wildcard {
		return ip.Equal(e.ip)
	}

	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	for _, h := range e.hostIPs {
		if h.Equal(ip) {
			return true
		}
	}
	return false
}

// splitAddr parses a host:port pair. Host names are resolved. An empty host
// yields a nil IP.
func splitAddr(addr string) (net.IP, int, bool) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, 0, false
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, 0, false
	}

	if host == "" {
		return nil, port, true
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip, port, true
	}

	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return nil, 0, false
	}

	return ips[0], port, true
}
