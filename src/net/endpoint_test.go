package net

import (
	"net"
	"testing"
)

func TestEndpointMatches(t *testing.T) {
	testCases := []struct {
		local string
		addr  string
		match bool
	}{
		{"127.0.0.1:7075", "127.0.0.1:7075", true},
		{"127.0.0.1:7075", "127.0.0.1:7076", false},
		{"127.0.0.1:7075", "10.0.0.1:7075", false},
		{"[::]:7075", "127.0.0.1:7075", true},
		{"[::]:7075", "[::1]:7075", true},
		{"[::]:7075", "localhost:7075", true},
		{"[::]:7075", "127.0.0.1:7076", false},
		{"0.0.0.0:7075", "127.0.0.1:7075", true},
		{"0.0.0.0:7075", "0.0.0.0:7075", true},
		{":7075", "127.0.0.1:7075", true},
		{"node-a", "node-a", true},
		{"node-a", "node-b", false},
		{"node-a", "127.0.0.1:7075", false},
		{"[::]:7075", "garbage", false},
	}

	for _, tc := range testCases {
		e := NewEndpoint(tc.local)
		if got := e.Matches(tc.addr); got != tc.match {
			t.Fatalf("NewEndpoint(%q).Matches(%q) should be %v", tc.local, tc.addr, tc.match)
		}
	}
}

func TestEndpointInterfaceAddrs(t *testing.T) {
	e := NewEndpoint("0.0.0.0:7075")

	for _, ip := range e.hostIPs {
		addr := net.JoinHostPort(ip.String(), "7075")
		if !e.Matches(addr) {
			t.Fatalf("interface address %s should match", addr)
		}
	}
}
