// Package net implements the transports used by lattice nodes to exchange
// datagrams.
//
// The peer protocol is connectionless: every message travels in a single
// datagram, and a reply is addressed to the endpoint the request came from.
// The Transport interface therefore only offers to send bytes to an endpoint
// and to consume the datagrams received, tagged with their sender. There are
// two implementations:
//
// - Inmem: in-memory transport used for testing. Transports are connected to
// each other explicitly, and delivery is ordered and reliable as long as the
// receiving queue has room.
//
// - UDP: communicating over plain UDP sockets.
//
// UDP
//
// To use a UDP transport, set BindAddr in the Config object (cf config package)
// to the IP:PORT the node binds to. The address that peers see as the sender
// of a datagram is the one they reply to, so nodes behind a NAT can still be
// answered as long as the mapping holds.
package net
