// Package peers defines the concept of a lattice peer and implements functions
// to manage collections of peers.
//
// A peer is identified by its network address (host:port). Nodes exchange
// connectionless datagrams, so there is no session: a peer is created the
// first time a datagram is received from, or sent to, its address, and it is
// never evicted. Every peer carries counters of the protocol messages received
// from it, which are the only per-peer state of a node.
//
// Upon starting up, a node looks for a peers.json file in its data directory.
// It lists the peers the node should keep alive. Entries may optionally carry
// the public key and a moniker of the peer, for human operators.
package peers
