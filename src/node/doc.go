// Package node implements the reactive component of a lattice node.
//
// A Node consumes the datagrams delivered by its transport, one at a time,
// and turns each of them into zero or one reply:
//
// - KeepaliveReq is answered with a KeepaliveAck.
//
// - PublishReq carries a Block. If the block does not decode, the datagram is
// discarded without a reply, since a malformed payload cannot be attributed to
// any signer. Otherwise the block is handed to the Ledger, and the node replies
// PublishAck if it was accepted and applied, or PublishNak if it was rejected.
// A store failure is logged and left unanswered, so a block is never
// acknowledged without having been persisted.
//
// - KeepaliveAck, PublishAck and PublishNak are only counted.
//
// Every datagram received from an address counts against the corresponding
// Peer, which is created on first contact. There is no session or request
// identifier: replies go to the endpoint the request came from.
//
// Processing is single-threaded. Tests drive a node step by step with
// ProcessNext, while Run loops until Shutdown and, when a keepalive interval
// is configured, periodically sends a KeepaliveReq to every known peer.
//
// The states of a Node are defined in the state package.
package node
