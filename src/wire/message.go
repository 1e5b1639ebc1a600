package wire

import (
	"fmt"

	"github.com/mosaicnetworks/lattice/src/block"
)

// MessageType is the one-byte tag heading every message.
type MessageType uint8

const (
	// TypeKeepaliveReq is a liveness ping.
	TypeKeepaliveReq MessageType = iota
	// TypeKeepaliveAck answers a KeepaliveReq.
	TypeKeepaliveAck
	// TypePublishReq proposes a block to a peer.
	TypePublishReq
	// TypePublishAck tells the publisher its block was accepted.
	TypePublishAck
	// TypePublishNak tells the publisher its block was rejected.
	TypePublishNak

	numMessageTypes // must be last
)

// String ...
func (t MessageType) String() string {
	switch t {
	case TypeKeepaliveReq:
		return "KeepaliveReq"
	case TypeKeepaliveAck:
		return "KeepaliveAck"
	case TypePublishReq:
		return "PublishReq"
	case TypePublishAck:
		return "PublishAck"
	case TypePublishNak:
		return "PublishNak"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	return t < numMessageTypes
}

// Message is implemented by the five protocol messages. Receivers dispatch on
// the concrete type.
type Message interface {
	Type() MessageType
}

// KeepaliveReq ...
type KeepaliveReq struct{}

// KeepaliveAck ...
type KeepaliveAck struct{}

// PublishReq carries a block proposed for validation.
type PublishReq struct {
	Block *block.Block
}

// PublishAck ...
type PublishAck struct{}

// PublishNak ...
type PublishNak struct{}

// Type implements Message.
func (*KeepaliveReq) Type() MessageType { return TypeKeepaliveReq }

// Type implements Message.
func (*KeepaliveAck) Type() MessageType { return TypeKeepaliveAck }

// Type implements Message.
func (*PublishReq) Type() MessageType { return TypePublishReq }

// Type implements Message.
func (*PublishAck) Type() MessageType { return TypePublishAck }

// Type implements Message.
func (*PublishNak) Type() MessageType { return TypePublishNak }
