package net

import (
	"errors"
)

// MaxDatagramSize is the largest payload a transport delivers. Larger
// datagrams are truncated by the socket and then rejected by the codec.
const MaxDatagramSize = 65507

// DefaultQueueSize is the number of received datagrams a transport buffers
// until they are consumed.
const DefaultQueueSize = 64

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")
)

// Datagram is a payload received from a remote endpoint.
type Datagram struct {
	From    string
	Payload []byte
}

// Transport provides an interface for network transports
// to allow a node to communicate with other nodes.
type Transport interface {

	// Starts the transport listening. It blocks until the transport is
	// closed.
	Listen()

	// Consumer returns a channel of the datagrams received. It is closed when
	// the transport stops listening.
	Consumer() <-chan Datagram

	// LocalAddr is used to return our local address
	LocalAddr() string

	// Send transmits a single datagram to target. Delivery is not
	// guaranteed.
	Send(target string, data []byte) error

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}
