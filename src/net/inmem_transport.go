package net

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
)

// ErrQueueFull is returned by an InmemTransport when the receiving queue of
// the target has no room left. The datagram is lost, as it would be on a real
// network.
var ErrQueueFull = errors.New("receive queue full")

// NewInmemAddr returns a new in-memory addr with
// a randomly generate UUID as the ID.
func NewInmemAddr() string {
	return generateUUID()
}

// generateUUID is used to generate a random UUID.
func generateUUID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%12x",
		buf[0:4],
		buf[4:6],
		buf[6:8],
		buf[8:10],
		buf[10:16])
}

// InmemTransport Implements the Transport interface, to allow lattice nodes to
// be tested in-memory without going over a network.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan Datagram
	localAddr  string
	peers      map[string]*InmemTransport
	closed     bool
}

// NewInmemTransport is used to initialize a new transport
// and generates a random local address if none is specified
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		consumerCh: make(chan Datagram, DefaultQueueSize),
		localAddr:  addr,
		peers:      make(map[string]*InmemTransport),
	}
	return addr, trans
}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan Datagram {
	return i.consumerCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// Send implements the Transport interface. The payload is copied, and queued
// without blocking on the target transport.
func (i *InmemTransport) Send(target string, data []byte) error {
	i.RLock()
	closed := i.closed
	peer, ok := i.peers[target]
	i.RUnlock()

	if closed {
		return ErrTransportShutdown
	}
	if !ok {
		return fmt.Errorf("failed to connect to peer: %v", target)
	}
	if len(data) > MaxDatagramSize {
		return fmt.Errorf("datagram too large: %d bytes", len(data))
	}

	payload := make([]byte, len(data))
	copy(payload, data)

	return peer.deliver(Datagram{From: i.localAddr, Payload: payload})
}

func (i *InmemTransport) deliver(d Datagram) error {
	// the read lock keeps Close from closing the channel under our feet
	i.RLock()
	defer i.RUnlock()

	if i.closed {
		return nil
	}

	select {
	case i.consumerCh <- d:
		return nil
	default:
		return ErrQueueFull
	}
}

// Connect is used to connect this transport to another transport for
// a given peer name. This allows for local routing.
func (i *InmemTransport) Connect(peer string, t Transport) {
	trans := t.(*InmemTransport)
	i.Lock()
	defer i.Unlock()
	i.peers[peer] = trans
}

// Disconnect is used to remove the ability to route to a given peer.
func (i *InmemTransport) Disconnect(peer string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, peer)
}

// DisconnectAll is used to remove all routes to peers.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
}

// Close is used to permanently disable the transport
func (i *InmemTransport) Close() error {
	i.Lock()
	defer i.Unlock()

	if !i.closed {
		i.closed = true
		i.peers = make(map[string]*InmemTransport)
		close(i.consumerCh)
	}
	return nil
}

// Listen is an empty function as there is no need to defer
// initialisation of the InMem service
func (i *InmemTransport) Listen() {
}

// ConnectAll connects every transport to every other one.
func ConnectAll(transports ...*InmemTransport) {
	for _, a := range transports {
		for _, b := range transports {
			if a != b {
				a.Connect(b.LocalAddr(), b)
			}
		}
	}
}
