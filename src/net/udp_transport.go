package net

import (
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// UDPTransport implements the Transport interface over a UDP socket. Every
// datagram read from the socket is handed to the consumer channel as is.
type UDPTransport struct {
	logger *logrus.Entry

	conn net.PacketConn

	consumeCh chan Datagram

	shutdown     bool
	shutdownCh   chan struct{}
	shutdownLock sync.Mutex
}

// NewUDPTransport binds a UDP socket to bindAddr. Listen must be called, in
// its own goroutine, for datagrams to be consumed.
func NewUDPTransport(bindAddr string, logger *logrus.Entry) (*UDPTransport, error) {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	conn, err := net.ListenPacket("udp", bindAddr)
	if err != nil {
		return nil, err
	}

	trans := &UDPTransport{
		logger:     logger,
		conn:       conn,
		consumeCh:  make(chan Datagram, DefaultQueueSize),
		shutdownCh: make(chan struct{}),
	}

	return trans, nil
}

// Consumer implements the Transport interface.
func (u *UDPTransport) Consumer() <-chan Datagram {
	return u.consumeCh
}

// LocalAddr implements the Transport interface.
func (u *UDPTransport) LocalAddr() string {
	return u.conn.LocalAddr().String()
}

// IsShutdown is used to check if the transport is shutdown.
func (u *UDPTransport) IsShutdown() bool {
	select {
	case <-u.shutdownCh:
		return true
	default:
		return false
	}
}

// Send implements the Transport interface.
func (u *UDPTransport) Send(target string, data []byte) error {
	if u.IsShutdown() {
		return ErrTransportShutdown
	}

	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return err
	}

	n, err := u.conn.WriteTo(data, addr)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write to %s: %d of %d bytes", target, n, len(data))
	}

	return nil
}

// Listen reads datagrams until the transport is closed, then closes the
// consumer channel.
func (u *UDPTransport) Listen() {
	defer close(u.consumeCh)

	buf := make([]byte, MaxDatagramSize)
	for {
		n, from, err := u.conn.ReadFrom(buf)
		if err != nil {
			if u.IsShutdown() {
				return
			}
			u.logger.WithField("error", err).Error("Failed to read datagram")
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		select {
		case u.consumeCh <- Datagram{From: from.String(), Payload: payload}:
		case <-u.shutdownCh:
			return
		}
	}
}

// Close is used to stop the transport.
func (u *UDPTransport) Close() error {
	u.shutdownLock.Lock()
	defer u.shutdownLock.Unlock()

	if !u.shutdown {
		close(u.shutdownCh)
		u.shutdown = true
		return u.conn.Close()
	}
	return nil
}
