package net

import (
	"bytes"
	"testing"
	"time"

	"github.com/mosaicnetworks/lattice/src/common"
	"go.uber.org/goleak"
)

const (
	INMEM = iota
	UDP
	numTestTransports // NOTE: must be last
)

func NewTestTransport(ttype int, addr string, t *testing.T) Transport {
	switch ttype {
	case INMEM:
		_, it := NewInmemTransport(addr)
		return it
	case UDP:
		ut, err := NewUDPTransport(addr, common.NewTestEntry(t, common.TestLogLevel))
		if err != nil {
			t.Fatal(err)
		}
		go ut.Listen()
		return ut
	default:
		panic("Unknown transport type")
	}
}

func receive(t *testing.T, trans Transport) Datagram {
	select {
	case d, ok := <-trans.Consumer():
		if !ok {
			t.Fatal("consumer closed")
		}
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timeout")
	}
	return Datagram{}
}

func TestTransport_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans := NewTestTransport(ttype, "127.0.0.1:0", t)
		if err := trans.Close(); err != nil {
			t.Fatalf("err: %v", err)
		}
		// closing twice is harmless
		if err := trans.Close(); err != nil {
			t.Fatalf("err: %v", err)
		}
		if err := trans.Send("127.0.0.1:1", []byte{0}); err != ErrTransportShutdown {
			t.Fatalf("Send after Close should fail with ErrTransportShutdown, not %v", err)
		}
	}
}

func TestTransport_SendReceive(t *testing.T) {
	defer goleak.VerifyNone(t)

	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans1 := NewTestTransport(ttype, "127.0.0.1:0", t)
		trans2 := NewTestTransport(ttype, "127.0.0.1:0", t)

		if ttype == INMEM {
			ConnectAll(trans1.(*InmemTransport), trans2.(*InmemTransport))
		}

		payload := []byte{2, 0, 1, 4, 5, 6}
		if err := trans2.Send(trans1.LocalAddr(), payload); err != nil {
			t.Fatalf("err: %v", err)
		}

		d := receive(t, trans1)
		if !bytes.Equal(d.Payload, payload) {
			t.Fatalf("payload mismatch: %v %v", d.Payload, payload)
		}
		if d.From != trans2.LocalAddr() {
			t.Fatalf("From should be %s, not %s", trans2.LocalAddr(), d.From)
		}

		// reply to the sender endpoint
		if err := trans1.Send(d.From, []byte{1}); err != nil {
			t.Fatalf("err: %v", err)
		}
		if r := receive(t, trans2); !bytes.Equal(r.Payload, []byte{1}) {
			t.Fatalf("reply mismatch: %v", r.Payload)
		}

		trans1.Close()
		trans2.Close()
	}
}

func TestTransport_ConsumerClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans := NewTestTransport(ttype, "127.0.0.1:0", t)
		trans.Close()

		select {
		case _, ok := <-trans.Consumer():
			if ok {
				t.Fatal("no datagram expected")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("consumer should be closed")
		}
	}
}

func TestInmemTransport_Routing(t *testing.T) {
	_, trans1 := NewInmemTransport("")
	_, trans2 := NewInmemTransport("")
	defer trans1.Close()
	defer trans2.Close()

	if err := trans1.Send(trans2.LocalAddr(), []byte{0}); err == nil {
		t.Fatal("Send to an unknown peer should fail")
	}

	trans1.Connect(trans2.LocalAddr(), trans2)

	payload := []byte{0, 1}
	if err := trans1.Send(trans2.LocalAddr(), payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	// the transport keeps its own copy
	payload[0] = 9
	if d := receive(t, trans2); d.Payload[0] != 0 {
		t.Fatalf("payload should have been copied, got %v", d.Payload)
	}

	trans1.Disconnect(trans2.LocalAddr())
	if err := trans1.Send(trans2.LocalAddr(), []byte{0}); err == nil {
		t.Fatal("Send after Disconnect should fail")
	}
}

func TestInmemTransport_QueueFull(t *testing.T) {
	_, trans1 := NewInmemTransport("")
	_, trans2 := NewInmemTransport("")
	defer trans1.Close()
	defer trans2.Close()

	ConnectAll(trans1, trans2)

	for i := 0; i < DefaultQueueSize; i++ {
		if err := trans1.Send(trans2.LocalAddr(), []byte{byte(i)}); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	if err := trans1.Send(trans2.LocalAddr(), []byte{0}); err != ErrQueueFull {
		t.Fatalf("Send should fail with ErrQueueFull, not %v", err)
	}

	// datagrams are delivered in order
	for i := 0; i < DefaultQueueSize; i++ {
		if d := receive(t, trans2); d.Payload[0] != byte(i) {
			t.Fatalf("datagram %d out of order: %v", i, d.Payload)
		}
	}
}
