package node

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mosaicnetworks/lattice/src/block"
	"github.com/mosaicnetworks/lattice/src/ledger"
	"github.com/mosaicnetworks/lattice/src/net"
	"github.com/mosaicnetworks/lattice/src/node/state"
	"github.com/mosaicnetworks/lattice/src/peers"
	"github.com/mosaicnetworks/lattice/src/wire"
	"github.com/sirupsen/logrus"
)

// Node defines a lattice node
type Node struct {
	// The node's state is managed by the state manager which also manages its
	// goroutines
	state.Manager

	conf   *Config
	logger *logrus.Entry

	ledger *ledger.Ledger

	trans net.Transport
	netCh <-chan net.Datagram
	self  *net.Endpoint

	peers *peers.PeerSet

	stats     Stats
	statsLock sync.Mutex

	shutdownCh chan struct{}

	start time.Time
}

// NewNode is a factory method that returns a Node instance. bootstrap lists
// the peers that receive keepalives before they ever contact the node.
func NewNode(conf *Config,
	l *ledger.Ledger,
	trans net.Transport,
	bootstrap []*peers.Peer,
) *Node {
	if conf.Logger == nil {
		conf.Logger = DefaultConfig().Logger
	}

	self := net.NewEndpoint(trans.LocalAddr())

	_, others := peers.ExcludePeer(bootstrap, self.Matches)

	node := Node{
		conf:       conf,
		logger:     conf.Logger.WithField("node", trans.LocalAddr()),
		ledger:     l,
		trans:      trans,
		netCh:      trans.Consumer(),
		self:       self,
		peers:      peers.NewPeerSet(others),
		shutdownCh: make(chan struct{}),
		start:      time.Now(),
	}

	return &node
}

// Ledger returns the ledger of the node.
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// LocalAddr returns the address of the node transport.
func (n *Node) LocalAddr() string {
	return n.trans.LocalAddr()
}

/*******************************************************************************
Event loop
*******************************************************************************/

// ProcessNext handles one received datagram. It blocks until a datagram is
// available, the transport is closed, or ctx is done.
func (n *Node) ProcessNext(ctx context.Context) error {
	select {
	case d, ok := <-n.netCh:
		if !ok {
			return net.ErrTransportShutdown
		}
		n.processDatagram(d)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunAsync calls Run as a separate goroutine
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")
	n.GoFunc(n.Run)
}

// Run invokes the main loop of the node. It returns when the node is shut
// down or its transport is closed.
func (n *Node) Run() {
	if !n.CompareAndSetState(state.Initial, state.Running) {
		n.logger.WithField("state", n.GetState()).Debug("Node not runnable")
		return
	}

	var tickCh <-chan time.Time
	if t := n.conf.keepaliveTicker(); t != nil {
		t.Resume()
		defer t.Stop()
		tickCh = t.Ticks()

		n.keepalive()
	}

	for {
		select {
		case d, ok := <-n.netCh:
			if !ok {
				n.logger.Debug("Transport closed")
				return
			}
			n.processDatagram(d)
		case <-tickCh:
			n.keepalive()
			n.logStats()
		case <-n.shutdownCh:
			return
		}
	}
}

// keepalive sends a KeepaliveReq to every known peer.
func (n *Node) keepalive() {
	for _, addr := range n.peers.NetAddrs() {
		if err := n.SendKeepalive(addr); err != nil {
			n.logger.WithFields(logrus.Fields{
				"peer":  addr,
				"error": err,
			}).Debug("Keepalive failed")
		}
	}
}

// Shutdown stops the event loop and closes the transport and the store.
func (n *Node) Shutdown() {
	for {
		current := n.GetState()
		if current == state.Shutdown {
			return
		}
		//Exit any non-shutdown state immediately
		if n.CompareAndSetState(current, state.Shutdown) {
			break
		}
	}

	n.logger.Debug("Shutdown")

	//Stop and wait for concurrent operations
	close(n.shutdownCh)

	n.WaitRoutines()

	//transport and store should only be closed once all concurrent operations
	//are finished otherwise they will panic trying to use close objects
	n.trans.Close()

	if err := n.ledger.Store().Close(); err != nil {
		n.logger.WithError(err).Error("Closing store")
	}
}

/*******************************************************************************
Dispatch
*******************************************************************************/

func (n *Node) processDatagram(d net.Datagram) {
	n.updateStats(func(s *Stats) {
		s.InDatagrams++
		s.InBytes += uint64(len(d.Payload))
	})

	if n.self.Matches(d.From) {
		n.updateStats(func(s *Stats) { s.BadSender++ })
		n.logger.WithField("from", d.From).Debug("Dropping datagram from self")
		return
	}

	msg, err := wire.Decode(d.Payload)
	if err != nil {
		n.processDecodeError(d, err)
		return
	}

	now := time.Now()

	switch m := msg.(type) {
	case *wire.KeepaliveReq:
		n.peers.Contact(d.From, now, func(c *peers.Counters) { c.KeepaliveReq++ })
		n.send(d.From, &wire.KeepaliveAck{})
	case *wire.KeepaliveAck:
		n.peers.Contact(d.From, now, func(c *peers.Counters) { c.KeepaliveAck++ })
	case *wire.PublishReq:
		n.peers.Contact(d.From, now, func(c *peers.Counters) { c.PublishReq++ })
		n.processPublish(d.From, m.Block)
	case *wire.PublishAck:
		n.peers.Contact(d.From, now, func(c *peers.Counters) { c.PublishAck++ })
	case *wire.PublishNak:
		n.peers.Contact(d.From, now, func(c *peers.Counters) { c.PublishNak++ })
	default:
		n.logger.WithField("type", msg.Type()).Error("Unexpected message type")
	}
}

// processDecodeError accounts for a datagram that failed to decode. A
// PublishReq with a malformed block still counts as a request from its
// sender, but it is discarded without a reply.
func (n *Node) processDecodeError(d net.Datagram, err error) {
	logger := n.logger.WithFields(logrus.Fields{
		"from":  d.From,
		"error": err,
	})

	t, herr := wire.DecodeHeader(d.Payload)
	switch {
	case herr != nil:
		n.updateStats(func(s *Stats) { s.InvalidHeader++ })
		logger.Debug("Invalid header")
	case t == wire.TypePublishReq:
		n.peers.Contact(d.From, time.Now(), func(c *peers.Counters) { c.PublishReq++ })
		n.updateStats(func(s *Stats) { s.InvalidPublish++ })
		logger.Debug("Discarding malformed PublishReq")
	default:
		n.updateStats(func(s *Stats) { s.InvalidMessage++ })
		logger.WithField("type", t).Debug("Invalid message")
	}
}

func (n *Node) processPublish(from string, b *block.Block) {
	outcome, err := n.ledger.Process(b)
	if err != nil {
		n.updateStats(func(s *Stats) { s.LedgerErrors++ })
		n.logger.WithFields(logrus.Fields{
			"from":  from,
			"error": err,
		}).Error("Processing block")
		return
	}

	n.logger.WithFields(logrus.Fields{
		"from":    from,
		"hash":    b.Hash(),
		"outcome": outcome,
	}).Debug("Processed block")

	if outcome.Rejected() {
		n.updateStats(func(s *Stats) { s.Rejected++ })
		n.send(from, &wire.PublishNak{})
		return
	}

	n.updateStats(func(s *Stats) { s.Accepted++ })
	n.send(from, &wire.PublishAck{})
}

/*******************************************************************************
Outbound
*******************************************************************************/

// SendKeepalive sends a KeepaliveReq to target.
func (n *Node) SendKeepalive(target string) error {
	return n.sendMessage(target, &wire.KeepaliveReq{})
}

// Publish proposes b to target.
func (n *Node) Publish(target string, b *block.Block) error {
	if b == nil {
		return errors.New("nil block")
	}
	return n.sendMessage(target, &wire.PublishReq{Block: b})
}

// send is used for replies, whose failure is only logged.
func (n *Node) send(target string, msg wire.Message) {
	if err := n.sendMessage(target, msg); err != nil {
		n.logger.WithFields(logrus.Fields{
			"target": target,
			"type":   msg.Type(),
			"error":  err,
		}).Debug("Reply failed")
	}
}

func (n *Node) sendMessage(target string, msg wire.Message) error {
	if n.GetState() == state.Shutdown {
		return net.ErrTransportShutdown
	}

	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}

	if !n.self.Matches(target) {
		n.peers.Ensure(target)
	}

	if err := n.trans.Send(target, data); err != nil {
		n.updateStats(func(s *Stats) { s.SendErrors++ })
		return err
	}

	n.updateStats(func(s *Stats) {
		s.OutDatagrams++
		s.OutBytes += uint64(len(data))
	})

	return nil
}

/*******************************************************************************
Accessors
*******************************************************************************/

// Peers returns a snapshot of the peers known to the node.
func (n *Node) Peers() []*peers.Peer {
	return n.peers.Peers()
}

// Peer returns a snapshot of the peer at addr.
func (n *Node) Peer(addr string) (peers.Peer, bool) {
	return n.peers.Get(addr)
}

// Counters returns the sum of the counters of every peer.
func (n *Node) Counters() peers.Counters {
	return n.peers.Totals()
}

// KeepaliveReqCount returns the number of KeepaliveReq received.
func (n *Node) KeepaliveReqCount() uint64 {
	return n.Counters().KeepaliveReq
}

// KeepaliveAckCount returns the number of KeepaliveAck received.
func (n *Node) KeepaliveAckCount() uint64 {
	return n.Counters().KeepaliveAck
}

// PublishReqCount returns the number of PublishReq received, including the
// ones whose block failed to decode.
func (n *Node) PublishReqCount() uint64 {
	return n.Counters().PublishReq
}

// PublishAckCount returns the number of PublishAck received.
func (n *Node) PublishAckCount() uint64 {
	return n.Counters().PublishAck
}

// PublishNakCount returns the number of PublishNak received.
func (n *Node) PublishNakCount() uint64 {
	return n.Counters().PublishNak
}
