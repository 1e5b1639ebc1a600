package node

import (
	"context"
	"crypto/ecdsa"
	stdnet "net"
	"testing"
	"time"

	"github.com/mosaicnetworks/lattice/src/block"
	"github.com/mosaicnetworks/lattice/src/common"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
	"github.com/mosaicnetworks/lattice/src/ledger"
	"github.com/mosaicnetworks/lattice/src/net"
	"github.com/mosaicnetworks/lattice/src/node/state"
	"github.com/mosaicnetworks/lattice/src/peers"
	"github.com/mosaicnetworks/lattice/src/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type account struct {
	pub  keys.PublicKey
	priv *ecdsa.PrivateKey
}

func newAccount(t *testing.T) account {
	pub, priv, err := keys.GenerateKeyPair()
	require.NoError(t, err)
	return account{pub, priv}
}

func newTestNode(t *testing.T, trans net.Transport, conf *Config, bootstrap []*peers.Peer) *Node {
	l := ledger.NewLedger(store.NewInmemStore(), common.NewTestEntry(t, common.TestLogLevel))
	return NewNode(conf, l, trans, bootstrap)
}

// initNodes creates two nodes connected by in-memory transports.
func initNodes(t *testing.T) (*Node, *Node) {
	_, transA := net.NewInmemTransport("")
	_, transB := net.NewInmemTransport("")
	net.ConnectAll(transA, transB)

	a := newTestNode(t, transA, TestConfig(t), nil)
	b := newTestNode(t, transB, TestConfig(t), nil)

	t.Cleanup(func() {
		a.Shutdown()
		b.Shutdown()
	})

	return a, b
}

// step makes n handle exactly one datagram.
func step(t *testing.T, n *Node) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, n.ProcessNext(ctx))
}

// idle checks that nothing is waiting in the queue of n.
func idle(t *testing.T, n *Node) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, n.ProcessNext(ctx), context.DeadlineExceeded)
}

func seedGenesis(t *testing.T, k1 account, nodes ...*Node) *block.Block {
	genesis := block.NewBlock(block.NewEntry(k1.pub, 100, 0))
	require.NoError(t, genesis.Sign(0, k1.priv))
	for _, n := range nodes {
		require.NoError(t, n.Ledger().Store().Insert(k1.pub, genesis))
	}
	return genesis
}

func TestKeepalive(t *testing.T) {
	a, b := initNodes(t)

	require.NoError(t, a.SendKeepalive(b.LocalAddr()))

	step(t, b)
	require.Equal(t, uint64(1), b.KeepaliveReqCount())

	step(t, a)
	require.Equal(t, uint64(1), a.KeepaliveAckCount())

	idle(t, a)
	idle(t, b)

	// counters are attributed to the sender
	peerA, ok := b.Peer(a.LocalAddr())
	require.True(t, ok)
	require.Equal(t, uint64(1), peerA.Counters.KeepaliveReq)
	require.False(t, peerA.LastContact.IsZero())
}

func TestPublishInvalidPoint(t *testing.T) {
	a, b := initNodes(t)

	// an all-zero account is not a curve point
	blk := block.NewBlock(block.Entry{Balance: 10})
	require.NoError(t, a.Publish(b.LocalAddr(), blk))

	step(t, b)
	require.Equal(t, uint64(1), b.PublishReqCount())
	require.Equal(t, uint64(1), b.Stats().InvalidPublish)

	// silently discarded
	idle(t, a)
	require.Equal(t, uint64(0), a.PublishNakCount())
	require.Equal(t, uint64(0), a.PublishAckCount())
	require.Equal(t, uint64(0), b.Stats().OutDatagrams)
}

func TestPublishUnknownAccount(t *testing.T) {
	a, b := initNodes(t)
	k := newAccount(t)

	// continuation of an account B never heard of
	blk := block.NewBlock(block.NewEntry(k.pub, 0, 1))
	require.NoError(t, blk.Sign(0, k.priv))
	require.NoError(t, a.Publish(b.LocalAddr(), blk))

	step(t, b)
	require.Equal(t, uint64(1), b.PublishReqCount())
	require.Equal(t, uint64(1), b.Stats().Rejected)

	step(t, a)
	require.Equal(t, uint64(1), a.PublishNakCount())
	require.Equal(t, uint64(0), a.PublishAckCount())
}

func TestPublishUnfundedOpen(t *testing.T) {
	a, b := initNodes(t)
	k := newAccount(t)

	blk := block.NewBlock(block.NewEntry(k.pub, 10, 0))
	require.NoError(t, blk.Sign(0, k.priv))
	require.NoError(t, a.Publish(b.LocalAddr(), blk))

	step(t, b)
	step(t, a)
	require.Equal(t, uint64(1), b.PublishReqCount())
	require.Equal(t, uint64(1), a.PublishNakCount())

	_, err := b.Ledger().Store().Latest(k.pub)
	require.True(t, common.IsStore(err, common.KeyNotFound))
}

func TestPublishValid(t *testing.T) {
	a, b := initNodes(t)
	k1 := newAccount(t)
	k2 := newAccount(t)

	genesis := seedGenesis(t, k1, a, b)

	blk := block.NewBlock(block.NewEntry(k2.pub, 50, 0), block.NewEntry(k1.pub, 49, 1))
	require.NoError(t, blk.SignAll(k2.priv, k1.priv))
	require.NoError(t, a.Publish(b.LocalAddr(), blk))

	step(t, b)
	require.Equal(t, uint64(1), b.PublishReqCount())

	step(t, a)
	require.Equal(t, uint64(1), a.PublishAckCount())
	require.Equal(t, uint64(0), a.PublishNakCount())

	for _, k := range []account{k1, k2} {
		latest, err := b.Ledger().Store().Latest(k.pub)
		require.NoError(t, err)
		require.True(t, blk.Equal(latest))
	}

	// publishing does not apply the block locally
	latest, err := a.Ledger().Store().Latest(k1.pub)
	require.NoError(t, err)
	require.True(t, genesis.Equal(latest))

	// a second delivery fails continuity
	require.NoError(t, a.Publish(b.LocalAddr(), blk))
	step(t, b)
	step(t, a)
	require.Equal(t, uint64(2), b.PublishReqCount())
	require.Equal(t, uint64(1), a.PublishAckCount())
	require.Equal(t, uint64(1), a.PublishNakCount())
}

func TestDropSelfSender(t *testing.T) {
	_, trans := net.NewInmemTransport("")
	trans.Connect(trans.LocalAddr(), trans)

	n := newTestNode(t, trans, TestConfig(t), nil)
	defer n.Shutdown()

	require.NoError(t, n.SendKeepalive(n.LocalAddr()))

	step(t, n)
	require.Equal(t, uint64(1), n.Stats().BadSender)
	require.Equal(t, uint64(0), n.KeepaliveReqCount())
	idle(t, n)
}

func TestDropSelfSenderWildcardBind(t *testing.T) {
	defer goleak.VerifyNone(t)

	trans, err := net.NewUDPTransport("0.0.0.0:0", common.NewTestEntry(t, common.TestLogLevel))
	require.NoError(t, err)
	go trans.Listen()

	_, port, err := stdnet.SplitHostPort(trans.LocalAddr())
	require.NoError(t, err)
	loopback := stdnet.JoinHostPort("127.0.0.1", port)

	bootstrap := []*peers.Peer{peers.NewPeer(loopback, "", "self")}

	n := newTestNode(t, trans, TestConfig(t), bootstrap)
	defer n.Shutdown()

	// the loopback form of the bound address is the node itself
	require.Equal(t, 0, len(n.Peers()))

	require.NoError(t, n.SendKeepalive(loopback))

	step(t, n)
	require.Equal(t, uint64(1), n.Stats().BadSender)
	require.Equal(t, uint64(0), n.KeepaliveReqCount())
	require.Equal(t, 0, len(n.Peers()))
}

func TestInvalidDatagrams(t *testing.T) {
	a, b := initNodes(t)

	_, raw := net.NewInmemTransport("")
	defer raw.Close()
	raw.Connect(b.LocalAddr(), b.trans)

	datagrams := [][]byte{
		{},           // empty
		{9},          // unknown type
		{0, 0},       // keepalive with trailing byte
		{2, 0},       // publish with truncated count
		{2, 0, 0, 7}, // publish with trailing bytes
	}
	for _, d := range datagrams {
		require.NoError(t, raw.Send(b.LocalAddr(), d))
		step(t, b)
	}

	stats := b.Stats()
	require.Equal(t, uint64(2), stats.InvalidHeader)
	require.Equal(t, uint64(1), stats.InvalidMessage)
	require.Equal(t, uint64(2), stats.InvalidPublish)
	require.Equal(t, uint64(5), stats.InDatagrams)
	require.Equal(t, uint64(2), b.PublishReqCount())
	require.Equal(t, uint64(0), stats.OutDatagrams)

	idle(t, a)
}

func TestGetStats(t *testing.T) {
	a, b := initNodes(t)

	require.NoError(t, a.SendKeepalive(b.LocalAddr()))
	step(t, b)

	stats := b.GetStats()
	require.Equal(t, "1", stats["keepalive_req_count"])
	require.Equal(t, "1", stats["num_peers"])
	require.Equal(t, "1", stats["out_datagrams"])
	require.Equal(t, state.Initial.String(), stats["state"])
}

type testTicker struct {
	ch chan time.Time
}

func (t *testTicker) Ticks() <-chan time.Time { return t.ch }
func (t *testTicker) Resume()                 {}
func (t *testTicker) Pause()                  {}
func (t *testTicker) Stop()                   {}

func TestRunKeepalive(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, transA := net.NewInmemTransport("")
	_, transB := net.NewInmemTransport("")
	net.ConnectAll(transA, transB)

	tick := &testTicker{ch: make(chan time.Time)}

	confA := TestConfig(t)
	confA.Ticker = tick

	bootstrap := []*peers.Peer{
		peers.NewPeer(transB.LocalAddr(), "", "b"),
		peers.NewPeer(transA.LocalAddr(), "", "a"),
	}

	a := newTestNode(t, transA, confA, bootstrap)
	b := newTestNode(t, transB, TestConfig(t), nil)

	// a does not keep itself alive
	require.Equal(t, 1, len(a.Peers()))

	a.RunAsync()

	// first round when the loop starts
	step(t, b)
	require.Equal(t, uint64(1), b.KeepaliveReqCount())

	tick.ch <- time.Now()

	step(t, b)
	require.Equal(t, uint64(2), b.KeepaliveReqCount())

	require.Eventually(t, func() bool {
		return a.KeepaliveAckCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, state.Running, a.GetState())

	a.Shutdown()
	b.Shutdown()

	require.Equal(t, state.Shutdown, a.GetState())
	require.ErrorIs(t, a.SendKeepalive(b.LocalAddr()), net.ErrTransportShutdown)

	// Run is a no-op once shut down
	a.Run()
}

func TestPublishUDP(t *testing.T) {
	defer goleak.VerifyNone(t)

	transA, err := net.NewUDPTransport("127.0.0.1:0", common.NewTestEntry(t, common.TestLogLevel))
	require.NoError(t, err)
	transB, err := net.NewUDPTransport("127.0.0.1:0", common.NewTestEntry(t, common.TestLogLevel))
	require.NoError(t, err)

	go transA.Listen()
	go transB.Listen()

	a := newTestNode(t, transA, TestConfig(t), nil)
	b := newTestNode(t, transB, TestConfig(t), nil)
	defer a.Shutdown()
	defer b.Shutdown()

	k1 := newAccount(t)
	k2 := newAccount(t)
	seedGenesis(t, k1, a, b)

	require.NoError(t, a.SendKeepalive(b.LocalAddr()))
	step(t, b)
	step(t, a)
	require.Equal(t, uint64(1), b.KeepaliveReqCount())
	require.Equal(t, uint64(1), a.KeepaliveAckCount())

	blk := block.NewBlock(block.NewEntry(k2.pub, 50, 0), block.NewEntry(k1.pub, 49, 1))
	require.NoError(t, blk.SignAll(k2.priv, k1.priv))
	require.NoError(t, a.Publish(b.LocalAddr(), blk))

	step(t, b)
	step(t, a)
	require.Equal(t, uint64(1), b.PublishReqCount())
	require.Equal(t, uint64(1), a.PublishAckCount())

	state, err := b.Ledger().Account(k2.pub)
	require.NoError(t, err)
	require.Equal(t, uint64(50), state.Balance)
	require.Equal(t, uint64(0), state.Sequence)
}
