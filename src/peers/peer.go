package peers

import (
	"fmt"
	"strings"
	"time"
)

// Counters are the numbers of protocol messages received from a peer.
type Counters struct {
	KeepaliveReq uint64
	KeepaliveAck uint64
	PublishReq   uint64
	PublishAck   uint64
	PublishNak   uint64
}

// Add returns the field-wise sum of c and o.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		KeepaliveReq: c.KeepaliveReq + o.KeepaliveReq,
		KeepaliveAck: c.KeepaliveAck + o.KeepaliveAck,
		PublishReq:   c.PublishReq + o.PublishReq,
		PublishAck:   c.PublishAck + o.PublishAck,
		PublishNak:   c.PublishNak + o.PublishNak,
	}
}

// Peer is a remote node.
type Peer struct {
	NetAddr   string
	PubKeyHex string `json:",omitempty"`
	Moniker   string `json:",omitempty"`

	Counters    Counters  `json:"-"`
	LastContact time.Time `json:"-"`
}

// NewPeer creates a Peer.
func NewPeer(netAddr, pubKeyHex, moniker string) *Peer {
	return &Peer{
		NetAddr:   netAddr,
		PubKeyHex: pubKeyHex,
		Moniker:   moniker,
	}
}

func (p *Peer) String() string {
	if p.Moniker != "" {
		return fmt.Sprintf("%s(%s)", p.Moniker, p.NetAddr)
	}
	return p.NetAddr
}

// ExcludePeer is used to exclude the peers whose address designates the local
// node. It returns the index of the last excluded peer, or -1.
func ExcludePeer(peers []*Peer, isSelf func(netAddr string) bool) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if !isSelf(p.NetAddr) {
			otherPeers = append(otherPeers, p)
		} else {
			index = i
		}
	}
	return index, otherPeers
}

// cleansePeers standardises the public key strings to match the format used
// by the keys package.
func cleansePeers(peers []*Peer) {
	for _, peer := range peers {
		if peer.PubKeyHex == "" {
			continue
		}
		peer.PubKeyHex = "0X" + strings.TrimPrefix(strings.ToUpper(peer.PubKeyHex), "0X")
	}
}
