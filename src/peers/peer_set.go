package peers

import (
	"sync"
	"time"
)

// PeerSet is the table of peers known to a node. It is safe for concurrent
// use. Accessors return copies, so callers never observe a Peer while it is
// updated.
type PeerSet struct {
	l      sync.RWMutex
	byAddr map[string]*Peer
	order  []*Peer
}

/* Constructors */

// NewPeerSet creates a new PeerSet from a list of Peers. Duplicate addresses
// are ignored.
func NewPeerSet(peers []*Peer) *PeerSet {
	peerSet := &PeerSet{
		byAddr: make(map[string]*Peer),
	}

	for _, peer := range peers {
		peerSet.add(peer)
	}

	return peerSet
}

// add is not protected by the mutex.
func (ps *PeerSet) add(peer *Peer) *Peer {
	if existing, ok := ps.byAddr[peer.NetAddr]; ok {
		return existing
	}
	ps.byAddr[peer.NetAddr] = peer
	ps.order = append(ps.order, peer)
	return peer
}

/* Update Methods */

// Ensure creates the peer at netAddr if it is unknown.
func (ps *PeerSet) Ensure(netAddr string) {
	ps.l.Lock()
	defer ps.l.Unlock()

	ps.add(&Peer{NetAddr: netAddr})
}

// Contact records a datagram received from netAddr at time at, creating the
// peer if needed, and lets update modify its counters.
func (ps *PeerSet) Contact(netAddr string, at time.Time, update func(*Counters)) {
	ps.l.Lock()
	defer ps.l.Unlock()

	peer := ps.add(&Peer{NetAddr: netAddr})
	peer.LastContact = at
	if update != nil {
		update(&peer.Counters)
	}
}

/* Read Methods */

// Get returns a copy of the peer at netAddr.
func (ps *PeerSet) Get(netAddr string) (Peer, bool) {
	ps.l.RLock()
	defer ps.l.RUnlock()

	peer, ok := ps.byAddr[netAddr]
	if !ok {
		return Peer{}, false
	}
	return *peer, true
}

// Peers returns a copy of every peer, in the order they became known.
func (ps *PeerSet) Peers() []*Peer {
	ps.l.RLock()
	defer ps.l.RUnlock()

	res := make([]*Peer, len(ps.order))
	for i, peer := range ps.order {
		cpy := *peer
		res[i] = &cpy
	}
	return res
}

// NetAddrs returns the addresses of every peer, in the order they became
// known.
func (ps *PeerSet) NetAddrs() []string {
	ps.l.RLock()
	defer ps.l.RUnlock()

	res := make([]string, len(ps.order))
	for i, peer := range ps.order {
		res[i] = peer.NetAddr
	}
	return res
}

// Totals returns the sum of the counters of every peer.
func (ps *PeerSet) Totals() Counters {
	ps.l.RLock()
	defer ps.l.RUnlock()

	var total Counters
	for _, peer := range ps.order {
		total = total.Add(peer.Counters)
	}
	return total
}

// Len returns the number of Peers in the PeerSet
func (ps *PeerSet) Len() int {
	ps.l.RLock()
	defer ps.l.RUnlock()

	return len(ps.order)
}
