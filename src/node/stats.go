package node

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Stats are the counters of a node that are not attributed to a peer.
type Stats struct {
	// BadSender counts datagrams that claim to come from the node itself.
	BadSender uint64
	// InvalidHeader counts datagrams that are empty or carry an unknown type.
	InvalidHeader uint64
	// InvalidMessage counts typed datagrams, other than PublishReq, that
	// failed to decode.
	InvalidMessage uint64
	// InvalidPublish counts PublishReq datagrams whose block failed to decode.
	InvalidPublish uint64
	// Accepted counts blocks applied to the ledger.
	Accepted uint64
	// Rejected counts blocks refused by the ledger.
	Rejected uint64
	// LedgerErrors counts blocks left unanswered because of a store failure.
	LedgerErrors uint64
	// SendErrors counts datagrams the transport failed to send.
	SendErrors uint64

	InDatagrams  uint64
	InBytes      uint64
	OutDatagrams uint64
	OutBytes     uint64
}

func (n *Node) updateStats(update func(*Stats)) {
	n.statsLock.Lock()
	defer n.statsLock.Unlock()
	update(&n.stats)
}

// Stats returns a copy of the node counters.
func (n *Node) Stats() Stats {
	n.statsLock.Lock()
	defer n.statsLock.Unlock()
	return n.stats
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	stats := n.Stats()
	counters := n.Counters()

	toString := func(i uint64) string {
		return strconv.FormatUint(i, 10)
	}

	s := map[string]string{
		"state":               n.GetState().String(),
		"local_addr":          n.trans.LocalAddr(),
		"uptime":              time.Since(n.start).Round(time.Second).String(),
		"num_peers":           strconv.Itoa(n.peers.Len()),
		"keepalive_req_count": toString(counters.KeepaliveReq),
		"keepalive_ack_count": toString(counters.KeepaliveAck),
		"publish_req_count":   toString(counters.PublishReq),
		"publish_ack_count":   toString(counters.PublishAck),
		"publish_nak_count":   toString(counters.PublishNak),
		"bad_sender":          toString(stats.BadSender),
		"invalid_header":      toString(stats.InvalidHeader),
		"invalid_message":     toString(stats.InvalidMessage),
		"invalid_publish":     toString(stats.InvalidPublish),
		"accepted":            toString(stats.Accepted),
		"rejected":            toString(stats.Rejected),
		"ledger_errors":       toString(stats.LedgerErrors),
		"send_errors":         toString(stats.SendErrors),
		"in_datagrams":        toString(stats.InDatagrams),
		"in_bytes":            toString(stats.InBytes),
		"out_datagrams":       toString(stats.OutDatagrams),
		"out_bytes":           toString(stats.OutBytes),
	}
	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"state":             stats["state"],
		"num_peers":         stats["num_peers"],
		"publish_req_count": stats["publish_req_count"],
		"accepted":          stats["accepted"],
		"rejected":          stats["rejected"],
		"in_datagrams":      stats["in_datagrams"],
		"out_datagrams":     stats["out_datagrams"],
	}).Debug("Stats")
}
