// Package service exposes read-only information about a lattice node over
// HTTP, as JSON: node statistics, known peers, account balances and stored
// blocks.
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mosaicnetworks/lattice/src/block"
	"github.com/mosaicnetworks/lattice/src/common"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
	"github.com/mosaicnetworks/lattice/src/node"
	"github.com/mosaicnetworks/lattice/src/peers"
	"github.com/sirupsen/logrus"
)

// Service serves the HTTP API of a node.
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	mux         *http.ServeMux
	server      *http.Server
	logger      *logrus.Entry
}

// NewService creates a Service for n. Handlers are registered on a dedicated
// ServeMux, so several services can coexist in the same process.
func NewService(bindAddress string, n *node.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	service.server = &http.Server{
		Addr:    bindAddress,
		Handler: service.mux,
	}

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering lattice API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/peers", s.makeHandler(s.GetPeers))
	s.mux.HandleFunc("/account/", s.makeHandler(s.GetAccount))
	s.mux.HandleFunc("/block/", s.makeHandler(s.GetBlock))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the http.Handler serving the API.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving lattice API")

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error(err)
	}
}

// Shutdown stops the server, waiting at most timeout for pending requests.
func (s *Service) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// GetStats returns the statistics of the node.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// PeerInfo is the JSON view of a peer and its counters.
type PeerInfo struct {
	NetAddr     string
	PubKeyHex   string `json:",omitempty"`
	Moniker     string `json:",omitempty"`
	Counters    peers.Counters
	LastContact *time.Time `json:",omitempty"`
}

// GetPeers returns the peers known to the node.
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	res := []PeerInfo{}
	for _, p := range s.node.Peers() {
		info := PeerInfo{
			NetAddr:   p.NetAddr,
			PubKeyHex: p.PubKeyHex,
			Moniker:   p.Moniker,
			Counters:  p.Counters,
		}
		if !p.LastContact.IsZero() {
			lc := p.LastContact
			info.LastContact = &lc
		}
		res = append(res, info)
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(res)
}

// AccountInfo is the JSON view of the latest state of an account.
type AccountInfo struct {
	Account  string
	Balance  uint64
	Sequence uint64
	Block    string
}

// GetAccount returns the latest balance and sequence of the account whose
// public key is in the path: /account/{hex}
func (s *Service) GetAccount(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Path[len("/account/"):]

	account, err := keys.PublicKeyFromHex(param)
	if err != nil {
		s.logger.WithError(err).Debugf("Parsing account parameter %s", param)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := s.node.Ledger().Account(account)
	if err != nil {
		s.storeError(w, err, "Retrieving account %s", account)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(AccountInfo{
		Account:  account.Hex(),
		Balance:  state.Balance,
		Sequence: state.Sequence,
		Block:    state.Block.Hex(),
	})
}

// BlockInfo is the JSON view of a stored block.
type BlockInfo struct {
	Hash    string
	Entries []EntryInfo
}

// EntryInfo is the JSON view of an entry.
type EntryInfo struct {
	Account   string
	Balance   uint64
	Sequence  uint64
	Signature string
}

func newBlockInfo(b *block.Block) BlockInfo {
	info := BlockInfo{
		Hash:    b.Hash().Hex(),
		Entries: make([]EntryInfo, len(b.Entries)),
	}
	for i, e := range b.Entries {
		info.Entries[i] = EntryInfo{
			Account:   e.Account.Hex(),
			Balance:   e.Balance,
			Sequence:  e.Sequence,
			Signature: common.EncodeToString(e.Signature[:]),
		}
	}
	return info
}

// GetBlock returns the block holding an entry of an account: /block/{hex}/{sequence}
func (s *Service) GetBlock(w http.ResponseWriter, r *http.Request) {
	params := strings.Split(r.URL.Path[len("/block/"):], "/")
	if len(params) != 2 {
		http.Error(w, "expected /block/{account}/{sequence}", http.StatusBadRequest)
		return
	}

	account, err := keys.PublicKeyFromHex(params[0])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sequence, err := strconv.ParseUint(params[1], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := s.node.Ledger().Store().Get(account, sequence)
	if err != nil {
		s.storeError(w, err, "Retrieving block %s/%d", account, sequence)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(newBlockInfo(b))
}

func (s *Service) storeError(w http.ResponseWriter, err error, format string, args ...interface{}) {
	if common.IsStore(err, common.KeyNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.WithError(err).Errorf(format, args...)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
