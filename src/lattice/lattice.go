// Package lattice wires the components of a lattice node together.
//
// A Lattice object reads its configuration, loads or creates the node key,
// opens the block store, seeds it with the genesis accounts, binds the UDP
// transport, and starts the node event loop and the optional HTTP service.
package lattice

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"time"

	"github.com/mosaicnetworks/lattice/src/config"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
	"github.com/mosaicnetworks/lattice/src/ledger"
	"github.com/mosaicnetworks/lattice/src/net"
	"github.com/mosaicnetworks/lattice/src/node"
	"github.com/mosaicnetworks/lattice/src/peers"
	"github.com/mosaicnetworks/lattice/src/service"
	"github.com/mosaicnetworks/lattice/src/store"
	"github.com/sirupsen/logrus"
)

// Lattice is a struct containing the key parts of a lattice node
type Lattice struct {
	Config    *config.Config
	Node      *node.Node
	Ledger    *ledger.Ledger
	Transport net.Transport
	Store     store.Store
	Peers     []*peers.Peer
	Service   *service.Service
	logger    *logrus.Entry
}

// NewLattice is a factory method to produce a Lattice instance.
func NewLattice(c *config.Config) *Lattice {
	engine := &Lattice{
		Config: c,
		logger: c.Logger(),
	}

	return engine
}

// Init initialises the lattice engine
func (l *Lattice) Init() error {
	if err := l.initKey(); err != nil {
		l.logger.Error("lattice.go:Init() initKey")
		return err
	}

	if err := l.initPeers(); err != nil {
		l.logger.Error("lattice.go:Init() initPeers")
		return err
	}

	if err := l.initStore(); err != nil {
		l.logger.Error("lattice.go:Init() initStore")
		return err
	}

	if err := l.initLedger(); err != nil {
		l.logger.Error("lattice.go:Init() initLedger")
		l.release()
		return err
	}

	if err := l.initTransport(); err != nil {
		l.logger.Error("lattice.go:Init() initTransport")
		l.release()
		return err
	}

	if err := l.initNode(); err != nil {
		l.logger.Error("lattice.go:Init() initNode")
		l.release()
		return err
	}

	if err := l.initService(); err != nil {
		l.logger.Error("lattice.go:Init() initService")
		l.release()
		return err
	}

	return nil
}

// release closes the transport and the store opened by a failed Init.
func (l *Lattice) release() {
	if l.Transport != nil {
		if err := l.Transport.Close(); err != nil {
			l.logger.WithError(err).Warn("Closing transport")
		}
		l.Transport = nil
	}

	if l.Store != nil {
		if err := l.Store.Close(); err != nil {
			l.logger.WithError(err).Warn("Closing store")
		}
		l.Store = nil
	}
}

// Run starts the HTTP service and the node event loop. It blocks until the
// node shuts down.
func (l *Lattice) Run() {
	if l.Service != nil {
		go l.Service.Serve()
	}

	l.Node.RunAsync()
	l.Node.WaitRoutines()
}

// Shutdown stops the service and the node, which closes the transport and
// the store.
func (l *Lattice) Shutdown() {
	if l.Service != nil {
		if err := l.Service.Shutdown(time.Second); err != nil {
			l.logger.WithError(err).Warn("Stopping service")
		}
	}
	if l.Node != nil {
		l.Node.Shutdown()
	}
}

func (l *Lattice) initKey() error {
	if l.Config.Key == nil {
		simpleKeyfile := keys.NewSimpleKeyfile(l.Config.Keyfile())

		privKey, err := simpleKeyfile.ReadKey()
		if err != nil {
			l.logger.WithError(err).Warn("Cannot read private key from file")

			privKey, err = Keygen(l.Config.Keyfile())
			if err != nil {
				l.logger.WithError(err).Error("Cannot generate a new private key")
				return err
			}

			l.logger.WithField("pub", keys.FromPublicKey(&privKey.PublicKey).Hex()).Info("Created a new key")
		}

		l.Config.Key = privKey
	}

	l.logger = l.logger.WithField("id", keys.FromPublicKey(&l.Config.Key.PublicKey))
	if l.Config.Moniker != "" {
		l.logger = l.logger.WithField("moniker", l.Config.Moniker)
	}

	return nil
}

// initPeers reads peers.json. The file is optional: a node without bootstrap
// peers only learns about the peers that contact it.
func (l *Lattice) initPeers() error {
	peerStore := peers.NewJSONPeers(l.Config.DataDir)

	bootstrap, err := peerStore.Peers()
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.WithField("path", peerStore.Path()).Debug("No peers file")
			return nil
		}
		return err
	}

	l.Peers = bootstrap

	l.logger.WithField("peers", len(bootstrap)).Debug("Loaded peers")

	return nil
}

func (l *Lattice) initStore() error {
	if !l.Config.Store {
		l.Store = store.NewInmemStore()

		l.logger.Debug("created new in-mem store")
	} else {
		l.logger.WithField("path", l.Config.DatabaseDir).Debug("Attempting to load or create database")

		s, err := store.NewBadgerStore(
			l.Config.DatabaseDir,
			l.Config.SyncWrites,
			l.logger.WithField("component", "store"),
		)
		if err != nil {
			return err
		}

		l.Store = s
	}

	return nil
}

func (l *Lattice) initLedger() error {
	l.Ledger = ledger.NewLedger(l.Store, l.logger.WithField("component", "ledger"))

	accounts, err := ReadGenesis(l.Config.GenesisFile())
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		l.logger.Debug("No genesis accounts")
		return nil
	}

	genesis, err := GenesisBlock(accounts)
	if err != nil {
		return err
	}

	return l.Ledger.Seed(genesis)
}

func (l *Lattice) initTransport() error {
	trans, err := net.NewUDPTransport(
		l.Config.BindAddr,
		l.logger.WithField("component", "transport"),
	)
	if err != nil {
		return err
	}

	go trans.Listen()

	l.Transport = trans

	return nil
}

func (l *Lattice) initNode() error {
	conf := node.NewConfig(l.Config.KeepaliveInterval, l.logger.Logger)

	l.Node = node.NewNode(conf, l.Ledger, l.Transport, l.Peers)

	l.logger.WithFields(logrus.Fields{
		"listen": l.Transport.LocalAddr(),
		"peers":  len(l.Peers),
	}).Debug("Initialized node")

	return nil
}

func (l *Lattice) initService() error {
	if !l.Config.NoService {
		l.Service = service.NewService(
			l.Config.ServiceAddr,
			l.Node,
			l.logger.WithField("component", "service"),
		)
	}
	return nil
}

// Keygen generates a new key and writes it to keyfile, unless a key already
// lives there.
func Keygen(keyfile string) (*ecdsa.PrivateKey, error) {
	simpleKeyfile := keys.NewSimpleKeyfile(keyfile)

	if _, err := simpleKeyfile.ReadKey(); err == nil {
		return nil, fmt.Errorf("Another key already lives under %s", keyfile)
	}

	privKey, err := keys.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}

	if err := simpleKeyfile.WriteKey(privKey); err != nil {
		return nil, err
	}

	return privKey, nil
}
