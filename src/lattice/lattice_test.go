package lattice

import (
	"crypto/ecdsa"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/mosaicnetworks/lattice/src/block"
	"github.com/mosaicnetworks/lattice/src/common"
	"github.com/mosaicnetworks/lattice/src/config"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
	"github.com/stretchr/testify/require"
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

func writeGenesis(t *testing.T, dir string, accounts ...GenesisAccount) {
	content := "["
	for i, a := range accounts {
		if i > 0 {
			content += ","
		}
		content += fmt.Sprintf(`{"PubKeyHex":%q,"Balance":%d}`, a.PubKeyHex, a.Balance)
	}
	content += "]"
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, config.DefaultGenesisFile), []byte(content), 0644))
}

func newTestConfig(t *testing.T, dir string, persist bool) *config.Config {
	conf := config.NewTestConfig(t, common.TestLogLevel)
	conf.SetDataDir(dir)
	conf.BindAddr = "127.0.0.1:0"
	conf.ServiceAddr = "127.0.0.1:0"
	conf.KeepaliveInterval = 20 * time.Millisecond
	conf.Store = persist
	conf.SyncWrites = false
	return conf
}

func TestLattice(t *testing.T) {
	k1 := newAccount(t)
	k2 := newAccount(t)

	dirA := t.TempDir()
	dirB := t.TempDir()

	genesis := GenesisAccount{PubKeyHex: k1.pub.Hex(), Balance: 100}
	writeGenesis(t, dirA, genesis)
	writeGenesis(t, dirB, genesis)

	a := NewLattice(newTestConfig(t, dirA, false))
	require.NoError(t, a.Init())

	confB := newTestConfig(t, dirB, true)
	confB.NoService = true
	b := NewLattice(confB)
	require.NoError(t, b.Init())
	require.Nil(t, b.Service)

	// keys were generated and saved
	_, err := keys.NewSimpleKeyfile(filepath.Join(dirA, config.DefaultKeyfile)).ReadKey()
	require.NoError(t, err)

	go a.Run()
	go b.Run()

	blk := block.NewBlock(block.NewEntry(k2.pub, 50, 0), block.NewEntry(k1.pub, 49, 1))
	require.NoError(t, blk.SignAll(k2.priv, k1.priv))
	require.NoError(t, a.Node.Publish(b.Transport.LocalAddr(), blk))

	require.Eventually(t, func() bool {
		return a.Node.PublishAckCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	// b learned about a and keeps it alive
	require.Eventually(t, func() bool {
		return b.Node.KeepaliveAckCount() > 0
	}, 5*time.Second, 10*time.Millisecond)

	a.Shutdown()
	b.Shutdown()

	// the block survives a restart of b
	confB2 := newTestConfig(t, dirB, true)
	confB2.NoService = true
	b2 := NewLattice(confB2)
	require.NoError(t, b2.Init())
	defer b2.Shutdown()

	state, err := b2.Ledger.Account(k1.pub)
	require.NoError(t, err)
	require.Equal(t, uint64(49), state.Balance)
	require.Equal(t, uint64(1), state.Sequence)
	require.Equal(t, blk.Hash(), state.Block)

	state, err = b2.Ledger.Account(k2.pub)
	require.NoError(t, err)
	require.Equal(t, uint64(50), state.Balance)

	latest, err := b2.Store.Latest(k1.pub)
	require.NoError(t, err)
	require.True(t, blk.Equal(latest))
}

func TestInitFailureReleasesStore(t *testing.T) {
	dir := t.TempDir()

	// the UDP socket cannot be bound
	conf := newTestConfig(t, dir, true)
	conf.NoService = true
	conf.BindAddr = "127.0.0.1:99999"

	l := NewLattice(conf)
	require.Error(t, l.Init())
	require.Nil(t, l.Store)
	require.Nil(t, l.Transport)

	// the genesis file is malformed
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, config.DefaultGenesisFile), []byte("not json"), 0644))

	conf = newTestConfig(t, dir, true)
	conf.NoService = true

	l = NewLattice(conf)
	require.Error(t, l.Init())
	require.Nil(t, l.Store)

	// the database lock was released both times
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, config.DefaultGenesisFile), []byte("[]"), 0644))

	conf = newTestConfig(t, dir, true)
	conf.NoService = true

	l = NewLattice(conf)
	require.NoError(t, l.Init())
	l.Shutdown()
}

func TestKeygen(t *testing.T) {
	keyfile := filepath.Join(t.TempDir(), "sub", config.DefaultKeyfile)

	key, err := Keygen(keyfile)
	require.NoError(t, err)

	read, err := keys.NewSimpleKeyfile(keyfile).ReadKey()
	require.NoError(t, err)
	require.Equal(t, key.D, read.D)

	_, err = Keygen(keyfile)
	require.Error(t, err)
}

func TestGenesis(t *testing.T) {
	dir := t.TempDir()

	accounts, err := ReadGenesis(filepath.Join(dir, config.DefaultGenesisFile))
	require.NoError(t, err)
	require.Empty(t, accounts)

	k1 := newAccount(t)
	k2 := newAccount(t)
	writeGenesis(t, dir,
		GenesisAccount{PubKeyHex: k1.pub.Hex(), Balance: 10},
		GenesisAccount{PubKeyHex: k2.pub.Hex(), Balance: 20},
	)

	accounts, err = ReadGenesis(filepath.Join(dir, config.DefaultGenesisFile))
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	b, err := GenesisBlock(accounts)
	require.NoError(t, err)
	require.Len(t, b.Entries, 2)
	require.Equal(t, k2.pub, b.Entries[1].Account)
	require.Equal(t, uint64(20), b.Entries[1].Balance)

	_, err = GenesisBlock(append(accounts, accounts[0]))
	require.Error(t, err)

	_, err = GenesisBlock([]GenesisAccount{{PubKeyHex: "0x04FF"}})
	require.Error(t, err)
}
