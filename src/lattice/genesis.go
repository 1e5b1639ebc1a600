package lattice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/mosaicnetworks/lattice/src/block"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
)

// GenesisAccount is an account that exists before any block is published.
type GenesisAccount struct {
	PubKeyHex string
	Balance   uint64
}

// ReadGenesis reads the list of genesis accounts from a JSON file. A missing
// file yields no accounts.
func ReadGenesis(path string) ([]GenesisAccount, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	if len(buf) == 0 {
		return nil, nil
	}

	var accounts []GenesisAccount
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&accounts); err != nil {
		return nil, err
	}

	return accounts, nil
}

// GenesisBlock builds the unsigned block opening every genesis account. Every
// node must be given the same accounts in the same order to agree on it.
func GenesisBlock(accounts []GenesisAccount) (*block.Block, error) {
	entries := make([]block.Entry, 0, len(accounts))
	seen := make(map[keys.PublicKey]bool, len(accounts))

	for _, a := range accounts {
		pub, err := keys.PublicKeyFromHex(a.PubKeyHex)
		if err != nil {
			return nil, fmt.Errorf("genesis account %s: %w", a.PubKeyHex, err)
		}
		if seen[pub] {
			return nil, fmt.Errorf("genesis account %s listed twice", a.PubKeyHex)
		}
		seen[pub] = true

		entries = append(entries, block.NewEntry(pub, a.Balance, 0))
	}

	return block.NewBlock(entries...), nil
}
