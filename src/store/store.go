// Package store implements the block stores backing a lattice ledger.
//
// A store files every accepted Block under each of the accounts it touches. It
// answers two queries: the latest block of an account, and the block holding
// a given (account, sequence) entry, used to walk an account chain backwards.
// Block contents are kept once and referenced from every index entry.
//
// InmemStore is the ephemeral mode used in tests and by nodes that do not need
// persistence. BadgerStore persists everything in a Badger database.
package store

import (
	"fmt"

	"github.com/mosaicnetworks/lattice/src/block"
	"github.com/mosaicnetworks/lattice/src/common"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
)

// Store is an interface for backend stores.
type Store interface {
	// Latest returns the most recent block filed under account. It returns a
	// KeyNotFound StoreErr if the account is unknown.
	Latest(account keys.PublicKey) (*block.Block, error)
	// Get returns the block containing the entry (account, sequence).
	Get(account keys.PublicKey, sequence uint64) (*block.Block, error)
	// Insert files b under a single account, which must have an entry in b,
	// and makes it the account's latest block.
	Insert(account keys.PublicKey, b *block.Block) error
	// InsertBlock files b under every account it touches, atomically.
	InsertBlock(b *block.Block) error
	// Close closes the underlying database.
	Close() error
	// StorePath returns the filepath of the underlying database, empty for
	// in-memory stores.
	StorePath() string
}

// entryKey identifies an entry within an account chain.
type entryKey struct {
	account  keys.PublicKey
	sequence uint64
}

func (k entryKey) String() string {
	return fmt.Sprintf("%s_%d", k.account.Hex(), k.sequence)
}

// accountEntry returns the entry of account in b, or a StoreErr if b does not
// touch account.
func accountEntry(account keys.PublicKey, b *block.Block) (block.Entry, error) {
	if b == nil || len(b.Entries) == 0 {
		return block.Entry{}, common.NewStoreErr("Block", common.Empty, account.Hex())
	}
	e, ok := b.EntryFor(account)
	if !ok {
		return block.Entry{}, common.NewStoreErr("Entry", common.KeyNotFound, account.Hex())
	}
	return e, nil
}
