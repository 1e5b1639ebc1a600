// Package block defines the units of the block-lattice: Entries and the Blocks
// that group them.
//
// Every account owns a chain of entries. An Entry records the account's new
// balance and the next value of its sequence counter. A Block is an atomic,
// ordered set of entries touching distinct accounts, all signed over the same
// content hash. Paired send/receive updates are expressed as one Block.
package block

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/mosaicnetworks/lattice/src/common"
	"github.com/mosaicnetworks/lattice/src/crypto"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
)

// HashSize is the size of a block content hash.
const HashSize = crypto.HashSize

// Hash is the content hash of a Block.
type Hash [HashSize]byte

// Hex returns the hexadecimal representation of the hash.
func (h Hash) Hex() string {
	return common.EncodeToString(h[:])
}

// String implements fmt.Stringer with a shortened form.
func (h Hash) String() string {
	return common.ShortHex(h[:])
}

// Entry is one account's participation in a Block.
type Entry struct {
	Account   keys.PublicKey
	Balance   uint64
	Sequence  uint64
	Signature keys.Signature
}

// NewEntry creates an unsigned Entry.
func NewEntry(account keys.PublicKey, balance, sequence uint64) Entry {
	return Entry{
		Account:  account,
		Balance:  balance,
		Sequence: sequence,
	}
}

// Verify checks the entry's signature against a block content hash.
func (e *Entry) Verify(hash Hash) bool {
	return keys.VerifyHash(e.Account, hash[:], e.Signature)
}

// String ...
func (e Entry) String() string {
	return fmt.Sprintf("{%s balance=%d seq=%d}", e.Account, e.Balance, e.Sequence)
}

// Block is an ordered list of entries. Order is part of the content hash.
type Block struct {
	Entries []Entry
}

// NewBlock creates a Block from a list of entries.
func NewBlock(entries ...Entry) *Block {
	return &Block{
		Entries: entries,
	}
}

// Hash computes the content hash: BLAKE2b-256 over the ordered (account,
// balance, sequence) triples. Signatures are excluded, the hash is what every
// entry signs.
func (b *Block) Hash() Hash {
	buf := make([]byte, 0, len(b.Entries)*(keys.PublicKeySize+16))
	for _, e := range b.Entries {
		buf = append(buf, e.Account[:]...)
		buf = binary.BigEndian.AppendUint64(buf, e.Balance)
		buf = binary.BigEndian.AppendUint64(buf, e.Sequence)
	}
	return Hash(crypto.Blake2b256(buf))
}

// Sign signs the block's content hash with priv and stores the signature in
// the entry at index i.
func (b *Block) Sign(i int, priv *ecdsa.PrivateKey) error {
	if i < 0 || i >= len(b.Entries) {
		return fmt.Errorf("entry index %d out of range [0, %d)", i, len(b.Entries))
	}

	hash := b.Hash()

	sig, err := keys.SignHash(priv, hash[:])
	if err != nil {
		return err
	}

	b.Entries[i].Signature = sig

	return nil
}

// SignAll signs every entry with the key whose public key matches the entry's
// account. It fails if a key is missing.
func (b *Block) SignAll(privs ...*ecdsa.PrivateKey) error {
	byAccount := make(map[keys.PublicKey]*ecdsa.PrivateKey, len(privs))
	for _, p := range privs {
		byAccount[keys.FromPublicKey(&p.PublicKey)] = p
	}

	for i, e := range b.Entries {
		priv, ok := byAccount[e.Account]
		if !ok {
			return fmt.Errorf("no key for account %s", e.Account)
		}
		if err := b.Sign(i, priv); err != nil {
			return err
		}
	}

	return nil
}

// EntryFor returns the entry of the given account, if any.
func (b *Block) EntryFor(account keys.PublicKey) (Entry, bool) {
	for _, e := range b.Entries {
		if e.Account == account {
			return e, true
		}
	}
	return Entry{}, false
}

// Accounts returns the accounts touched by the block, in entry order.
func (b *Block) Accounts() []keys.PublicKey {
	res := make([]keys.PublicKey, len(b.Entries))
	for i, e := range b.Entries {
		res[i] = e.Account
	}
	return res
}

// Equal reports structural equality: same entries, same order, same
// signatures.
func (b *Block) Equal(other *Block) bool {
	if b == nil || other == nil {
		return b == other
	}
	if len(b.Entries) != len(other.Entries) {
		return false
	}
	for i := range b.Entries {
		if b.Entries[i] != other.Entries[i] {
			return false
		}
	}
	return true
}

// Copy returns a deep copy of the block.
func (b *Block) Copy() *Block {
	entries := make([]Entry, len(b.Entries))
	copy(entries, b.Entries)
	return &Block{Entries: entries}
}
