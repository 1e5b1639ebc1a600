package block

import (
	"crypto/ecdsa"
	"testing"

	"github.com/mosaicnetworks/lattice/src/crypto/keys"
)

func newKey(t *testing.T) (keys.PublicKey, *ecdsa.PrivateKey) {
	pub, priv, err := keys.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	return pub, priv
}

func TestHashIgnoresSignatures(t *testing.T) {
	pub1, priv1 := newKey(t)
	pub2, priv2 := newKey(t)

	b := NewBlock(NewEntry(pub1, 100, 200), NewEntry(pub2, 300, 400))
	unsigned := b.Hash()

	if err := b.SignAll(priv1, priv2); err != nil {
		t.Fatal(err)
	}

	if b.Hash() != unsigned {
		t.Fatal("signing should not change the content hash")
	}

	for i, e := range b.Entries {
		if !e.Verify(unsigned) {
			t.Fatalf("entry %d should verify against the content hash", i)
		}
	}
}

func TestHashCoversOrderAndValues(t *testing.T) {
	pub1, _ := newKey(t)
	pub2, _ := newKey(t)

	b := NewBlock(NewEntry(pub1, 100, 0), NewEntry(pub2, 50, 0))

	reordered := NewBlock(b.Entries[1], b.Entries[0])
	if b.Hash() == reordered.Hash() {
		t.Fatal("entry order should be part of the hash")
	}

	balance := b.Copy()
	balance.Entries[0].Balance++
	if b.Hash() == balance.Hash() {
		t.Fatal("balance should be part of the hash")
	}

	seq := b.Copy()
	seq.Entries[1].Sequence++
	if b.Hash() == seq.Hash() {
		t.Fatal("sequence should be part of the hash")
	}
}

func TestEqual(t *testing.T) {
	pub1, priv1 := newKey(t)

	b := NewBlock(NewEntry(pub1, 100, 0))
	c := b.Copy()

	if !b.Equal(c) {
		t.Fatal("copies should be equal")
	}

	if err := b.Sign(0, priv1); err != nil {
		t.Fatal(err)
	}
	if b.Equal(c) {
		t.Fatal("signatures should be part of equality")
	}

	var nilBlock *Block
	if nilBlock.Equal(b) || b.Equal(nil) {
		t.Fatal("nil block should only equal nil")
	}
}

func TestSignErrors(t *testing.T) {
	pub1, priv1 := newKey(t)
	pub2, _ := newKey(t)

	b := NewBlock(NewEntry(pub1, 1, 0), NewEntry(pub2, 1, 0))

	if err := b.Sign(2, priv1); err == nil {
		t.Fatal("out of range index should fail")
	}

	if err := b.SignAll(priv1); err == nil {
		t.Fatal("SignAll should fail when a key is missing")
	}
}

func TestEntryFor(t *testing.T) {
	pub1, _ := newKey(t)
	pub2, _ := newKey(t)
	pub3, _ := newKey(t)

	b := NewBlock(NewEntry(pub1, 10, 3), NewEntry(pub2, 20, 0))

	e, ok := b.EntryFor(pub2)
	if !ok || e.Balance != 20 {
		t.Fatalf("EntryFor(pub2) = %v, %v", e, ok)
	}

	if _, ok := b.EntryFor(pub3); ok {
		t.Fatal("pub3 is not in the block")
	}

	accounts := b.Accounts()
	if len(accounts) != 2 || accounts[0] != pub1 || accounts[1] != pub2 {
		t.Fatalf("unexpected accounts %v", accounts)
	}
}
