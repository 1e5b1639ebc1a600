// Package ledger decides whether a Block may join the lattice and applies the
// accepted ones to a Store.
//
// A Block is accepted when every entry is signed by its account over the block
// content hash, every entry directly follows the latest known sequence of its
// account (or opens the account with sequence 0), no account appears twice,
// and the block does not create value.
//
// Conservation compares each entry with the latest balance of its account,
// zero for an account without a record. The sum of increases must not exceed
// the sum of decreases; the surplus is an implicit fee that leaves the ledger.
package ledger

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/mosaicnetworks/lattice/src/block"
	"github.com/mosaicnetworks/lattice/src/common"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
	"github.com/mosaicnetworks/lattice/src/store"
	"github.com/sirupsen/logrus"
)

// Ledger validates and applies blocks against a Store. Process serializes
// validate-then-apply so conflicting blocks cannot both be accepted.
type Ledger struct {
	store store.Store

	mu sync.Mutex

	logger *logrus.Entry
}

// NewLedger creates a Ledger on top of s.
func NewLedger(s store.Store, logger *logrus.Entry) *Ledger {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Ledger{
		store:  s,
		logger: logger,
	}
}

// Store returns the underlying Store.
func (l *Ledger) Store() store.Store {
	return l.store
}

// prior is the latest known state of an account.
type prior struct {
	known    bool
	balance  uint64
	sequence uint64
}

func (l *Ledger) prior(account keys.PublicKey) (prior, error) {
	latest, err := l.store.Latest(account)
	if err != nil {
		if common.IsStore(err, common.KeyNotFound) {
			return prior{}, nil
		}
		return prior{}, fmt.Errorf("reading latest block of %s: %w", account, err)
	}

	e, ok := latest.EntryFor(account)
	if !ok {
		return prior{}, fmt.Errorf("latest block %s has no entry for %s", latest.Hash(), account)
	}

	return prior{known: true, balance: e.Balance, sequence: e.Sequence}, nil
}

// Validate checks b against the current state of the store. The error is only
// set when the store could not be read, in which case the Outcome is
// meaningless.
func (l *Ledger) Validate(b *block.Block) (Outcome, error) {
	outcome, _, err := l.validate(b)
	return outcome, err
}

// validate also returns the fee of an accepted block: the sum of balance
// decreases minus the sum of increases.
func (l *Ledger) validate(b *block.Block) (Outcome, uint64, error) {
	if b == nil || len(b.Entries) == 0 {
		return EmptyBlock, 0, nil
	}

	seen := make(map[keys.PublicKey]struct{}, len(b.Entries))
	for _, e := range b.Entries {
		if _, ok := seen[e.Account]; ok {
			return DuplicateAccountInBlock, 0, nil
		}
		seen[e.Account] = struct{}{}
	}

	hash := b.Hash()

	var inc, dec uint64
	var overflow bool

	for i := range b.Entries {
		e := &b.Entries[i]

		if !e.Verify(hash) {
			return BadSignature, 0, nil
		}

		p, err := l.prior(e.Account)
		if err != nil {
			return Accepted, 0, err
		}

		switch {
		case !p.known && e.Sequence != 0:
			return UnknownAccountNotOpen, 0, nil
		case p.known && (p.sequence == ^uint64(0) || e.Sequence != p.sequence+1):
			return SequenceMismatch, 0, nil
		}

		var carry uint64
		if e.Balance >= p.balance {
			inc, carry = bits.Add64(inc, e.Balance-p.balance, 0)
		} else {
			dec, carry = bits.Add64(dec, p.balance-e.Balance, 0)
		}
		overflow = overflow || carry != 0
	}

	if overflow || inc > dec {
		return UnconservedBalance, 0, nil
	}

	return Accepted, dec - inc, nil
}

// Apply files b under every account it touches in a single store write. It
// must only be called with a block that Validate accepted.
func (l *Ledger) Apply(b *block.Block) error {
	if err := l.store.InsertBlock(b); err != nil {
		return fmt.Errorf("applying block %s: %w", b.Hash(), err)
	}
	return nil
}

// Process validates b and applies it if it is accepted. Accepted is never
// returned unless the store write succeeded.
func (l *Ledger) Process(b *block.Block) (Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	outcome, fee, err := l.validate(b)
	if err != nil {
		return outcome, err
	}

	if outcome.Rejected() {
		l.logger.WithField("outcome", outcome).Debug("Block rejected")
		return outcome, nil
	}

	if err := l.Apply(b); err != nil {
		return outcome, err
	}

	l.logger.WithFields(logrus.Fields{
		"hash":    b.Hash(),
		"entries": len(b.Entries),
		"fee":     fee,
	}).Debug("Block applied")

	return Accepted, nil
}

// Seed files genesis without validating it. Every entry of genesis must open
// its account with sequence 0; signatures are not checked. Seeding a store that
// already holds genesis is a no-op, and seeding over a different history fails
// with a KeyAlreadyExists StoreErr.
func (l *Ledger) Seed(genesis *block.Block) error {
	if genesis == nil || len(genesis.Entries) == 0 {
		return common.NewStoreErr("Genesis", common.Empty, "")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	hash := genesis.Hash()
	seeded := true

	for _, e := range genesis.Entries {
		if e.Sequence != 0 {
			return fmt.Errorf("genesis entry of %s has sequence %d", e.Account, e.Sequence)
		}

		existing, err := l.store.Get(e.Account, 0)
		switch {
		case common.IsStore(err, common.KeyNotFound):
			seeded = false
		case err != nil:
			return err
		case existing.Hash() != hash:
			return common.NewStoreErr("Genesis", common.KeyAlreadyExists, e.Account.Hex())
		}
	}

	if seeded {
		l.logger.WithField("hash", hash).Debug("Genesis already seeded")
		return nil
	}

	if err := l.store.InsertBlock(genesis); err != nil {
		return fmt.Errorf("seeding genesis %s: %w", hash, err)
	}

	l.logger.WithFields(logrus.Fields{
		"hash":     hash,
		"accounts": len(genesis.Entries),
	}).Debug("Seeded genesis")

	return nil
}

// AccountState is the latest state of an account.
type AccountState struct {
	Balance  uint64
	Sequence uint64
	// Block is the hash of the block holding the latest entry.
	Block block.Hash
}

// Account returns the latest state of account. It returns a KeyNotFound
// StoreErr if the account has no record.
func (l *Ledger) Account(account keys.PublicKey) (AccountState, error) {
	latest, err := l.store.Latest(account)
	if err != nil {
		return AccountState{}, err
	}

	e, ok := latest.EntryFor(account)
	if !ok {
		return AccountState{}, common.NewStoreErr("Entry", common.KeyNotFound, account.Hex())
	}

	return AccountState{
		Balance:  e.Balance,
		Sequence: e.Sequence,
		Block:    latest.Hash(),
	}, nil
}
