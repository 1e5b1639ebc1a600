package store

import (
	"sync"

	"github.com/mosaicnetworks/lattice/src/block"
	"github.com/mosaicnetworks/lattice/src/common"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
)

// InmemStore implements the Store interface with maps. Nothing survives the
// process, which makes it the ephemeral mode of the ledger.
type InmemStore struct {
	sync.RWMutex

	blocks  map[block.Hash]*block.Block   //content hash => Block
	latest  map[keys.PublicKey]block.Hash //account => content hash
	entries map[entryKey]block.Hash       //(account, sequence) => content hash
	closed  bool
}

// NewInmemStore creates an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		blocks:  make(map[block.Hash]*block.Block),
		latest:  make(map[keys.PublicKey]block.Hash),
		entries: make(map[entryKey]block.Hash),
	}
}

// Latest implements the Store interface.
func (s *InmemStore) Latest(account keys.PublicKey) (*block.Block, error) {
	s.RLock()
	defer s.RUnlock()

	hash, ok := s.latest[account]
	if !ok {
		return nil, common.NewStoreErr("Latest", common.KeyNotFound, account.Hex())
	}
	return s.blocks[hash], nil
}

// Get implements the Store interface.
func (s *InmemStore) Get(account keys.PublicKey, sequence uint64) (*block.Block, error) {
	s.RLock()
	defer s.RUnlock()

	key := entryKey{account, sequence}
	hash, ok := s.entries[key]
	if !ok {
		return nil, common.NewStoreErr("Entry", common.KeyNotFound, key.String())
	}
	return s.blocks[hash], nil
}

// Insert implements the Store interface.
func (s *InmemStore) Insert(account keys.PublicKey, b *block.Block) error {
	e, err := accountEntry(account, b)
	if err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if s.closed {
		return common.NewStoreErr("Store", common.Closed, "")
	}

	hash := b.Hash()
	if err := s.checkEntry(e, hash); err != nil {
		return err
	}
	s.file(e, hash, b)

	return nil
}

// InsertBlock implements the Store interface. All entries are checked before
// any index is touched, so a failed insert leaves the store unchanged.
func (s *InmemStore) InsertBlock(b *block.Block) error {
	if b == nil || len(b.Entries) == 0 {
		return common.NewStoreErr("Block", common.Empty, "")
	}

	s.Lock()
	defer s.Unlock()

	if s.closed {
		return common.NewStoreErr("Store", common.Closed, "")
	}

	hash := b.Hash()
	for _, e := range b.Entries {
		if err := s.checkEntry(e, hash); err != nil {
			return err
		}
	}
	for _, e := range b.Entries {
		s.file(e, hash, b)
	}

	return nil
}

func (s *InmemStore) checkEntry(e block.Entry, hash block.Hash) error {
	key := entryKey{e.Account, e.Sequence}
	if existing, ok := s.entries[key]; ok && existing != hash {
		return common.NewStoreErr("Entry", common.KeyAlreadyExists, key.String())
	}
	return nil
}

func (s *InmemStore) file(e block.Entry, hash block.Hash, b *block.Block) {
	s.blocks[hash] = b
	s.entries[entryKey{e.Account, e.Sequence}] = hash
	s.latest[e.Account] = hash
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	s.Lock()
	defer s.Unlock()
	s.closed = true
	return nil
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}
