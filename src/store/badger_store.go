package store

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	"github.com/mosaicnetworks/lattice/src/block"
	cm "github.com/mosaicnetworks/lattice/src/common"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

const (
	blockPrefix  = "block"
	latestPrefix = "latest"
	entryInfix   = "entry"
)

// BadgerStore persists blocks in a Badger database. Reads go through an
// InmemStore cache first. Writes hit the database before the cache, so the
// cache never holds a block that was not persisted.
type BadgerStore struct {
	inmemStore *InmemStore
	db         *badger.DB
	path       string
	logger     *logrus.Entry
}

// NewBadgerStore opens an existing database or creates a new one if nothing is
// found in path.
func NewBadgerStore(path string, syncWrites bool, logger *logrus.Entry) (*BadgerStore, error) {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.InfoLevel
		logger = logrus.NewEntry(log)
	}

	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path).
		WithSyncWrites(syncWrites).
		WithTruncate(true).
		WithLogger(logger.WithField("ns", "badger"))

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(),
		db:         handle,
		path:       path,
		logger:     logger,
	}

	return store, nil
}

/*******************************************************************************
Keys
*******************************************************************************/

func blockKey(hash block.Hash) []byte {
	return []byte(fmt.Sprintf("%s_%s", blockPrefix, hash.Hex()))
}

func latestKey(account keys.PublicKey) []byte {
	return []byte(fmt.Sprintf("%s_%s", latestPrefix, account.Hex()))
}

func accountEntryKey(account keys.PublicKey, sequence uint64) []byte {
	return []byte(fmt.Sprintf("%s__%s_%020d", account.Hex(), entryInfix, sequence))
}

/*******************************************************************************
Implement the Store interface
*******************************************************************************/

// Latest implements the Store interface.
func (s *BadgerStore) Latest(account keys.PublicKey) (*block.Block, error) {
	//try to get it from cache
	b, err := s.inmemStore.Latest(account)
	//if not in cache, try to get it from db
	if err != nil {
		b, err = s.dbGetIndexed(latestKey(account))
	}
	return b, mapError(err, "Latest", string(latestKey(account)))
}

// Get implements the Store interface.
func (s *BadgerStore) Get(account keys.PublicKey, sequence uint64) (*block.Block, error) {
	b, err := s.inmemStore.Get(account, sequence)
	if err != nil {
		b, err = s.dbGetIndexed(accountEntryKey(account, sequence))
	}
	return b, mapError(err, "Entry", string(accountEntryKey(account, sequence)))
}

// Insert implements the Store interface.
func (s *BadgerStore) Insert(account keys.PublicKey, b *block.Block) error {
	e, err := accountEntry(account, b)
	if err != nil {
		return err
	}

	if err := s.dbInsert(b, []block.Entry{e}); err != nil {
		return err
	}

	return s.inmemStore.Insert(account, b)
}

// InsertBlock implements the Store interface. The block and all its indexes
// are written in a single Badger transaction.
func (s *BadgerStore) InsertBlock(b *block.Block) error {
	if b == nil || len(b.Entries) == 0 {
		return cm.NewStoreErr("Block", cm.Empty, "")
	}

	if err := s.dbInsert(b, b.Entries); err != nil {
		return err
	}

	return s.inmemStore.InsertBlock(b)
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	if err := s.inmemStore.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

// StorePath implements the Store interface.
func (s *BadgerStore) StorePath() string {
	return s.path
}

/*******************************************************************************
DB Methods
*******************************************************************************/

func (s *BadgerStore) dbGetIndexed(key []byte) (*block.Block, error) {
	var blockBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		hashBytes, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		var hash block.Hash
		copy(hash[:], hashBytes)

		blockItem, err := txn.Get(blockKey(hash))
		if err != nil {
			return err
		}
		blockBytes, err = blockItem.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, err
	}

	return unmarshalBlock(blockBytes)
}

func (s *BadgerStore) dbInsert(b *block.Block, entries []block.Entry) error {
	hash := b.Hash()

	val, err := marshalBlock(b)
	if err != nil {
		return err
	}

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	//insert [block_hash] => [block bytes]
	if err := tx.Set(blockKey(hash), val); err != nil {
		return err
	}

	for _, e := range entries {
		eKey := accountEntryKey(e.Account, e.Sequence)

		//check that we are not overwriting another block
		item, err := tx.Get(eKey)
		if err == nil {
			existing, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !bytes.Equal(existing, hash[:]) {
				return cm.NewStoreErr("Entry", cm.KeyAlreadyExists, string(eKey))
			}
		} else if !isDBKeyNotFound(err) {
			return err
		}

		//insert [account_entry_sequence] => [block hash]
		if err := tx.Set(eKey, hash[:]); err != nil {
			return err
		}

		//insert [latest_account] => [block hash]
		if err := tx.Set(latestKey(e.Account), hash[:]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"hash":    hash.String(),
		"entries": len(entries),
	}).Debug("dbInsert")

	return nil
}

/*******************************************************************************
Encoding
*******************************************************************************/

type entryRecord struct {
	Account   []byte
	Balance   uint64
	Sequence  uint64
	Signature []byte
}

type blockRecord struct {
	Entries []entryRecord
}

func marshalBlock(b *block.Block) ([]byte, error) {
	rec := blockRecord{Entries: make([]entryRecord, len(b.Entries))}
	for i := range b.Entries {
		e := &b.Entries[i]
		rec.Entries[i] = entryRecord{
			Account:   e.Account.Bytes(),
			Balance:   e.Balance,
			Sequence:  e.Sequence,
			Signature: append([]byte(nil), e.Signature[:]...),
		}
	}

	var buf bytes.Buffer
	mh := new(codec.MsgpackHandle)
	mh.Canonical = true
	enc := codec.NewEncoder(&buf, mh)

	if err := enc.Encode(rec); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func unmarshalBlock(data []byte) (*block.Block, error) {
	var rec blockRecord

	mh := new(codec.MsgpackHandle)
	mh.Canonical = true
	dec := codec.NewDecoder(bytes.NewReader(data), mh)

	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}

	b := &block.Block{Entries: make([]block.Entry, len(rec.Entries))}
	for i, r := range rec.Entries {
		if len(r.Account) != keys.PublicKeySize || len(r.Signature) != keys.SignatureSize {
			return nil, fmt.Errorf("corrupted block record: entry %d", i)
		}
		copy(b.Entries[i].Account[:], r.Account)
		copy(b.Entries[i].Signature[:], r.Signature)
		b.Entries[i].Balance = r.Balance
		b.Entries[i].Sequence = r.Sequence
	}

	return b, nil
}

/*******************************************************************************
Errors
*******************************************************************************/

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

func mapError(err error, name, key string) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return cm.NewStoreErr(name, cm.KeyNotFound, key)
		}
	}
	return err
}
