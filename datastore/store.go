// Package datastore keeps a queryable index of ledger records. Every record
// carries an 8-byte type discriminator prefix, and queries combine that prefix
// with equality filters at fixed byte offsets, so external indexers can
// enumerate accounts by owner without a separate index per field.
package datastore

import (
	"bytes"
	"errors"
	"sync"

	"github.com/google/btree"

	"code.openwager.io/openwager/libs/crypto"
	"code.openwager.io/openwager/logging"
)

// DiscriminatorLen is the length of the type prefix on every record.
const DiscriminatorLen = 8

var ErrRecordTooShort = errors.New("record data must start with the type discriminator")

// Discriminator derives the fixed 8-byte type prefix for a record type name.
func Discriminator(name string) [DiscriminatorLen]byte {
	var d [DiscriminatorLen]byte
	copy(d[:], crypto.Hash([]byte("record:"+name)))
	return d
}

// Record is one indexed entry. Data always starts with the discriminator, the
// layout behind it is fixed per record type so offset filters line up.
type Record struct {
	Key  string
	Data []byte
}

// Discriminator returns the record's type prefix.
func (r *Record) Discriminator() [DiscriminatorLen]byte {
	var d [DiscriminatorLen]byte
	copy(d[:], r.Data)
	return d
}

// Filter matches records whose data equals Value at the given byte offset.
type Filter struct {
	Offset int
	Value  []byte
}

func (f Filter) matches(data []byte) bool {
	if f.Offset+len(f.Value) > len(data) {
		return false
	}
	return bytes.Equal(data[f.Offset:f.Offset+len(f.Value)], f.Value)
}

// Store is an in-memory record index ordered by (discriminator, key).
type Store struct {
	Config
	log *logging.Logger

	mu   sync.RWMutex
	tree *btree.BTreeG[*Record]
}

func recordLess(a, b *Record) bool {
	ad, bd := a.Data[:DiscriminatorLen], b.Data[:DiscriminatorLen]
	if c := bytes.Compare(ad, bd); c != 0 {
		return c < 0
	}
	return a.Key < b.Key
}

// New instantiates the record store.
func New(log *logging.Logger, config Config) *Store {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Store{
		Config: config,
		log:    log,
		tree:   btree.NewG[*Record](2, recordLess),
	}
}

// ReloadConf updates the internal configuration of the store.
func (s *Store) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}
	s.Config = cfg
}

// Put inserts or replaces the record at (discriminator, key).
func (s *Store) Put(key string, data []byte) error {
	if len(data) < DiscriminatorLen {
		return ErrRecordTooShort
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ReplaceOrInsert(&Record{Key: key, Data: data})
	return nil
}

// Get returns the record stored at (discriminator, key).
func (s *Store) Get(disc [DiscriminatorLen]byte, key string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Get(&Record{Key: key, Data: disc[:]})
}

// Delete removes the record at (discriminator, key), reporting whether it was
// present.
func (s *Store) Delete(disc [DiscriminatorLen]byte, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tree.Delete(&Record{Key: key, Data: disc[:]})
	return ok
}

// List returns all records under the discriminator matching every filter, in
// key order.
func (s *Store) List(disc [DiscriminatorLen]byte, filters ...Filter) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Record{}
	pivot := &Record{Data: disc[:]}
	s.tree.AscendGreaterOrEqual(pivot, func(r *Record) bool {
		if !bytes.Equal(r.Data[:DiscriminatorLen], disc[:]) {
			return false
		}
		for _, f := range filters {
			if !f.matches(r.Data) {
				return true
			}
		}
		out = append(out, r)
		return true
	})
	return out
}

// Len returns the total number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}
