package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const badgerMaxRetries = 8

// BadgerStore keeps sessions in an embedded badger database. Update relies on badger's
// serializable transactions for conflict detection.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore opens (or creates) a database under dir. An empty dir opens an
// in-memory database.
func NewBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

func badgerKey(id string) []byte { return []byte("session/" + id) }

func readSession(txn *badger.Txn, id string) (*Session, error) {
	item, err := txn.Get(badgerKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := &Session{}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	}); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return out, nil
}

func (s *BadgerStore) Load(_ context.Context, id string) (*Session, error) {
	var out *Session
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = readSession(txn, id)
		return err
	})
	return out, err
}

func (s *BadgerStore) Update(ctx context.Context, id string, fn UpdateFunc) (*Session, error) {
	for attempt := 0; attempt < badgerMaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var result *Session
		err := s.db.Update(func(txn *badger.Txn) error {
			cur, err := readSession(txn, id)
			if err != nil {
				return err
			}
			next, err := fn(cur.Clone())
			if err != nil {
				return err
			}
			if next == nil {
				result = cur
				return nil
			}
			data, err := json.Marshal(next)
			if err != nil {
				return err
			}
			e := badger.NewEntry(badgerKey(id), data)
			if s.ttl > 0 {
				e = e.WithTTL(s.ttl)
			}
			if err := txn.SetEntry(e); err != nil {
				return err
			}
			result = next
			return nil
		})
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return nil, err
		}
	}
	return nil, ErrConflict
}

func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
