package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/okian/eraquiz/internal/domain/model"
)

const sessionKeyPrefix = "session:"

// BadgerStore persists sessions as JSON values in BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a BadgerDB at dir. An empty dir opens an in-memory database.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for sessions: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func sessionKey(id string) []byte { return []byte(sessionKeyPrefix + id) }

// Get implements Store.
func (b *BadgerStore) Get(ctx context.Context, id string) (model.Session, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}
	var s model.Session
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return item.Value(func(val []byte) error {
			s, err = decode(val)
			return err
		})
	})
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// Put implements Store.
func (b *BadgerStore) Put(ctx context.Context, s model.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(s)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(sessionKey(s.ID), data); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		return nil
	})
}

// Count implements Store by walking the session key prefix.
func (b *BadgerStore) Count(_ context.Context) int {
	n := 0
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n
}

// Close implements Store.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
