// Package badger implements a Badger-backed product record cache for
// deployments that prefer a single database file tree over per-record JSON
// files.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

const keyPrefix = "product:"

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// New opens (or creates) the Badger database at path.
func New(path string, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty for a batch job
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger db: %w", err)
	}
	return nil
}

// Get returns the cached raw record for id.
func (s *Store) Get(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context canceled: %w", err)
	}
	key, err := entryKey(id)
	if err != nil {
		return nil, false, err
	}

	var data []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry %s: %w", id, err)
	}
	return data, true, nil
}

// Put writes the raw record for id.
func (s *Store) Put(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	key, err := entryKey(id)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("write cache entry %s: %w", id, err)
	}
	return nil
}

func entryKey(id string) ([]byte, error) {
	clean := catalog.NormalizeID(id)
	if clean == "" {
		return nil, fmt.Errorf("cache id is required")
	}
	return []byte(keyPrefix + clean), nil
}
