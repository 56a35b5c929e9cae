// Package store persists bot state in an embedded Badger database.
//
// Two views share one keyspace. The schemaless document layer
// (documents.go) exposes the collection/key contract the rest of the
// system is written against and is deliberately fail-soft: faults are
// logged and collapsed to ok=false or empty results. The typed user layer
// (users.go) reads and writes the same documents as domain.User records,
// validates their shape at the boundary, and reports misses as sentinel
// errors.
package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"

	json "github.com/go-json-experiment/json"
)

// Store wraps a Badger database instance.
type Store struct {
	db       *badger.DB
	logger   *slog.Logger
	validate *validator.Validate
}

// New opens the database at path. The logger may be nil in tests.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Disable Badger's internal logging
	opts.SyncWrites = true // Sync writes to disk to survive crashes

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:       db,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	if logger != nil {
		logger.Info("database opened", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing database")
	}
	return s.db.Close()
}

// RunGC runs one round of Badger value-log garbage collection. Returns
// badger.ErrNoRewrite when there was nothing to reclaim; callers treat
// that as a normal outcome.
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// Helper methods for database operations.

// get retrieves a JSON value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores a value by key as JSON.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// delete removes a key from the database.
func (s *Store) delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// logError records a fault swallowed by the fail-soft document layer.
func (s *Store) logError(op, collection, key string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Error("store operation failed",
		"op", op,
		"collection", collection,
		"key", key,
		"error", err,
	)
}
