package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	json "github.com/go-json-experiment/json"
)

// Document is a schemaless view of one stored record.
type Document map[string]any

// Keys are collection-prefixed: "users:186353391411855360". Collection
// names never contain the separator.
const keySeparator = ":"

func docKey(collection, key string) []byte {
	return []byte(collection + keySeparator + key)
}

// Get returns one document. The second return value distinguishes an
// absent document from a present-but-empty one; a store fault is logged
// and reported as absent.
func (s *Store) Get(ctx context.Context, collection, key string) (Document, bool) {
	if err := ctx.Err(); err != nil {
		return nil, false
	}

	var doc Document
	err := s.get(docKey(collection, key), &doc)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		s.logError("get", collection, key, err)
		return nil, false
	}
	return doc, true
}

// List returns every document in a collection. Malformed entries are
// skipped; a store fault yields an empty list.
func (s *Store) List(ctx context.Context, collection string) []Document {
	if err := ctx.Err(); err != nil {
		return nil
	}

	prefix := []byte(collection + keySeparator)
	var docs []Document

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var doc Document
				if unmarshalErr := json.Unmarshal(val, &doc); unmarshalErr != nil {
					return nil //nolint:nilerr // intentionally skip malformed entries
				}
				docs = append(docs, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logError("list", collection, "", err)
		return nil
	}

	return docs
}

// Set writes a document wholesale, creating or replacing it.
func (s *Store) Set(ctx context.Context, collection, key string, doc Document) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	if err := s.set(docKey(collection, key), doc); err != nil {
		s.logError("set", collection, key, err)
		return false
	}
	return true
}

// Update merges partial into an existing document at its top-level keys.
// Updating an absent document fails; callers create documents with Set.
func (s *Store) Update(ctx context.Context, collection, key string, partial Document) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	k := docKey(collection, key)
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}

		var doc Document
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		}); err != nil {
			return err
		}

		for field, value := range partial {
			doc[field] = value
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		return txn.Set(k, data)
	})
	if err != nil {
		s.logError("update", collection, key, err)
		return false
	}
	return true
}

// Delete removes one document. Deleting an absent document succeeds.
func (s *Store) Delete(ctx context.Context, collection, key string) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	if err := s.delete(docKey(collection, key)); err != nil {
		s.logError("delete", collection, key, err)
		return false
	}
	return true
}

// DeleteCollection removes every document in a collection in pages of
// batchSize, looping until a pass deletes fewer than batchSize entries.
func (s *Store) DeleteCollection(ctx context.Context, collection string, batchSize int) {
	if batchSize <= 0 {
		batchSize = 10
	}
	prefix := []byte(collection + keySeparator)

	for {
		if err := ctx.Err(); err != nil {
			return
		}

		deleted := 0
		err := s.db.Update(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix) && deleted < batchSize; it.Next() {
				if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
					return err
				}
				deleted++
			}
			return nil
		})
		if err != nil {
			s.logError("delete_collection", collection, "", err)
			return
		}

		if deleted < batchSize {
			return
		}
	}
}

// Count returns the number of documents in a collection.
func (s *Store) Count(ctx context.Context, collection string) int {
	if err := ctx.Err(); err != nil {
		return 0
	}

	prefix := []byte(collection + keySeparator)
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		s.logError("count", collection, "", err)
		return 0
	}

	return count
}
