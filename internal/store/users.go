package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	json "github.com/go-json-experiment/json"

	"github.com/membertagger/member-tagger/internal/domain"
)

// UsersCollection is the collection holding one document per Discord user.
const UsersCollection = "users"

// PutUser writes a user record wholesale, creating or replacing it.
// This is the validated write path: a record whose shape is wrong (empty
// ID, nil ledger maps) is rejected with ErrInvalidRecord before anything
// touches the store.
func (s *Store) PutUser(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.validate.Struct(user); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if err := s.set(docKey(UsersCollection, user.ID), user); err != nil {
		s.logError("put_user", UsersCollection, user.ID, err)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// GetUser retrieves a user record by Discord user ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user domain.User
	err := s.get(docKey(UsersCollection, userID), &user)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.Normalize()
	return &user, nil
}

// DeleteUser removes a user record. Missing records are a no-op.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.delete(docKey(UsersCollection, userID)); err != nil {
		s.logError("delete_user", UsersCollection, userID, err)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// ListUsers returns every user record. Malformed documents are skipped.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(UsersCollection + keySeparator)
	var users []*domain.User

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user domain.User
				if unmarshalErr := json.Unmarshal(val, &user); unmarshalErr != nil {
					return nil //nolint:nilerr // intentionally skip malformed entries
				}
				user.Normalize()
				users = append(users, &user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

// HasUser reports whether a user record exists.
func (s *Store) HasUser(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists(docKey(UsersCollection, userID))
}
