// Package service implements the bot's business rules over the store:
// the user registry, the tag ledger, the task ledger, and the
// notify-channel directory.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/membertagger/member-tagger/internal/domain"
	"github.com/membertagger/member-tagger/internal/store"
)

// ErrUserNotRegistered is returned when an operation targets a user with
// no record in the registry.
var ErrUserNotRegistered = errors.New("user not registered")

// Member is one observed guild member, as reported by the gateway layer.
type Member struct {
	ID   string
	Name string
}

// UserService maintains the user registry. One record per Discord user,
// created when the user is first observed in a guild.
type UserService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(st *store.Store, logger *slog.Logger) *UserService {
	return &UserService{store: st, logger: logger}
}

// RegisterUser creates a record for a user. Registering an already-known
// user is a no-op; the existing record is left untouched.
func (s *UserService) RegisterUser(ctx context.Context, userID, name string) error {
	known, err := s.store.HasUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if known {
		return nil
	}

	if err := s.store.PutUser(ctx, domain.NewUser(userID, name)); err != nil {
		return err
	}

	s.logger.Info("user registered", "user_id", userID, "name", name)
	return nil
}

// RemoveUser deletes a user's record, cascading over their tags and tasks
// (everything lives on the one document).
func (s *UserService) RemoveUser(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user removed", "user_id", userID)
	return nil
}

// GetUser returns a user's record.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrUserNotRegistered
	}
	return user, err
}

// ListUsers returns every registered user.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}

// SetNotificationEnabled persists a user's notification flag.
func (s *UserService) SetNotificationEnabled(ctx context.Context, userID string, enabled bool) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	user.NotificationEnabled = enabled
	return s.store.PutUser(ctx, user)
}

// ToggleNotification flips a user's notification flag and returns the new
// value. Plain read-modify-write; a user racing themselves gets whichever
// write lands last.
func (s *UserService) ToggleNotification(ctx context.Context, userID string) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	user.NotificationEnabled = !user.NotificationEnabled
	if err := s.store.PutUser(ctx, user); err != nil {
		return false, err
	}

	s.logger.Info("notification toggled", "user_id", userID, "enabled", user.NotificationEnabled)
	return user.NotificationEnabled, nil
}

// SyncMembers reconciles the registry against the currently observed
// member list, registering only members with no record yet. Members who
// have left are not removed here; removal is always explicit. Returns the
// number of users registered.
func (s *UserService) SyncMembers(ctx context.Context, members []Member) (int, error) {
	existing, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("load registry: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, u := range existing {
		known[u.ID] = true
	}

	added := 0
	for _, m := range members {
		if known[m.ID] {
			continue
		}
		if err := s.store.PutUser(ctx, domain.NewUser(m.ID, m.Name)); err != nil {
			return added, fmt.Errorf("register member %s: %w", m.ID, err)
		}
		known[m.ID] = true
		added++
	}

	if added > 0 {
		s.logger.Info("member sync registered new users", "added", added, "observed", len(members))
	}
	return added, nil
}
