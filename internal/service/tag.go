package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/membertagger/member-tagger/internal/domain"
	"github.com/membertagger/member-tagger/internal/store"
)

// Tag service errors.
var (
	// ErrNoTargetUsers is returned when a tag names no users at all.
	ErrNoTargetUsers = errors.New("tag has no target users")
)

// TagService maintains the tag ledger: which users are tagged to which
// threads, with what deadline. Tags are stored denormalized, one copy per
// tagged user, so multi-user operations are per-user read-modify-writes
// with no atomicity across users. A failure partway through leaves the
// users processed so far tagged; callers get the list of applied users
// back and must treat partial application as a real outcome.
type TagService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(st *store.Store, logger *slog.Logger) *TagService {
	return &TagService{store: st, logger: logger}
}

// AddTag tags every listed user to (guild, thread) with the given
// deadline. Re-tagging an already-tagged pair overwrites the deadline
// (last write wins). Unregistered users are skipped. Returns the user IDs
// actually tagged.
func (s *TagService) AddTag(ctx context.Context, tag domain.Tag) ([]string, error) {
	if len(tag.UserIDs) == 0 {
		return nil, ErrNoTargetUsers
	}

	applied := make([]string, 0, len(tag.UserIDs))
	for _, userID := range tag.UserIDs {
		user, err := s.store.GetUser(ctx, userID)
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Warn("skipping unregistered user in tag", "user_id", userID)
			continue
		}
		if err != nil {
			return applied, err
		}

		user.SetDeadline(tag.GuildID, tag.ThreadID, tag.Deadline)
		if err := s.store.PutUser(ctx, user); err != nil {
			return applied, err
		}
		applied = append(applied, userID)
	}

	s.logger.Info("tag added",
		"guild_id", tag.GuildID,
		"thread_id", tag.ThreadID,
		"deadline", tag.Deadline,
		"users", len(applied),
	)
	return applied, nil
}

// RemoveTag untags every listed user from (guild, thread). Users who were
// never tagged to the pair are skipped silently. When the removed thread
// was a user's last one under that guild, the guild key is pruned from
// their ledger in the same write. Returns the user IDs actually untagged.
func (s *TagService) RemoveTag(ctx context.Context, guildID, threadID string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoTargetUsers
	}

	removed := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		user, err := s.store.GetUser(ctx, userID)
		if errors.Is(err, store.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}

		if !user.ClearDeadline(guildID, threadID) {
			continue
		}
		if err := s.store.PutUser(ctx, user); err != nil {
			return removed, err
		}
		removed = append(removed, userID)
	}

	s.logger.Info("tag removed",
		"guild_id", guildID,
		"thread_id", threadID,
		"users", len(removed),
	)
	return removed, nil
}

// ClearGuild drops every tag a user holds under one guild, leaving the
// rest of the record alone. Used when a member leaves a server; their
// tags elsewhere and their tasks survive. Returns the number of thread
// tags dropped.
func (s *TagService) ClearGuild(ctx context.Context, userID, guildID string) (int, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return 0, ErrUserNotRegistered
	}
	if err != nil {
		return 0, err
	}

	dropped := len(user.Tags[guildID])
	if dropped == 0 {
		return 0, nil
	}
	delete(user.Tags, guildID)
	if err := s.store.PutUser(ctx, user); err != nil {
		return 0, err
	}

	s.logger.Info("guild tags cleared", "user_id", userID, "guild_id", guildID, "dropped", dropped)
	return dropped, nil
}

// TagsForUser returns a user's full tag ledger, guild by guild.
func (s *TagService) TagsForUser(ctx context.Context, userID string) (domain.TagMap, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrUserNotRegistered
	}
	if err != nil {
		return nil, err
	}
	return user.Tags, nil
}

// ThreadsForUser returns a user's tags as a per-guild list of (thread,
// deadline) pairs, deadlines in UTC.
func (s *TagService) ThreadsForUser(ctx context.Context, userID string) (map[string][]domain.ThreadDeadline, error) {
	tags, err := s.TagsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	threads := make(map[string][]domain.ThreadDeadline, len(tags))
	for guildID, byThread := range tags {
		entries := make([]domain.ThreadDeadline, 0, len(byThread))
		for threadID, deadline := range byThread {
			entries = append(entries, domain.ThreadDeadline{ThreadID: threadID, Deadline: deadline})
		}
		threads[guildID] = entries
	}
	return threads, nil
}

// UsersForThread returns the IDs of every user tagged to (guild, thread).
// One full-collection fetch with client-side filtering; the registry is
// small enough that fewer round trips beat per-user lookups.
func (s *TagService) UsersForThread(ctx context.Context, guildID, threadID string) ([]string, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	var userIDs []string
	for _, user := range users {
		if user.TaggedTo(guildID, threadID) {
			userIDs = append(userIDs, user.ID)
		}
	}
	return userIDs, nil
}

// Deadline returns the deadline one user has for (guild, thread).
func (s *TagService) Deadline(ctx context.Context, userID, guildID, threadID string) (time.Time, bool, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return time.Time{}, false, ErrUserNotRegistered
	}
	if err != nil {
		return time.Time{}, false, err
	}

	d, ok := user.Deadline(guildID, threadID)
	return d, ok, nil
}
