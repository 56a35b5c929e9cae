// Package notify walks the tag ledger on a fixed period and posts
// deadline reminders.
package notify

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/membertagger/member-tagger/internal/domain"
	"github.com/membertagger/member-tagger/internal/service"
)

// Notice is one reminder about one thread's deadline, addressed to every
// user sharing that deadline.
type Notice struct {
	GuildID  string
	ThreadID string
	// ChannelID is the guild's configured notify channel; empty means the
	// notice goes to the tagged thread itself.
	ChannelID string
	UserIDs   []string
	Deadline  time.Time
	DaysLeft  int
}

// Messenger delivers notices. Implemented by the gateway layer; a
// delivery failure (unknown guild, deleted thread) is reported as an
// error and the scheduler skips on.
type Messenger interface {
	SendDeadlineNotice(ctx context.Context, notice Notice) error
}

// Config holds scheduler settings.
type Config struct {
	// Period between walks.
	Period time.Duration
	// Location whose midnight anchors the first walk.
	Location *time.Location
	// MessagesPerSecond caps the send rate during a walk.
	MessagesPerSecond float64
}

// Scheduler periodically resolves every user's tagged threads and sends
// one notice per (guild, thread, deadline). There is no delivery state:
// a restart mid-period simply re-anchors to the next midnight, which can
// cost one out-of-cadence walk.
type Scheduler struct {
	users     *service.UserService
	channels  *service.ChannelService
	messenger Messenger
	limiter   *rate.Limiter
	logger    *slog.Logger
	cfg       Config

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a scheduler.
func New(users *service.UserService, channels *service.ChannelService, messenger Messenger, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = 1
	}
	return &Scheduler{
		users:     users,
		channels:  channels,
		messenger: messenger,
		limiter:   rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), 1),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled. The first walk fires at the next
// midnight in the configured location, later walks every Period.
func (s *Scheduler) Run(ctx context.Context) {
	delay := nextMidnight(s.now().In(s.cfg.Location)).Sub(s.now())
	s.logger.Info("notification scheduler armed",
		"first_walk_in", delay.Round(time.Second),
		"period", s.cfg.Period,
	)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return
	}

	s.Walk(ctx)

	ticker := time.NewTicker(s.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Walk(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Walk performs one notification pass and returns the number of notices
// sent. Users with notifications disabled are skipped; undeliverable
// notices are logged and dropped.
func (s *Scheduler) Walk(ctx context.Context) int {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("notification walk could not list users", "error", err)
		return 0
	}

	channels := s.channels.Channels(ctx)
	now := s.now()

	sent := 0
	for _, notice := range collect(users, channels, now) {
		if err := s.limiter.Wait(ctx); err != nil {
			return sent
		}
		if err := s.messenger.SendDeadlineNotice(ctx, notice); err != nil {
			s.logger.Warn("deadline notice not delivered",
				"guild_id", notice.GuildID,
				"thread_id", notice.ThreadID,
				"error", err,
			)
			continue
		}
		sent++
	}

	s.logger.Info("notification walk finished", "users", len(users), "sent", sent)
	return sent
}

// collect groups the ledger into one notice per (guild, thread,
// deadline), listing every notifiable user sharing that deadline.
func collect(users []*domain.User, channels map[string]string, now time.Time) []Notice {
	type key struct {
		guildID  string
		threadID string
		deadline int64
	}

	grouped := make(map[key]*Notice)
	for _, user := range users {
		if !user.NotificationEnabled {
			continue
		}
		for guildID, threads := range user.Tags {
			for threadID, deadline := range threads {
				k := key{guildID, threadID, deadline.Unix()}
				n, ok := grouped[k]
				if !ok {
					n = &Notice{
						GuildID:   guildID,
						ThreadID:  threadID,
						ChannelID: channels[guildID],
						Deadline:  deadline,
						DaysLeft:  domain.Tag{Deadline: deadline}.DaysUntil(now),
					}
					grouped[k] = n
				}
				n.UserIDs = append(n.UserIDs, user.ID)
			}
		}
	}

	notices := make([]Notice, 0, len(grouped))
	for _, n := range grouped {
		sort.Strings(n.UserIDs)
		notices = append(notices, *n)
	}
	sort.Slice(notices, func(i, j int) bool {
		if notices[i].GuildID != notices[j].GuildID {
			return notices[i].GuildID < notices[j].GuildID
		}
		if notices[i].ThreadID != notices[j].ThreadID {
			return notices[i].ThreadID < notices[j].ThreadID
		}
		return notices[i].Deadline.Before(notices[j].Deadline)
	})
	return notices
}

// nextMidnight returns the first midnight after t, in t's location.
func nextMidnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
