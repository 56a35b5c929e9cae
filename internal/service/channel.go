package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/membertagger/member-tagger/internal/store"
)

// ErrChannelWrite is returned when the notify-channel directory could not
// be written; the fail-soft store reports only that the write did not
// land.
var ErrChannelWrite = errors.New("notify channel write failed")

// ChannelService maintains the per-guild notification channel directory
// used by the deadline scheduler.
type ChannelService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewChannelService creates a new channel service.
func NewChannelService(st *store.Store, logger *slog.Logger) *ChannelService {
	return &ChannelService{store: st, logger: logger}
}

// SetChannel routes a guild's notifications to a channel.
func (s *ChannelService) SetChannel(ctx context.Context, guildID, channelID string) error {
	if !s.store.SetNotifyChannel(ctx, guildID, channelID) {
		return ErrChannelWrite
	}
	s.logger.Info("notify channel set", "guild_id", guildID, "channel_id", channelID)
	return nil
}

// Channel returns the configured channel for a guild, if any.
func (s *ChannelService) Channel(ctx context.Context, guildID string) (string, bool) {
	return s.store.NotifyChannel(ctx, guildID)
}

// Channels returns the full guild-to-channel directory.
func (s *ChannelService) Channels(ctx context.Context) map[string]string {
	return s.store.NotifyChannels(ctx)
}

// ClearChannel removes a guild's routing; its notifications fall back to
// the tagged threads themselves.
func (s *ChannelService) ClearChannel(ctx context.Context, guildID string) error {
	if !s.store.DeleteNotifyChannel(ctx, guildID) {
		return ErrChannelWrite
	}
	s.logger.Info("notify channel cleared", "guild_id", guildID)
	return nil
}
