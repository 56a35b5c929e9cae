package store

import "context"

// The notify-channel directory lives in a single document mapping guild
// ID to the channel the scheduler should post into for that guild.
const (
	// NotifyCollection is the collection for notification routing state.
	NotifyCollection = "notify"

	notifyChannelsKey = "channels"
)

// SetNotifyChannel records the notification channel for a guild. The
// directory document is created on first use; afterwards the single guild
// entry is merged via a partial update.
func (s *Store) SetNotifyChannel(ctx context.Context, guildID, channelID string) bool {
	if _, ok := s.Get(ctx, NotifyCollection, notifyChannelsKey); !ok {
		return s.Set(ctx, NotifyCollection, notifyChannelsKey, Document{guildID: channelID})
	}
	return s.Update(ctx, NotifyCollection, notifyChannelsKey, Document{guildID: channelID})
}

// NotifyChannels returns the full guild-to-channel directory. Missing
// directory or store fault both yield an empty map.
func (s *Store) NotifyChannels(ctx context.Context) map[string]string {
	doc, ok := s.Get(ctx, NotifyCollection, notifyChannelsKey)
	if !ok {
		return map[string]string{}
	}

	channels := make(map[string]string, len(doc))
	for guildID, v := range doc {
		if channelID, ok := v.(string); ok && channelID != "" {
			channels[guildID] = channelID
		}
	}
	return channels
}

// NotifyChannel returns the configured channel for one guild.
func (s *Store) NotifyChannel(ctx context.Context, guildID string) (string, bool) {
	channelID, ok := s.NotifyChannels(ctx)[guildID]
	return channelID, ok
}

// DeleteNotifyChannel removes a guild's entry from the directory.
// Removing from an absent directory succeeds, same as deleting an absent
// document.
func (s *Store) DeleteNotifyChannel(ctx context.Context, guildID string) bool {
	doc, ok := s.Get(ctx, NotifyCollection, notifyChannelsKey)
	if !ok {
		return true
	}
	if _, present := doc[guildID]; !present {
		return true
	}
	delete(doc, guildID)
	return s.Set(ctx, NotifyCollection, notifyChannelsKey, doc)
}
