package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelService_SetAndGet(t *testing.T) {
	_, _, _, channels, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, channels.SetChannel(ctx, "g1", "c1"))

	channelID, ok := channels.Channel(ctx, "g1")
	require.True(t, ok)
	assert.Equal(t, "c1", channelID)
}

func TestChannelService_Reroute(t *testing.T) {
	_, _, _, channels, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, channels.SetChannel(ctx, "g1", "c1"))
	require.NoError(t, channels.SetChannel(ctx, "g1", "c2"))

	channelID, _ := channels.Channel(ctx, "g1")
	assert.Equal(t, "c2", channelID)
}

func TestChannelService_Clear(t *testing.T) {
	_, _, _, channels, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, channels.SetChannel(ctx, "g1", "c1"))
	require.NoError(t, channels.ClearChannel(ctx, "g1"))

	_, ok := channels.Channel(ctx, "g1")
	assert.False(t, ok)
}

func TestChannelService_ClearNeverConfigured(t *testing.T) {
	_, _, _, channels, cleanup := setupTestServices(t)
	defer cleanup()

	// Clearing a guild that never had a channel set is a silent no-op,
	// even before the directory document exists.
	require.NoError(t, channels.ClearChannel(context.Background(), "g1"))
}

func TestChannelService_MissingGuild(t *testing.T) {
	_, _, _, channels, cleanup := setupTestServices(t)
	defer cleanup()

	_, ok := channels.Channel(context.Background(), "g1")
	assert.False(t, ok)
	assert.Empty(t, channels.Channels(context.Background()))
}
