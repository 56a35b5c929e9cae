package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membertagger/member-tagger/internal/store"
)

// setupTestServices creates the service stack over a temp-dir store.
func setupTestServices(t *testing.T) (*UserService, *TagService, *TaskService, *ChannelService, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "member-tagger-svc-test-*")
	require.NoError(t, err)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cleanup := func() {
		_ = st.Close()           //nolint:errcheck // Test cleanup
		_ = os.RemoveAll(tmpDir) //nolint:errcheck // Test cleanup
	}

	return NewUserService(st, logger),
		NewTagService(st, logger),
		NewTaskService(st, logger),
		NewChannelService(st, logger),
		cleanup
}

func TestRegisterUser_Defaults(t *testing.T) {
	users, _, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	got, err := users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.True(t, got.NotificationEnabled)
	assert.Empty(t, got.Tags)
	assert.Empty(t, got.Tasks)
}

func TestRegisterUser_Idempotent(t *testing.T) {
	users, tags, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	// Give the user some state, then register again.
	_, err := tags.AddTag(ctx, tagFor("g1", "t1", "u1"))
	require.NoError(t, err)

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice-renamed"))

	got, err := users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name, "re-registration must not reset the record")
	assert.Len(t, got.Tags, 1)
}

func TestGetUser_Unregistered(t *testing.T) {
	users, _, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := users.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotRegistered)
}

func TestRemoveUser_CascadesEverything(t *testing.T) {
	users, tags, tasks, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))
	_, err := tags.AddTag(ctx, tagFor("g1", "t1", "u1"))
	require.NoError(t, err)
	_, err = tasks.AddTask(ctx, "u1", "write report")
	require.NoError(t, err)

	require.NoError(t, users.RemoveUser(ctx, "u1"))

	_, err = users.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrUserNotRegistered)
}

func TestToggleNotification_FlipsAndPersists(t *testing.T) {
	users, _, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	// Fresh users default to enabled; first toggle turns it off.
	enabled, err := users.ToggleNotification(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, enabled)

	got, err := users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.NotificationEnabled)

	// Second toggle turns it back on.
	enabled, err = users.ToggleNotification(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestSetNotificationEnabled(t *testing.T) {
	users, _, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))
	require.NoError(t, users.SetNotificationEnabled(ctx, "u1", false))

	got, err := users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.NotificationEnabled)
}

func TestSyncMembers_RegistersOnlyDelta(t *testing.T) {
	users, _, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	added, err := users.SyncMembers(ctx, []Member{
		{ID: "u1", Name: "alice"},
		{ID: "u2", Name: "bob"},
		{ID: "u3", Name: "carol"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	all, err := users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// A second sync with the same roster registers nobody.
	added, err = users.SyncMembers(ctx, []Member{
		{ID: "u1", Name: "alice"},
		{ID: "u2", Name: "bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}

func TestSyncMembers_DoesNotRemoveDeparted(t *testing.T) {
	users, _, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	_, err := users.SyncMembers(ctx, []Member{{ID: "u2", Name: "bob"}})
	require.NoError(t, err)

	// u1 no longer observed but still registered; removal is explicit only.
	_, err = users.GetUser(ctx, "u1")
	assert.NoError(t, err)
}
