package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTask_GeneratesID(t *testing.T) {
	users, _, tasks, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	taskID, err := tasks.AddTask(ctx, "u1", "write report")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(taskID, "task-"))

	list, err := tasks.ListTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{taskID: "write report"}, list)
}

func TestAddTask_IDsNeverRepeatWithinUser(t *testing.T) {
	users, _, tasks, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		taskID, err := tasks.AddTask(ctx, "u1", "task")
		require.NoError(t, err)
		assert.False(t, seen[taskID])
		seen[taskID] = true
	}

	// IDs stay retired even after their tasks are removed.
	for taskID := range seen {
		require.NoError(t, tasks.RemoveTask(ctx, "u1", taskID))
	}
	taskID, err := tasks.AddTask(ctx, "u1", "one more")
	require.NoError(t, err)
	assert.False(t, seen[taskID])
}

func TestAddTask_Unregistered(t *testing.T) {
	_, _, tasks, _, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := tasks.AddTask(context.Background(), "ghost", "x")
	assert.ErrorIs(t, err, ErrUserNotRegistered)
}

func TestAddTask_EmptyContent(t *testing.T) {
	users, _, tasks, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	_, err := tasks.AddTask(ctx, "u1", "")
	assert.ErrorIs(t, err, ErrEmptyTask)
}

func TestRemoveTask(t *testing.T) {
	users, _, tasks, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	taskID, err := tasks.AddTask(ctx, "u1", "write report")
	require.NoError(t, err)

	require.NoError(t, tasks.RemoveTask(ctx, "u1", taskID))

	list, err := tasks.ListTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	// Gone for good.
	assert.ErrorIs(t, tasks.RemoveTask(ctx, "u1", taskID), ErrTaskNotFound)
}

func TestUpdateTask(t *testing.T) {
	users, _, tasks, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	taskID, err := tasks.AddTask(ctx, "u1", "draft")
	require.NoError(t, err)

	require.NoError(t, tasks.UpdateTask(ctx, "u1", taskID, "final"))

	list, err := tasks.ListTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "final", list[taskID])
}

func TestUpdateTask_Missing(t *testing.T) {
	users, _, tasks, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))

	assert.ErrorIs(t, tasks.UpdateTask(ctx, "u1", "task-missing", "x"), ErrTaskNotFound)
}

func TestListTasks_ReturnsCopy(t *testing.T) {
	users, _, tasks, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, users.RegisterUser(ctx, "u1", "alice"))
	taskID, err := tasks.AddTask(ctx, "u1", "original")
	require.NoError(t, err)

	list, err := tasks.ListTasks(ctx, "u1")
	require.NoError(t, err)
	list[taskID] = "mutated"

	again, err := tasks.ListTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "original", again[taskID])
}
