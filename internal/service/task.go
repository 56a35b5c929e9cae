package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/membertagger/member-tagger/internal/id"
	"github.com/membertagger/member-tagger/internal/store"
)

// Task service errors.
var (
	// ErrTaskNotFound is returned when a task ID has no live task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrEmptyTask is returned when a task has no content.
	ErrEmptyTask = errors.New("task content is empty")
)

// maxIDAttempts bounds the generate-and-check loop. With a 12-character
// ID space a collision is already vanishingly rare; hitting the bound
// means something is broken, not unlucky.
const maxIDAttempts = 10

// TaskService maintains each user's personal task list.
type TaskService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(st *store.Store, logger *slog.Logger) *TaskService {
	return &TaskService{store: st, logger: logger}
}

// AddTask stores a task for a user and returns its generated ID. The ID
// is checked against the user's used-ID set before it is reserved, and
// reservation and content land in the same write.
func (s *TaskService) AddTask(ctx context.Context, userID, content string) (string, error) {
	if content == "" {
		return "", ErrEmptyTask
	}

	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return "", ErrUserNotRegistered
	}
	if err != nil {
		return "", err
	}

	taskID := ""
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate, err := id.NewTaskID()
		if err != nil {
			return "", err
		}
		if !user.TaskIDUsed(candidate) {
			taskID = candidate
			break
		}
	}
	if taskID == "" {
		return "", fmt.Errorf("could not generate an unused task id after %d attempts", maxIDAttempts)
	}

	user.ReserveTaskID(taskID)
	user.PutTask(taskID, content)
	if err := s.store.PutUser(ctx, user); err != nil {
		return "", err
	}

	s.logger.Info("task added", "user_id", userID, "task_id", taskID)
	return taskID, nil
}

// RemoveTask deletes a task. The ID leaves both the task map and the
// used-ID set in the same write, so it can never be reissued against live
// content.
func (s *TaskService) RemoveTask(ctx context.Context, userID, taskID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrUserNotRegistered
	}
	if err != nil {
		return err
	}

	if !user.DropTask(taskID) {
		return ErrTaskNotFound
	}
	if err := s.store.PutUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info("task removed", "user_id", userID, "task_id", taskID)
	return nil
}

// UpdateTask replaces a live task's content.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID, content string) error {
	if content == "" {
		return ErrEmptyTask
	}

	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrUserNotRegistered
	}
	if err != nil {
		return err
	}

	if _, ok := user.Tasks[taskID]; !ok {
		return ErrTaskNotFound
	}
	user.PutTask(taskID, content)
	return s.store.PutUser(ctx, user)
}

// ListTasks returns a copy of a user's live tasks by ID. Retired IDs are
// bookkeeping and never appear here.
func (s *TaskService) ListTasks(ctx context.Context, userID string) (map[string]string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrUserNotRegistered
	}
	if err != nil {
		return nil, err
	}

	return maps.Clone(user.Tasks), nil
}
