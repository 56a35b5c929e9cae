// Package id generates opaque identifiers for tasks and wizard sessions.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// taskAlphabet keeps task IDs lowercase so they read cleanly in chat
// output and in select-menu values.
const (
	taskAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	taskLength   = 12
)

// NewTaskID generates a task ID. Uniqueness is per user, not global;
// the task ledger checks the owner's used-ID set and retries on collision.
func NewTaskID() (string, error) {
	raw, err := gonanoid.Generate(taskAlphabet, taskLength)
	if err != nil {
		return "", fmt.Errorf("generate task id: %w", err)
	}
	return "task-" + raw, nil
}

// NewSessionID generates an ID for an in-memory wizard session. Default
// NanoID shape (21 chars, URL-safe alphabet).
func NewSessionID() (string, error) {
	raw, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return raw, nil
}
