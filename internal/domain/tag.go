package domain

import "time"

// Tag is a transient association of one or more users with a (guild,
// thread) pair and a deadline. It is never persisted as its own document;
// applying a tag writes one copy into each target user's tag map.
type Tag struct {
	GuildID  string
	ThreadID string
	UserIDs  []string
	Deadline time.Time
}

// DaysUntil returns the number of whole days from now until the tag's
// deadline. Negative values mean the deadline has passed.
func (t Tag) DaysUntil(now time.Time) int {
	return int(t.Deadline.Sub(now).Hours() / 24)
}

// ThreadDeadline is one (thread, deadline) entry in a per-guild tag
// listing.
type ThreadDeadline struct {
	ThreadID string    `json:"thread_id"`
	Deadline time.Time `json:"deadline"`
}
