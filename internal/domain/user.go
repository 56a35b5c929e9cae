package domain

import "time"

// TagMap is the nested tag ledger carried on each user record:
// guild ID -> thread ID -> deadline. Guild and thread IDs are snowflakes
// kept as opaque strings; they are never parsed as numbers.
type TagMap map[string]map[string]time.Time

// User is one document in the users collection, keyed by the Discord
// user ID. Tags and tasks are denormalized onto the user record, so every
// tagging operation is a read-modify-write of the whole document.
type User struct {
	ID                  string            `json:"id" validate:"required"`
	Name                string            `json:"name"`
	NotificationEnabled bool              `json:"notification_enabled"`
	Tags                TagMap            `json:"tags" validate:"required"`
	Tasks               map[string]string `json:"tasks" validate:"required"`

	// UsedTaskIDs holds the IDs of the user's live tasks; removal retires
	// an ID from here and from Tasks in the same write. Task ID generation
	// checks it to avoid issuing a duplicate.
	UsedTaskIDs []string `json:"used_task_ids"`
}

// NewUser returns a freshly registered user with notifications on and
// empty ledgers.
func NewUser(id, name string) *User {
	return &User{
		ID:                  id,
		Name:                name,
		NotificationEnabled: true,
		Tags:                TagMap{},
		Tasks:               map[string]string{},
	}
}

// SetDeadline records a deadline for (guild, thread), creating the guild
// entry if this is the first thread tagged under it. Re-tagging the same
// pair overwrites the previous deadline (last write wins). The deadline is
// normalized to UTC before it is stored.
func (u *User) SetDeadline(guildID, threadID string, deadline time.Time) {
	if u.Tags == nil {
		u.Tags = TagMap{}
	}
	threads, ok := u.Tags[guildID]
	if !ok {
		threads = map[string]time.Time{}
		u.Tags[guildID] = threads
	}
	threads[threadID] = deadline.UTC()
}

// ClearDeadline removes the (guild, thread) entry and reports whether it
// existed. When the removed thread was the last one under its guild, the
// guild key is pruned in the same call; an empty thread map must never
// remain behind.
func (u *User) ClearDeadline(guildID, threadID string) bool {
	threads, ok := u.Tags[guildID]
	if !ok {
		return false
	}
	if _, ok := threads[threadID]; !ok {
		return false
	}
	delete(threads, threadID)
	if len(threads) == 0 {
		delete(u.Tags, guildID)
	}
	return true
}

// Deadline returns the stored deadline for (guild, thread).
func (u *User) Deadline(guildID, threadID string) (time.Time, bool) {
	threads, ok := u.Tags[guildID]
	if !ok {
		return time.Time{}, false
	}
	d, ok := threads[threadID]
	return d, ok
}

// TaggedTo reports whether this user is tagged to (guild, thread).
func (u *User) TaggedTo(guildID, threadID string) bool {
	_, ok := u.Deadline(guildID, threadID)
	return ok
}

// PutTask stores a task under an already-reserved ID.
func (u *User) PutTask(taskID, content string) {
	if u.Tasks == nil {
		u.Tasks = map[string]string{}
	}
	u.Tasks[taskID] = content
}

// DropTask removes a task and retires its ID from the used set in the same
// mutation, and reports whether the task existed. The ID must leave both
// maps together: a live task whose ID is missing from the used set could
// collide with a future generated ID.
func (u *User) DropTask(taskID string) bool {
	if _, ok := u.Tasks[taskID]; !ok {
		return false
	}
	delete(u.Tasks, taskID)
	for i, id := range u.UsedTaskIDs {
		if id == taskID {
			u.UsedTaskIDs = append(u.UsedTaskIDs[:i], u.UsedTaskIDs[i+1:]...)
			break
		}
	}
	return true
}

// TaskIDUsed reports whether an ID has ever been issued for this user.
func (u *User) TaskIDUsed(taskID string) bool {
	for _, id := range u.UsedTaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// ReserveTaskID adds an ID to the used set without creating a task.
func (u *User) ReserveTaskID(taskID string) {
	u.UsedTaskIDs = append(u.UsedTaskIDs, taskID)
}

// Normalize repairs nil maps after JSON decoding so callers can mutate the
// record without nil checks, and forces all stored deadlines to UTC.
func (u *User) Normalize() {
	if u.Tags == nil {
		u.Tags = TagMap{}
	}
	if u.Tasks == nil {
		u.Tasks = map[string]string{}
	}
	for _, threads := range u.Tags {
		for threadID, d := range threads {
			threads[threadID] = d.UTC()
		}
	}
}
