package bot

import (
	"strings"
	"sync"
	"time"

	"github.com/membertagger/member-tagger/internal/id"
)

// A wizard flow is a short chain of selection screens. All state lives
// here, in memory, keyed by a generated session ID carried in component
// custom IDs; nothing touches the store until the final confirming step.
type flow string

const (
	flowTag     flow = "tag"
	flowUntag   flow = "untag"
	flowThreads flow = "threads"
	flowUsers   flow = "users"
)

// Component custom ID prefixes. The session ID follows the separator.
const (
	cidThreadSelect  = "wizard_thread"
	cidMemberSelect  = "wizard_member"
	cidDeadlineModal = "wizard_deadline"
	cidConfirm       = "wizard_confirm"
	cidCancel        = "wizard_cancel"
	cidTaskRemove    = "task_remove"

	cidSeparator = ":"
)

// sessionTTL bounds how long an abandoned wizard lingers.
const sessionTTL = 15 * time.Minute

type wizardSession struct {
	Flow    flow
	GuildID string
	// OwnerID is the user who invoked the command; nobody else may drive
	// the wizard.
	OwnerID string

	ThreadID string
	UserIDs  []string
	Deadline time.Time

	createdAt time.Time
}

// wizardStore holds live wizard sessions and evicts stale ones.
type wizardStore struct {
	mu       sync.Mutex
	sessions map[string]*wizardSession
	done     chan struct{}
	once     sync.Once
}

func newWizardStore() *wizardStore {
	w := &wizardStore{
		sessions: make(map[string]*wizardSession),
		done:     make(chan struct{}),
	}
	go w.evictLoop()
	return w
}

func (w *wizardStore) stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *wizardStore) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-sessionTTL)
			w.mu.Lock()
			for sid, sess := range w.sessions {
				if sess.createdAt.Before(cutoff) {
					delete(w.sessions, sid)
				}
			}
			w.mu.Unlock()
		case <-w.done:
			return
		}
	}
}

// create registers a new session and returns its ID.
func (w *wizardStore) create(sess *wizardSession) (string, error) {
	sid, err := id.NewSessionID()
	if err != nil {
		return "", err
	}
	sess.createdAt = time.Now()

	w.mu.Lock()
	w.sessions[sid] = sess
	w.mu.Unlock()
	return sid, nil
}

// get returns a snapshot of a session. Handlers run on separate
// goroutines, so callers never see the live struct; all mutation goes
// through update.
func (w *wizardStore) get(sid string) (wizardSession, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	sess, ok := w.sessions[sid]
	if !ok {
		return wizardSession{}, false
	}
	return *sess, true
}

// update applies fn to a live session under the store's lock and returns
// a snapshot of the result.
func (w *wizardStore) update(sid string, fn func(*wizardSession)) (wizardSession, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	sess, ok := w.sessions[sid]
	if !ok {
		return wizardSession{}, false
	}
	fn(sess)
	return *sess, true
}

// discard drops a session; wizard state is gone, stored records untouched.
func (w *wizardStore) discard(sid string) {
	w.mu.Lock()
	delete(w.sessions, sid)
	w.mu.Unlock()
}

// customID builds "<prefix>:<sid>".
func customID(prefix, sid string) string {
	return prefix + cidSeparator + sid
}

// parseCustomID splits a component custom ID into prefix and session ID.
func parseCustomID(cid string) (prefix, sid string) {
	prefix, sid, _ = strings.Cut(cid, cidSeparator)
	return prefix, sid
}
