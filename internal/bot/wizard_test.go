package bot

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardStore_CreateGetDiscard(t *testing.T) {
	w := newWizardStore()
	defer w.stop()

	sid, err := w.create(&wizardSession{Flow: flowTag, GuildID: "G1", OwnerID: "U1"})
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	sess, ok := w.get(sid)
	require.True(t, ok)
	assert.Equal(t, flowTag, sess.Flow)
	assert.Equal(t, "G1", sess.GuildID)
	assert.Equal(t, "U1", sess.OwnerID)

	w.discard(sid)
	_, ok = w.get(sid)
	assert.False(t, ok)
}

func TestWizardStore_SessionsAreIndependent(t *testing.T) {
	w := newWizardStore()
	defer w.stop()

	first, err := w.create(&wizardSession{Flow: flowTag, OwnerID: "U1"})
	require.NoError(t, err)
	second, err := w.create(&wizardSession{Flow: flowUntag, OwnerID: "U2"})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	w.discard(first)

	sess, ok := w.get(second)
	require.True(t, ok)
	assert.Equal(t, flowUntag, sess.Flow)
}

func TestWizardStore_UpdateVisibleThroughGet(t *testing.T) {
	w := newWizardStore()
	defer w.stop()

	sid, err := w.create(&wizardSession{Flow: flowTag, OwnerID: "U1"})
	require.NoError(t, err)

	sess, ok := w.update(sid, func(s *wizardSession) {
		s.ThreadID = "T1"
		s.UserIDs = []string{"U1", "U2"}
		s.Deadline = time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	})
	require.True(t, ok)
	assert.Equal(t, "T1", sess.ThreadID)

	again, ok := w.get(sid)
	require.True(t, ok)
	assert.Equal(t, "T1", again.ThreadID)
	assert.Equal(t, []string{"U1", "U2"}, again.UserIDs)
}

func TestWizardStore_GetReturnsSnapshot(t *testing.T) {
	w := newWizardStore()
	defer w.stop()

	sid, err := w.create(&wizardSession{Flow: flowTag, OwnerID: "U1", ThreadID: "T1"})
	require.NoError(t, err)

	sess, ok := w.get(sid)
	require.True(t, ok)
	sess.ThreadID = "T9"

	again, ok := w.get(sid)
	require.True(t, ok)
	assert.Equal(t, "T1", again.ThreadID)
}

func TestWizardStore_ConcurrentUpdates(t *testing.T) {
	w := newWizardStore()
	defer w.stop()

	sid, err := w.create(&wizardSession{Flow: flowTag, OwnerID: "U1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for n := 0; n < 20; n++ {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			threadID := fmt.Sprintf("T%d", n)
			_, ok := w.update(sid, func(s *wizardSession) { s.ThreadID = threadID })
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	sess, ok := w.get(sid)
	require.True(t, ok)
	assert.NotEmpty(t, sess.ThreadID)
}

func TestWizardStore_UpdateMissingSession(t *testing.T) {
	w := newWizardStore()
	defer w.stop()

	_, ok := w.update("nope", func(s *wizardSession) { s.ThreadID = "T1" })
	assert.False(t, ok)
}

func TestCustomID_RoundTrip(t *testing.T) {
	cid := customID(cidThreadSelect, "abc123")
	prefix, sid := parseCustomID(cid)
	assert.Equal(t, cidThreadSelect, prefix)
	assert.Equal(t, "abc123", sid)
}

func TestParseCustomID_NoSessionID(t *testing.T) {
	prefix, sid := parseCustomID(cidTaskRemove)
	assert.Equal(t, cidTaskRemove, prefix)
	assert.Empty(t, sid)
}
