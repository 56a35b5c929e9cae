package bot

import (
	"fmt"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membertagger/member-tagger/internal/domain"
	"github.com/membertagger/member-tagger/internal/notify"
)

func TestDeadlineColor(t *testing.T) {
	assert.Equal(t, colorUrgent, deadlineColor(-3))
	assert.Equal(t, colorUrgent, deadlineColor(0))
	assert.Equal(t, colorUrgent, deadlineColor(1))
	assert.Equal(t, colorSoon, deadlineColor(2))
	assert.Equal(t, colorSoon, deadlineColor(3))
	assert.Equal(t, colorRelaxed, deadlineColor(4))
}

func TestDaysLeftPhrase(t *testing.T) {
	assert.Equal(t, "overdue by 2 day(s)", daysLeftPhrase(-2))
	assert.Equal(t, "due today", daysLeftPhrase(0))
	assert.Equal(t, "5 day(s) left", daysLeftPhrase(5))
}

func TestMentionList(t *testing.T) {
	assert.Equal(t, "<@U1> <@U2>", mentionList([]string{"U1", "U2"}))
	assert.Empty(t, mentionList(nil))
}

func TestDeadlineNoticeEmbed(t *testing.T) {
	notice := notify.Notice{
		ThreadID: "T1",
		UserIDs:  []string{"U1", "U2"},
		Deadline: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		DaysLeft: 1,
	}

	embed := deadlineNoticeEmbed(notice)

	assert.Equal(t, colorUrgent, embed.Color)
	assert.Contains(t, embed.Description, "<#T1>")
	assert.Contains(t, embed.Description, "2026-09-30")
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "<@U1> <@U2>", embed.Fields[0].Value)
}

func TestUsersForThreadEmbed_Empty(t *testing.T) {
	embed := usersForThreadEmbed("T1", nil)
	assert.Equal(t, "Nobody is tagged to this thread.", embed.Description)
}

func TestThreadsForUserEmbed_ColorTracksNearestDeadline(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	threads := map[string][]domain.ThreadDeadline{
		"G1": {
			{ThreadID: "T1", Deadline: now.AddDate(0, 0, 10)},
			{ThreadID: "T2", Deadline: now.AddDate(0, 0, 2)},
		},
	}

	embed := threadsForUserEmbed("U1", threads, now)

	assert.Equal(t, colorSoon, embed.Color)
	require.Len(t, embed.Fields, 1)
	assert.Contains(t, embed.Fields[0].Value, "<#T1>")
	assert.Contains(t, embed.Fields[0].Value, "<#T2>")
}

func TestThreadsForUserEmbed_NoTags(t *testing.T) {
	embed := threadsForUserEmbed("U1", nil, time.Now())
	assert.Equal(t, "This member is not tagged anywhere.", embed.Description)
	assert.Empty(t, embed.Fields)
}

func TestTasksEmbed_SortedByID(t *testing.T) {
	embed := tasksEmbed(map[string]string{
		"task-bbb": "second",
		"task-aaa": "first",
	})
	assert.Equal(t, "`task-aaa` — first\n`task-bbb` — second", embed.Description)
}

func TestAllUsersEmbed(t *testing.T) {
	alice := domain.NewUser("U1", "alice")
	alice.SetDeadline("G1", "T1", time.Now().Add(48*time.Hour))
	alice.SetDeadline("G1", "T2", time.Now().Add(96*time.Hour))
	bob := domain.NewUser("U2", "bob")
	bob.NotificationEnabled = false

	embed := allUsersEmbed([]*domain.User{bob, alice})

	assert.Equal(t, "Registered members (2)", embed.Title)
	assert.Contains(t, embed.Description, "**alice** — 2 thread tag(s), 0 task(s), notifications on")
	assert.Contains(t, embed.Description, "**bob** — 0 thread tag(s), 0 task(s), notifications off")
}

func TestTaskRemoveRow_CapsOptions(t *testing.T) {
	tasks := make(map[string]string)
	for n := 0; n < 30; n++ {
		tasks[fmt.Sprintf("task-%03d", n)] = fmt.Sprintf("task number %d", n)
	}

	row := taskRemoveRow(tasks)

	require.Len(t, row.Components, 1)
	menu, ok := row.Components[0].(discordgo.SelectMenu)
	require.True(t, ok)
	assert.Len(t, menu.Options, maxSelectOptions)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long…", truncate("longtext", 5))
}

func TestTruncate_MultibyteContent(t *testing.T) {
	// Counted in runes, so multibyte text is never split mid-character.
	assert.Equal(t, "会議の議事録を書く", truncate("会議の議事録を書く", 9))
	assert.Equal(t, "会議の議…", truncate("会議の議事録を書く", 5))
	assert.True(t, utf8.ValidString(truncate("会議の議事録を書く", 5)))
}

func TestCommandDefinitions_UniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, cmd := range commandDefinitions() {
		assert.False(t, seen[cmd.Name], "duplicate command %q", cmd.Name)
		seen[cmd.Name] = true
		assert.NotEmpty(t, cmd.Description)
	}
	assert.True(t, seen["tag"])
	assert.True(t, seen["untag"])
	assert.True(t, seen["toggle_notification"])
}
