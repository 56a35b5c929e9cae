package bot

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/exp/maps"

	"github.com/membertagger/member-tagger/internal/domain"
	"github.com/membertagger/member-tagger/internal/notify"
)

// Embed colors keyed off urgency: red within a day, yellow within three.
const (
	colorUrgent   = 0xe74c3c
	colorSoon     = 0xf1c40f
	colorRelaxed  = 0x2ecc71
	colorNeutral  = 0x95a5a6
	colorInfoBlue = 0x3498db
)

// maxWizardMembers caps a member select; Discord allows at most 25.
const maxWizardMembers = 25

const maxSelectOptions = 25

func deadlineColor(daysLeft int) int {
	switch {
	case daysLeft <= 1:
		return colorUrgent
	case daysLeft <= 3:
		return colorSoon
	default:
		return colorRelaxed
	}
}

func daysLeftPhrase(daysLeft int) string {
	switch {
	case daysLeft < 0:
		return fmt.Sprintf("overdue by %d day(s)", -daysLeft)
	case daysLeft == 0:
		return "due today"
	default:
		return fmt.Sprintf("%d day(s) left", daysLeft)
	}
}

func mentionList(userIDs []string) string {
	mentions := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		mentions = append(mentions, "<@"+id+">")
	}
	return strings.Join(mentions, " ")
}

// deadlineNoticeEmbed renders one scheduled reminder for a thread.
func deadlineNoticeEmbed(notice notify.Notice) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Deadline reminder",
		Description: fmt.Sprintf("<#%s> is due %s (%s).",
			notice.ThreadID, notice.Deadline.Format(deadlineLayout), daysLeftPhrase(notice.DaysLeft)),
		Color: deadlineColor(notice.DaysLeft),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Tagged members", Value: mentionList(notice.UserIDs)},
		},
	}
}

func usersForThreadEmbed(threadID string, userIDs []string) *discordgo.MessageEmbed {
	description := "Nobody is tagged to this thread."
	if len(userIDs) > 0 {
		slices.Sort(userIDs)
		description = mentionList(userIDs)
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Members tagged to <#%s>", threadID),
		Description: description,
		Color:       colorInfoBlue,
	}
}

func threadsForUserEmbed(userID string, threads map[string][]domain.ThreadDeadline, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Threads <@%s> is tagged to", userID),
		Color: colorInfoBlue,
	}
	if len(threads) == 0 {
		embed.Description = "This member is not tagged anywhere."
		return embed
	}

	minDays := 0
	first := true
	guildIDs := maps.Keys(threads)
	slices.Sort(guildIDs)
	for _, guildID := range guildIDs {
		var lines []string
		for _, td := range threads[guildID] {
			days := domain.Tag{Deadline: td.Deadline}.DaysUntil(now)
			lines = append(lines, fmt.Sprintf("<#%s> — due %s (%s)",
				td.ThreadID, td.Deadline.Format(deadlineLayout), daysLeftPhrase(days)))
			if first || days < minDays {
				minDays = days
				first = false
			}
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Server " + guildID,
			Value: strings.Join(lines, "\n"),
		})
	}
	embed.Color = deadlineColor(minDays)
	return embed
}

func tasksEmbed(tasks map[string]string) *discordgo.MessageEmbed {
	var lines []string
	taskIDs := maps.Keys(tasks)
	slices.Sort(taskIDs)
	for _, taskID := range taskIDs {
		lines = append(lines, fmt.Sprintf("`%s` — %s", taskID, tasks[taskID]))
	}
	return &discordgo.MessageEmbed{
		Title:       "Your tasks",
		Description: strings.Join(lines, "\n"),
		Color:       colorInfoBlue,
	}
}

func allUsersEmbed(users []*domain.User) *discordgo.MessageEmbed {
	var lines []string
	for _, u := range users {
		tagged := 0
		for _, threads := range u.Tags {
			tagged += len(threads)
		}
		state := "on"
		if !u.NotificationEnabled {
			state = "off"
		}
		lines = append(lines, fmt.Sprintf("**%s** — %d thread tag(s), %d task(s), notifications %s",
			u.Name, tagged, len(u.Tasks), state))
	}
	slices.Sort(lines)
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Registered members (%d)", len(users)),
		Description: strings.Join(lines, "\n"),
		Color:       colorNeutral,
	}
}

func helpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Commands",
		Color: colorInfoBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "/tag", Value: "Tag members to a thread with a deadline."},
			{Name: "/untag", Value: "Remove members from a tagged thread."},
			{Name: "/threads", Value: "Show the threads a member is tagged to."},
			{Name: "/users", Value: "Show the members tagged to a thread."},
			{Name: "/task add | list | update | remove", Value: "Manage your personal tasks."},
			{Name: "/toggle_notification", Value: "Turn deadline notifications on or off for yourself."},
			{Name: "/notify_channel set | clear", Value: "Route this server's deadline notices to a channel, or back to the threads."},
			{Name: "/all", Value: "Show every registered member and their tag counts."},
			{Name: "/invite_link", Value: "Get a link for inviting the bot to another server."},
			{Name: "/ping", Value: "Check that the bot is alive."},
		},
	}
}

func threadSelectRow(sid string) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.ChannelSelectMenu,
			CustomID:    customID(cidThreadSelect, sid),
			Placeholder: "Select a thread",
			ChannelTypes: []discordgo.ChannelType{
				discordgo.ChannelTypeGuildPublicThread,
				discordgo.ChannelTypeGuildPrivateThread,
				discordgo.ChannelTypeGuildNewsThread,
			},
		},
	}}
}

func memberSelectRow(sid string, maxMembers int) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.UserSelectMenu,
			CustomID:    customID(cidMemberSelect, sid),
			Placeholder: "Select members",
			MaxValues:   maxMembers,
		},
	}}
}

func taskRemoveRow(tasks map[string]string) discordgo.ActionsRow {
	var options []discordgo.SelectMenuOption
	taskIDs := maps.Keys(tasks)
	slices.Sort(taskIDs)
	for _, taskID := range taskIDs {
		if len(options) == maxSelectOptions {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: truncate(tasks[taskID], 80),
			Value: taskID,
		})
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    cidTaskRemove,
			Placeholder: "Select a task",
			Options:     options,
		},
	}}
}

func confirmRow(sid string) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Confirm", Style: discordgo.SuccessButton, CustomID: customID(cidConfirm, sid)},
		discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: customID(cidCancel, sid)},
	}}
}

func cancelRow(sid string) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: customID(cidCancel, sid)},
	}}
}

// truncate shortens s to at most max runes, never splitting a multibyte
// character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// Interaction response helpers. Everything the bot says in reply to an
// interaction is ephemeral; only the scheduled notices are public.

func (b *Bot) respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Error("interaction response failed", "error", err)
	}
}

func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Error("interaction response failed", "error", err)
	}
}

func (b *Bot) respondComponents(s *discordgo.Session, i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Error("interaction response failed", "error", err)
	}
}

// updateMessage rewrites the wizard message in place. A nil components
// slice clears the remaining controls.
func (b *Bot) updateMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
		},
	})
	if err != nil {
		b.logger.Error("interaction update failed", "error", err)
	}
}

func (b *Bot) updateEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    "",
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		b.logger.Error("interaction update failed", "error", err)
	}
}

func (b *Bot) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, op string, err error) {
	b.logger.Error("command failed", "op", op, "error", err)
	b.respondText(s, i, "Something went wrong. Try again in a moment.")
}
