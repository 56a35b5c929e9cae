package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/membertagger/member-tagger/internal/domain"
	"github.com/membertagger/member-tagger/internal/service"
)

const deadlineLayout = "2006-01-02"

// commandDefinitions describes every slash command the bot registers.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "tag",
			Description: "Tag members to a thread with a deadline",
		},
		{
			Name:        "untag",
			Description: "Remove members from a tagged thread",
		},
		{
			Name:        "threads",
			Description: "Show the threads a member is tagged to",
		},
		{
			Name:        "users",
			Description: "Show the members tagged to a thread",
		},
		{
			Name:        "task",
			Description: "Manage your personal tasks",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a task",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "content",
							Description: "What the task is",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List your tasks",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update",
					Description: "Rewrite one of your tasks",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "id",
							Description: "Task ID, as shown by /task list",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "content",
							Description: "New content",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove one of your tasks",
				},
			},
		},
		{
			Name:        "toggle_notification",
			Description: "Turn deadline notifications on or off for yourself",
		},
		{
			Name:        "notify_channel",
			Description: "Manage this server's deadline notice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "Route deadline notices to a channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Channel that receives deadline notices",
							Required:    true,
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildText,
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clear",
					Description: "Send deadline notices to the tagged threads again",
				},
			},
		},
		{
			Name:        "all",
			Description: "Show every registered member and their tag counts",
		},
		{
			Name:        "ping",
			Description: "Check that the bot is alive",
		},
		{
			Name:        "help",
			Description: "Show what each command does",
		},
		{
			Name:        "invite_link",
			Description: "Get a link for inviting the bot to another server",
		},
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		b.handleModal(s, i)
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	user := interactionUser(i)
	if user == nil {
		return
	}

	switch data.Name {
	case "tag":
		b.startWizard(s, i, flowTag, "Pick the thread to tag members to.")
	case "untag":
		b.startWizard(s, i, flowUntag, "Pick the thread to remove members from.")
	case "users":
		b.startWizard(s, i, flowUsers, "Pick the thread to look up.")
	case "threads":
		b.startWizard(s, i, flowThreads, "Pick the member to look up.")
	case "task":
		b.handleTaskCommand(s, i, data, user)
	case "toggle_notification":
		b.handleToggleNotification(s, i, user)
	case "notify_channel":
		b.handleNotifyChannel(s, i, data)
	case "all":
		b.handleAll(s, i)
	case "ping":
		b.respondText(s, i, "pong")
	case "help":
		b.respondEmbed(s, i, helpEmbed())
	case "invite_link":
		b.respondText(s, i, inviteLink(s.State.User.ID))
	default:
		b.logger.Warn("unknown slash command", "name", data.Name)
	}
}

// startWizard opens the first screen of a selection flow. Query flows
// finish on their single select; tag and untag continue from it.
func (b *Bot) startWizard(s *discordgo.Session, i *discordgo.InteractionCreate, f flow, prompt string) {
	if i.GuildID == "" {
		b.respondText(s, i, "This command only works inside a server.")
		return
	}

	sid, err := b.wizards.create(&wizardSession{
		Flow:    f,
		GuildID: i.GuildID,
		OwnerID: interactionUser(i).ID,
	})
	if err != nil {
		b.respondError(s, i, "start wizard", err)
		return
	}

	var firstRow discordgo.ActionsRow
	if f == flowThreads {
		firstRow = memberSelectRow(sid, 1)
	} else {
		firstRow = threadSelectRow(sid)
	}
	b.respondComponents(s, i, prompt, []discordgo.MessageComponent{firstRow, cancelRow(sid)})
}

func (b *Bot) handleTaskCommand(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, user *discordgo.User) {
	ctx := context.Background()
	sub := data.Options[0]

	switch sub.Name {
	case "add":
		content := sub.Options[0].StringValue()
		taskID, err := b.tasks.AddTask(ctx, user.ID, content)
		switch {
		case errors.Is(err, service.ErrUserNotRegistered):
			b.respondText(s, i, "You are not registered yet. Rejoin the server or wait for the next member sync.")
		case errors.Is(err, service.ErrEmptyTask):
			b.respondText(s, i, "Task content cannot be empty.")
		case err != nil:
			b.respondError(s, i, "add task", err)
		default:
			b.respondText(s, i, fmt.Sprintf("Task added as `%s`.", taskID))
		}

	case "update":
		taskID := sub.Options[0].StringValue()
		content := sub.Options[1].StringValue()
		err := b.tasks.UpdateTask(ctx, user.ID, taskID, content)
		switch {
		case errors.Is(err, service.ErrUserNotRegistered):
			b.respondText(s, i, "You are not registered yet.")
		case errors.Is(err, service.ErrTaskNotFound):
			b.respondText(s, i, fmt.Sprintf("No task with ID `%s`.", taskID))
		case errors.Is(err, service.ErrEmptyTask):
			b.respondText(s, i, "Task content cannot be empty.")
		case err != nil:
			b.respondError(s, i, "update task", err)
		default:
			b.respondText(s, i, fmt.Sprintf("Task `%s` updated.", taskID))
		}

	case "list":
		tasks, err := b.tasks.ListTasks(ctx, user.ID)
		if errors.Is(err, service.ErrUserNotRegistered) {
			b.respondText(s, i, "You are not registered yet.")
			return
		}
		if err != nil {
			b.respondError(s, i, "list tasks", err)
			return
		}
		if len(tasks) == 0 {
			b.respondText(s, i, "You have no tasks.")
			return
		}
		b.respondEmbed(s, i, tasksEmbed(tasks))

	case "remove":
		tasks, err := b.tasks.ListTasks(ctx, user.ID)
		if errors.Is(err, service.ErrUserNotRegistered) {
			b.respondText(s, i, "You are not registered yet.")
			return
		}
		if err != nil {
			b.respondError(s, i, "list tasks", err)
			return
		}
		if len(tasks) == 0 {
			b.respondText(s, i, "You have no tasks to remove.")
			return
		}
		b.respondComponents(s, i, "Pick the task to remove.", []discordgo.MessageComponent{taskRemoveRow(tasks)})
	}
}

func (b *Bot) handleToggleNotification(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User) {
	enabled, err := b.users.ToggleNotification(context.Background(), user.ID)
	if errors.Is(err, service.ErrUserNotRegistered) {
		b.respondText(s, i, "You are not registered yet.")
		return
	}
	if err != nil {
		b.respondError(s, i, "toggle notification", err)
		return
	}
	if enabled {
		b.respondText(s, i, "Deadline notifications are now on.")
	} else {
		b.respondText(s, i, "Deadline notifications are now off.")
	}
}

func (b *Bot) handleNotifyChannel(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if i.GuildID == "" {
		b.respondText(s, i, "This command only works inside a server.")
		return
	}
	ctx := context.Background()

	switch data.Options[0].Name {
	case "set":
		channelID := data.Options[0].Options[0].ChannelValue(nil).ID
		if err := b.channels.SetChannel(ctx, i.GuildID, channelID); err != nil {
			b.respondError(s, i, "set notify channel", err)
			return
		}
		b.respondText(s, i, fmt.Sprintf("Deadline notices for this server now go to <#%s>.", channelID))
	case "clear":
		if err := b.channels.ClearChannel(ctx, i.GuildID); err != nil {
			b.respondError(s, i, "clear notify channel", err)
			return
		}
		b.respondText(s, i, "Deadline notices go to the tagged threads again.")
	}
}

func (b *Bot) handleAll(s *discordgo.Session, i *discordgo.InteractionCreate) {
	users, err := b.users.ListUsers(context.Background())
	if err != nil {
		b.respondError(s, i, "list users", err)
		return
	}
	if len(users) == 0 {
		b.respondText(s, i, "Nobody is registered yet.")
		return
	}
	b.respondEmbed(s, i, allUsersEmbed(users))
}

func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	prefix, sid := parseCustomID(data.CustomID)

	if prefix == cidTaskRemove {
		b.handleTaskRemoveSelect(s, i, data.Values)
		return
	}

	sess, ok := b.wizards.get(sid)
	if !ok {
		b.updateMessage(s, i, "This wizard has expired. Run the command again.", nil)
		return
	}
	if interactionUser(i).ID != sess.OwnerID {
		b.respondText(s, i, "This menu belongs to someone else.")
		return
	}

	switch prefix {
	case cidThreadSelect:
		b.handleThreadSelected(s, i, sid, data.Values[0])
	case cidMemberSelect:
		b.handleMembersSelected(s, i, sid, data.Values)
	case cidConfirm:
		b.handleConfirm(s, i, sid, sess)
	case cidCancel:
		b.wizards.discard(sid)
		b.updateMessage(s, i, "Cancelled. Nothing was changed.", nil)
	}
}

func (b *Bot) handleThreadSelected(s *discordgo.Session, i *discordgo.InteractionCreate, sid, threadID string) {
	sess, ok := b.wizards.update(sid, func(ws *wizardSession) { ws.ThreadID = threadID })
	if !ok {
		b.updateMessage(s, i, "This wizard has expired. Run the command again.", nil)
		return
	}

	switch sess.Flow {
	case flowTag, flowUntag:
		b.updateMessage(s, i, fmt.Sprintf("Thread <#%s> selected. Now pick the members.", threadID),
			[]discordgo.MessageComponent{memberSelectRow(sid, maxWizardMembers), cancelRow(sid)})

	case flowUsers:
		userIDs, err := b.tags.UsersForThread(context.Background(), sess.GuildID, threadID)
		b.wizards.discard(sid)
		if err != nil {
			b.respondError(s, i, "look up thread members", err)
			return
		}
		b.updateEmbed(s, i, usersForThreadEmbed(threadID, userIDs))
	}
}

func (b *Bot) handleMembersSelected(s *discordgo.Session, i *discordgo.InteractionCreate, sid string, userIDs []string) {
	sess, ok := b.wizards.update(sid, func(ws *wizardSession) { ws.UserIDs = userIDs })
	if !ok {
		b.updateMessage(s, i, "This wizard has expired. Run the command again.", nil)
		return
	}

	switch sess.Flow {
	case flowTag:
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: &discordgo.InteractionResponseData{
				CustomID: customID(cidDeadlineModal, sid),
				Title:    "Deadline",
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "deadline",
							Label:       "Deadline (YYYY-MM-DD)",
							Style:       discordgo.TextInputShort,
							Placeholder: "2026-09-30",
							Required:    true,
							MinLength:   10,
							MaxLength:   10,
						},
					}},
				},
			},
		})
		if err != nil {
			b.logger.Error("deadline modal failed", "error", err)
		}

	case flowUntag:
		b.updateMessage(s, i,
			fmt.Sprintf("Remove %s from <#%s>?", mentionList(userIDs), sess.ThreadID),
			[]discordgo.MessageComponent{confirmRow(sid)})

	case flowThreads:
		threads, err := b.tags.ThreadsForUser(context.Background(), userIDs[0])
		b.wizards.discard(sid)
		if errors.Is(err, service.ErrUserNotRegistered) {
			b.updateMessage(s, i, "That member is not registered.", nil)
			return
		}
		if err != nil {
			b.respondError(s, i, "look up member threads", err)
			return
		}
		b.updateEmbed(s, i, threadsForUserEmbed(userIDs[0], threads, time.Now()))
	}
}

func (b *Bot) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	prefix, sid := parseCustomID(data.CustomID)
	if prefix != cidDeadlineModal {
		return
	}

	deadline, err := time.Parse(deadlineLayout, strings.TrimSpace(modalInputValue(data)))
	if err != nil {
		// Keep the wizard open; re-selecting members reopens the modal.
		b.updateMessage(s, i, "That deadline did not parse as YYYY-MM-DD. Pick the members again to retry.",
			[]discordgo.MessageComponent{memberSelectRow(sid, maxWizardMembers), cancelRow(sid)})
		return
	}

	sess, ok := b.wizards.update(sid, func(ws *wizardSession) { ws.Deadline = deadline.UTC() })
	if !ok {
		b.updateMessage(s, i, "This wizard has expired. Run the command again.", nil)
		return
	}

	b.updateMessage(s, i,
		fmt.Sprintf("Tag %s to <#%s> with deadline %s?",
			mentionList(sess.UserIDs), sess.ThreadID, sess.Deadline.Format(deadlineLayout)),
		[]discordgo.MessageComponent{confirmRow(sid)})
}

func (b *Bot) handleConfirm(s *discordgo.Session, i *discordgo.InteractionCreate, sid string, sess wizardSession) {
	ctx := context.Background()
	b.wizards.discard(sid)

	switch sess.Flow {
	case flowTag:
		applied, err := b.tags.AddTag(ctx, domain.Tag{
			GuildID:  sess.GuildID,
			ThreadID: sess.ThreadID,
			UserIDs:  sess.UserIDs,
			Deadline: sess.Deadline,
		})
		if errors.Is(err, service.ErrNoTargetUsers) {
			b.updateMessage(s, i, "None of the selected members are registered, so nothing was tagged.", nil)
			return
		}
		if err != nil {
			b.respondError(s, i, "apply tag", err)
			return
		}
		skipped := len(sess.UserIDs) - len(applied)
		msg := fmt.Sprintf("Tagged %s to <#%s>, due %s.",
			mentionList(applied), sess.ThreadID, sess.Deadline.Format(deadlineLayout))
		if skipped > 0 {
			msg += fmt.Sprintf(" Skipped %d unregistered member(s).", skipped)
		}
		b.updateMessage(s, i, msg, nil)

	case flowUntag:
		removed, err := b.tags.RemoveTag(ctx, sess.GuildID, sess.ThreadID, sess.UserIDs)
		if err != nil {
			b.respondError(s, i, "remove tag", err)
			return
		}
		if len(removed) == 0 {
			b.updateMessage(s, i, fmt.Sprintf("None of the selected members were tagged to <#%s>.", sess.ThreadID), nil)
			return
		}
		b.updateMessage(s, i, fmt.Sprintf("Removed %s from <#%s>.", mentionList(removed), sess.ThreadID), nil)
	}
}

func (b *Bot) handleTaskRemoveSelect(s *discordgo.Session, i *discordgo.InteractionCreate, values []string) {
	user := interactionUser(i)
	if user == nil || len(values) == 0 {
		return
	}

	err := b.tasks.RemoveTask(context.Background(), user.ID, values[0])
	if errors.Is(err, service.ErrTaskNotFound) {
		b.updateMessage(s, i, "That task is already gone.", nil)
		return
	}
	if err != nil {
		b.respondError(s, i, "remove task", err)
		return
	}
	b.updateMessage(s, i, fmt.Sprintf("Task `%s` removed.", values[0]), nil)
}

// interactionUser returns the invoking user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// modalInputValue pulls the single text input out of a modal submission.
func modalInputValue(data discordgo.ModalSubmitInteractionData) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rc := range row.Components {
			if input, ok := rc.(*discordgo.TextInput); ok {
				return input.Value
			}
		}
	}
	return ""
}

func inviteLink(applicationID string) string {
	return fmt.Sprintf(
		"https://discord.com/api/oauth2/authorize?client_id=%s&permissions=%d&scope=bot%%20applications.commands",
		applicationID,
		discordgo.PermissionViewChannel|discordgo.PermissionSendMessages|discordgo.PermissionSendMessagesInThreads|discordgo.PermissionEmbedLinks,
	)
}
