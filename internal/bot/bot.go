// Package bot maps Discord gateway events onto the service layer:
// slash commands, the multi-step tagging wizard, guild member sync, and
// delivery of scheduled deadline notices.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/membertagger/member-tagger/internal/notify"
	"github.com/membertagger/member-tagger/internal/service"
)

// Bot owns the gateway session and dispatches events to handlers.
type Bot struct {
	session  *discordgo.Session
	users    *service.UserService
	tags     *service.TagService
	tasks    *service.TaskService
	channels *service.ChannelService
	wizards  *wizardStore
	logger   *slog.Logger

	syncOnReady bool
}

// Options configures gateway behavior.
type Options struct {
	// SyncOnReady registers all observed guild members when the session
	// becomes ready.
	SyncOnReady bool
}

// New creates a bot over an authenticated session. The session is not
// opened here; call Start.
func New(
	session *discordgo.Session,
	users *service.UserService,
	tags *service.TagService,
	tasks *service.TaskService,
	channels *service.ChannelService,
	opts Options,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		session:     session,
		users:       users,
		tags:        tags,
		tasks:       tasks,
		channels:    channels,
		wizards:     newWizardStore(),
		logger:      logger,
		syncOnReady: opts.SyncOnReady,
	}
}

// Start registers handlers, opens the gateway connection, and registers
// the slash commands once the session is ready.
func (b *Bot) Start() error {
	b.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway session: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	b.wizards.stop()
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("gateway ready", "username", r.User.Username, "guilds", len(r.Guilds))

	if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, "", commandDefinitions()); err != nil {
		b.logger.Error("slash command registration failed", "error", err)
	} else {
		b.logger.Info("slash commands registered", "count", len(commandDefinitions()))
	}

	if !b.syncOnReady {
		return
	}
	for _, guild := range r.Guilds {
		b.syncGuildMembers(guild.ID)
	}
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	b.syncGuildMembers(g.ID)
}

func (b *Bot) onGuildMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User.Bot {
		return
	}
	if err := b.users.RegisterUser(context.Background(), m.User.ID, m.User.Username); err != nil {
		b.logger.Error("could not register joining member", "user_id", m.User.ID, "error", err)
	}
}

// onGuildMemberRemove clears the departed member's tags for that guild
// only. Their registration, tasks, and tags in other guilds stay.
func (b *Bot) onGuildMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User.Bot {
		return
	}
	_, err := b.tags.ClearGuild(context.Background(), m.User.ID, m.GuildID)
	if err != nil && !errors.Is(err, service.ErrUserNotRegistered) {
		b.logger.Error("could not clear tags for departing member",
			"user_id", m.User.ID, "guild_id", m.GuildID, "error", err)
	}
}

// syncGuildMembers pages through a guild's member list and registers the
// humans the registry does not know yet.
func (b *Bot) syncGuildMembers(guildID string) {
	var members []service.Member

	after := ""
	for {
		page, err := b.session.GuildMembers(guildID, after, 1000)
		if err != nil {
			b.logger.Error("member fetch failed", "guild_id", guildID, "error", err)
			return
		}
		for _, m := range page {
			if m.User == nil || m.User.Bot {
				continue
			}
			members = append(members, service.Member{ID: m.User.ID, Name: m.User.Username})
		}
		if len(page) < 1000 {
			break
		}
		after = page[len(page)-1].User.ID
	}

	added, err := b.users.SyncMembers(context.Background(), members)
	if err != nil {
		b.logger.Error("member sync failed", "guild_id", guildID, "error", err)
		return
	}
	b.logger.Info("guild members synced", "guild_id", guildID, "observed", len(members), "added", added)
}

// SendDeadlineNotice implements notify.Messenger. The notice goes to the
// guild's configured notify channel when one is set, otherwise to the
// tagged thread itself.
func (b *Bot) SendDeadlineNotice(_ context.Context, notice notify.Notice) error {
	destination := notice.ChannelID
	if destination == "" {
		destination = notice.ThreadID
	}

	_, err := b.session.ChannelMessageSendEmbed(destination, deadlineNoticeEmbed(notice))
	if err != nil {
		return fmt.Errorf("send deadline notice: %w", err)
	}
	return nil
}
