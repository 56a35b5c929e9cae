package providers

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/do/v2"

	"github.com/membertagger/member-tagger/internal/bot"
	"github.com/membertagger/member-tagger/internal/config"
	"github.com/membertagger/member-tagger/internal/logger"
	"github.com/membertagger/member-tagger/internal/service"
)

// BotHandle wraps the gateway bot with shutdown capability.
type BotHandle struct {
	*bot.Bot
}

// Shutdown implements do.Shutdownable.
func (h *BotHandle) Shutdown() error {
	return h.Stop()
}

// ProvideBot provides the connected gateway bot.
func ProvideBot(i do.Injector) (*BotHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	users := do.MustInvoke[*service.UserService](i)
	tags := do.MustInvoke[*service.TagService](i)
	tasks := do.MustInvoke[*service.TaskService](i)
	channels := do.MustInvoke[*service.ChannelService](i)

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("create gateway session: %w", err)
	}

	b := bot.New(session, users, tags, tasks, channels, bot.Options{
		SyncOnReady: cfg.Discord.SyncOnReady,
	}, log.Logger)

	if err := b.Start(); err != nil {
		return nil, err
	}

	log.Info("Gateway connected")

	return &BotHandle{Bot: b}, nil
}
