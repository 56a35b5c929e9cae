// Package di provides dependency injection configuration for the bot.
package di

import (
	"github.com/samber/do/v2"

	"github.com/membertagger/member-tagger/internal/config"
	"github.com/membertagger/member-tagger/internal/di/providers"
	"github.com/membertagger/member-tagger/internal/logger"
	"github.com/membertagger/member-tagger/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)

	// Business services
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideTaskService)
	do.Provide(injector, providers.ProvideChannelService)

	// Gateway
	do.Provide(injector, providers.ProvideBot)

	// Workers
	do.Provide(injector, providers.ProvideSchedulerJob)
	do.Provide(injector, providers.ProvideStoreGCJob)

	// Ops listener
	do.Provide(injector, providers.ProvideOpsServer)

	return injector
}

// Bootstrap initializes all services and returns once everything that
// runs in the background has been started.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}

	for _, invoke := range []func() error{
		func() error { _, err := do.Invoke[*service.UserService](injector); return err },
		func() error { _, err := do.Invoke[*service.TagService](injector); return err },
		func() error { _, err := do.Invoke[*service.TaskService](injector); return err },
		func() error { _, err := do.Invoke[*service.ChannelService](injector); return err },
		func() error { _, err := do.Invoke[*providers.BotHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.SchedulerJob](injector); return err },
		func() error { _, err := do.Invoke[*providers.StoreGCJob](injector); return err },
		func() error { _, err := do.Invoke[*providers.OpsServerHandle](injector); return err },
	} {
		if err := invoke(); err != nil {
			return err
		}
	}

	return nil
}
