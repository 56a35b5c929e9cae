package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/membertagger/member-tagger/internal/config"
	"github.com/membertagger/member-tagger/internal/logger"
	"github.com/membertagger/member-tagger/internal/notify"
	"github.com/membertagger/member-tagger/internal/service"
)

// storeGCPeriod is how often the value log garbage collector runs.
const storeGCPeriod = time.Hour

// SchedulerJob runs the deadline notification scheduler.
type SchedulerJob struct {
	*notify.Scheduler
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SchedulerJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSchedulerJob provides the running notification scheduler.
func ProvideSchedulerJob(i do.Injector) (*SchedulerJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	users := do.MustInvoke[*service.UserService](i)
	channels := do.MustInvoke[*service.ChannelService](i)
	botHandle := do.MustInvoke[*BotHandle](i)

	// Validated at startup; LoadConfig rejects unknown zones.
	location, err := time.LoadLocation(cfg.Notify.Timezone)
	if err != nil {
		return nil, err
	}

	scheduler := notify.New(users, channels, botHandle.Bot, notify.Config{
		Period:            cfg.Notify.Period,
		Location:          location,
		MessagesPerSecond: cfg.Notify.MessagesPerSecond,
	}, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go scheduler.Run(ctx)

	log.Info("Notification scheduler started",
		"period", cfg.Notify.Period,
		"timezone", cfg.Notify.Timezone,
	)

	return &SchedulerJob{Scheduler: scheduler, cancel: cancel}, nil
}

// StoreGCJob runs periodic value log garbage collection on the store.
type StoreGCJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *StoreGCJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideStoreGCJob provides the periodic store GC job.
func ProvideStoreGCJob(i do.Injector) (*StoreGCJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(storeGCPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := storeHandle.RunGC(); err != nil {
					log.Debug("Store GC found nothing to rewrite", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Store GC job started", "period", storeGCPeriod)

	return &StoreGCJob{cancel: cancel}, nil
}
