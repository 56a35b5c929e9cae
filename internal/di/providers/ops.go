package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/membertagger/member-tagger/internal/config"
	"github.com/membertagger/member-tagger/internal/logger"
	"github.com/membertagger/member-tagger/internal/ops"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// OpsServerHandle wraps the ops HTTP server with shutdown capability.
type OpsServerHandle struct {
	server *ops.Server
}

// Shutdown implements do.Shutdownable.
func (h *OpsServerHandle) Shutdown() error {
	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.server.Shutdown(ctx)
}

// ProvideOpsServer provides the operational HTTP listener. An empty
// address disables it.
func ProvideOpsServer(i do.Injector) (*OpsServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Ops.Addr == "" {
		log.Info("Ops listener disabled")
		return &OpsServerHandle{}, nil
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	server := ops.New(cfg.Ops.Addr, storeHandle.Store, Version, log.Logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("Ops listener failed", "error", err)
		}
	}()

	return &OpsServerHandle{server: server}, nil
}
