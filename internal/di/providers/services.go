package providers

import (
	"github.com/samber/do/v2"

	"github.com/membertagger/member-tagger/internal/logger"
	"github.com/membertagger/member-tagger/internal/service"
)

// ProvideUserService provides the member registry service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewUserService(storeHandle.Store, log.Logger), nil
}

// ProvideTagService provides the thread tagging service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideTaskService provides the personal task service.
func ProvideTaskService(i do.Injector) (*service.TaskService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewTaskService(storeHandle.Store, log.Logger), nil
}

// ProvideChannelService provides the notify channel directory service.
func ProvideChannelService(i do.Injector) (*service.ChannelService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewChannelService(storeHandle.Store, log.Logger), nil
}
