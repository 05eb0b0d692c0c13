package router

import (
	"github.com/oksasatya/staff-auth/internal/application"
	"github.com/oksasatya/staff-auth/internal/container"
	"github.com/oksasatya/staff-auth/internal/infrastructure/cache"
	"github.com/oksasatya/staff-auth/internal/infrastructure/queue"
	"github.com/oksasatya/staff-auth/internal/infrastructure/search"
	handlers "github.com/oksasatya/staff-auth/internal/interface/http"
	"github.com/oksasatya/staff-auth/internal/router/modules"
)

// buildDeps assembles service dependencies from the container. Optional
// collaborators are only set when their client exists, so the interfaces
// stay nil rather than holding typed nil pointers.
func buildDeps(c *container.Container) application.Deps {
	d := application.Deps{
		Repo:     c.Repo,
		JWT:      c.JWT,
		CacheTTL: c.Cfg.DirectoryCacheTTL,
		Logger:   c.Logger,
	}
	if c.Redis != nil {
		d.Cache = cache.NewDirectoryCache(c.Redis, c.Logger)
	}
	if c.ES != nil {
		d.Index = search.NewUserIndex(c.ES, c.Cfg.ESUsersIndex)
	}
	if c.RabbitPub != nil {
		d.Notifier = queue.NewEmailNotifier(c.RabbitPub, c.Cfg)
	}
	return d
}

// InitModules wires every module the configured service mounts.
// This function should be called once during application startup.
func InitModules(r *Registry, c *container.Container) {
	deps := buildDeps(c)
	authSvc := application.NewAuthService(deps)

	r.AddRoot(modules.NewHealthModule(handlers.NewHealthHandler(c)))

	if c.Cfg.MountsAuth() {
		r.Add(modules.NewAuthModule(handlers.NewAuthHandler(authSvc, c.Logger), authSvc))
	}
	if c.Cfg.MountsUsers() {
		userSvc := application.NewUserService(deps)
		r.Add(modules.NewUserModule(handlers.NewUserHandler(userSvc, c.Logger), authSvc))
	}
}
