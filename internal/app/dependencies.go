package app

import (
	"database/sql"

	"github.com/solucal/solucal/internal/auth"
	"github.com/solucal/solucal/internal/config"
	"github.com/solucal/solucal/internal/notify"
	"github.com/solucal/solucal/internal/utils"
	"github.com/solucal/solucal/pkg/event"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus   *notify.Bus
	Clock utils.Clock

	Sessions    *auth.Sessions
	AuthHandler *auth.Handler

	EventRepository *event.RepositoryImpl
	ProjectionCache *event.ProjectionCache
	EventService    *event.Service
	EventHandler    *event.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.Bus = notify.NewBus()

	deps.Sessions = auth.NewSessions(deps.Clock)
	deps.AuthHandler = auth.NewHandler(cfg.Auth, deps.Sessions, cfg.Host)

	deps.EventRepository = event.NewRepository(db)
	deps.ProjectionCache = event.NewProjectionCache(deps.Clock, event.DefaultCacheTTL)
	deps.EventService = event.NewService(deps.EventRepository, deps.Bus, deps.ProjectionCache)
	deps.EventHandler = event.NewHandler(deps.EventService)

	// Every store mutation invalidates cached occurrence projections.
	deps.Bus.Subscribe(func(notify.Change) {
		deps.ProjectionCache.Clear()
	})

	return deps
}
