package app

import (
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/solucal/solucal/internal/config"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Login gate: mutations require a live session, reads stay public.
	r.Use(deps.AuthHandler.Gate)

	if deps.AuthHandler.Enabled() {
		log.Info("Login gate enabled for mutation routes")
	} else {
		log.Warn("No auth credentials configured, running open")
	}
}
