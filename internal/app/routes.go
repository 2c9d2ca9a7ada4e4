package app

import (
	"github.com/gorilla/mux"
	"github.com/solucal/solucal/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Occurrence projection (calendar views, embed widget)
	r.HandleFunc("/api/event/occurrences", deps.EventHandler.GetOccurrences).
		Queries("start_date", "{start_date}", "end_date", "{end_date}").Methods("GET")
	// Without both window params the handler rejects with a validation error.
	r.HandleFunc("/api/event/occurrences", deps.EventHandler.GetOccurrences).Methods("GET")

	// Events
	r.HandleFunc("/api/event", deps.EventHandler.ListEvents).Queries("from", "{from}", "to", "{to}").Methods("GET")
	r.HandleFunc("/api/event", deps.EventHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/event", deps.EventHandler.DeleteEvents).Methods("DELETE")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.GetEvent).Methods("GET")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/api/event/{eventId}/duplicate", deps.EventHandler.DuplicateEvent).Methods("POST")

	// Login gate
	r.HandleFunc("/api/auth/login", deps.AuthHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", deps.AuthHandler.Logout).Methods("POST")
}
