package app

import (
	"cache-factory/internal/handlers"
	"cache-factory/internal/middleware"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers) {
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Diagnostics
	api.HandleFunc("/managers", h.GetManagers).Methods("GET")
	api.HandleFunc("/creators", h.GetCreators).Methods("GET")
	api.HandleFunc("/distributed", h.GetDistributed).Methods("GET")

	// Caches held by this process
	api.HandleFunc("/caches", h.ListCaches).Methods("GET")
	api.HandleFunc("/caches", h.CreateCache).Methods("POST")
	api.HandleFunc("/caches/{name}/entries/{key}", h.GetEntry).Methods("GET")
	api.HandleFunc("/caches/{name}/entries/{key}", h.PutEntry).Methods("PUT")
	api.HandleFunc("/caches/{name}/entries/{key}", h.DeleteEntry).Methods("DELETE")
}
