package app

import (
	"net/http"

	"cache-factory/internal/handlers"
	"cache-factory/internal/server"

	"github.com/gorilla/mux"
)

// Router builds the diagnostics API router.
func (app *App) Router() http.Handler {
	h := handlers.New(app.Factory, app.Distributed, app.Logger)

	router := mux.NewRouter()
	SetupRoutes(router, h)
	return router
}

// RunServer creates the HTTP server for the diagnostics API
func (app *App) RunServer() *server.Server {
	return server.New(app.Router(), app.Config.Port, app.Logger)
}
