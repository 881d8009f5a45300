// Package handlers exposes the cache factory over a small JSON API.
package handlers

import (
	"encoding/json"
	"net/http"

	"cache-factory/internal/cache"
	"cache-factory/internal/cache/distributed"
	"cache-factory/internal/common/errors"
	"cache-factory/internal/common/logging"
	"cache-factory/internal/common/registry"
)

// Handlers serves the diagnostics API. Created caches are held here, by the
// host, and not by the factory.
type Handlers struct {
	factory     *cache.Factory
	distributed *distributed.Manager
	caches      *registry.Registry[string, cache.Cache]
	logger      logging.Logger
}

// New creates the handlers. dist may be nil when distributed caches are
// disabled.
func New(factory *cache.Factory, dist *distributed.Manager, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		factory:     factory,
		distributed: dist,
		caches:      registry.New[string, cache.Cache](),
		logger:      logger.WithFields(logging.String("component", "handlers")),
	}
}

// Caches returns the handles created through the API.
func (h *Handlers) Caches() map[string]cache.Cache {
	return h.caches.Snapshot()
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Type:  string(innermostType(err)),
	})
}

// statusFor maps the most specific error kind in err's chain to a status.
func statusFor(err error) int {
	switch {
	case errors.IsType(err, errors.ErrTypeValidation):
		return http.StatusBadRequest
	case errors.IsType(err, errors.ErrTypeNotFound):
		return http.StatusNotFound
	case errors.IsType(err, errors.ErrTypeConfig):
		return http.StatusUnprocessableEntity
	case errors.IsType(err, errors.ErrTypeManagerStart), errors.IsType(err, errors.ErrTypeConnection):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func innermostType(err error) errors.ErrorType {
	for _, t := range []errors.ErrorType{
		errors.ErrTypeValidation,
		errors.ErrTypeNotFound,
		errors.ErrTypeConfig,
		errors.ErrTypeManagerStart,
		errors.ErrTypeConnection,
	} {
		if errors.IsType(err, t) {
			return t
		}
	}
	return errors.GetType(err)
}
