package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"cache-factory/internal/cache"
	"cache-factory/internal/common/errors"
	"cache-factory/internal/common/logging"

	"github.com/gorilla/mux"
)

const maxValueBytes = 1 << 20

// createCacheRequest is the JSON body of POST /api/caches. Durations are Go
// duration strings such as "10m".
type createCacheRequest struct {
	Name           string `json:"name"`
	Label          string `json:"label"`
	Kind           string `json:"kind"`
	Implementation string `json:"implementation"`
	Distributed    bool   `json:"distributed"`
	Replicated     bool   `json:"replicated"`
	MaxSize        int    `json:"max_size"`
	LiveTime       string `json:"live_time"`
	MaxIdle        string `json:"max_idle"`
}

func (req createCacheRequest) toConfig() (cache.RequestConfig, error) {
	cfg := cache.RequestConfig{
		Name:           req.Name,
		Label:          req.Label,
		Kind:           cache.Kind(req.Kind),
		Implementation: req.Implementation,
		Distributed:    req.Distributed,
		Replicated:     req.Replicated,
		MaxSize:        req.MaxSize,
	}

	var err error
	if cfg.LiveTime, err = parseDuration("live_time", req.LiveTime); err != nil {
		return cfg, err
	}
	if cfg.MaxIdle, err = parseDuration("max_idle", req.MaxIdle); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.ValidationError(fmt.Sprintf("field '%s' must be a valid duration", field))
	}
	return d, nil
}

type cacheSummary struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Size  int    `json:"size"`
	Error string `json:"error,omitempty"`
}

func (h *Handlers) summarize(r *http.Request, c cache.Cache) cacheSummary {
	summary := cacheSummary{Name: c.Name(), Label: c.Label()}
	size, err := c.Size(r.Context())
	if err != nil {
		summary.Error = err.Error()
	}
	summary.Size = size
	return summary
}

// ListCaches lists the caches created through the API
// @Summary List caches
// @Tags caches
// @Produce json
// @Success 200 {array} cacheSummary
// @Router /api/caches [get]
func (h *Handlers) ListCaches(w http.ResponseWriter, r *http.Request) {
	caches := h.caches.Snapshot()

	summaries := make([]cacheSummary, 0, len(caches))
	for _, c := range caches {
		summaries = append(summaries, h.summarize(r, c))
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })

	writeJSON(w, http.StatusOK, summaries)
}

// CreateCache creates a cache through the factory
// @Summary Create a cache
// @Tags caches
// @Accept json
// @Produce json
// @Param request body createCacheRequest true "Cache request"
// @Success 201 {object} cacheSummary
// @Failure 400 {object} errorResponse "Invalid request"
// @Failure 409 {object} errorResponse "Cache already exists"
// @Failure 422 {object} errorResponse "Configuration error"
// @Failure 503 {object} errorResponse "Manager failed to start"
// @Router /api/caches [post]
func (h *Handlers) CreateCache(w http.ResponseWriter, r *http.Request) {
	var body createCacheRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.ValidationError("request body must be a JSON object").WithCause(err))
		return
	}

	req, err := body.toConfig()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if h.caches.IsRegistered(req.Name) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: fmt.Sprintf("cache '%s' already exists", req.Name)})
		return
	}

	c, err := h.factory.CreateCache(r.Context(), req)
	if err != nil {
		h.logger.Warn("Cache creation failed", logging.String("cache", req.Name), logging.Err(err))
		writeError(w, statusFor(err), err)
		return
	}
	if !h.caches.RegisterIfAbsent(req.Name, c) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: fmt.Sprintf("cache '%s' already exists", req.Name)})
		return
	}

	writeJSON(w, http.StatusCreated, h.summarize(r, c))
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (cache.Cache, string, bool) {
	vars := mux.Vars(r)
	c, ok := h.caches.Lookup(vars["name"])
	if !ok {
		writeError(w, http.StatusNotFound, errors.NotFoundError(fmt.Sprintf("cache '%s'", vars["name"])))
		return nil, "", false
	}
	return c, vars["key"], true
}

// GetEntry reads one entry
// @Summary Read a cache entry
// @Tags caches
// @Produce json
// @Param name path string true "Cache name"
// @Param key path string true "Entry key"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorResponse "Cache or entry not found"
// @Router /api/caches/{name}/entries/{key} [get]
func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	c, key, ok := h.lookup(w, r)
	if !ok {
		return
	}

	value, found := c.Get(r.Context(), key)
	if !found {
		writeError(w, http.StatusNotFound, errors.NotFoundError(fmt.Sprintf("entry '%s'", key)))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"key": key, "value": value})
}

// PutEntry stores the JSON request body under key
// @Summary Write a cache entry
// @Tags caches
// @Accept json
// @Param name path string true "Cache name"
// @Param key path string true "Entry key"
// @Success 204
// @Failure 400 {object} errorResponse "Body is not JSON"
// @Failure 404 {object} errorResponse "Cache not found"
// @Router /api/caches/{name}/entries/{key} [put]
func (h *Handlers) PutEntry(w http.ResponseWriter, r *http.Request) {
	c, key, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxValueBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		writeError(w, http.StatusBadRequest, errors.ValidationError("entry value must be JSON").WithCause(err))
		return
	}

	if err := c.Put(r.Context(), key, value); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry removes one entry
// @Summary Delete a cache entry
// @Tags caches
// @Param name path string true "Cache name"
// @Param key path string true "Entry key"
// @Success 204
// @Failure 404 {object} errorResponse "Cache not found"
// @Router /api/caches/{name}/entries/{key} [delete]
func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	c, key, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := c.Remove(r.Context(), key); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
