// Package v1 provides the handlers of the status server.
package v1

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/kurum-rebirth/kurum-sync/internal/api/common"
	"github.com/kurum-rebirth/kurum-sync/internal/sync/state"
	"github.com/kurum-rebirth/kurum-sync/internal/versions"
)

// Routes serves the sync status of the agent's configs
type Routes struct {
	statusSvc state.ConfigStateService
}

// Router creates the router for the config status routes
func Router(statusSvc state.ConfigStateService) http.Handler {
	routes := &Routes{statusSvc: statusSvc}

	r := chi.NewRouter()
	r.Get("/configs", routes.listConfigs)
	r.Get("/configs/{key}", routes.getConfig)

	return r
}

// listConfigs handles GET /v1/configs
func (rr *Routes) listConfigs(w http.ResponseWriter, r *http.Request) {
	statuses, err := rr.statusSvc.ListSyncStatuses(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list sync statuses", "error", err)
		common.WriteError(w, http.StatusInternalServerError, "Failed to list sync statuses")
		return
	}

	keys := make([]string, 0, len(statuses))
	for key := range statuses {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	resp := ConfigListResponse{Configs: make([]ConfigStatus, 0, len(keys)), Total: len(keys)}
	for _, key := range keys {
		resp.Configs = append(resp.Configs, ConfigStatus{Key: key, SyncStatus: statuses[key]})
	}

	common.WriteJSON(w, http.StatusOK, resp)
}

// getConfig handles GET /v1/configs/{key}
func (rr *Routes) getConfig(w http.ResponseWriter, r *http.Request) {
	key, err := common.GetConfigKeyParam(r, "key")
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := rr.statusSvc.GetSyncStatus(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to get sync status", "config", key, "error", err)
		common.WriteError(w, http.StatusInternalServerError, "Failed to get sync status")
		return
	}
	if s == nil {
		common.WriteError(w, http.StatusNotFound, "Config not found")
		return
	}

	common.WriteJSON(w, http.StatusOK, ConfigStatus{Key: key, SyncStatus: s})
}

// HealthRouter creates the router for liveness, readiness and version routes.
// A nil readiness check always reports ready.
func HealthRouter(readiness func(context.Context) error) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(readiness))
	r.Get("/version", versionHandler)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func readinessHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				common.WriteJSON(w, http.StatusServiceUnavailable, ReadinessResponse{
					Status: "not ready",
					Error:  err.Error(),
				})
				return
			}
		}
		common.WriteJSON(w, http.StatusOK, ReadinessResponse{Status: "ready"})
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSON(w, http.StatusOK, versions.GetVersionInfo())
}
