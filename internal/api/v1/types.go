package v1

import "github.com/kurum-rebirth/kurum-sync/internal/status"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ConfigStatus is the sync status of one config
type ConfigStatus struct {
	Key string `json:"key"`
	*status.SyncStatus
}

// ConfigListResponse lists the sync status of every known config
type ConfigListResponse struct {
	Configs []ConfigStatus `json:"configs"`
	Total   int            `json:"total"`
}
