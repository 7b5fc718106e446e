// Package events defines the notifications the sync orchestrator sends to its
// host while it works.
package events

import (
	"log/slog"

	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

//go:generate mockgen -destination=mocks/mock_handler.go -package=mocks -source=events.go Handler

// Handler receives lifecycle notifications. Calls are made synchronously from
// the polling loop, so implementations must return promptly.
type Handler interface {
	// OnInitTaskRequired is called once when a config is suspended because
	// task has not been answered
	OnInitTaskRequired(cfg *syncconfig.SyncConfig, task *syncconfig.InitTask)

	OnBackupStart(cfg *syncconfig.SyncConfig)
	OnBackupEnd(cfg *syncconfig.SyncConfig)
	OnRestoreStart(cfg *syncconfig.SyncConfig)
	OnRestoreEnd(cfg *syncconfig.SyncConfig)
}

// logHandler implements Handler by logging every notification
type logHandler struct {
	logger *slog.Logger
}

// NewLogHandler returns a Handler that logs notifications with slog
func NewLogHandler() Handler {
	return &logHandler{logger: slog.Default().With("component", "events")}
}

func (h *logHandler) OnInitTaskRequired(cfg *syncconfig.SyncConfig, task *syncconfig.InitTask) {
	h.logger.Warn("Sync config requires user input",
		"config", cfg.Key,
		"task", task.Name,
		"type", task.Type,
		"description", task.Description)
}

func (h *logHandler) OnBackupStart(cfg *syncconfig.SyncConfig) {
	h.logger.Info("Backup started", "config", cfg.Key)
}

func (h *logHandler) OnBackupEnd(cfg *syncconfig.SyncConfig) {
	h.logger.Info("Backup finished", "config", cfg.Key)
}

func (h *logHandler) OnRestoreStart(cfg *syncconfig.SyncConfig) {
	h.logger.Info("Restore started", "config", cfg.Key)
}

func (h *logHandler) OnRestoreEnd(cfg *syncconfig.SyncConfig) {
	h.logger.Info("Restore finished", "config", cfg.Key)
}

// multiHandler fans every notification out to several handlers in order
type multiHandler []Handler

// Multi returns a Handler forwarding to each non-nil handler in order
func Multi(handlers ...Handler) Handler {
	var m multiHandler
	for _, h := range handlers {
		if h != nil {
			m = append(m, h)
		}
	}
	return m
}

func (m multiHandler) OnInitTaskRequired(cfg *syncconfig.SyncConfig, task *syncconfig.InitTask) {
	for _, h := range m {
		h.OnInitTaskRequired(cfg, task)
	}
}

func (m multiHandler) OnBackupStart(cfg *syncconfig.SyncConfig) {
	for _, h := range m {
		h.OnBackupStart(cfg)
	}
}

func (m multiHandler) OnBackupEnd(cfg *syncconfig.SyncConfig) {
	for _, h := range m {
		h.OnBackupEnd(cfg)
	}
}

func (m multiHandler) OnRestoreStart(cfg *syncconfig.SyncConfig) {
	for _, h := range m {
		h.OnRestoreStart(cfg)
	}
}

func (m multiHandler) OnRestoreEnd(cfg *syncconfig.SyncConfig) {
	for _, h := range m {
		h.OnRestoreEnd(cfg)
	}
}
