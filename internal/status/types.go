package status

import "time"

// SyncPhase represents the current phase of a sync config
type SyncPhase string

const (
	// SyncPhaseActive means the config is polled and waiting for a trigger
	SyncPhaseActive SyncPhase = "Active"

	// SyncPhaseSuspended means the config waits for a required user setting
	SyncPhaseSuspended SyncPhase = "Suspended"

	// SyncPhaseInactive means the config is disabled or has no options for
	// the host platform
	SyncPhaseInactive SyncPhase = "Inactive"

	// SyncPhaseBackingUp means a backup is in progress
	SyncPhaseBackingUp SyncPhase = "BackingUp"

	// SyncPhaseRestoring means a restore is in progress
	SyncPhaseRestoring SyncPhase = "Restoring"

	// SyncPhaseComplete means the last backup or restore succeeded
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last backup or restore failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// Operation identifies what a sync run did
type Operation string

const (
	// OperationBackup packs and uploads local files
	OperationBackup Operation = "backup"

	// OperationRestore downloads and extracts remote archives
	OperationRestore Operation = "restore"
)

// SyncStatus represents the current state of one sync config
type SyncStatus struct {
	// Phase represents the current phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the status
	Message string `json:"message,omitempty"`

	// PendingInitTask names the init task the config is suspended on
	PendingInitTask string `json:"pendingInitTask,omitempty"`

	// LastOperation is the operation of the most recent run
	LastOperation Operation `json:"lastOperation,omitempty"`

	// LastRunID correlates the most recent run with its log lines
	LastRunID string `json:"lastRunID,omitempty"`

	// LastAttempt is the timestamp of the last backup or restore attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of failed attempts since the last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastBackupTime is the timestamp of the last successful backup
	LastBackupTime *time.Time `json:"lastBackupTime,omitempty"`

	// LastRestoreTime is the timestamp of the last successful restore
	LastRestoreTime *time.Time `json:"lastRestoreTime,omitempty"`

	// Marker is the local last-sync marker after the last successful run
	Marker int64 `json:"marker,omitempty"`
}
