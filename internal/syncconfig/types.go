// Package syncconfig contains the sync configuration data model, its loader
// and the in-memory set the orchestrator polls over.
package syncconfig

// InitTaskTypeFolderPicker asks the user to select a directory
const InitTaskTypeFolderPicker = "folder_picker"

// SyncConfig describes one synchronized application.
//
// Key is not read from YAML: it is derived from the name of the file the
// config was loaded from and is unique within a Set.
type SyncConfig struct {
	Key        string                          `yaml:"-"`
	Name       string                          `yaml:"name"`
	Disabled   bool                            `yaml:"disabled,omitempty"`
	MinVersion string                          `yaml:"min_version,omitempty"`
	Variables  []string                        `yaml:"variables,omitempty"`
	Platform   map[string]*PlatformSyncOptions `yaml:"platform"`
}

// PlatformSyncOptions holds everything a SyncConfig does on one platform
type PlatformSyncOptions struct {
	Watchers     []SyncWatcher `yaml:"watchers"`
	InitTasks    []InitTask    `yaml:"init_tasks,omitempty"`
	BackupTasks  []BackupTask  `yaml:"backup_tasks,omitempty"`
	RestoreTasks []RestoreTask `yaml:"restore_tasks,omitempty"`
}

// SyncWatcher names a process whose exit triggers a backup
type SyncWatcher struct {
	ProcessName string `yaml:"process_name"`
}

// BackupTask packs the files matching Pattern below BasePath into {Name}.zip.
// Files matching any of Excludes are left out.
type BackupTask struct {
	Name     string   `yaml:"name"`
	BasePath string   `yaml:"base_path"`
	Pattern  string   `yaml:"pattern"`
	Excludes []string `yaml:"excludes,omitempty"`
}

// RestoreTask extracts {Name}.zip into Path
type RestoreTask struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// InitTask is a one-time input the user must provide before the config runs
type InitTask struct {
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Required defaults to true when omitted
	Required *bool `yaml:"required,omitempty"`
}

// IsRequired reports whether an unanswered task suspends its config
func (t *InitTask) IsRequired() bool {
	return t.Required == nil || *t.Required
}

// Options returns the options for platform, or nil if the config is inert there
func (c *SyncConfig) Options(platform string) *PlatformSyncOptions {
	if c == nil || c.Platform == nil {
		return nil
	}
	return c.Platform[platform]
}

// IsActive reports whether the config takes part in polling on platform
func (c *SyncConfig) IsActive(platform string) bool {
	return !c.Disabled && c.Options(platform) != nil
}
