package config

import "path/filepath"

// Layout of the data root. Every path the agent persists lives below DataDir.
const (
	syncConfigsDirName  = "sync_configs"
	userSettingsDirName = "user_settings"
	lastSyncDirName     = "last_sync"
	statusDirName       = "status"
	tempDirName         = "temp"
	lockFileName        = "kurum.lock"
)

// SyncConfigsDir returns the directory scanned for sync configuration files
func (c *Config) SyncConfigsDir() string {
	return filepath.Join(c.GetDataDir(), syncConfigsDirName)
}

// UserSettingsDir returns the directory holding per-config user settings
func (c *Config) UserSettingsDir() string {
	return filepath.Join(c.GetDataDir(), userSettingsDirName)
}

// LastSyncDir returns the directory holding local last-sync markers
func (c *Config) LastSyncDir() string {
	return filepath.Join(c.GetDataDir(), lastSyncDirName)
}

// StatusDir returns the directory holding per-config status records
func (c *Config) StatusDir() string {
	return filepath.Join(c.GetDataDir(), statusDirName)
}

// TempDir returns the scratch directory for archives in flight
func (c *Config) TempDir() string {
	return filepath.Join(c.GetDataDir(), tempDirName)
}

// LockFile returns the path of the single-instance lock file
func (c *Config) LockFile() string {
	return filepath.Join(c.GetDataDir(), lockFileName)
}
