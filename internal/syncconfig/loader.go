package syncconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kurum-rebirth/kurum-sync/internal/filtering"
	"github.com/kurum-rebirth/kurum-sync/internal/versions"
)

const configFileExt = ".yaml"

// variableToken matches an @{name} path variable reference
var variableToken = regexp.MustCompile(`@\{([^}]*)\}`)

// LoaderOption configures LoadDir
type LoaderOption func(*loader)

type loader struct {
	agentVersion string
}

// WithAgentVersion sets the version configs declaring min_version are checked against
func WithAgentVersion(version string) LoaderOption {
	return func(l *loader) {
		l.agentVersion = version
	}
}

// LoadDir reads every *.yaml file in dir in lexical order. The file stem
// becomes the config key. Files that fail to parse or validate, and configs
// requiring a newer agent, are skipped with a warning. A missing directory
// yields no configs.
func LoadDir(dir string, opts ...LoaderOption) ([]*SyncConfig, error) {
	l := &loader{agentVersion: versions.GetVersionInfo().Version}
	for _, opt := range opts {
		opt(l)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("Sync config directory does not exist", "dir", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sync config directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != configFileExt {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var configs []*SyncConfig
	for _, name := range names {
		path := filepath.Join(dir, name)
		cfg, err := LoadFile(path)
		if err != nil {
			slog.Warn("Skipping sync config", "path", path, "error", err)
			continue
		}

		ok, err := versions.SatisfiesMinimum(l.agentVersion, cfg.MinVersion)
		if err != nil {
			slog.Warn("Skipping sync config", "path", path, "error", err)
			continue
		}
		if !ok {
			slog.Warn("Skipping sync config requiring a newer agent",
				"config", cfg.Key,
				"min_version", cfg.MinVersion,
				"agent_version", l.agentVersion)
			continue
		}

		slog.Info("Adding sync config", "config", cfg.Key, "name", cfg.Name, "path", path)
		configs = append(configs, cfg)
	}

	return configs, nil
}

// LoadFile parses and validates a single sync config file
func LoadFile(path string) (*SyncConfig, error) {
	// #nosec G304 -- path comes from the agent's own data directory listing
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync config: %w", err)
	}

	var cfg SyncConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse sync config: %w", err)
	}
	cfg.Key = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sync config %s: %w", cfg.Key, err)
	}
	if err := ValidateSchema(data); err != nil {
		return nil, fmt.Errorf("invalid sync config %s: %w", cfg.Key, err)
	}
	return &cfg, nil
}

// Validate performs validation on the sync config
func (c *SyncConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.Platform) == 0 {
		return fmt.Errorf("at least one platform must be configured")
	}

	declared := make(map[string]bool, len(c.Variables))
	for _, name := range c.Variables {
		declared[name] = true
	}

	for platform, opts := range c.Platform {
		if opts == nil {
			return fmt.Errorf("platform[%s]: options cannot be empty", platform)
		}
		if err := opts.validate(fmt.Sprintf("platform[%s]", platform), declared); err != nil {
			return err
		}
	}
	return nil
}

func (o *PlatformSyncOptions) validate(prefix string, declared map[string]bool) error {
	for i, w := range o.Watchers {
		if w.ProcessName == "" {
			return fmt.Errorf("%s: watchers[%d]: process_name is required", prefix, i)
		}
	}

	initNames := make(map[string]bool)
	for i, task := range o.InitTasks {
		if task.Name == "" {
			return fmt.Errorf("%s: init_tasks[%d]: name is required", prefix, i)
		}
		if task.Type != InitTaskTypeFolderPicker {
			return fmt.Errorf("%s: init_tasks[%d] (%s): unsupported type '%s'", prefix, i, task.Name, task.Type)
		}
		if initNames[task.Name] {
			return fmt.Errorf("%s: init_tasks[%d]: duplicate name '%s'", prefix, i, task.Name)
		}
		initNames[task.Name] = true
	}

	backupNames := make(map[string]bool)
	for i, task := range o.BackupTasks {
		taskPrefix := fmt.Sprintf("%s: backup_tasks[%d] (%s)", prefix, i, task.Name)
		if err := validateTaskName(task.Name); err != nil {
			return fmt.Errorf("%s: %w", taskPrefix, err)
		}
		if backupNames[task.Name] {
			return fmt.Errorf("%s: duplicate name", taskPrefix)
		}
		backupNames[task.Name] = true

		if task.BasePath == "" {
			return fmt.Errorf("%s: base_path is required", taskPrefix)
		}
		if err := checkVariables(task.BasePath, declared); err != nil {
			return fmt.Errorf("%s: base_path: %w", taskPrefix, err)
		}
		if task.Pattern == "" {
			return fmt.Errorf("%s: pattern is required", taskPrefix)
		}
		if err := filtering.ValidatePattern(task.Pattern); err != nil {
			return fmt.Errorf("%s: invalid pattern: %w", taskPrefix, err)
		}
		for _, exclude := range task.Excludes {
			if err := filtering.ValidatePattern(exclude); err != nil {
				return fmt.Errorf("%s: invalid exclude '%s': %w", taskPrefix, exclude, err)
			}
		}
	}

	restoreNames := make(map[string]bool)
	for i, task := range o.RestoreTasks {
		taskPrefix := fmt.Sprintf("%s: restore_tasks[%d] (%s)", prefix, i, task.Name)
		if err := validateTaskName(task.Name); err != nil {
			return fmt.Errorf("%s: %w", taskPrefix, err)
		}
		if restoreNames[task.Name] {
			return fmt.Errorf("%s: duplicate name", taskPrefix)
		}
		restoreNames[task.Name] = true

		if task.Path == "" {
			return fmt.Errorf("%s: path is required", taskPrefix)
		}
		if err := checkVariables(task.Path, declared); err != nil {
			return fmt.Errorf("%s: path: %w", taskPrefix, err)
		}
	}

	return nil
}

// validateTaskName rejects names that cannot be used as an archive file name
func validateTaskName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("name must be a plain file name")
	}
	return nil
}

// checkVariables rejects @{name} references that are not declared in the
// config's variables, since those are never expanded
func checkVariables(path string, declared map[string]bool) error {
	for _, match := range variableToken.FindAllStringSubmatch(path, -1) {
		if !declared[match[1]] {
			return fmt.Errorf("variable '%s' is not declared in variables", match[1])
		}
	}
	return nil
}
