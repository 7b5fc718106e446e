// Package helpers provides fixtures simulating machines running the agent.
package helpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/onsi/gomega"

	syncapp "github.com/kurum-rebirth/kurum-sync/internal/app"
	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/process"
	"github.com/kurum-rebirth/kurum-sync/internal/status"
)

// Platform is the platform every simulated machine reports
const Platform = "linux"

// GameConfig returns a sync config watching processName and syncing *.sav
// files below the save_dir init task answer
func GameConfig(name, processName string) string {
	return fmt.Sprintf(`name: %s
variables:
  - save_dir
platform:
  %s:
    watchers:
      - process_name: %s
    init_tasks:
      - type: folder_picker
        name: save_dir
        description: Select the save folder
    backup_tasks:
      - name: saves
        base_path: "@{save_dir}"
        pattern: "**/*.sav"
    restore_tasks:
      - name: saves
        path: "@{save_dir}"
`, name, Platform, processName)
}

// ScriptedLister returns the process snapshot set by SetRunning
type ScriptedLister struct {
	mu      sync.Mutex
	running process.Snapshot
}

// SetRunning replaces the running processes
func (l *ScriptedLister) SetRunning(names ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = process.NewSnapshot(names...)
}

// Snapshot implements process.Lister
func (l *ScriptedLister) Snapshot(_ context.Context) (process.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return process.NewSnapshot(keys(l.running)...), nil
}

func keys(s process.Snapshot) []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// Machine is one agent installation sharing remoteDir with other machines
type Machine struct {
	Config     *config.Config
	Lister     *ScriptedLister
	Components *syncapp.AppComponents
	SaveDir    string
}

// NewMachine lays out a data directory below root, installs the given sync
// configs (key -> YAML) and builds the agent components
func NewMachine(ctx context.Context, root, remoteDir string, configs map[string]string) *Machine {
	cfg := &config.Config{
		DataDir:  filepath.Join(root, "data"),
		Platform: Platform,
		Storage: &config.StorageConfig{
			Type:  config.StorageTypeLocal,
			Local: &config.LocalConfig{Root: remoteDir},
		},
	}

	gomega.Expect(os.MkdirAll(cfg.SyncConfigsDir(), 0750)).To(gomega.Succeed())
	for key, content := range configs {
		path := filepath.Join(cfg.SyncConfigsDir(), key+".yaml")
		gomega.Expect(os.WriteFile(path, []byte(content), 0600)).To(gomega.Succeed())
	}

	saveDir := filepath.Join(root, "saves")
	gomega.Expect(os.MkdirAll(saveDir, 0750)).To(gomega.Succeed())

	lister := &ScriptedLister{}
	components, err := syncapp.BuildComponents(ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithProcessLister(lister),
	)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	gomega.Expect(components.StateService.Initialize(ctx, components.Configs.All(), Platform)).To(gomega.Succeed())

	return &Machine{
		Config:     cfg,
		Lister:     lister,
		Components: components,
		SaveDir:    saveDir,
	}
}

// AnswerSaveDir points the save_dir init task of key at the machine's save directory
func (m *Machine) AnswerSaveDir(key string) {
	gomega.Expect(m.Components.Settings.Set(key, "save_dir", m.SaveDir)).To(gomega.Succeed())
}

// Poll runs one tick, including the reactivation hook the coordinator runs first
func (m *Machine) Poll(ctx context.Context) error {
	m.Components.Reactivator.Hook(ctx)
	return m.Components.Orchestrator.Poll(ctx)
}

// WriteSave writes a save file relative to the save directory
func (m *Machine) WriteSave(name, content string) {
	path := filepath.Join(m.SaveDir, filepath.FromSlash(name))
	gomega.Expect(os.MkdirAll(filepath.Dir(path), 0750)).To(gomega.Succeed())
	gomega.Expect(os.WriteFile(path, []byte(content), 0600)).To(gomega.Succeed())
}

// ReadSave reads a save file relative to the save directory
func (m *Machine) ReadSave(name string) (string, error) {
	// #nosec G304 -- test fixture
	data, err := os.ReadFile(filepath.Join(m.SaveDir, filepath.FromSlash(name)))
	return string(data), err
}

// Status returns the recorded sync status of key
func (m *Machine) Status(ctx context.Context, key string) *status.SyncStatus {
	s, err := m.Components.StateService.GetSyncStatus(ctx, key)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return s
}
