// Package settings persists the per-config user settings that answer init
// tasks and supply path variables.
//
// Each config key owns one YAML document {kurum_version, values}. The
// document is read from disk on every lookup and rewritten on every update so
// that the daemon and the CLI always observe each other's writes. A file lock
// next to the document serializes readers and writers across processes.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const (
	// CurrentVersion is the document version written by this agent
	CurrentVersion = 1

	fileExt = ".yaml"
	lockExt = ".lock"
)

// SyncUserSetting is the persisted settings document of one config
type SyncUserSetting struct {
	KurumVersion int            `yaml:"kurum_version"`
	Values       map[string]any `yaml:"values"`
}

// Store reads and writes user settings keyed by config key
type Store interface {
	// Read loads the whole document for key. A missing document is empty.
	Read(key string) (*SyncUserSetting, error)

	// Get returns the value of name for key and whether it is present
	Get(key, name string) (any, bool, error)

	// GetString returns the value of name formatted as a string, or "" if unset
	GetString(key, name string) (string, error)

	// Set stores value under name for key, rewriting the document
	Set(key, name string, value any) error

	// Delete removes name from the document for key
	Delete(key, name string) error

	// Dir returns the directory holding the documents
	Dir() string
}

// fileStore implements Store on the local filesystem
type fileStore struct {
	dir string
}

// NewFileStore creates a Store writing one document per key below dir
func NewFileStore(dir string) Store {
	return &fileStore{dir: dir}
}

func (s *fileStore) Dir() string {
	return s.dir
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *fileStore) lock(key string) *flock.Flock {
	return flock.New(s.path(key) + lockExt)
}

func (s *fileStore) Read(key string) (*SyncUserSetting, error) {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	fl := s.lock(key)
	if err := fl.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock settings for '%s': %w", key, err)
	}
	defer func() { _ = fl.Unlock() }()

	return s.readUnlocked(key)
}

func (s *fileStore) readUnlocked(key string) (*SyncUserSetting, error) {
	// #nosec G304 -- path is built from the settings dir and a config key
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return newSetting(), nil
		}
		return nil, fmt.Errorf("failed to read settings for '%s': %w", key, err)
	}

	setting := newSetting()
	if err := yaml.Unmarshal(data, setting); err != nil {
		return nil, fmt.Errorf("failed to parse settings for '%s': %w", key, err)
	}
	if setting.Values == nil {
		setting.Values = make(map[string]any)
	}
	return setting, nil
}

func (s *fileStore) Get(key, name string) (any, bool, error) {
	setting, err := s.Read(key)
	if err != nil {
		return nil, false, err
	}
	value, ok := setting.Values[name]
	return value, ok, nil
}

func (s *fileStore) GetString(key, name string) (string, error) {
	value, ok, err := s.Get(key, name)
	if err != nil || !ok || value == nil {
		return "", err
	}
	if str, isStr := value.(string); isStr {
		return str, nil
	}
	return fmt.Sprint(value), nil
}

func (s *fileStore) Set(key, name string, value any) error {
	return s.update(key, func(setting *SyncUserSetting) {
		setting.Values[name] = value
	})
}

func (s *fileStore) Delete(key, name string) error {
	return s.update(key, func(setting *SyncUserSetting) {
		delete(setting.Values, name)
	})
}

// update applies fn to the current document under an exclusive lock and
// writes the result back atomically
func (s *fileStore) update(key string, fn func(*SyncUserSetting)) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	fl := s.lock(key)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("failed to lock settings for '%s': %w", key, err)
	}
	defer func() { _ = fl.Unlock() }()

	setting, err := s.readUnlocked(key)
	if err != nil {
		return err
	}
	fn(setting)
	setting.KurumVersion = CurrentVersion

	data, err := yaml.Marshal(setting)
	if err != nil {
		return fmt.Errorf("failed to marshal settings for '%s': %w", key, err)
	}

	filePath := s.path(key)
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary settings file for '%s': %w", key, err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename settings file for '%s': %w", key, err)
	}
	return nil
}

func newSetting() *SyncUserSetting {
	return &SyncUserSetting{
		KurumVersion: CurrentVersion,
		Values:       make(map[string]any),
	}
}

// IsSet reports whether value counts as answered: nil, empty strings,
// false, zero numbers and empty collections do not.
func IsSet(value any) bool {
	if value == nil {
		return false
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return v.Len() > 0
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0
	default:
		return true
	}
}

// SortedNames returns the setting names of a document in lexical order
func (s *SyncUserSetting) SortedNames() []string {
	names := make([]string, 0, len(s.Values))
	for name := range s.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
