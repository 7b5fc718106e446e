package syncconfig

import "fmt"

// Set is the in-memory collection of sync configs for one host platform.
//
// A Set is not safe for concurrent use: it is owned by the polling loop and
// every mutation from outside must be serialized through that loop.
type Set struct {
	platform string

	configs []*SyncConfig
	byKey   map[string]*SyncConfig

	// watchers maps a process name to the configs registered against it
	watchers map[string][]*SyncConfig
}

// NewSet creates a Set for platform and adds configs in order
func NewSet(platform string, configs ...*SyncConfig) (*Set, error) {
	s := &Set{
		platform: platform,
		byKey:    make(map[string]*SyncConfig),
		watchers: make(map[string][]*SyncConfig),
	}
	for _, cfg := range configs {
		if err := s.Add(cfg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers cfg. Configs without options for the set's platform are kept
// but never registered with the watcher index.
func (s *Set) Add(cfg *SyncConfig) error {
	if cfg == nil {
		return fmt.Errorf("sync config cannot be nil")
	}
	if cfg.Key == "" {
		return fmt.Errorf("sync config %q has no key", cfg.Name)
	}
	if _, exists := s.byKey[cfg.Key]; exists {
		return fmt.Errorf("duplicate sync config key %q", cfg.Key)
	}

	s.configs = append(s.configs, cfg)
	s.byKey[cfg.Key] = cfg

	opts := cfg.Options(s.platform)
	if opts == nil {
		return nil
	}
	for _, w := range opts.Watchers {
		s.watchers[w.ProcessName] = append(s.watchers[w.ProcessName], cfg)
	}
	return nil
}

// Platform returns the platform identifier the set was built for
func (s *Set) Platform() string {
	return s.platform
}

// Get returns the config with the given key
func (s *Set) Get(key string) (*SyncConfig, bool) {
	cfg, ok := s.byKey[key]
	return cfg, ok
}

// All returns every config in insertion order
func (s *Set) All() []*SyncConfig {
	out := make([]*SyncConfig, len(s.configs))
	copy(out, s.configs)
	return out
}

// Watching returns the configs watching processName
func (s *Set) Watching(processName string) []*SyncConfig {
	return s.watchers[processName]
}

// HasWatchers reports whether any config watches processName
func (s *Set) HasWatchers(processName string) bool {
	return len(s.watchers[processName]) > 0
}

// Len returns the number of configs in the set
func (s *Set) Len() int {
	return len(s.configs)
}
