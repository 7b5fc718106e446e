package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
)

// Constructor creates the ObjectStore of a storage type from its configuration.
// Backends register a Constructor from an init function:
//
//	func init() {
//	    storage.Register(config.StorageTypeS3, New)
//	}
type Constructor func(ctx context.Context, cfg *config.StorageConfig) (ObjectStore, error)

var (
	registry      = make(map[string]Constructor)
	registryMutex sync.RWMutex
)

// Register registers the constructor of a storage type. It panics if the
// constructor is nil or the type is already registered.
func Register(storageType string, constructor Constructor) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if constructor == nil {
		panic(fmt.Sprintf("storage: Register constructor is nil for type %s", storageType))
	}
	if _, exists := registry[storageType]; exists {
		panic(fmt.Sprintf("storage: Register called twice for type %s", storageType))
	}
	registry[storageType] = constructor
}

func getConstructor(storageType string) Constructor {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	return registry[storageType]
}

// IsRegistered returns true if a constructor is registered for storageType
func IsRegistered(storageType string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, exists := registry[storageType]
	return exists
}

// RegisteredTypes returns all registered storage types, sorted
func RegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// UnregisterAll clears all registered constructors. Used by tests.
func UnregisterAll() {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	registry = make(map[string]Constructor)
}

// New creates the Storage described by cfg. A nil cfg yields a Storage that
// is never authorized, so polling stays idle until storage is configured.
func New(ctx context.Context, cfg *config.StorageConfig) (Storage, error) {
	if cfg == nil {
		return NewUnconfigured(), nil
	}

	constructor := getConstructor(cfg.Type)
	if constructor == nil {
		return nil, fmt.Errorf("unknown storage type: %s (registered: %v)", cfg.Type, RegisteredTypes())
	}

	store, err := constructor(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", cfg.Type, err)
	}

	var opts []Option
	if cfg.Retry != nil {
		opts = append(opts, WithRetry(cfg.Retry.MaxTries, cfg.Retry.GetMaxElapsed()))
	}
	return NewObjectStorage(store, opts...), nil
}
