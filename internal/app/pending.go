package app

import (
	"sort"
	"sync"

	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

// PendingInits records the configs suspended on an unanswered init task.
// It implements events.Handler and ignores backup and restore notifications.
type PendingInits struct {
	mu      sync.Mutex
	pending map[string]string
}

// NewPendingInits creates an empty recorder
func NewPendingInits() *PendingInits {
	return &PendingInits{pending: make(map[string]string)}
}

// OnInitTaskRequired records task as the reason cfg is suspended
func (p *PendingInits) OnInitTaskRequired(cfg *syncconfig.SyncConfig, task *syncconfig.InitTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[cfg.Key] = task.Name
}

// OnBackupStart is a no-op
func (*PendingInits) OnBackupStart(*syncconfig.SyncConfig) {}

// OnBackupEnd is a no-op
func (*PendingInits) OnBackupEnd(*syncconfig.SyncConfig) {}

// OnRestoreStart is a no-op
func (*PendingInits) OnRestoreStart(*syncconfig.SyncConfig) {}

// OnRestoreEnd is a no-op
func (*PendingInits) OnRestoreEnd(*syncconfig.SyncConfig) {}

// Keys returns the suspended config keys in lexical order
func (p *PendingInits) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, 0, len(p.pending))
	for key := range p.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Task returns the init task key is waiting for
func (p *PendingInits) Task(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	task, ok := p.pending[key]
	return task, ok
}

// Resolve forgets key
func (p *PendingInits) Resolve(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, key)
}
