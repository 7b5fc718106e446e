package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
	pkgsync "github.com/kurum-rebirth/kurum-sync/internal/sync"
	"github.com/kurum-rebirth/kurum-sync/internal/sync/state"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
	"github.com/kurum-rebirth/kurum-sync/internal/telemetry"
)

// Coordinator drives the orchestrator on a fixed interval
type Coordinator interface {
	// Start initializes the status records and runs ticks until the context
	// is cancelled or Stop is called
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and waits for the running tick
	Stop() error
}

// PreTickHook runs on the coordinator goroutine before every Poll. Hooks are
// the only place where the config set may be mutated from outside the
// orchestrator.
type PreTickHook func(ctx context.Context)

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	orchestrator pkgsync.Orchestrator
	configs      *syncconfig.Set
	interval     time.Duration
	hooks        []PreTickHook

	// Lifecycle management
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}

	statusSvc state.ConfigStateService

	// Metrics
	syncMetrics   *telemetry.SyncMetrics
	configMetrics *telemetry.ConfigMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithConfigMetrics sets the per-phase config metrics for the coordinator
func WithConfigMetrics(metrics *telemetry.ConfigMetrics) Option {
	return func(c *defaultCoordinator) {
		c.configMetrics = metrics
	}
}

// WithPreTickHook appends a hook run before every Poll
func WithPreTickHook(hook PreTickHook) Option {
	return func(c *defaultCoordinator) {
		if hook != nil {
			c.hooks = append(c.hooks, hook)
		}
	}
}

// WithInterval overrides the tick interval from the configuration
func WithInterval(interval time.Duration) Option {
	return func(c *defaultCoordinator) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// New creates a new coordinator with injected dependencies
func New(
	orchestrator pkgsync.Orchestrator,
	statusSvc state.ConfigStateService,
	configs *syncconfig.Set,
	cfg *config.Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		orchestrator: orchestrator,
		statusSvc:    statusSvc,
		configs:      configs,
		interval:     getPollInterval(cfg),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins the polling loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting sync coordinator",
		"config_count", c.configs.Len(),
		"platform", c.configs.Platform(),
		"interval", c.interval)

	// Create cancellable context for this coordinator
	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		close(c.done)
		slog.Info("Sync coordinator shut down")
	}()

	// Load or initialize sync status for all configs
	if err := c.statusSvc.Initialize(coordCtx, c.configs.All(), c.configs.Platform()); err != nil {
		return fmt.Errorf("failed to initialize config sync status: %w", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run the first tick immediately
	c.tick(coordCtx)

	for {
		select {
		case <-ticker.C:
			c.tick(coordCtx)
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		// Wait for the running tick to finish
		<-c.done
	}
	return nil
}

// tick runs the pre-tick hooks and one Poll. Errors are logged and never stop the loop.
func (c *defaultCoordinator) tick(ctx context.Context) {
	for _, hook := range c.hooks {
		hook(ctx)
	}
	if ctx.Err() != nil {
		return
	}

	err := c.orchestrator.Poll(ctx)
	if err != nil {
		slog.Error("Poll finished with errors", "error", err)
	}
	c.syncMetrics.RecordTick(ctx, err == nil)
	c.recordPhaseCounts(ctx)
}

// recordPhaseCounts publishes how many configs are in each phase
func (c *defaultCoordinator) recordPhaseCounts(ctx context.Context) {
	if c.configMetrics == nil {
		return
	}

	statuses, err := c.statusSvc.ListSyncStatuses(ctx)
	if err != nil {
		slog.Warn("Failed to list sync statuses for metrics", "error", err)
		return
	}

	counts := make(map[string]int64)
	for _, s := range statuses {
		counts[string(s.Phase)]++
	}
	c.configMetrics.RecordPhaseCounts(ctx, counts)
}
