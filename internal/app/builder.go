package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kurum-rebirth/kurum-sync/internal/api"
	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/events"
	"github.com/kurum-rebirth/kurum-sync/internal/otel"
	"github.com/kurum-rebirth/kurum-sync/internal/process"
	"github.com/kurum-rebirth/kurum-sync/internal/settings"
	"github.com/kurum-rebirth/kurum-sync/internal/status"
	"github.com/kurum-rebirth/kurum-sync/internal/storage"
	pkgsync "github.com/kurum-rebirth/kurum-sync/internal/sync"
	"github.com/kurum-rebirth/kurum-sync/internal/sync/coordinator"
	"github.com/kurum-rebirth/kurum-sync/internal/sync/state"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
	"github.com/kurum-rebirth/kurum-sync/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// SyncAppOptions is a function that configures the sync app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig collects everything needed to build a SyncApp.
// Overrides are primarily for testing.
type syncAppConfig struct {
	config *config.Config

	// Optional component overrides
	storage     storage.Storage
	handler     events.Handler
	lister      process.Lister
	syncConfigs []*syncconfig.SyncConfig
	interval    time.Duration

	// HTTP server options
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
	metricsHandler http.Handler

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return cfg, nil
}

// WithConfig sets the host configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithStorage injects the storage backend instead of building it from the configuration
func WithStorage(s storage.Storage) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if s == nil {
			return fmt.Errorf("storage cannot be nil")
		}
		cfg.storage = s
		return nil
	}
}

// WithEventHandler adds a handler notified of sync lifecycle events
func WithEventHandler(h events.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.handler = h
		return nil
	}
}

// WithProcessLister injects the process lister used for exit detection
func WithProcessLister(l process.Lister) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.lister = l
		return nil
	}
}

// WithSyncConfigs uses configs instead of scanning the sync config directory
func WithSyncConfigs(configs ...*syncconfig.SyncConfig) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.syncConfigs = configs
		return nil
	}
}

// WithPollInterval overrides the configured poll interval
func WithPollInterval(d time.Duration) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("poll interval must be positive, got %s", d)
		}
		cfg.interval = d
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares for the status server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for sync and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for sync and HTTP spans
func WithTracerProvider(tp trace.TracerProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler mounts a Prometheus scrape handler on the status server
func WithMetricsHandler(h http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// BuildComponents builds the sync components without the status server.
// One-shot commands use it to run a single poll, backup or restore.
func BuildComponents(ctx context.Context, opts ...SyncAppOptions) (*AppComponents, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	return buildSyncComponents(ctx, cfg)
}

// NewSyncApp builds the daemon: sync components plus the optional status server
func NewSyncApp(ctx context.Context, opts ...SyncAppOptions) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	components, err := buildSyncComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	var httpServer *http.Server
	if cfg.config.StatusServerEnabled() {
		httpServer, err = buildHTTPServer(cfg, components)
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP server: %w", err)
		}
	}

	return &SyncApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
	}, nil
}

// buildSyncComponents wires stores, storage, orchestrator and coordinator
func buildSyncComponents(ctx context.Context, b *syncAppConfig) (*AppComponents, error) {
	slog.Info("Initializing sync components", "data_dir", b.config.GetDataDir())

	configs, err := buildConfigSet(b)
	if err != nil {
		return nil, err
	}

	store := b.storage
	if store == nil {
		store, err = storage.New(ctx, b.config.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	settingsStore := settings.NewFileStore(b.config.UserSettingsDir())
	stateSvc := state.NewFileStateService(status.NewFileStatusPersistence(b.config.StatusDir()))
	pending := NewPendingInits()

	syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	configMetrics, err := telemetry.NewConfigMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create config metrics: %w", err)
	}

	orchOpts := []pkgsync.Option{
		pkgsync.WithSettings(settingsStore),
		pkgsync.WithMarkerStore(status.NewFileMarkerStore(b.config.LastSyncDir())),
		pkgsync.WithTempDir(b.config.TempDir()),
		pkgsync.WithStateService(stateSvc),
		pkgsync.WithSyncMetrics(syncMetrics),
	}
	if b.lister != nil {
		orchOpts = append(orchOpts, pkgsync.WithProcessLister(b.lister))
	}
	if b.tracerProvider != nil {
		orchOpts = append(orchOpts, pkgsync.WithTracer(b.tracerProvider.Tracer(otel.SyncTracerName)))
	}

	handler := events.Multi(events.NewLogHandler(), b.handler, pending)
	orchestrator, err := pkgsync.New(configs, store, handler, orchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	reactivator := NewReactivator(configs, settingsStore, stateSvc, pending)

	coordOpts := []coordinator.Option{
		coordinator.WithSyncMetrics(syncMetrics),
		coordinator.WithConfigMetrics(configMetrics),
		coordinator.WithPreTickHook(reactivator.Hook),
	}
	if b.interval > 0 {
		coordOpts = append(coordOpts, coordinator.WithInterval(b.interval))
	}
	syncCoordinator := coordinator.New(orchestrator, stateSvc, configs, b.config, coordOpts...)

	slog.Info("Sync components initialized successfully", "config_count", configs.Len())

	return &AppComponents{
		Configs:         configs,
		Storage:         store,
		Settings:        settingsStore,
		StateService:    stateSvc,
		Orchestrator:    orchestrator,
		SyncCoordinator: syncCoordinator,
		Reactivator:     reactivator,
	}, nil
}

// buildConfigSet loads the sync configs of the host platform
func buildConfigSet(b *syncAppConfig) (*syncconfig.Set, error) {
	configs := b.syncConfigs
	if configs == nil {
		var err error
		configs, err = syncconfig.LoadDir(b.config.SyncConfigsDir())
		if err != nil {
			return nil, fmt.Errorf("failed to load sync configs: %w", err)
		}
	}

	set, err := syncconfig.NewSet(b.config.GetPlatform(), configs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build config set: %w", err)
	}
	return set, nil
}

// buildHTTPServer builds the status server with router and middleware
func buildHTTPServer(b *syncAppConfig, components *AppComponents) (*http.Server, error) {
	slog.Info("Initializing status server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Instrumentation comes first so it observes every request
	if b.meterProvider != nil || b.tracerProvider != nil {
		instrument, err := telemetry.HTTPMiddleware(b.tracerProvider, b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP instrumentation: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{instrument}, b.middlewares...)
	}

	store := components.Storage
	router := api.NewServer(components.StateService,
		api.WithMiddlewares(b.middlewares...),
		api.WithReadinessCheck(func(ctx context.Context) error {
			if !store.IsAuthorized(ctx) {
				return fmt.Errorf("storage is not authorized")
			}
			return nil
		}),
		api.WithMetricsHandler(b.metricsHandler),
	)

	address := b.config.GetStatusAddress()
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("Status server configured", "address", address)
	return server, nil
}
