package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/mock/gomock"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
	eventmocks "github.com/kurum-rebirth/kurum-sync/internal/events/mocks"
	processmocks "github.com/kurum-rebirth/kurum-sync/internal/process/mocks"
	storagemocks "github.com/kurum-rebirth/kurum-sync/internal/storage/mocks"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

const validSyncConfig = `name: Hollow Knight
variables:
  - save_dir
platform:
  linux:
    watchers:
      - process_name: hollow_knight.x86_64
    init_tasks:
      - type: folder_picker
        name: save_dir
    backup_tasks:
      - name: saves
        base_path: "@{save_dir}"
        pattern: "*.dat"
    restore_tasks:
      - name: saves
        path: "@{save_dir}"
`

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []SyncAppOptions
		wantErr string
		check   func(t *testing.T, cfg *syncAppConfig)
	}{
		{
			name:    "missing config",
			opts:    nil,
			wantErr: "config cannot be nil",
		},
		{
			name: "defaults",
			opts: []SyncAppOptions{WithConfig(&config.Config{})},
			check: func(t *testing.T, cfg *syncAppConfig) {
				t.Helper()
				assert.Equal(t, defaultRequestTimeout, cfg.requestTimeout)
				assert.Equal(t, defaultReadTimeout, cfg.readTimeout)
				assert.Equal(t, defaultWriteTimeout, cfg.writeTimeout)
				assert.Equal(t, defaultIdleTimeout, cfg.idleTimeout)
				assert.Zero(t, cfg.interval)
				assert.Nil(t, cfg.storage)
			},
		},
		{
			name: "poll interval override",
			opts: []SyncAppOptions{WithConfig(&config.Config{}), WithPollInterval(time.Second)},
			check: func(t *testing.T, cfg *syncAppConfig) {
				t.Helper()
				assert.Equal(t, time.Second, cfg.interval)
			},
		},
		{
			name:    "zero poll interval",
			opts:    []SyncAppOptions{WithConfig(&config.Config{}), WithPollInterval(0)},
			wantErr: "poll interval must be positive",
		},
		{
			name:    "nil storage",
			opts:    []SyncAppOptions{WithConfig(&config.Config{}), WithStorage(nil)},
			wantErr: "storage cannot be nil",
		},
		{
			name: "sync configs and middlewares",
			opts: []SyncAppOptions{
				WithConfig(&config.Config{}),
				WithSyncConfigs(&syncconfig.SyncConfig{Key: "a"}, &syncconfig.SyncConfig{Key: "b"}),
				WithMiddlewares(func(next http.Handler) http.Handler { return next }),
				WithMetricsHandler(http.NotFoundHandler()),
			},
			check: func(t *testing.T, cfg *syncAppConfig) {
				t.Helper()
				assert.Len(t, cfg.syncConfigs, 2)
				assert.Len(t, cfg.middlewares, 1)
				assert.NotNil(t, cfg.metricsHandler)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := baseConfig(tt.opts...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestBuildComponents_LoadsSyncConfigDirectory(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	cfg := &config.Config{
		DataDir:  dataDir,
		Platform: "linux",
		Storage: &config.StorageConfig{
			Type:  config.StorageTypeLocal,
			Local: &config.LocalConfig{Root: filepath.Join(dataDir, "remote")},
		},
	}

	require.NoError(t, os.MkdirAll(cfg.SyncConfigsDir(), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SyncConfigsDir(), "hollow_knight.yaml"), []byte(validSyncConfig), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SyncConfigsDir(), "broken.yaml"), []byte("name: ["), 0600))

	components, err := BuildComponents(context.Background(), WithConfig(cfg))
	require.NoError(t, err)

	assert.Equal(t, 1, components.Configs.Len())
	_, ok := components.Configs.Get("hollow_knight")
	assert.True(t, ok)
	assert.True(t, components.Configs.HasWatchers("hollow_knight.x86_64"))

	assert.True(t, components.Storage.IsAuthorized(context.Background()))
	assert.NotNil(t, components.Settings)
	assert.NotNil(t, components.StateService)
	assert.NotNil(t, components.Orchestrator)
	assert.NotNil(t, components.SyncCoordinator)
	assert.NotNil(t, components.Reactivator)
	assert.Equal(t, cfg.UserSettingsDir(), components.Settings.Dir())
}

func TestBuildComponents_InjectedDependencies(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockStorage(ctrl)
	handler := eventmocks.NewMockHandler(ctrl)
	lister := processmocks.NewMockLister(ctrl)

	// An unauthorized storage turns the poll into a no-op
	store.EXPECT().IsAuthorized(gomock.Any()).Return(false)

	cfg := &config.Config{DataDir: t.TempDir(), Platform: "linux"}
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	components, err := BuildComponents(context.Background(),
		WithConfig(cfg),
		WithStorage(store),
		WithEventHandler(handler),
		WithProcessLister(lister),
		WithSyncConfigs(&syncconfig.SyncConfig{
			Key:  "celeste",
			Name: "Celeste",
			Platform: map[string]*syncconfig.PlatformSyncOptions{
				"linux": {Watchers: []syncconfig.SyncWatcher{{ProcessName: "Celeste"}}},
			},
		}),
		WithMeterProvider(mp),
		WithPollInterval(time.Minute),
	)
	require.NoError(t, err)

	assert.Same(t, store, components.Storage)
	assert.Equal(t, 1, components.Configs.Len())
	require.NoError(t, components.Orchestrator.Poll(context.Background()))
}

func TestBuildComponents_DuplicateKeys(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{DataDir: t.TempDir()}
	_, err := BuildComponents(context.Background(),
		WithConfig(cfg),
		WithSyncConfigs(&syncconfig.SyncConfig{Key: "a"}, &syncconfig.SyncConfig{Key: "a"}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build config set")
}

func TestNewSyncApp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		statusServer *config.StatusServerConfig
		wantServer   bool
		wantAddr     string
	}{
		{name: "status server disabled", statusServer: nil, wantServer: false},
		{
			name:         "status server with default address",
			statusServer: &config.StatusServerConfig{Enabled: true},
			wantServer:   true,
			wantAddr:     config.DefaultStatusAddress,
		},
		{
			name:         "status server with custom address",
			statusServer: &config.StatusServerConfig{Enabled: true, Address: "127.0.0.1:9999"},
			wantServer:   true,
			wantAddr:     "127.0.0.1:9999",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{DataDir: t.TempDir(), StatusServer: tt.statusServer}
			app, err := NewSyncApp(context.Background(), WithConfig(cfg), WithSyncConfigs())
			require.NoError(t, err)

			if !tt.wantServer {
				assert.Nil(t, app.GetHTTPServer())
				return
			}
			require.NotNil(t, app.GetHTTPServer())
			assert.Equal(t, tt.wantAddr, app.GetHTTPServer().Addr)
			assert.Equal(t, defaultReadTimeout, app.GetHTTPServer().ReadTimeout)
		})
	}
}

func TestNewSyncApp_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := NewSyncApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build base configuration")
}

func TestBuildHTTPServer_Readiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authorized bool
		wantStatus int
	}{
		{name: "storage authorized", authorized: true, wantStatus: http.StatusOK},
		{name: "storage not authorized", authorized: false, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			store := storagemocks.NewMockStorage(ctrl)
			store.EXPECT().IsAuthorized(gomock.Any()).Return(tt.authorized)

			b, err := baseConfig(WithConfig(&config.Config{}))
			require.NoError(t, err)
			server, err := buildHTTPServer(b, &AppComponents{Storage: store})
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readiness", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestBuildHTTPServer_CustomMiddlewareAndMetrics(t *testing.T) {
	t.Parallel()

	var called bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("kurum_sync_poll_ticks_total 1\n"))
	})

	b, err := baseConfig(
		WithConfig(&config.Config{}),
		WithMiddlewares(mw),
		WithMetricsHandler(metrics),
	)
	require.NoError(t, err)
	server, err := buildHTTPServer(b, &AppComponents{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kurum_sync_poll_ticks_total")
	assert.True(t, called)
}
