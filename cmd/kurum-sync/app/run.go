package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	syncapp "github.com/kurum-rebirth/kurum-sync/internal/app"
	"github.com/kurum-rebirth/kurum-sync/internal/telemetry"
)

const defaultGracefulTimeout = 30 * time.Second

func newRunCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync agent",
		Long: `Run the sync agent in the foreground.

The agent polls every configured interval: it checks pending init tasks,
backs up configs whose watched process exited and restores configs whose
remote marker is newer than the local one. The optional status server
exposes health, readiness, version and per-config sync status.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAgent(cmd.Context(), v)
		},
	}
}

func runAgent(ctx context.Context, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	slog.Info("Starting kurum-sync agent", "data_dir", cfg.GetDataDir(), "platform", cfg.GetPlatform())

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []syncapp.SyncAppOptions{
		syncapp.WithConfig(cfg),
		syncapp.WithMeterProvider(tel.MeterProvider()),
		syncapp.WithTracerProvider(tel.TracerProvider()),
	}
	if handler := tel.MetricsHandler(); handler != nil {
		opts = append(opts, syncapp.WithMetricsHandler(handler))
	}

	agent, err := syncapp.NewSyncApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create sync agent: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- agent.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	if err := agent.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Failed to stop sync agent", "error", err)
	}
	return <-errCh
}
