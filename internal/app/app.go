// Package app wires the sync agent together and manages the daemon lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
)

// ErrAlreadyRunning is returned by Start when another agent owns the data directory
var ErrAlreadyRunning = errors.New("another kurum-sync agent is already running")

// SyncApp encapsulates all components needed to run the sync agent daemon.
// It provides lifecycle management and graceful shutdown capabilities.
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	mu              sync.Mutex
	cancel          context.CancelFunc
	listener        net.Listener
	shutdownTimeout time.Duration
}

// Start acquires the instance lock, then runs the coordinator, the settings
// watcher and the status server until ctx is cancelled, Stop is called or a
// component fails
func (app *SyncApp) Start(ctx context.Context) error {
	lock, err := acquireInstanceLock(app.config.LockFile())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var listener net.Listener
	if app.httpServer != nil {
		listener, err = net.Listen("tcp", app.httpServer.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
		}
	}

	app.mu.Lock()
	app.cancel = cancel
	app.listener = listener
	app.mu.Unlock()

	if err := app.components.Reactivator.Watch(runCtx); err != nil {
		slog.Warn("Settings watcher unavailable, re-checking suspended configs every tick", "error", err)
	}

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return app.components.SyncCoordinator.Start(gctx)
	})

	if listener != nil {
		g.Go(func() error {
			slog.Info("Status server listening", "address", listener.Addr().String())
			if err := app.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), app.getShutdownTimeout())
			defer done()
			if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Status server forced to shutdown", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Stop gracefully stops the application. The coordinator finishes its
// running tick, then the status server gets timeout to drain its requests.
func (app *SyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down sync agent")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	app.mu.Lock()
	app.shutdownTimeout = timeout
	cancel := app.cancel
	app.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	slog.Info("Sync agent shutdown complete")
	return nil
}

func (app *SyncApp) getShutdownTimeout() time.Duration {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.shutdownTimeout <= 0 {
		return defaultWriteTimeout
	}
	return app.shutdownTimeout
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetComponents returns the wired sync components
func (app *SyncApp) GetComponents() *AppComponents {
	return app.components
}

// GetHTTPServer returns the status server, or nil when it is disabled
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// StatusAddr returns the address the status server is bound to once Start
// has begun listening, or nil
func (app *SyncApp) StatusAddr() net.Addr {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.listener == nil {
		return nil
	}
	return app.listener.Addr()
}

// LockDataDir takes the single-instance lock for a one-shot command and
// returns the function releasing it
func LockDataDir(cfg *config.Config) (func(), error) {
	lock, err := acquireInstanceLock(cfg.LockFile())
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Unlock() }, nil
}

// acquireInstanceLock takes the single-instance lock of the data directory
func acquireInstanceLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock held on %s)", ErrAlreadyRunning, path)
	}
	return lock, nil
}
