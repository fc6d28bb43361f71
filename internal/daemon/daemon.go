// Package daemon runs mediavault as a long-lived service: it enforces
// single-instance execution with a lock file, serves the HTTP API, and runs
// the periodic quarantine cleanup job.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"mediavault/internal/api"
	"mediavault/internal/config"
	"mediavault/internal/logging"
	"mediavault/internal/staging"
	"mediavault/internal/store"
)

// Daemon coordinates the API server and background cleanup.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	service *api.Service
	staging *staging.Manager

	lockPath string
	lock     *flock.Flock
	server   *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status reports daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, service *api.Service, mgr *staging.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || service == nil || mgr == nil {
		return nil, errors.New("daemon requires config, store, service, and staging manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "mediavaultd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    st,
		service:  service,
		staging:  mgr,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, binds the API server, and launches the
// cleanup loop. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mediavault daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	server, err := newAPIServer(d.cfg, d.service, d, d.logger)
	if err != nil {
		d.releaseLock()
		cancel()
		return err
	}
	d.server = server
	if err := d.server.start(runCtx); err != nil {
		d.releaseLock()
		cancel()
		return err
	}

	d.wg.Add(1)
	go d.cleanupLoop(runCtx)

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()))
	return nil
}

// Stop shuts down the API server and cleanup loop and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.server != nil {
		d.server.stop()
	}
	d.wg.Wait()
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Status returns runtime information for the status endpoint.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

// Addr returns the API server's bound address, empty before Start.
func (d *Daemon) Addr() string {
	if d.server == nil {
		return ""
	}
	return d.server.addr()
}

// cleanupLoop periodically purges approved deletions and restores stagings
// that outlived the expiry window.
func (d *Daemon) cleanupLoop(ctx context.Context) {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Staging.PurgeInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runCleanup(ctx)
		}
	}
}

func (d *Daemon) runCleanup(ctx context.Context) {
	if _, err := d.staging.PurgeApproved(ctx); err != nil {
		d.logger.Error("purge pass failed", logging.Error(err))
	}
	if restored, err := d.staging.ExpireStale(ctx); err != nil {
		d.logger.Error("expiry pass failed", logging.Error(err))
	} else if restored > 0 {
		d.logger.Info("expired stagings restored", logging.Int("restored", restored))
	}
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release lock", logging.Error(err))
	}
}
