package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"factcheck/internal/config"
	"factcheck/internal/deps"
	"factcheck/internal/logging"
	"factcheck/internal/pipeline"
	"factcheck/internal/preflight"
)

// Daemon owns the HTTP server lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runtime *pipeline.Runtime
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	CacheDriver  string
	LockFilePath string
	Dependencies []deps.Status
}

// New constructs a daemon around an already wired runtime.
func New(cfg *config.Config, rt *pipeline.Runtime, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || rt == nil || rt.Orchestrator == nil {
		return nil, errors.New("daemon requires config and pipeline runtime")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		runtime:  rt,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock and starts serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another factcheck server instance is already running")
	}

	for _, result := range preflight.Failed(preflight.RunLocal(d.cfg)) {
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}
	if missing := deps.MissingRequired(preflight.CheckSystemDeps(d.cfg)); len(missing) > 0 {
		d.logger.Warn("required binaries missing", logging.Any("missing", missing))
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("factcheck server started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.Addr()),
	)
	return nil
}

// Stop shuts the HTTP server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("factcheck server stopped")
}

// Close stops the daemon and releases the runtime's stores.
func (d *Daemon) Close() error {
	d.Stop()
	if d.runtime != nil {
		return d.runtime.Close()
	}
	return nil
}

// Addr reports the bound listener address, or "" before Start.
func (d *Daemon) Addr() string {
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		CacheDriver:  d.cfg.Cache.Driver,
		LockFilePath: d.lockPath,
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	}
}
