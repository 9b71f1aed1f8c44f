package app

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/searchktools/pool-server/config"
	"github.com/searchktools/pool-server/core"
	"github.com/searchktools/pool-server/core/netutil"
	"github.com/searchktools/pool-server/core/pools"
	"github.com/searchktools/pool-server/core/router"
)

// App wires the worker pool, router and engine together
type App struct {
	cfg    *config.Config
	log    *logrus.Logger
	pool   *pools.WorkerPool
	engine *core.Engine
}

// New creates an application instance serving the default routes
func New(cfg *config.Config) (*App, error) {
	return NewWithRouter(cfg, router.Default())
}

// NewWithRouter creates an application instance answering with r
func NewWithRouter(cfg *config.Config, r router.Router) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pools.NewWorkerPoolWithConfig(pools.WorkerPoolConfig{
		Size:         cfg.Workers,
		Logger:       logger,
		LockOSThread: true,
	})
	if err != nil {
		return nil, fmt.Errorf("app: create worker pool: %w", err)
	}

	engine, err := core.NewEngine(pool, r, core.EngineConfig{
		Logger:       logger,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		pool.Shutdown()
		return nil, fmt.Errorf("app: create engine: %w", err)
	}

	return &App{
		cfg:    cfg,
		log:    logger,
		pool:   pool,
		engine: engine,
	}, nil
}

// Engine returns the underlying engine
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Pool returns the worker pool
func (a *App) Pool() *pools.WorkerPool {
	return a.pool
}

// Logger returns the application logger
func (a *App) Logger() *logrus.Logger {
	return a.log
}

// Listen opens the configured listening socket
func (a *App) Listen(ctx context.Context) (net.Listener, error) {
	ln, err := netutil.Listen(ctx, netutil.ListenConfig{
		Network:   "tcp",
		Address:   a.cfg.Addr(),
		ReusePort: a.cfg.ReusePort,
	})
	if err != nil {
		return nil, fmt.Errorf("app: listen on %s: %w", a.cfg.Addr(), err)
	}
	return ln, nil
}

// Serve runs the engine on ln until ctx is cancelled, then shuts the pool
// down. In-flight connections finish; queued ones are dropped.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.log.WithFields(logrus.Fields{
		"addr":    ln.Addr().String(),
		"workers": a.pool.Size(),
		"env":     a.cfg.Env,
	}).Info("server starting")

	err := a.engine.Serve(ctx, ln)

	a.log.Info("shutting down worker pool")
	a.pool.Shutdown()

	stats := a.engine.Stats()
	a.log.WithFields(stats.Fields()).Info("server stopped")
	a.log.Debug(a.engine.StatsText())

	return err
}

// RunContext listens and serves until ctx is cancelled
func (a *App) RunContext(ctx context.Context) error {
	ln, err := a.Listen(ctx)
	if err != nil {
		a.pool.Shutdown()
		return err
	}
	return a.Serve(ctx, ln)
}

// Run serves until SIGINT or SIGTERM
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.RunContext(ctx)
}
