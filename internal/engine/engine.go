// Package engine is the composition root: it wires the storage,
// catalog, region and event collaborators into an application context
// and drives the controlling goroutine every session mutation runs
// on.
package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zeusync/arena/internal/core/arena"
	"github.com/zeusync/arena/internal/core/arena/dm"
	"github.com/zeusync/arena/internal/core/arena/tdm"
	"github.com/zeusync/arena/internal/core/catalog"
	"github.com/zeusync/arena/internal/core/events/bus"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/region"
	"github.com/zeusync/arena/internal/core/storage"
)

// Config holds engine configuration.
type Config struct {
	// DataDir is the root of the YAML record store.
	DataDir string

	// TickInterval is how often the periodic signal is delivered to
	// live sessions.
	TickInterval time.Duration

	// Snapshotter performs the bulk region copy. Nil disables map
	// reset.
	Snapshotter region.Snapshotter

	// Ledger receives currency deposits. Nil falls back to logging
	// them.
	Ledger arena.Ledger

	LogLevel zapcore.Level
}

// DefaultConfig returns the defaults used by the binary.
func DefaultConfig() Config {
	return Config{
		DataDir:      "data",
		TickInterval: time.Second,
		LogLevel:     zapcore.InfoLevel,
	}
}

// Engine owns the controlling goroutine. All calls into sessions must
// run on it: external threads hand work over through Post.
type Engine struct {
	cfg      Config
	log      log.Log
	store    *storage.Store
	regions  *region.Manager
	registry *arena.Registry

	calls   chan func()
	stopCh  chan struct{}
	doneCh  chan struct{}
	running int32
}

// New builds the full application context, loads the catalog and
// every persisted session, and registers the built-in session types.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	logger := log.New(cfg.LogLevel)

	store, err := storage.New(ctx, cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		log:    logger,
		store:  store,
		calls:  make(chan func(), 256),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	snapshotter := cfg.Snapshotter
	if snapshotter == nil {
		snapshotter = nopSnapshotter{}
	}
	e.regions = region.NewManager(ctx, logger, snapshotter, e.Post)

	ledger := cfg.Ledger
	if ledger == nil {
		ledger = &arena.LogLedger{Log: logger}
	}

	cat := catalog.New(store, logger)
	if err := cat.Load(); err != nil {
		return nil, err
	}

	deps := arena.Deps{
		Log:     logger,
		Store:   store,
		Bus:     bus.New(),
		Regions: e.regions,
		Catalog: cat,
		Players: arena.NewPlayers(store, logger),
		Ledger:  ledger,
	}

	e.registry = arena.NewRegistry(deps)
	e.registry.RegisterType(dm.Type, dm.New)
	e.registry.RegisterType(tdm.Type, tdm.New)

	if err := e.registry.LoadAll(); err != nil {
		return nil, err
	}

	return e, nil
}

// Registry exposes the session registry. Use it from the controlling
// goroutine only, or through Post.
func (e *Engine) Registry() *arena.Registry { return e.registry }

// Post schedules fn onto the controlling goroutine. Region job
// completions and host event dispatch re-enter session state through
// here.
func (e *Engine) Post(fn func()) {
	select {
	case e.calls <- fn:
	case <-e.stopCh:
	}
}

// Start launches the controlling goroutine.
func (e *Engine) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		return errors.New("engine already started")
	}

	go e.run(ctx)
	e.log.Info("engine started",
		zap.String("data_dir", e.cfg.DataDir),
		zap.Duration("tick_interval", e.cfg.TickInterval))

	return nil
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return
		case <-e.stopCh:
			e.shutdown()
			return
		case fn := <-e.calls:
			fn()
		case <-ticker.C:
			e.registry.Tick()
		}
	}
}

func (e *Engine) shutdown() {
	e.registry.StopAll(arena.StopPlugin)

	if err := e.store.Flush(); err != nil {
		e.log.Error("failed to flush storage", zap.Error(err))
	}
	if err := e.regions.Wait(); err != nil {
		e.log.Error("region jobs failed", zap.Error(err))
	}

	e.log.Info("engine stopped")
}

// Stop shuts the controlling goroutine down and waits for teardown.
func (e *Engine) Stop() error {
	if !atomic.CompareAndSwapInt32(&e.running, 1, 0) {
		return errors.New("engine not running")
	}

	close(e.stopCh)
	<-e.doneCh

	return nil
}

// nopSnapshotter disables map reset when no region backend is wired.
type nopSnapshotter struct{}

func (nopSnapshotter) Snapshot(context.Context, string, *region.Region) error { return nil }
func (nopSnapshotter) Restore(context.Context, string, *region.Region) error  { return nil }
