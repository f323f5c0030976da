package region

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/arena/internal/core/observability/log"
)

// Snapshotter is the external bulk block-copy engine. Implementations
// are expected to be slow and I/O bound; the manager never runs them
// on the controlling goroutine.
type Snapshotter interface {
	Snapshot(ctx context.Context, name string, r *Region) error
	Restore(ctx context.Context, name string, r *Region) error
}

// Manager coordinates snapshot/restore jobs for session regions and
// answers the "is a restore in progress" join gate. Completion
// callbacks are handed to a post function so they re-enter session
// state on the controlling goroutine only.
type Manager struct {
	log   log.Log
	snap  Snapshotter
	post  func(func())
	group *errgroup.Group
	ctx   context.Context

	mu         sync.Mutex
	processing map[string]bool
}

// NewManager creates a manager. The post function must schedule its
// argument onto the controlling goroutine; passing nil runs
// completions inline, which is only acceptable in tests.
func NewManager(ctx context.Context, l log.Log, snap Snapshotter, post func(func())) *Manager {
	if post == nil {
		post = func(f func()) { f() }
	}

	group, ctx := errgroup.WithContext(ctx)

	return &Manager{
		log:        l,
		snap:       snap,
		post:       post,
		group:      group,
		ctx:        ctx,
		processing: make(map[string]bool),
	}
}

// IsProcessing reports whether a bulk restore or snapshot is running
// for the named session. Joins are rejected while this is true.
func (m *Manager) IsProcessing(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.processing[name]
}

// Snapshot stores the current region contents, fire and forget.
func (m *Manager) Snapshot(name string, r *Region) {
	m.run(name, r, "snapshot", m.snap.Snapshot, nil)
}

// Restore brings the region back to the last snapshot, fire and
// forget. The done callback, if any, runs on the controlling
// goroutine after the restore finished.
func (m *Manager) Restore(name string, r *Region, done func()) {
	m.run(name, r, "restore", m.snap.Restore, done)
}

func (m *Manager) run(name string, r *Region, op string, fn func(context.Context, string, *Region) error, done func()) {
	if m.snap == nil || !r.IsWhole() {
		return
	}

	m.mu.Lock()
	if m.processing[name] {
		m.mu.Unlock()
		m.log.Warn("region job already running", zap.String("session", name), zap.String("op", op))

		return
	}
	m.processing[name] = true
	m.mu.Unlock()

	m.group.Go(func() error {
		err := fn(m.ctx, name, r)

		m.mu.Lock()
		delete(m.processing, name)
		m.mu.Unlock()

		if err != nil {
			m.log.Error("region job failed",
				zap.String("session", name),
				zap.String("op", op),
				zap.Error(err))
		}

		if done != nil {
			m.post(done)
		}

		return nil
	})
}

// Wait blocks until all outstanding jobs finished. Called on shutdown.
func (m *Manager) Wait() error {
	return m.group.Wait()
}
