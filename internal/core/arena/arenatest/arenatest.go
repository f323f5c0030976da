// Package arenatest provides fakes and wiring helpers for tests
// exercising session variants.
package arenatest

import (
	"context"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/arena"
	"github.com/zeusync/arena/internal/core/catalog"
	"github.com/zeusync/arena/internal/core/events/bus"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/region"
	"github.com/zeusync/arena/internal/core/storage"
)

// FakeHandle is an in-memory host identity.
type FakeHandle struct {
	Identity  uuid.UUID
	Label     string
	Pos       mgl64.Vec3
	Messages  []string
	Spectator bool
	Restored  int
	Perms     map[string]bool
}

// NewHandle creates a handle positioned outside typical test bounds.
func NewHandle(name string) *FakeHandle {
	return &FakeHandle{Identity: uuid.New(), Label: name, Pos: mgl64.Vec3{500, 64, 500}}
}

func (h *FakeHandle) ID() uuid.UUID    { return h.Identity }
func (h *FakeHandle) Name() string     { return h.Label }
func (h *FakeHandle) Message(m string) { h.Messages = append(h.Messages, m) }

func (h *FakeHandle) HasPermission(perm string) bool { return h.Perms[perm] }

func (h *FakeHandle) Position() mgl64.Vec3   { return h.Pos }
func (h *FakeHandle) Teleport(to mgl64.Vec3) { h.Pos = to }
func (h *FakeHandle) Normalize()             {}

func (h *FakeHandle) CaptureState() map[string]any      { return map[string]any{"pos": h.Pos} }
func (h *FakeHandle) RestoreState(state map[string]any) { h.Restored++ }

func (h *FakeHandle) SetSpectator(spectating bool) { h.Spectator = spectating }

// Received reports whether any message contains the substring.
func (h *FakeHandle) Received(substr string) bool {
	for _, m := range h.Messages {
		if strings.Contains(m, substr) {
			return true
		}
	}

	return false
}

// FakeLedger records deposits per identity.
type FakeLedger struct {
	Deposits map[uuid.UUID]float64
	Calls    int
}

func (l *FakeLedger) Deposit(id uuid.UUID, amount float64) error {
	if l.Deposits == nil {
		l.Deposits = make(map[uuid.UUID]float64)
	}

	l.Deposits[id] += amount
	l.Calls++

	return nil
}

type nopSnapshotter struct{}

func (nopSnapshotter) Snapshot(context.Context, string, *region.Region) error { return nil }
func (nopSnapshotter) Restore(context.Context, string, *region.Region) error  { return nil }

// NewDeps builds an isolated application context over a temp dir.
func NewDeps(t *testing.T) (arena.Deps, *FakeLedger) {
	t.Helper()

	logger := log.Nop()

	store, err := storage.New(context.Background(), t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Flush() })

	cat := catalog.New(store, logger)
	require.NoError(t, cat.Load())

	ledger := &FakeLedger{}

	return arena.Deps{
		Log:     logger,
		Store:   store,
		Bus:     bus.New(),
		Regions: region.NewManager(context.Background(), logger, nopSnapshotter{}, nil),
		Catalog: cat,
		Players: arena.NewPlayers(store, logger),
		Ledger:  ledger,
	}, ledger
}

// NewSession builds a configured session with short countdowns for
// the given variant.
func NewSession(t *testing.T, deps arena.Deps, name string, v arena.Variant) *arena.Session {
	t.Helper()

	s, err := arena.New(name, v, deps)
	require.NoError(t, err)

	require.NoError(t, s.EditSettings(func(st *arena.Settings) {
		st.Region = &region.Region{
			Primary:   &mgl64.Vec3{0, 0, 0},
			Secondary: &mgl64.Vec3{100, 100, 100},
		}
		lobby := mgl64.Vec3{50, 10, 50}
		st.LobbyPoint = &lobby
		st.LobbyTicks = 3
		st.GameTicks = 50
	}))

	return s
}

// StartMatch joins the handles as players and runs the lobby down.
func StartMatch(t *testing.T, s *arena.Session, handles ...*FakeHandle) {
	t.Helper()

	for _, h := range handles {
		require.NoError(t, s.Join(h, arena.ModePlaying))
	}

	for i := 0; i < s.Settings().LobbyTicks; i++ {
		s.Tick()
	}

	require.Equal(t, arena.PhasePlayed, s.Phase())
}
