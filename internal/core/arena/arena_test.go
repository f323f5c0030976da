package arena

import (
	"context"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/catalog"
	"github.com/zeusync/arena/internal/core/events/bus"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/region"
	"github.com/zeusync/arena/internal/core/storage"
)

// fakeHandle drives the host boundary in tests.
type fakeHandle struct {
	id        uuid.UUID
	name      string
	perms     map[string]bool
	pos       mgl64.Vec3
	messages  []string
	spectator bool
	restored  int
}

func newHandle(name string) *fakeHandle {
	return &fakeHandle{id: uuid.New(), name: name, pos: mgl64.Vec3{200, 64, 200}}
}

func (h *fakeHandle) ID() uuid.UUID   { return h.id }
func (h *fakeHandle) Name() string    { return h.name }
func (h *fakeHandle) Message(m string) { h.messages = append(h.messages, m) }

func (h *fakeHandle) HasPermission(perm string) bool { return h.perms[perm] }

func (h *fakeHandle) Position() mgl64.Vec3   { return h.pos }
func (h *fakeHandle) Teleport(to mgl64.Vec3) { h.pos = to }
func (h *fakeHandle) Normalize()             {}

func (h *fakeHandle) CaptureState() map[string]any {
	return map[string]any{"pos": h.pos}
}

func (h *fakeHandle) RestoreState(state map[string]any) { h.restored++ }

func (h *fakeHandle) SetSpectator(spectating bool) { h.spectator = spectating }

func (h *fakeHandle) received(substr string) bool {
	for _, m := range h.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}

	return false
}

// fakeLedger counts deposits per identity.
type fakeLedger struct {
	deposits map[uuid.UUID]float64
	calls    int
}

func (l *fakeLedger) Deposit(id uuid.UUID, amount float64) error {
	if l.deposits == nil {
		l.deposits = make(map[uuid.UUID]float64)
	}

	l.deposits[id] += amount
	l.calls++

	return nil
}

type stubSnapshotter struct{}

func (stubSnapshotter) Snapshot(context.Context, string, *region.Region) error { return nil }
func (stubSnapshotter) Restore(context.Context, string, *region.Region) error  { return nil }

// stubVariant lets each test pick traits and hook behavior.
type stubVariant struct {
	BaseVariant

	traits  Traits
	session *Session

	onMatchTick func(*Session) error
	onSpectate  func(*Player)
	onStop      func(*Session, *StopReason)
	stops       int
}

func (v *stubVariant) Type() string   { return "stub" }
func (v *stubVariant) Traits() Traits { return v.traits }

func (v *stubVariant) OnLoad(s *Session) { v.session = s }

func (v *stubVariant) OnMatchTick(s *Session) error {
	if v.onMatchTick != nil {
		return v.onMatchTick(s)
	}

	return nil
}

func (v *stubVariant) OnSpectate(p *Player) {
	if v.onSpectate != nil {
		v.onSpectate(p)
	}
}

func (v *stubVariant) OnStop(s *Session, reason *StopReason) {
	v.stops++
	if v.onStop != nil {
		v.onStop(s, reason)
	}
}

func testDeps(t *testing.T) (Deps, *fakeLedger) {
	t.Helper()

	logger := log.Nop()

	store, err := storage.New(context.Background(), t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Flush() })

	cat := catalog.New(store, logger)
	require.NoError(t, cat.Load())

	ledger := &fakeLedger{}

	return Deps{
		Log:     logger,
		Store:   store,
		Bus:     bus.New(),
		Regions: region.NewManager(context.Background(), logger, stubSnapshotter{}, nil),
		Catalog: cat,
		Players: NewPlayers(store, logger),
		Ledger:  ledger,
	}, ledger
}

func testRegion(primary, secondary mgl64.Vec3) *region.Region {
	return &region.Region{Primary: &primary, Secondary: &secondary}
}

// readySession builds a configured session with short countdowns.
func readySession(t *testing.T, deps Deps, v Variant) *Session {
	t.Helper()

	s, err := New("colosseum", v, deps)
	require.NoError(t, err)

	require.NoError(t, s.EditSettings(func(st *Settings) {
		st.Region = testRegion(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{100, 100, 100})
		lobby := mgl64.Vec3{50, 10, 50}
		st.LobbyPoint = &lobby
		st.LobbyTicks = 5
		st.GameTicks = 10
	}))

	return s
}

// startedMatch joins the handles as players and runs the lobby down.
func startedMatch(t *testing.T, s *Session, handles ...*fakeHandle) {
	t.Helper()

	for _, h := range handles {
		require.NoError(t, s.Join(h, ModePlaying))
	}

	for i := 0; i < s.Settings().LobbyTicks; i++ {
		s.Tick()
	}

	require.Equal(t, PhasePlayed, s.Phase())
}
