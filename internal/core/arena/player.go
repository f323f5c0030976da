package arena

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeusync/arena/internal/core/catalog"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/storage"
)

// durableRecord is the part of a participant's state that survives
// matches and restarts. It is saved on every mutation.
type durableRecord struct {
	// TotalPoints is the accumulated currency across all matches.
	TotalPoints float64 `yaml:"points"`

	// ClassTiers maps class name to the tier level reached.
	ClassTiers map[string]int `yaml:"class_tiers,omitempty"`
}

// Player is the per-identity session cache. One exists per connected
// identity, created lazily on first reference and dropped on
// disconnect. All transient fields reset on join and leave; the
// durable record persists.
type Player struct {
	handle Handle

	session *Session
	mode    Mode

	joinLocation mgl64.Vec3
	respawns     int
	matchPoints  float64
	rewarded     bool
	leaving      bool
	leavingHost  bool

	class *catalog.Class
	team  *catalog.Team

	snapshot map[string]any

	durable durableRecord
	players *Players
}

// Handle returns the current host-side handle for this identity.
func (p *Player) Handle() Handle { return p.handle }

// ID returns the stable identity.
func (p *Player) ID() uuid.UUID { return p.handle.ID() }

// Name returns the display name.
func (p *Player) Name() string { return p.handle.Name() }

// HasPermission implements catalog.Subject.
func (p *Player) HasPermission(perm string) bool {
	return p.handle.HasPermission(perm)
}

// HasSession reports whether the participant is in a session.
func (p *Player) HasSession() bool { return p.session != nil }

// Session returns the joined session. Calling this without a session
// is a programming error.
func (p *Player) Session() *Session {
	if p.session == nil {
		panic(fmt.Sprintf("player %s has no associated session", p.Name()))
	}

	return p.session
}

// Mode returns the participant's join mode, or the zero mode when not
// joined.
func (p *Player) Mode() Mode { return p.mode }

// JoinLocation returns where the participant stood before joining.
func (p *Player) JoinLocation() mgl64.Vec3 { return p.joinLocation }

// Respawns returns how many times the participant died this match.
func (p *Player) Respawns() int { return p.respawns }

// Rewarded reports whether the reward path already ran this match.
func (p *Player) Rewarded() bool { return p.rewarded }

// Leaving reports whether a leave is in flight for this participant.
func (p *Player) Leaving() bool { return p.leaving }

// LeavingHost reports whether the identity is disconnecting from the
// host entirely, which suppresses the spectator conversion.
func (p *Player) LeavingHost() bool { return p.leavingHost }

// SetLeavingHost marks the identity as disconnecting. The host quit
// dispatch sets this before calling Leave.
func (p *Player) SetLeavingHost(leaving bool) { p.leavingHost = leaving }

// Class returns the assigned class, nil when none.
func (p *Player) Class() *catalog.Class { return p.class }

// SetClass assigns a class. Only valid while playing.
func (p *Player) SetClass(c *catalog.Class) {
	if p.mode != ModePlaying {
		panic(fmt.Sprintf("classes may only be assigned to playing participants, %s is %s", p.Name(), p.mode))
	}

	p.class = c
}

// Team returns the assigned team, nil when none.
func (p *Player) Team() *catalog.Team { return p.team }

// SetTeam assigns a team. Only valid while playing.
func (p *Player) SetTeam(t *catalog.Team) {
	if p.mode != ModePlaying {
		panic(fmt.Sprintf("teams may only be assigned to playing participants, %s is %s", p.Name(), p.mode))
	}

	p.team = t
}

// markJoin binds the participant to a session. At most one session may
// be held at a time; violating that is a programming error.
func (p *Player) markJoin(s *Session, mode Mode) {
	if p.session != nil {
		panic(fmt.Sprintf("player %s already has a session: %s", p.Name(), p.session.Name()))
	}

	p.session = s
	p.mode = mode
	p.joinLocation = p.handle.Position()
	p.resetMatchState()
}

// markLeave unbinds the participant from its session.
func (p *Player) markLeave() {
	if p.session == nil {
		panic(fmt.Sprintf("player %s does not have any session", p.Name()))
	}

	p.session = nil
	p.mode = modeNone
	p.joinLocation = mgl64.Vec3{}
	p.resetMatchState()
}

// markSpectating converts the mode only, preserving the session
// reference.
func (p *Player) markSpectating() {
	if p.session == nil {
		panic(fmt.Sprintf("player %s does not have any session", p.Name()))
	}

	p.mode = ModeSpectating
	p.respawns = 0
	p.class = nil
	p.team = nil
}

func (p *Player) resetMatchState() {
	p.respawns = 0
	p.matchPoints = 0
	p.class = nil
	p.team = nil
	p.rewarded = false
	p.leaving = false
}

// markRewarded flags the at-most-once reward per match membership.
func (p *Player) markRewarded() {
	if p.session == nil {
		panic(fmt.Sprintf("player %s lacks a session to be rewarded in", p.Name()))
	}
	if p.rewarded {
		panic(fmt.Sprintf("player %s was already rewarded", p.Name()))
	}

	p.rewarded = true
}

// increaseRespawns bumps the death counter.
func (p *Player) increaseRespawns() { p.respawns++ }

// CaptureSnapshot stores the participant's pre-join state. Capturing
// over an existing snapshot is a programming error.
func (p *Player) CaptureSnapshot() {
	if p.snapshot != nil {
		panic(fmt.Sprintf("player %s already has a stored snapshot", p.Name()))
	}

	p.snapshot = p.handle.CaptureState()
}

// RestoreSnapshot applies and discards the stored snapshot. Restoring
// without one is a programming error.
func (p *Player) RestoreSnapshot() {
	if p.snapshot == nil {
		panic(fmt.Sprintf("player %s does not have a stored snapshot", p.Name()))
	}

	p.handle.RestoreState(p.snapshot)
	p.snapshot = nil
}

// HasSnapshot reports whether a pre-join snapshot is held.
func (p *Player) HasSnapshot() bool { return p.snapshot != nil }

// MatchPoints returns the points accumulated this match.
func (p *Player) MatchPoints() float64 { return p.matchPoints }

// GiveMatchPoints adds points to the transient match accumulator.
func (p *Player) GiveMatchPoints(points float64) {
	if points < 0 {
		panic("match points must not be negative")
	}

	p.matchPoints = round2(p.matchPoints + points)
}

// ConvertMatchPoints moves the match accumulator into the durable
// total, persists the record and returns the converted amount.
func (p *Player) ConvertMatchPoints() float64 {
	converted := p.matchPoints

	p.durable.TotalPoints = round2(p.durable.TotalPoints + converted)
	p.matchPoints = 0
	p.players.save(p)

	return converted
}

// TotalPoints returns the durable currency balance.
func (p *Player) TotalPoints() float64 { return p.durable.TotalPoints }

// Tier returns the participant's tier for the class, starting at 1.
func (p *Player) Tier(class *catalog.Class) int {
	if tier, ok := p.durable.ClassTiers[class.Name]; ok {
		return tier
	}

	return 1
}

// SaveTier persists a new tier level for the class.
func (p *Player) SaveTier(class *catalog.Class, tier int) {
	if p.durable.ClassTiers == nil {
		p.durable.ClassTiers = make(map[string]int)
	}

	p.durable.ClassTiers[class.Name] = tier
	p.players.save(p)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Players owns the per-identity caches. Lookup is by stable identity,
// never by handle reference, so reconnects land on the same cache.
type Players struct {
	store  *storage.Store
	log    log.Log
	caches map[uuid.UUID]*Player
}

// NewPlayers creates an empty cache registry.
func NewPlayers(store *storage.Store, l log.Log) *Players {
	return &Players{
		store:  store,
		log:    l,
		caches: make(map[uuid.UUID]*Player),
	}
}

// Get returns the cache for the handle's identity, creating it and
// loading the durable record on first reference. The stored handle is
// refreshed so reconnects see the live connection.
func (ps *Players) Get(h Handle) *Player {
	if p, ok := ps.caches[h.ID()]; ok {
		p.handle = h
		return p
	}

	p := &Player{handle: h, players: ps}

	if err := ps.store.Load(ps.record(h.ID()), &p.durable); err != nil && !os.IsNotExist(err) {
		ps.log.Error("failed to load durable player record",
			zap.String("player", h.Name()),
			zap.Error(err))
	}

	ps.caches[h.ID()] = p

	return p
}

// Find returns the cache for an identity without creating one.
func (ps *Players) Find(id uuid.UUID) (*Player, bool) {
	p, ok := ps.caches[id]
	return p, ok
}

// Drop discards the cache for a disconnected identity.
func (ps *Players) Drop(id uuid.UUID) {
	delete(ps.caches, id)
}

func (ps *Players) save(p *Player) {
	if err := ps.store.Save(ps.record(p.ID()), &p.durable); err != nil {
		ps.log.Error("failed to save durable player record",
			zap.String("player", p.Name()),
			zap.Error(err))
	}
}

func (ps *Players) record(id uuid.UUID) string {
	return "players/" + id.String()
}
