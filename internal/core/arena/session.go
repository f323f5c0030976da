package arena

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeusync/arena/internal/core/catalog"
	"github.com/zeusync/arena/internal/core/events/bus"
	"github.com/zeusync/arena/pkg/countdown"
	"github.com/zeusync/arena/pkg/picker"
)

// Event types published on the bus for presentation layers. Nothing
// is consumed back from subscribers.
const (
	EventJoin       = "session.join"
	EventLeave      = "session.leave"
	EventSpectate   = "session.spectate"
	EventLobbyStart = "session.lobby_start"
	EventEditStart  = "session.edit_start"
	EventEditLeave  = "session.edit_leave"
	EventMatchStart = "session.match_start"
	EventStop       = "session.stop"
)

// Session is one named match instance. All mutating calls run on the
// single controlling goroutine; the only work pushed elsewhere is
// persistence and region jobs, which never touch session state.
type Session struct {
	name     string
	variant  Variant
	settings *Settings
	deps     Deps

	phase   Phase
	players []*Player

	startCountdown *countdown.Countdown
	heartbeat      *countdown.Countdown

	spawns *picker.Picker[*Player, mgl64.Vec3]

	tags  map[uuid.UUID]map[string]any
	teams *Teams

	stopping       bool
	starting       bool
	presentAtStart map[uuid.UUID]bool
}

// New constructs a session from its persisted settings, creating the
// record with defaults when missing. The variant's OnLoad hook runs
// before the session is returned.
func New(name string, variant Variant, deps Deps) (*Session, error) {
	settings, err := loadSettings(deps.Store, name, variant.Type())
	if err != nil {
		return nil, err
	}

	s := &Session{
		name:     name,
		variant:  variant,
		settings: settings,
		deps:     deps,
		phase:    PhaseStopped,
		spawns:   picker.New[*Player, mgl64.Vec3](nil),
		tags:     make(map[uuid.UUID]map[string]any),
	}

	if variant.Traits().Teams {
		s.teams = newTeams(s)
	}

	variant.OnLoad(s)

	return s, nil
}

// Name returns the unique session name.
func (s *Session) Name() string { return s.name }

// Type returns the variant's registry key.
func (s *Session) Type() string { return s.variant.Type() }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase { return s.phase }

// Settings returns the live configuration. Mutate only through
// EditSettings.
func (s *Session) Settings() *Settings { return s.settings }

// Variant returns the behavior plug-in.
func (s *Session) Variant() Variant { return s.variant }

// Teams returns the team bookkeeping, nil for variants without teams.
func (s *Session) Teams() *Teams { return s.teams }

// Stopping reports whether a stop is currently tearing the session
// down.
func (s *Session) Stopping() bool { return s.stopping }

// Participants returns a copy of the current participant list, in
// join order.
func (s *Session) Participants() []*Player {
	return append([]*Player(nil), s.players...)
}

// Playing returns the participants currently in playing mode.
func (s *Session) Playing() []*Player {
	var out []*Player
	for _, p := range s.players {
		if p.Mode() == ModePlaying {
			out = append(out, p)
		}
	}

	return out
}

func (s *Session) countPlaying() int {
	n := 0
	for _, p := range s.players {
		if p.Mode() == ModePlaying {
			n++
		}
	}

	return n
}

// Has reports whether the participant is in this session.
func (s *Session) Has(p *Player) bool {
	for _, other := range s.players {
		if other.ID() == p.ID() {
			return true
		}
	}

	return false
}

// PresentAtStart reports whether the participant was playing when the
// match started. Late joiners and promoted spectators are excluded
// from rewards.
func (s *Session) PresentAtStart(p *Player) bool {
	return s.presentAtStart[p.ID()]
}

// EditSettings mutates a draft copy of the settings and commits it as
// one persisted record. The live settings are swapped only after the
// save succeeded.
func (s *Session) EditSettings(mutate func(*Settings)) error {
	draft := s.settings.clone()
	mutate(draft)

	if err := s.deps.Store.Save(settingsRecord(s.name), draft); err != nil {
		return fmt.Errorf("commit settings for %s: %w", s.name, err)
	}

	s.settings = draft

	return nil
}

// Join adds the handle's identity to the session in the given mode. A
// returned Rejection was already messaged to the participant; other
// errors mean a hook failed and the join was aborted.
func (s *Session) Join(h Handle, mode Mode) error {
	p := s.deps.Players.Get(h)

	if err := s.canJoin(p, mode); err != nil {
		h.Message(err.Error())
		return err
	}

	if err := s.runHook("join", func() error { return s.variant.OnJoin(p, mode) }); err != nil {
		if IsRejection(err) {
			h.Message(err.Error())
			return err
		}

		h.Message("Could not join the session, please contact an administrator.")
		return fmt.Errorf("join hook for %s: %w", p.Name(), err)
	}

	wasStopped := s.phase == PhaseStopped

	p.markJoin(s, mode)
	s.players = append(s.players, p)

	if mode != ModeEditing {
		p.CaptureSnapshot()
		h.Normalize()
	}

	if s.settings.LobbyPoint != nil {
		h.Teleport(*s.settings.LobbyPoint)
	}

	if mode == ModeSpectating {
		h.SetSpectator(true)
	}

	if wasStopped {
		if mode == ModeEditing {
			s.phase = PhaseEdited
			s.deps.Log.Info("session entered edit mode",
				zap.String("session", s.name),
				zap.String("player", p.Name()))
			s.publish(EventEditStart, p.ID())
		} else {
			s.startLobby()
		}
	}

	if mode != ModeEditing {
		s.broadcast(fmt.Sprintf("%s has joined the session. (%d/%d)",
			p.Name(), s.countPlaying(), s.settings.MaxPlayers))
	}
	s.publish(EventJoin, p.ID())
	s.checkIntegrity()

	return nil
}

// canJoin evaluates eligibility in a fixed order, first failure wins.
// Rejections carry the message sent back to the participant.
func (s *Session) canJoin(p *Player, mode Mode) error {
	if s.stopping {
		return rejectf("The session %s is shutting down.", s.name)
	}

	if p.HasSession() {
		if p.Session() == s {
			return rejectf("You have already joined the session %s.", s.name)
		}

		return rejectf("You are already in the session %s, leave it first.", p.Session().Name())
	}

	if s.phase == PhaseEdited && mode != ModeEditing {
		return rejectf("The session %s is being edited right now.", s.name)
	}

	if mode == ModeEditing && s.phase != PhaseEdited && s.phase != PhaseStopped {
		return rejectf("The session %s cannot be edited while it is %s.", s.name, s.phase)
	}

	if mode == ModeSpectating && s.phase != PhasePlayed {
		return rejectf("You can only spectate a session with a running match.")
	}

	if mode == ModePlaying && s.phase == PhasePlayed {
		return rejectf("The match in %s has already started, join as a spectator instead.", s.name)
	}

	if mode != ModeEditing && !s.settings.IsReady() {
		return rejectf("The session %s is not configured yet.", s.name)
	}

	if mode == ModePlaying && s.countPlaying() >= s.settings.MaxPlayers {
		return rejectf("The session %s is full. (%d/%d)", s.name, s.countPlaying(), s.settings.MaxPlayers)
	}

	if s.deps.Regions.IsProcessing(s.name) {
		return rejectf("The session %s is being restored, try again in a moment.", s.name)
	}

	return nil
}

// startLobby opens the waiting room. Called on the first non-editing
// join out of the stopped phase.
func (s *Session) startLobby() {
	s.phase = PhaseLobby

	if s.settings.MapReset && s.settings.Region.IsWhole() {
		s.deps.Regions.Snapshot(s.name, s.settings.Region)
	}

	if err := s.runHook("lobby start", func() error { s.variant.OnLobbyStart(s); return nil }); err != nil {
		s.hookFailure("lobby start", err)
		return
	}

	s.startCountdown = countdown.New(s.settings.LobbyTicks, countdown.Hooks{
		OnTick: func() error {
			s.announceRemaining("The match begins in %d.", s.startCountdown.Remaining())
			return nil
		},
		OnTickError: func(err error) { s.hookFailure("lobby tick", err) },
		OnEnd:       s.StartMatch,
	})
	s.startCountdown.Launch()

	s.deps.Log.Info("session lobby opened",
		zap.String("session", s.name),
		zap.Int("lobby_ticks", s.settings.LobbyTicks))
	s.publish(EventLobbyStart, nil)
}

// StartMatch transitions the lobby into a running match. Calling it
// from any other phase is a programming error.
func (s *Session) StartMatch() {
	if s.phase != PhaseLobby {
		panic(fmt.Sprintf("session %s cannot start a match while %s", s.name, s.phase))
	}

	s.starting = true
	defer func() { s.starting = false }()

	if s.startCountdown != nil {
		s.startCountdown.Cancel()
	}

	s.presentAtStart = make(map[uuid.UUID]bool)
	for _, p := range s.Playing() {
		s.presentAtStart[p.ID()] = true
	}

	s.phase = PhasePlayed

	s.preStart()

	// Evictions during pre-start may have emptied and stopped the
	// session already.
	if s.phase == PhaseStopped {
		return
	}

	if playing := s.countPlaying(); playing < s.settings.MinPlayers {
		s.broadcast(s.format(LeaveNotEnoughPlayers.Message(), nil))
		s.Stop(StopNotEnoughPlayers)
		return
	}

	if err := s.runHook("match start", func() error { s.variant.OnMatchStart(s); return nil }); err != nil {
		s.hookFailure("match start", err)
		return
	}

	s.spawns.SetItems(s.settings.SpawnPoints)
	for _, p := range s.Playing() {
		p.Handle().Teleport(s.spawnFor(p))
	}

	s.heartbeat = countdown.New(s.settings.GameTicks, countdown.Hooks{
		OnTick: func() error {
			s.announceRemaining("The match ends in %d.", s.heartbeat.Remaining())
			return s.variant.OnMatchTick(s)
		},
		OnTickError: func(err error) { s.hookFailure("match tick", err) },
		OnEnd:       func() { s.Stop(StopTimer) },
	})
	s.heartbeat.Launch()

	s.deps.Log.Info("match started",
		zap.String("session", s.name),
		zap.Int("playing", s.countPlaying()),
		zap.Int("game_ticks", s.settings.GameTicks))
	s.publish(EventMatchStart, nil)
}

// preStart assigns a class and a team to every playing participant
// who has none, evicting those nothing can be assigned to.
func (s *Session) preStart() {
	traits := s.variant.Traits()

	if traits.Classes {
		classes := picker.New[*Player, *catalog.Class](func(p *Player, c *catalog.Class) bool {
			return c.CanAssign(p, s.name)
		})

		for _, p := range s.Playing() {
			if s.phase == PhaseStopped {
				return
			}
			if p.Class() != nil {
				continue
			}

			classes.SetItems(s.deps.Catalog.Classes())
			if class, ok := classes.Pick(p); ok {
				p.SetClass(class)
				continue
			}

			s.Leave(p, LeaveNoClass)
		}
	}

	if traits.Teams {
		s.teams.assignMissing()
	}
}

// spawnFor picks a match entrance without repeats; once every
// configured point was handed out the pool refills. Variants may
// override the choice entirely.
func (s *Session) spawnFor(p *Player) mgl64.Vec3 {
	if point, ok := s.variant.SpawnPoint(p); ok {
		return point
	}

	if len(s.settings.SpawnPoints) == 0 {
		return s.settings.Region.Center()
	}

	if s.spawns.Remaining() == 0 {
		s.spawns.SetItems(s.settings.SpawnPoints)
	}

	if point, ok := s.spawns.Pick(p); ok {
		return point
	}

	return s.settings.SpawnPoints[0]
}

// Leave removes the participant or converts them to a spectator,
// depending on the reason's flags and the remaining population.
func (s *Session) Leave(p *Player, reason *LeaveReason) {
	if !s.Has(p) {
		panic(fmt.Sprintf("player %s is not in session %s", p.Name(), s.name))
	}
	if p.Leaving() {
		return
	}

	p.leaving = true
	defer func() { p.leaving = false }()

	message := s.format(reason.Message(), p)

	if s.canConvertToSpectator(p, reason) {
		// Rewards are granted at conversion time, while the triggering
		// reason is still known. The final removal skips them through
		// the rewarded flag.
		if reason.CanReward() {
			s.giveRewards(p)
		}

		// A conversion is not a leave. The guard must not outlive it,
		// or a stop raised inside the spectate hook would skip this
		// participant during eviction.
		p.leaving = false

		s.convertToSpectator(p, message)
		return
	}

	if err := s.runHook("pre leave", func() error { s.variant.OnPreLeave(p, reason); return nil }); err != nil {
		s.hookFailure("pre leave", err)
		if !p.HasSession() {
			return
		}
	}

	s.remove(p)

	if reason.CanReward() {
		s.giveRewards(p)
	}

	wasSpectating := p.Mode() == ModeSpectating
	joinLocation := p.JoinLocation()

	p.markLeave()

	if p.HasSnapshot() {
		p.RestoreSnapshot()
	}
	if wasSpectating {
		p.Handle().SetSpectator(false)
	}
	p.Handle().Teleport(joinLocation)

	if s.phase == PhaseEdited {
		s.publish(EventEditLeave, p.ID())
	}

	if message != "" {
		p.Handle().Message(message)
	}

	if err := s.runHook("leave", func() error { s.variant.OnLeave(p, reason); return nil }); err != nil {
		s.hookFailure("leave", err)
	}

	s.deps.Log.Info("player left session",
		zap.String("session", s.name),
		zap.String("player", p.Name()),
		zap.String("reason", reason.Name()))
	s.publish(EventLeave, p.ID())

	if s.emptiedOut() && !s.stopping && s.phase != PhaseStopped {
		s.Stop(StopLastPlayerLeft)
	}

	s.checkIntegrity()
}

// emptiedOut reports whether the session lost the population that
// keeps its phase alive. In edit mode that is the whole list; in the
// lobby and the match it is the playing participants.
func (s *Session) emptiedOut() bool {
	if s.phase == PhaseEdited {
		return len(s.players) == 0
	}

	return s.countPlaying() == 0
}

func (s *Session) canConvertToSpectator(p *Player, reason *LeaveReason) bool {
	return reason.CanSpectate() &&
		p.Mode() == ModePlaying &&
		s.countPlaying() > 1 &&
		!p.LeavingHost() &&
		!s.stopping &&
		s.variant.CanSpectateOnLeave(p, reason)
}

// convertToSpectator keeps the participant in the session, watching.
// Any reward for the triggering reason was already granted by the
// caller; the later removal only restores host state.
func (s *Session) convertToSpectator(p *Player, message string) {
	p.markSpectating()
	p.Handle().SetSpectator(true)

	if playing := s.Playing(); len(playing) > 0 {
		p.Handle().Teleport(playing[0].Handle().Position())
	}

	if message != "" {
		p.Handle().Message(message)
	}

	s.deps.Log.Info("player converted to spectator",
		zap.String("session", s.name),
		zap.String("player", p.Name()))
	s.publish(EventSpectate, p.ID())

	if err := s.runHook("spectate", func() error { s.variant.OnSpectate(p); return nil }); err != nil {
		s.hookFailure("spectate", err)
	}
}

func (s *Session) remove(p *Player) {
	for i, other := range s.players {
		if other.ID() == p.ID() {
			s.players = append(s.players[:i], s.players[i+1:]...)
			return
		}
	}
}

// giveRewards runs the at-most-once reward path: variant hook, match
// point conversion, ledger deposit. Late joiners are skipped.
func (s *Session) giveRewards(p *Player) {
	if p.Rewarded() {
		return
	}
	if !s.PresentAtStart(p) {
		return
	}

	if err := s.runHook("reward", func() error { s.variant.OnReward(p); return nil }); err != nil {
		s.deps.Log.Error("reward hook failed",
			zap.String("session", s.name),
			zap.String("player", p.Name()),
			zap.Error(err))
	}

	converted := p.ConvertMatchPoints()
	if converted > 0 {
		if err := s.deps.Ledger.Deposit(p.ID(), converted); err != nil {
			s.deps.Log.Error("ledger deposit failed",
				zap.String("session", s.name),
				zap.String("player", p.Name()),
				zap.Float64("amount", converted),
				zap.Error(err))
		}
	}

	p.markRewarded()
}

// Stop tears the session down from any non-stopped phase, exactly
// once. Calling it while stopped or already stopping is a programming
// error. The phase is forced back to stopped even when a teardown
// hook fails.
func (s *Session) Stop(reason *StopReason) {
	if s.phase == PhaseStopped {
		panic(fmt.Sprintf("session %s is already stopped", s.name))
	}
	if s.stopping {
		panic(fmt.Sprintf("session %s is already being stopped", s.name))
	}

	s.stopping = true
	defer s.finishStop(reason)

	if s.startCountdown != nil {
		s.startCountdown.Cancel()
	}
	if s.heartbeat != nil {
		s.heartbeat.Cancel()
	}

	leaveReason := reason.LeaveReason()
	for _, p := range s.Participants() {
		if p.HasSession() && p.Session() == s {
			s.Leave(p, leaveReason)
		}
	}

	if err := s.runHook("stop", func() error { s.variant.OnStop(s, reason); return nil }); err != nil {
		s.deps.Log.Error("stop hook failed",
			zap.String("session", s.name),
			zap.Error(err))
	}

	if s.settings.MapReset && s.settings.Region.IsWhole() {
		s.deps.Regions.Restore(s.name, s.settings.Region, nil)
	}

	s.publish(EventStop, reason.Name())
}

// finishStop is the guaranteed final step of Stop. It detaches any
// participant a failed teardown left behind and forces the stopped
// phase.
func (s *Session) finishStop(reason *StopReason) {
	if r := recover(); r != nil {
		s.deps.Log.Error("session teardown panicked",
			zap.String("session", s.name),
			zap.Any("panic", r))
	}

	for _, p := range s.players {
		s.detach(p)
	}

	s.players = nil
	s.tags = make(map[uuid.UUID]map[string]any)
	if s.teams != nil {
		s.teams.clearTags()
	}
	s.presentAtStart = nil
	s.startCountdown = nil
	s.heartbeat = nil

	s.phase = PhaseStopped
	s.stopping = false

	s.deps.Log.Info("session stopped",
		zap.String("session", s.name),
		zap.String("reason", reason.Name()))
	s.checkIntegrity()
}

// detach is the best-effort unbind used only on failure paths.
func (s *Session) detach(p *Player) {
	defer func() {
		if r := recover(); r != nil {
			s.deps.Log.Error("failed to detach player",
				zap.String("session", s.name),
				zap.String("player", p.Name()),
				zap.Any("panic", r))
		}
	}()

	if p.HasSnapshot() {
		p.RestoreSnapshot()
	}
	p.markLeave()
}

// Tick is the periodic signal from the host scheduler, delivered on
// the controlling goroutine. It advances whichever countdown the
// current phase owns.
func (s *Session) Tick() {
	switch s.phase {
	case PhaseLobby:
		if s.startCountdown != nil {
			s.startCountdown.Tick()
		}
	case PhasePlayed:
		if s.heartbeat != nil {
			s.heartbeat.Tick()
		}
	}
}

// HandleDeath processes a playing participant's death. The variant
// may consume the event; otherwise the lives accounting runs.
func (s *Session) HandleDeath(victim, killer *Player) {
	if s.phase != PhasePlayed || victim.Mode() != ModePlaying {
		return
	}

	if s.variant.OnDeath(victim, killer) == Handled {
		return
	}

	victim.increaseRespawns()

	if s.variant.Traits().Lives && victim.Respawns() >= s.settings.Lives {
		s.Leave(victim, LeaveNoLivesLeft)
	}
}

// HandleRespawn places a participant back into the match.
func (s *Session) HandleRespawn(p *Player) {
	if s.phase != PhasePlayed || p.Mode() != ModePlaying {
		return
	}

	p.Handle().Teleport(s.spawnFor(p))
	s.variant.OnRespawn(p)
}

// HandleAttack decides whether participant versus participant damage
// goes through. Handled means the host must cancel the damage.
func (s *Session) HandleAttack(attacker, victim *Player) Control {
	if s.phase != PhasePlayed {
		return Handled
	}
	if attacker.Mode() != ModePlaying || victim.Mode() != ModePlaying {
		return Handled
	}

	return s.variant.OnDamage(attacker, victim)
}

// HandleBlockChange decides whether a build or break inside the
// session bounds goes through. Editors build freely; during a match
// the variant is asked first, then the destruction whitelist.
func (s *Session) HandleBlockChange(p *Player, material string, place bool) Control {
	switch s.phase {
	case PhaseEdited:
		return Continue
	case PhasePlayed:
		if s.variant.OnBlockChange(p, material, place) == Handled {
			return Handled
		}
		if s.settings.CanDestroy(material) {
			return Continue
		}

		return Handled
	default:
		return Handled
	}
}

// SetTag stores a transient per-participant value, cleared on stop.
func (s *Session) SetTag(p *Player, key string, value any) {
	tags, ok := s.tags[p.ID()]
	if !ok {
		tags = make(map[string]any)
		s.tags[p.ID()] = tags
	}

	tags[key] = value
}

// Tag reads a transient per-participant value.
func (s *Session) Tag(p *Player, key string) (any, bool) {
	value, ok := s.tags[p.ID()][key]
	return value, ok
}

// Broadcast sends a message to every participant, with placeholders
// resolved.
func (s *Session) Broadcast(msg string) {
	s.broadcast(s.format(msg, nil))
}

func (s *Session) broadcast(msg string) {
	for _, p := range s.players {
		p.Handle().Message(msg)
	}
}

// announceRemaining broadcasts a countdown message when remaining is
// small or on round numbers.
func (s *Session) announceRemaining(format string, remaining int) {
	if remaining > 0 && (remaining <= 5 || remaining%10 == 0) {
		s.broadcast(fmt.Sprintf(format, remaining))
	}
}

// format resolves the {session}, {deaths} and {lacking_players}
// placeholders. The participant may be nil for session-level messages.
func (s *Session) format(msg string, p *Player) string {
	if msg == "" {
		return ""
	}

	deaths := 0
	if p != nil {
		deaths = p.Respawns()
	}

	lacking := s.settings.MinPlayers - s.countPlaying()
	if lacking < 0 {
		lacking = 0
	}

	return strings.NewReplacer(
		"{session}", s.name,
		"{deaths}", strconv.Itoa(deaths),
		"{lacking_players}", strconv.Itoa(lacking)+" more players",
	).Replace(msg)
}

// runHook invokes a lifecycle hook, converting panics into errors so
// a misbehaving variant cannot unwind the controlling goroutine.
func (s *Session) runHook(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s hook panicked: %v", name, r)
		}
	}()

	return fn()
}

// hookFailure trades availability for consistency: a failed lifecycle
// hook forces the session down rather than leaving it half-mutated.
func (s *Session) hookFailure(name string, err error) {
	s.deps.Log.Error("lifecycle hook failed, stopping session",
		zap.String("session", s.name),
		zap.String("hook", name),
		zap.Error(err))

	if !s.stopping && s.phase != PhaseStopped {
		s.Stop(StopError)
	}
}

func (s *Session) publish(eventType string, data any) {
	if err := s.deps.Bus.Publish(bus.Event{Type: eventType, Source: s.name, Data: data}); err != nil {
		s.deps.Log.Warn("event handler failed",
			zap.String("session", s.name),
			zap.String("event", eventType),
			zap.Error(err))
	}
}

// checkIntegrity asserts the structural invariants after a mutation.
func (s *Session) checkIntegrity() {
	if s.phase == PhaseStopped && len(s.players) != 0 {
		panic(fmt.Sprintf("session %s is stopped but holds %d participants", s.name, len(s.players)))
	}
	if s.phase != PhaseStopped && len(s.players) == 0 && !s.stopping && !s.starting {
		panic(fmt.Sprintf("session %s is %s with no participants", s.name, s.phase))
	}
	if s.phase == PhaseEdited {
		for _, p := range s.players {
			if p.Mode() != ModeEditing {
				panic(fmt.Sprintf("session %s is edited but %s is %s", s.name, p.Name(), p.Mode()))
			}
		}
	}
}
