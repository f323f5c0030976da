package arena

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Traits declare which optional mechanics a session type uses. The
// lifecycle consults them instead of asking the variant at each step.
type Traits struct {
	// Lives limits deaths per match; running out converts to spectator.
	Lives bool

	// Classes enables loadout assignment on match start.
	Classes bool

	// Teams enables team assignment and balance checks on join.
	Teams bool

	// Points enables the match point accumulator and its conversion
	// to durable currency on reward.
	Points bool
}

// Variant is the behavior plug-in for a session type. The lifecycle
// drives every hook from the session's controlling call, so variants
// never need their own synchronization.
//
// Gameplay hooks return a Control: Continue lets the default pipeline
// run, Handled means the variant consumed the event.
type Variant interface {
	// Type is the registry key, for example "deathmatch".
	Type() string

	Traits() Traits

	// OnLoad runs once after the session's settings are read.
	OnLoad(s *Session)

	// OnLobbyStart runs when the first participant opens the lobby.
	OnLobbyStart(s *Session)

	// OnMatchStart runs after the lobby countdown elapses, before
	// participants are teleported in.
	OnMatchStart(s *Session)

	// OnMatchTick runs on every match heartbeat. A returned error is
	// logged and the match continues.
	OnMatchTick(s *Session) error

	// OnStop runs after remaining participants were evicted, before
	// the phase is forced back to stopped.
	OnStop(s *Session, reason *StopReason)

	// OnReward runs once per rewarded participant, before match
	// points are converted to durable currency.
	OnReward(p *Player)

	// OnJoin may refuse a join by returning a Rejection.
	OnJoin(p *Player, mode Mode) error

	// OnPreLeave runs before the leave is processed, while the
	// participant still counts as joined.
	OnPreLeave(p *Player, reason *LeaveReason)

	// OnLeave runs after the participant was removed.
	OnLeave(p *Player, reason *LeaveReason)

	// CanSpectateOnLeave decides whether a reason that permits
	// spectating actually converts this participant.
	CanSpectateOnLeave(p *Player, reason *LeaveReason) bool

	// OnSpectate runs after a participant was converted to a
	// spectator, so win conditions can re-evaluate the remaining
	// players.
	OnSpectate(p *Player)

	// OnDeath runs when a playing participant dies. Returning Handled
	// suppresses the default lives accounting.
	OnDeath(p *Player, killer *Player) Control

	// OnRespawn places a participant back into the match.
	OnRespawn(p *Player)

	// OnDamage may veto participant versus participant damage.
	OnDamage(attacker, victim *Player) Control

	// OnBlockChange may veto a build or break inside the region.
	// place is true for builds.
	OnBlockChange(p *Player, material string, place bool) Control

	// SpawnPoint picks where the participant enters the match. The
	// second result is false when the variant has no preference and
	// the session's configured points should be used.
	SpawnPoint(p *Player) (mgl64.Vec3, bool)
}

// BaseVariant provides no-op defaults so variants only implement the
// hooks they care about.
type BaseVariant struct{}

func (BaseVariant) Traits() Traits { return Traits{} }

func (BaseVariant) OnLoad(*Session)       {}
func (BaseVariant) OnLobbyStart(*Session) {}
func (BaseVariant) OnMatchStart(*Session) {}

func (BaseVariant) OnMatchTick(*Session) error { return nil }

func (BaseVariant) OnStop(*Session, *StopReason) {}

func (BaseVariant) OnReward(*Player) {}

func (BaseVariant) OnJoin(*Player, Mode) error { return nil }

func (BaseVariant) OnPreLeave(*Player, *LeaveReason) {}
func (BaseVariant) OnLeave(*Player, *LeaveReason)    {}

func (BaseVariant) CanSpectateOnLeave(*Player, *LeaveReason) bool { return true }

func (BaseVariant) OnSpectate(*Player) {}

func (BaseVariant) OnDeath(*Player, *Player) Control { return Continue }

func (BaseVariant) OnRespawn(*Player) {}

func (BaseVariant) OnDamage(*Player, *Player) Control { return Continue }

func (BaseVariant) OnBlockChange(*Player, string, bool) Control { return Continue }

func (BaseVariant) SpawnPoint(*Player) (mgl64.Vec3, bool) { return mgl64.Vec3{}, false }
