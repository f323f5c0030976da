// Package tdm implements the team deathmatch session type: balanced
// teams, friendly fire canceled, last team with playing participants
// wins.
package tdm

import (
	"github.com/zeusync/arena/internal/core/arena"
)

// Type is the registry key for this session type.
const Type = "team_deathmatch"

// KillPoints is awarded per enemy kill.
const KillPoints = 10

// TeamDeathmatch is the team-versus-team variant.
type TeamDeathmatch struct {
	arena.BaseVariant

	session *arena.Session

	// livesExhausted records whether elimination, rather than
	// abandonment, dominated the match's end. It picks the stop
	// reason when one team remains.
	livesExhausted bool
}

// New is the registry constructor.
func New() arena.Variant {
	return &TeamDeathmatch{}
}

func (t *TeamDeathmatch) Type() string { return Type }

func (t *TeamDeathmatch) Traits() arena.Traits {
	return arena.Traits{
		Lives:   true,
		Classes: true,
		Teams:   true,
		Points:  true,
	}
}

func (t *TeamDeathmatch) OnLoad(s *arena.Session) {
	t.session = s
}

func (t *TeamDeathmatch) OnDamage(attacker, victim *arena.Player) arena.Control {
	if sameTeam(attacker, victim) {
		attacker.Handle().Message("You cannot hurt your teammates.")
		return arena.Handled
	}

	return arena.Continue
}

func (t *TeamDeathmatch) OnDeath(victim, killer *arena.Player) arena.Control {
	if killer != nil && killer.ID() != victim.ID() && !sameTeam(killer, victim) {
		killer.GiveMatchPoints(KillPoints)
		killer.Handle().Message("You killed " + victim.Name() + ".")
	}

	return arena.Continue
}

func (t *TeamDeathmatch) OnPreLeave(p *arena.Player, reason *arena.LeaveReason) {
	if reason == arena.LeaveNoLivesLeft {
		t.livesExhausted = true
	}
}

func (t *TeamDeathmatch) OnLeave(p *arena.Player, reason *arena.LeaveReason) {
	t.checkLastTeamStanding()
}

func (t *TeamDeathmatch) OnSpectate(p *arena.Player) {
	if p.Session().Phase() == arena.PhasePlayed {
		t.livesExhausted = true
	}

	t.checkLastTeamStanding()
}

func (t *TeamDeathmatch) OnStop(s *arena.Session, reason *arena.StopReason) {
	t.livesExhausted = false
}

// checkLastTeamStanding stops the match once a single team holds all
// remaining playing participants. The stop reason depends on whether
// the other teams were eliminated or walked away.
func (t *TeamDeathmatch) checkLastTeamStanding() {
	if t.session.Phase() != arena.PhasePlayed || t.session.Stopping() {
		return
	}

	teams := t.session.Teams()
	if teams == nil || teams.LastTeamStanding() == nil {
		return
	}

	if t.livesExhausted {
		t.session.Stop(arena.StopLastTeamStanding)
	} else {
		t.session.Stop(arena.StopOtherTeamsLeft)
	}
}

func sameTeam(a, b *arena.Player) bool {
	return a.Team() != nil && b.Team() != nil && a.Team().Name == b.Team().Name
}
