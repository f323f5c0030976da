// Package dm implements the free-for-all deathmatch session type:
// every participant for themselves, limited lives, last one playing
// wins.
package dm

import (
	"github.com/zeusync/arena/internal/core/arena"
)

// Type is the registry key for this session type.
const Type = "deathmatch"

// KillPoints is awarded per kill and converted to durable currency on
// reward.
const KillPoints = 10

// Deathmatch is the last-man-standing variant.
type Deathmatch struct {
	arena.BaseVariant

	session *arena.Session
}

// New is the registry constructor.
func New() arena.Variant {
	return &Deathmatch{}
}

func (d *Deathmatch) Type() string { return Type }

func (d *Deathmatch) Traits() arena.Traits {
	return arena.Traits{
		Lives:   true,
		Classes: true,
		Points:  true,
	}
}

func (d *Deathmatch) OnLoad(s *arena.Session) {
	d.session = s
}

func (d *Deathmatch) OnDeath(victim, killer *arena.Player) arena.Control {
	if killer != nil && killer.ID() != victim.ID() {
		killer.GiveMatchPoints(KillPoints)
		killer.Handle().Message("You killed " + victim.Name() + ".")
	}

	return arena.Continue
}

func (d *Deathmatch) OnLeave(p *arena.Player, reason *arena.LeaveReason) {
	d.checkLastStanding()
}

func (d *Deathmatch) OnSpectate(p *arena.Player) {
	d.checkLastStanding()
}

// checkLastStanding ends the match with a winner once a single
// playing participant remains. The winner's own leave empties the
// session, which stops it.
func (d *Deathmatch) checkLastStanding() {
	if d.session.Phase() != arena.PhasePlayed || d.session.Stopping() {
		return
	}

	if playing := d.session.Playing(); len(playing) == 1 {
		d.session.Leave(playing[0], arena.LeaveLastStanding)
	}
}
