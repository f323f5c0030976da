package arena

import (
	"go.uber.org/zap"

	"github.com/zeusync/arena/internal/core/catalog"
	"github.com/zeusync/arena/pkg/picker"
)

// Teams is the per-session team bookkeeping for variants with the
// teams trait. It tracks nothing durable itself; membership lives on
// the participant caches and definitions in the catalog.
type Teams struct {
	session *Session
	picker  *picker.Picker[*Player, *catalog.Team]
	tags    map[string]map[string]any
}

func newTeams(s *Session) *Teams {
	t := &Teams{
		session: s,
		tags:    make(map[string]map[string]any),
	}

	t.picker = picker.New[*Player, *catalog.Team](func(p *Player, team *catalog.Team) bool {
		return t.IsBalancedJoin(team, true) && team.CanAssign(p, s.name)
	})

	return t
}

// Available returns the catalog teams applicable to this session.
func (t *Teams) Available() []*catalog.Team {
	return t.session.deps.Catalog.TeamsFor(t.session.name)
}

// Members returns the playing participants on the team.
func (t *Teams) Members(team *catalog.Team) []*Player {
	var out []*Player
	for _, p := range t.session.Playing() {
		if p.Team() != nil && p.Team().Name == team.Name {
			out = append(out, p)
		}
	}

	return out
}

func (t *Teams) lowestSize() int {
	lowest := -1
	for _, team := range t.Available() {
		if size := len(t.Members(team)); lowest < 0 || size < lowest {
			lowest = size
		}
	}

	if lowest < 0 {
		return 0
	}

	return lowest
}

// IsBalancedJoin reports whether joining the team keeps its size gap
// against the smallest applicable team under the configured
// threshold. Strict mode additionally refuses, at threshold 1, to
// join a team tied with a non-empty smallest team, forcing perfect
// equalization first. Manual team selection calls this with strict
// false.
func (t *Teams) IsBalancedJoin(team *catalog.Team, strict bool) bool {
	settings := t.session.settings

	lowest := t.lowestSize()
	imbalance := len(t.Members(team)) - lowest
	threshold := settings.TeamImbalance

	if strict && settings.StrictEqualize && threshold == 1 && imbalance == 0 && lowest > 0 {
		return false
	}

	return imbalance < threshold
}

// SelectTeam handles a manual team choice, enforcing eligibility and
// the non-strict balance rule.
func (t *Teams) SelectTeam(p *Player, team *catalog.Team) error {
	if !t.session.Has(p) || p.Mode() != ModePlaying {
		return rejectf("You can only select a team while playing in %s.", t.session.name)
	}

	if !team.CanAssign(p, t.session.name) {
		return rejectf("You cannot join team %s.", team.Name)
	}

	if !t.IsBalancedJoin(team, false) {
		return rejectf("Team %s has too many players, pick a smaller one.", team.Name)
	}

	p.SetTeam(team)
	p.Handle().Message("You joined team " + team.Name + ".")

	return nil
}

// assignMissing gives every playing participant without a team a
// balanced random one, evicting those nothing can take.
func (t *Teams) assignMissing() {
	for _, p := range t.session.Playing() {
		if t.session.Phase() == PhaseStopped {
			return
		}
		if p.Team() != nil {
			continue
		}

		if team, ok := t.picker.PickFrom(t.Available(), p); ok {
			p.SetTeam(team)
			p.Handle().Message("You were assigned to team " + team.Name + ".")
			continue
		}

		t.session.deps.Log.Warn("no assignable team",
			zap.String("session", t.session.name),
			zap.String("player", p.Name()))
		t.session.Leave(p, LeaveNoTeam)
	}
}

// LastTeamStanding returns the only team with playing participants
// left, or nil when none or more than one remain.
func (t *Teams) LastTeamStanding() *catalog.Team {
	var last *catalog.Team

	for _, p := range t.session.Playing() {
		team := p.Team()
		if team == nil {
			continue
		}

		if last != nil && last.Name != team.Name {
			return nil
		}

		last = team
	}

	return last
}

// SetTag stores a transient per-team value, cleared on stop.
func (t *Teams) SetTag(team *catalog.Team, key string, value any) {
	tags, ok := t.tags[team.Name]
	if !ok {
		tags = make(map[string]any)
		t.tags[team.Name] = tags
	}

	tags[key] = value
}

// Tag reads a transient per-team value.
func (t *Teams) Tag(team *catalog.Team, key string) (any, bool) {
	value, ok := t.tags[team.Name][key]
	return value, ok
}

func (t *Teams) clearTags() {
	t.tags = make(map[string]map[string]any)
}
