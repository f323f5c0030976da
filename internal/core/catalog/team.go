package catalog

import (
	"fmt"
	"os"
)

// Team is a named, externally configured team definition. Mutating
// setters persist the record immediately.
type Team struct {
	Name string `yaml:"-"`

	// Color is the display color name shown in menus and helmets.
	Color string `yaml:"color,omitempty"`

	// Icon names the menu icon for this team.
	Icon string `yaml:"icon,omitempty"`

	// Permission gates who may pick this team. Empty allows everyone.
	Permission string `yaml:"permission,omitempty"`

	// ApplicableSessions restricts the sessions the team plays in.
	// Empty means every session.
	ApplicableSessions []string `yaml:"applicable_sessions,omitempty"`

	store saver
}

type saver interface {
	Save(name string, record any) error
	Load(name string, out any) error
}

func loadTeam(store saver, name string) (*Team, error) {
	team := &Team{Name: name, store: store}

	if err := store.Load("teams/"+name, team); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog: load team %s: %w", name, err)
		}

		if err := team.save(); err != nil {
			return nil, err
		}
	}

	return team, nil
}

func (t *Team) save() error {
	return t.store.Save("teams/"+t.Name, t)
}

// AppliesTo reports whether the team may play in the named session.
func (t *Team) AppliesTo(sessionName string) bool {
	if len(t.ApplicableSessions) == 0 {
		return true
	}

	for _, s := range t.ApplicableSessions {
		if s == sessionName {
			return true
		}
	}

	return false
}

// CanAssign reports whether the subject may be given this team in the
// named session.
func (t *Team) CanAssign(subject Subject, sessionName string) bool {
	if t.Permission != "" && !subject.HasPermission(t.Permission) {
		return false
	}

	return t.AppliesTo(sessionName)
}

// SetColor updates the display color and persists the record.
func (t *Team) SetColor(color string) error {
	t.Color = color
	return t.save()
}

// SetPermission updates the gate permission; empty allows everyone.
func (t *Team) SetPermission(perm string) error {
	t.Permission = perm
	return t.save()
}

// ToggleApplicableSession adds or removes the session from the
// applicable list, returning true when it was added.
func (t *Team) ToggleApplicableSession(sessionName string) (bool, error) {
	for i, s := range t.ApplicableSessions {
		if s == sessionName {
			t.ApplicableSessions = append(t.ApplicableSessions[:i], t.ApplicableSessions[i+1:]...)

			return false, t.save()
		}
	}

	t.ApplicableSessions = append(t.ApplicableSessions, sessionName)

	return true, t.save()
}

func (t *Team) String() string {
	return "Team{" + t.Name + "}"
}
