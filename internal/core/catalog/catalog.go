// Package catalog holds the externally configured team and class
// definitions. Teams and classes are owned here, not by sessions;
// sessions only reference them and query eligibility.
package catalog

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/storage"
)

// Subject is whoever a team or class may be assigned to. Implemented
// by the participant cache.
type Subject interface {
	HasPermission(perm string) bool
}

// Catalog is the loaded set of team and class definitions. It is
// constructed once at startup and passed around explicitly.
type Catalog struct {
	store   *storage.Store
	log     log.Log
	teams   []*Team
	classes []*Class
}

// New creates an empty catalog backed by the given store.
func New(store *storage.Store, l log.Log) *Catalog {
	return &Catalog{store: store, log: l}
}

// Load reads every team and class record from disk, replacing whatever
// was loaded before.
func (c *Catalog) Load() error {
	c.teams = nil
	c.classes = nil

	teamNames, err := c.store.List("teams")
	if err != nil {
		return fmt.Errorf("catalog: list teams: %w", err)
	}

	for _, name := range teamNames {
		if _, err := c.LoadOrCreateTeam(strings.TrimPrefix(name, "teams/")); err != nil {
			return err
		}
	}

	classNames, err := c.store.List("classes")
	if err != nil {
		return fmt.Errorf("catalog: list classes: %w", err)
	}

	for _, name := range classNames {
		if _, err := c.LoadOrCreateClass(strings.TrimPrefix(name, "classes/")); err != nil {
			return err
		}
	}

	c.log.Info("catalog loaded",
		zap.Int("teams", len(c.teams)),
		zap.Int("classes", len(c.classes)))

	return nil
}

// LoadOrCreateTeam loads the named team record, creating a fresh one
// when it does not exist yet. Loading an already loaded team panics.
func (c *Catalog) LoadOrCreateTeam(name string) (*Team, error) {
	if c.FindTeam(name) != nil {
		panic(fmt.Sprintf("catalog: team %s is already loaded", name))
	}

	team, err := loadTeam(c.store, name)
	if err != nil {
		return nil, err
	}

	c.teams = append(c.teams, team)

	return team, nil
}

// RemoveTeam deletes the team and its record permanently.
func (c *Catalog) RemoveTeam(team *Team) error {
	for i, t := range c.teams {
		if t == team {
			c.teams = append(c.teams[:i], c.teams[i+1:]...)

			return c.store.Delete("teams/" + team.Name)
		}
	}

	panic(fmt.Sprintf("catalog: team %s is not loaded", team.Name))
}

// FindTeam returns the team by name, case-insensitively, or nil.
func (c *Catalog) FindTeam(name string) *Team {
	for _, t := range c.teams {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}

	return nil
}

// Teams returns all loaded teams.
func (c *Catalog) Teams() []*Team {
	return c.teams
}

// TeamsFor returns the teams applicable to the named session.
func (c *Catalog) TeamsFor(sessionName string) []*Team {
	var out []*Team

	for _, t := range c.teams {
		if t.AppliesTo(sessionName) {
			out = append(out, t)
		}
	}

	return out
}

// LoadOrCreateClass mirrors LoadOrCreateTeam for classes.
func (c *Catalog) LoadOrCreateClass(name string) (*Class, error) {
	if c.FindClass(name) != nil {
		panic(fmt.Sprintf("catalog: class %s is already loaded", name))
	}

	class, err := loadClass(c.store, name)
	if err != nil {
		return nil, err
	}

	c.classes = append(c.classes, class)

	return class, nil
}

// RemoveClass deletes the class and its record permanently.
func (c *Catalog) RemoveClass(class *Class) error {
	for i, cl := range c.classes {
		if cl == class {
			c.classes = append(c.classes[:i], c.classes[i+1:]...)

			return c.store.Delete("classes/" + class.Name)
		}
	}

	panic(fmt.Sprintf("catalog: class %s is not loaded", class.Name))
}

// FindClass returns the class by name, case-insensitively, or nil.
func (c *Catalog) FindClass(name string) *Class {
	for _, cl := range c.classes {
		if strings.EqualFold(cl.Name, name) {
			return cl
		}
	}

	return nil
}

// Classes returns all loaded classes.
func (c *Catalog) Classes() []*Class {
	return c.classes
}
