package catalog

import (
	"fmt"
	"os"
)

// Tier is one upgrade level of a class. The loadout is an opaque bag
// applied by the host's equipment layer.
type Tier struct {
	Level   int            `yaml:"level"`
	Loadout map[string]any `yaml:"loadout,omitempty"`
}

// Class is a named kit players start a match with. Mutating setters
// persist the record immediately.
type Class struct {
	Name string `yaml:"-"`

	// Icon names the menu icon for this class.
	Icon string `yaml:"icon,omitempty"`

	// Permission gates who may pick this class. Empty allows everyone.
	Permission string `yaml:"permission,omitempty"`

	// ApplicableSessions restricts the sessions the class is used in.
	// Empty means every session.
	ApplicableSessions []string `yaml:"applicable_sessions,omitempty"`

	// Tiers are the upgrade levels, lowest first.
	Tiers []Tier `yaml:"tiers,omitempty"`

	store saver
}

func loadClass(store saver, name string) (*Class, error) {
	class := &Class{Name: name, store: store}

	if err := store.Load("classes/"+name, class); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog: load class %s: %w", name, err)
		}

		if err := class.save(); err != nil {
			return nil, err
		}
	}

	return class, nil
}

func (c *Class) save() error {
	return c.store.Save("classes/"+c.Name, c)
}

// AppliesTo reports whether the class may be used in the named
// session.
func (c *Class) AppliesTo(sessionName string) bool {
	if len(c.ApplicableSessions) == 0 {
		return true
	}

	for _, s := range c.ApplicableSessions {
		if s == sessionName {
			return true
		}
	}

	return false
}

// CanAssign reports whether the subject may be given this class in the
// named session.
func (c *Class) CanAssign(subject Subject, sessionName string) bool {
	if c.Permission != "" && !subject.HasPermission(c.Permission) {
		return false
	}

	return c.AppliesTo(sessionName)
}

// TierFor returns the tier at the given level, falling back to the
// closest lower configured tier. Returns nil when no tier at or below
// the level exists.
func (c *Class) TierFor(level int) *Tier {
	var best *Tier

	for i := range c.Tiers {
		t := &c.Tiers[i]

		if t.Level <= level && (best == nil || t.Level > best.Level) {
			best = t
		}
	}

	return best
}

// SetTier adds or replaces the tier at its level and persists.
func (c *Class) SetTier(tier Tier) error {
	for i := range c.Tiers {
		if c.Tiers[i].Level == tier.Level {
			c.Tiers[i] = tier
			return c.save()
		}
	}

	c.Tiers = append(c.Tiers, tier)

	return c.save()
}

// SetPermission updates the gate permission; empty allows everyone.
func (c *Class) SetPermission(perm string) error {
	c.Permission = perm
	return c.save()
}

func (c *Class) String() string {
	return "Class{" + c.Name + "}"
}
