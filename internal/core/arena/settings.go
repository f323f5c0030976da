package arena

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/arena/internal/core/region"
	"github.com/zeusync/arena/internal/core/storage"
)

// Settings is the persisted per-session configuration record. It is
// never mutated in place: use Session.EditSettings, which commits a
// draft copy in one explicit persistence step.
type Settings struct {
	// Type tags which registered session type owns this record.
	Type string `yaml:"type"`

	// MinPlayers is the threshold below which a match refuses to
	// start.
	MinPlayers int `yaml:"min_players"`

	// MaxPlayers caps playing participants.
	MaxPlayers int `yaml:"max_players"`

	// LobbyTicks is the start countdown duration in tick quanta.
	LobbyTicks int `yaml:"lobby_ticks"`

	// GameTicks is the match duration in tick quanta.
	GameTicks int `yaml:"game_ticks"`

	// Lives is how many deaths a participant survives before being
	// evicted. Ignored by variants without a lives system.
	Lives int `yaml:"lives"`

	// TeamImbalance is the allowed size gap against the smallest team
	// when joining one.
	TeamImbalance int `yaml:"team_imbalance"`

	// StrictEqualize, when the imbalance threshold is 1, forbids
	// strict-mode auto-joins that keep a non-empty smallest team tied
	// rather than equalized. See Teams.IsBalancedJoin.
	StrictEqualize bool `yaml:"strict_equalize"`

	// Region is the session's spatial bounds.
	Region *region.Region `yaml:"region,omitempty"`

	// LobbyPoint is where joining participants are placed.
	LobbyPoint *mgl64.Vec3 `yaml:"lobby_point,omitempty"`

	// SpawnPoints are the match entrances handed out at start.
	SpawnPoints []mgl64.Vec3 `yaml:"spawn_points,omitempty"`

	// DestructionWhitelist names the block materials participants may
	// place or break during a match.
	DestructionWhitelist []string `yaml:"destruction_whitelist,omitempty"`

	// MapReset enables region snapshot on lobby start and restore on
	// stop.
	MapReset bool `yaml:"map_reset"`
}

// defaultSettings mirrors the defaults of a freshly created session.
func defaultSettings(typ string) *Settings {
	return &Settings{
		Type:           typ,
		MinPlayers:     2,
		MaxPlayers:     20,
		LobbyTicks:     30,
		GameTicks:      600,
		Lives:          2,
		TeamImbalance:  1,
		StrictEqualize: true,
	}
}

// IsReady reports whether the session is configured enough to be
// played: complete bounds and a lobby point.
func (s *Settings) IsReady() bool {
	return s.Region.IsWhole() && s.LobbyPoint != nil
}

// CanDestroy reports whether the material is whitelisted for
// destruction.
func (s *Settings) CanDestroy(material string) bool {
	for _, m := range s.DestructionWhitelist {
		if m == material {
			return true
		}
	}

	return false
}

// clone returns a deep copy safe to mutate as a draft.
func (s *Settings) clone() *Settings {
	out := *s

	if s.Region != nil {
		r := *s.Region
		if s.Region.Primary != nil {
			p := *s.Region.Primary
			r.Primary = &p
		}
		if s.Region.Secondary != nil {
			p := *s.Region.Secondary
			r.Secondary = &p
		}
		out.Region = &r
	}

	if s.LobbyPoint != nil {
		p := *s.LobbyPoint
		out.LobbyPoint = &p
	}

	out.SpawnPoints = append([]mgl64.Vec3(nil), s.SpawnPoints...)
	out.DestructionWhitelist = append([]string(nil), s.DestructionWhitelist...)

	return &out
}

// settingsRecord is the storage key for a session name.
func settingsRecord(name string) string {
	return "arenas/" + name
}

// loadSettings reads the record for name, creating it with defaults
// when missing.
func loadSettings(store *storage.Store, name, typ string) (*Settings, error) {
	settings := defaultSettings(typ)

	err := store.Load(settingsRecord(name), settings)
	if os.IsNotExist(err) {
		return settings, store.Save(settingsRecord(name), settings)
	}
	if err != nil {
		return nil, fmt.Errorf("load settings for %s: %w", name, err)
	}

	if settings.Type == "" {
		settings.Type = typ
	}

	return settings, nil
}

// DetectType pre-reads a settings record to find its session type.
// Used when loading all sessions from disk.
func DetectType(store *storage.Store, name string) (string, error) {
	var record struct {
		Type string `yaml:"type"`
	}

	if err := store.Load(settingsRecord(name), &record); err != nil {
		return "", fmt.Errorf("detect type of %s: %w", name, err)
	}

	if record.Type == "" {
		return "", fmt.Errorf("session record %s has no type", name)
	}

	return record.Type, nil
}
