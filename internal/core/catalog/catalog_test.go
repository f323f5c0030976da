package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/storage"
)

type subject map[string]bool

func (s subject) HasPermission(perm string) bool { return s[perm] }

func newCatalog(t *testing.T) *Catalog {
	t.Helper()

	store, err := storage.New(context.Background(), t.TempDir(), log.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Flush() })

	return New(store, log.Nop())
}

func TestLoadOrCreateTeam(t *testing.T) {
	c := newCatalog(t)

	red, err := c.LoadOrCreateTeam("red")
	require.NoError(t, err)
	require.NoError(t, red.SetColor("red"))

	assert.Same(t, red, c.FindTeam("RED"), "lookup is case-insensitive")
	assert.Panics(t, func() { _, _ = c.LoadOrCreateTeam("red") })
}

func TestTeamEligibility(t *testing.T) {
	c := newCatalog(t)

	vip, err := c.LoadOrCreateTeam("vip")
	require.NoError(t, err)
	require.NoError(t, vip.SetPermission("arena.team.vip"))

	assert.True(t, vip.CanAssign(subject{"arena.team.vip": true}, "ruins"))
	assert.False(t, vip.CanAssign(subject{}, "ruins"))

	added, err := vip.ToggleApplicableSession("castle")
	require.NoError(t, err)
	assert.True(t, added)
	assert.False(t, vip.CanAssign(subject{"arena.team.vip": true}, "ruins"))
	assert.True(t, vip.CanAssign(subject{"arena.team.vip": true}, "castle"))
}

func TestTeamsFor(t *testing.T) {
	c := newCatalog(t)

	red, err := c.LoadOrCreateTeam("red")
	require.NoError(t, err)
	_, err = c.LoadOrCreateTeam("blue")
	require.NoError(t, err)

	_, err = red.ToggleApplicableSession("castle")
	require.NoError(t, err)

	names := func(teams []*Team) []string {
		var out []string
		for _, team := range teams {
			out = append(out, team.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"blue"}, names(c.TeamsFor("ruins")))
	assert.ElementsMatch(t, []string{"red", "blue"}, names(c.TeamsFor("castle")))
}

func TestClassTierFallback(t *testing.T) {
	c := newCatalog(t)

	knight, err := c.LoadOrCreateClass("knight")
	require.NoError(t, err)
	require.NoError(t, knight.SetTier(Tier{Level: 1}))
	require.NoError(t, knight.SetTier(Tier{Level: 3}))

	assert.Equal(t, 1, knight.TierFor(2).Level, "falls back to closest lower tier")
	assert.Equal(t, 3, knight.TierFor(5).Level)
	assert.Nil(t, (&Class{}).TierFor(1))
}

func TestCatalogReload(t *testing.T) {
	store, err := storage.New(context.Background(), t.TempDir(), log.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Flush() })

	c := New(store, log.Nop())
	_, err = c.LoadOrCreateTeam("red")
	require.NoError(t, err)
	_, err = c.LoadOrCreateClass("knight")
	require.NoError(t, err)
	require.NoError(t, store.Flush())

	fresh := New(store, log.Nop())
	require.NoError(t, fresh.Load())

	assert.NotNil(t, fresh.FindTeam("red"))
	assert.NotNil(t, fresh.FindClass("knight"))
}

func TestRemoveTeam(t *testing.T) {
	c := newCatalog(t)

	red, err := c.LoadOrCreateTeam("red")
	require.NoError(t, err)

	require.NoError(t, c.RemoveTeam(red))
	assert.Nil(t, c.FindTeam("red"))
	assert.Panics(t, func() { _ = c.RemoveTeam(red) })
}
