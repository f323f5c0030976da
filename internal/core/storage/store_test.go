package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/observability/log"
)

type record struct {
	Name  string `yaml:"name"`
	Score int    `yaml:"score"`
}

func newStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(context.Background(), t.TempDir(), log.Nop())
	require.NoError(t, err)

	return s
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Save("players/alice", record{Name: "alice", Score: 12}))
	require.NoError(t, s.Flush())

	var got record
	require.NoError(t, s.Load("players/alice", &got))
	assert.Equal(t, record{Name: "alice", Score: 12}, got)
}

func TestUnchangedSaveSkipsWrite(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Save("r", record{Name: "a"}))
	require.NoError(t, s.Flush())

	info1, err := os.Stat(s.path("r"))
	require.NoError(t, err)

	// Identical content: no rewrite, mtime stays.
	require.NoError(t, s.Save("r", record{Name: "a"}))
	require.NoError(t, s.Flush())

	info2, err := os.Stat(s.path("r"))
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}

func TestLoadMissing(t *testing.T) {
	s := newStore(t)

	var got record
	err := s.Load("nope", &got)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestQueuedSavesLandInOrder(t *testing.T) {
	s := newStore(t)

	// Every save has distinct content, so all fifty queue up; the last
	// submission must be what ends up on disk.
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Save("arenas/ruins", record{Name: "ruins", Score: i}))
	}
	require.NoError(t, s.Flush())

	var got record
	require.NoError(t, s.Load("arenas/ruins", &got))
	assert.Equal(t, 49, got.Score)
}

func TestDeleteFencesQueuedSaves(t *testing.T) {
	s := newStore(t)

	// A save queued right before the delete must not resurrect the
	// record afterwards.
	require.NoError(t, s.Save("arenas/ruins", record{Name: "ruins"}))
	require.NoError(t, s.Delete("arenas/ruins"))
	require.NoError(t, s.Flush())

	assert.False(t, s.Exists("arenas/ruins"))
}

func TestDeleteAndExists(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Save("arenas/ruins", record{Name: "ruins"}))
	require.NoError(t, s.Flush())
	assert.True(t, s.Exists("arenas/ruins"))

	require.NoError(t, s.Delete("arenas/ruins"))
	assert.False(t, s.Exists("arenas/ruins"))

	// Deleting twice is fine.
	require.NoError(t, s.Delete("arenas/ruins"))
}

func TestList(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Save("teams/red", record{Name: "red"}))
	require.NoError(t, s.Save("teams/blue", record{Name: "blue"}))
	require.NoError(t, s.Flush())

	names, err := s.List("teams")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"teams/red", "teams/blue"}, names)

	empty, err := s.List("missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
