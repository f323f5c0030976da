package region

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/observability/log"
)

func vec(x, y, z float64) mgl64.Vec3 { return mgl64.Vec3{x, y, z} }

func whole(a, b mgl64.Vec3) *Region {
	r := &Region{}
	r.Update(a, b)
	return r
}

func TestContains(t *testing.T) {
	r := whole(vec(10, 0, 10), vec(-10, 5, -10))

	assert.True(t, r.Contains(vec(0, 2, 0)))
	assert.True(t, r.Contains(vec(10, 5, -10)), "boundary is inside")
	assert.False(t, r.Contains(vec(11, 2, 0)))
	assert.False(t, r.Contains(vec(0, 6, 0)))
}

func TestIncompleteRegion(t *testing.T) {
	r := &Region{}
	assert.False(t, r.IsWhole())
	assert.False(t, r.Contains(vec(0, 0, 0)))

	var nilRegion *Region
	assert.False(t, nilRegion.IsWhole())
}

func TestCenter(t *testing.T) {
	r := whole(vec(0, 0, 0), vec(10, 10, 10))
	assert.Equal(t, vec(5, 5, 5), r.Center())
}

type fakeSnapshotter struct {
	mu       sync.Mutex
	release  chan struct{}
	restores int
	err      error
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context, name string, r *Region) error {
	return f.err
}

func (f *fakeSnapshotter) Restore(ctx context.Context, name string, r *Region) error {
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	f.restores++
	f.mu.Unlock()

	return f.err
}

func TestManagerProcessingFlag(t *testing.T) {
	snap := &fakeSnapshotter{release: make(chan struct{})}
	m := NewManager(context.Background(), log.Nop(), snap, nil)
	r := whole(vec(0, 0, 0), vec(1, 1, 1))

	m.Restore("ruins", r, nil)
	assert.True(t, m.IsProcessing("ruins"))
	assert.False(t, m.IsProcessing("other"))

	close(snap.release)
	require.NoError(t, m.Wait())
	assert.False(t, m.IsProcessing("ruins"))
}

func TestManagerDoneCallback(t *testing.T) {
	snap := &fakeSnapshotter{}
	m := NewManager(context.Background(), log.Nop(), snap, nil)
	r := whole(vec(0, 0, 0), vec(1, 1, 1))

	done := make(chan struct{})
	m.Restore("ruins", r, func() { close(done) })

	require.NoError(t, m.Wait())
	<-done
}

func TestManagerSkipsIncompleteRegion(t *testing.T) {
	snap := &fakeSnapshotter{}
	m := NewManager(context.Background(), log.Nop(), snap, nil)

	m.Restore("ruins", &Region{}, nil)
	require.NoError(t, m.Wait())
	assert.Zero(t, snap.restores)
}

func TestManagerSurvivesJobError(t *testing.T) {
	snap := &fakeSnapshotter{err: errors.New("disk full")}
	m := NewManager(context.Background(), log.Nop(), snap, nil)
	r := whole(vec(0, 0, 0), vec(1, 1, 1))

	m.Snapshot("ruins", r)
	require.NoError(t, m.Wait(), "job errors are logged, not propagated")
}
