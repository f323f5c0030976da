package countdown

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownRunsToEnd(t *testing.T) {
	var ticks, ends int

	c := New(5, Hooks{
		OnTick: func() error { ticks++; return nil },
		OnEnd:  func() { ends++ },
	})

	c.Launch()
	require.True(t, c.IsRunning())

	for i := 0; i < 5; i++ {
		c.Tick()
	}

	assert.Equal(t, 5, ticks, "every quantum delivers OnTick, the final one included")
	assert.Equal(t, 1, ends)
	assert.False(t, c.IsRunning())

	// Extra ticks after the end must be ignored.
	c.Tick()
	assert.Equal(t, 1, ends)
}

func TestCountdownLaunchResets(t *testing.T) {
	started := 0
	c := New(3, Hooks{OnStart: func() { started++ }})

	c.Launch()
	c.Tick()
	assert.Equal(t, 2, c.Remaining())

	c.Cancel()
	c.Launch()
	assert.Equal(t, 3, c.Remaining())
	assert.Equal(t, 2, started)
}

func TestCountdownDoubleLaunchPanics(t *testing.T) {
	c := New(2, Hooks{})
	c.Launch()

	assert.Panics(t, func() { c.Launch() })
}

func TestCountdownCancelSuppressesEnd(t *testing.T) {
	ended := false
	c := New(2, Hooks{OnEnd: func() { ended = true }})

	c.Launch()
	c.Tick()
	c.Cancel()
	c.Tick()
	c.Tick()

	assert.False(t, ended)
	assert.False(t, c.IsRunning())
}

func TestCountdownTickErrorRouted(t *testing.T) {
	boom := errors.New("boom")

	var got error
	c := New(3, Hooks{
		OnTick:      func() error { return boom },
		OnTickError: func(err error) { got = err },
	})

	c.Launch()
	c.Tick()

	assert.Equal(t, boom, got)
	assert.True(t, c.IsRunning(), "tick errors do not stop the countdown itself")
}

func TestCountdownTickPanicContained(t *testing.T) {
	var got error
	c := New(3, Hooks{
		OnTick:      func() error { panic("bad hook") },
		OnTickError: func(err error) { got = err },
	})

	c.Launch()
	assert.NotPanics(t, func() { c.Tick() })
	require.Error(t, got)
	assert.Contains(t, got.Error(), "bad hook")
}

func TestCountdownFinalTickPrecedesEnd(t *testing.T) {
	var events []string
	var remaining []int

	var c *Countdown
	c = New(2, Hooks{
		OnTick: func() error {
			events = append(events, "tick")
			remaining = append(remaining, c.Remaining())
			return nil
		},
		OnEnd: func() { events = append(events, "end") },
	})

	c.Launch()
	c.Tick()
	c.Tick()

	assert.Equal(t, []string{"tick", "tick", "end"}, events)
	assert.Equal(t, []int{1, 0}, remaining, "the final tick observes zero remaining")
}

func TestCountdownCancelInFinalTickSuppressesEnd(t *testing.T) {
	ended := false

	var c *Countdown
	c = New(1, Hooks{
		OnTick: func() error { c.Cancel(); return nil },
		OnEnd:  func() { ended = true },
	})

	c.Launch()
	c.Tick()

	assert.False(t, ended)
	assert.False(t, c.IsRunning())
}

func TestCountdownNonPositivePanics(t *testing.T) {
	assert.Panics(t, func() { New(0, Hooks{}) })
}
