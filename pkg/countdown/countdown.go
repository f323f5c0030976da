// Package countdown implements a restartable forward countdown that is
// advanced by an external tick signal rather than by its own timer. The
// owner decides when a quantum of time has passed and calls Tick; this
// keeps all callbacks on the owner's goroutine.
package countdown

import "fmt"

// Hooks are invoked as the countdown advances. Nil fields are skipped.
type Hooks struct {
	// OnStart fires once when the countdown is launched.
	OnStart func()

	// OnTick fires on every tick, the final one included. A returned
	// error is routed to OnTickError instead of escaping to the
	// ticker.
	OnTick func() error

	// OnTickError receives errors and recovered panics from OnTick.
	OnTickError func(err error)

	// OnEnd fires once when the countdown reaches zero. It does not
	// fire when the countdown was cancelled, even from within a hook
	// on the final tick.
	OnEnd func()
}

// Countdown counts a fixed number of ticks down to zero. It is not
// safe for concurrent use; all methods must be called from the same
// goroutine that delivers ticks.
type Countdown struct {
	total   int
	left    int
	running bool
	hooks   Hooks
}

// New creates a countdown lasting the given number of ticks. The value
// must be positive.
func New(ticks int, hooks Hooks) *Countdown {
	if ticks <= 0 {
		panic(fmt.Sprintf("countdown: non-positive duration %d", ticks))
	}

	return &Countdown{total: ticks, left: ticks, hooks: hooks}
}

// Launch arms the countdown and fires OnStart. Launching a running
// countdown is a programming error and panics.
func (c *Countdown) Launch() {
	if c.running {
		panic("countdown: already running")
	}

	c.left = c.total
	c.running = true

	if c.hooks.OnStart != nil {
		c.hooks.OnStart()
	}
}

// Tick advances the countdown by one quantum. Ticks delivered while
// the countdown is not running are ignored, so a cancelled countdown
// never observes further time.
func (c *Countdown) Tick() {
	if !c.running {
		return
	}

	c.left--

	if err := c.safeTick(); err != nil && c.hooks.OnTickError != nil {
		c.hooks.OnTickError(err)
	}

	// A hook may have cancelled the countdown; reaching zero then no
	// longer ends it.
	if !c.running {
		return
	}

	if c.left <= 0 {
		c.running = false

		if c.hooks.OnEnd != nil {
			c.hooks.OnEnd()
		}
	}
}

// safeTick runs OnTick, converting panics into errors so a misbehaving
// hook cannot take down the ticking loop.
func (c *Countdown) safeTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("countdown: tick panic: %v", r)
		}
	}()

	if c.hooks.OnTick != nil {
		return c.hooks.OnTick()
	}

	return nil
}

// Cancel stops the countdown without firing OnEnd. Cancelling a
// stopped countdown is a no-op.
func (c *Countdown) Cancel() {
	c.running = false
}

// IsRunning reports whether the countdown has been launched and has
// neither finished nor been cancelled.
func (c *Countdown) IsRunning() bool {
	return c.running
}

// Remaining returns the number of ticks left before OnEnd fires.
func (c *Countdown) Remaining() int {
	return c.left
}

// Total returns the configured duration in ticks.
func (c *Countdown) Total() int {
	return c.total
}
