// Package picker provides a no-repeat random selector used to hand out
// teams, classes and spawn points. Candidates are tried in random order
// without replacement, skipping those an eligibility predicate rejects.
package picker

import (
	"math/rand"
	"time"
)

// Picker selects items of type T for subjects of type S. The zero
// value is not usable; construct with New or NewSeeded.
type Picker[S, T any] struct {
	rng      *rand.Rand
	eligible func(subject S, item T) bool
	pool     []T
}

// New creates a picker with the given eligibility predicate. A nil
// predicate accepts every combination.
func New[S, T any](eligible func(S, T) bool) *Picker[S, T] {
	return NewSeeded[S, T](time.Now().UnixNano(), eligible)
}

// NewSeeded creates a picker with a deterministic random source.
func NewSeeded[S, T any](seed int64, eligible func(S, T) bool) *Picker[S, T] {
	return &Picker[S, T]{
		rng:      rand.New(rand.NewSource(seed)),
		eligible: eligible,
	}
}

// SetItems installs a shared pool consumed by Pick. The slice is
// copied.
func (p *Picker[S, T]) SetItems(items []T) {
	p.pool = append(p.pool[:0:0], items...)
}

// Pick draws a random eligible item for the subject from the shared
// pool and removes it, so repeated calls never return the same item
// twice. Ineligible items stay in the pool for other subjects. The
// second return is false when no eligible item remains.
func (p *Picker[S, T]) Pick(subject S) (T, bool) {
	order := p.rng.Perm(len(p.pool))

	for _, i := range order {
		if p.ok(subject, p.pool[i]) {
			item := p.pool[i]
			p.pool = append(p.pool[:i], p.pool[i+1:]...)

			return item, true
		}
	}

	var zero T
	return zero, false
}

// PickFrom draws a random eligible item for the subject from the given
// candidates without touching the shared pool. Each candidate is tried
// at most once within this call.
func (p *Picker[S, T]) PickFrom(candidates []T, subject S) (T, bool) {
	order := p.rng.Perm(len(candidates))

	for _, i := range order {
		if p.ok(subject, candidates[i]) {
			return candidates[i], true
		}
	}

	var zero T
	return zero, false
}

// Remaining returns how many items are left in the shared pool.
func (p *Picker[S, T]) Remaining() int {
	return len(p.pool)
}

func (p *Picker[S, T]) ok(subject S, item T) bool {
	return p.eligible == nil || p.eligible(subject, item)
}
