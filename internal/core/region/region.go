// Package region models the spatial bounds of a session and the
// boundary to the external snapshot/restore engine. The engine only
// asks three questions here: is a point inside, is a bulk restore in
// progress, and "snapshot/restore now".
package region

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Region is an axis-aligned box between two corner points. A region
// with fewer than two corners set is incomplete and contains nothing.
type Region struct {
	Primary   *mgl64.Vec3 `yaml:"primary,omitempty"`
	Secondary *mgl64.Vec3 `yaml:"secondary,omitempty"`
}

// IsWhole reports whether both corners are set.
func (r *Region) IsWhole() bool {
	return r != nil && r.Primary != nil && r.Secondary != nil
}

// Contains reports whether the point lies inside the region,
// boundaries included. Incomplete regions contain nothing.
func (r *Region) Contains(p mgl64.Vec3) bool {
	if !r.IsWhole() {
		return false
	}

	for axis := 0; axis < 3; axis++ {
		lo, hi := r.Primary[axis], r.Secondary[axis]
		if lo > hi {
			lo, hi = hi, lo
		}

		if p[axis] < lo || p[axis] > hi {
			return false
		}
	}

	return true
}

// Update sets or replaces the corner points.
func (r *Region) Update(primary, secondary mgl64.Vec3) {
	r.Primary = &primary
	r.Secondary = &secondary
}

// Center returns the middle of the region. Meaningless unless IsWhole.
func (r *Region) Center() mgl64.Vec3 {
	if !r.IsWhole() {
		return mgl64.Vec3{}
	}

	return r.Primary.Add(*r.Secondary).Mul(0.5)
}
