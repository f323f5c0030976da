package arena

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Handle is the host-side representation of a connected identity. The
// engine never touches inventories, physics or rendering itself; it
// drives them through this boundary. A logical identity keeps its ID
// across reconnects even though the concrete Handle may be replaced.
type Handle interface {
	// ID is the stable identity, constant across reconnects.
	ID() uuid.UUID

	// Name is the display name.
	Name() string

	// HasPermission reports whether the identity holds a permission
	// node.
	HasPermission(perm string) bool

	// Message sends a single-line user-facing message.
	Message(msg string)

	// Position returns the identity's current location.
	Position() mgl64.Vec3

	// Teleport moves the identity.
	Teleport(to mgl64.Vec3)

	// Normalize resets transient state (inventory, vitals, effects)
	// to a clean baseline.
	Normalize()

	// CaptureState returns an opaque bag of the identity's current
	// transient state, restored verbatim by RestoreState.
	CaptureState() map[string]any

	// RestoreState applies a bag captured by CaptureState.
	RestoreState(state map[string]any)

	// SetSpectator toggles the intangible spectate affordance
	// (invisibility, flight, the follow-selector item).
	SetSpectator(spectating bool)
}
