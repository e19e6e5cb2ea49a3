package present

import "fmt"

// Lifecycle is the state of the swapchain as seen by the engine.
type Lifecycle uint32

// Lifecycle states.
const (
	// Valid means the surface is configured for its current size and
	// frames may target it.
	Valid Lifecycle = iota

	// PendingReconstruction means the surface must be reconfigured before
	// the next frame, either because it was resized or because the last
	// acquire or present reported it stale.
	PendingReconstruction

	// ShuttingDown means exit was requested; no further frames are drawn.
	ShuttingDown
)

// String returns the state name.
func (l Lifecycle) String() string {
	switch l {
	case Valid:
		return "Valid"
	case PendingReconstruction:
		return "PendingReconstruction"
	case ShuttingDown:
		return "ShuttingDown"
	default:
		return fmt.Sprintf("Lifecycle(%d)", uint32(l))
	}
}
