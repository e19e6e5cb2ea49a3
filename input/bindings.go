package input

import (
	"maps"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gpucontext"
)

// Bindings maps keys to camera actions.
type Bindings map[gpucontext.Key]fractal.Action

// DefaultBindings returns the standard layout: W and S zoom, the arrow
// keys pan.
func DefaultBindings() Bindings {
	return Bindings{
		gpucontext.KeyW:     fractal.ZoomIn,
		gpucontext.KeyS:     fractal.ZoomOut,
		gpucontext.KeyUp:    fractal.PanUp,
		gpucontext.KeyDown:  fractal.PanDown,
		gpucontext.KeyLeft:  fractal.PanLeft,
		gpucontext.KeyRight: fractal.PanRight,
	}
}

// Lookup returns the action bound to key.
func (b Bindings) Lookup(key gpucontext.Key) (fractal.Action, bool) {
	a, ok := b[key]
	return a, ok
}

// Clone returns a copy of b.
func (b Bindings) Clone() Bindings {
	return maps.Clone(b)
}
