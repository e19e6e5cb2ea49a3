// Package fractal is a real-time Mandelbrot viewer built on the GoGPU
// hardware abstraction layer.
//
// # Overview
//
// Three loops cooperate to keep a window showing the fractal while the
// user zooms and pans:
//
//   - the input pump ([github.com/gogpu/fractal/input]) turns window events
//     into held actions on a shared [State];
//   - the motion updater ([github.com/gogpu/fractal/motion]) integrates held
//     actions at a fixed tick and publishes a [View] into a [ViewState];
//   - the presentation engine ([github.com/gogpu/fractal/present]) copies the
//     latest View every frame, uploads it, and draws and presents one frame,
//     rebuilding the swapchain whenever the surface goes stale.
//
// This package holds the pieces the loops share. A single [State] and
// [ViewState] are created at startup and passed to every loop.
//
// # Quick Start
//
//	state := fractal.NewState()
//	view := fractal.NewViewState(fractal.DefaultView)
//
//	// Press W:
//	state.Set(fractal.ZoomIn)
//
//	// Ask all loops to stop:
//	state.RequestExit()
//
// # Logging
//
// Nothing is logged by default. Install a logger with [SetLogger]; every
// sub-package logs through [Logger].
package fractal
