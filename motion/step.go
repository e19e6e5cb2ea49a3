package motion

import "github.com/gogpu/fractal"

// Step applies one tick of held actions to v.
//
// Zoom changes first, then pan moves by PanStep times the new zoom so the
// pan speed tracks the visible detail. Opposite actions held together
// cancel. The result always has MinZoom <= Zoom <= MaxZoom, including when
// v starts outside that range after a config change.
func Step(v fractal.View, held fractal.Action, cfg Config) fractal.View {
	if held.Has(fractal.ZoomIn) {
		v.Zoom /= cfg.ZoomFactor
	}
	if held.Has(fractal.ZoomOut) {
		v.Zoom *= cfg.ZoomFactor
	}
	v.Zoom = min(max(v.Zoom, cfg.MinZoom), cfg.MaxZoom)

	step := cfg.PanStep * v.Zoom
	if held.Has(fractal.PanLeft) {
		v.PanX -= step
	}
	if held.Has(fractal.PanRight) {
		v.PanX += step
	}
	if held.Has(fractal.PanUp) {
		v.PanY -= step
	}
	if held.Has(fractal.PanDown) {
		v.PanY += step
	}
	return v
}
