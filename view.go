package fractal

import "sync"

// View holds the camera parameters of one frame.
type View struct {
	Zoom float32
	PanX float32
	PanY float32
}

// DefaultView is the camera at startup: the whole set in view, centered
// left of the origin.
var DefaultView = View{Zoom: 0.5, PanX: -1, PanY: 0}

// ViewState is the latest published View. The update loop replaces it
// whole and the render loop copies it out, each under a short lock, so a
// reader never sees a partially written View.
type ViewState struct {
	mu   sync.Mutex
	view View
}

// NewViewState returns a ViewState holding v.
func NewViewState(v View) *ViewState {
	return &ViewState{view: v}
}

// Store publishes v, replacing the previous View.
func (s *ViewState) Store(v View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// Load returns a copy of the latest View.
func (s *ViewState) Load() View {
	s.mu.Lock()
	v := s.view
	s.mu.Unlock()
	return v
}
