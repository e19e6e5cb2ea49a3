package fractal

import "sync/atomic"

// State is the lock-free state shared by the input, update and render
// loops: the mask of held actions plus the exit and surface-dirty flags.
//
// Construct one State per viewer and hand the same pointer to every loop.
// All methods are wait-free and safe for concurrent use. The zero value
// is ready to use.
type State struct {
	keys atomic.Uint32
	exit atomic.Bool

	// The dirty flag is a pair of counters. Every MarkSurfaceDirty bumps
	// marked; a reconstruction stores the mark it observed into cleared.
	// The surface is dirty while marked != cleared, so a mark made during
	// a reconstruction survives the clear that follows it.
	marked  atomic.Uint64
	cleared atomic.Uint64
}

// NewState returns a State with no keys held and no flags raised.
func NewState() *State {
	return &State{}
}

// Set marks action as held.
func (s *State) Set(action Action) {
	s.keys.Or(uint32(action))
}

// Clear marks action as released.
func (s *State) Clear(action Action) {
	s.keys.And(^uint32(action))
}

// IsSet reports whether action is currently held.
func (s *State) IsSet(action Action) bool {
	return Action(s.keys.Load()).Has(action)
}

// Held returns a snapshot of every held action.
func (s *State) Held() Action {
	return Action(s.keys.Load())
}

// RequestExit raises the exit flag. The flag is never lowered again.
func (s *State) RequestExit() {
	s.exit.Store(true)
}

// ExitRequested reports whether RequestExit has been called.
func (s *State) ExitRequested() bool {
	return s.exit.Load()
}

// MarkSurfaceDirty requests a surface reconstruction. Marks made before
// the next reconstruction completes are coalesced into one.
func (s *State) MarkSurfaceDirty() {
	s.marked.Add(1)
}

// SurfaceDirty reports whether a reconstruction is pending.
func (s *State) SurfaceDirty() bool {
	return s.marked.Load() != s.cleared.Load()
}

// DirtyMark returns the current dirty mark and whether it is still
// uncleared. The renderer takes a mark before rebuilding and passes it to
// ClearSurfaceDirty once the rebuild succeeded.
func (s *State) DirtyMark() (mark uint64, dirty bool) {
	mark = s.marked.Load()
	return mark, mark != s.cleared.Load()
}

// ClearSurfaceDirty clears every mark up to and including mark. It
// reports whether the surface is clean afterwards; false means another
// mark arrived after mark was taken and a further reconstruction is due.
func (s *State) ClearSurfaceDirty(mark uint64) bool {
	for {
		cur := s.cleared.Load()
		if mark <= cur {
			break
		}
		if s.cleared.CompareAndSwap(cur, mark) {
			break
		}
	}
	return !s.SurfaceDirty()
}
