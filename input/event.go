package input

import (
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Kind identifies the type of a window event.
type Kind uint8

// Event kinds.
const (
	KeyPress Kind = iota + 1
	KeyRelease
	Resize
	Close
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KeyPress:
		return "KeyPress"
	case KeyRelease:
		return "KeyRelease"
	case Resize:
		return "Resize"
	case Close:
		return "Close"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is one window event delivered to the pump.
type Event struct {
	Kind Kind

	// Key and Mods are set for KeyPress and KeyRelease.
	Key  gpucontext.Key
	Mods gpucontext.Modifiers

	// Width and Height are set for Resize, in logical points.
	Width  int
	Height int
}

// PressEvent returns a KeyPress event for key.
func PressEvent(key gpucontext.Key) Event {
	return Event{Kind: KeyPress, Key: key}
}

// ReleaseEvent returns a KeyRelease event for key.
func ReleaseEvent(key gpucontext.Key) Event {
	return Event{Kind: KeyRelease, Key: key}
}

// ResizeEvent returns a Resize event.
func ResizeEvent(width, height int) Event {
	return Event{Kind: Resize, Width: width, Height: height}
}

// CloseEvent returns a Close event.
func CloseEvent() Event {
	return Event{Kind: Close}
}
