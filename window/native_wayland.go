//go:build (linux || freebsd) && wayland

package window

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// NativeHandles returns the wl_display and wl_surface pointers.
func (w *Window) NativeHandles() (display, window uintptr, err error) {
	return uintptr(unsafe.Pointer(glfw.GetWaylandDisplay())), uintptr(unsafe.Pointer(w.win.GetWaylandWindow())), nil
}
