//go:build windows

package window

import "unsafe"

// NativeHandles returns a zero HINSTANCE, which the backends replace with
// the current module, and the HWND.
func (w *Window) NativeHandles() (display, window uintptr, err error) {
	return 0, uintptr(unsafe.Pointer(w.win.GetWin32Window())), nil
}
