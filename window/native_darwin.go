//go:build darwin

package window

// NativeHandles is not available on macOS: the Metal backends need a
// CAMetalLayer attached to the content view, which GLFW does not create.
// TODO: attach a CAMetalLayer to the NSWindow content view.
func (w *Window) NativeHandles() (display, window uintptr, err error) {
	return 0, 0, ErrUnsupportedPlatform
}
