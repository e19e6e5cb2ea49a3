// Package window opens a GLFW window for the viewer.
//
// A Window is three things at once: a [gpucontext.EventSource] whose key
// and resize callbacks fire from GLFW, a [gpucontext.WindowProvider] the
// presentation engine reads the surface size from, and an [input.Source]
// the input pump blocks on.
//
// GLFW requires every call except PostEmptyEvent to happen on the main
// thread. New, WaitEvents and Close must therefore be called from the
// goroutine that locked the main OS thread; Size, ScaleFactor and Wake are
// safe from any goroutine.
package window

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/fractal/input"
)

// ErrUnsupportedPlatform is returned by NativeHandles where the window
// system cannot hand a surface handle to the GPU backends.
var ErrUnsupportedPlatform = errors.New("window: native surface handles not supported on this platform")

// Config describes the window to open.
type Config struct {
	Width  int
	Height int
	Title  string
}

// Window is a GLFW window feeding an input queue.
type Window struct {
	gpucontext.NullEventSource

	win    *glfw.Window
	events *input.Queue

	mu            sync.Mutex
	width, height int // logical
	fbW, fbH      int // pixels
	onKeyPress    func(gpucontext.Key, gpucontext.Modifiers)
	onKeyRelease  func(gpucontext.Key, gpucontext.Modifiers)
	onResize      func(int, int)
	onFocus       func(bool)

	closed atomic.Bool
}

var (
	_ gpucontext.EventSource    = (*Window)(nil)
	_ gpucontext.WindowProvider = (*Window)(nil)
	_ input.Source              = (*Window)(nil)
)

// New initializes GLFW and opens a window without a client API; the GPU
// backends create their own surface on it.
func New(cfg Config) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: init glfw: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: create: %w", err)
	}

	w := &Window{win: win, events: input.NewQueue()}
	w.width, w.height = win.GetSize()
	w.fbW, w.fbH = win.GetFramebufferSize()

	win.SetKeyCallback(w.keyCallback)
	win.SetSizeCallback(w.sizeCallback)
	win.SetFramebufferSizeCallback(w.framebufferSizeCallback)
	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if fn := w.focusHandler(); fn != nil {
			fn(focused)
		}
	})
	win.SetCloseCallback(func(*glfw.Window) {
		w.events.Push(input.CloseEvent())
	})

	w.events.Attach(w)
	return w, nil
}

func (w *Window) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	w.mu.Lock()
	press, release := w.onKeyPress, w.onKeyRelease
	w.mu.Unlock()

	k, m := mapKey(key), mapMods(mods)
	switch action {
	case glfw.Press:
		if press != nil {
			press(k, m)
		}
	case glfw.Release:
		if release != nil {
			release(k, m)
		}
	}
	// Repeats carry no new state.
}

func (w *Window) sizeCallback(_ *glfw.Window, width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
}

func (w *Window) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	w.mu.Lock()
	w.fbW, w.fbH = width, height
	fn := w.onResize
	w.mu.Unlock()
	if fn != nil {
		fn(width, height)
	}
}

func (w *Window) focusHandler() func(bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.onFocus
}

// OnKeyPress registers the key press handler.
func (w *Window) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	w.mu.Lock()
	w.onKeyPress = fn
	w.mu.Unlock()
}

// OnKeyRelease registers the key release handler.
func (w *Window) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	w.mu.Lock()
	w.onKeyRelease = fn
	w.mu.Unlock()
}

// OnResize registers the framebuffer resize handler. Sizes are in pixels.
func (w *Window) OnResize(fn func(width, height int)) {
	w.mu.Lock()
	w.onResize = fn
	w.mu.Unlock()
}

// OnFocus registers the focus change handler.
func (w *Window) OnFocus(fn func(bool)) {
	w.mu.Lock()
	w.onFocus = fn
	w.mu.Unlock()
}

// Size returns the client area in logical points.
func (w *Window) Size() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// ScaleFactor returns framebuffer pixels per logical point, so that
// Size times ScaleFactor is the framebuffer size.
func (w *Window) ScaleFactor() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.width <= 0 || w.fbW <= 0 {
		return 1
	}
	return float64(w.fbW) / float64(w.width)
}

// RequestRedraw is a no-op; the viewer renders continuously.
func (w *Window) RequestRedraw() {}

// WaitEvents blocks in GLFW until an event arrives or Wake is called and
// returns the translated events. Main thread only.
func (w *Window) WaitEvents() []input.Event {
	if evs := w.events.Drain(); len(evs) > 0 {
		return evs
	}
	glfw.WaitEvents()
	return w.events.Drain()
}

// Wake unblocks WaitEvents. Safe from any goroutine.
func (w *Window) Wake() {
	if !w.closed.Load() {
		glfw.PostEmptyEvent()
	}
}

// Close destroys the window and terminates GLFW. Main thread only.
func (w *Window) Close() {
	if w.closed.Swap(true) {
		return
	}
	w.win.Destroy()
	w.win = nil
	glfw.Terminate()
}
