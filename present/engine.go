package present

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Pipeline is the compiled draw the engine binds every frame. The engine
// never creates or destroys these resources.
type Pipeline interface {
	// RenderPipeline returns the pipeline drawing the full-screen quad.
	RenderPipeline() hal.RenderPipeline

	// BindGroupLayout returns the layout of the one uniform block at
	// group(0) binding(0).
	BindGroupLayout() hal.BindGroupLayout

	// VertexBuffer returns the quad vertices.
	VertexBuffer() hal.Buffer

	// VertexCount returns the number of vertices to draw.
	VertexCount() uint32

	// Format returns the colour target format the pipeline was built for.
	Format() gputypes.TextureFormat
}

// Target bundles the device collaborators the engine draws with.
type Target struct {
	Device  hal.Device
	Queue   hal.Queue
	Surface hal.Surface

	// Window reports the drawable size used to configure the surface.
	Window gpucontext.WindowProvider
}

// Stats counts engine events.
type Stats struct {
	// Frames is the number of frames presented.
	Frames uint64
	// Rebuilds is the number of surface generations created.
	Rebuilds uint64
	// Deferred is the number of reconstructions put off by a zero-area surface.
	Deferred uint64
	// Skipped is the number of iterations without an image (stale or timed out).
	Skipped uint64
	// Failed is the number of submits or presents that failed without being stale.
	Failed uint64
}

type counters struct {
	frames   atomic.Uint64
	rebuilds atomic.Uint64
	deferred atomic.Uint64
	skipped  atomic.Uint64
	failed   atomic.Uint64
}

// Engine renders and presents frames from the latest View, rebuilding the
// swapchain whenever the surface goes stale.
//
// Frame and Run must be called from a single goroutine, which becomes the
// only submitter on the queue. Lifecycle and Stats are safe from any
// goroutine.
type Engine struct {
	device   hal.Device
	queue    hal.Queue
	surface  hal.Surface
	window   gpucontext.WindowProvider
	pipeline Pipeline
	state    *fractal.State
	view     *fractal.ViewState
	opts     options

	lifecycle atomic.Uint32
	prev      Token
	completed uint64
	gen       *generation
	retired   []*generation
	serial    uint64
	ring      *uniformRing
	deferred  bool

	stats counters
}

// New creates an engine. The surface is configured on the first frame.
func New(target Target, pl Pipeline, state *fractal.State, view *fractal.ViewState, opts ...Option) (*Engine, error) {
	if target.Device == nil || target.Queue == nil || target.Surface == nil {
		return nil, ErrNilDevice
	}
	if target.Window == nil {
		return nil, ErrNilWindow
	}
	if pl == nil {
		return nil, ErrNilPipeline
	}
	if state == nil || view == nil {
		return nil, ErrNilState
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ring, err := newUniformRing(target.Device, pl.BindGroupLayout(), o.ringSize)
	if err != nil {
		return nil, fmt.Errorf("present: %w", err)
	}

	e := &Engine{
		device:   target.Device,
		queue:    target.Queue,
		surface:  target.Surface,
		window:   target.Window,
		pipeline: pl,
		state:    state,
		view:     view,
		opts:     o,
		ring:     ring,
	}
	e.setLifecycle(PendingReconstruction)
	return e, nil
}

// Lifecycle returns the current swapchain state.
func (e *Engine) Lifecycle() Lifecycle {
	return Lifecycle(e.lifecycle.Load())
}

func (e *Engine) setLifecycle(l Lifecycle) {
	e.lifecycle.Store(uint32(l))
}

// Previous returns the completion token of the last submitted frame.
func (e *Engine) Previous() Token {
	return e.prev
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Frames:   e.stats.frames.Load(),
		Rebuilds: e.stats.rebuilds.Load(),
		Deferred: e.stats.deferred.Load(),
		Skipped:  e.stats.skipped.Load(),
		Failed:   e.stats.failed.Load(),
	}
}

// Run draws frames until exit is requested or ctx is done. It returns
// nil on a requested exit and a wrapped error on a fatal device
// condition, after requesting exit so the other loops stop too. In-flight
// work is not waited for.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if e.state.ExitRequested() {
			e.setLifecycle(ShuttingDown)
			s := e.Stats()
			fractal.Logger().Info("present: shutting down",
				"frames", s.Frames, "rebuilds", s.Rebuilds, "skipped", s.Skipped, "failed", s.Failed)
			return nil
		}
		select {
		case <-ctx.Done():
			e.state.RequestExit()
			e.setLifecycle(ShuttingDown)
			return ctx.Err()
		default:
		}

		if err := e.Frame(); err != nil {
			fractal.Logger().Error("present: fatal device error", "error", err)
			e.state.RequestExit()
			e.setLifecycle(ShuttingDown)
			return err
		}

		if e.opts.maxFrames > 0 && e.stats.frames.Load() >= e.opts.maxFrames {
			e.state.RequestExit()
		}
		if e.deferred && e.opts.deferDelay > 0 {
			time.Sleep(e.opts.deferDelay)
		}
	}
}

// Frame runs one iteration of the frame loop: reclaim finished work,
// rebuild the swapchain if needed, or draw and present one frame.
// Recoverable conditions are handled internally; the returned error is
// always fatal.
func (e *Engine) Frame() error {
	if e.state.ExitRequested() {
		e.setLifecycle(ShuttingDown)
		return nil
	}

	e.poll()

	if e.state.SurfaceDirty() && e.Lifecycle() == Valid {
		e.setLifecycle(PendingReconstruction)
	}
	if e.Lifecycle() != Valid {
		return e.reconstruct()
	}
	return e.draw()
}

// poll reclaims resources of completed submissions without blocking.
func (e *Engine) poll() {
	e.completed = e.queue.PollCompleted()
	if e.prev.Done(e.completed) {
		e.prev = NoToken()
	}
	if e.gen != nil {
		e.gen.reclaim(e.device, e.completed)
	}
	live := e.retired[:0]
	for _, g := range e.retired {
		g.reclaim(e.device, e.completed)
		if g.inFlight() > 0 {
			live = append(live, g)
		}
	}
	clear(e.retired[len(live):])
	e.retired = live
}

// surfaceSize returns the drawable size in physical pixels.
func (e *Engine) surfaceSize() (uint32, uint32) {
	w, h := e.window.Size()
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := e.window.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	return uint32(math.Round(float64(w) * scale)), uint32(math.Round(float64(h) * scale))
}

// reconstruct replaces the swapchain generation. A zero-area surface
// defers the rebuild and leaves the dirty flag set.
func (e *Engine) reconstruct() error {
	mark, _ := e.state.DirtyMark()

	w, h := e.surfaceSize()
	if w == 0 || h == 0 {
		e.deferReconstruction()
		return nil
	}

	cfg := hal.SurfaceConfiguration{
		Width:       w,
		Height:      h,
		Format:      e.pipeline.Format(),
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: e.opts.presentMode,
		AlphaMode:   e.opts.alphaMode,
	}

	// Frames still in flight keep their framebuffers until they complete.
	if e.gen != nil {
		if e.gen.inFlight() > 0 {
			e.retired = append(e.retired, e.gen)
		}
		e.gen = nil
	}

	if err := e.surface.Configure(e.device, &cfg); err != nil {
		switch {
		case IsFatal(err):
			return fmt.Errorf("present: configure surface: %w", err)
		case errors.Is(err, hal.ErrZeroArea):
			e.deferReconstruction()
			return nil
		case IsStale(err):
			fractal.Logger().Debug("present: surface stale during configure", "error", err)
			e.setLifecycle(PendingReconstruction)
			return nil
		default:
			return fmt.Errorf("present: configure surface %dx%d: %w", w, h, err)
		}
	}

	e.serial++
	e.gen = &generation{serial: e.serial, config: cfg}
	e.deferred = false
	clean := e.state.ClearSurfaceDirty(mark)
	e.setLifecycle(Valid)
	e.stats.rebuilds.Add(1)

	fractal.Logger().Info("present: surface configured",
		"generation", e.serial, "width", w, "height", h, "presentMode", cfg.PresentMode)
	if !clean {
		fractal.Logger().Debug("present: surface marked dirty during rebuild")
	}
	return nil
}

func (e *Engine) deferReconstruction() {
	if !e.deferred {
		fractal.Logger().Debug("present: zero-area surface, reconstruction deferred")
	}
	e.deferred = true
	e.setLifecycle(PendingReconstruction)
	e.stats.deferred.Add(1)
}

// Close waits for the device to go idle and releases every resource the
// engine created. The engine must not be used afterwards.
func (e *Engine) Close() {
	if err := e.device.WaitIdle(); err != nil {
		fractal.Logger().Warn("present: wait idle failed", "error", err)
	}
	for _, g := range e.retired {
		g.destroy(e.device)
	}
	e.retired = nil
	if e.gen != nil {
		e.gen.destroy(e.device)
		e.gen = nil
	}
	if e.serial > 0 {
		e.surface.Unconfigure(e.device)
	}
	if e.ring != nil {
		e.ring.destroy()
		e.ring = nil
	}
	e.prev = NoToken()
	e.setLifecycle(ShuttingDown)
}
