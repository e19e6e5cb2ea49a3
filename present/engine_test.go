package present

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func TestNewValidation(t *testing.T) {
	h := newHarness(t)
	target := Target{Device: h.device, Queue: h.queue, Surface: h.surface, Window: h.window}
	pl := &stubPipeline{}

	tests := []struct {
		name   string
		target Target
		pl     Pipeline
		state  *fractal.State
		want   error
	}{
		{"no device", Target{Queue: h.queue, Surface: h.surface, Window: h.window}, pl, h.state, ErrNilDevice},
		{"no window", Target{Device: h.device, Queue: h.queue, Surface: h.surface}, pl, h.state, ErrNilWindow},
		{"no pipeline", target, nil, h.state, ErrNilPipeline},
		{"no state", target, pl, nil, ErrNilState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.target, tt.pl, tt.state, h.view)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFirstFrameConfiguresSurface(t *testing.T) {
	h := newHarness(t)
	h.window.scale = 2

	if got := h.engine.Lifecycle(); got != PendingReconstruction {
		t.Fatalf("initial lifecycle = %v, want PendingReconstruction", got)
	}
	h.frame(t)

	if got := h.engine.Lifecycle(); got != Valid {
		t.Fatalf("lifecycle after first frame = %v, want Valid", got)
	}
	if len(h.surface.configs) != 1 {
		t.Fatalf("configured %d times, want 1", len(h.surface.configs))
	}
	cfg := h.surface.configs[0]
	if cfg.Width != 1600 || cfg.Height != 1200 {
		t.Errorf("configured %dx%d, want 1600x1200 physical pixels", cfg.Width, cfg.Height)
	}
	if cfg.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("format = %v, want pipeline format", cfg.Format)
	}
	if cfg.PresentMode != hal.PresentModeFifo {
		t.Errorf("present mode = %v, want FIFO", cfg.PresentMode)
	}
	if cfg.Usage&gputypes.TextureUsageRenderAttachment == 0 {
		t.Error("surface usage lacks RenderAttachment")
	}
	if h.count("submit") != 0 {
		t.Error("first iteration submitted before the surface was valid")
	}
}

func TestFrameDrawsAndPresents(t *testing.T) {
	h := newHarness(t, WithClearColor(gputypes.Color{R: 0.25, A: 1}))
	h.view.Store(fractal.View{Zoom: 0.125, PanX: -0.5, PanY: 0.25})

	h.frame(t) // configure
	h.frame(t) // draw

	want := []string{"configure", "acquire", "submit", "present"}
	if got := h.log.all(); !slices.Equal(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if s := h.engine.Stats(); s.Frames != 1 || s.Rebuilds != 1 {
		t.Errorf("stats = %+v, want 1 frame and 1 rebuild", s)
	}
	if got, want := h.queue.lastWrite, encodeView(h.view.Load()); !slices.Equal(got, want) {
		t.Errorf("uniform upload = %v, want %v", got, want)
	}

	if len(h.device.encoders) != 1 {
		t.Fatalf("created %d encoders, want 1", len(h.device.encoders))
	}
	enc := h.device.encoders[0]
	att := enc.desc.ColorAttachments[0]
	if att.LoadOp != gputypes.LoadOpClear || att.StoreOp != gputypes.StoreOpStore {
		t.Errorf("attachment ops = %v/%v, want clear/store", att.LoadOp, att.StoreOp)
	}
	if att.ClearValue != (gputypes.Color{R: 0.25, A: 1}) {
		t.Errorf("clear value = %+v", att.ClearValue)
	}
	p := enc.pass
	if !p.pipelineSet || p.group == nil || p.draws != 1 || p.vertices != 6 || !p.ended {
		t.Errorf("pass = %+v, want pipeline, bind group and one 6-vertex draw", p)
	}
}

func TestDirtyTwiceRebuildsOnce(t *testing.T) {
	h := newHarness(t)
	h.frame(t)
	h.frame(t)

	h.state.MarkSurfaceDirty()
	h.state.MarkSurfaceDirty()

	h.frame(t)
	if got := h.engine.Lifecycle(); got != Valid {
		t.Fatalf("lifecycle = %v after rebuild, want Valid", got)
	}
	h.frame(t)
	h.frame(t)

	if n := len(h.surface.configs); n != 2 {
		t.Errorf("configured %d times, want 2 (startup + one rebuild)", n)
	}
	if h.state.SurfaceDirty() {
		t.Error("surface still dirty")
	}
	if s := h.engine.Stats(); s.Frames != 3 {
		t.Errorf("frames = %d, want 3", s.Frames)
	}
}

func TestDirtyDuringRebuildRebuildsAgain(t *testing.T) {
	h := newHarness(t)
	h.frame(t)

	once := true
	h.surface.onConfigure = func() {
		if once {
			once = false
			h.state.MarkSurfaceDirty()
		}
	}
	h.state.MarkSurfaceDirty()

	h.frame(t) // rebuild; a resize lands mid-rebuild
	if !h.state.SurfaceDirty() {
		t.Fatal("resize during rebuild was lost")
	}
	h.frame(t) // second rebuild
	if h.state.SurfaceDirty() {
		t.Error("surface dirty after second rebuild")
	}
	h.frame(t)

	if n := len(h.surface.configs); n != 3 {
		t.Errorf("configured %d times, want 3", n)
	}
	if s := h.engine.Stats(); s.Frames != 1 {
		t.Errorf("frames = %d, want 1", s.Frames)
	}
}

func TestZeroAreaDefersReconstruction(t *testing.T) {
	h := newHarness(t)
	h.frame(t)

	h.window.resize(0, 0)
	h.state.MarkSurfaceDirty()

	for range 3 {
		h.frame(t)
		if got := h.engine.Lifecycle(); got != PendingReconstruction {
			t.Fatalf("lifecycle = %v while minimized, want PendingReconstruction", got)
		}
		if !h.state.SurfaceDirty() {
			t.Fatal("deferred rebuild cleared the dirty flag")
		}
	}
	if s := h.engine.Stats(); s.Deferred != 3 {
		t.Errorf("deferred = %d, want 3", s.Deferred)
	}
	if n := len(h.surface.configs); n != 1 {
		t.Errorf("configured %d times while minimized, want only the startup one", n)
	}

	h.window.resize(640, 480)
	h.frame(t)
	if got := h.engine.Lifecycle(); got != Valid {
		t.Fatalf("lifecycle = %v after restore, want Valid", got)
	}
	if h.state.SurfaceDirty() {
		t.Error("dirty flag not cleared after restore")
	}
	if cfg := h.surface.configs[len(h.surface.configs)-1]; cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("configured %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
}

func TestConfigureZeroAreaError(t *testing.T) {
	h := newHarness(t)
	h.surface.configureErr = []error{hal.ErrZeroArea}

	h.frame(t)
	if got := h.engine.Lifecycle(); got != PendingReconstruction {
		t.Errorf("lifecycle = %v, want PendingReconstruction", got)
	}
	if s := h.engine.Stats(); s.Deferred != 1 {
		t.Errorf("deferred = %d, want 1", s.Deferred)
	}
	h.frame(t)
	if got := h.engine.Lifecycle(); got != Valid {
		t.Errorf("lifecycle = %v after retry, want Valid", got)
	}
}

func TestConfigureFatal(t *testing.T) {
	h := newHarness(t)
	h.surface.configureErr = []error{hal.ErrDeviceLost}
	err := h.engine.Frame()
	if !errors.Is(err, hal.ErrDeviceLost) || !IsFatal(err) {
		t.Errorf("Frame() = %v, want fatal device lost", err)
	}
}

// TestResizeWithFrameInFlight resizes while the GPU still holds a frame.
func TestResizeWithFrameInFlight(t *testing.T) {
	h := newHarness(t)
	h.queue.autoComplete = false

	h.frame(t) // configure
	h.frame(t) // submit frame 1, not completed

	tok := h.engine.Previous()
	if tok.IsNone() || tok.Index() != 1 {
		t.Fatalf("previous token = %+v, want pending submission 1", tok)
	}

	h.window.resize(1024, 768)
	h.state.MarkSurfaceDirty()

	h.frame(t) // rebuild
	if got := h.engine.Previous(); got != tok {
		t.Errorf("rebuild replaced the in-flight token: %+v", got)
	}
	if len(h.device.destroyed) != 0 {
		t.Errorf("rebuild destroyed in-flight views %v", h.device.destroyed)
	}

	h.frame(t) // submit frame 2 on the new swapchain

	want := []string{"configure", "acquire", "submit", "present", "configure", "acquire", "submit", "present"}
	if got := h.log.all(); !slices.Equal(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if h.surface.configs[1].Width != 1024 || h.surface.configs[1].Height != 768 {
		t.Errorf("rebuilt at %dx%d, want 1024x768", h.surface.configs[1].Width, h.surface.configs[1].Height)
	}
	if h.queue.writes[0] == h.queue.writes[1] {
		t.Error("frame 2 reused the uniform buffer frame 1 is still reading")
	}

	// Frame 1 completes: only its framebuffer is released.
	h.queue.complete(1)
	h.engine.poll()
	if !slices.Equal(h.device.destroyed, []int{1}) {
		t.Errorf("destroyed views = %v, want [1]", h.device.destroyed)
	}
	if got := h.engine.Previous(); got.Index() != 2 {
		t.Errorf("previous token = %+v, want submission 2", got)
	}

	h.queue.complete(2)
	h.engine.poll()
	if !slices.Equal(h.device.destroyed, []int{1, 2}) {
		t.Errorf("destroyed views = %v, want [1 2]", h.device.destroyed)
	}
	if !h.engine.Previous().IsNone() {
		t.Error("completed token not cleared")
	}
	if len(h.engine.retired) != 0 {
		t.Errorf("%d retired generations left after completion", len(h.engine.retired))
	}
}

// TestPresentOutOfDateRecovers fails one present and expects a new frame
// on screen within two iterations.
func TestPresentOutOfDateRecovers(t *testing.T) {
	h := newHarness(t)
	h.queue.presentErrs = []error{hal.ErrSurfaceOutdated}

	h.frame(t) // configure
	h.frame(t) // present fails

	if got := h.engine.Lifecycle(); got != PendingReconstruction {
		t.Fatalf("lifecycle = %v after outdated present, want PendingReconstruction", got)
	}
	if !h.engine.Previous().IsNone() {
		t.Error("previous token kept after failed present")
	}
	if s := h.engine.Stats(); s.Frames != 0 {
		t.Fatalf("frames = %d, want 0", s.Frames)
	}

	h.frame(t)
	h.frame(t)
	if s := h.engine.Stats(); s.Frames != 1 || s.Rebuilds != 2 {
		t.Errorf("stats = %+v, want 1 frame after 2 rebuilds", s)
	}
	if got := h.engine.Lifecycle(); got != Valid {
		t.Errorf("lifecycle = %v, want Valid", got)
	}
}

func TestAcquireOutOfDate(t *testing.T) {
	for _, stale := range []error{hal.ErrSurfaceOutdated, hal.ErrSurfaceLost} {
		h := newHarness(t)
		h.surface.acquireErrs = []error{stale}

		h.frame(t)
		h.frame(t)
		if got := h.engine.Lifecycle(); got != PendingReconstruction {
			t.Errorf("%v: lifecycle = %v, want PendingReconstruction", stale, got)
		}
		if h.count("submit") != 0 {
			t.Errorf("%v: submitted without an image", stale)
		}

		h.frame(t)
		h.frame(t)
		if s := h.engine.Stats(); s.Frames != 1 || s.Skipped != 1 {
			t.Errorf("%v: stats = %+v, want 1 frame and 1 skip", stale, s)
		}
	}
}

func TestAcquireTimeoutSkipsFrame(t *testing.T) {
	h := newHarness(t)
	h.surface.acquireErrs = []error{hal.ErrTimeout}

	h.frame(t)
	h.frame(t)
	if got := h.engine.Lifecycle(); got != Valid {
		t.Errorf("lifecycle = %v after timeout, want Valid", got)
	}
	h.frame(t)
	if s := h.engine.Stats(); s.Frames != 1 || s.Skipped != 1 || s.Rebuilds != 1 {
		t.Errorf("stats = %+v, want 1 frame, 1 skip, no extra rebuild", s)
	}
}

func TestSuboptimalPresentsThenRebuilds(t *testing.T) {
	h := newHarness(t)
	h.surface.suboptimal = true

	h.frame(t)
	h.frame(t)
	if s := h.engine.Stats(); s.Frames != 1 {
		t.Errorf("frames = %d, want the suboptimal frame presented", s.Frames)
	}
	if got := h.engine.Lifecycle(); got != PendingReconstruction {
		t.Errorf("lifecycle = %v, want PendingReconstruction", got)
	}
}

func TestSubmitFatal(t *testing.T) {
	for _, fatal := range []error{hal.ErrDeviceLost, hal.ErrDeviceOutOfMemory} {
		h := newHarness(t)
		h.queue.submitErrs = []error{fatal}

		h.frame(t)
		err := h.engine.Frame()
		if !errors.Is(err, fatal) {
			t.Errorf("Frame() = %v, want %v", err, fatal)
		}
		if h.surface.discarded != 1 {
			t.Errorf("%v: discarded %d textures, want 1", fatal, h.surface.discarded)
		}
	}
}

func TestPresentOtherErrorLogged(t *testing.T) {
	h := newHarness(t)
	h.queue.presentErrs = []error{errors.New("driver hiccup")}

	h.frame(t)
	h.frame(t)
	if got := h.engine.Lifecycle(); got != Valid {
		t.Errorf("lifecycle = %v, want Valid", got)
	}
	if !h.engine.Previous().IsNone() {
		t.Error("previous token kept after failed present")
	}
	h.frame(t)
	if s := h.engine.Stats(); s.Failed != 1 || s.Frames != 1 {
		t.Errorf("stats = %+v, want 1 failure then 1 frame", s)
	}
}

func TestRunStopsOnExit(t *testing.T) {
	h := newHarness(t, WithDeferDelay(0))

	errc := make(chan error, 1)
	go func() { errc <- h.engine.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for h.engine.Stats().Frames < 3 {
		if time.Now().After(deadline) {
			t.Fatal("engine presented no frames")
		}
		time.Sleep(time.Millisecond)
	}
	h.state.RequestExit()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after RequestExit")
	}
	if got := h.engine.Lifecycle(); got != ShuttingDown {
		t.Errorf("lifecycle = %v, want ShuttingDown", got)
	}
}

func TestRunMaxFrames(t *testing.T) {
	h := newHarness(t, WithMaxFrames(5))
	if err := h.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if s := h.engine.Stats(); s.Frames != 5 {
		t.Errorf("frames = %d, want 5", s.Frames)
	}
	if !h.state.ExitRequested() {
		t.Error("frame limit did not request exit")
	}
}

func TestRunFatalRequestsExit(t *testing.T) {
	h := newHarness(t)
	h.queue.submitErrs = []error{hal.ErrDeviceLost}

	err := h.engine.Run(context.Background())
	if !IsFatal(err) {
		t.Fatalf("Run() = %v, want fatal error", err)
	}
	if !h.state.ExitRequested() {
		t.Error("fatal error did not request exit")
	}
}

func TestRunContextCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.engine.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if !h.state.ExitRequested() {
		t.Error("cancel did not request exit")
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	h.queue.autoComplete = false
	h.frame(t)
	h.frame(t)

	h.engine.Close()
	if !slices.Equal(h.device.destroyed, []int{1}) {
		t.Errorf("destroyed views = %v, want [1]", h.device.destroyed)
	}
	if h.surface.unconfigured != 1 {
		t.Errorf("unconfigured %d times, want 1", h.surface.unconfigured)
	}
	if h.device.freed != 1 {
		t.Errorf("freed %d command buffers, want 1", h.device.freed)
	}
}

func TestLifecycleString(t *testing.T) {
	for l, want := range map[Lifecycle]string{
		Valid:                 "Valid",
		PendingReconstruction: "PendingReconstruction",
		ShuttingDown:          "ShuttingDown",
		Lifecycle(9):          "Lifecycle(9)",
	} {
		if got := l.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
