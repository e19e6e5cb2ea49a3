package present

import (
	"image"
	"sync"
	"testing"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// eventLog records GPU calls in order across the fakes.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(ev string) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// fakeQueue is a noop queue whose completion and errors tests control.
type fakeQueue struct {
	*noop.Queue
	log *eventLog

	mu           sync.Mutex
	submitted    uint64
	completed    uint64
	autoComplete bool
	submitErrs   []error
	presentErrs  []error
	writes       []hal.Buffer
	lastWrite    []byte
}

func (q *fakeQueue) Submit(_ []hal.CommandBuffer) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.submitErrs) > 0 {
		err := q.submitErrs[0]
		q.submitErrs = q.submitErrs[1:]
		if err != nil {
			q.log.add("submit-failed")
			return 0, err
		}
	}
	q.submitted++
	if q.autoComplete {
		q.completed = q.submitted
	}
	q.log.add("submit")
	return q.submitted, nil
}

func (q *fakeQueue) PollCompleted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

func (q *fakeQueue) complete(index uint64) {
	q.mu.Lock()
	q.completed = index
	q.mu.Unlock()
}

func (q *fakeQueue) WriteBuffer(buf hal.Buffer, _ uint64, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.writes = append(q.writes, buf)
	q.lastWrite = append([]byte(nil), data...)
	return nil
}

func (q *fakeQueue) Present(_ hal.Surface, _ hal.SurfaceTexture, _ []image.Rectangle) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.presentErrs) > 0 {
		err := q.presentErrs[0]
		q.presentErrs = q.presentErrs[1:]
		if err != nil {
			q.log.add("present-failed")
			return err
		}
	}
	q.log.add("present")
	return nil
}

// fakeSurface records configurations and injects acquire results.
type fakeSurface struct {
	*noop.Surface
	log *eventLog

	configs      []hal.SurfaceConfiguration
	configureErr []error
	onConfigure  func()
	acquireErrs  []error
	suboptimal   bool
	discarded    int
	unconfigured int
}

func (s *fakeSurface) Configure(_ hal.Device, cfg *hal.SurfaceConfiguration) error {
	if s.onConfigure != nil {
		s.onConfigure()
	}
	if len(s.configureErr) > 0 {
		err := s.configureErr[0]
		s.configureErr = s.configureErr[1:]
		if err != nil {
			s.log.add("configure-failed")
			return err
		}
	}
	s.configs = append(s.configs, *cfg)
	s.log.add("configure")
	return nil
}

func (s *fakeSurface) Unconfigure(_ hal.Device) {
	s.unconfigured++
}

func (s *fakeSurface) AcquireTexture(_ hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	if len(s.acquireErrs) > 0 {
		err := s.acquireErrs[0]
		s.acquireErrs = s.acquireErrs[1:]
		if err != nil {
			s.log.add("acquire-failed")
			return nil, err
		}
	}
	s.log.add("acquire")
	return &hal.AcquiredSurfaceTexture{Texture: &noop.SurfaceTexture{}, Suboptimal: s.suboptimal}, nil
}

func (s *fakeSurface) DiscardTexture(_ hal.SurfaceTexture) {
	s.discarded++
}

// fakeView is a texture view with an identity.
type fakeView struct {
	noop.Resource
	id int
}

// fakeDevice is a noop device that hands out identifiable views and
// recording encoders.
type fakeDevice struct {
	*noop.Device

	nextView  int
	destroyed []int
	encoders  []*recordingEncoder
	freed     int
}

func (d *fakeDevice) CreateTextureView(_ hal.Texture, _ *hal.TextureViewDescriptor) (hal.TextureView, error) {
	d.nextView++
	return &fakeView{id: d.nextView}, nil
}

func (d *fakeDevice) DestroyTextureView(v hal.TextureView) {
	if fv, ok := v.(*fakeView); ok {
		d.destroyed = append(d.destroyed, fv.id)
	}
}

func (d *fakeDevice) CreateCommandEncoder(_ *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc := &recordingEncoder{CommandEncoder: &noop.CommandEncoder{}}
	d.encoders = append(d.encoders, enc)
	return enc, nil
}

func (d *fakeDevice) FreeCommandBuffer(_ hal.CommandBuffer) {
	d.freed++
}

// recordingEncoder keeps the render pass descriptor and draw calls.
type recordingEncoder struct {
	*noop.CommandEncoder
	desc *hal.RenderPassDescriptor
	pass *recordingPass
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.desc = desc
	e.pass = &recordingPass{RenderPassEncoder: &noop.RenderPassEncoder{}}
	return e.pass
}

type recordingPass struct {
	*noop.RenderPassEncoder
	pipelineSet bool
	group       hal.BindGroup
	vertices    uint32
	draws       int
	ended       bool
}

func (p *recordingPass) SetPipeline(hal.RenderPipeline) { p.pipelineSet = true }

func (p *recordingPass) SetBindGroup(_ uint32, g hal.BindGroup, _ []uint32) { p.group = g }

func (p *recordingPass) Draw(vertexCount, _, _, _ uint32) {
	p.vertices = vertexCount
	p.draws++
}

func (p *recordingPass) End() { p.ended = true }

// fakeWindow is a WindowProvider whose size tests can change.
type fakeWindow struct {
	mu    sync.Mutex
	w, h  int
	scale float64
}

func (w *fakeWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w, w.h
}

func (w *fakeWindow) ScaleFactor() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scale
}

func (w *fakeWindow) RequestRedraw() {}

func (w *fakeWindow) resize(width, height int) {
	w.mu.Lock()
	w.w, w.h = width, height
	w.mu.Unlock()
}

// stubPipeline hands out noop resources.
type stubPipeline struct {
	pipeline hal.RenderPipeline
	layout   hal.BindGroupLayout
	vertices hal.Buffer
}

func (p *stubPipeline) RenderPipeline() hal.RenderPipeline { return p.pipeline }

func (p *stubPipeline) BindGroupLayout() hal.BindGroupLayout { return p.layout }

func (p *stubPipeline) VertexBuffer() hal.Buffer { return p.vertices }

func (p *stubPipeline) VertexCount() uint32 { return 6 }

func (p *stubPipeline) Format() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

// harness wires an engine to the fakes.
type harness struct {
	device  *fakeDevice
	queue   *fakeQueue
	surface *fakeSurface
	window  *fakeWindow
	state   *fractal.State
	view    *fractal.ViewState
	log     *eventLog
	engine  *Engine
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	log := &eventLog{}
	h := &harness{
		device:  &fakeDevice{Device: &noop.Device{}},
		queue:   &fakeQueue{Queue: &noop.Queue{}, log: log, autoComplete: true},
		surface: &fakeSurface{Surface: &noop.Surface{}, log: log},
		window:  &fakeWindow{w: 800, h: 600, scale: 1},
		state:   fractal.NewState(),
		view:    fractal.NewViewState(fractal.DefaultView),
		log:     log,
	}

	layout, err := h.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: "test_layout"})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout: %v", err)
	}
	rp, err := h.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{Label: "test_pipeline"})
	if err != nil {
		t.Fatalf("CreateRenderPipeline: %v", err)
	}
	vb, err := h.device.CreateBuffer(&hal.BufferDescriptor{Label: "test_quad", Size: 48})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	h.engine, err = New(Target{
		Device:  h.device,
		Queue:   h.queue,
		Surface: h.surface,
		Window:  h.window,
	}, &stubPipeline{pipeline: rp, layout: layout, vertices: vb}, h.state, h.view, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

// frame runs one engine iteration and fails the test on error.
func (h *harness) frame(t *testing.T) {
	t.Helper()
	if err := h.engine.Frame(); err != nil {
		t.Fatalf("Frame() = %v", err)
	}
}

func (h *harness) count(ev string) int {
	n := 0
	for _, e := range h.log.all() {
		if e == ev {
			n++
		}
	}
	return n
}
