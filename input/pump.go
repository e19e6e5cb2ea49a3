package input

import (
	"context"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gpucontext"
)

// PumpOption configures a Pump during creation.
type PumpOption func(*pumpOptions)

type pumpOptions struct {
	bindings Bindings
	exitKey  gpucontext.Key
}

func defaultPumpOptions() pumpOptions {
	return pumpOptions{
		bindings: DefaultBindings(),
		exitKey:  gpucontext.KeyEscape,
	}
}

// WithBindings replaces the default key bindings.
func WithBindings(b Bindings) PumpOption {
	return func(o *pumpOptions) {
		o.bindings = b.Clone()
	}
}

// WithExitKey sets the key that requests exit. The default is Escape.
func WithExitKey(key gpucontext.Key) PumpOption {
	return func(o *pumpOptions) {
		o.exitKey = key
	}
}

// Pump turns window events into State mutations. It must run on the
// goroutine that owns the platform event queue.
type Pump struct {
	state *fractal.State
	src   Source
	opts  pumpOptions
}

// NewPump creates a pump reading from src and writing to state.
func NewPump(state *fractal.State, src Source, opts ...PumpOption) *Pump {
	o := defaultPumpOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Pump{state: state, src: src, opts: o}
}

// Run consumes events until exit is requested, either by an event or by
// another loop. Cancelling ctx requests exit and wakes the source.
// Events still queued when exit is observed are not processed.
func (p *Pump) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		p.state.RequestExit()
		p.src.Wake()
	})
	defer stop()

	for !p.state.ExitRequested() {
		for _, ev := range p.src.WaitEvents() {
			p.Handle(ev)
			if p.state.ExitRequested() {
				fractal.Logger().Debug("input: exit requested", "event", ev.Kind)
				return
			}
		}
	}
}

// Handle applies a single event to the shared state.
func (p *Pump) Handle(ev Event) {
	switch ev.Kind {
	case KeyPress:
		if ev.Key == p.opts.exitKey {
			p.state.RequestExit()
			return
		}
		if a, ok := p.opts.bindings.Lookup(ev.Key); ok {
			p.state.Set(a)
		}
	case KeyRelease:
		if a, ok := p.opts.bindings.Lookup(ev.Key); ok {
			p.state.Clear(a)
		}
	case Resize:
		fractal.Logger().Debug("input: resize", "width", ev.Width, "height", ev.Height)
		p.state.MarkSurfaceDirty()
	case Close:
		p.state.RequestExit()
	default:
		// Unknown kinds are ignored.
	}
}
