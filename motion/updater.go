package motion

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gogpu/fractal"
)

// Clock abstracts time for the update loop.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Option configures an Updater during creation.
type Option func(*Updater)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(u *Updater) {
		u.clock = c
	}
}

// Updater integrates held actions into the camera at a fixed tick and
// publishes the result to a ViewState.
//
// Run and Tick must be called from one goroutine. SetConfig and Stats
// are safe from any goroutine.
type Updater struct {
	state *fractal.State
	view  *fractal.ViewState
	cfg   atomic.Pointer[Config]
	clock Clock

	current fractal.View

	ticks    atomic.Uint64
	overruns atomic.Uint64
}

// NewUpdater creates an updater starting from the View currently stored
// in view, with its zoom clamped to cfg. It returns ErrInvalidConfig if
// cfg does not validate.
func NewUpdater(state *fractal.State, view *fractal.ViewState, cfg Config, opts ...Option) (*Updater, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u := &Updater{
		state:   state,
		view:    view,
		clock:   realClock{},
		current: clampZoom(view.Load(), cfg),
	}
	u.cfg.Store(&cfg)
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Config returns the active configuration.
func (u *Updater) Config() Config {
	return *u.cfg.Load()
}

// SetConfig replaces the configuration. It takes effect on the next tick.
func (u *Updater) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	u.cfg.Store(&cfg)
	fractal.Logger().Info("motion: config updated",
		"tick", cfg.Tick, "zoomFactor", cfg.ZoomFactor, "panStep", cfg.PanStep, "maxZoom", cfg.MaxZoom)
	return nil
}

func clampZoom(v fractal.View, cfg Config) fractal.View {
	v.Zoom = min(max(v.Zoom, cfg.MinZoom), cfg.MaxZoom)
	return v
}

// Stats returns the number of ticks run and how many of them overran.
func (u *Updater) Stats() (ticks, overruns uint64) {
	return u.ticks.Load(), u.overruns.Load()
}

// Tick applies one step for the currently held actions and publishes
// the new View.
func (u *Updater) Tick() fractal.View {
	u.current = Step(u.current, u.state.Held(), u.Config())
	u.view.Store(u.current)
	u.ticks.Add(1)
	return u.current
}

// Run ticks until exit is requested or ctx is done. A tick that overruns
// its interval is logged and followed immediately by the next one; the
// missed time is not made up.
func (u *Updater) Run(ctx context.Context) error {
	for {
		start := u.clock.Now()
		if u.state.ExitRequested() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		u.Tick()

		tick := u.Config().Tick
		elapsed := u.clock.Now().Sub(start)
		if elapsed < tick {
			u.clock.Sleep(tick - elapsed)
			continue
		}
		u.overruns.Add(1)
		fractal.Logger().Warn("motion: falling behind", "elapsed", elapsed, "tick", tick)
	}
}
