// Package app assembles the viewer from its parts and runs its three
// loops: the input pump on the calling goroutine, the motion updater and
// the presentation engine on their own goroutines.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/config"
	"github.com/gogpu/fractal/input"
	"github.com/gogpu/fractal/internal/device"
	"github.com/gogpu/fractal/motion"
	"github.com/gogpu/fractal/pipeline"
	"github.com/gogpu/fractal/present"
)

// Hint is logged once at startup.
const Hint = "Use W/S to zoom, arrow keys to move"

// Option configures an App.
type Option func(*options)

type options struct {
	maxFrames  uint64
	configPath string
	pumpOpts   []input.PumpOption
	motionOpts []motion.Option
}

// WithMaxFrames stops the viewer after n presented frames.
func WithMaxFrames(n uint64) Option {
	return func(o *options) {
		o.maxFrames = n
	}
}

// WithConfigWatch reloads the [motion] section from path while running.
func WithConfigWatch(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithPumpOptions passes options through to the input pump.
func WithPumpOptions(opts ...input.PumpOption) Option {
	return func(o *options) {
		o.pumpOpts = append(o.pumpOpts, opts...)
	}
}

// WithMotionOptions passes options through to the motion updater.
func WithMotionOptions(opts ...motion.Option) Option {
	return func(o *options) {
		o.motionOpts = append(o.motionOpts, opts...)
	}
}

// App owns the shared state and the loops that share it.
type App struct {
	State   *fractal.State
	View    *fractal.ViewState
	Updater *motion.Updater
	Engine  *present.Engine

	pipeline *pipeline.Pipeline
	pump     *input.Pump
	src      input.Source
	opts     options
}

// New builds the pipeline, updater and engine on an opened device.
// src feeds the input pump; win reports the drawable size.
func New(dev *device.Device, win gpucontext.WindowProvider, src input.Source, cfg config.Config, opts ...Option) (*App, error) {
	if dev == nil {
		return nil, errors.New("app: nil device")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	mcfg, err := cfg.MotionConfig()
	if err != nil {
		return nil, err
	}
	clearColor, err := cfg.ClearColor()
	if err != nil {
		return nil, err
	}

	a := &App{
		State: fractal.NewState(),
		View:  fractal.NewViewState(fractal.DefaultView),
		src:   src,
		opts:  o,
	}
	a.Updater, err = motion.NewUpdater(a.State, a.View, mcfg, o.motionOpts...)
	if err != nil {
		return nil, err
	}

	a.pipeline, err = pipeline.New(dev.Device, dev.Queue, dev.Format,
		pipeline.WithSPIRV(dev.Backend == gputypes.BackendVulkan))
	if err != nil {
		return nil, err
	}

	a.Engine, err = present.New(
		present.Target{Device: dev.Device, Queue: dev.Queue, Surface: dev.Surface, Window: win},
		a.pipeline, a.State, a.View,
		present.WithRingSize(cfg.Present.RingSize),
		present.WithClearColor(clearColor),
		present.WithPresentMode(dev.PresentMode),
		present.WithAlphaMode(dev.AlphaMode),
		present.WithMaxFrames(o.maxFrames),
	)
	if err != nil {
		a.pipeline.Destroy()
		return nil, err
	}

	a.pump = input.NewPump(a.State, src, o.pumpOpts...)
	return a, nil
}

// Run blocks until every loop has stopped. The input pump runs on the
// calling goroutine, which must own the window's event queue.
// Whichever loop stops first requests exit, so the others follow.
func (a *App) Run(ctx context.Context) error {
	fractal.Logger().Info(Hint)

	g, gctx := errgroup.WithContext(ctx)
	stopAll := func() {
		a.State.RequestExit()
		a.src.Wake()
	}
	g.Go(func() error {
		defer stopAll()
		return a.Updater.Run(gctx)
	})
	g.Go(func() error {
		defer stopAll()
		return a.Engine.Run(gctx)
	})

	watchCtx, stopWatch := context.WithCancel(gctx)
	defer stopWatch()
	if a.opts.configPath != "" {
		w, err := config.NewWatcher(a.opts.configPath)
		if err != nil {
			fractal.Logger().Warn("app: config watch disabled", "error", err)
		} else {
			g.Go(func() error {
				return w.Run(watchCtx, a.applyConfig)
			})
		}
	}

	a.pump.Run(gctx)
	stopWatch()

	if err := g.Wait(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

func (a *App) applyConfig(cfg config.Config) {
	mcfg, err := cfg.MotionConfig()
	if err == nil {
		err = a.Updater.SetConfig(mcfg)
	}
	if err != nil {
		fractal.Logger().Warn("app: motion config rejected", "error", err)
	}
}

// Close releases the engine and pipeline. The device stays open.
func (a *App) Close() {
	a.Engine.Close()
	a.pipeline.Destroy()
}
