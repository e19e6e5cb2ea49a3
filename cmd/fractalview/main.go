// Command fractalview is an interactive Mandelbrot viewer.
//
// W and S zoom, the arrow keys pan, Escape quits. With -headless it draws
// a fixed number of frames on the noop backend and exits, which is how CI
// smoke-tests the frame loop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/config"
	"github.com/gogpu/fractal/input"
	"github.com/gogpu/fractal/internal/app"
	"github.com/gogpu/fractal/internal/device"
	"github.com/gogpu/fractal/window"
)

// GLFW must run on the main thread.
func init() { runtime.LockOSThread() }

func main() {
	var (
		configPath  = flag.String("config", "", "TOML config file, watched for [motion] changes")
		width       = flag.Int("width", 0, "window width (overrides config)")
		height      = flag.Int("height", 0, "window height (overrides config)")
		backend     = flag.String("backend", "", "GPU backend: auto, vulkan, metal, dx12, gl, noop")
		presentMode = flag.String("present-mode", "", "fifo, fifo_relaxed, mailbox or immediate")
		debug       = flag.Bool("debug", false, "debug logging and GPU validation")
		headless    = flag.Bool("headless", false, "render on the noop backend without a window")
		frames      = flag.Uint64("frames", 0, "exit after this many frames (0 = unlimited)")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	fractal.SetLogger(logger)
	if *debug {
		hal.SetLogger(logger)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Error("load config", "error", err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "backend":
			cfg.Present.Backend = *backend
		case "present-mode":
			cfg.Present.PresentMode = *presentMode
		}
	})
	if *headless {
		cfg.Present.Backend = "noop"
		if *frames == 0 {
			*frames = 120
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid settings", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, cfg, *configPath, *headless, *frames, *debug)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("fractalview failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, configPath string, headless bool, frames uint64, debug bool) error {
	mode, err := cfg.PresentMode()
	if err != nil {
		return err
	}
	devOpts := []device.Option{
		device.WithBackend(cfg.Present.Backend),
		device.WithPresentMode(mode),
		device.WithDebug(debug),
	}

	var (
		win gpucontext.WindowProvider
		src input.Source
		dev *device.Device
	)
	if headless {
		win = gpucontext.NullWindowProvider{W: cfg.Window.Width, H: cfg.Window.Height}
		src = input.NewQueue()
		if dev, err = device.Open(0, 0, devOpts...); err != nil {
			return err
		}
	} else {
		w, err := window.New(window.Config{Width: cfg.Window.Width, Height: cfg.Window.Height, Title: cfg.Window.Title})
		if err != nil {
			return err
		}
		defer w.Close()
		display, handle, err := w.NativeHandles()
		if err != nil {
			return err
		}
		if dev, err = device.Open(display, handle, devOpts...); err != nil {
			return err
		}
		win, src = w, w
	}
	defer dev.Close()

	opts := []app.Option{app.WithMaxFrames(frames)}
	if configPath != "" {
		opts = append(opts, app.WithConfigWatch(configPath))
	}
	a, err := app.New(dev, win, src, cfg, opts...)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
