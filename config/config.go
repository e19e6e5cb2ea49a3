// Package config loads the viewer settings from a TOML file.
//
// A file only needs the keys it changes; everything else keeps its
// default. Unknown keys are rejected so typos surface at startup.
//
//	[window]
//	width = 1280
//	height = 720
//
//	[motion]
//	tick = "5ms"
//	zoom_factor = 1.1
//
//	[present]
//	present_mode = "mailbox"
//	clear_color = "midnightblue"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"

	"github.com/gogpu/fractal/motion"
)

// ErrInvalid is returned when a setting is out of range or malformed.
var ErrInvalid = errors.New("config: invalid value")

// Config is the complete viewer configuration.
type Config struct {
	Window  Window  `toml:"window"`
	Motion  Motion  `toml:"motion"`
	Present Present `toml:"present"`
}

// Window holds the initial window geometry.
type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// Motion mirrors motion.Config in file form.
type Motion struct {
	Tick       string  `toml:"tick"`
	ZoomFactor float64 `toml:"zoom_factor"`
	PanStep    float64 `toml:"pan_step"`
	MaxZoom    float64 `toml:"max_zoom"`
}

// Present holds the GPU and swapchain settings.
type Present struct {
	Backend     string `toml:"backend"`
	PresentMode string `toml:"present_mode"`
	RingSize    int    `toml:"ring_size"`
	ClearColor  string `toml:"clear_color"`
}

// Default returns the built-in configuration.
func Default() Config {
	m := motion.DefaultConfig()
	return Config{
		Window: Window{
			Width:  800,
			Height: 600,
			Title:  "fractal",
		},
		Motion: Motion{
			Tick:       m.Tick.String(),
			ZoomFactor: float64(m.ZoomFactor),
			PanStep:    float64(m.PanStep),
			MaxZoom:    float64(m.MaxZoom),
		},
		Present: Present{
			Backend:     "auto",
			PresentMode: "fifo",
			RingSize:    3,
			ClearColor:  "black",
		},
	}
}

// Load reads and validates the file at path on top of the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0:
		return fmt.Errorf("%w: window.width %d", ErrInvalid, c.Window.Width)
	case c.Window.Height <= 0:
		return fmt.Errorf("%w: window.height %d", ErrInvalid, c.Window.Height)
	case c.Present.RingSize < 1:
		return fmt.Errorf("%w: present.ring_size %d", ErrInvalid, c.Present.RingSize)
	}
	if _, err := c.MotionConfig(); err != nil {
		return err
	}
	if _, err := c.PresentMode(); err != nil {
		return err
	}
	if _, err := c.ClearColor(); err != nil {
		return err
	}
	return nil
}

// MotionConfig converts the [motion] section.
func (c Config) MotionConfig() (motion.Config, error) {
	tick, err := time.ParseDuration(c.Motion.Tick)
	if err != nil {
		return motion.Config{}, fmt.Errorf("%w: motion.tick %q", ErrInvalid, c.Motion.Tick)
	}
	m := motion.DefaultConfig()
	m.Tick = tick
	m.ZoomFactor = float32(c.Motion.ZoomFactor)
	m.PanStep = float32(c.Motion.PanStep)
	m.MaxZoom = float32(c.Motion.MaxZoom)
	if err := m.Validate(); err != nil {
		return motion.Config{}, fmt.Errorf("%w: motion: %w", ErrInvalid, err)
	}
	return m, nil
}

// PresentMode parses present.present_mode.
func (c Config) PresentMode() (gputypes.PresentMode, error) {
	return ParsePresentMode(c.Present.PresentMode)
}

// ParsePresentMode maps "fifo", "fifo_relaxed", "mailbox" and "immediate"
// to their present modes.
func ParsePresentMode(name string) (gputypes.PresentMode, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "fifo", "vsync":
		return gputypes.PresentModeFifo, nil
	case "fifo_relaxed":
		return gputypes.PresentModeFifoRelaxed, nil
	case "mailbox":
		return gputypes.PresentModeMailbox, nil
	case "immediate":
		return gputypes.PresentModeImmediate, nil
	default:
		return gputypes.PresentModeFifo, fmt.Errorf("%w: present.present_mode %q", ErrInvalid, name)
	}
}

// ClearColor parses present.clear_color.
func (c Config) ClearColor() (gputypes.Color, error) {
	return ParseColor(c.Present.ClearColor)
}

// ParseColor accepts an SVG colour name or "#rrggbb".
func ParseColor(s string) (gputypes.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if rgba, ok := colornames.Map[s]; ok {
		return gputypes.Color{
			R: float64(rgba.R) / 255,
			G: float64(rgba.G) / 255,
			B: float64(rgba.B) / 255,
			A: float64(rgba.A) / 255,
		}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return gputypes.Color{}, fmt.Errorf("%w: colour %q", ErrInvalid, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return gputypes.Color{}, fmt.Errorf("%w: colour %q", ErrInvalid, s)
	}
	return gputypes.Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
		A: 1,
	}, nil
}
