// Package device opens a HAL backend, adapter, logical device and window
// surface for the fractal viewer, and negotiates the swapchain format and
// present mode against what the surface supports.
package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/fractal"
)

var (
	// ErrNoAdapter is returned when the backend exposes no adapters.
	ErrNoAdapter = errors.New("device: no GPU adapters found")

	// ErrNoFormat is returned when the surface reports no formats.
	ErrNoFormat = errors.New("device: surface reports no texture formats")
)

// Option configures Open.
type Option func(*options)

type options struct {
	backend     string
	presentMode gputypes.PresentMode
	debug       bool
}

// WithBackend selects a backend by name ("auto", "vulkan", "metal",
// "dx12", "gl" or "noop").
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithPresentMode requests a present mode. Unsupported modes fall back to FIFO.
func WithPresentMode(m gputypes.PresentMode) Option {
	return func(o *options) {
		o.presentMode = m
	}
}

// WithDebug enables backend debug and validation layers.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// Device bundles the GPU objects the presentation engine draws through.
type Device struct {
	Backend  gputypes.Backend
	Info     gputypes.AdapterInfo
	Instance hal.Instance
	Adapter  hal.Adapter
	Device   hal.Device
	Queue    hal.Queue
	Surface  hal.Surface

	Format      gputypes.TextureFormat
	PresentMode gputypes.PresentMode
	AlphaMode   gputypes.CompositeAlphaMode
}

// Open creates an instance on the selected backend, a surface for the
// native window, and a device on the preferred adapter.
// display and window are the platform handles of the target window; the
// noop backend ignores them.
func Open(display, window uintptr, opts ...Option) (*Device, error) {
	o := options{backend: "auto", presentMode: gputypes.PresentModeFifo}
	for _, opt := range opts {
		opt(&o)
	}

	backend, err := lookupBackend(o.backend)
	if err != nil {
		return nil, err
	}

	desc := &hal.InstanceDescriptor{Backends: gputypes.BackendsAll}
	if o.debug {
		desc.Flags = gputypes.InstanceFlagsDebug | gputypes.InstanceFlagsValidation
	}
	instance, err := backend.CreateInstance(desc)
	if err != nil {
		return nil, fmt.Errorf("device: create instance: %w", err)
	}

	d := &Device{Backend: backend.Variant(), Instance: instance}
	if err := d.open(display, window, o); err != nil {
		d.Close()
		return nil, err
	}

	fractal.Logger().Info("device: opened",
		"backend", d.Backend,
		"adapter", d.Info.Name,
		"type", d.Info.DeviceType,
		"format", d.Format,
		"present_mode", d.PresentMode,
	)
	return d, nil
}

func (d *Device) open(display, window uintptr, o options) error {
	surface, err := d.Instance.CreateSurface(display, window)
	if err != nil {
		return fmt.Errorf("device: create surface: %w", err)
	}
	d.Surface = surface

	selected := selectAdapter(d.Instance.EnumerateAdapters(surface))
	if selected == nil {
		return ErrNoAdapter
	}
	d.Adapter = selected.Adapter
	d.Info = selected.Info

	caps := selected.Adapter.SurfaceCapabilities(surface)
	if caps == nil {
		return fmt.Errorf("device: adapter %q cannot present to this surface", d.Info.Name)
	}
	if d.Format, err = chooseFormat(caps.Formats); err != nil {
		return err
	}
	d.PresentMode = choosePresentMode(caps.PresentModes, o.presentMode)
	if d.PresentMode != o.presentMode {
		fractal.Logger().Warn("device: present mode unsupported, using FIFO", "requested", o.presentMode)
	}
	d.AlphaMode = chooseAlphaMode(caps.AlphaModes)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("device: open %q: %w", d.Info.Name, err)
	}
	d.Device = openDev.Device
	d.Queue = openDev.Queue
	return nil
}

// Close releases everything Open created, in reverse order.
// The surface must already be unconfigured.
func (d *Device) Close() {
	if d.Device != nil {
		if err := d.Device.WaitIdle(); err != nil {
			fractal.Logger().Warn("device: wait idle failed", "error", err)
		}
		d.Device.Destroy()
		d.Device = nil
		d.Queue = nil
	}
	if d.Surface != nil {
		d.Surface.Destroy()
		d.Surface = nil
	}
	if d.Adapter != nil {
		d.Adapter.Destroy()
		d.Adapter = nil
	}
	if d.Instance != nil {
		d.Instance.Destroy()
		d.Instance = nil
	}
}

func lookupBackend(name string) (hal.Backend, error) {
	variant, explicit, err := ParseBackend(name)
	if err != nil {
		return nil, err
	}
	if !explicit {
		backend, err := hal.SelectBestBackend()
		if err != nil {
			return nil, fmt.Errorf("device: select backend: %w", err)
		}
		return backend, nil
	}
	// The software backend shares the Empty variant; headless always
	// means noop.
	if variant == gputypes.BackendEmpty {
		return noop.API{}, nil
	}
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("device: backend %s not available", variant)
	}
	return backend, nil
}
