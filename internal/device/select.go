package device

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ParseBackend maps a backend name to its variant.
// "auto" and the empty string select the best registered backend and
// report ok=false; "noop" selects the headless backend.
func ParseBackend(name string) (variant gputypes.Backend, ok bool, err error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return gputypes.BackendEmpty, false, nil
	case "vulkan":
		return gputypes.BackendVulkan, true, nil
	case "metal":
		return gputypes.BackendMetal, true, nil
	case "dx12":
		return gputypes.BackendDX12, true, nil
	case "gl", "gles":
		return gputypes.BackendGL, true, nil
	case "noop", "empty":
		return gputypes.BackendEmpty, true, nil
	default:
		return gputypes.BackendEmpty, false, fmt.Errorf("device: unknown backend %q", name)
	}
}

// selectAdapter prefers a discrete GPU, then an integrated one, then
// whatever came first.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	if len(adapters) == 0 {
		return nil
	}
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// chooseFormat picks the swapchain format. BGRA8Unorm is preferred since
// every desktop backend presents it natively.
func chooseFormat(formats []gputypes.TextureFormat) (gputypes.TextureFormat, error) {
	for _, want := range []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm} {
		if slices.Contains(formats, want) {
			return want, nil
		}
	}
	if len(formats) == 0 {
		return gputypes.TextureFormatUndefined, ErrNoFormat
	}
	return formats[0], nil
}

// choosePresentMode returns want when supported and FIFO otherwise.
// FIFO is the one mode every surface must support.
func choosePresentMode(modes []gputypes.PresentMode, want gputypes.PresentMode) gputypes.PresentMode {
	if slices.Contains(modes, want) {
		return want
	}
	return gputypes.PresentModeFifo
}

// chooseAlphaMode prefers an opaque surface.
func chooseAlphaMode(modes []gputypes.CompositeAlphaMode) gputypes.CompositeAlphaMode {
	if len(modes) == 0 || slices.Contains(modes, gputypes.CompositeAlphaModeOpaque) {
		return gputypes.CompositeAlphaModeOpaque
	}
	return modes[0]
}
