package present

import "github.com/gogpu/wgpu/hal"

// framebuffer is the render target of one submitted frame: the view of
// the acquired swapchain image plus the command recording that drew it.
// It is released once its submission completes.
type framebuffer struct {
	view    hal.TextureView
	encoder hal.CommandEncoder
	cmd     hal.CommandBuffer
	index   uint64
}

func (fb *framebuffer) release(device hal.Device) {
	if fb.cmd != nil {
		device.FreeCommandBuffer(fb.cmd)
	}
	if fb.encoder != nil {
		fb.encoder.Destroy()
	}
	if fb.view != nil {
		device.DestroyTextureView(fb.view)
	}
}

// generation is one configuration of the swapchain and every framebuffer
// derived from its images. A new generation replaces the old one whole;
// the old one lingers only until its in-flight frames complete.
type generation struct {
	serial       uint64
	config       hal.SurfaceConfiguration
	framebuffers []*framebuffer
}

func (g *generation) track(fb *framebuffer) {
	g.framebuffers = append(g.framebuffers, fb)
}

// reclaim releases framebuffers whose submission has completed.
func (g *generation) reclaim(device hal.Device, completed uint64) {
	kept := g.framebuffers[:0]
	for _, fb := range g.framebuffers {
		if fb.index <= completed {
			fb.release(device)
			continue
		}
		kept = append(kept, fb)
	}
	clear(g.framebuffers[len(kept):])
	g.framebuffers = kept
}

// inFlight returns the number of framebuffers still awaiting completion.
func (g *generation) inFlight() int {
	return len(g.framebuffers)
}

func (g *generation) destroy(device hal.Device) {
	for _, fb := range g.framebuffers {
		fb.release(device)
	}
	g.framebuffers = nil
}
