package present

import (
	"fmt"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// draw uploads the latest View, acquires an image, records and submits
// the pass and presents it. Only fatal errors are returned.
func (e *Engine) draw() error {
	v := e.view.Load()

	slot, err := e.ring.acquire(e.completed)
	if err != nil {
		return fmt.Errorf("present: acquire uniform slot: %w", err)
	}
	if err := e.queue.WriteBuffer(slot.buffer, 0, encodeView(v)); err != nil {
		return e.frameError("write uniforms", err)
	}

	acquired, err := e.surface.AcquireTexture(nil)
	if err != nil {
		return e.frameError("acquire", err)
	}
	tex := acquired.Texture

	view, err := e.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     "fractal_frame_view",
		Format:    e.gen.config.Format,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		e.surface.DiscardTexture(tex)
		return e.frameError("create frame view", err)
	}
	fb := &framebuffer{view: view}

	if err := e.record(fb, slot); err != nil {
		fb.release(e.device)
		e.surface.DiscardTexture(tex)
		return e.frameError("record", err)
	}

	index, err := e.queue.Submit([]hal.CommandBuffer{fb.cmd})
	if err != nil {
		fb.release(e.device)
		e.surface.DiscardTexture(tex)
		e.prev = NoToken()
		return e.frameError("submit", err)
	}
	fb.index = index
	slot.index = index
	e.gen.track(fb)
	e.prev = PendingToken(index)

	if err := e.queue.Present(e.surface, tex, nil); err != nil {
		e.prev = NoToken()
		return e.frameError("present", err)
	}
	e.stats.frames.Add(1)

	if acquired.Suboptimal {
		fractal.Logger().Debug("present: suboptimal swapchain, rebuilding")
		e.setLifecycle(PendingReconstruction)
	}
	return nil
}

// record encodes the frame: clear the target, bind the parameters and
// draw the quad.
func (e *Engine) record(fb *framebuffer, slot *uniformSlot) error {
	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "fractal_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	fb.encoder = encoder
	if err := encoder.BeginEncoding("fractal_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	cfg := e.gen.config
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "fractal_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       fb.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: e.opts.clearColor,
		}},
	})
	rp.SetPipeline(e.pipeline.RenderPipeline())
	rp.SetBindGroup(0, slot.group, nil)
	rp.SetVertexBuffer(0, e.pipeline.VertexBuffer(), 0)
	rp.SetViewport(0, 0, float32(cfg.Width), float32(cfg.Height), 0, 1)
	rp.Draw(e.pipeline.VertexCount(), 1, 0, 0)
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("end encoding: %w", err)
	}
	fb.cmd = cmd
	return nil
}

// frameError applies the error policy to a failed frame step. Stale
// surfaces schedule a rebuild, timeouts skip the frame, fatal errors are
// returned and everything else is logged.
func (e *Engine) frameError(op string, err error) error {
	switch classify(err) {
	case outcomeFatal:
		return fmt.Errorf("present: %s: %w", op, err)
	case outcomeRebuild:
		fractal.Logger().Debug("present: surface stale", "op", op, "error", err)
		e.setLifecycle(PendingReconstruction)
		e.stats.skipped.Add(1)
	case outcomeSkip:
		fractal.Logger().Debug("present: no image", "op", op, "error", err)
		e.stats.skipped.Add(1)
	default:
		fractal.Logger().Warn("present: frame failed", "op", op, "error", err)
		e.stats.failed.Add(1)
	}
	return nil
}
