package present

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// uniformSize is the byte size of the per-frame parameter block.
// Layout: zoom (f32) + pan_x (f32) + pan_y (f32) + padding (f32) = 16 bytes.
const uniformSize = 16

// encodeView packs v into the shader's uniform layout.
func encodeView(v fractal.View) []byte {
	buf := make([]byte, uniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Zoom))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.PanX))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.PanY))
	return buf
}

// uniformSlot is one uniform buffer with its bind group. index is the
// submission that last read it; zero means it was never submitted.
type uniformSlot struct {
	buffer hal.Buffer
	group  hal.BindGroup
	index  uint64
}

// uniformRing hands out uniform slots that no in-flight frame is reading.
// A slot is reused only after its submission has completed; when every
// slot is busy the ring grows by one.
type uniformRing struct {
	device hal.Device
	layout hal.BindGroupLayout
	slots  []*uniformSlot
	next   int
}

func newUniformRing(device hal.Device, layout hal.BindGroupLayout, size int) (*uniformRing, error) {
	r := &uniformRing{device: device, layout: layout}
	for range size {
		if _, err := r.grow(); err != nil {
			r.destroy()
			return nil, err
		}
	}
	return r, nil
}

func (r *uniformRing) grow() (*uniformSlot, error) {
	n := len(r.slots)
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("fractal_uniforms_%d", n),
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  fmt.Sprintf("fractal_uniforms_bind_%d", n),
		Layout: r.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: uniformSize}},
		},
	})
	if err != nil {
		r.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("create uniform bind group: %w", err)
	}
	s := &uniformSlot{buffer: buf, group: group}
	r.slots = append(r.slots, s)
	return s, nil
}

// acquire returns the next slot whose last submission is at or below
// completed, growing the ring if there is none.
func (r *uniformRing) acquire(completed uint64) (*uniformSlot, error) {
	n := len(r.slots)
	for i := range n {
		idx := (r.next + i) % n
		if s := r.slots[idx]; s.index <= completed {
			r.next = (idx + 1) % n
			return s, nil
		}
	}
	s, err := r.grow()
	if err != nil {
		return nil, err
	}
	r.next = 0
	fractal.Logger().Debug("present: uniform ring grown", "slots", len(r.slots))
	return s, nil
}

func (r *uniformRing) len() int {
	return len(r.slots)
}

func (r *uniformRing) destroy() {
	for _, s := range r.slots {
		if s.group != nil {
			r.device.DestroyBindGroup(s.group)
		}
		if s.buffer != nil {
			r.device.DestroyBuffer(s.buffer)
		}
	}
	r.slots = nil
}
