// Package pipeline builds the GPU render pipeline that draws the fractal.
//
// A Pipeline owns the shader module, the bind group layout for the view
// uniform, the pipeline layout, the render pipeline itself and a vertex
// buffer holding a full-screen quad. It is created once per device and
// shared by every surface generation that uses the same texture format.
package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// vertexStride is the byte stride per vertex: 2 x float32 (x, y) = 8 bytes.
const vertexStride = 8

// quad covers clip space with two triangles.
var quad = [...][2]float32{
	{-1, -1}, {-1, 1}, {1, -1},
	{1, -1}, {1, 1}, {-1, 1},
}

// ErrNilDevice is returned when New is called without a device or queue.
var ErrNilDevice = errors.New("pipeline: nil device or queue")

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	spirv bool
	label string
}

// WithSPIRV hands the backend precompiled SPIR-V instead of WGSL.
// Backends that consume SPIR-V directly skip their own translation step.
func WithSPIRV(enabled bool) Option {
	return func(o *options) {
		o.spirv = enabled
	}
}

// WithLabel sets the prefix used for GPU object labels.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// Pipeline is the fractal render pipeline for a single texture format.
type Pipeline struct {
	device hal.Device
	format gputypes.TextureFormat

	shader   hal.ShaderModule
	layout   hal.BindGroupLayout
	pipeLay  hal.PipelineLayout
	pipeline hal.RenderPipeline
	vertices hal.Buffer
}

// New compiles the shader and creates the render pipeline for format.
// The quad vertex buffer is uploaded through queue.
func New(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, opts ...Option) (*Pipeline, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	o := options{label: "fractal"}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pipeline{device: device, format: format}
	if err := p.create(queue, o); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) create(queue hal.Queue, o options) error { //nolint:funlen // GPU pipeline descriptors are inherently verbose
	source := hal.ShaderSource{WGSL: shaderSource}
	if o.spirv {
		words, err := CompileSPIRV(shaderSource)
		if err != nil {
			return err
		}
		source = hal.ShaderSource{SPIRV: words}
	}

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  o.label + "_shader",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("pipeline: create shader module: %w", err)
	}
	p.shader = shader

	// One uniform buffer at group(0) binding(0), read by the fragment stage.
	layout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: o.label + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("pipeline: create bind group layout: %w", err)
	}
	p.layout = layout

	pipeLay, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            o.label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("pipeline: create pipeline layout: %w", err)
	}
	p.pipeLay = pipeLay

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  o.label + "_pipeline",
		Layout: p.pipeLay,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: vertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{
							Format:         gputypes.VertexFormatFloat32x2,
							Offset:         0,
							ShaderLocation: 0,
						},
					},
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("pipeline: create render pipeline: %w", err)
	}
	p.pipeline = pipeline

	data := QuadVertices()
	vertices, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: o.label + "_quad",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("pipeline: create vertex buffer: %w", err)
	}
	p.vertices = vertices
	if err := queue.WriteBuffer(vertices, 0, data); err != nil {
		return fmt.Errorf("pipeline: upload vertices: %w", err)
	}
	return nil
}

// QuadVertices returns the full-screen quad as tightly packed float32x2
// little-endian vertex data.
func QuadVertices() []byte {
	buf := make([]byte, len(quad)*vertexStride)
	for i, v := range quad {
		binary.LittleEndian.PutUint32(buf[i*vertexStride:], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(buf[i*vertexStride+4:], math.Float32bits(v[1]))
	}
	return buf
}

// RenderPipeline returns the compiled render pipeline.
func (p *Pipeline) RenderPipeline() hal.RenderPipeline { return p.pipeline }

// BindGroupLayout returns the layout for the view uniform bind group.
func (p *Pipeline) BindGroupLayout() hal.BindGroupLayout { return p.layout }

// VertexBuffer returns the quad vertex buffer.
func (p *Pipeline) VertexBuffer() hal.Buffer { return p.vertices }

// VertexCount returns the number of vertices in the quad.
func (p *Pipeline) VertexCount() uint32 { return uint32(len(quad)) }

// Format returns the color target format the pipeline was built for.
func (p *Pipeline) Format() gputypes.TextureFormat { return p.format }

// Destroy releases all GPU objects in reverse creation order.
// Safe to call on a partially created pipeline.
func (p *Pipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.vertices != nil {
		p.device.DestroyBuffer(p.vertices)
		p.vertices = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLay != nil {
		p.device.DestroyPipelineLayout(p.pipeLay)
		p.pipeLay = nil
	}
	if p.layout != nil {
		p.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
