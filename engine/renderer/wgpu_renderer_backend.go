package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/Carmen-Shannon/oxen-go/engine/instance"
	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrSurfaceUnconfigured is returned by BeginFrame while the surface has a zero size.
	ErrSurfaceUnconfigured = errors.New("renderer: surface is not configured")

	// ErrFrameInFlight is returned by BeginFrame when the previous frame was never presented.
	ErrFrameInFlight = errors.New("renderer: previous frame not yet presented")

	// ErrForeignResource is returned when a Draw receives a mesh or program from another factory.
	ErrForeignResource = errors.New("renderer: mesh or program was not created by this renderer")

	// ErrLayoutMismatch is returned when the instance buffer layout differs from the program's.
	ErrLayoutMismatch = errors.New("renderer: instance layout does not match program")
)

const (
	uniformBufferSize = 64
	depthFormat       = wgpu.TextureFormatDepth24Plus
)

// wgpuRendererBackend owns the WebGPU device, the configured surface and the per-draw buffers.
type wgpuRendererBackend struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat    wgpu.TextureFormat
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView
	configured       bool

	presentMode PresentMode

	// uniformLayout is shared by every program: group 0, binding 0, the view-projection matrix.
	uniformLayout *wgpu.BindGroupLayout

	// slots[i] backs the i-th draw of a frame.
	slots []*drawSlot

	// frame is the frame between BeginFrame and Present, nil otherwise.
	frame *wgpuFrame
}

// drawSlot holds the GPU buffers bound by one draw call.
type drawSlot struct {
	uniforms  *wgpu.Buffer
	bindGroup *wgpu.BindGroup

	instances *wgpu.Buffer
	capacity  uint64
}

type gpuMesh struct {
	label      string
	vertices   *wgpu.Buffer
	indices    *wgpu.Buffer
	indexCount int
}

func (m *gpuMesh) Label() string   { return m.label }
func (m *gpuMesh) IndexCount() int { return m.indexCount }

type gpuProgram struct {
	label    string
	layout   instance.Layout
	pipeline *wgpu.RenderPipeline
}

func (p *gpuProgram) Label() string                   { return p.label }
func (p *gpuProgram) InstanceLayout() instance.Layout { return p.layout }

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, mode PresentMode) (*wgpuRendererBackend, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: mode,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.uniformLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Uniforms Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uniformBufferSize,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform layout: %w", err)
	}

	return b, nil
}

// ConfigureSurface is a wrapper for boilerplate logic required when calling Configure on a surface.
// This is required when the surface size changes, such as when the window is resized.
// A zero width or height marks the surface unconfigured.
func (b *wgpuRendererBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseDepth()
	if width <= 0 || height <= 0 {
		b.configured = false
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode.wgpu(),
		AlphaMode:   capabilities.AlphaModes[0],
	})

	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		b.configured = false
		return
	}
	view, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		b.configured = false
		return
	}
	b.depthTexture = depthTexture
	b.depthTextureView = view
	b.configured = true
}

func (b *wgpuRendererBackend) releaseDepth() {
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuRendererBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *wgpuRendererBackend) NewMesh(label string, vertices []byte, indices []uint32) (surface.Mesh, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := &gpuMesh{label: label, indexCount: len(indices)}

	if len(vertices) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + " Vertex Buffer",
			Size:  uint64(len(vertices)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", label, err)
		}
		b.queue.WriteBuffer(buf, 0, vertices)
		m.vertices = buf
	}

	if len(indices) > 0 {
		data := common.SliceToBytes(indices)
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + " Index Buffer",
			Size:  uint64(len(data)),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", label, err)
		}
		b.queue.WriteBuffer(buf, 0, data)
		m.indices = buf
	}

	return m, nil
}

// NewProgram compiles a single WGSL module holding both entry points and builds its render pipeline.
// Slot 0 carries the mesh vertices and slot 1 the per-instance records.
func (b *wgpuRendererBackend) NewProgram(label string, src surface.ProgramSource) (surface.Program, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: src.Source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", label, err)
	}
	defer module.Release()

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.uniformLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", label, err)
	}
	defer pipelineLayout.Release()

	vertexAttributes := make([]wgpu.VertexAttribute, 0, len(src.Vertex.Attributes))
	for _, a := range src.Vertex.Attributes {
		format, ok := floatFormat(a.Components)
		if !ok {
			return nil, fmt.Errorf("program %q: attribute %d has %d components", label, a.Location, a.Components)
		}
		vertexAttributes = append(vertexAttributes, wgpu.VertexAttribute{
			Format:         format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		})
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: src.VertexEntry,
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: src.Vertex.Stride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes:  vertexAttributes,
				},
				{
					ArrayStride: src.Instance.Stride(),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes:  instanceAttributes(src.Instance, src.InstanceLocation),
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: src.FragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", label, err)
	}

	return &gpuProgram{label: label, layout: src.Instance, pipeline: created}, nil
}

func floatFormat(components int) (wgpu.VertexFormat, bool) {
	switch components {
	case 1:
		return wgpu.VertexFormatFloat32, true
	case 2:
		return wgpu.VertexFormatFloat32x2, true
	case 3:
		return wgpu.VertexFormatFloat32x3, true
	case 4:
		return wgpu.VertexFormatFloat32x4, true
	default:
		return 0, false
	}
}

// instanceAttributes expands a record layout into vertex attributes starting at location loc.
// A model matrix occupies four consecutive vec4 locations, one per column.
func instanceAttributes(layout instance.Layout, loc uint32) []wgpu.VertexAttribute {
	switch layout {
	case instance.LayoutPositionScale:
		return []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: loc},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: loc + 1},
		}
	default:
		attrs := make([]wgpu.VertexAttribute, 4)
		for i := range attrs {
			attrs[i] = wgpu.VertexAttribute{
				Format:         wgpu.VertexFormatFloat32x4,
				Offset:         uint64(i) * 16,
				ShaderLocation: loc + uint32(i),
			}
		}
		return attrs
	}
}

// slot returns the i-th draw slot, creating its uniform buffer and bind group on first use.
func (b *wgpuRendererBackend) slot(i int) (*drawSlot, error) {
	for len(b.slots) <= i {
		b.slots = append(b.slots, nil)
	}
	if s := b.slots[i]; s != nil {
		return s, nil
	}

	ub, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("Draw %d Uniforms", i),
		Size:  uniformBufferSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  fmt.Sprintf("Draw %d Bind Group", i),
		Layout: b.uniformLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: ub, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		ub.Release()
		return nil, err
	}

	s := &drawSlot{uniforms: ub, bindGroup: bg}
	b.slots[i] = s
	return s, nil
}

// reserve grows the slot's instance buffer to hold size bytes, doubling to amortize reallocation.
func (b *wgpuRendererBackend) reserve(s *drawSlot, size uint64) error {
	if s.instances != nil && s.capacity >= size {
		return nil
	}
	capacity := max(s.capacity, 256)
	for capacity < size {
		capacity *= 2
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Instance Buffer",
		Size:  capacity,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	if s.instances != nil {
		s.instances.Release()
	}
	s.instances = buf
	s.capacity = capacity
	return nil
}

// BeginFrame acquires the next swapchain texture and creates the frame's command encoder.
// The render pass itself begins on the frame's first Clear or Draw.
func (b *wgpuRendererBackend) BeginFrame() (surface.Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.configured {
		return nil, ErrSurfaceUnconfigured
	}
	if b.frame != nil {
		return nil, ErrFrameInFlight
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return nil, err
	}

	b.frame = &wgpuFrame{
		backend: b,
		texture: surfaceTexture,
		view:    view,
		encoder: encoder,
		clear:   surface.White,
	}
	return b.frame, nil
}

// Release frees every GPU object owned by the backend.
func (b *wgpuRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != nil {
		b.frame.release()
		b.frame = nil
	}
	for _, s := range b.slots {
		if s == nil {
			continue
		}
		if s.instances != nil {
			s.instances.Release()
		}
		s.bindGroup.Release()
		s.uniforms.Release()
	}
	b.slots = nil
	b.releaseDepth()
	if b.uniformLayout != nil {
		b.uniformLayout.Release()
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}

// wgpuFrame is one frame of the wgpu backend.
type wgpuFrame struct {
	backend *wgpuRendererBackend

	texture *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder

	clear surface.Color
	draws int
}

func (f *wgpuFrame) Clear(c surface.Color) {
	f.clear = c
	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	f.beginPass()
}

// beginPass starts the render pass once, clearing to the current clear color. Caller holds the backend lock.
func (f *wgpuFrame) beginPass() {
	if f.pass != nil {
		return
	}
	f.pass = f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    f.view,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: f.clear.R, G: f.clear.G, B: f.clear.B, A: f.clear.A,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            f.backend.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
}

func (f *wgpuFrame) Draw(mesh surface.Mesh, program surface.Program, instances instance.Buffer, uniforms surface.Uniforms) error {
	m, ok := mesh.(*gpuMesh)
	if !ok {
		return ErrForeignResource
	}
	p, ok := program.(*gpuProgram)
	if !ok {
		return ErrForeignResource
	}
	if p.layout != instances.Layout {
		return fmt.Errorf("%w: %s != %s", ErrLayoutMismatch, instances.Layout, p.layout)
	}
	if instances.Count == 0 || m.indexCount == 0 {
		return nil
	}

	b := f.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	f.beginPass()

	s, err := b.slot(f.draws)
	if err != nil {
		return fmt.Errorf("draw %q: %w", m.label, err)
	}
	data := instances.Bytes()
	if err := b.reserve(s, uint64(len(data))); err != nil {
		return fmt.Errorf("draw %q: %w", m.label, err)
	}
	f.draws++

	b.queue.WriteBuffer(s.uniforms, 0, common.StructToBytes(&uniforms))
	b.queue.WriteBuffer(s.instances, 0, data)

	f.pass.SetPipeline(p.pipeline)
	f.pass.SetBindGroup(0, s.bindGroup, nil)
	f.pass.SetVertexBuffer(0, m.vertices, 0, wgpu.WholeSize)
	f.pass.SetVertexBuffer(1, s.instances, 0, uint64(len(data)))
	f.pass.SetIndexBuffer(m.indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	f.pass.DrawIndexed(uint32(m.indexCount), uint32(instances.Count), 0, 0, 0)
	return nil
}

// Present ends the render pass, submits the command buffer and presents the surface.
func (f *wgpuFrame) Present() error {
	b := f.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != f {
		return nil
	}
	defer func() {
		f.release()
		b.frame = nil
	}()

	f.beginPass()
	f.pass.End()
	f.pass = nil

	commandBuffer, err := f.encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.surface.Present()
	return nil
}

func (f *wgpuFrame) release() {
	if f.pass != nil {
		f.pass.End()
		f.pass = nil
	}
	if f.encoder != nil {
		f.encoder.Release()
		f.encoder = nil
	}
	if f.view != nil {
		f.view.Release()
		f.view = nil
	}
	if f.texture != nil {
		f.texture.Release()
		f.texture = nil
	}
}
