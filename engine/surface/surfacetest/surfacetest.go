// Package surfacetest provides an in-memory surface.Surface and surface.Factory for exercising the engine
// without a window or GPU.
package surfacetest

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxen-go/engine/instance"
	"github.com/Carmen-Shannon/oxen-go/engine/surface"
)

// Mesh is a recorded mesh.
type Mesh struct {
	Name     string
	Vertices []byte
	Indices  []uint32
}

func (m *Mesh) Label() string   { return m.Name }
func (m *Mesh) IndexCount() int { return len(m.Indices) }

// Program is a recorded program.
type Program struct {
	Name   string
	Source surface.ProgramSource
}

func (p *Program) Label() string                   { return p.Name }
func (p *Program) InstanceLayout() instance.Layout { return p.Source.Instance }

// NewProgram returns a Program with the given instance layout.
func NewProgram(name string, layout instance.Layout) *Program {
	return &Program{Name: name, Source: surface.ProgramSource{Instance: layout}}
}

// Factory records every mesh and program it creates. Set Err to make creation fail.
type Factory struct {
	mu       sync.Mutex
	Err      error
	Meshes   []*Mesh
	Programs []*Program
}

func (f *Factory) NewMesh(label string, vertices []byte, indices []uint32) (surface.Mesh, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	m := &Mesh{Name: label, Vertices: vertices, Indices: indices}
	f.Meshes = append(f.Meshes, m)
	return m, nil
}

func (f *Factory) NewProgram(label string, src surface.ProgramSource) (surface.Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	p := &Program{Name: label, Source: src}
	f.Programs = append(f.Programs, p)
	return p, nil
}

// Draw is one recorded draw call. Instances is a private copy of the buffer passed to Frame.Draw.
type Draw struct {
	Mesh      surface.Mesh
	Program   surface.Program
	Instances instance.Buffer
	Uniforms  surface.Uniforms
}

// FrameRecord is everything drawn into one presented frame.
type FrameRecord struct {
	Clear surface.Color
	Draws []Draw
}

// ErrLayoutMismatch is returned by Frame.Draw when the buffer layout differs from the program's.
var ErrLayoutMismatch = errors.New("surfacetest: instance layout does not match program")

// Surface records presented frames and hands out queued events. It is safe to inspect from a
// test goroutine while the engine drives it.
type Surface struct {
	mu sync.Mutex

	width, height int
	events        []surface.Event
	frames        []FrameRecord
	closed        bool

	// OnFrame, when set, is called after each Present with the number of frames presented so far.
	// It runs on the render goroutine and may queue events.
	OnFrame func(n int)

	// BeginErr, when set, is returned from BeginFrame.
	BeginErr error
}

var _ surface.Surface = &Surface{}

// NewSurface creates a fake surface with the given framebuffer size.
func NewSurface(width, height int) *Surface {
	return &Surface{width: width, height: height}
}

// Push queues events for the next PollEvents.
func (s *Surface) Push(events ...surface.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// SetSize changes the reported framebuffer size.
func (s *Surface) SetSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

// Frames returns a copy of the presented frames.
func (s *Surface) Frames() []FrameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FrameRecord, len(s.frames))
	copy(out, s.frames)
	return out
}

// Closed reports whether Close was called.
func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Surface) BeginFrame() (surface.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.BeginErr != nil {
		return nil, s.BeginErr
	}
	return &frame{s: s}, nil
}

func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *Surface) PollEvents() []surface.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type frame struct {
	s      *Surface
	record FrameRecord
}

func (f *frame) Clear(c surface.Color) {
	f.record.Clear = c
}

func (f *frame) Draw(mesh surface.Mesh, program surface.Program, instances instance.Buffer, uniforms surface.Uniforms) error {
	if program.InstanceLayout() != instances.Layout {
		return ErrLayoutMismatch
	}
	cp := instances
	cp.Data = append([]float32(nil), instances.Data...)
	f.record.Draws = append(f.record.Draws, Draw{
		Mesh:      mesh,
		Program:   program,
		Instances: cp,
		Uniforms:  uniforms,
	})
	return nil
}

func (f *frame) Present() error {
	f.s.mu.Lock()
	f.s.frames = append(f.s.frames, f.record)
	n := len(f.s.frames)
	onFrame := f.s.OnFrame
	f.s.mu.Unlock()

	if onFrame != nil {
		onFrame(n)
	}
	return nil
}
