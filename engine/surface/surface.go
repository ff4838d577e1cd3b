// Package surface declares the narrow interfaces the engine core drives its drawing surface through.
// The core never inspects meshes or programs; it only passes them back to the Frame that created them.
package surface

import (
	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/Carmen-Shannon/oxen-go/engine/instance"
	"github.com/go-gl/mathgl/mgl32"
)

// Color is a linear RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// White is the engine's default background.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// EventKind identifies an input event.
type EventKind uint8

const (
	// EventKeyPressed reports a key going down.
	EventKeyPressed EventKind = iota + 1
	// EventKeyReleased reports a key going up.
	EventKeyReleased
	// EventClosed reports that the window was asked to close.
	EventClosed
	// EventResized reports a new framebuffer size in Width and Height.
	EventResized
	// EventFocusLost reports that the window stopped receiving keyboard input.
	// Release events for keys held at that moment never arrive.
	EventFocusLost
)

// Event is a single input or window event.
type Event struct {
	Kind EventKind
	// Key is set for EventKeyPressed and EventKeyReleased.
	Key common.Key
	// Width and Height are set for EventResized.
	Width, Height int
}

// Uniforms are the per-draw inputs shared by every instance of a render object.
type Uniforms struct {
	// ViewProjection maps world space to clip space, including the engine's clip-depth correction.
	ViewProjection mgl32.Mat4
}

// Mesh is an opaque vertex/index buffer pair created by a Factory.
type Mesh interface {
	// Label returns the debug name given at creation.
	Label() string
	// IndexCount returns the number of indices drawn per instance.
	IndexCount() int
}

// Program is an opaque compiled shader program created by a Factory.
type Program interface {
	// Label returns the debug name given at creation.
	Label() string
	// InstanceLayout returns the per-instance record format the program's vertex stage reads.
	InstanceLayout() instance.Layout
}

// VertexAttribute describes one float vector attribute of the mesh vertex format.
type VertexAttribute struct {
	// Location is the shader input location.
	Location uint32
	// Offset is the byte offset inside one vertex.
	Offset uint64
	// Components is the vector width (1 to 4 float32 values).
	Components int
}

// VertexFormat describes the interleaved per-vertex layout of a mesh.
type VertexFormat struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// ProgramSource holds everything needed to compile a Program.
type ProgramSource struct {
	// Source is the shader source containing both entry points.
	Source string

	VertexEntry   string
	FragmentEntry string

	// Vertex is the per-vertex format of the meshes drawn with this program.
	Vertex VertexFormat

	// Instance is the per-instance record format, read starting at InstanceLocation.
	Instance         instance.Layout
	InstanceLocation uint32
}

// Factory creates meshes and programs usable by the Frames of the same Surface.
type Factory interface {
	// NewMesh uploads vertex and index data.
	//
	// Parameters:
	//   - label: debug name
	//   - vertices: interleaved vertex bytes
	//   - indices: triangle list indices
	//
	// Returns:
	//   - Mesh: the created mesh
	//   - error: error if creation fails
	NewMesh(label string, vertices []byte, indices []uint32) (Mesh, error)

	// NewProgram compiles a program.
	//
	// Parameters:
	//   - label: debug name
	//   - src: shader source and layouts
	//
	// Returns:
	//   - Program: the compiled program
	//   - error: error if compilation fails
	NewProgram(label string, src ProgramSource) (Program, error)
}

// Frame is one in-progress frame. Clear must precede the first Draw; Present ends the frame.
type Frame interface {
	// Clear fills the target with c.
	Clear(c Color)

	// Draw issues one instanced draw of mesh with program.
	//
	// Parameters:
	//   - mesh: the mesh to draw
	//   - program: the program to draw with; its InstanceLayout must equal instances.Layout
	//   - instances: the per-instance snapshot
	//   - uniforms: per-draw uniforms
	//
	// Returns:
	//   - error: error if the draw could not be encoded
	Draw(mesh Mesh, program Program, instances instance.Buffer, uniforms Uniforms) error

	// Present submits and displays the frame.
	//
	// Returns:
	//   - error: error if submission fails
	Present() error
}

// Surface is a drawing target that also yields the window's input events.
// All methods must be called from the goroutine that owns the surface.
type Surface interface {
	// BeginFrame starts a new frame.
	//
	// Returns:
	//   - Frame: the frame to draw into
	//   - error: error if the next target could not be acquired
	BeginFrame() (Frame, error)

	// Size returns the current framebuffer size in pixels.
	Size() (width, height int)

	// PollEvents returns the events queued since the previous call. The slice is finite and may be empty.
	PollEvents() []Event

	// Close releases the surface.
	Close() error
}
