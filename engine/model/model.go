package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxen-go/engine/instance"
	"github.com/Carmen-Shannon/oxen-go/engine/render_object"
	"github.com/Carmen-Shannon/oxen-go/engine/surface"
)

// Names of the built-in render objects.
const (
	SquareName = "square"
	CubeName   = "cube"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	vertices       []GPUVertex
	indices        []uint32
	shaderSource   string
	instanceLayout instance.Layout
}

// Model is CPU-side mesh data plus the shader that draws it.
// Load uploads it through a surface.Factory and wraps the result in a render object with no instances.
type Model interface {
	// Name retrieves the model identifier, also used as the render object name.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Vertices retrieves the mesh vertices.
	//
	// Returns:
	//   - []GPUVertex: the vertices in index order
	Vertices() []GPUVertex

	// Indices retrieves the triangle list indices.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// InstanceLayout retrieves the per-instance record format the model's shader reads.
	//
	// Returns:
	//   - instance.Layout: the instance layout
	InstanceLayout() instance.Layout

	// ProgramSource builds the description used to compile the model's program.
	//
	// Returns:
	//   - surface.ProgramSource: shader source, entry points and layouts
	ProgramSource() surface.ProgramSource

	// Load creates the mesh and program through f and returns an empty render object.
	//
	// Parameters:
	//   - f: the factory to upload through
	//
	// Returns:
	//   - render_object.RenderObject: the render object named after the model
	//   - error: error if mesh or program creation fails
	Load(f surface.Factory) (render_object.RenderObject, error)
}

var _ Model = &model{}

// NewModel creates a new Model with the specified options.
//
// Parameters:
//   - options: variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: the configured model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		shaderSource:   CubeShaderSource,
		instanceLayout: instance.LayoutModelMatrix,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Vertices() []GPUVertex {
	return m.vertices
}

func (m *model) Indices() []uint32 {
	return m.indices
}

func (m *model) InstanceLayout() instance.Layout {
	return m.instanceLayout
}

func (m *model) ProgramSource() surface.ProgramSource {
	return surface.ProgramSource{
		Source:           m.shaderSource,
		VertexEntry:      VertexEntry,
		FragmentEntry:    FragmentEntry,
		Vertex:           GPUVertexFormat,
		Instance:         m.instanceLayout,
		InstanceLocation: InstanceLocation,
	}
}

func (m *model) Load(f surface.Factory) (render_object.RenderObject, error) {
	mesh, err := f.NewMesh(m.name, MarshalVertices(m.vertices), m.indices)
	if err != nil {
		return nil, fmt.Errorf("model %q mesh: %w", m.name, err)
	}
	program, err := f.NewProgram(m.name, m.ProgramSource())
	if err != nil {
		return nil, fmt.Errorf("model %q program: %w", m.name, err)
	}
	return render_object.NewRenderObject(m.name, mesh, program), nil
}

// Square returns a unit quad in the XY plane centered on the origin, drawn dark gray with
// position+scale instances.
func Square() Model {
	gray := [3]float32{0.2, 0.2, 0.2}
	return NewModel(
		WithName(SquareName),
		WithVertices([]GPUVertex{
			{Position: [3]float32{-0.5, -0.5, 0}, Color: gray},
			{Position: [3]float32{0.5, -0.5, 0}, Color: gray},
			{Position: [3]float32{0.5, 0.5, 0}, Color: gray},
			{Position: [3]float32{-0.5, 0.5, 0}, Color: gray},
		}),
		WithIndices([]uint32{0, 1, 2, 0, 2, 3}),
		WithShaderSource(SquareShaderSource),
		WithInstanceLayout(instance.LayoutPositionScale),
	)
}

// Cube returns a unit cube centered on the origin with one color per corner and model-matrix instances.
func Cube() Model {
	return NewModel(
		WithName(CubeName),
		WithVertices([]GPUVertex{
			{Position: [3]float32{-0.5, -0.5, 0.5}, Color: [3]float32{0.9, 0.3, 0.3}},
			{Position: [3]float32{0.5, -0.5, 0.5}, Color: [3]float32{0.3, 0.9, 0.3}},
			{Position: [3]float32{0.5, 0.5, 0.5}, Color: [3]float32{0.3, 0.3, 0.9}},
			{Position: [3]float32{-0.5, 0.5, 0.5}, Color: [3]float32{0.9, 0.9, 0.3}},
			{Position: [3]float32{-0.5, -0.5, -0.5}, Color: [3]float32{0.9, 0.3, 0.9}},
			{Position: [3]float32{0.5, -0.5, -0.5}, Color: [3]float32{0.3, 0.9, 0.9}},
			{Position: [3]float32{0.5, 0.5, -0.5}, Color: [3]float32{0.6, 0.6, 0.6}},
			{Position: [3]float32{-0.5, 0.5, -0.5}, Color: [3]float32{0.2, 0.2, 0.2}},
		}),
		WithIndices([]uint32{
			0, 1, 2, 0, 2, 3, // front
			5, 4, 7, 5, 7, 6, // back
			4, 0, 3, 4, 3, 7, // left
			1, 5, 6, 1, 6, 2, // right
			3, 2, 6, 3, 6, 7, // top
			4, 5, 1, 4, 1, 0, // bottom
		}),
		WithShaderSource(CubeShaderSource),
		WithInstanceLayout(instance.LayoutModelMatrix),
	)
}

// Builtins returns the models every engine registers at startup unless disabled.
func Builtins() []Model {
	return []Model{Square(), Cube()}
}
