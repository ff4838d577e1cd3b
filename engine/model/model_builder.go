package model

import "github.com/Carmen-Shannon/oxen-go/engine/instance"

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVertices is an option builder that sets the mesh vertices of the Model.
//
// Parameters:
//   - vertices: the vertices to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the vertices option to a model
func WithVertices(vertices []GPUVertex) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
	}
}

// WithIndices is an option builder that sets the triangle list indices of the Model.
//
// Parameters:
//   - indices: the indices to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the indices option to a model
func WithIndices(indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.indices = indices
	}
}

// WithShaderSource is an option builder that sets the WGSL source compiled for the Model.
// The source must define VertexEntry and FragmentEntry and read instances from InstanceLocation.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - ModelBuilderOption: a function that applies the shader option to a model
func WithShaderSource(source string) ModelBuilderOption {
	return func(m *model) {
		m.shaderSource = source
	}
}

// WithInstanceLayout is an option builder that sets the per-instance record format.
//
// Parameters:
//   - layout: the instance layout the shader expects
//
// Returns:
//   - ModelBuilderOption: a function that applies the layout option to a model
func WithInstanceLayout(layout instance.Layout) ModelBuilderOption {
	return func(m *model) {
		m.instanceLayout = layout
	}
}
