package transform

import "github.com/go-gl/mathgl/mgl32"

// TransformBuilderOption is a functional option for configuring a Transform during construction.
type TransformBuilderOption func(*Transform)

// WithPosition sets the initial position.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - TransformBuilderOption: option function to apply
func WithPosition(x, y, z float32) TransformBuilderOption {
	return func(t *Transform) {
		t.Position = mgl32.Vec3{x, y, z}
	}
}

// WithRotation sets the initial (reserved) rotation.
//
// Parameters:
//   - rx, ry, rz: rotation components
//
// Returns:
//   - TransformBuilderOption: option function to apply
func WithRotation(rx, ry, rz float32) TransformBuilderOption {
	return func(t *Transform) {
		t.Rotation = mgl32.Vec3{rx, ry, rz}
	}
}

// WithScale sets the initial scale.
//
// Parameters:
//   - sx, sy, sz: scale factors
//
// Returns:
//   - TransformBuilderOption: option function to apply
func WithScale(sx, sy, sz float32) TransformBuilderOption {
	return func(t *Transform) {
		t.Scale = mgl32.Vec3{sx, sy, sz}
	}
}

// WithUniformScale sets the same scale factor on all three axes.
func WithUniformScale(s float32) TransformBuilderOption {
	return WithScale(s, s, s)
}

// WithVisible sets the initial visibility.
//
// Parameters:
//   - visible: true to draw instances using this transform
//
// Returns:
//   - TransformBuilderOption: option function to apply
func WithVisible(visible bool) TransformBuilderOption {
	return func(t *Transform) {
		t.Visible = visible
	}
}
