package transform

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrDegenerateScale is returned when a view matrix is requested from a Transform with a zero scale component.
var ErrDegenerateScale = errors.New("transform: scale component is zero")

// Transform is a mutable position/rotation/scale record with a visibility flag.
// A Transform has no internal locking; share it between goroutines through a Handle.
type Transform struct {
	// Position is the translation in world space.
	Position mgl32.Vec3

	// Rotation is stored but reserved: it is not applied by ModelMatrix or ViewMatrix.
	Rotation mgl32.Vec3

	// Scale holds the per-axis scale factors. Components must be non-zero to derive a view matrix.
	Scale mgl32.Vec3

	// Visible controls whether instances using this Transform are drawn.
	Visible bool
}

// New creates a Transform at the origin with unit scale, visible, then applies the options in order.
//
// Parameters:
//   - options: functional options to configure the transform
//
// Returns:
//   - Transform: the configured transform
func New(options ...TransformBuilderOption) Transform {
	t := Transform{
		Scale:   mgl32.Vec3{1, 1, 1},
		Visible: true,
	}
	for _, opt := range options {
		opt(&t)
	}
	return t
}

// Translate adds the delta to the position.
//
// Parameters:
//   - dx, dy, dz: translation delta
func (t *Transform) Translate(dx, dy, dz float32) {
	t.Position = t.Position.Add(mgl32.Vec3{dx, dy, dz})
}

// ModelMatrix returns the column-major object-to-world matrix: scale on the diagonal, position in the
// translation column.
//
// Returns:
//   - mgl32.Mat4: the model matrix
func (t Transform) ModelMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// ViewMatrix returns the inverse of ModelMatrix: reciprocal scale applied after the negated position.
// This is the convention used when a Transform serves as a camera.
//
// Returns:
//   - mgl32.Mat4: the view matrix
//   - error: ErrDegenerateScale if any scale component is zero
func (t Transform) ViewMatrix() (mgl32.Mat4, error) {
	if t.Scale.X() == 0 || t.Scale.Y() == 0 || t.Scale.Z() == 0 {
		return mgl32.Mat4{}, ErrDegenerateScale
	}
	return mgl32.Scale3D(1/t.Scale.X(), 1/t.Scale.Y(), 1/t.Scale.Z()).
		Mul4(mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())), nil
}
