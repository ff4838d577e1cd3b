package camera

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxen-go/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// Defaults match the engine's fixed projection: 90 degree vertical field of view, near 0.1, far 1024.
const (
	DefaultFov  float32 = math.Pi / 2
	DefaultNear float32 = 0.1
	DefaultFar  float32 = 1024
)

// ErrDegenerateAspect is returned when a projection is requested for an aspect ratio that is zero, negative, or not finite.
var ErrDegenerateAspect = errors.New("camera: degenerate aspect ratio")

type cameraImpl struct {
	mu *sync.Mutex

	transform *transform.Handle

	fov  float32
	near float32
	far  float32
}

// Camera wraps a shared Transform and derives the view and projection matrices for the render pass.
// The transform is a Handle so behaviours can move the camera from the simulation goroutine.
type Camera interface {
	// Transform returns the shared transform the camera views from.
	//
	// Returns:
	//   - *transform.Handle: the camera transform
	Transform() *transform.Handle

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the inverse of the camera transform.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix (column-major)
	//   - error: transform.ErrDegenerateScale if the camera transform has a zero scale component
	ViewMatrix() (mgl32.Mat4, error)

	// ProjectionMatrix returns a right-handed perspective projection for the given aspect ratio.
	//
	// Parameters:
	//   - aspect: viewport width / height
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix (column-major, GL clip depth)
	//   - error: ErrDegenerateAspect if aspect is not a positive finite number
	ProjectionMatrix(aspect float32) (mgl32.Mat4, error)

	// ViewProjectionMatrix returns ProjectionMatrix(aspect) * ViewMatrix().
	//
	// Parameters:
	//   - aspect: viewport width / height
	//
	// Returns:
	//   - mgl32.Mat4: the combined matrix
	//   - error: any error from ViewMatrix or ProjectionMatrix
	ViewProjectionMatrix(aspect float32) (mgl32.Mat4, error)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera viewing from the given transform handle. Panics if t is nil.
//
// Parameters:
//   - t: the shared camera transform
//   - options: functional options to configure the projection
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(t *transform.Handle, options ...CameraBuilderOption) Camera {
	if t == nil {
		panic("camera: NewCamera requires a non-nil transform handle")
	}
	c := &cameraImpl{
		mu:        &sync.Mutex{},
		transform: t,
		fov:       DefaultFov,
		near:      DefaultNear,
		far:       DefaultFar,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *cameraImpl) Transform() *transform.Handle {
	return c.transform
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() (mgl32.Mat4, error) {
	return c.transform.ViewMatrix()
}

func (c *cameraImpl) ProjectionMatrix(aspect float32) (mgl32.Mat4, error) {
	a := float64(aspect)
	if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return mgl32.Mat4{}, fmt.Errorf("%w: %v", ErrDegenerateAspect, aspect)
	}

	c.mu.Lock()
	fov, near, far := c.fov, c.near, c.far
	c.mu.Unlock()

	return mgl32.Perspective(fov, aspect, near, far), nil
}

func (c *cameraImpl) ViewProjectionMatrix(aspect float32) (mgl32.Mat4, error) {
	proj, err := c.ProjectionMatrix(aspect)
	if err != nil {
		return mgl32.Mat4{}, err
	}
	view, err := c.ViewMatrix()
	if err != nil {
		return mgl32.Mat4{}, fmt.Errorf("camera view: %w", err)
	}
	return proj.Mul4(view), nil
}
