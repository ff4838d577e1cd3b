package camera

import (
	"math"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/Carmen-Shannon/oxen-go/engine/behaviour"
	"github.com/Carmen-Shannon/oxen-go/engine/transform"
)

// KeyBindings maps the six pan directions to logical keys.
type KeyBindings struct {
	Left, Right       common.Key
	Up, Down          common.Key
	Forward, Backward common.Key
}

// DefaultKeyBindings pans with the arrow keys on the view plane and Q/E along the view axis.
var DefaultKeyBindings = KeyBindings{
	Left:     common.KeyLeft,
	Right:    common.KeyRight,
	Up:       common.KeyUp,
	Down:     common.KeyDown,
	Forward:  common.KeyQ,
	Backward: common.KeyE,
}

type cameraControllerImpl struct {
	cam      Camera
	panSpeed atomic.Uint32 // float32 bits; read on the simulation goroutine, set from anywhere
	bindings KeyBindings
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a controller panning cam with the default bindings and a pan speed of 0.05 per tick.
// Panics if cam is nil.
//
// Parameters:
//   - cam: the camera to move
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(cam Camera, options ...CameraControllerOption) CameraController {
	if cam == nil {
		panic("camera: NewCameraController requires a non-nil Camera")
	}
	cc := &cameraControllerImpl{
		cam:      cam,
		bindings: DefaultKeyBindings,
	}
	cc.SetPanSpeed(0.05)
	for _, opt := range options {
		opt(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) Update(keyPressed behaviour.KeyQuery) {
	var dx, dy, dz float32
	speed := cc.PanSpeed()
	b := cc.bindings

	if keyPressed(b.Left) {
		dx -= speed
	}
	if keyPressed(b.Right) {
		dx += speed
	}
	if keyPressed(b.Up) {
		dy += speed
	}
	if keyPressed(b.Down) {
		dy -= speed
	}
	// Right-handed: the camera looks down -Z.
	if keyPressed(b.Forward) {
		dz -= speed
	}
	if keyPressed(b.Backward) {
		dz += speed
	}

	if dx == 0 && dy == 0 && dz == 0 {
		return
	}
	cc.cam.Transform().Update(func(t *transform.Transform) {
		t.Translate(dx, dy, dz)
	})
}

func (cc *cameraControllerImpl) Camera() Camera {
	return cc.cam
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	return math.Float32frombits(cc.panSpeed.Load())
}

func (cc *cameraControllerImpl) SetPanSpeed(speed float32) {
	cc.panSpeed.Store(math.Float32bits(speed))
}

func (cc *cameraControllerImpl) Bindings() KeyBindings {
	return cc.bindings
}
