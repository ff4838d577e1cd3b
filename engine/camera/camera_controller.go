package camera

import "github.com/Carmen-Shannon/oxen-go/engine/behaviour"

// CameraController is a Behaviour that pans a camera's transform from keyboard input each simulation tick.
// Register it with the engine like any other behaviour.
type CameraController interface {
	behaviour.Behaviour

	// Camera returns the controlled camera.
	//
	// Returns:
	//   - Camera: the camera whose transform is moved
	Camera() Camera

	// PanSpeed returns the distance moved per tick while a pan key is held.
	//
	// Returns:
	//   - float32: world units per tick
	PanSpeed() float32

	// SetPanSpeed sets the distance moved per tick while a pan key is held.
	//
	// Parameters:
	//   - speed: world units per tick
	SetPanSpeed(speed float32)

	// Bindings returns the current key bindings.
	//
	// Returns:
	//   - KeyBindings: the bindings in use
	Bindings() KeyBindings
}
