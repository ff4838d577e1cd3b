package camera

// CameraControllerOption is a functional option for configuring a CameraController during construction.
type CameraControllerOption func(*cameraControllerImpl)

// WithPanSpeed sets the distance moved per tick while a pan key is held.
//
// Parameters:
//   - speed: world units per tick
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithPanSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.SetPanSpeed(speed)
	}
}

// WithKeyBindings replaces the default pan key bindings.
//
// Parameters:
//   - bindings: the keys to pan with
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithKeyBindings(bindings KeyBindings) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.bindings = bindings
	}
}
