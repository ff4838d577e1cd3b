package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/Carmen-Shannon/oxen-go/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCamera_Defaults(t *testing.T) {
	cam := NewCamera(transform.NewHandle(transform.New()))

	assert.InDelta(t, math.Pi/2, cam.Fov(), 1e-6)
	assert.Equal(t, float32(0.1), cam.Near())
	assert.Equal(t, float32(1024), cam.Far())
}

func TestNewCamera_NilTransformPanics(t *testing.T) {
	assert.Panics(t, func() { NewCamera(nil) })
}

func TestCamera_ViewMatrixDelegatesToTransform(t *testing.T) {
	h := transform.NewHandle(transform.New(transform.WithPosition(1, 2, 3), transform.WithUniformScale(2)))
	cam := NewCamera(h)

	got, err := cam.ViewMatrix()
	require.NoError(t, err)
	want, err := h.ViewMatrix()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	h.SetScale(0, 1, 1)
	_, err = cam.ViewMatrix()
	assert.ErrorIs(t, err, transform.ErrDegenerateScale)
}

func TestCamera_ProjectionMatrix(t *testing.T) {
	cam := NewCamera(transform.NewHandle(transform.New()))

	m, err := cam.ProjectionMatrix(2)
	require.NoError(t, err)

	// f = 1/tan(fov/2) = 1 for a 90 degree field of view.
	assert.InDelta(t, 0.5, m[0], 1e-5)
	assert.InDelta(t, 1.0, m[5], 1e-5)
	assert.InDelta(t, (1024+0.1)/(0.1-1024), m[10], 1e-4)
	assert.InDelta(t, -1.0, m[11], 1e-6)
	assert.InDelta(t, (2*1024*0.1)/(0.1-1024), m[14], 1e-4)
	assert.InDelta(t, 0.0, m[15], 1e-6)
}

func TestCamera_ProjectionMatrix_DegenerateAspect(t *testing.T) {
	cam := NewCamera(transform.NewHandle(transform.New()))

	for _, aspect := range []float32{0, -1, float32(math.Inf(1)), float32(math.NaN())} {
		_, err := cam.ProjectionMatrix(aspect)
		assert.ErrorIs(t, err, ErrDegenerateAspect, "aspect %v", aspect)
	}
}

func TestCamera_ViewProjectionMatrix(t *testing.T) {
	h := transform.NewHandle(transform.New(transform.WithPosition(0, 0, 5)))
	cam := NewCamera(h, WithFov(mgl32.DegToRad(60)), WithNear(1), WithFar(100))

	vp, err := cam.ViewProjectionMatrix(1)
	require.NoError(t, err)

	view, _ := cam.ViewMatrix()
	proj, _ := cam.ProjectionMatrix(1)
	assert.Equal(t, proj.Mul4(view), vp)

	// A point on the near plane in front of the camera lands at clip depth -1.
	clip := vp.Mul4x1(mgl32.Vec4{0, 0, 4, 1})
	assert.InDelta(t, -1, clip.Z()/clip.W(), 1e-4)
}

func TestCameraController_Pans(t *testing.T) {
	h := transform.NewHandle(transform.New())
	cc := NewCameraController(NewCamera(h), WithPanSpeed(0.5))

	pressed := map[common.Key]bool{common.KeyRight: true, common.KeyUp: true, common.KeyQ: true}
	cc.Update(func(k common.Key) bool { return pressed[k] })
	cc.Update(func(k common.Key) bool { return pressed[k] })

	assert.Equal(t, mgl32.Vec3{1, 1, -1}, h.Snapshot().Position)
}

func TestCameraController_OpposingKeysCancel(t *testing.T) {
	h := transform.NewHandle(transform.New(transform.WithPosition(1, 1, 1)))
	cc := NewCameraController(NewCamera(h))

	cc.Update(func(k common.Key) bool { return k == common.KeyLeft || k == common.KeyRight })

	assert.Equal(t, mgl32.Vec3{1, 1, 1}, h.Snapshot().Position)
}

func TestCameraController_CustomBindings(t *testing.T) {
	h := transform.NewHandle(transform.New())
	bindings := KeyBindings{
		Left: common.KeyA, Right: common.KeyD,
		Up: common.KeyW, Down: common.KeyS,
		Forward: common.KeyR, Backward: common.KeyF,
	}
	cc := NewCameraController(NewCamera(h), WithKeyBindings(bindings), WithPanSpeed(1))

	cc.Update(func(k common.Key) bool { return k == common.KeyA })

	assert.Equal(t, bindings, cc.Bindings())
	assert.Equal(t, float32(1), cc.PanSpeed())
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, h.Snapshot().Position)
}
