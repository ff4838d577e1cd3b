package transform

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Handle is a shared, mutex-guarded reference to a Transform.
// Behaviours mutate through it on the simulation goroutine while the render goroutine snapshots it;
// every access takes the handle's own lock, never a lock spanning several handles.
type Handle struct {
	mu *sync.Mutex
	t  Transform
}

// NewHandle wraps a Transform for shared use.
//
// Parameters:
//   - t: the initial transform value
//
// Returns:
//   - *Handle: the shared handle
func NewHandle(t Transform) *Handle {
	return &Handle{
		mu: &sync.Mutex{},
		t:  t,
	}
}

// Update runs fn with exclusive access to the Transform.
// fn must not retain the pointer past its return.
//
// Parameters:
//   - fn: mutation to apply
func (h *Handle) Update(fn func(t *Transform)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.t)
}

// Snapshot returns a copy of the Transform taken under the lock.
//
// Returns:
//   - Transform: the current value
func (h *Handle) Snapshot() Transform {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.t
}

// Translate adds the delta to the position.
func (h *Handle) Translate(dx, dy, dz float32) {
	h.Update(func(t *Transform) {
		t.Translate(dx, dy, dz)
	})
}

// SetPosition replaces the position.
func (h *Handle) SetPosition(x, y, z float32) {
	h.Update(func(t *Transform) {
		t.Position = mgl32.Vec3{x, y, z}
	})
}

// SetScale replaces the scale.
func (h *Handle) SetScale(sx, sy, sz float32) {
	h.Update(func(t *Transform) {
		t.Scale = mgl32.Vec3{sx, sy, sz}
	})
}

// SetVisible sets the visibility flag.
func (h *Handle) SetVisible(visible bool) {
	h.Update(func(t *Transform) {
		t.Visible = visible
	})
}

// Visible reports the visibility flag.
func (h *Handle) Visible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.t.Visible
}

// ModelMatrix returns the model matrix of the current value.
func (h *Handle) ModelMatrix() mgl32.Mat4 {
	return h.Snapshot().ModelMatrix()
}

// ViewMatrix returns the view matrix of the current value.
func (h *Handle) ViewMatrix() (mgl32.Mat4, error) {
	return h.Snapshot().ViewMatrix()
}
