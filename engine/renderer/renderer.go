package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"github.com/Carmen-Shannon/oxen-go/engine/window"
	"go.uber.org/zap"
)

// ErrNoSurface is returned when the window cannot provide a surface descriptor.
var ErrNoSurface = errors.New("renderer: window has no surface descriptor")

// Renderer is the WebGPU implementation of surface.Surface and surface.Factory over a platform window.
//
// Frames are drawn with one uniform buffer and one growable instance buffer per draw slot,
// so several render objects sharing a mesh or program can be drawn in the same frame.
type Renderer interface {
	surface.Surface
	surface.Factory

	// Resize reconfigures the swapchain for a new framebuffer size.
	// A zero width or height leaves the surface unconfigured until the next non-zero resize.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	window  window.Window
	backend *wgpuRendererBackend
	logger  *zap.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing into the given window.
// Must be called from the goroutine that created the window.
//
// Parameters:
//   - win: the platform window to draw into and read events from
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
//   - error: error if no adapter or device could be acquired
func NewRenderer(win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:     &sync.Mutex{},
		window: win,
		logger: zap.NewNop(),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	desc := win.SurfaceDescriptor()
	if desc == nil {
		return nil, ErrNoSurface
	}

	backend, err := newWGPURendererBackend(desc, r.forceFallbackAdapter, r.presentMode)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.backend = backend
	r.backend.ConfigureSurface(win.Width(), win.Height())

	r.logger.Info("renderer ready",
		zap.Int("width", win.Width()),
		zap.Int("height", win.Height()),
		zap.Stringer("present_mode", r.presentMode),
		zap.Bool("software", r.forceFallbackAdapter),
	)
	return r, nil
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	r.presentMode = mode
	r.mu.Unlock()

	r.backend.SetPresentMode(mode)
	r.backend.ConfigureSurface(r.window.Width(), r.window.Height())
}

func (r *renderer) BeginFrame() (surface.Frame, error) {
	return r.backend.BeginFrame()
}

func (r *renderer) Size() (int, int) {
	return r.window.Width(), r.window.Height()
}

func (r *renderer) PollEvents() []surface.Event {
	events := r.window.PollEvents()
	for _, ev := range events {
		if ev.Kind == surface.EventResized {
			r.logger.Debug("surface resized", zap.Int("width", ev.Width), zap.Int("height", ev.Height))
			r.Resize(ev.Width, ev.Height)
		}
	}
	return events
}

func (r *renderer) Close() error {
	r.backend.Release()
	return r.window.Close()
}

func (r *renderer) NewMesh(label string, vertices []byte, indices []uint32) (surface.Mesh, error) {
	return r.backend.NewMesh(label, vertices, indices)
}

func (r *renderer) NewProgram(label string, src surface.ProgramSource) (surface.Program, error) {
	return r.backend.NewProgram(label, src)
}
