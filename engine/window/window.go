package window

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides the platform window and its input event stream.
// Key and close notifications are queued by the platform callbacks and handed out by PollEvents.
// All methods except Width/Height must be called from the goroutine that created the window.
type Window interface {
	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// PollEvents processes pending platform events and returns everything queued since the previous call.
	// Once the window has been asked to close, the result ends with a surface.EventClosed.
	//
	// Returns:
	//   - []surface.Event: the queued events, possibly empty
	PollEvents() []surface.Event

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, platform state, and the pending event queue.
type engineWindow struct {
	mu *sync.Mutex

	// title is the window title displayed in the title bar.
	title string

	// maxWidth and maxHeight bound the window size during resize.
	maxWidth, maxHeight int

	// minWidth and minHeight bound the window size during resize.
	minWidth, minHeight int

	// width and height are the current framebuffer size in pixels.
	width, height int

	// closeOnEscape requests a close when the Escape key is pressed.
	closeOnEscape bool

	// pending holds events queued by platform callbacks until the next PollEvents.
	pending []surface.Event

	// closeReported is set once an EventClosed has been handed out.
	closeReported bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
// Panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured, visible window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		mu:            &sync.Mutex{},
		title:         "Oxen",
		maxWidth:      3840,
		maxHeight:     2160,
		minWidth:      320,
		minHeight:     200,
		width:         1280,
		height:        720,
		closeOnEscape: true,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) PollEvents() []surface.Event {
	running := platformProcessMessages(w)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !running && !w.closeReported {
		w.pending = append(w.pending, surface.Event{Kind: surface.EventClosed})
		w.closeReported = true
	}
	out := w.pending
	w.pending = nil
	return out
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Width() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

func (w *engineWindow) Height() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.height
}

// push queues an event for the next PollEvents. Called from platform callbacks.
func (w *engineWindow) push(ev surface.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ev.Kind == surface.EventResized {
		w.width, w.height = ev.Width, ev.Height
	}
	w.pending = append(w.pending, ev)
}
