package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxen-go/engine/render_object"
	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling switches the once-per-second rate logs from Debug to Info and adds heap and GC statistics.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the simulation rate in ticks per second.
// Values <= 0 leave the simulation free-running (default).
//
// Parameters:
//   - tps: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(tps float64) EngineBuilderOption {
	return func(e *engine) {
		if tps <= 0 {
			e.tickRate = 0
			return
		}
		e.tickRate = time.Duration(float64(time.Second) / tps)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithLogger sets the engine logger. The default discards everything.
//
// Parameters:
//   - logger: the zap logger; nil keeps the default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClearColor sets the color each frame is cleared to (default white).
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClearColor(c surface.Color) EngineBuilderOption {
	return func(e *engine) {
		e.clearColor = c
	}
}

// WithBehaviourQueueSize sets the capacity of the behaviour submission channel.
//
// Parameters:
//   - n: channel capacity; values < 1 become 1
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBehaviourQueueSize(n int) EngineBuilderOption {
	return func(e *engine) {
		e.behaviourQueueSize = max(n, 1)
	}
}

// WithClipTransform replaces the matrix applied after the camera's view-projection.
// The default, common.DepthZeroToOne, maps GL clip depth to the WebGPU range.
//
// Parameters:
//   - m: the clip-space correction
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClipTransform(m mgl32.Mat4) EngineBuilderOption {
	return func(e *engine) {
		e.clipTransform = m
	}
}

// WithBuiltinModels controls whether the built-in "square" and "cube" render objects are registered (default true).
//
// Parameters:
//   - enabled: false to start with an empty registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBuiltinModels(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.builtinModels = enabled
	}
}

// WithRenderObject registers an additional render object during construction.
//
// Parameters:
//   - obj: the render object
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderObject(obj render_object.RenderObject) EngineBuilderOption {
	return func(e *engine) {
		e.extraObjects = append(e.extraObjects, obj)
	}
}

// WithWorkers sets the number of workers building instance buffers in parallel.
// 1 or less builds them on the render goroutine.
//
// Parameters:
//   - n: worker count
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorkers(n int) EngineBuilderOption {
	return func(e *engine) {
		e.workers = n
	}
}
