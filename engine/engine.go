package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/Carmen-Shannon/oxen-go/engine/behaviour"
	"github.com/Carmen-Shannon/oxen-go/engine/camera"
	"github.com/Carmen-Shannon/oxen-go/engine/input"
	"github.com/Carmen-Shannon/oxen-go/engine/instance"
	"github.com/Carmen-Shannon/oxen-go/engine/model"
	"github.com/Carmen-Shannon/oxen-go/engine/profiler"
	"github.com/Carmen-Shannon/oxen-go/engine/render_object"
	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"github.com/Carmen-Shannon/oxen-go/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultBehaviourQueueSize is the default capacity of the behaviour submission channel.
const DefaultBehaviourQueueSize = 1024

var (
	// ErrNilSurface is returned by NewEngine when the surface or factory is nil.
	ErrNilSurface = errors.New("engine: nil surface or factory")

	// ErrEngineRunning is returned by Run while another Run is in progress.
	ErrEngineRunning = errors.New("engine: already running")

	// ErrEngineStopped is returned by Run after the engine has shut down.
	ErrEngineStopped = errors.New("engine: stopped")
)

// DefaultWorkers returns the default size of the instance snapshot worker pool: one less than the CPU count, at least 1.
func DefaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// engine implements the Engine interface.
// Coordinates the simulation goroutine and the render loop on the caller's goroutine.
type engine struct {
	mu *sync.Mutex

	surface surface.Surface
	factory surface.Factory
	logger  *zap.Logger

	registry render_object.Registry
	keyboard *input.Keyboard
	camera   camera.Camera

	behaviours         chan behaviour.Behaviour
	behaviourQueueSize int
	pendingMu          sync.Mutex
	pending            []behaviour.Behaviour // overflow once behaviours is full, drained after it

	tickRate        time.Duration      // 0 = free-running
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	profilingEnabled bool
	simProfiler      *profiler.Profiler
	renderProfiler   *profiler.Profiler

	clearColor    surface.Color
	clipTransform mgl32.Mat4

	builtinModels bool
	extraObjects  []render_object.RenderObject

	workers  int
	pool     worker.DynamicWorkerPool
	builders []instance.Builder
	buffers  []instance.Buffer

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	running      atomic.Bool
	quitChannel  chan struct{}
	quitOnce     sync.Once // Ensures quitChannel is only closed once
	shutdownOnce sync.Once
}

// Engine owns the render object registry, the keyboard table, the active camera and the two loops:
// a simulation goroutine that updates behaviours, and the render loop that Run executes on the
// caller's goroutine, which must be the goroutine that owns the surface.
type Engine interface {
	// SetCamera sets the camera used for every subsequent frame.
	//
	// Parameters:
	//   - c: the camera; must be set before Run
	SetCamera(c camera.Camera)

	// Camera returns the active camera, or nil if none was set.
	//
	// Returns:
	//   - camera.Camera: the active camera
	Camera() camera.Camera

	// AddBehaviour hands b to the simulation goroutine, which picks it up on its next tick and updates it
	// once per tick from then on. Never blocks, so a behaviour may submit others from its own Update.
	// After shutdown the behaviour is dropped with a warning.
	//
	// Parameters:
	//   - b: the behaviour; ownership passes to the engine
	AddBehaviour(b behaviour.Behaviour)

	// AttachRenderObject appends t to the instance list of the render object registered under name.
	//
	// Parameters:
	//   - t: the shared transform to draw
	//   - name: the render object name
	//
	// Returns:
	//   - error: render_object.ErrUnknownRenderObject or render_object.ErrNilTransform; the registry is unchanged on error
	AttachRenderObject(t *transform.Handle, name string) error

	// RegisterRenderObject adds a render object kind. Only allowed before Run.
	//
	// Parameters:
	//   - obj: the render object
	//
	// Returns:
	//   - error: render_object.ErrDuplicateRenderObject or render_object.ErrRegistryFrozen
	RegisterRenderObject(obj render_object.RenderObject) error

	// Registry returns the render object registry.
	//
	// Returns:
	//   - render_object.Registry: the registry
	Registry() render_object.Registry

	// Keyboard returns the keyboard table the render loop writes and behaviours read.
	//
	// Returns:
	//   - *input.Keyboard: the keyboard table
	Keyboard() *input.Keyboard

	// TickRate returns the simulation ticks per second measured over the last full second.
	//
	// Returns:
	//   - float64: ticks per second, 0 before the first measurement
	TickRate() float64

	// FrameRate returns the rendered frames per second measured over the last full second.
	//
	// Returns:
	//   - float64: frames per second, 0 before the first measurement
	FrameRate() float64

	// SetTickRate changes the simulation rate. Takes effect on the next tick.
	//
	// Parameters:
	//   - tps: target ticks per second; 0 or less runs free
	SetTickRate(tps float64)

	// Run freezes the registry and runs the render loop until the surface reports a close event or Quit is called,
	// then stops and joins the simulation goroutine. Panics if no camera is set.
	//
	// Returns:
	//   - error: ErrEngineRunning, ErrEngineStopped, or nil on a normal close
	Run() error

	// Quit asks the render loop to return after the current frame and cancels the simulation goroutine.
	// Safe to call multiple times and from any goroutine, including a behaviour.
	Quit()

	// Close quits and waits for the simulation goroutine to return. Use it to release an engine that
	// is never Run. Must not be called from a behaviour.
	//
	// Returns:
	//   - error: the simulation goroutine's error, if any
	Close() error
}

var _ Engine = &engine{}

// NewEngine creates an Engine drawing into s with meshes and programs created by f,
// loads the built-in render objects and starts the simulation goroutine.
//
// Parameters:
//   - s: the drawing surface and event source
//   - f: the factory for s
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrNilSurface, or an error loading or registering a render object
func NewEngine(s surface.Surface, f surface.Factory, options ...EngineBuilderOption) (Engine, error) {
	if s == nil || f == nil {
		return nil, ErrNilSurface
	}

	e := &engine{
		mu:                 &sync.Mutex{},
		surface:            s,
		factory:            f,
		logger:             zap.NewNop(),
		registry:           render_object.NewRegistry(),
		keyboard:           input.NewKeyboard(),
		behaviourQueueSize: DefaultBehaviourQueueSize,
		tickRateChannel:    make(chan time.Duration, 1),
		quitChannel:        make(chan struct{}),
		clearColor:         surface.White,
		clipTransform:      common.DepthZeroToOne,
		builtinModels:      true,
		workers:            DefaultWorkers(),
	}

	for _, opt := range options {
		opt(e)
	}

	e.simProfiler = profiler.NewProfiler("simulation", e.logger)
	e.simProfiler.SetVerbose(e.profilingEnabled)
	e.renderProfiler = profiler.NewProfiler("render", e.logger)
	e.renderProfiler.SetVerbose(e.profilingEnabled)

	if e.builtinModels {
		for _, m := range model.Builtins() {
			obj, err := m.Load(f)
			if err != nil {
				return nil, fmt.Errorf("engine: %w", err)
			}
			if err := e.registry.Register(obj); err != nil {
				return nil, fmt.Errorf("engine: %w", err)
			}
		}
	}
	for _, obj := range e.extraObjects {
		if err := e.registry.Register(obj); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	if e.workers > 1 {
		// Queue size of 256 accommodates typical render object counts with headroom.
		e.pool = worker.NewDynamicWorkerPool(e.workers, 256, 1*time.Second)
	}

	e.behaviours = make(chan behaviour.Behaviour, e.behaviourQueueSize)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.group, e.ctx = errgroup.WithContext(e.ctx)
	e.group.Go(func() error {
		return e.simulate(e.ctx)
	})

	e.logger.Debug("engine started",
		zap.Strings("render_objects", e.registry.Names()),
		zap.Duration("tick_interval", e.tickRate),
		zap.Int("workers", e.workers),
	)
	return e, nil
}

func (e *engine) SetCamera(c camera.Camera) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera = c
}

func (e *engine) Camera() camera.Camera {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.camera
}

func (e *engine) AddBehaviour(b behaviour.Behaviour) {
	if e.behaviours == nil {
		panic("engine: AddBehaviour called before the simulation goroutine was started")
	}
	if e.ctx.Err() != nil {
		e.logger.Warn("behaviour dropped: engine stopped")
		return
	}

	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	// Once anything overflows, later submissions queue behind it to keep registration order.
	if len(e.pending) == 0 {
		select {
		case e.behaviours <- b:
			e.logger.Debug("behaviour queued", zap.Int("pending", len(e.behaviours)))
			return
		default:
		}
	}
	e.pending = append(e.pending, b)
	e.logger.Debug("behaviour queued", zap.Int("pending", len(e.behaviours)+len(e.pending)))
}

// drainBehaviours appends every submitted behaviour to dst without waiting for more.
func (e *engine) drainBehaviours(dst []behaviour.Behaviour) []behaviour.Behaviour {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	for {
		select {
		case b := <-e.behaviours:
			dst = append(dst, b)
		default:
			dst = append(dst, e.pending...)
			clear(e.pending)
			e.pending = e.pending[:0]
			return dst
		}
	}
}

func (e *engine) AttachRenderObject(t *transform.Handle, name string) error {
	return e.registry.Attach(name, t)
}

func (e *engine) RegisterRenderObject(obj render_object.RenderObject) error {
	return e.registry.Register(obj)
}

func (e *engine) Registry() render_object.Registry {
	return e.registry
}

func (e *engine) Keyboard() *input.Keyboard {
	return e.keyboard
}

func (e *engine) TickRate() float64 {
	return e.simProfiler.Rate()
}

func (e *engine) FrameRate() float64 {
	return e.renderProfiler.Rate()
}

// SetTickRate sends the new interval to the simulation goroutine.
// Non-blocking: a pending, not yet applied change is replaced.
func (e *engine) SetTickRate(tps float64) {
	var newRate time.Duration
	if tps > 0 {
		newRate = time.Duration(float64(time.Second) / tps)
	}

	select {
	case e.tickRateChannel <- newRate:
	default:
		// Channel has a pending update, drain and send new value
		select {
		case <-e.tickRateChannel:
		default:
		}
		select {
		case e.tickRateChannel <- newRate:
		default:
		}
	}
}

// Quit signals the render loop to stop and cancels the simulation goroutine without waiting for it.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		e.cancel()
	})
}

func (e *engine) Close() error {
	e.Quit()
	return e.shutdown()
}

func (e *engine) Run() (err error) {
	if e.ctx.Err() != nil {
		_ = e.shutdown()
		return ErrEngineStopped
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrEngineRunning
	}
	defer e.running.Store(false)
	defer func() {
		if shutdownErr := e.shutdown(); err == nil {
			err = shutdownErr
		}
	}()

	cam := e.Camera()
	if cam == nil {
		panic("engine: Run called without a camera; call SetCamera first")
	}

	e.registry.Freeze()
	objects := e.registry.RenderObjects()
	e.builders = make([]instance.Builder, len(objects))
	e.buffers = make([]instance.Buffer, len(objects))

	return e.render(objects)
}

// shutdown cancels the simulation goroutine and waits for it to return. Runs once.
func (e *engine) shutdown() error {
	var err error
	e.shutdownOnce.Do(func() {
		e.cancel()
		err = e.group.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if e.pool != nil {
			e.pool.Stop()
		}
		e.logger.Info("engine stopped",
			zap.Float64("tick_rate", e.simProfiler.Rate()),
			zap.Float64("frame_rate", e.renderProfiler.Rate()),
		)
	})
	return err
}
