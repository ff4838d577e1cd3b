package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/Carmen-Shannon/oxen-go/engine/behaviour"
	"github.com/Carmen-Shannon/oxen-go/engine/camera"
	"github.com/Carmen-Shannon/oxen-go/engine/instance"
	"github.com/Carmen-Shannon/oxen-go/engine/model"
	"github.com/Carmen-Shannon/oxen-go/engine/render_object"
	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"github.com/Carmen-Shannon/oxen-go/engine/surface/surfacetest"
	"github.com/Carmen-Shannon/oxen-go/engine/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testDeadline = 5 * time.Second

func newTestEngine(t *testing.T, s *surfacetest.Surface, options ...EngineBuilderOption) Engine {
	t.Helper()
	e, err := NewEngine(s, &surfacetest.Factory{}, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	e.SetCamera(camera.NewCamera(transform.NewHandle(transform.New(transform.WithPosition(0, 0, 2)))))
	return e
}

// closeWhen queues a close event after the first presented frame for which cond returns true,
// or once the test deadline has passed.
func closeWhen(s *surfacetest.Surface, cond func(n int) bool) {
	deadline := time.Now().Add(testDeadline)
	var closed atomic.Bool
	s.OnFrame = func(n int) {
		if closed.Load() {
			return
		}
		if cond(n) || time.Now().After(deadline) {
			closed.Store(true)
			s.Push(surface.Event{Kind: surface.EventClosed})
		}
	}
}

func drawFor(t *testing.T, frame surfacetest.FrameRecord, name string) surfacetest.Draw {
	t.Helper()
	for _, d := range frame.Draws {
		if d.Mesh.Label() == name {
			return d
		}
	}
	require.Failf(t, "missing draw", "no draw for %q", name)
	return surfacetest.Draw{}
}

// =============================================================================
// Construction
// =============================================================================

func TestNewEngine_RegistersBuiltins(t *testing.T) {
	f := &surfacetest.Factory{}
	e, err := NewEngine(surfacetest.NewSurface(640, 480), f)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, []string{model.CubeName, model.SquareName}, e.Registry().Names())
	assert.Len(t, f.Meshes, 2)
	assert.Len(t, f.Programs, 2)
	assert.Nil(t, e.Camera())
	assert.NotNil(t, e.Keyboard())
}

func TestNewEngine_NilSurface(t *testing.T) {
	_, err := NewEngine(nil, &surfacetest.Factory{})
	assert.ErrorIs(t, err, ErrNilSurface)
}

func TestNewEngine_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewEngine(surfacetest.NewSurface(640, 480), &surfacetest.Factory{Err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestNewEngine_RenderObjectOptions(t *testing.T) {
	extra := render_object.NewRenderObject("extra", &surfacetest.Mesh{Name: "extra"}, surfacetest.NewProgram("extra", instance.LayoutModelMatrix))

	e, err := NewEngine(surfacetest.NewSurface(640, 480), &surfacetest.Factory{},
		WithBuiltinModels(false),
		WithRenderObject(extra),
	)
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, []string{"extra"}, e.Registry().Names())

	dup := render_object.NewRenderObject(model.SquareName, &surfacetest.Mesh{}, surfacetest.NewProgram("", instance.LayoutModelMatrix))
	_, err = NewEngine(surfacetest.NewSurface(640, 480), &surfacetest.Factory{}, WithRenderObject(dup))
	assert.ErrorIs(t, err, render_object.ErrDuplicateRenderObject)
}

func TestAttachRenderObject_Unknown(t *testing.T) {
	e := newTestEngine(t, surfacetest.NewSurface(640, 480))

	err := e.AttachRenderObject(transform.NewHandle(transform.New()), "triangle")
	assert.ErrorIs(t, err, render_object.ErrUnknownRenderObject)

	for _, obj := range e.Registry().RenderObjects() {
		assert.Equal(t, 0, obj.InstanceCount(), obj.Name())
	}
}

// =============================================================================
// Run
// =============================================================================

func TestRun_SnapshotsVisibleInstances(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			s := surfacetest.NewSurface(800, 600)
			e := newTestEngine(t, s, WithWorkers(workers), WithClearColor(surface.Color{R: 0.5, A: 1}))

			positions := [][3]float32{{1, 2, 3}, {-1, 0, 0}, {0, 4, -2}}
			for i, p := range positions {
				h := transform.NewHandle(transform.New(
					transform.WithPosition(p[0], p[1], p[2]),
					transform.WithUniformScale(float32(i+1)),
				))
				require.NoError(t, e.AttachRenderObject(h, model.SquareName))
			}
			hidden := transform.NewHandle(transform.New(transform.WithVisible(false)))
			require.NoError(t, e.AttachRenderObject(hidden, model.SquareName))

			closeWhen(s, func(n int) bool { return n >= 1 })
			require.NoError(t, e.Run())

			frames := s.Frames()
			require.NotEmpty(t, frames)
			assert.Equal(t, surface.Color{R: 0.5, A: 1}, frames[0].Clear)

			square := drawFor(t, frames[0], model.SquareName)
			assert.Equal(t, instance.LayoutPositionScale, square.Instances.Layout)
			require.Equal(t, 3, square.Instances.Count)
			for i, p := range positions {
				sc := float32(i + 1)
				assert.Equal(t, []float32{p[0], p[1], p[2], sc, sc, sc}, square.Instances.Record(i))
			}

			cube := drawFor(t, frames[0], model.CubeName)
			assert.Equal(t, 0, cube.Instances.Count)

			vp, err := e.Camera().ViewProjectionMatrix(800.0 / 600.0)
			require.NoError(t, err)
			assert.Equal(t, common.DepthZeroToOne.Mul4(vp), square.Uniforms.ViewProjection)
		})
	}
}

func TestRun_BehaviourBecomesVisible(t *testing.T) {
	s := surfacetest.NewSurface(640, 480)
	e := newTestEngine(t, s)

	h := transform.NewHandle(transform.New(transform.WithVisible(false)))
	require.NoError(t, e.AttachRenderObject(h, model.CubeName))

	e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) {
		h.SetVisible(true)
	}))

	closeWhen(s, func(int) bool {
		frames := s.Frames()
		return drawFor(t, frames[len(frames)-1], model.CubeName).Instances.Count == 1
	})
	require.NoError(t, e.Run())

	frames := s.Frames()
	last := drawFor(t, frames[len(frames)-1], model.CubeName)
	require.Equal(t, 1, last.Instances.Count)
	assert.Equal(t, h.ModelMatrix(), last.Instances.ModelMatrix(0))
}

func TestRun_KeyEventsReachBehaviours(t *testing.T) {
	s := surfacetest.NewSurface(640, 480)
	e := newTestEngine(t, s)

	var sawW atomic.Bool
	e.AddBehaviour(behaviour.Func(func(keyPressed behaviour.KeyQuery) {
		if keyPressed(common.KeyW) {
			sawW.Store(true)
		}
	}))

	s.Push(surface.Event{Kind: surface.EventKeyPressed, Key: common.KeyW})
	closeWhen(s, func(int) bool { return sawW.Load() })
	require.NoError(t, e.Run())

	assert.True(t, sawW.Load())
	assert.True(t, e.Keyboard().Pressed(common.KeyW))
}

func TestRun_CloseJoinsSimulation(t *testing.T) {
	s := surfacetest.NewSurface(640, 480)
	e := newTestEngine(t, s, WithTickRate(500))

	var ticks atomic.Int64
	e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) {
		ticks.Add(1)
	}))

	closeWhen(s, func(int) bool { return ticks.Load() >= 3 })
	require.NoError(t, e.Run())

	stopped := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load(), "simulation kept ticking after Run returned")

	assert.NotPanics(t, func() {
		e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) {}))
	})
	assert.ErrorIs(t, e.Run(), ErrEngineStopped)

	extra := render_object.NewRenderObject("late", &surfacetest.Mesh{}, surfacetest.NewProgram("late", instance.LayoutModelMatrix))
	assert.ErrorIs(t, e.RegisterRenderObject(extra), render_object.ErrRegistryFrozen)
}

func TestRun_Quit(t *testing.T) {
	s := surfacetest.NewSurface(640, 480)
	e := newTestEngine(t, s)

	s.OnFrame = func(n int) {
		if n == 3 {
			e.Quit()
			e.Quit()
		}
	}
	require.NoError(t, e.Run())
	assert.Len(t, s.Frames(), 3)
}

func TestRun_MissingCameraPanics(t *testing.T) {
	e, err := NewEngine(surfacetest.NewSurface(640, 480), &surfacetest.Factory{})
	require.NoError(t, err)

	assert.Panics(t, func() { _ = e.Run() })
	assert.ErrorIs(t, e.Run(), ErrEngineStopped)
}

func TestRun_ZeroSizeSkipsDrawing(t *testing.T) {
	s := surfacetest.NewSurface(0, 0)
	e := newTestEngine(t, s)

	s.Push(
		surface.Event{Kind: surface.EventKeyPressed, Key: common.KeySpace},
		surface.Event{Kind: surface.EventClosed},
	)
	require.NoError(t, e.Run())

	assert.Empty(t, s.Frames())
	assert.True(t, e.Keyboard().Pressed(common.KeySpace))
}

func TestRun_FrameErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := surfacetest.NewSurface(640, 480)
	s.BeginErr = errors.New("surface lost")
	e := newTestEngine(t, s, WithLogger(zap.New(core)))

	s.Push(surface.Event{Kind: surface.EventClosed})
	require.NoError(t, e.Run())

	assert.Equal(t, 1, logs.FilterMessage("begin frame").Len())
	assert.Equal(t, 1, logs.FilterMessage("engine stopped").Len())
}

func TestSetTickRate_DoesNotBlock(t *testing.T) {
	s := surfacetest.NewSurface(640, 480)
	e := newTestEngine(t, s)

	var ticks atomic.Int64
	e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) {
		ticks.Add(1)
	}))

	done := make(chan struct{})
	go func() {
		e.SetTickRate(1000)
		e.SetTickRate(200)
		e.SetTickRate(0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SetTickRate blocked")
	}

	closeWhen(s, func(int) bool { return ticks.Load() >= 5 })
	require.NoError(t, e.Run())
	assert.GreaterOrEqual(t, ticks.Load(), int64(5))
}

func TestAddBehaviour_WithoutChannelPanics(t *testing.T) {
	e := &engine{logger: zap.NewNop()}
	assert.Panics(t, func() {
		e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) {}))
	})
}

func TestAddBehaviour_FromUpdateBeyondQueueSize(t *testing.T) {
	s := surfacetest.NewSurface(640, 480)
	e := newTestEngine(t, s, WithBehaviourQueueSize(1))

	var ticks, spawnedRuns atomic.Int64
	var spawned atomic.Bool
	e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) {
		ticks.Add(1)
		if spawned.CompareAndSwap(false, true) {
			for range 3 {
				e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) {
					spawnedRuns.Add(1)
				}))
			}
		}
	}))

	closeWhen(s, func(int) bool { return ticks.Load() >= 10 && spawnedRuns.Load() >= 3 })
	require.NoError(t, e.Run())

	assert.GreaterOrEqual(t, ticks.Load(), int64(10), "simulation stopped ticking")
	assert.GreaterOrEqual(t, spawnedRuns.Load(), int64(3), "submitted behaviours never ran")
}

func TestAddBehaviour_OverflowKeepsOrder(t *testing.T) {
	e := &engine{
		logger:     zap.NewNop(),
		behaviours: make(chan behaviour.Behaviour, 2),
		ctx:        context.Background(),
	}

	var order []int
	for i := range 5 {
		e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) { order = append(order, i) }))
	}
	drained := e.drainBehaviours(nil)
	require.Len(t, drained, 5)
	for _, b := range drained {
		b.Update(nil)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Empty(t, e.drainBehaviours(nil))
}

// =============================================================================
// Shutdown without Run
// =============================================================================

func TestClose_StopsSimulationWithoutRun(t *testing.T) {
	e, err := NewEngine(surfacetest.NewSurface(640, 480), &surfacetest.Factory{})
	require.NoError(t, err)

	var ticks atomic.Int64
	e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) {
		ticks.Add(1)
	}))
	require.Eventually(t, func() bool { return ticks.Load() > 0 }, testDeadline, time.Millisecond)

	require.NoError(t, e.Close())
	stopped := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load(), "simulation kept ticking after Close")

	assert.NoError(t, e.Close())
	assert.ErrorIs(t, e.Run(), ErrEngineStopped)
}

func TestQuit_WithoutRunStopsSimulation(t *testing.T) {
	e, err := NewEngine(surfacetest.NewSurface(640, 480), &surfacetest.Factory{})
	require.NoError(t, err)

	var ticks atomic.Int64
	e.AddBehaviour(behaviour.Func(func(behaviour.KeyQuery) {
		ticks.Add(1)
	}))
	require.Eventually(t, func() bool { return ticks.Load() > 0 }, testDeadline, time.Millisecond)

	e.Quit()
	// Run on a stopped engine joins the simulation goroutine before returning.
	assert.ErrorIs(t, e.Run(), ErrEngineStopped)
	stopped := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load(), "simulation kept ticking after Quit")
}

func TestRun_FocusLostReleasesKeys(t *testing.T) {
	s := surfacetest.NewSurface(640, 480)
	e := newTestEngine(t, s)

	s.Push(
		surface.Event{Kind: surface.EventKeyPressed, Key: common.KeyW},
		surface.Event{Kind: surface.EventKeyPressed, Key: common.KeyA},
		surface.Event{Kind: surface.EventFocusLost},
		surface.Event{Kind: surface.EventClosed},
	)
	require.NoError(t, e.Run())

	assert.False(t, e.Keyboard().Pressed(common.KeyW))
	assert.False(t, e.Keyboard().Pressed(common.KeyA))
}
