package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxen-go/engine/behaviour"
	"github.com/Carmen-Shannon/oxen-go/engine/render_object"
	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"go.uber.org/zap"
)

// simulate runs the simulation loop until ctx is cancelled.
// Each tick drains every queued behaviour without waiting for more, then updates all behaviours in
// registration order. With a tick rate the loop waits on a ticker, otherwise it yields and continues.
func (e *engine) simulate(ctx context.Context) error {
	var behaviours []behaviour.Behaviour
	keyPressed := behaviour.KeyQuery(e.keyboard.Pressed)

	var ticker *time.Ticker
	var tickC <-chan time.Time
	setRate := func(d time.Duration) {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
		if d > 0 {
			ticker = time.NewTicker(d)
			tickC = ticker.C
		}
		e.logger.Debug("simulation tick interval", zap.Duration("interval", d))
	}
	setRate(e.tickRate)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-e.tickRateChannel:
			setRate(d)
		default:
		}

		behaviours = e.drainBehaviours(behaviours)

		for _, b := range behaviours {
			b.Update(keyPressed)
		}
		e.simProfiler.Tick()

		if tickC == nil {
			runtime.Gosched()
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case d := <-e.tickRateChannel:
			setRate(d)
		case <-tickC:
		}
	}
}

// render runs frames until the surface reports a close or Quit is called.
// A frame draws every render object, presents, then applies the surface's pending events.
// A zero-sized surface skips drawing but still polls events.
func (e *engine) render(objects []render_object.RenderObject) error {
	for {
		select {
		case <-e.quitChannel:
			e.logger.Info("quit requested")
			return nil
		default:
		}

		frameStart := time.Now()
		if width, height := e.surface.Size(); width > 0 && height > 0 {
			e.drawFrame(objects, float32(width)/float32(height))
		}

		for _, ev := range e.surface.PollEvents() {
			switch ev.Kind {
			case surface.EventKeyPressed:
				e.keyboard.Press(ev.Key)
			case surface.EventKeyReleased:
				e.keyboard.Release(ev.Key)
			case surface.EventFocusLost:
				e.keyboard.Reset()
			case surface.EventClosed:
				e.logger.Info("surface closed")
				return nil
			}
		}

		e.renderProfiler.Tick()

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			elapsed := time.Since(frameStart)
			if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// drawFrame issues one draw per render object. Frame errors are logged and the frame is dropped.
func (e *engine) drawFrame(objects []render_object.RenderObject, aspect float32) {
	cam := e.Camera()
	if cam == nil {
		panic("engine: camera removed while running")
	}
	vp, err := cam.ViewProjectionMatrix(aspect)
	if err != nil {
		e.logger.Error("camera matrix", zap.Error(err))
		return
	}
	uniforms := surface.Uniforms{ViewProjection: e.clipTransform.Mul4(vp)}

	e.snapshot(objects)

	frame, err := e.surface.BeginFrame()
	if err != nil {
		e.logger.Error("begin frame", zap.Error(err))
		return
	}
	frame.Clear(e.clearColor)
	for i, obj := range objects {
		if err := frame.Draw(obj.Mesh(), obj.Program(), e.buffers[i], uniforms); err != nil {
			e.logger.Error("draw", zap.String("render_object", obj.Name()), zap.Error(err))
		}
	}
	if err := frame.Present(); err != nil {
		e.logger.Error("present", zap.Error(err))
	}
}

// snapshot builds every render object's instance buffer into e.buffers.
// With a worker pool the objects are built in parallel; each object has its own Builder,
// so tasks share no state. A WaitGroup provides the per-frame barrier since pool.Wait()
// blocks until workers idle-exit which is unsuitable for frame-rate workloads.
func (e *engine) snapshot(objects []render_object.RenderObject) {
	if e.pool == nil || len(objects) < 2 {
		for i, obj := range objects {
			e.buffers[i] = e.builders[i].Build(obj.Instances(), obj.Program().InstanceLayout())
		}
		return
	}

	var wg sync.WaitGroup
	for i, obj := range objects {
		wg.Add(1)
		e.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				e.buffers[i] = e.builders[i].Build(obj.Instances(), obj.Program().InstanceLayout())
				return nil, nil
			},
		})
	}
	wg.Wait()
}
