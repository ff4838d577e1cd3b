package profiler

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Profiler counts events (simulation ticks or render frames) over a rolling one-second window and
// logs the measured rate each time the window closes. Tick must be called from a single goroutine;
// Rate may be read from any goroutine.
type Profiler struct {
	name           string
	logger         *zap.Logger
	verbose        atomic.Bool
	now            func() time.Time
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	rate           atomic.Uint64 // float64 bits of the last measured rate
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with a one-second window.
//
// Parameters:
//   - name: label logged with every measurement (e.g. "simulation", "render")
//   - logger: destination for measurements; nil discards them
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(name string, logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		name:           name,
		logger:         logger,
		now:            time.Now,
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetVerbose switches measurement logs from Debug to Info and adds heap and GC statistics.
//
// Parameters:
//   - verbose: true to log at Info with memory stats
func (p *Profiler) SetVerbose(verbose bool) {
	p.verbose.Store(verbose)
}

// Rate returns the events per second measured over the last completed window, or 0 before the first.
//
// Returns:
//   - float64: events per second
func (p *Profiler) Rate() float64 {
	return math.Float64frombits(p.rate.Load())
}

// Tick should be called once per event to track timing.
// Logs the rate when the update interval has elapsed.
//
// Returns:
//   - bool: true if a window closed and was logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	rate := float64(p.frameCount) / elapsed.Seconds()
	p.rate.Store(math.Float64bits(rate))

	if p.verbose.Load() {
		p.logger.Info("rate", append([]zap.Field{
			zap.String("loop", p.name),
			zap.Float64("per_second", rate),
		}, p.memFields(elapsed)...)...)
	} else {
		p.logger.Debug("rate",
			zap.String("loop", p.name),
			zap.Float64("per_second", rate),
		)
	}

	p.frameCount = 0
	p.lastTime = currentTime
	return true
}

// memFields reads runtime memory statistics: live heap, allocation rate, GC count and pauses, and process footprint.
func (p *Profiler) memFields(elapsed time.Duration) []zap.Field {
	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc

	return []zap.Field{
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc_count", gcCount),
		zap.Uint64("gc_last_pause_us", lastPauseUs),
		zap.Uint64("gc_max_pause_us", maxPauseUs),
		zap.Float64("sys_mb", sysMB),
	}
}
