// Package config loads the YAML engine configuration and turns it into constructor options.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/Carmen-Shannon/oxen-go/engine"
	"github.com/Carmen-Shannon/oxen-go/engine/renderer"
	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"github.com/Carmen-Shannon/oxen-go/engine/window"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the root of an engine configuration file.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Engine   EngineConfig   `yaml:"engine"`
	Renderer RendererConfig `yaml:"renderer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig is the window section.
type WindowConfig struct {
	Title         string `yaml:"title"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	CloseOnEscape bool   `yaml:"close_on_escape"`
}

// EngineConfig is the engine section: loop rates, queue and pool sizes, and the clear color.
type EngineConfig struct {
	// TickRate is the simulation rate in ticks per second; 0 runs free.
	TickRate float64 `yaml:"tick_rate"`
	// FrameLimit caps the render loop in frames per second; 0 leaves pacing to the present mode.
	FrameLimit     float64    `yaml:"frame_limit"`
	Profiling      bool       `yaml:"profiling"`
	BehaviourQueue int        `yaml:"behaviour_queue"`
	ClearColor     [4]float64 `yaml:"clear_color"`
	Workers        int        `yaml:"workers"`
	BuiltinModels  bool       `yaml:"builtin_models"`
}

// RendererConfig is the renderer section.
type RendererConfig struct {
	// PresentMode is "vsync" or "immediate".
	PresentMode string `yaml:"present_mode"`
	Software    bool   `yaml:"software"`
}

// LoggingConfig is the logging section, consumed by NewLogger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used for any field a file leaves out.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:         "Oxen",
			Width:         1280,
			Height:        720,
			CloseOnEscape: true,
		},
		Engine: EngineConfig{
			BehaviourQueue: engine.DefaultBehaviourQueueSize,
			ClearColor:     [4]float64{1, 1, 1, 1},
			Workers:        engine.DefaultWorkers(),
			BuiltinModels:  true,
		},
		Renderer: RendererConfig{
			PresentMode: "vsync",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load decodes YAML from r over Default and validates the result.
//
// Parameters:
//   - r: the YAML document
//
// Returns:
//   - Config: the merged configuration
//   - error: a decode error, or ErrInvalidConfig
func Load(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Engine.TickRate < 0 || !isFinite(c.Engine.TickRate):
		return fmt.Errorf("%w: tick_rate %v", ErrInvalidConfig, c.Engine.TickRate)
	case c.Engine.FrameLimit < 0 || !isFinite(c.Engine.FrameLimit):
		return fmt.Errorf("%w: frame_limit %v", ErrInvalidConfig, c.Engine.FrameLimit)
	case c.Engine.BehaviourQueue < 0:
		return fmt.Errorf("%w: behaviour_queue %d", ErrInvalidConfig, c.Engine.BehaviourQueue)
	case c.Engine.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Engine.Workers)
	}
	for _, v := range c.Engine.ClearColor {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: clear_color %v", ErrInvalidConfig, c.Engine.ClearColor)
		}
	}
	if _, ok := renderer.ParsePresentMode(c.Renderer.PresentMode); !ok {
		return fmt.Errorf("%w: present_mode %q", ErrInvalidConfig, c.Renderer.PresentMode)
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// EngineOptions translates the engine section into engine options.
func (c Config) EngineOptions() []engine.EngineBuilderOption {
	cc := c.Engine.ClearColor
	return []engine.EngineBuilderOption{
		engine.WithTickRate(c.Engine.TickRate),
		engine.WithRenderFrameLimit(c.Engine.FrameLimit),
		engine.WithProfiling(c.Engine.Profiling),
		engine.WithBehaviourQueueSize(c.Engine.BehaviourQueue),
		engine.WithClearColor(surface.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}),
		engine.WithWorkers(c.Engine.Workers),
		engine.WithBuiltinModels(c.Engine.BuiltinModels),
	}
}

// WindowOptions translates the window section into window options.
func (c Config) WindowOptions() []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(common.Coalesce(c.Window.Title, Default().Window.Title)),
		window.WithWidth(c.Window.Width),
		window.WithHeight(c.Window.Height),
		window.WithCloseOnEscape(c.Window.CloseOnEscape),
	}
}

// RendererOptions translates the renderer section into renderer options.
func (c Config) RendererOptions() []renderer.RendererBuilderOption {
	mode, _ := renderer.ParsePresentMode(c.Renderer.PresentMode)
	return []renderer.RendererBuilderOption{
		renderer.WithPresentMode(mode),
		renderer.WithForceSoftwareRenderer(c.Renderer.Software),
	}
}
