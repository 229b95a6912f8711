// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/flock/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen" toml:"screen"`
	World     WorldConfig     `yaml:"world" toml:"world"`
	Flock     FlockConfig     `yaml:"flock" toml:"flock"`
	Spawn     SpawnConfig     `yaml:"spawn" toml:"spawn"`
	Parallel  ParallelConfig  `yaml:"parallel" toml:"parallel"`
	Physics   PhysicsConfig   `yaml:"physics" toml:"physics"`
	Render    RenderConfig    `yaml:"render" toml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" toml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width" toml:"width"`
	Height    int `yaml:"height" toml:"height"`
	TargetFPS int `yaml:"target_fps" toml:"target_fps"`
}

// WorldConfig holds the bounding rectangle and grid cell size.
// The rectangle is fixed for the lifetime of a simulation.
type WorldConfig struct {
	Left     float64 `yaml:"left" toml:"left"`
	Top      float64 `yaml:"top" toml:"top"`
	Width    float64 `yaml:"width" toml:"width"`
	Height   float64 `yaml:"height" toml:"height"`
	CellSize float64 `yaml:"cell_size" toml:"cell_size"`
}

// FlockConfig holds population size and steering parameters.
type FlockConfig struct {
	Count            int     `yaml:"count" toml:"count"`
	SeparationRadius float64 `yaml:"separation_radius" toml:"separation_radius"`
	AlignmentRadius  float64 `yaml:"alignment_radius" toml:"alignment_radius"`
	CohesionRadius   float64 `yaml:"cohesion_radius" toml:"cohesion_radius"`
	MaxSpeed         float64 `yaml:"max_speed" toml:"max_speed"`
	Border           string  `yaml:"border" toml:"border"`                       // reflective | toroidal | reset
	IntegerPositions bool    `yaml:"integer_positions" toml:"integer_positions"` // truncate positions after each move
}

// SpawnConfig controls initial velocities. Positions are always uniform over the world.
type SpawnConfig struct {
	Velocity     string  `yaml:"velocity" toml:"velocity"` // zero | random | noise
	InitialSpeed float64 `yaml:"initial_speed" toml:"initial_speed"`
	NoiseScale   float64 `yaml:"noise_scale" toml:"noise_scale"`
	NoiseAlpha   float64 `yaml:"noise_alpha" toml:"noise_alpha"`
	NoiseBeta    float64 `yaml:"noise_beta" toml:"noise_beta"`
}

// ParallelConfig holds worker pool settings.
type ParallelConfig struct {
	Workers   int `yaml:"workers" toml:"workers"`     // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold" toml:"threshold"` // run phases inline below this many items
}

// PhysicsConfig holds the fixed timestep used by Advance.
type PhysicsConfig struct {
	DT                 float64 `yaml:"dt" toml:"dt"`
	MaxStepsPerAdvance int     `yaml:"max_steps_per_advance" toml:"max_steps_per_advance"`
}

// RenderConfig holds drawing options.
type RenderConfig struct {
	DrawGrid  bool     `yaml:"draw_grid" toml:"draw_grid"`
	GridColor [4]uint8 `yaml:"grid_color" toml:"grid_color"`
	PointSize float64  `yaml:"point_size" toml:"point_size"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window" toml:"stats_window"` // ticks per stats window
	PerfWindow  int `yaml:"perf_window" toml:"perf_window"`   // ticks in the rolling perf window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cols    int                // grid columns
	Rows    int                // grid rows
	Workers int                // effective worker count
	Border  systems.BorderMode // parsed border mode
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns the embedded default configuration.
func Defaults() (*Config, error) {
	return Load("")
}

// Load loads configuration from a YAML or TOML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing toml config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports the first configuration error that would make the
// simulation unusable. It does not modify the config.
func (c *Config) Validate() error {
	w := c.World
	switch {
	case c.Flock.Count <= 0:
		return fmt.Errorf("flock.count must be positive, got %d: %w", c.Flock.Count, ErrInvalidConfig)
	case w.CellSize <= 0:
		return fmt.Errorf("world.cell_size must be positive, got %g: %w", w.CellSize, ErrInvalidConfig)
	case w.Width <= 0 || w.Height <= 0:
		return fmt.Errorf("world size must be positive, got %gx%g: %w", w.Width, w.Height, ErrInvalidConfig)
	case int(w.Width/w.CellSize) == 0 || int(w.Height/w.CellSize) == 0:
		return fmt.Errorf("world %gx%g with cell size %g has no grid cells: %w",
			w.Width, w.Height, w.CellSize, ErrInvalidConfig)
	case c.Flock.SeparationRadius < 0 || c.Flock.AlignmentRadius < 0 || c.Flock.CohesionRadius < 0:
		return fmt.Errorf("flock radii must not be negative: %w", ErrInvalidConfig)
	case c.Flock.MaxSpeed <= 0:
		return fmt.Errorf("flock.max_speed must be positive, got %g: %w", c.Flock.MaxSpeed, ErrInvalidConfig)
	case c.Physics.DT <= 0:
		return fmt.Errorf("physics.dt must be positive, got %g: %w", c.Physics.DT, ErrInvalidConfig)
	case c.Parallel.Workers < 0:
		return fmt.Errorf("parallel.workers must not be negative: %w", ErrInvalidConfig)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cols = int(c.World.Width / c.World.CellSize)
	c.Derived.Rows = int(c.World.Height / c.World.CellSize)
	c.Derived.Workers = EffectiveWorkers(c.Parallel.Workers)

	mode, ok := systems.ParseBorderMode(c.Flock.Border)
	if !ok {
		slog.Warn("unknown border mode, using reflective", "border", c.Flock.Border)
	}
	c.Derived.Border = mode

	if c.Physics.MaxStepsPerAdvance < 1 {
		c.Physics.MaxStepsPerAdvance = 1
	}
	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 600
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 120
	}
}

// EffectiveWorkers resolves a requested worker count: 0 means GOMAXPROCS,
// and the result never exceeds the number of CPUs.
func EffectiveWorkers(requested int) int {
	n := requested
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if cpus := runtime.NumCPU(); n > cpus {
		n = cpus
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Refresh re-validates the config and recomputes derived values after
// fields were changed in code (tests, parameter search).
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
