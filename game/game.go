package game

import (
	"errors"
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/ui"
)

// Options configures game initialization.
type Options struct {
	// Config overrides the global configuration. nil uses config.Cfg().
	Config *config.Config

	Seed           int64
	LogStats       bool
	StatsWindow    int    // ticks per stats window, 0 = use config
	SnapshotDir    string // where bookmark snapshots are written, "" = disabled
	OutputDir      string // CSV logs and config copy, "" = disabled
	ResumePath     string // snapshot to restore before the first tick
	Headless       bool   // no raylib window; Draw and Update must not be called
	StepsPerUpdate int

	// StatsCallback is called with each flushed window, if set.
	StatsCallback func(telemetry.WindowStats)
}

// Game wires a Flock to its telemetry and, unless headless, to a window.
type Game struct {
	cfg     *config.Config
	flock   *Flock
	rngSeed int64

	// State
	paused         bool
	stepOnce       bool
	stepsPerUpdate int
	headless       bool

	// Rendering (nil when headless)
	camera       *camera.Camera
	target       *renderer.RaylibTarget
	hud          *ui.HUD
	perfPanel    *ui.PerfPanel
	showPerf     bool
	screenWidth  float32
	screenHeight float32

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	snapshotDir      string
	statsCallback    func(telemetry.WindowStats)
}

// NewGameWithOptions creates a game. In windowed mode the raylib window
// must already be open.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	flock, err := NewFlock(cfg, NewRandomSource(opts.Seed))
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:            cfg,
		flock:          flock,
		rngSeed:        opts.Seed,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
		headless:       opts.Headless,
		logStats:       opts.LogStats,
		snapshotDir:    opts.SnapshotDir,
		statsCallback:  opts.StatsCallback,
	}

	if opts.ResumePath != "" {
		if err := g.resume(opts.ResumePath); err != nil {
			flock.Close()
			return nil, err
		}
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		statsWindow = opts.StatsWindow
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Physics.DT)
	g.collector.StartAt(flock.Tick())
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)
	flock.SetTimer(g.perfCollector)

	g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		flock.Close()
		return nil, fmt.Errorf("output: %w", err)
	}
	if g.outputManager != nil {
		if err := g.outputManager.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
	}

	if !g.headless {
		g.initRendering()
	}

	slog.Info("flock created",
		"agents", flock.Len(),
		"workers", flock.Workers(),
		"border", flock.Border().String(),
		"cols", flock.Grid().Cols(),
		"rows", flock.Grid().Rows(),
		"seed", opts.Seed,
		"tick", flock.Tick(),
	)

	return g, nil
}

// initRendering sets up the camera, draw target and HUD for the window.
func (g *Game) initRendering() {
	g.screenWidth = float32(rl.GetScreenWidth())
	g.screenHeight = float32(rl.GetScreenHeight())

	space := g.flock.Space()
	g.camera = camera.New(g.screenWidth, g.screenHeight,
		float32(space.Left()), float32(space.Top()), float32(space.Width()), float32(space.Height()))
	g.target = renderer.NewRaylibTarget(g.camera, g.cfg.Render.PointSize)
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-250, 20)
}

// resume restores the flock from a snapshot file.
func (g *Game) resume(path string) error {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	if err := g.flock.Restore(snap); err != nil {
		return fmt.Errorf("resume %s: %w", path, err)
	}
	g.rngSeed = snap.RNGSeed
	slog.Info("snapshot restored", "path", path, "tick", snap.Tick, "agents", len(snap.Agents))
	return nil
}

// Update handles input and advances the simulation by the frame time,
// scaled by the steps-per-update setting.
func (g *Game) Update() error {
	g.handleInput()

	switch {
	case g.stepOnce:
		g.stepOnce = false
		if err := g.step(); err != nil {
			return err
		}
	case g.paused:
		return nil
	default:
		dt := float64(rl.GetFrameTime()) * float64(g.stepsPerUpdate)
		if err := g.flock.Advance(dt); err != nil {
			return err
		}
		g.flushTelemetry()
	}
	return nil
}

// UpdateHeadless runs stepsPerUpdate ticks without any raylib calls.
func (g *Game) UpdateHeadless() error {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

// step runs one tick and flushes telemetry if a window closed.
func (g *Game) step() error {
	if err := g.flock.Step(); err != nil {
		return err
	}
	g.flushTelemetry()
	return nil
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.flock.Tick()
}

// Flock returns the underlying simulation.
func (g *Game) Flock() *Flock {
	return g.flock
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// Unload stops the workers and finalizes output files.
func (g *Game) Unload() error {
	g.logWorldState()
	g.flock.Close()

	if g.outputManager == nil {
		return nil
	}
	var errs []error
	if err := g.outputManager.WriteSummaryChart(); err != nil {
		errs = append(errs, fmt.Errorf("summary chart: %w", err))
	}
	if err := g.outputManager.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
