package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to a YAML or TOML config (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	terminal := flag.Bool("terminal", false, "Render to the terminal instead of a window")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	resume := flag.String("resume", "", "Snapshot file to resume from")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster runs)")
	workers := flag.Int("workers", -1, "Worker goroutines (-1 = use config, 0 = GOMAXPROCS)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *workers >= 0 {
		cfg.Parallel.Workers = *workers
		if err := cfg.Refresh(); err != nil {
			slog.Error("invalid workers flag", "error", err)
			os.Exit(1)
		}
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Build game options
	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindow:    *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		ResumePath:     *resume,
		Headless:       *headless || *terminal,
		StepsPerUpdate: *stepsPerUpdate,
	}

	switch {
	case *headless:
		os.Exit(runHeadless(opts, *maxTicks))
	case *terminal:
		os.Exit(runTerminal(opts, *maxTicks))
	default:
		os.Exit(runWindow(cfg, opts, *maxTicks))
	}
}

// runHeadless is a pure CPU simulation, no raylib needed.
func runHeadless(opts game.Options, maxTicks int) int {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}
	defer unload(g)

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for {
		if err := g.UpdateHeadless(); err != nil {
			slog.Error("tick failed", "error", err)
			return 1
		}

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return 0
		}
	}
}

func runTerminal(opts game.Options, maxTicks int) int {
	screen, err := tcell.NewScreen()
	if err != nil {
		slog.Error("failed to open terminal", "error", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		slog.Error("failed to init terminal", "error", err)
		return 1
	}

	// Log records would scribble over the screen.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		screen.Fini()
		slog.Error("failed to create simulation", "error", err)
		return 1
	}

	runErr := g.RunTerminal(screen, maxTicks)
	screen.Fini()
	unload(g)

	if runErr != nil {
		slog.Error("tick failed", "error", runErr)
		return 1
	}
	return 0
}

func runWindow(cfg *config.Config, opts game.Options, maxTicks int) int {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Flock")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}
	defer unload(g)

	for !rl.WindowShouldClose() {
		if err := g.Update(); err != nil {
			slog.Error("tick failed", "error", err)
			return 1
		}
		g.Draw()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
	}
	return 0
}

func unload(g *game.Game) {
	if err := g.Unload(); err != nil {
		slog.Error("failed to finalize output", "error", err)
	}
}
