package game

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/telemetry"
)

func newHeadlessGame(t *testing.T, cfg *config.Config, opts Options) *Game {
	t.Helper()
	opts.Config = cfg
	opts.Headless = true
	g, err := NewGameWithOptions(opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	return g
}

func TestUpdateHeadlessRunsStepsPerUpdate(t *testing.T) {
	g := newHeadlessGame(t, testConfig(t, 50), Options{Seed: 1, StepsPerUpdate: 3})
	defer g.Unload()

	for i := 0; i < 4; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatalf("UpdateHeadless: %v", err)
		}
	}
	if g.Tick() != 12 {
		t.Errorf("tick = %d, want 12", g.Tick())
	}
}

func TestStatsCallbackPerWindow(t *testing.T) {
	var windows []telemetry.WindowStats
	g := newHeadlessGame(t, testConfig(t, 40), Options{
		Seed:          2,
		StatsWindow:   5,
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	defer g.Unload()

	for i := 0; i < 12; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatalf("UpdateHeadless: %v", err)
		}
	}

	if len(windows) != 2 {
		t.Fatalf("windows = %d, want 2", len(windows))
	}
	if windows[0].WindowEndTick != 5 || windows[1].WindowEndTick != 10 {
		t.Errorf("window ends = %d, %d, want 5, 10", windows[0].WindowEndTick, windows[1].WindowEndTick)
	}
	if windows[0].Agents != 40 {
		t.Errorf("agents = %d, want 40", windows[0].Agents)
	}
	if p := windows[1].Polarization; p < 0 || p > 1 {
		t.Errorf("polarization = %v, want within [0, 1]", p)
	}
}

func TestOutputDirIsPopulated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g := newHeadlessGame(t, testConfig(t, 30), Options{Seed: 3, StatsWindow: 2, OutputDir: dir})

	for i := 0; i < 6; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatalf("UpdateHeadless: %v", err)
		}
	}
	if err := g.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}

	for _, name := range []string{"config.yaml", "stats.csv", "perf.csv", "bookmarks.csv", "summary.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if name != "bookmarks.csv" && info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestSnapshotResume(t *testing.T) {
	cfg := testConfig(t, 25)
	dir := t.TempDir()

	g := newHeadlessGame(t, cfg, Options{Seed: 4, SnapshotDir: dir})
	for i := 0; i < 7; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatalf("UpdateHeadless: %v", err)
		}
	}
	g.saveSnapshot(nil)
	want := telemetry.CaptureAgents(g.Flock().Particles())
	g.Unload()

	path := filepath.Join(dir, "snapshot_7.json")
	resumed := newHeadlessGame(t, cfg, Options{Seed: 99, ResumePath: path})
	defer resumed.Unload()

	if resumed.Tick() != 7 {
		t.Errorf("resumed tick = %d, want 7", resumed.Tick())
	}
	if resumed.rngSeed != 4 {
		t.Errorf("resumed seed = %d, want 4", resumed.rngSeed)
	}
	got := telemetry.CaptureAgents(resumed.Flock().Particles())
	if len(got) != len(want) {
		t.Fatalf("agents = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("agent %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if err := resumed.UpdateHeadless(); err != nil {
		t.Errorf("UpdateHeadless after resume: %v", err)
	}
}

func TestResumeRejectsOtherWorld(t *testing.T) {
	cfg := testConfig(t, 5)
	dir := t.TempDir()

	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		WorldWidth:  500,
		WorldHeight: 500,
		Agents:      make([]telemetry.AgentState, 5),
	}
	path, err := telemetry.SaveSnapshot(snap, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	if _, err := NewGameWithOptions(Options{Config: cfg, Headless: true, ResumePath: path}); err == nil {
		t.Error("expected error resuming a snapshot from a different world")
	}
}

func TestTerminalEvents(t *testing.T) {
	g := newHeadlessGame(t, testConfig(t, 10), Options{Seed: 5, StepsPerUpdate: 2})
	defer g.Unload()

	tests := []struct {
		name     string
		ev       *tcell.EventKey
		wantRun  bool
		wantStep int
		check    func() bool
	}{
		{"pause", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), true, 2, func() bool { return g.paused }},
		{"step while paused", tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone), true, 2, func() bool { return g.stepOnce }},
		{"faster", tcell.NewEventKey(tcell.KeyRune, '.', tcell.ModNone), true, 3, nil},
		{"slower", tcell.NewEventKey(tcell.KeyRune, ',', tcell.ModNone), true, 2, nil},
		{"grid", tcell.NewEventKey(tcell.KeyRune, 'g', tcell.ModNone), true, 2, func() bool { return g.flock.DrawGrid() }},
		{"quit", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), false, 2, nil},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), false, 2, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.handleTerminalEvent(tc.ev); got != tc.wantRun {
				t.Errorf("handleTerminalEvent = %v, want %v", got, tc.wantRun)
			}
			if g.stepsPerUpdate != tc.wantStep {
				t.Errorf("stepsPerUpdate = %d, want %d", g.stepsPerUpdate, tc.wantStep)
			}
			if tc.check != nil && !tc.check() {
				t.Error("state not updated")
			}
		})
	}

	// A pending single step runs even while paused.
	if err := g.terminalUpdate(0); err != nil {
		t.Fatalf("terminalUpdate: %v", err)
	}
	if g.Tick() != 1 || g.stepOnce {
		t.Errorf("tick = %d stepOnce = %v, want 1 and false", g.Tick(), g.stepOnce)
	}
	if err := g.terminalUpdate(1); err != nil {
		t.Fatalf("terminalUpdate: %v", err)
	}
	if g.Tick() != 1 {
		t.Errorf("paused terminalUpdate advanced to tick %d", g.Tick())
	}
}

func TestRunTerminalStopsAtMaxTicks(t *testing.T) {
	g := newHeadlessGame(t, testConfig(t, 20), Options{Seed: 6})
	defer g.Unload()

	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(40, 20)

	done := make(chan error, 1)
	go func() { done <- g.RunTerminal(screen, 3) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunTerminal: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunTerminal did not stop")
	}
	if g.Tick() < 3 {
		t.Errorf("tick = %d, want >= 3", g.Tick())
	}
}

func TestRunTerminalQuitsOnKey(t *testing.T) {
	g := newHeadlessGame(t, testConfig(t, 20), Options{Seed: 7})
	defer g.Unload()

	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(40, 20)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	done := make(chan error, 1)
	go func() { done <- g.RunTerminal(screen, 0) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunTerminal: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunTerminal did not quit on q")
	}
}
