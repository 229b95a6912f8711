package game

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// advanceEps absorbs float drift when frame deltas equal the tick length.
const advanceEps = 1e-9

// Simulation is anything that can be advanced in time and drawn.
type Simulation interface {
	Advance(dt float64) error
	Render(t renderer.Target)
}

// PhaseTimer receives the boundaries of each tick phase.
type PhaseTimer interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

// Flock owns the particle store, the spatial grid and the worker pool, and
// advances all agents one tick at a time.
//
// A tick is four barrier-separated phases: grid rebuild (single goroutine),
// steering (parallel over all agents, writing only into a back buffer of
// velocities), border resolution (parallel over the border set only) and
// integration (parallel over all agents).
type Flock struct {
	space     components.Space
	particles *components.Particles
	grid      *systems.SpatialGrid
	rules     systems.Rules
	border    systems.BorderMode
	truncate  bool
	sched     *Scheduler

	// Per-tick buffers
	next          []r2.Vec // steering output, swapped with the live velocities
	scratch       [][]int  // neighbor buffers, one per worker
	borderMembers []int

	// Rendering
	drawGrid  bool
	gridColor color.RGBA

	// Fixed-step accumulator for Advance
	dt       float64
	maxSteps int
	accum    float64

	timer PhaseTimer
	tick  int32
}

var _ Simulation = (*Flock)(nil)

// NewFlock builds a flock from cfg. Agents are placed by src; a nil src
// places every agent at the world origin at rest.
func NewFlock(cfg *config.Config, src RandomSource) (*Flock, error) {
	if cfg == nil {
		return nil, errors.New("flock: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("flock: %w", err)
	}

	w := cfg.World
	space := components.NewSpace(w.Left, w.Top, w.Width, w.Height)
	grid, err := systems.NewSpatialGrid(space, w.CellSize)
	if err != nil {
		return nil, fmt.Errorf("flock: %w", err)
	}

	border, _ := systems.ParseBorderMode(cfg.Flock.Border)
	sched := NewScheduler(cfg.Parallel.Workers, cfg.Parallel.Threshold)

	n := cfg.Flock.Count
	particles := components.NewParticles(n)
	spawn(particles, space, cfg.Spawn, cfg.Flock.MaxSpeed, src)

	gc := cfg.Render.GridColor
	maxSteps := max(cfg.Physics.MaxStepsPerAdvance, 1)

	return &Flock{
		space:     space,
		particles: particles,
		grid:      grid,
		rules: systems.Rules{
			SeparationRadius: cfg.Flock.SeparationRadius,
			AlignmentRadius:  cfg.Flock.AlignmentRadius,
			CohesionRadius:   cfg.Flock.CohesionRadius,
			MaxSpeed:         cfg.Flock.MaxSpeed,
		},
		border:    border,
		truncate:  cfg.Flock.IntegerPositions,
		sched:     sched,
		next:      make([]r2.Vec, n),
		scratch:   make([][]int, sched.Workers()),
		drawGrid:  cfg.Render.DrawGrid,
		gridColor: color.RGBA{R: gc[0], G: gc[1], B: gc[2], A: gc[3]},
		dt:        cfg.Physics.DT,
		maxSteps:  maxSteps,
	}, nil
}

// SetTimer installs a phase timer. nil disables timing.
func (f *Flock) SetTimer(t PhaseTimer) {
	f.timer = t
}

// Step runs exactly one tick. A failing worker aborts the tick and the
// error is returned; the flock should not be stepped again afterwards.
func (f *Flock) Step() error {
	n := f.particles.Len()
	f.startTick()

	// 1. Grid snapshot, single goroutine
	f.startPhase(telemetry.PhaseGridRebuild)
	f.grid.Rebuild(f.particles)

	// 2. Steering into the back buffer; live velocities stay read-only
	f.startPhase(telemetry.PhaseForceVelocity)
	if err := f.sched.Run(telemetry.PhaseForceVelocity, n, f.steerRange); err != nil {
		return fmt.Errorf("tick %d: %w", f.tick, err)
	}
	f.next = f.particles.SwapVelocities(f.next)

	// 3. Border resolution over the border set only
	f.startPhase(telemetry.PhaseBorder)
	f.borderMembers = f.grid.BorderMembersInto(f.borderMembers[:0])
	if err := f.sched.Run(telemetry.PhaseBorder, len(f.borderMembers), f.borderRange); err != nil {
		return fmt.Errorf("tick %d: %w", f.tick, err)
	}

	// 4. Positions and colors
	f.startPhase(telemetry.PhaseIntegrate)
	if err := f.sched.Run(telemetry.PhaseIntegrate, n, f.integrateRange); err != nil {
		return fmt.Errorf("tick %d: %w", f.tick, err)
	}

	f.endTick()
	f.tick++
	return nil
}

func (f *Flock) steerRange(worker, begin, end int) {
	buf := f.scratch[worker]
	for i := begin; i < end; i++ {
		buf = f.grid.NeighborsInto(buf[:0], i)
		f.next[i] = f.rules.Steer(f.particles, i, buf)
	}
	f.scratch[worker] = buf
}

func (f *Flock) borderRange(_, begin, end int) {
	for _, i := range f.borderMembers[begin:end] {
		systems.ResolveBorder(f.border, f.space, f.particles, i)
	}
}

func (f *Flock) integrateRange(_, begin, end int) {
	for i := begin; i < end; i++ {
		systems.Integrate(f.particles, i, f.rules.MaxSpeed, f.truncate)
	}
}

// Advance accumulates dt and runs as many whole ticks as fit, at most
// max_steps_per_advance per call. Time beyond that cap is dropped.
func (f *Flock) Advance(dt float64) error {
	if dt <= 0 {
		return nil
	}
	f.accum += dt

	for steps := 0; f.accum+advanceEps >= f.dt; steps++ {
		if steps == f.maxSteps {
			f.accum = 0
			break
		}
		if err := f.Step(); err != nil {
			return err
		}
		f.accum -= f.dt
	}
	if f.accum < 0 {
		f.accum = 0
	}
	return nil
}

// Render draws the grid lines (if enabled) and one point per agent.
func (f *Flock) Render(t renderer.Target) {
	if f.drawGrid {
		f.renderGrid(t)
	}
	for i := 0; i < f.particles.Len(); i++ {
		pos := f.particles.Position(i)
		t.SetDrawColor(f.particles.Color(i))
		t.DrawPoint(pos.X, pos.Y)
	}
}

// renderGrid draws cols+1 vertical and rows+1 horizontal lines.
func (f *Flock) renderGrid(t renderer.Target) {
	cell := f.grid.CellSize()
	cols, rows := f.grid.Cols(), f.grid.Rows()
	left, top := f.space.Left(), f.space.Top()
	right := left + float64(cols)*cell
	bottom := top + float64(rows)*cell

	t.SetDrawColor(f.gridColor)
	for c := 0; c <= cols; c++ {
		x := left + float64(c)*cell
		t.DrawLine(x, top, x, bottom)
	}
	for r := 0; r <= rows; r++ {
		y := top + float64(r)*cell
		t.DrawLine(left, y, right, y)
	}
}

// Restore replaces the agents and tick counter with the snapshot's. The
// snapshot must have been taken in a world with the same rectangle.
func (f *Flock) Restore(s *telemetry.Snapshot) error {
	if s.WorldLeft != f.space.Left() || s.WorldTop != f.space.Top() ||
		s.WorldWidth != f.space.Width() || s.WorldHeight != f.space.Height() {
		return fmt.Errorf("restore: snapshot world %gx%g at (%g, %g) does not match %gx%g at (%g, %g)",
			s.WorldWidth, s.WorldHeight, s.WorldLeft, s.WorldTop,
			f.space.Width(), f.space.Height(), f.space.Left(), f.space.Top())
	}

	s.RestoreAgents(f.particles)
	n := f.particles.Len()
	if len(f.next) != n {
		f.next = make([]r2.Vec, n)
	}
	for i := 0; i < n; i++ {
		f.particles.SetColor(i, systems.VelocityColor(f.particles.Velocity(i), f.rules.MaxSpeed))
	}
	f.grid.Rebuild(f.particles)
	f.borderMembers = f.grid.BorderMembersInto(f.borderMembers[:0])
	f.tick = s.Tick
	f.accum = 0
	return nil
}

// Snapshot captures the current agents and tick.
func (f *Flock) Snapshot(seed int64, bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	return &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     seed,
		WorldLeft:   f.space.Left(),
		WorldTop:    f.space.Top(),
		WorldWidth:  f.space.Width(),
		WorldHeight: f.space.Height(),
		Border:      f.border.String(),
		Tick:        f.tick,
		Agents:      telemetry.CaptureAgents(f.particles),
		Bookmark:    bookmark,
	}
}

// SetDrawGrid toggles grid line rendering.
func (f *Flock) SetDrawGrid(on bool) { f.drawGrid = on }

// DrawGrid reports whether grid lines are rendered.
func (f *Flock) DrawGrid() bool { return f.drawGrid }

// Tick returns the number of completed ticks.
func (f *Flock) Tick() int32 { return f.tick }

// Len returns the number of agents.
func (f *Flock) Len() int { return f.particles.Len() }

// Particles returns the particle store. Callers must not hold on to it
// across a Step running on another goroutine.
func (f *Flock) Particles() *components.Particles { return f.particles }

// Grid returns the grid as rebuilt by the last tick.
func (f *Flock) Grid() *systems.SpatialGrid { return f.grid }

// Space returns the bounding rectangle.
func (f *Flock) Space() components.Space { return f.space }

// Rules returns the steering parameters.
func (f *Flock) Rules() systems.Rules { return f.rules }

// Border returns the border mode.
func (f *Flock) Border() systems.BorderMode { return f.border }

// BorderCount returns the size of the border set of the last tick.
func (f *Flock) BorderCount() int { return len(f.borderMembers) }

// Workers returns the scheduler's worker count.
func (f *Flock) Workers() int { return f.sched.Workers() }

// Close stops the worker pool.
func (f *Flock) Close() {
	f.sched.Stop()
}

func (f *Flock) startTick() {
	if f.timer != nil {
		f.timer.StartTick()
	}
}

func (f *Flock) startPhase(phase string) {
	if f.timer != nil {
		f.timer.StartPhase(phase)
	}
}

func (f *Flock) endTick() {
	if f.timer != nil {
		f.timer.EndTick()
	}
}
