package telemetry

import "github.com/pthm-cable/flock/components"

// GridSample is the grid state recorded at a window flush.
type GridSample struct {
	BorderCount   int
	OccupiedCells int
	LargestBucket int
}

// Collector tracks stats windows and produces WindowStats.
type Collector struct {
	windowTicks int32
	dt          float64

	windowStartTick int32

	speeds []float64 // reused between flushes
}

// NewCollector creates a new stats collector.
// windowTicks: ticks per stats window
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowTicks int, dt float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: int32(windowTicks),
		dt:          dt,
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush samples p and grid into a WindowStats and starts the next window.
func (c *Collector) Flush(currentTick int32, p *components.Particles, grid GridSample) WindowStats {
	c.speeds = SampleSpeeds(c.speeds[:0], p)
	mean, std, p10, p50, p90 := ComputeSpeedStats(c.speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Agents: p.Len(),

		SpeedMean: mean,
		SpeedStd:  std,
		SpeedP10:  p10,
		SpeedP50:  p50,
		SpeedP90:  p90,

		Polarization: Polarization(p),

		BorderCount:   grid.BorderCount,
		OccupiedCells: grid.OccupiedCells,
		LargestBucket: grid.LargestBucket,
	}

	c.windowStartTick = currentTick
	return stats
}

// StartAt begins the current window at tick. Used after restoring a snapshot.
func (c *Collector) StartAt(tick int32) {
	c.windowStartTick = tick
}
