package game

import (
	"log/slog"

	"github.com/pthm-cable/flock/telemetry"
)

// logWorldState logs a one-line summary of the flock.
func (g *Game) logWorldState() {
	p := g.flock.Particles()
	speeds := telemetry.SampleSpeeds(make([]float64, 0, p.Len()), p)
	mean, std, _, p50, _ := telemetry.ComputeSpeedStats(speeds)
	occupied, largest := g.flock.Grid().OccupancyStats()

	slog.Info("world_state",
		"tick", g.flock.Tick(),
		"agents", p.Len(),
		"polarization", telemetry.Polarization(p),
		"speed_mean", mean,
		"speed_std", std,
		"speed_p50", p50,
		"border_count", g.flock.BorderCount(),
		"occupied_cells", occupied,
		"largest_bucket", largest,
		"steps_per_update", g.stepsPerUpdate,
		"paused", g.paused,
	)
}
