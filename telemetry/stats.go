// Package telemetry provides flock statistics, phase timing, bookmarks, snapshots and run output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flock/components"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Agents int `csv:"agents"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Polarization is |sum of unit headings| / N, 1 for a perfectly aligned flock.
	Polarization float64 `csv:"polarization"`

	// Grid occupancy at window end
	BorderCount   int `csv:"border_count"`
	OccupiedCells int `csv:"occupied_cells"`
	LargestBucket int `csv:"largest_bucket"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSpeedStats calculates population mean, std and percentiles.
// values is sorted in place.
func ComputeSpeedStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sort.Float64s(values)
	p10 = Percentile(values, 0.10)
	p50 = Percentile(values, 0.50)
	p90 = Percentile(values, 0.90)

	return mean, std, p10, p50, p90
}

// SampleSpeeds appends every agent's speed to dst.
func SampleSpeeds(dst []float64, p *components.Particles) []float64 {
	for i := 0; i < p.Len(); i++ {
		dst = append(dst, r2.Norm(p.Velocity(i)))
	}
	return dst
}

// Polarization returns the length of the mean unit heading. Agents at rest
// count toward N but contribute no heading.
func Polarization(p *components.Particles) float64 {
	n := p.Len()
	if n == 0 {
		return 0
	}
	var sum r2.Vec
	for i := 0; i < n; i++ {
		v := p.Velocity(i)
		if norm := r2.Norm(v); norm > 0 {
			sum = r2.Add(sum, r2.Scale(1/norm, v))
		}
	}
	return r2.Norm(sum) / float64(n)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("polarization", s.Polarization),
		slog.Int("border_count", s.BorderCount),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Int("largest_bucket", s.LargestBucket),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"speed_mean", s.SpeedMean,
		"speed_std", s.SpeedStd,
		"speed_p50", s.SpeedP50,
		"polarization", s.Polarization,
		"border_count", s.BorderCount,
		"occupied_cells", s.OccupiedCells,
		"largest_bucket", s.LargestBucket,
	)
}
