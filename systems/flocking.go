package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
)

// Rules holds the steering parameters. The three radii are independent.
type Rules struct {
	SeparationRadius float64
	AlignmentRadius  float64
	CohesionRadius   float64
	MaxSpeed         float64
}

// Separation steers agent i away from neighbors closer than the separation
// radius. Each neighbor contributes its offset divided by its distance; the
// average is then normalized. Neighbors at distance 0 (including i) are skipped.
func (r Rules) Separation(p *components.Particles, i int, neighbors []int) r2.Vec {
	self := p.Position(i)
	var steer r2.Vec
	count := 0
	for _, j := range neighbors {
		diff := r2.Sub(self, p.Position(j))
		d := r2.Norm(diff)
		if d > 0 && d < r.SeparationRadius {
			steer = r2.Add(steer, r2.Scale(1/d, diff))
			count++
		}
	}
	if count == 0 {
		return r2.Vec{}
	}
	return unitOrZero(r2.Scale(1/float64(count), steer))
}

// Alignment steers agent i toward the mean velocity direction of neighbors
// within the alignment radius.
func (r Rules) Alignment(p *components.Particles, i int, neighbors []int) r2.Vec {
	self := p.Position(i)
	var sum r2.Vec
	count := 0
	for _, j := range neighbors {
		d := r2.Norm(r2.Sub(self, p.Position(j)))
		if d > 0 && d < r.AlignmentRadius {
			sum = r2.Add(sum, p.Velocity(j))
			count++
		}
	}
	if count == 0 {
		return r2.Vec{}
	}
	return unitOrZero(r2.Scale(1/float64(count), sum))
}

// Cohesion steers agent i toward the centroid of neighbors within the
// cohesion radius.
func (r Rules) Cohesion(p *components.Particles, i int, neighbors []int) r2.Vec {
	self := p.Position(i)
	var center r2.Vec
	count := 0
	for _, j := range neighbors {
		pos := p.Position(j)
		d := r2.Norm(r2.Sub(self, pos))
		if d > 0 && d < r.CohesionRadius {
			center = r2.Add(center, pos)
			count++
		}
	}
	if count == 0 {
		return r2.Vec{}
	}
	center = r2.Scale(1/float64(count), center)
	return unitOrZero(r2.Sub(center, self))
}

// Steer returns agent i's velocity after adding all three rule outputs and
// clamping to MaxSpeed. It only reads p.
func (r Rules) Steer(p *components.Particles, i int, neighbors []int) r2.Vec {
	v := p.Velocity(i)
	v = r2.Add(v, r.Separation(p, i, neighbors))
	v = r2.Add(v, r.Alignment(p, i, neighbors))
	v = r2.Add(v, r.Cohesion(p, i, neighbors))
	return ClampSpeed(v, r.MaxSpeed)
}

// ClampSpeed rescales v to exactly maxSpeed if it is faster, keeping its
// direction. Slower vectors are returned unchanged.
func ClampSpeed(v r2.Vec, maxSpeed float64) r2.Vec {
	speed := r2.Norm(v)
	if speed > maxSpeed && speed > 0 {
		return r2.Scale(maxSpeed/speed, v)
	}
	return v
}
