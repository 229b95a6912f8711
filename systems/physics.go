package systems

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
)

// colorBlue is the fixed blue channel of every agent color.
const colorBlue = 160

// Integrate moves agent i by its velocity and refreshes its display color.
// With truncate set, the new position is truncated toward zero on both axes,
// which drifts agents slightly every tick.
func Integrate(p *components.Particles, i int, maxSpeed float64, truncate bool) {
	vel := p.Velocity(i)
	pos := r2.Add(p.Position(i), vel)
	if truncate {
		pos.X = math.Trunc(pos.X)
		pos.Y = math.Trunc(pos.Y)
	}
	p.SetPosition(i, pos)
	p.SetColor(i, VelocityColor(vel, maxSpeed))
}

// VelocityColor maps a velocity to a display color: red and green scale
// with the x and y components over maxSpeed, clamped to [0, 255].
func VelocityColor(vel r2.Vec, maxSpeed float64) color.RGBA {
	if maxSpeed <= 0 {
		return color.RGBA{B: colorBlue, A: 255}
	}
	return color.RGBA{
		R: uint8(clampFloat(vel.X/maxSpeed*255, 0, 255)),
		G: uint8(clampFloat(vel.Y/maxSpeed*255, 0, 255)),
		B: colorBlue,
		A: 255,
	}
}
