package game

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
)

// Initial velocity modes.
const (
	SpawnVelocityZero   = "zero"
	SpawnVelocityRandom = "random"
	SpawnVelocityNoise  = "noise"
)

// RandomSource supplies initial placement. Float64 returns a value in [0, 1).
type RandomSource interface {
	Float64() float64
	Int63() int64
}

// NewRandomSource returns a seeded math/rand source.
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// uniformIn returns a point uniformly distributed over space.
func uniformIn(src RandomSource, space components.Space) r2.Vec {
	return r2.Vec{
		X: space.Left() + src.Float64()*space.Width(),
		Y: space.Top() + src.Float64()*space.Height(),
	}
}

// spawn places every agent uniformly in space and assigns its initial
// velocity according to the spawn mode. With a nil source every agent
// starts at the origin of space at rest.
func spawn(p *components.Particles, space components.Space, cfg config.SpawnConfig, maxSpeed float64, src RandomSource) {
	if src == nil {
		for i := 0; i < p.Len(); i++ {
			p.SetPosition(i, space.Min)
		}
		return
	}

	speed := math.Min(cfg.InitialSpeed, maxSpeed)

	var noise *perlin.Perlin
	if cfg.Velocity == SpawnVelocityNoise {
		noise = perlin.NewPerlin(cfg.NoiseAlpha, cfg.NoiseBeta, 2, src.Int63())
	}

	for i := 0; i < p.Len(); i++ {
		pos := uniformIn(src, space)
		p.SetPosition(i, pos)

		var heading float64
		switch cfg.Velocity {
		case SpawnVelocityRandom:
			heading = src.Float64() * 2 * math.Pi
		case SpawnVelocityNoise:
			// Noise2D is roughly in [-1, 1]
			heading = (noise.Noise2D(pos.X*cfg.NoiseScale, pos.Y*cfg.NoiseScale) + 1) * math.Pi
		default:
			continue
		}
		p.SetVelocity(i, r2.Vec{X: math.Cos(heading) * speed, Y: math.Sin(heading) * speed})
	}
}
