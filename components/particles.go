// Package components defines the per-agent state arrays and world geometry
// shared by the simulation systems.
package components

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"
)

// Particles is the structure-of-arrays store for every agent.
// Agents are addressed by dense index 0..Len()-1; the position, velocity
// and color arrays always have the same length.
type Particles struct {
	pos   []r2.Vec
	vel   []r2.Vec
	color []color.RGBA
}

// NewParticles allocates a store for n agents with zeroed state.
func NewParticles(n int) *Particles {
	if n < 0 {
		n = 0
	}
	return &Particles{
		pos:   make([]r2.Vec, n),
		vel:   make([]r2.Vec, n),
		color: make([]color.RGBA, n),
	}
}

// Len returns the number of agents.
func (p *Particles) Len() int {
	return len(p.pos)
}

// Position returns agent i's position.
func (p *Particles) Position(i int) r2.Vec {
	return p.pos[i]
}

// SetPosition sets agent i's position.
func (p *Particles) SetPosition(i int, v r2.Vec) {
	p.pos[i] = v
}

// Velocity returns agent i's velocity.
func (p *Particles) Velocity(i int) r2.Vec {
	return p.vel[i]
}

// SetVelocity sets agent i's velocity.
func (p *Particles) SetVelocity(i int, v r2.Vec) {
	p.vel[i] = v
}

// SwapVelocities installs next as the velocity array and returns the
// previous one for reuse. next must have length Len().
func (p *Particles) SwapVelocities(next []r2.Vec) []r2.Vec {
	if len(next) != len(p.vel) {
		panic("components: velocity buffer length mismatch")
	}
	prev := p.vel
	p.vel = next
	return prev
}

// Color returns agent i's display color.
func (p *Particles) Color(i int) color.RGBA {
	return p.color[i]
}

// SetColor sets agent i's display color.
func (p *Particles) SetColor(i int, c color.RGBA) {
	p.color[i] = c
}

// Resize reallocates all three arrays together, keeping the state of the
// first min(n, Len()) agents. New agents start zeroed.
func (p *Particles) Resize(n int) {
	if n < 0 {
		n = 0
	}
	pos := make([]r2.Vec, n)
	vel := make([]r2.Vec, n)
	col := make([]color.RGBA, n)
	copy(pos, p.pos)
	copy(vel, p.vel)
	copy(col, p.color)
	p.pos, p.vel, p.color = pos, vel, col
}
