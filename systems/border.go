package systems

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
)

// BorderMode selects how agents at the edge of the space are handled.
type BorderMode uint8

const (
	BorderReflective BorderMode = iota // flip outward velocity components
	BorderToroidal                     // wrap to the opposite edge
	BorderReset                        // teleport to the center
)

// String returns the config name of the mode.
func (m BorderMode) String() string {
	switch m {
	case BorderReflective:
		return "reflective"
	case BorderToroidal:
		return "toroidal"
	case BorderReset:
		return "reset"
	default:
		return "unknown"
	}
}

// ParseBorderMode maps a config name to a mode. Empty or unrecognized names
// return BorderReflective with ok == false.
func ParseBorderMode(s string) (mode BorderMode, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reflective", "reflect":
		return BorderReflective, true
	case "toroidal", "torus", "wrap":
		return BorderToroidal, true
	case "reset":
		return BorderReset, true
	default:
		return BorderReflective, false
	}
}

// ApplyBorder returns the position and velocity of an agent after boundary
// handling. Agents strictly inside the space are returned unchanged.
func ApplyBorder(mode BorderMode, space components.Space, pos, vel r2.Vec) (r2.Vec, r2.Vec) {
	switch mode {
	case BorderReflective:
		return pos, reflect(space, pos, vel)
	case BorderToroidal:
		return wrap(space, pos, vel), vel
	case BorderReset:
		return reset(space, pos), vel
	default:
		// Modes outside the declared set behave as reflective.
		return pos, reflect(space, pos, vel)
	}
}

// ResolveBorder applies mode to agent i in place. It writes only agent i.
func ResolveBorder(mode BorderMode, space components.Space, p *components.Particles, i int) {
	pos, vel := ApplyBorder(mode, space, p.Position(i), p.Velocity(i))
	p.SetPosition(i, pos)
	p.SetVelocity(i, vel)
}

// reflect negates each velocity component that points further out of the
// space while the agent is at or beyond that edge.
func reflect(space components.Space, pos, vel r2.Vec) r2.Vec {
	if (pos.X <= space.Left() && vel.X < 0) || (pos.X >= space.Right() && vel.X > 0) {
		vel.X = -vel.X
	}
	if (pos.Y <= space.Top() && vel.Y < 0) || (pos.Y >= space.Bottom() && vel.Y > 0) {
		vel.Y = -vel.Y
	}
	return vel
}

// wrap moves an agent leaving through one edge onto the opposite edge.
func wrap(space components.Space, pos, vel r2.Vec) r2.Vec {
	if pos.X <= space.Left() && vel.X < 0 {
		pos.X = space.Right()
	} else if pos.X >= space.Right() && vel.X > 0 {
		pos.X = space.Left()
	}
	if pos.Y <= space.Top() && vel.Y < 0 {
		pos.Y = space.Bottom()
	} else if pos.Y >= space.Bottom() && vel.Y > 0 {
		pos.Y = space.Top()
	}
	return pos
}

// reset sends an agent touching any edge to the center of the space.
func reset(space components.Space, pos r2.Vec) r2.Vec {
	if pos.X <= space.Left() || pos.X >= space.Right() ||
		pos.Y <= space.Top() || pos.Y >= space.Bottom() {
		return space.Center()
	}
	return pos
}
