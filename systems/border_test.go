package systems

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
)

func TestParseBorderMode(t *testing.T) {
	tests := []struct {
		in     string
		want   BorderMode
		wantOK bool
	}{
		{"reflective", BorderReflective, true},
		{"Toroidal", BorderToroidal, true},
		{" reset ", BorderReset, true},
		{"wrap", BorderToroidal, true},
		{"", BorderReflective, false},
		{"bouncy", BorderReflective, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseBorderMode(tc.in)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("ParseBorderMode(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestApplyBorder(t *testing.T) {
	space := components.NewSpace(0, 0, 100, 100)
	center := r2.Vec{X: 50, Y: 50}

	tests := []struct {
		name             string
		mode             BorderMode
		pos, vel         r2.Vec
		wantPos, wantVel r2.Vec
	}{
		{"reflect left outward", BorderReflective,
			r2.Vec{X: 0, Y: 0}, r2.Vec{X: -1, Y: 0},
			r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0}},
		{"reflect left inward untouched", BorderReflective,
			r2.Vec{X: 0, Y: 40}, r2.Vec{X: 2, Y: 0},
			r2.Vec{X: 0, Y: 40}, r2.Vec{X: 2, Y: 0}},
		{"reflect beyond bottom", BorderReflective,
			r2.Vec{X: 40, Y: 103}, r2.Vec{X: 1, Y: 4},
			r2.Vec{X: 40, Y: 103}, r2.Vec{X: 1, Y: -4}},
		{"reflect corner both axes", BorderReflective,
			r2.Vec{X: 100, Y: 0}, r2.Vec{X: 3, Y: -2},
			r2.Vec{X: 100, Y: 0}, r2.Vec{X: -3, Y: 2}},
		{"wrap right to left", BorderToroidal,
			r2.Vec{X: 100, Y: 30}, r2.Vec{X: 2, Y: 1},
			r2.Vec{X: 0, Y: 30}, r2.Vec{X: 2, Y: 1}},
		{"wrap top to bottom", BorderToroidal,
			r2.Vec{X: 30, Y: -1}, r2.Vec{X: 0, Y: -5},
			r2.Vec{X: 30, Y: 100}, r2.Vec{X: 0, Y: -5}},
		{"wrap inward untouched", BorderToroidal,
			r2.Vec{X: 100, Y: 30}, r2.Vec{X: -2, Y: 0},
			r2.Vec{X: 100, Y: 30}, r2.Vec{X: -2, Y: 0}},
		{"reset on edge moving inward", BorderReset,
			r2.Vec{X: 0, Y: 20}, r2.Vec{X: 4, Y: 0},
			center, r2.Vec{X: 4, Y: 0}},
		{"reset beyond bottom", BorderReset,
			r2.Vec{X: 20, Y: 140}, r2.Vec{X: 0, Y: 1},
			center, r2.Vec{X: 0, Y: 1}},
		{"reset interior untouched", BorderReset,
			r2.Vec{X: 20, Y: 20}, r2.Vec{X: -4, Y: 0},
			r2.Vec{X: 20, Y: 20}, r2.Vec{X: -4, Y: 0}},
		{"undeclared mode reflects", BorderMode(42),
			r2.Vec{X: 0, Y: 50}, r2.Vec{X: -1, Y: 0},
			r2.Vec{X: 0, Y: 50}, r2.Vec{X: 1, Y: 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, vel := ApplyBorder(tc.mode, space, tc.pos, tc.vel)
			if pos != tc.wantPos || vel != tc.wantVel {
				t.Errorf("ApplyBorder = (%v, %v), want (%v, %v)", pos, vel, tc.wantPos, tc.wantVel)
			}
		})
	}
}

func TestReflectIsIdempotent(t *testing.T) {
	space := components.NewSpace(0, 0, 100, 100)
	pos, vel := r2.Vec{X: -2, Y: 50}, r2.Vec{X: -1, Y: 0.5}

	_, once := ApplyBorder(BorderReflective, space, pos, vel)
	_, twice := ApplyBorder(BorderReflective, space, pos, once)
	if once != twice {
		t.Errorf("second reflection changed velocity: %v -> %v", once, twice)
	}
}

func TestResolveBorderWritesOnlyTarget(t *testing.T) {
	space := components.NewSpace(0, 0, 100, 100)
	p := particlesAt(r2.Vec{X: 0, Y: 10}, r2.Vec{X: 0, Y: 20})
	p.SetVelocity(0, r2.Vec{X: -1})
	p.SetVelocity(1, r2.Vec{X: -1})

	ResolveBorder(BorderReflective, space, p, 0)
	if p.Velocity(0).X != 1 {
		t.Errorf("agent 0 not reflected: %v", p.Velocity(0))
	}
	if p.Velocity(1).X != -1 {
		t.Errorf("agent 1 modified: %v", p.Velocity(1))
	}
}
