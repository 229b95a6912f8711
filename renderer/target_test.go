package renderer

import (
	"image/color"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/flock/components"
)

func TestRecorderKeepsColorPerOp(t *testing.T) {
	var r Recorder
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	r.SetDrawColor(red)
	r.DrawLine(0, 0, 10, 0)
	r.SetDrawColor(blue)
	r.DrawPoint(3, 4)
	r.DrawPoint(5, 6)

	if got := r.Count("line"); got != 1 {
		t.Errorf("lines = %d, want 1", got)
	}
	if got := r.Count("point"); got != 2 {
		t.Errorf("points = %d, want 2", got)
	}
	if r.Ops[0].Color != red || r.Ops[2].Color != blue {
		t.Errorf("colors = %v, %v", r.Ops[0].Color, r.Ops[2].Color)
	}

	r.Reset()
	if len(r.Ops) != 0 {
		t.Errorf("ops after Reset = %d", len(r.Ops))
	}
}

func newSimScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("")
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s.SetSize(cols, rows)
	t.Cleanup(s.Fini)
	return s
}

func TestTerminalTargetCell(t *testing.T) {
	screen := newSimScreen(t, 80, 40)
	target := NewTerminalTarget(screen, components.NewSpace(100, 50, 800, 400))

	tests := []struct {
		name     string
		x, y     float64
		col, row int
		ok       bool
	}{
		{"origin", 100, 50, 0, 0, true},
		{"center", 500, 250, 40, 20, true},
		{"far edge", 900, 450, 79, 39, true},
		{"left of world", 99, 60, -1, 1, false},
		{"below world", 200, 460, 10, 41, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			col, row, ok := target.Cell(tc.x, tc.y)
			if col != tc.col || row != tc.row || ok != tc.ok {
				t.Errorf("Cell(%v, %v) = (%d, %d, %v), want (%d, %d, %v)",
					tc.x, tc.y, col, row, ok, tc.col, tc.row, tc.ok)
			}
		})
	}
}

func TestTerminalTargetDrawsPointsOverLines(t *testing.T) {
	screen := newSimScreen(t, 10, 10)
	target := NewTerminalTarget(screen, components.NewSpace(0, 0, 100, 100))

	target.Begin()
	target.SetDrawColor(color.RGBA{R: 200, G: 10, B: 160, A: 255})
	target.DrawPoint(55, 55)
	target.DrawLine(0, 55, 99, 55)
	target.DrawPoint(-5, 5) // off screen
	target.End()

	if r, _, _, _ := screen.GetContent(5, 5); r != pointRune {
		t.Errorf("cell (5,5) = %q, want point", r)
	}
	for col := 0; col < 10; col++ {
		if col == 5 {
			continue
		}
		if r, _, _, _ := screen.GetContent(col, 5); r != lineRune {
			t.Errorf("cell (%d,5) = %q, want line", col, r)
		}
	}
	if r, _, _, _ := screen.GetContent(0, 0); r == pointRune {
		t.Error("off-screen point was drawn")
	}
}

func TestTerminalTargetDiagonalLine(t *testing.T) {
	screen := newSimScreen(t, 10, 10)
	target := NewTerminalTarget(screen, components.NewSpace(0, 0, 10, 10))

	target.Begin()
	target.DrawLine(0, 0, 9.5, 9.5)

	for i := 0; i < 10; i++ {
		if r, _, _, _ := screen.GetContent(i, i); r != lineRune {
			t.Errorf("cell (%d,%d) = %q, want line", i, i, r)
		}
	}
}
