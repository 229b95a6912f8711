package renderer

import (
	"image/color"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/flock/components"
)

const (
	pointRune = '•'
	lineRune  = '·'
)

// TerminalTarget draws into a tcell screen, scaling the world rectangle
// onto the full terminal. Several agents can share one cell; the last
// one drawn wins.
type TerminalTarget struct {
	screen tcell.Screen
	space  components.Space

	cols, rows int
	style      tcell.Style
}

// NewTerminalTarget creates a target for space on screen.
func NewTerminalTarget(screen tcell.Screen, space components.Space) *TerminalTarget {
	t := &TerminalTarget{
		screen: screen,
		space:  space,
		style:  tcell.StyleDefault,
	}
	t.cols, t.rows = screen.Size()
	return t
}

// Begin clears the screen and picks up the current terminal size.
func (t *TerminalTarget) Begin() {
	t.cols, t.rows = t.screen.Size()
	t.screen.Clear()
}

// End flushes the frame to the terminal.
func (t *TerminalTarget) End() {
	t.screen.Show()
}

// SetDrawColor sets the color for subsequent calls. Alpha is ignored.
func (t *TerminalTarget) SetDrawColor(c color.RGBA) {
	t.style = tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
}

// DrawPoint marks the cell containing (x, y).
func (t *TerminalTarget) DrawPoint(x, y float64) {
	col, row, ok := t.Cell(x, y)
	if !ok {
		return
	}
	t.screen.SetContent(col, row, pointRune, nil, t.style)
}

// DrawLine rasterizes the segment over terminal cells. Cells already
// holding a point are left alone.
func (t *TerminalTarget) DrawLine(x0, y0, x1, y1 float64) {
	c0, r0 := t.scale(x0, y0)
	c1, r1 := t.scale(x1, y1)

	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		t.plotLine(c0, r0)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

func (t *TerminalTarget) plotLine(col, row int) {
	if col < 0 || row < 0 || col >= t.cols || row >= t.rows {
		return
	}
	if r, _, _, _ := t.screen.GetContent(col, row); r == pointRune {
		return
	}
	t.screen.SetContent(col, row, lineRune, nil, t.style)
}

// Cell maps a world position to a terminal cell. ok is false when the
// position falls outside the terminal.
func (t *TerminalTarget) Cell(x, y float64) (col, row int, ok bool) {
	col, row = t.scale(x, y)
	ok = col >= 0 && row >= 0 && col < t.cols && row < t.rows
	return col, row, ok
}

func (t *TerminalTarget) scale(x, y float64) (col, row int) {
	w, h := t.space.Width(), t.space.Height()
	if w <= 0 || h <= 0 {
		return -1, -1
	}
	fx := (x - t.space.Left()) / w * float64(t.cols)
	fy := (y - t.space.Top()) / h * float64(t.rows)
	col, row = int(fx), int(fy)
	// The far edge belongs to the last cell.
	if col == t.cols && fx == float64(t.cols) {
		col--
	}
	if row == t.rows && fy == float64(t.rows) {
		row--
	}
	if fx < 0 {
		col = -1
	}
	if fy < 0 {
		row = -1
	}
	return col, row
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
