package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/camera"
)

// RaylibTarget draws into the current raylib frame through a camera.
// Must be used between rl.BeginDrawing and rl.EndDrawing.
type RaylibTarget struct {
	cam       *camera.Camera
	pointSize float32
	color     rl.Color
}

// NewRaylibTarget creates a target. Points wider than one pixel are drawn
// as filled circles of radius pointSize/2 in world units.
func NewRaylibTarget(cam *camera.Camera, pointSize float64) *RaylibTarget {
	return &RaylibTarget{
		cam:       cam,
		pointSize: float32(pointSize),
		color:     rl.White,
	}
}

// SetDrawColor sets the color for subsequent calls.
func (t *RaylibTarget) SetDrawColor(c color.RGBA) {
	t.color = rl.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// DrawPoint draws one agent. Points outside the view are culled.
func (t *RaylibTarget) DrawPoint(x, y float64) {
	wx, wy := float32(x), float32(y)
	if !t.cam.IsVisible(wx, wy, t.pointSize) {
		return
	}
	sx, sy := t.cam.WorldToScreen(wx, wy)

	radius := t.pointSize * t.cam.Zoom / 2
	if radius <= 0.5 {
		rl.DrawPixelV(rl.Vector2{X: sx, Y: sy}, t.color)
		return
	}
	rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, t.color)
}

// DrawLine draws a segment in world coordinates.
func (t *RaylibTarget) DrawLine(x0, y0, x1, y1 float64) {
	sx0, sy0 := t.cam.WorldToScreen(float32(x0), float32(y0))
	sx1, sy1 := t.cam.WorldToScreen(float32(x1), float32(y1))
	rl.DrawLineV(rl.Vector2{X: sx0, Y: sy0}, rl.Vector2{X: sx1, Y: sy1}, t.color)
}
