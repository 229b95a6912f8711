package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/ui"
)

// Draw renders the flock and the HUD.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.flock.Render(g.target)

	p := g.flock.Particles()
	actions := g.hud.Draw(ui.HUDData{
		Tick:           g.flock.Tick(),
		Agents:         g.flock.Len(),
		Workers:        g.flock.Workers(),
		Border:         g.flock.Border().String(),
		FPS:            rl.GetFPS(),
		StepsPerUpdate: g.stepsPerUpdate,
		Paused:         g.paused,
		DrawGrid:       g.flock.DrawGrid(),
		Polarization:   telemetry.Polarization(p),
		SpeedMean:      meanSpeed(g.flock),
		BorderCount:    g.flock.BorderCount(),
	})
	g.hud.DrawControls(int32(g.screenHeight))

	if g.showPerf {
		g.perfPanel.Draw(g.perfCollector.Stats())
	}

	rl.EndDrawing()

	g.applyHUDActions(actions)
}

// meanSpeed returns the average agent speed.
func meanSpeed(f *Flock) float64 {
	n := f.Len()
	if n == 0 {
		return 0
	}
	var sum float64
	p := f.Particles()
	for i := 0; i < n; i++ {
		sum += r2.Norm(p.Velocity(i))
	}
	return sum / float64(n)
}
