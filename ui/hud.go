package ui

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/telemetry"
)

// MaxStepsPerUpdate is the upper end of the speed slider.
const MaxStepsPerUpdate = 10

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Tick           int32
	Agents         int
	Workers        int
	Border         string
	FPS            int32
	StepsPerUpdate int
	Paused         bool
	DrawGrid       bool

	// Live flock measures
	Polarization float64
	SpeedMean    float64
	BorderCount  int
}

// HUDActions reports which controls were used this frame.
type HUDActions struct {
	TogglePause    bool
	Step           bool
	ToggleGrid     bool
	ResetCamera    bool
	StepsPerUpdate int
}

// HUD renders the stats panel and the control buttons.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a HUD anchored at the top-left corner.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
		x:        10,
		y:        10,
		width:    260,
	}
}

// Draw renders the HUD and returns the actions triggered by its controls.
// Must be called between rl.BeginDrawing and rl.EndDrawing.
func (h *HUD) Draw(data HUDData) HUDActions {
	r := h.renderer
	pad := r.Theme.Padding
	panelH := int32(250)
	r.DrawPanel(h.x, h.y, h.width, panelH)

	x := h.x + pad
	y := h.y + pad
	innerW := h.width - 2*pad

	status := "running"
	if data.Paused {
		status = "PAUSED"
	}
	y = r.DrawSectionHeader(x, y, fmt.Sprintf("Flock  [%s]", status))
	y = r.DrawLabelValue(x, y, "Tick", fmt.Sprintf("%d", data.Tick))
	y = r.DrawLabelValue(x, y, "Agents", fmt.Sprintf("%d", data.Agents))
	y = r.DrawLabelValue(x, y, "Border", fmt.Sprintf("%s (%d in set)", data.Border, data.BorderCount))
	y = r.DrawLabelValue(x, y, "Workers", fmt.Sprintf("%d", data.Workers))
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%d", data.FPS))
	y = r.DrawLabelValue(x, y, "Mean speed", fmt.Sprintf("%.2f", data.SpeedMean))
	y = r.DrawBar(x, y, "Polarization", float32(data.Polarization), innerW)
	y += 4

	actions := HUDActions{StepsPerUpdate: data.StepsPerUpdate}

	fx, fy := float32(x), float32(y)
	bw := float32(innerW-2*pad) / 3
	if gui.Button(rl.Rectangle{X: fx, Y: fy, Width: bw, Height: 24}, toggleText(data.Paused, "Resume", "Pause")) {
		actions.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: fx + bw + float32(pad), Y: fy, Width: bw, Height: 24}, "Step") {
		actions.Step = true
	}
	if gui.Button(rl.Rectangle{X: fx + 2*(bw+float32(pad)), Y: fy, Width: bw, Height: 24}, toggleText(data.DrawGrid, "Grid off", "Grid on")) {
		actions.ToggleGrid = true
	}
	fy += 32

	steps := gui.SliderBar(
		rl.Rectangle{X: fx + 40, Y: fy, Width: float32(innerW) - 80, Height: 18},
		"1x", fmt.Sprintf("%dx", MaxStepsPerUpdate),
		float32(data.StepsPerUpdate), 1, MaxStepsPerUpdate,
	)
	if s := int(steps + 0.5); s != data.StepsPerUpdate {
		actions.StepsPerUpdate = max(1, min(s, MaxStepsPerUpdate))
	}
	fy += 26

	if gui.Button(rl.Rectangle{X: fx, Y: fy, Width: float32(innerW), Height: 22}, "Reset camera") {
		actions.ResetCamera = true
	}

	return actions
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32) {
	rl.DrawText("[Space] pause  [S] step  [G] grid  [</>] speed  [arrows] pan  [wheel] zoom  [Home] reset",
		10, screenHeight-22, 14, rl.Gray)
}

// PerfPanel renders the per-phase tick timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	x, y := p.x, p.y
	r.DrawPanel(x-r.Theme.Padding, y-r.Theme.Padding, 250, int32(len(telemetry.Phases))*14+60)

	rl.DrawText("Tick Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg tick: %s  (%.0f tps)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond),
		x, y, 12, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-16s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
