package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/ui"
)

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Single tick while paused
	if rl.IsKeyPressed(rl.KeyS) && g.paused {
		g.stepOnce = true
	}

	if rl.IsKeyPressed(rl.KeyG) {
		g.flock.SetDrawGrid(!g.flock.DrawGrid())
	}

	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}

	if rl.IsKeyPressed(rl.KeyL) {
		g.logWorldState()
	}

	if rl.IsKeyPressed(rl.KeyK) && g.snapshotDir != "" {
		g.saveSnapshot(nil)
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < ui.MaxStepsPerUpdate {
		g.stepsPerUpdate++
	}

	// Camera controls
	g.handleCameraInput()
}

// applyHUDActions applies the controls clicked in the HUD this frame.
func (g *Game) applyHUDActions(a ui.HUDActions) {
	if a.TogglePause {
		g.paused = !g.paused
	}
	if a.Step {
		g.paused = true
		g.stepOnce = true
	}
	if a.ToggleGrid {
		g.flock.SetDrawGrid(!g.flock.DrawGrid())
	}
	if a.ResetCamera {
		g.camera.Reset()
	}
	g.stepsPerUpdate = a.StepsPerUpdate
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.perfPanel.SetPosition(int32(w)-250, 20)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0) / g.camera.Zoom

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		g.camera.ZoomBy(1.0 + wheelMove*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
