package game

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/ui"
)

// RunTerminal drives the game inside a tcell screen until the user quits,
// maxTicks is reached (0 = unlimited) or a tick fails. The caller owns
// the screen and must have called Init on it.
func (g *Game) RunTerminal(screen tcell.Screen, maxTicks int) error {
	target := renderer.NewTerminalTarget(screen, g.flock.Space())
	// Grid lines at terminal resolution cover most cells.
	g.flock.SetDrawGrid(false)

	fps := g.cfg.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-done:
				return
			}
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			if !g.handleTerminalEvent(ev) {
				return nil
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}

		case now := <-ticker.C:
			frame := now.Sub(last).Seconds()
			last = now

			if err := g.terminalUpdate(frame); err != nil {
				return err
			}
			g.drawTerminal(screen, target)

			if maxTicks > 0 && int(g.Tick()) >= maxTicks {
				return nil
			}
		}
	}
}

// handleTerminalEvent applies one key event. Returns false to quit.
func (g *Game) handleTerminalEvent(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return true
	}

	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	switch key.Rune() {
	case 'q', 'Q':
		return false
	case ' ':
		g.paused = !g.paused
	case 's':
		if g.paused {
			g.stepOnce = true
		}
	case 'g':
		g.flock.SetDrawGrid(!g.flock.DrawGrid())
	case ',', '<':
		if g.stepsPerUpdate > 1 {
			g.stepsPerUpdate--
		}
	case '.', '>':
		if g.stepsPerUpdate < ui.MaxStepsPerUpdate {
			g.stepsPerUpdate++
		}
	}
	return true
}

// terminalUpdate advances the flock by one frame of wall time.
func (g *Game) terminalUpdate(frame float64) error {
	switch {
	case g.stepOnce:
		g.stepOnce = false
		return g.step()
	case g.paused:
		return nil
	}
	if err := g.flock.Advance(frame * float64(g.stepsPerUpdate)); err != nil {
		return err
	}
	g.flushTelemetry()
	return nil
}

// drawTerminal renders the flock and a one-line status bar.
func (g *Game) drawTerminal(screen tcell.Screen, target *renderer.TerminalTarget) {
	target.Begin()
	g.flock.Render(target)

	status := fmt.Sprintf(" tick %d | agents %d | %dx | %s | [space] pause [s] step [g] grid [q] quit ",
		g.flock.Tick(), g.flock.Len(), g.stepsPerUpdate, g.flock.Border())
	if g.paused {
		status = " PAUSED |" + status
	}
	_, rows := screen.Size()
	style := tcell.StyleDefault.Reverse(true)
	for i, r := range status {
		screen.SetContent(i, rows-1, r, nil, style)
	}

	target.End()
}
