package main

import (
	"fmt"
	"math"
	"time"

	"github.com/ashokolarov/FalconLanding"
	"github.com/gdamore/tcell/v2"
	kitlog "github.com/go-kit/log"
)

// keyboardPilot turns the key presses received between two ticks into one command.
// Terminals do not report key releases, so every press lasts a single tick and holding
// a key relies on the terminal's auto repeat.
type keyboardPilot struct {
	pending falconlanding.Command
}

func newKeyboardPilot() *keyboardPilot {
	return &keyboardPilot{}
}

// Command implements the falconlanding.Pilot interface.
func (p *keyboardPilot) Command(s falconlanding.RocketState, env falconlanding.Environment) falconlanding.Command {
	cmd := p.pending
	p.pending = falconlanding.Command{}
	return cmd
}

// press records a key event and returns false if it was not a flight control.
func (p *keyboardPilot) press(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyLeft:
		p.pending.RCS = falconlanding.RCSRight
	case tcell.KeyRight:
		p.pending.RCS = falconlanding.RCSLeft
	case tcell.KeyUp:
		p.pending.Throttle = falconlanding.Increase
	case tcell.KeyDown, tcell.KeyCtrlS:
		p.pending.Throttle = falconlanding.Decrease
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'z', 'Z':
			p.pending.Throttle = falconlanding.Max
		case 'x', 'X':
			p.pending.Throttle = falconlanding.Zero
		case 'w', 'W':
			p.pending.Throttle = falconlanding.Increase
		case 's', 'S':
			p.pending.Throttle = falconlanding.Decrease
		case 'g', 'G':
			p.pending.DeployLegs = true
		default:
			return false
		}
	default:
		return false
	}
	return true
}

var (
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleRocket = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleFlame  = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	stylePad    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleOcean  = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleGood   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleBad    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

type tui struct {
	screen tcell.Screen
	sim    *falconlanding.Simulation
	player *keyboardPilot
	step   time.Duration
	top    float64 // m above the pad shown on the first row
	span   float64 // m shown across a lane
	sound  *engineSound
	logger kitlog.Logger
}

func newTUI(sim *falconlanding.Simulation, player *keyboardPilot, conf falconlanding.Config, logger kitlog.Logger) (*tui, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	ui := &tui{
		screen: screen,
		sim:    sim,
		player: player,
		step:   conf.Simulation.Step,
		top:    1.1 * (conf.Spawn.Altitude + conf.Rocket.Height),
		span:   4*conf.Environment.PadHalfWidth + 2*math.Abs(conf.Spawn.XOffset) + 2*conf.Spawn.XSpread,
		logger: kitlog.With(logger, "subsys", "tui"),
	}
	if !mute {
		if ui.sound, err = newEngineSound(); err != nil {
			// Audio is optional.
			ui.logger.Log("level", "warning", "message", "no engine sound", "err", err)
		}
	}
	return ui, nil
}

// run flies the simulation at its own pace until every lane is done and the player quits.
func (ui *tui) run() {
	ticker := time.NewTicker(ui.step)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go pumpEvents(ui.screen.PollEvent, events, quit)

	ui.draw()
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || (ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')) {
					return
				}
				ui.player.press(ev)
			case *tcell.EventResize:
				ui.screen.Sync()
				ui.draw()
			}
		case <-ticker.C:
			if ui.sim.Step() {
				ui.updateSound()
			} else if ui.sound != nil {
				ui.sound.set(0)
			}
			ui.draw()
		}
	}
}

func (ui *tui) close() {
	if ui.sound != nil {
		ui.sound.close()
	}
	ui.screen.Fini()
}

// updateSound follows the throttle of the first lane still burning.
func (ui *tui) updateSound() {
	if ui.sound == nil {
		return
	}
	throttle := 0.
	for _, snap := range ui.sim.Snapshot() {
		if snap.Outcome == nil && snap.State.EngineOn {
			throttle = math.Max(throttle, snap.State.Throttle)
		}
	}
	ui.sound.set(throttle)
}

func (ui *tui) draw() {
	ui.screen.Clear()
	w, h := ui.screen.Size()
	snaps := ui.sim.Snapshot()
	laneWidth := w / len(snaps)
	for i, snap := range snaps {
		ui.drawLane(snap, i*laneWidth, laneWidth, h)
	}
	help := "z: max  x: cut  w/s: throttle  ←/→: RCS  g: legs  q: quit"
	if ui.sim.Done() {
		help = "flight over, q to quit"
		if race, ok := ui.sim.Run().(falconlanding.RaceRun); ok {
			if winner, ok := race.Winner(); ok {
				help = fmt.Sprintf("%s wins, q to quit", winner.Name)
			} else {
				help = "no winner, q to quit"
			}
		}
	}
	ui.text(0, h-1, help, styleHUD)
	ui.screen.Show()
}

// drawLane renders one lane in the columns [x0, x0+width[.
func (ui *tui) drawLane(snap falconlanding.LaneSnapshot, x0, width, height int) {
	env := ui.sim.Env
	rows := height - 2 // HUD line on top, help line at the bottom
	if rows < 4 || width < 10 {
		return
	}
	// World to screen: the pad surface sits on the last world row.
	toRow := func(y float64) int {
		return 1 + int(math.Round((ui.top-(y-env.PadCenter.Y))/ui.top*float64(rows-1)))
	}
	toCol := func(x float64) int {
		return x0 + int(math.Round((x-env.PadCenter.X)/ui.span*float64(width)+float64(width)/2))
	}
	inLane := func(col int) bool { return col >= x0 && col < x0+width }

	surface := toRow(env.PadCenter.Y)
	for col := x0; col < x0+width; col++ {
		ui.screen.SetContent(col, surface, '~', nil, styleOcean)
	}
	for col := toCol(env.PadCenter.X - env.PadHalfWidth); col <= toCol(env.PadCenter.X+env.PadHalfWidth); col++ {
		if inLane(col) {
			ui.screen.SetContent(col, surface, '=', nil, stylePad)
		}
	}

	// Sample the body along its axis, bottom to nose.
	s := snap.State
	sθ, cθ := math.Sincos(s.Theta)
	length := s.Rocket.Height
	for d := -length / 2; d <= length/2; d += length / 8 {
		col, row := toCol(s.Position.X-sθ*d), toRow(s.Position.Y+cθ*d)
		if inLane(col) && row >= 1 && row < surface {
			ui.screen.SetContent(col, row, '█', nil, styleRocket)
		}
	}
	if s.EngineOn {
		col, row := toCol(s.Position.X+sθ*length*0.6), toRow(s.Position.Y-cθ*length*0.6)
		if inLane(col) && row >= 1 && row < surface {
			ui.screen.SetContent(col, row, '*', nil, styleFlame)
		}
	}
	if snap.Command.RCS == falconlanding.RCSLeft || snap.Command.RCS == falconlanding.RCSRight {
		side := 1.
		if snap.Command.RCS == falconlanding.RCSRight {
			side = -1
		}
		col, row := toCol(s.Position.X+side*cθ*s.Rocket.Radius*4-sθ*length*0.4), toRow(s.Position.Y+side*sθ*s.Rocket.Radius*4+cθ*length*0.4)
		if inLane(col) && row >= 1 && row < surface {
			ui.screen.SetContent(col, row, '\'', nil, styleHUD)
		}
	}

	hud := fmt.Sprintf("%s alt %.0fm vx %.1f vy %.1f θ %.1f° thr %.0f%% fuel %.0fkg n2 %.0fkg", snap.Name, s.Altitude(env), s.Velocity.X, s.Velocity.Y, falconlanding.Rad2deg(s.Theta), s.Throttle, s.Fuel, s.Nitrogen)
	if s.LegsDeployed {
		hud += " legs"
	}
	ui.text(x0, 0, truncate(hud, width-1), styleHUD)
	if snap.Outcome != nil {
		style := styleBad
		if snap.Outcome.Classification.Success() {
			style = styleGood
		}
		msg := fmt.Sprintf("%s in %.1fs", snap.Outcome.Reason, snap.Outcome.Time.Seconds())
		ui.text(x0+max(0, (width-len(msg))/2), 1+rows/2, truncate(msg, width-1), style)
	}
}

func (ui *tui) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		ui.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 0 {
		return ""
	}
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// pumpEvents forwards polled events until the screen is finalized or quit is closed.
func pumpEvents(poll func() tcell.Event, events chan<- tcell.Event, quit <-chan struct{}) {
	for {
		ev := poll()
		if ev == nil {
			// Screen finalized.
			return
		}
		select {
		case events <- ev:
		case <-quit:
			return
		}
	}
}
