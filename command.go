package falconlanding

import "math"

// ThrottleAction defines an enum of throttle changes.
type ThrottleAction uint8

const (
	// Hold keeps the current throttle.
	Hold ThrottleAction = iota + 1
	// Increase adds ThrottleStep percent.
	Increase
	// Decrease removes ThrottleStep percent.
	Decrease
	// Max sets the throttle to 100 percent.
	Max
	// Zero cuts the engine.
	Zero
	// Set sets the throttle to the command's Value.
	Set
)

// RCSCommand defines which reaction control thruster fires.
type RCSCommand uint8

const (
	// RCSNone fires no thruster.
	RCSNone RCSCommand = iota + 1
	// RCSLeft fires the left thruster, rotating clockwise.
	RCSLeft
	// RCSRight fires the right thruster, rotating counter-clockwise.
	RCSRight
)

// ThrottleStep is the throttle change in percent applied per tick by Increase and Decrease.
const ThrottleStep = 1.0

func (a ThrottleAction) String() string {
	switch a {
	case Hold:
		return "hold"
	case Increase:
		return "increase"
	case Decrease:
		return "decrease"
	case Max:
		return "max"
	case Zero:
		return "zero"
	case Set:
		return "set"
	}
	panic("cannot stringify unknown throttle action")
}

func (c RCSCommand) String() string {
	switch c {
	case 0, RCSNone:
		return "none"
	case RCSLeft:
		return "left"
	case RCSRight:
		return "right"
	}
	panic("cannot stringify unknown RCS command")
}

// Command is what a pilot asks of the rocket for one tick. It is consumed immediately.
// The zero Command holds the throttle and fires nothing.
type Command struct {
	Throttle   ThrottleAction
	Value      float64 // percent, only read by Set
	RCS        RCSCommand
	DeployLegs bool
}

// apply returns the throttle after the command's action.
func (c Command) apply(throttle float64) float64 {
	switch c.Throttle {
	case Increase:
		throttle += ThrottleStep
	case Decrease:
		throttle -= ThrottleStep
	case Max:
		throttle = 100
	case Zero:
		throttle = 0
	case Set:
		// A non finite value keeps the current throttle.
		if !math.IsNaN(c.Value) && !math.IsInf(c.Value, 0) {
			throttle = c.Value
		}
	}
	return clamp(throttle, 0, 100)
}

// Pilot produces one Command per tick. Player input and the autopilot are both pilots.
type Pilot interface {
	Command(s RocketState, env Environment) Command
}

// PilotFunc adapts a function to the Pilot interface.
type PilotFunc func(s RocketState, env Environment) Command

// Command implements the Pilot interface.
func (f PilotFunc) Command(s RocketState, env Environment) Command {
	return f(s, env)
}

// Script replays a fixed list of commands, one per tick, then holds.
type Script struct {
	Commands []Command
	next     int
}

// NewScript returns a new Script.
func NewScript(cmds ...Command) *Script {
	return &Script{Commands: cmds}
}

// Command implements the Pilot interface.
func (p *Script) Command(s RocketState, env Environment) Command {
	if p.next >= len(p.Commands) {
		return Command{}
	}
	cmd := p.Commands[p.next]
	p.next++
	return cmd
}
