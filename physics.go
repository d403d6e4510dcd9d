package falconlanding

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Advance returns the state after one fixed step dt under the provided command.
// Forces are computed at the start of the step, then velocities, then positions are
// updated (semi-implicit Euler). Advance is pure: the input state is not modified.
func Advance(s RocketState, cmd Command, env Environment, dt float64) RocketState {
	if dt <= 0 {
		panic("time step must be positive")
	}
	r := s.Rocket
	// Commands
	s.Throttle = cmd.apply(s.Throttle)
	switch cmd.RCS {
	case RCSLeft, RCSRight:
		s.RCS = cmd.RCS
	default:
		s.RCS = RCSNone
	}
	if cmd.DeployLegs {
		s.LegsDeployed = true
	}
	if s.Nitrogen <= 0 {
		s.Nitrogen = 0
		s.RCS = RCSNone
	}
	if s.Fuel <= 0 {
		s.Fuel = 0
		s.Throttle = 0
	}
	s.EngineOn = s.Throttle > 0

	// Forces
	mass := s.Mass()
	force := r2.Vec{X: 0, Y: -env.Gravity * mass}
	if s.EngineOn {
		level := s.Throttle / 100
		thrust, _ := r.Engine.Thrust(level)
		burnt := massFlow(r.Engine, level) * dt / r.FuelDensity
		if burnt >= s.Fuel {
			// Only part of the step can be fed.
			thrust *= s.Fuel / burnt
			burnt = s.Fuel
		}
		s.Fuel -= burnt
		force = r2.Add(force, r2.Scale(thrust, bodyAxis(s.Theta)))
	}
	if env.DragCoefficient > 0 {
		force = r2.Sub(force, r2.Scale(env.DragCoefficient*r2.Norm(s.Velocity), s.Velocity))
	}
	torque := 0.0
	if s.RCS != RCSNone {
		rcsThrust, _ := r.RCS.Thrust(1)
		used := massFlow(r.RCS, 1) * dt
		if used >= s.Nitrogen {
			rcsThrust *= s.Nitrogen / used
			used = s.Nitrogen
		}
		s.Nitrogen -= used
		switch s.RCS {
		case RCSLeft:
			torque = -rcsThrust * r.RCSArm
		case RCSRight:
			torque = rcsThrust * r.RCSArm
		}
	}

	// Integration
	s.Velocity = r2.Add(s.Velocity, r2.Scale(dt/mass, force))
	s.Omega += torque / r.Inertia() * dt
	s.Position = r2.Add(s.Position, r2.Scale(dt, s.Velocity))
	s.Theta += s.Omega * dt

	if s.Fuel <= 0 {
		s.Fuel = 0
		s.Throttle = 0
		s.EngineOn = false
	}
	return s
}
