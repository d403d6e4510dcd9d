package falconlanding

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rocket describes the vehicle. It is shared read-only by every state of a run.
type Rocket struct {
	Name         string
	DryMass      float64 // kg
	FuelCapacity float64 // kg of propellant loaded at spawn
	FuelDensity  float64 // kg per unit of fuel; fuel is tracked in kg so this is 1 unless configured otherwise
	Radius       float64 // m
	Height       float64 // m
	Engine       Thruster
	RCS          Thruster
	RCSArm       float64 // distance between the RCS thrusters and the center of mass
	// NitrogenCapacity is the cold gas load of the RCS in kg. It is not part of the
	// vehicle mass.
	NitrogenCapacity float64
}

// NewFalcon returns a landing Falcon 9 first stage, with a
// propellant load sized for a full suicide burn from the default spawn.
func NewFalcon() *Rocket {
	return &Rocket{Name: "falcon", DryMass: 27200, FuelCapacity: 4500, FuelDensity: 1, Radius: 1.85, Height: 44, Engine: new(Merlin1D), RCS: new(ColdGas), RCSArm: 24, NitrogenCapacity: 500}
}

// Inertia returns the constant moment of inertia proxy of the rocket, modeled as a
// solid cylinder at dry mass.
func (r *Rocket) Inertia() float64 {
	return r.DryMass * (3*r.Radius*r.Radius + r.Height*r.Height) / 12
}

// Validate returns an error if the rocket definition is not physical.
func (r *Rocket) Validate() error {
	switch {
	case r.Engine == nil || r.RCS == nil:
		return fmt.Errorf("%w: rocket %q needs a main engine and an RCS", ErrInvalidConfig, r.Name)
	case !(r.DryMass > 0):
		return fmt.Errorf("%w: dry mass must be positive, got %f", ErrInvalidConfig, r.DryMass)
	case r.FuelCapacity < 0 || math.IsNaN(r.FuelCapacity):
		return fmt.Errorf("%w: fuel capacity must be non negative, got %f", ErrInvalidConfig, r.FuelCapacity)
	case !(r.FuelDensity > 0):
		return fmt.Errorf("%w: fuel density must be positive, got %f", ErrInvalidConfig, r.FuelDensity)
	case !(r.Radius > 0) || !(r.Height > 0):
		return fmt.Errorf("%w: rocket dimensions must be positive, got r=%f h=%f", ErrInvalidConfig, r.Radius, r.Height)
	case !(r.Engine.Max() > 0):
		return fmt.Errorf("%w: main engine max thrust must be positive", ErrInvalidConfig)
	case r.RCS.Max() < 0 || r.RCSArm < 0:
		return fmt.Errorf("%w: RCS thrust and arm must be non negative", ErrInvalidConfig)
	case r.NitrogenCapacity < 0 || math.IsNaN(r.NitrogenCapacity):
		return fmt.Errorf("%w: nitrogen capacity must be non negative, got %f", ErrInvalidConfig, r.NitrogenCapacity)
	}
	// Mass flow needs a positive specific impulse.
	if _, isp := r.Engine.Thrust(1); !(isp > 0) {
		return fmt.Errorf("%w: main engine isp must be positive, got %f", ErrInvalidConfig, isp)
	}
	if _, isp := r.RCS.Thrust(1); !(isp > 0) {
		return fmt.Errorf("%w: RCS isp must be positive, got %f", ErrInvalidConfig, isp)
	}
	return nil
}

func (r *Rocket) String() string {
	return fmt.Sprintf("%s (dry %.0f kg, fuel %.0f kg, thrust %.0f kN, I %.3g kg.m^2)", r.Name, r.DryMass, r.FuelCapacity, r.Engine.Max()/1e3, r.Inertia())
}

// RocketState is the mutable flight state of a rocket.
// Position is the center of mass, θ is counter-clockwise positive with 0 upright.
type RocketState struct {
	Rocket       *Rocket
	Position     r2.Vec
	Velocity     r2.Vec
	Theta        float64 // rad
	Omega        float64 // rad/s
	Throttle     float64 // percent, in [0, 100]
	EngineOn     bool
	RCS          RCSCommand
	LegsDeployed bool
	Fuel         float64 // kg, never negative
	Nitrogen     float64 // kg of RCS cold gas, never negative
}

// NewRocketState returns a freshly spawned state: full tanks, legs retracted, throttle 0.
func NewRocketState(r *Rocket, position, velocity r2.Vec, ω float64) RocketState {
	return RocketState{Rocket: r, Position: position, Velocity: velocity, Omega: ω, Fuel: r.FuelCapacity, Nitrogen: r.NitrogenCapacity}
}

// Mass returns the current total mass.
func (s RocketState) Mass() float64 {
	return s.Rocket.DryMass + s.Fuel*s.Rocket.FuelDensity
}

// Contact returns the lowest point of the body, the one touching the surface first.
// An upright or inverted body touches with the middle of its base.
func (s RocketState) Contact() r2.Vec {
	sθ, cθ := math.Sincos(s.Theta)
	h, r := 0.5*s.Rocket.Height, s.Rocket.Radius
	return r2.Vec{
		X: s.Position.X + side(cθ)*h*sθ - side(sθ)*r*cθ,
		Y: s.Position.Y - h*math.Abs(cθ) - r*math.Abs(sθ),
	}
}

// Bottom returns the height of the lowest point of the body.
func (s RocketState) Bottom() float64 {
	return s.Contact().Y
}

// Altitude returns the height of the lowest point of the body above the pad surface.
func (s RocketState) Altitude(env Environment) float64 {
	return s.Bottom() - env.PadCenter.Y
}

// Speed returns the norm of the velocity.
func (s RocketState) Speed() float64 {
	return r2.Norm(s.Velocity)
}

func (s RocketState) String() string {
	return fmt.Sprintf("x=%.1f y=%.1f vx=%.2f vy=%.2f θ=%.2f° ω=%.3f throttle=%.0f%% fuel=%.0f n2=%.0f legs=%v", s.Position.X, s.Position.Y, s.Velocity.X, s.Velocity.Y, Rad2deg(s.Theta), s.Omega, s.Throttle, s.Fuel, s.Nitrogen, s.LegsDeployed)
}
