package falconlanding

import (
	"fmt"
	"math"

	kitlog "github.com/go-kit/log"
)

// minGuidanceAltitude bounds the altitude used by the braking law to avoid dividing by zero at contact.
const minGuidanceAltitude = 0.1

// AutopilotConfig holds the gains of the landing autopilot.
type AutopilotConfig struct {
	LegDeployAltitude float64 // m above the pad
	TouchdownSpeed    float64 // m/s, target descent speed at contact
	SpeedGain         float64 // 1/s, used once at or below the touchdown speed
	RateGain          float64 // s, weight of ω in the attitude switching value
	AngleDeadband     float64 // rad
	MarginTicks       float64 // ticks of travel added to the suicide burn altitude
}

// DefaultAutopilotConfig returns the gains used by the game.
func DefaultAutopilotConfig() AutopilotConfig {
	return AutopilotConfig{LegDeployAltitude: 100, TouchdownSpeed: 1, SpeedGain: 2, RateGain: 1.5, AngleDeadband: Deg2rad(0.25), MarginTicks: 1}
}

// Validate returns an error if the gains cannot fly the rocket.
func (c AutopilotConfig) Validate() error {
	if c.LegDeployAltitude < 0 || c.TouchdownSpeed <= 0 || c.SpeedGain <= 0 || c.RateGain < 0 || c.AngleDeadband < 0 || c.MarginTicks < 0 {
		return fmt.Errorf("%w: autopilot gains must be non negative and the touchdown speed and speed gain positive: %+v", ErrInvalidConfig, c)
	}
	return nil
}

// SuicideBurnAltitude returns the braking distance at full throttle for the current
// descent speed: v_y^2 / (2*a_max) with a_max = T_max/m - g. It is zero while the rocket
// climbs and infinite when the engine cannot beat gravity.
func SuicideBurnAltitude(s RocketState, env Environment) float64 {
	vy := s.Velocity.Y
	if vy >= 0 {
		return 0
	}
	aMax := s.Rocket.Engine.Max()/s.Mass() - env.Gravity
	if aMax <= 0 {
		return math.Inf(1)
	}
	return vy * vy / (2 * aMax)
}

// Ignition records the tick at which the landing burn started.
type Ignition struct {
	Tick         uint64
	Altitude     float64 // m above the pad
	BurnAltitude float64 // suicide burn altitude at that tick
	Speed        float64 // vertical speed, m/s
	Fuel         float64 // kg
}

// Autopilot flies the landing: coast, suicide burn ignition, closed loop braking to the
// touchdown speed, attitude hold with the RCS and leg deployment.
type Autopilot struct {
	conf     AutopilotConfig
	dt       float64
	ticks    uint64
	ignited  bool
	ignition Ignition
	logger   kitlog.Logger
}

// NewAutopilot returns a new autopilot for a run stepped at dt.
func NewAutopilot(conf AutopilotConfig, dt float64, logger kitlog.Logger) *Autopilot {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Autopilot{conf: conf, dt: dt, logger: kitlog.With(logger, "subsys", "autopilot")}
}

// Ignition returns the ignition record and whether the landing burn has started.
func (a *Autopilot) Ignition() (Ignition, bool) {
	return a.ignition, a.ignited
}

// Command implements the Pilot interface.
func (a *Autopilot) Command(s RocketState, env Environment) Command {
	a.ticks++
	h := s.Altitude(env)
	cmd := Command{Throttle: Zero, RCS: a.attitude(s)}
	if !s.LegsDeployed && h < a.conf.LegDeployAltitude {
		cmd.DeployLegs = true
		a.logger.Log("level", "info", "tick", a.ticks, "message", "deploying legs", "altitude(m)", h)
	}
	if !a.ignited {
		vy := s.Velocity.Y
		d := SuicideBurnAltitude(s, env)
		if vy >= 0 || h > d+math.Abs(vy)*a.dt*a.conf.MarginTicks {
			return cmd
		}
		a.ignited = true
		a.ignition = Ignition{Tick: a.ticks, Altitude: h, BurnAltitude: d, Speed: vy, Fuel: s.Fuel}
		a.logger.Log("level", "notice", "tick", a.ticks, "status", "ignition", "altitude(m)", h, "burn(m)", d, "vy(m/s)", vy, "fuel(kg)", s.Fuel)
		if need := a.fuelNeeded(s, env); need > s.Fuel {
			// Commit anyway.
			a.logger.Log("level", "warning", "tick", a.ticks, "message", "insufficient fuel for the burn", "need(kg)", need, "fuel(kg)", s.Fuel)
		}
		cmd.Throttle = Max
		return cmd
	}
	cmd.Throttle = Set
	cmd.Value = a.throttle(s, env, h)
	return cmd
}

// throttle returns the throttle in percent which brakes the rocket at constant
// deceleration down to the touchdown speed at the pad surface.
func (a *Autopilot) throttle(s RocketState, env Environment, h float64) float64 {
	descent := -s.Velocity.Y
	td := a.conf.TouchdownSpeed
	var accel float64
	if descent > td {
		accel = (descent*descent - td*td) / (2 * math.Max(h, minGuidanceAltitude))
	} else {
		accel = a.conf.SpeedGain * (descent - td)
	}
	dragUp := env.DragCoefficient * s.Speed() * descent
	need := s.Mass()*(env.Gravity+accel) - dragUp
	if need <= 0 {
		return 0
	}
	cθ := math.Cos(s.Theta)
	if cθ < 0.1 {
		return 100
	}
	return clamp(100*need/(s.Rocket.Engine.Max()*cθ), 0, 100)
}

// attitude returns the thruster whose moment opposes the switching value θ + k*ω.
func (a *Autopilot) attitude(s RocketState) RCSCommand {
	σ := wrapAngle(s.Theta) + a.conf.RateGain*s.Omega
	switch {
	case σ > a.conf.AngleDeadband:
		return RCSLeft
	case σ < -a.conf.AngleDeadband:
		return RCSRight
	}
	return RCSNone
}

// fuelNeeded estimates the propellant of a full throttle burn nulling the vertical speed.
func (a *Autopilot) fuelNeeded(s RocketState, env Environment) float64 {
	aMax := s.Rocket.Engine.Max()/s.Mass() - env.Gravity
	if aMax <= 0 {
		return math.Inf(1)
	}
	return massFlow(s.Rocket.Engine, 1) * math.Abs(s.Velocity.Y) / aMax / s.Rocket.FuelDensity
}
