package falconlanding

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidConfig is wrapped by every configuration error. A run cannot start with an invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// SimulationConfig holds the loop parameters.
type SimulationConfig struct {
	Step    time.Duration // fixed tick duration
	Timeout time.Duration // simulated time after which flying lanes are abandoned
	Seed    uint64        // seed of the spawn randomness
	Epoch   time.Time     // wall clock date of tick zero, used by exports
}

// DT returns the tick duration in seconds.
func (c SimulationConfig) DT() float64 {
	return c.Step.Seconds()
}

// MaxTicks returns the number of ticks after which the loop gives up.
func (c SimulationConfig) MaxTicks() uint64 {
	return uint64(c.Timeout / c.Step)
}

// SpawnConfig defines where and how rockets appear.
type SpawnConfig struct {
	Altitude           float64 // m between the bottom of the rocket and the pad surface
	VY                 float64 // m/s, initial vertical velocity
	OmegaMin, OmegaMax float64 // rad/s, range of the random initial angular velocity
	XOffset            float64 // m from the pad center
	XSpread            float64 // m, half width of the random horizontal spawn window around the offset
}

// Config is the full description of a run.
type Config struct {
	Environment Environment
	Rocket      *Rocket
	Judge       JudgeConfig
	Autopilot   AutopilotConfig
	Simulation  SimulationConfig
	Spawn       SpawnConfig
}

// DefaultConfig returns the Falcon barge landing, stepped at 60 Hz.
func DefaultConfig() Config {
	return Config{
		Environment: NewEnvironment(),
		Rocket:      NewFalcon(),
		Judge:       DefaultJudgeConfig(),
		Autopilot:   DefaultAutopilotConfig(),
		Simulation: SimulationConfig{
			Step:    time.Second / 60,
			Timeout: 5 * time.Minute,
			Seed:    1,
			Epoch:   time.Date(2017, 3, 30, 22, 27, 0, 0, time.UTC),
		},
		Spawn: SpawnConfig{Altitude: 1000, VY: -100, OmegaMin: -0.1, OmegaMax: 0.1},
	}
}

// Validate returns the first configuration error, wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Rocket == nil {
		return fmt.Errorf("%w: no rocket", ErrInvalidConfig)
	}
	if err := c.Environment.Validate(); err != nil {
		return err
	}
	if err := c.Rocket.Validate(); err != nil {
		return err
	}
	if err := c.Judge.Validate(); err != nil {
		return err
	}
	if err := c.Autopilot.Validate(); err != nil {
		return err
	}
	if c.Simulation.Step <= 0 {
		return fmt.Errorf("%w: time step must be positive, got %s", ErrInvalidConfig, c.Simulation.Step)
	}
	if c.Simulation.Timeout < c.Simulation.Step {
		return fmt.Errorf("%w: timeout %s shorter than one step", ErrInvalidConfig, c.Simulation.Timeout)
	}
	if !(c.Spawn.Altitude > 0) {
		return fmt.Errorf("%w: spawn altitude must be positive, got %f", ErrInvalidConfig, c.Spawn.Altitude)
	}
	if c.Spawn.OmegaMin > c.Spawn.OmegaMax || c.Spawn.XSpread < 0 {
		return fmt.Errorf("%w: invalid spawn ranges: %+v", ErrInvalidConfig, c.Spawn)
	}
	return nil
}

// LoadConfig reads a TOML scenario on top of the defaults. Any key may be overridden
// with a LANDER_ environment variable, e.g. LANDER_ROCKET_FUEL.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("lander")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	conf := DefaultConfig()
	setDefaults(v, conf)
	if err := v.ReadInConfig(); err != nil {
		return conf, fmt.Errorf("reading %s: %w", path, err)
	}
	return readConfig(v, conf)
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("environment.gravity", c.Environment.Gravity)
	v.SetDefault("environment.pad_x", c.Environment.PadCenter.X)
	v.SetDefault("environment.pad_y", c.Environment.PadCenter.Y)
	v.SetDefault("environment.pad_half_width", c.Environment.PadHalfWidth)
	v.SetDefault("environment.ground_y", c.Environment.GroundY)
	v.SetDefault("environment.drag", c.Environment.DragCoefficient)

	v.SetDefault("rocket.name", c.Rocket.Name)
	v.SetDefault("rocket.dry_mass", c.Rocket.DryMass)
	v.SetDefault("rocket.fuel", c.Rocket.FuelCapacity)
	v.SetDefault("rocket.fuel_density", c.Rocket.FuelDensity)
	v.SetDefault("rocket.radius", c.Rocket.Radius)
	v.SetDefault("rocket.height", c.Rocket.Height)
	v.SetDefault("rocket.rcs_arm", c.Rocket.RCSArm)
	v.SetDefault("rocket.nitrogen", c.Rocket.NitrogenCapacity)

	v.SetDefault("judge.safe_vx", c.Judge.SafeVX)
	v.SetDefault("judge.safe_vy", c.Judge.SafeVY)
	v.SetDefault("judge.safe_angle", Rad2deg(c.Judge.SafeAngle))
	v.SetDefault("judge.strict_fuel", c.Judge.StrictFuelExhaustion)

	v.SetDefault("autopilot.leg_altitude", c.Autopilot.LegDeployAltitude)
	v.SetDefault("autopilot.touchdown_speed", c.Autopilot.TouchdownSpeed)
	v.SetDefault("autopilot.speed_gain", c.Autopilot.SpeedGain)
	v.SetDefault("autopilot.rate_gain", c.Autopilot.RateGain)
	v.SetDefault("autopilot.deadband", Rad2deg(c.Autopilot.AngleDeadband))
	v.SetDefault("autopilot.margin_ticks", c.Autopilot.MarginTicks)

	v.SetDefault("simulation.step", c.Simulation.Step)
	v.SetDefault("simulation.timeout", c.Simulation.Timeout)
	v.SetDefault("simulation.seed", c.Simulation.Seed)
	v.SetDefault("simulation.epoch", c.Simulation.Epoch)

	v.SetDefault("spawn.altitude", c.Spawn.Altitude)
	v.SetDefault("spawn.vy", c.Spawn.VY)
	v.SetDefault("spawn.omega_min", c.Spawn.OmegaMin)
	v.SetDefault("spawn.omega_max", c.Spawn.OmegaMax)
	v.SetDefault("spawn.x_offset", c.Spawn.XOffset)
	v.SetDefault("spawn.x_spread", c.Spawn.XSpread)
}

// readThruster returns a GenericThruster when the section overrides the default thruster.
// Thrust and isp must be set together.
func readThruster(v *viper.Viper, section string, def Thruster) (Thruster, error) {
	thrust, isp := section+".thrust", section+".isp"
	switch {
	case !v.IsSet(thrust) && !v.IsSet(isp):
		return def, nil
	case !v.IsSet(thrust):
		return nil, fmt.Errorf("%w: %s set without %s", ErrInvalidConfig, isp, thrust)
	case !v.IsSet(isp):
		return nil, fmt.Errorf("%w: %s set without %s", ErrInvalidConfig, thrust, isp)
	}
	return NewGenericThruster(v.GetFloat64(thrust), v.GetFloat64(isp)), nil
}

// readConfig builds a validated configuration from the viper keys. Angles are read in degrees.
func readConfig(v *viper.Viper, c Config) (Config, error) {
	c.Environment = Environment{
		Gravity:         v.GetFloat64("environment.gravity"),
		PadCenter:       r2.Vec{X: v.GetFloat64("environment.pad_x"), Y: v.GetFloat64("environment.pad_y")},
		PadHalfWidth:    v.GetFloat64("environment.pad_half_width"),
		GroundY:         v.GetFloat64("environment.ground_y"),
		DragCoefficient: v.GetFloat64("environment.drag"),
	}

	engine, err := readThruster(v, "engine", new(Merlin1D))
	if err != nil {
		return c, err
	}
	rcs, err := readThruster(v, "rcs", new(ColdGas))
	if err != nil {
		return c, err
	}
	c.Rocket = &Rocket{
		Name:         v.GetString("rocket.name"),
		DryMass:      v.GetFloat64("rocket.dry_mass"),
		FuelCapacity: v.GetFloat64("rocket.fuel"),
		FuelDensity:  v.GetFloat64("rocket.fuel_density"),
		Radius:       v.GetFloat64("rocket.radius"),
		Height:       v.GetFloat64("rocket.height"),
		Engine:       engine,
		RCS:          rcs,
		RCSArm:       v.GetFloat64("rocket.rcs_arm"),

		NitrogenCapacity: v.GetFloat64("rocket.nitrogen"),
	}

	c.Judge = JudgeConfig{
		SafeVX:               v.GetFloat64("judge.safe_vx"),
		SafeVY:               v.GetFloat64("judge.safe_vy"),
		SafeAngle:            Deg2rad(v.GetFloat64("judge.safe_angle")),
		StrictFuelExhaustion: v.GetBool("judge.strict_fuel"),
	}
	c.Autopilot = AutopilotConfig{
		LegDeployAltitude: v.GetFloat64("autopilot.leg_altitude"),
		TouchdownSpeed:    v.GetFloat64("autopilot.touchdown_speed"),
		SpeedGain:         v.GetFloat64("autopilot.speed_gain"),
		RateGain:          v.GetFloat64("autopilot.rate_gain"),
		AngleDeadband:     Deg2rad(v.GetFloat64("autopilot.deadband")),
		MarginTicks:       v.GetFloat64("autopilot.margin_ticks"),
	}
	c.Simulation = SimulationConfig{
		Step:    v.GetDuration("simulation.step"),
		Timeout: v.GetDuration("simulation.timeout"),
		Seed:    v.GetUint64("simulation.seed"),
		Epoch:   v.GetTime("simulation.epoch"),
	}
	c.Spawn = SpawnConfig{
		Altitude: v.GetFloat64("spawn.altitude"),
		VY:       v.GetFloat64("spawn.vy"),
		OmegaMin: v.GetFloat64("spawn.omega_min"),
		OmegaMax: v.GetFloat64("spawn.omega_max"),
		XOffset:  v.GetFloat64("spawn.x_offset"),
		XSpread:  v.GetFloat64("spawn.x_spread"),
	}
	return c, c.Validate()
}
