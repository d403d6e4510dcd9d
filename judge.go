package falconlanding

import (
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/log"
)

// Classification defines an enum of terminal landing outcomes.
type Classification uint8

const (
	// SuccessfulLanding is a soft, upright touchdown on the pad with the legs out.
	SuccessfulLanding Classification = iota + 1
	// CrashLanding is a contact with the pad violating a safety threshold.
	CrashLanding
	// OutOfBoundsLanding is any contact outside of the pad.
	OutOfBoundsLanding
	// FuelExhaustedMidair is declared early when a crash is certain after running dry.
	FuelExhaustedMidair
)

func (c Classification) String() string {
	switch c {
	case SuccessfulLanding:
		return "successful landing"
	case CrashLanding:
		return "crash landing"
	case OutOfBoundsLanding:
		return "out of bounds landing"
	case FuelExhaustedMidair:
		return "fuel exhausted midair"
	}
	panic("cannot stringify unknown classification")
}

// Success returns whether this is a successful landing.
func (c Classification) Success() bool {
	return c == SuccessfulLanding
}

// Outcome is the terminal record of a lane.
type Outcome struct {
	Classification Classification
	Reason         string
	Tick           uint64
	Time           time.Duration
	State          RocketState // final state at classification
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s (%s) at tick %d (%s): %s", o.Classification, o.Reason, o.Tick, o.Time, o.State)
}

// JudgeConfig holds the landing thresholds.
type JudgeConfig struct {
	SafeVX, SafeVY float64 // m/s
	SafeAngle      float64 // rad
	// StrictFuelExhaustion declares FuelExhaustedMidair as soon as a dry rocket cannot
	// land safely anymore. Otherwise the flight continues until contact.
	StrictFuelExhaustion bool
}

// DefaultJudgeConfig returns the thresholds used by the game.
func DefaultJudgeConfig() JudgeConfig {
	return JudgeConfig{SafeVX: 2, SafeVY: 3, SafeAngle: Deg2rad(5)}
}

// Validate returns an error if a threshold is negative.
func (c JudgeConfig) Validate() error {
	if c.SafeVX < 0 || c.SafeVY < 0 || c.SafeAngle < 0 {
		return fmt.Errorf("%w: landing thresholds must be non negative: %+v", ErrInvalidConfig, c)
	}
	return nil
}

// LandingJudge classifies the end of a flight. Once an outcome is set it never changes.
type LandingJudge struct {
	conf    JudgeConfig
	dt      float64
	outcome *Outcome
	logger  kitlog.Logger
}

// NewLandingJudge returns a new judge for a run stepped at dt.
func NewLandingJudge(conf JudgeConfig, dt float64, logger kitlog.Logger) *LandingJudge {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &LandingJudge{conf: conf, dt: dt, logger: kitlog.With(logger, "subsys", "judge")}
}

// Outcome returns the terminal outcome, if any.
func (j *LandingJudge) Outcome() (Outcome, bool) {
	if j.outcome == nil {
		return Outcome{}, false
	}
	return *j.outcome, true
}

// Evaluate checks the state reached at the given tick. It returns the outcome and true
// once the flight is over, and false while flying.
func (j *LandingJudge) Evaluate(tick uint64, s RocketState, env Environment) (Outcome, bool) {
	if j.outcome != nil {
		return *j.outcome, true
	}
	c, reason, done := Classify(s, env, j.conf)
	if !done {
		return Outcome{}, false
	}
	j.outcome = &Outcome{Classification: c, Reason: reason, Tick: tick, Time: time.Duration(float64(tick) * j.dt * float64(time.Second)), State: s}
	j.logger.Log("level", "notice", "tick", tick, "outcome", c, "reason", reason, "vx(m/s)", s.Velocity.X, "vy(m/s)", s.Velocity.Y, "θ(deg)", Rad2deg(s.Theta), "fuel(kg)", s.Fuel)
	return *j.outcome, true
}

// Classify is the stateless classification of a state. It returns false while the
// rocket is still flying.
func Classify(s RocketState, env Environment, conf JudgeConfig) (Classification, string, bool) {
	contact := s.Contact()
	if contact.Y > env.SurfaceY(contact.X) {
		if conf.StrictFuelExhaustion && s.Fuel <= 0 && crashCertain(s, env, conf) {
			return FuelExhaustedMidair, "out of fuel", true
		}
		return 0, "", false
	}
	if !env.OverPad(contact.X) {
		return OutOfBoundsLanding, "crashed into ocean", true
	}
	switch {
	case !s.LegsDeployed:
		return CrashLanding, "landing legs not deployed", true
	case math.Abs(s.Velocity.X) > conf.SafeVX || math.Abs(s.Velocity.Y) > conf.SafeVY:
		return CrashLanding, "crashed into pad", true
	case math.Abs(wrapAngle(s.Theta)) > conf.SafeAngle:
		return CrashLanding, "tipped over", true
	}
	return SuccessfulLanding, "landed", true
}

// crashCertain returns whether a dry rocket in free fall cannot meet the vertical speed
// threshold at contact. Without drag the impact speed follows from energy conservation,
// measured down to the pad surface which is the highest one. With drag no lower bound
// is used and the flight continues until contact.
func crashCertain(s RocketState, env Environment, conf JudgeConfig) bool {
	if env.DragCoefficient > 0 {
		return false
	}
	h := math.Max(s.Altitude(env), 0)
	vy := s.Velocity.Y
	return math.Sqrt(vy*vy+2*env.Gravity*h) > conf.SafeVY
}
