package falconlanding

import (
	"context"
	"fmt"

	kitlog "github.com/go-kit/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

/* Handles the fixed tick loop of all game modes. */

const instrumentationName = "github.com/ashokolarov/FalconLanding"

// Simulation owns the lanes of a run and steps them in lockstep.
// It is not safe for concurrent use: renderers must read Snapshot between steps.
type Simulation struct {
	Env      Environment
	run      Run
	lanes    []*Lane
	dt       float64
	tick     uint64
	maxTicks uint64
	logger   kitlog.Logger
	recorder *Recorder
	metrics  simMetrics
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger. Simulations are silent by default.
func WithLogger(logger kitlog.Logger) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// WithRecorder streams every lane state to the recorder after each tick.
func WithRecorder(r *Recorder) Option {
	return func(s *Simulation) {
		s.recorder = r
	}
}

// NewSimulation validates the configuration and spawns the lanes of the requested mode.
// The player pilot is required by the manual and race modes and ignored otherwise.
func NewSimulation(conf Config, mode Mode, player Pilot, opts ...Option) (*Simulation, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{Env: conf.Environment, dt: conf.Simulation.DT(), maxTicks: conf.Simulation.MaxTicks(), logger: kitlog.NewNopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = kitlog.With(s.logger, "mode", mode)
	if (mode == ModeManual || mode == ModeRace) && player == nil {
		return nil, fmt.Errorf("%w: %s mode needs a player", ErrInvalidConfig, mode)
	}

	sp := newSpawner(conf.Spawn, conf.Simulation.Seed)
	// Both race lanes start from the same draw.
	initial := sp.spawn(conf.Rocket, conf.Environment)
	newLane := func(name string, pilot Pilot) *Lane {
		logger := kitlog.With(s.logger, "lane", name)
		return &Lane{Name: name, State: initial, Pilot: pilot, judge: NewLandingJudge(conf.Judge, s.dt, logger)}
	}
	newAutopilot := func() *Autopilot {
		return NewAutopilot(conf.Autopilot, s.dt, kitlog.With(s.logger, "lane", "autopilot"))
	}

	switch mode {
	case ModeManual:
		s.run = ManualRun{Player: newLane("player", player)}
	case ModeAutopilot:
		s.run = AutopilotRun{Autopilot: newLane("autopilot", newAutopilot())}
	case ModeRace:
		s.run = RaceRun{Player: newLane("player", player), Autopilot: newLane("autopilot", newAutopilot())}
	default:
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, mode)
	}
	s.lanes = s.run.Lanes()
	s.metrics = newSimMetrics(s.logger)
	s.logger.Log("level", "info", "subsys", "sim", "rocket", conf.Rocket, "env", conf.Environment, "spawn", initial, "dt(s)", s.dt)
	return s, nil
}

// Run returns the mode variant and its lanes.
func (s *Simulation) Run() Run {
	return s.run
}

// Tick returns the number of ticks performed.
func (s *Simulation) Tick() uint64 {
	return s.tick
}

// DT returns the fixed time step in seconds.
func (s *Simulation) DT() float64 {
	return s.dt
}

// TimedOut returns whether the loop stopped on the timeout with a lane still flying.
func (s *Simulation) TimedOut() bool {
	return s.tick >= s.maxTicks && s.flying()
}

// Done returns whether every lane reached an outcome or the timeout elapsed.
func (s *Simulation) Done() bool {
	return !s.flying() || s.tick >= s.maxTicks
}

func (s *Simulation) flying() bool {
	for _, l := range s.lanes {
		if l.Flying() {
			return true
		}
	}
	return false
}

// Step performs one tick: every flying lane, in order, gets a command from its pilot,
// is advanced and is judged. It returns false once the simulation is done.
func (s *Simulation) Step() bool {
	if s.Done() {
		return false
	}
	s.tick++
	for _, l := range s.lanes {
		if !l.Flying() {
			continue
		}
		cmd := l.Pilot.Command(l.State, s.Env)
		l.State = Advance(l.State, cmd, s.Env, s.dt)
		l.last = cmd
		if s.recorder != nil {
			s.recorder.Record(s.tick, l.Name, l.State, cmd)
		}
		if o, done := l.judge.Evaluate(s.tick, l.State, s.Env); done {
			s.metrics.record(o, l.Name)
		}
	}
	s.metrics.ticks.Add(context.Background(), 1)
	if !s.Done() {
		return true
	}
	if s.TimedOut() {
		s.logger.Log("level", "critical", "subsys", "sim", "status", "killed", "tick", s.tick)
	}
	if race, ok := s.run.(RaceRun); ok {
		if w, ok := race.Winner(); ok {
			s.logger.Log("level", "notice", "subsys", "sim", "winner", w.Name)
		} else {
			s.logger.Log("level", "notice", "subsys", "sim", "winner", "none")
		}
	}
	if s.recorder != nil {
		if err := s.recorder.Flush(); err != nil {
			s.logger.Log("level", "error", "subsys", "export", "err", err)
		}
	}
	return false
}

// Propagate steps until done. The context is checked between ticks only.
func (s *Simulation) Propagate(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			s.logger.Log("level", "warning", "subsys", "sim", "status", "aborted", "tick", s.tick)
			return err
		}
		if !s.Step() {
			return nil
		}
	}
}

// LaneSnapshot is an immutable copy of a lane taken between ticks.
type LaneSnapshot struct {
	Name    string
	Tick    uint64
	State   RocketState
	Command Command
	Outcome *Outcome
}

// Snapshot returns a copy of every lane, in stepping order.
func (s *Simulation) Snapshot() []LaneSnapshot {
	snaps := make([]LaneSnapshot, len(s.lanes))
	for i, l := range s.lanes {
		snaps[i] = LaneSnapshot{Name: l.Name, Tick: s.tick, State: l.State, Command: l.last}
		if o, done := l.Outcome(); done {
			snaps[i].Outcome = &o
		}
	}
	return snaps
}

type simMetrics struct {
	outcomes  metric.Int64Counter
	touchdown metric.Float64Histogram
	ticks     metric.Int64Counter
}

func newSimMetrics(logger kitlog.Logger) simMetrics {
	meter := otel.Meter(instrumentationName)
	var m simMetrics
	var err error
	if m.outcomes, err = meter.Int64Counter("lander.outcomes", metric.WithDescription("Terminal landing outcomes")); err != nil {
		logger.Log("level", "warning", "subsys", "sim", "metric", "lander.outcomes", "err", err)
		m.outcomes = noop.Int64Counter{}
	}
	if m.touchdown, err = meter.Float64Histogram("lander.touchdown.speed", metric.WithDescription("Speed at contact"), metric.WithUnit("m/s")); err != nil {
		logger.Log("level", "warning", "subsys", "sim", "metric", "lander.touchdown.speed", "err", err)
		m.touchdown = noop.Float64Histogram{}
	}
	if m.ticks, err = meter.Int64Counter("lander.ticks", metric.WithDescription("Simulation ticks")); err != nil {
		logger.Log("level", "warning", "subsys", "sim", "metric", "lander.ticks", "err", err)
		m.ticks = noop.Int64Counter{}
	}
	return m
}

func (m simMetrics) record(o Outcome, lane string) {
	attrs := metric.WithAttributes(attribute.String("outcome", o.Classification.String()), attribute.String("lane", lane))
	m.outcomes.Add(context.Background(), 1, attrs)
	m.touchdown.Record(context.Background(), o.State.Speed(), attrs)
}
