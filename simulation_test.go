package falconlanding

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

// calmConfig spawns upright without rotation right above the pad.
func calmConfig() Config {
	conf := DefaultConfig()
	conf.Spawn = SpawnConfig{Altitude: 1000, VY: -100}
	conf.Judge = JudgeConfig{SafeVX: 2, SafeVY: 2, SafeAngle: Deg2rad(5)}
	return conf
}

func propagate(t *testing.T, sim *Simulation) {
	t.Helper()
	if err := sim.Propagate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !sim.Done() {
		t.Fatal("simulation not done after propagation")
	}
	if sim.Step() {
		t.Fatal("a done simulation should not step")
	}
}

func TestSimulationAutopilotLands(t *testing.T) {
	sim, err := NewSimulation(calmConfig(), ModeAutopilot, nil)
	if err != nil {
		t.Fatal(err)
	}
	propagate(t, sim)
	if sim.TimedOut() {
		t.Fatal("timed out")
	}
	run, ok := sim.Run().(AutopilotRun)
	if !ok {
		t.Fatalf("unexpected run %T", sim.Run())
	}
	o, done := run.Autopilot.Outcome()
	if !done || o.Classification != SuccessfulLanding {
		t.Fatalf("autopilot did not land: %s", o)
	}
	if math.Abs(o.State.Velocity.Y) > 2 || o.State.Fuel <= 0 || !o.State.LegsDeployed {
		t.Fatalf("invalid touchdown state %s", o.State)
	}
	if o.Tick != sim.Tick() {
		t.Fatalf("outcome at tick %d, simulation stopped at %d", o.Tick, sim.Tick())
	}
	ap := run.Autopilot.Pilot.(*Autopilot)
	if ign, ok := ap.Ignition(); !ok || ign.Tick >= o.Tick {
		t.Fatalf("invalid ignition %+v", ign)
	}
}

func TestSimulationAutopilotTumbling(t *testing.T) {
	conf := calmConfig()
	conf.Spawn.OmegaMin, conf.Spawn.OmegaMax = -0.1, 0.1
	for seed := uint64(1); seed <= 3; seed++ {
		conf.Simulation.Seed = seed
		sim, err := NewSimulation(conf, ModeAutopilot, nil)
		if err != nil {
			t.Fatal(err)
		}
		propagate(t, sim)
		o, _ := sim.Run().Lanes()[0].Outcome()
		if o.Classification != SuccessfulLanding {
			t.Fatalf("seed %d: %s", seed, o)
		}
	}
}

func TestSimulationNoFuel(t *testing.T) {
	conf := calmConfig()
	conf.Rocket.FuelCapacity = 0
	sim, err := NewSimulation(conf, ModeAutopilot, nil)
	if err != nil {
		t.Fatal(err)
	}
	propagate(t, sim)
	o, _ := sim.Run().Lanes()[0].Outcome()
	if o.Classification != CrashLanding || o.Reason != "crashed into pad" {
		t.Fatalf("expected a crash into the pad: %s", o)
	}
	if o.State.Fuel != 0 || o.State.EngineOn {
		t.Fatalf("dry rocket burnt: %s", o.State)
	}
}

func TestSimulationOutOfBounds(t *testing.T) {
	conf := calmConfig()
	conf.Spawn.XOffset = 4 * conf.Environment.PadHalfWidth
	sim, err := NewSimulation(conf, ModeAutopilot, nil)
	if err != nil {
		t.Fatal(err)
	}
	propagate(t, sim)
	o, _ := sim.Run().Lanes()[0].Outcome()
	if o.Classification != OutOfBoundsLanding || o.Reason != "crashed into ocean" {
		t.Fatalf("expected an out of bounds landing: %s", o)
	}
}

func TestSimulationManualFreeFall(t *testing.T) {
	sim, err := NewSimulation(calmConfig(), ModeManual, NewScript())
	if err != nil {
		t.Fatal(err)
	}
	propagate(t, sim)
	run := sim.Run().(ManualRun)
	o, _ := run.Player.Outcome()
	if o.Classification != CrashLanding || o.Reason != "landing legs not deployed" {
		t.Fatalf("expected a crash without legs: %s", o)
	}
	if o.State.Fuel != NewFalcon().FuelCapacity {
		t.Fatal("fuel burnt without throttle")
	}
}

func TestSimulationRace(t *testing.T) {
	c := calmConfig()
	// Record a flight aiming at a faster touchdown, then replay it as the player.
	fast := DefaultAutopilotConfig()
	fast.TouchdownSpeed = 1.5
	ap := NewAutopilot(fast, c.Simulation.DT(), nil)
	var cmds []Command
	recording := PilotFunc(func(s RocketState, env Environment) Command {
		cmd := ap.Command(s, env)
		cmds = append(cmds, cmd)
		return cmd
	})
	solo, err := NewSimulation(c, ModeManual, recording)
	if err != nil {
		t.Fatal(err)
	}
	propagate(t, solo)
	so, _ := solo.Run().Lanes()[0].Outcome()
	if !so.Classification.Success() {
		t.Fatalf("recorded flight did not land: %s", so)
	}

	sim, err := NewSimulation(c, ModeRace, NewScript(cmds...))
	if err != nil {
		t.Fatal(err)
	}
	snaps := sim.Snapshot()
	if len(snaps) != 2 || snaps[0].Name != "player" || snaps[1].Name != "autopilot" {
		t.Fatalf("invalid lanes %+v", snaps)
	}
	if snaps[0].State != snaps[1].State {
		t.Fatal("race lanes should spawn identically")
	}
	propagate(t, sim)
	race := sim.Run().(RaceRun)
	po, _ := race.Player.Outcome()
	ao, _ := race.Autopilot.Outcome()
	if po != so {
		t.Fatalf("replay diverged:\n%s\n%s", so, po)
	}
	if !ao.Classification.Success() {
		t.Fatalf("autopilot did not land: %s", ao)
	}
	w, ok := race.Winner()
	if !ok || w != race.Player || po.Tick >= ao.Tick {
		t.Fatalf("player should win: %d vs %d", po.Tick, ao.Tick)
	}
}

func TestSimulationRaceTie(t *testing.T) {
	c := calmConfig()
	player := NewAutopilot(c.Autopilot, c.Simulation.DT(), nil)
	sim, err := NewSimulation(c, ModeRace, player)
	if err != nil {
		t.Fatal(err)
	}
	propagate(t, sim)
	race := sim.Run().(RaceRun)
	po, _ := race.Player.Outcome()
	ao, _ := race.Autopilot.Outcome()
	if po.Tick != ao.Tick || !po.Classification.Success() {
		t.Fatalf("identical pilots should land together:\n%s\n%s", po, ao)
	}
	if w, ok := race.Winner(); ok {
		t.Fatalf("no winner expected on a tie, got %s", w.Name)
	}
}

func TestSimulationTimeout(t *testing.T) {
	c := calmConfig()
	c.Simulation.Timeout = time.Second
	sim, err := NewSimulation(c, ModeManual, NewScript())
	if err != nil {
		t.Fatal(err)
	}
	propagate(t, sim)
	if !sim.TimedOut() || sim.Tick() != 60 {
		t.Fatalf("expected a timeout after 60 ticks, got %d (timed out: %v)", sim.Tick(), sim.TimedOut())
	}
	if _, done := sim.Run().Lanes()[0].Outcome(); done {
		t.Fatal("timed out lane should have no outcome")
	}
}

func TestSimulationCancel(t *testing.T) {
	sim, err := NewSimulation(calmConfig(), ModeAutopilot, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sim.Propagate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected a cancellation, got %v", err)
	}
	if sim.Tick() != 0 {
		t.Fatalf("stepped %d times after cancellation", sim.Tick())
	}
}

func TestSimulationInvalid(t *testing.T) {
	c := calmConfig()
	c.Simulation.Step = 0
	if _, err := NewSimulation(c, ModeAutopilot, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero step accepted: %v", err)
	}
	if _, err := NewSimulation(calmConfig(), ModeManual, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("manual mode without a player accepted: %v", err)
	}
	if _, err := NewSimulation(calmConfig(), Mode(42), NewScript()); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("unknown mode accepted: %v", err)
	}
}

func TestSimulationRecorder(t *testing.T) {
	c := calmConfig()
	c.Simulation.Timeout = time.Second
	var buf bytes.Buffer
	rec := NewRecorder(&buf, c.Simulation.Epoch, c.Simulation.DT())
	sim, err := NewSimulation(c, ModeRace, NewScript(), WithRecorder(rec))
	if err != nil {
		t.Fatal(err)
	}
	propagate(t, sim)
	points, err := ReadTrajectory(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2*60 {
		t.Fatalf("recorded %d points instead of 120", len(points))
	}
	if points[0].Lane != "player" || points[1].Lane != "autopilot" || points[0].Tick != 1 {
		t.Fatalf("invalid ordering: %+v %+v", points[0], points[1])
	}
}

func TestSimulationSeed(t *testing.T) {
	c := DefaultConfig()
	spawn := func(seed uint64) RocketState {
		c.Simulation.Seed = seed
		sim, err := NewSimulation(c, ModeAutopilot, nil)
		if err != nil {
			t.Fatal(err)
		}
		return sim.Snapshot()[0].State
	}
	if spawn(3) != spawn(3) {
		t.Fatal("same seed gave different spawns")
	}
	if spawn(3).Omega == spawn(4).Omega {
		t.Fatal("different seeds gave the same spin")
	}
}
