package falconlanding

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()
	if err := conf.Validate(); err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(conf.Simulation.DT(), 1./60, 1e-9) {
		t.Fatalf("dt=%f", conf.Simulation.DT())
	}
	if conf.Simulation.MaxTicks() != 5*60*60 {
		t.Fatalf("max ticks=%d", conf.Simulation.MaxTicks())
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeScenario(t, `
[rocket]
fuel = 3000

[engine]
thrust = 900000
isp = 300

[judge]
safe_angle = 10
strict_fuel = true

[simulation]
step = "10ms"
seed = 42

[spawn]
vy = -80
`)
	t.Setenv("LANDER_SPAWN_ALTITUDE", "500")
	conf, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Rocket.FuelCapacity != 3000 {
		t.Fatalf("fuel=%f", conf.Rocket.FuelCapacity)
	}
	if conf.Rocket.DryMass != NewFalcon().DryMass {
		t.Fatal("unset keys should keep their default")
	}
	if conf.Rocket.Engine.Max() != 900000 {
		t.Fatalf("engine thrust=%f", conf.Rocket.Engine.Max())
	}
	if conf.Rocket.RCS.Max() != new(ColdGas).Max() {
		t.Fatal("RCS should keep its default")
	}
	if conf.Rocket.NitrogenCapacity != NewFalcon().NitrogenCapacity {
		t.Fatalf("nitrogen=%f", conf.Rocket.NitrogenCapacity)
	}
	if !scalar.EqualWithinAbs(conf.Judge.SafeAngle, Deg2rad(10), 1e-12) || !conf.Judge.StrictFuelExhaustion {
		t.Fatalf("invalid judge %+v", conf.Judge)
	}
	if !scalar.EqualWithinAbs(conf.Autopilot.AngleDeadband, DefaultAutopilotConfig().AngleDeadband, 1e-12) {
		t.Fatalf("dead band=%f", conf.Autopilot.AngleDeadband)
	}
	if conf.Simulation.Step != 10*time.Millisecond || conf.Simulation.Seed != 42 {
		t.Fatalf("invalid simulation %+v", conf.Simulation)
	}
	if !conf.Simulation.Epoch.Equal(DefaultConfig().Simulation.Epoch) {
		t.Fatalf("epoch=%s", conf.Simulation.Epoch)
	}
	if conf.Spawn.VY != -80 || conf.Spawn.Altitude != 500 {
		t.Fatalf("invalid spawn %+v", conf.Spawn)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("missing file should fail")
	}
	for _, content := range []string{
		"[environment]\ngravity = -9.81\n",
		"[environment]\npad_half_width = 0\n",
		"[environment]\nground_y = 10\n",
		"[rocket]\ndry_mass = 0\n",
		"[rocket]\nfuel = -1\n",
		"[judge]\nsafe_vy = -1\n",
		"[simulation]\nstep = \"0s\"\n",
		"[spawn]\naltitude = 0\n",
		"[spawn]\nomega_min = 1\nomega_max = -1\n",
		"[rocket]\nnitrogen = -1\n",
		"[engine]\nthrust = 900000\n",
		"[engine]\nisp = 300\n",
		"[engine]\nthrust = 900000\nisp = 0\n",
		"[rcs]\nthrust = 1000\n",
		"[rcs]\nthrust = 1000\nisp = -60\n",
	} {
		_, err := LoadConfig(writeScenario(t, content))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%q: expected an invalid configuration, got %v", content, err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	conf := DefaultConfig()
	conf.Rocket = nil
	if err := conf.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatal("missing rocket should be invalid")
	}
	conf = DefaultConfig()
	conf.Rocket.Engine = nil
	if err := conf.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatal("missing engine should be invalid")
	}
	conf = DefaultConfig()
	conf.Rocket.Engine = NewGenericThruster(900e3, 0)
	if err := conf.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatal("engine without isp should be invalid")
	}
	conf = DefaultConfig()
	conf.Rocket.RCS = NewGenericThruster(1000, math.NaN())
	if err := conf.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatal("RCS without isp should be invalid")
	}
	conf = DefaultConfig()
	conf.Environment.DragCoefficient = -1
	if err := conf.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatal("negative drag should be invalid")
	}
}
