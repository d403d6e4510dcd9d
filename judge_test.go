package falconlanding

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// touchdownState returns a state centered on x whose lowest point is just below the surface.
func touchdownState(env Environment, x, vx, vy, θ float64, legs bool) RocketState {
	s := NewRocketState(NewFalcon(), r2.Vec{X: x, Y: 0}, r2.Vec{X: vx, Y: vy}, 0)
	s.Theta = θ
	s.LegsDeployed = legs
	s.Position.Y = env.SurfaceY(s.Contact().X) + (s.Position.Y - s.Bottom()) - 0.01
	return s
}

func TestClassify(t *testing.T) {
	env := NewEnvironment()
	conf := DefaultJudgeConfig()
	for _, tc := range []struct {
		name   string
		s      RocketState
		exp    Classification
		reason string
	}{
		{"soft", touchdownState(env, 0, 0, -1, 0, true), SuccessfulLanding, "landed"},
		{"pad edge", touchdownState(env, env.PadHalfWidth, 1.9, -2.9, Deg2rad(-4.9), true), SuccessfulLanding, "landed"},
		{"wrapped angle", touchdownState(env, 0, 0, -1, 2*math.Pi+Deg2rad(1), true), SuccessfulLanding, "landed"},
		{"no legs", touchdownState(env, 0, 0, -1, 0, false), CrashLanding, "landing legs not deployed"},
		{"too fast", touchdownState(env, 0, 0, -3.5, 0, true), CrashLanding, "crashed into pad"},
		{"drifting", touchdownState(env, 0, -2.5, -1, 0, true), CrashLanding, "crashed into pad"},
		{"tilted", touchdownState(env, 0, 0, -1, Deg2rad(-6), true), CrashLanding, "tipped over"},
		{"ocean", touchdownState(env, env.PadHalfWidth+1, 0, -1, 0, true), OutOfBoundsLanding, "crashed into ocean"},
		// Centered over the pad, but the tilted base reaches past its edge.
		{"overhang", touchdownState(env, env.PadHalfWidth-1, 0, -1, Deg2rad(10), true), OutOfBoundsLanding, "crashed into ocean"},
	} {
		c, reason, done := Classify(tc.s, env, conf)
		if !done {
			t.Fatalf("%s: no contact detected at bottom %f", tc.name, tc.s.Bottom())
		}
		if c != tc.exp || reason != tc.reason {
			t.Fatalf("%s: got %s (%s) instead of %s (%s)", tc.name, c, reason, tc.exp, tc.reason)
		}
	}
	// Above the pad, still flying.
	s := touchdownState(env, 0, 0, -1, 0, true)
	s.Position.Y += 0.02
	if _, _, done := Classify(s, env, conf); done {
		t.Fatal("rocket above the pad should be flying")
	}
	// Above the ground level next to the pad, still flying even if below the pad surface.
	s = touchdownState(env, env.PadHalfWidth+10, 0, -1, 0, true)
	s.Position.Y += 1
	if s.Bottom() > env.PadCenter.Y {
		t.Fatal("invalid test setup")
	}
	if _, _, done := Classify(s, env, conf); done {
		t.Fatal("rocket above the ocean should be flying")
	}
}

func TestClassificationString(t *testing.T) {
	for _, c := range []Classification{SuccessfulLanding, CrashLanding, OutOfBoundsLanding, FuelExhaustedMidair} {
		if c.String() == "" {
			t.Fatalf("empty string for %d", c)
		}
		if c.Success() != (c == SuccessfulLanding) {
			t.Fatalf("%s success mismatch", c)
		}
	}
	assertPanic(t, func() {
		_ = Classification(0).String()
	})
}

func TestJudgeLatched(t *testing.T) {
	env := NewEnvironment()
	j := NewLandingJudge(DefaultJudgeConfig(), testDT, nil)
	flying := newTestState()
	if _, done := j.Evaluate(1, flying, env); done {
		t.Fatal("outcome while flying")
	}
	if _, done := j.Outcome(); done {
		t.Fatal("outcome recorded while flying")
	}
	crash := touchdownState(env, 0, 0, -50, 0, true)
	o, done := j.Evaluate(120, crash, env)
	if !done || o.Classification != CrashLanding || o.Tick != 120 {
		t.Fatalf("invalid outcome %s", o)
	}
	if math.Abs(o.Time.Seconds()-2) > 1e-6 {
		t.Fatalf("outcome time %s instead of 2s", o.Time)
	}
	// Later evaluations return the same outcome, whatever the state.
	for tick := uint64(121); tick < 130; tick++ {
		again, done := j.Evaluate(tick, touchdownState(env, 0, 0, -1, 0, true), env)
		if !done || again != o {
			t.Fatalf("outcome changed from %s to %s", o, again)
		}
	}
	if latched, _ := j.Outcome(); latched != o {
		t.Fatal("Outcome differs from Evaluate")
	}
}

func TestJudgeFuelExhausted(t *testing.T) {
	env := NewEnvironment()
	env.DragCoefficient = 0
	conf := DefaultJudgeConfig()
	s := newTestState()
	s.Fuel = 0
	if _, _, done := Classify(s, env, conf); done {
		t.Fatal("fuel exhaustion should not end the flight by default")
	}
	conf.StrictFuelExhaustion = true
	c, _, done := Classify(s, env, conf)
	if !done || c != FuelExhaustedMidair {
		t.Fatalf("expected %s, got %s (done=%v)", FuelExhaustedMidair, c, done)
	}
	// Close to the pad and slow: it can still land.
	slow := touchdownState(env, 0, 0, -1, 0, true)
	slow.Fuel = 0
	slow.Position.Y += 0.1
	if _, _, done := Classify(slow, env, conf); done {
		t.Fatal("a slow dry rocket just above the pad can still land")
	}
	// With fuel left nothing is certain.
	s.Fuel = 1
	if _, _, done := Classify(s, env, conf); done {
		t.Fatal("outcome declared with fuel left")
	}
	// No drag bound: continue to contact.
	s.Fuel = 0
	env.DragCoefficient = 0.5
	if _, _, done := Classify(s, env, conf); done {
		t.Fatal("outcome declared with drag")
	}
}
