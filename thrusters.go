package falconlanding

import "fmt"

// Thruster defines a thruster interface.
type Thruster interface {
	// Max returns the thrust in Newtons at full throttle.
	Max() float64
	// Thrust returns the thrust in Newtons and the isp in seconds for a throttle level in [0, 1].
	Thrust(level float64) (thrust, isp float64)
}

// massFlow returns the propellant mass flow in kg/s of a thruster at the given level.
func massFlow(t Thruster, level float64) float64 {
	thrust, isp := t.Thrust(level)
	if thrust == 0 || isp <= 0 {
		return 0
	}
	return thrust / (isp * g0)
}

func checkLevel(level float64) {
	if level < 0 || level > 1 {
		panic(fmt.Errorf("unsupported throttle level %f", level))
	}
}

/* Available thrusters */

// Merlin1D is the sea level engine of a landing Falcon 9 first stage.
type Merlin1D struct{}

// Max implements the Thruster interface.
func (t *Merlin1D) Max() float64 {
	return 845e3
}

// Thrust implements the Thruster interface.
func (t *Merlin1D) Thrust(level float64) (thrust, isp float64) {
	checkLevel(level)
	return level * t.Max(), 296.5
}

// ColdGas is the nitrogen reaction control thruster pair.
type ColdGas struct{}

// Max implements the Thruster interface.
func (t *ColdGas) Max() float64 {
	return 25e3
}

// Thrust implements the Thruster interface.
// Cold gas valves are on or off, so any positive level gives full thrust.
func (t *ColdGas) Thrust(level float64) (thrust, isp float64) {
	checkLevel(level)
	if level == 0 {
		return 0, 60
	}
	return t.Max(), 60
}

// GenericThruster is a generic throttleable thruster.
type GenericThruster struct {
	thrust float64
	isp    float64
}

// Max implements the Thruster interface.
func (t *GenericThruster) Max() float64 {
	return t.thrust
}

// Thrust implements the Thruster interface.
func (t *GenericThruster) Thrust(level float64) (thrust, isp float64) {
	checkLevel(level)
	return level * t.thrust, t.isp
}

// NewGenericThruster returns a generic thruster.
func NewGenericThruster(thrust, isp float64) *GenericThruster {
	return &GenericThruster{thrust, isp}
}
