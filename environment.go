package falconlanding

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Environment holds the constants of a landing run. It is never mutated once a run starts.
type Environment struct {
	Gravity         float64 // m/s^2, positive
	PadCenter       r2.Vec  // Y is the height of the pad surface
	PadHalfWidth    float64 // m
	GroundY         float64 // ground (sea) level used outside the pad
	DragCoefficient float64 // k_drag, drag force is k_drag*|v|^2
}

// NewEnvironment returns the drone ship environment: a 100 m wide pad
// five meters above the sea.
func NewEnvironment() Environment {
	return Environment{Gravity: 9.81, PadCenter: r2.Vec{X: 0, Y: 5}, PadHalfWidth: 50, GroundY: 0, DragCoefficient: 0.5}
}

// Validate returns an error if the environment cannot host a run.
func (e Environment) Validate() error {
	if !(e.Gravity > 0) {
		return fmt.Errorf("%w: gravity must be positive, got %f", ErrInvalidConfig, e.Gravity)
	}
	if !(e.PadHalfWidth > 0) {
		return fmt.Errorf("%w: pad half width must be positive, got %f", ErrInvalidConfig, e.PadHalfWidth)
	}
	if e.GroundY > e.PadCenter.Y {
		return fmt.Errorf("%w: ground level %f above pad surface %f", ErrInvalidConfig, e.GroundY, e.PadCenter.Y)
	}
	if e.DragCoefficient < 0 || math.IsNaN(e.DragCoefficient) {
		return fmt.Errorf("%w: drag coefficient must be non negative, got %f", ErrInvalidConfig, e.DragCoefficient)
	}
	return nil
}

// OverPad returns whether the horizontal position x lies within the pad.
func (e Environment) OverPad(x float64) bool {
	return math.Abs(x-e.PadCenter.X) <= e.PadHalfWidth
}

// SurfaceY returns the height of the surface right below the horizontal position x.
func (e Environment) SurfaceY(x float64) float64 {
	if e.OverPad(x) {
		return e.PadCenter.Y
	}
	return e.GroundY
}

func (e Environment) String() string {
	return fmt.Sprintf("g=%.2f pad=(%.1f, %.1f)±%.1f ground=%.1f k=%.3f", e.Gravity, e.PadCenter.X, e.PadCenter.Y, e.PadHalfWidth, e.GroundY, e.DragCoefficient)
}
