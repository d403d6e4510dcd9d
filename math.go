package falconlanding

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	deg2rad = math.Pi / 180
	// g0 is the standard gravity used to convert a specific impulse into a mass flow.
	g0 = 9.80665
)

// side returns -1, 0 or 1 depending on the sign of v.
func side(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// bodyAxis returns the unit vector along the rocket's long axis, nose up, for an
// orientation θ measured counter-clockwise from the vertical.
func bodyAxis(θ float64) r2.Vec {
	s, c := math.Sincos(θ)
	return r2.Vec{X: -s, Y: c}
}

// Deg2rad converts degrees to radians.
func Deg2rad(a float64) float64 {
	return a * deg2rad
}

// Rad2deg converts radians to degrees.
func Rad2deg(a float64) float64 {
	return a / deg2rad
}

// wrapAngle returns the angle in radians wrapped to ]-π, π].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
