package falconlanding

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"gonum.org/v1/gonum/spatial/r2"
)

var trajectoryHeader = []string{"jd", "tick", "lane", "x", "y", "vx", "vy", "theta", "omega", "throttle", "fuel", "nitrogen", "engine", "rcs", "legs"}

// Recorder writes one CSV record per lane and per tick.
// Records are <jd> <tick> <lane> <x> <y> <vx> <vy> <θ> <ω> <throttle> <fuel> <nitrogen> <engine> <rcs> <legs>,
// time is the Julian date of the tick from the configured epoch, θ is in degrees.
type Recorder struct {
	out    io.Writer
	w      *csv.Writer
	epoch  time.Time
	dt     float64
	header bool
	err    error
}

// NewRecorder returns a recorder writing to out. The caller owns out.
func NewRecorder(out io.Writer, epoch time.Time, dt float64) *Recorder {
	return &Recorder{out: out, w: csv.NewWriter(out), epoch: epoch.UTC(), dt: dt}
}

// Record appends the state of a lane. Write errors are kept and returned by Flush.
func (r *Recorder) Record(tick uint64, lane string, s RocketState, cmd Command) {
	if r.err != nil {
		return
	}
	if !r.header {
		r.header = true
		if _, err := fmt.Fprintf(r.out, "# Creation date (UTC): %s\n# Simulation epoch (UTC): %s\n# Step (s): %f\n", time.Now().UTC(), r.epoch, r.dt); err != nil {
			r.err = err
			return
		}
		if r.err = r.w.Write(trajectoryHeader); r.err != nil {
			return
		}
	}
	dt := r.epoch.Add(time.Duration(float64(tick) * r.dt * float64(time.Second)))
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	r.err = r.w.Write([]string{
		f(julian.TimeToJD(dt)),
		strconv.FormatUint(tick, 10),
		lane,
		f(s.Position.X), f(s.Position.Y),
		f(s.Velocity.X), f(s.Velocity.Y),
		f(Rad2deg(s.Theta)), f(s.Omega),
		f(s.Throttle), f(s.Fuel), f(s.Nitrogen),
		strconv.FormatBool(s.EngineOn),
		cmd.RCS.String(),
		strconv.FormatBool(s.LegsDeployed),
	})
}

// Flush writes any buffered record and returns the first error met.
func (r *Recorder) Flush() error {
	if r.err != nil {
		return r.err
	}
	r.w.Flush()
	return r.w.Error()
}

// TrajectoryPoint is one parsed record of a trajectory file.
type TrajectoryPoint struct {
	JD       float64
	Tick     uint64
	Lane     string
	Position r2.Vec
	Velocity r2.Vec
	Theta    float64 // deg
	Omega    float64
	Throttle float64
	Fuel     float64
	Nitrogen float64
	EngineOn bool
	RCS      string
	Legs     bool
}

// ReadTrajectory parses a trajectory written by a Recorder.
func ReadTrajectory(in io.Reader) ([]TrajectoryPoint, error) {
	r := csv.NewReader(in)
	r.Comment = '#'
	r.FieldsPerRecord = len(trajectoryHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || strings.Join(records[0], ",") != strings.Join(trajectoryHeader, ",") {
		return nil, fmt.Errorf("missing trajectory header")
	}
	points := make([]TrajectoryPoint, 0, len(records)-1)
	for i, record := range records[1:] {
		var p TrajectoryPoint
		var floatErr error
		num := func(s string) float64 {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil && floatErr == nil {
				floatErr = err
			}
			return v
		}
		p.JD = num(record[0])
		if p.Tick, err = strconv.ParseUint(record[1], 10, 64); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		p.Lane = record[2]
		p.Position = r2.Vec{X: num(record[3]), Y: num(record[4])}
		p.Velocity = r2.Vec{X: num(record[5]), Y: num(record[6])}
		p.Theta = num(record[7])
		p.Omega = num(record[8])
		p.Throttle = num(record[9])
		p.Fuel = num(record[10])
		p.Nitrogen = num(record[11])
		if floatErr != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, floatErr)
		}
		if p.EngineOn, err = strconv.ParseBool(record[12]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		p.RCS = record[13]
		if p.Legs, err = strconv.ParseBool(record[14]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		points = append(points, p)
	}
	return points, nil
}
