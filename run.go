package falconlanding

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mode defines an enum of game modes.
type Mode uint8

const (
	// ModeManual is a single rocket flown by the player.
	ModeManual Mode = iota + 1
	// ModeAutopilot is a single rocket flown by the autopilot.
	ModeAutopilot
	// ModeRace puts the player against the autopilot.
	ModeRace
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeAutopilot:
		return "autopilot"
	case ModeRace:
		return "race"
	}
	panic("cannot stringify unknown mode")
}

// ParseMode returns the mode matching its name.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeManual, ModeAutopilot, ModeRace} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
}

// Lane is one rocket of a run with its pilot and judge.
type Lane struct {
	Name  string
	State RocketState
	Pilot Pilot
	last  Command
	judge *LandingJudge
}

// Outcome returns the terminal outcome of this lane, if any.
func (l *Lane) Outcome() (Outcome, bool) {
	return l.judge.Outcome()
}

// Flying returns whether the lane has not reached a terminal outcome yet.
func (l *Lane) Flying() bool {
	_, done := l.judge.Outcome()
	return !done
}

// Run is the closed set of game modes, each holding exactly its lanes.
type Run interface {
	Mode() Mode
	Lanes() []*Lane
}

// ManualRun is a single player controlled rocket.
type ManualRun struct {
	Player *Lane
}

// Mode implements the Run interface.
func (r ManualRun) Mode() Mode { return ModeManual }

// Lanes implements the Run interface.
func (r ManualRun) Lanes() []*Lane { return []*Lane{r.Player} }

// AutopilotRun is a single autonomous rocket.
type AutopilotRun struct {
	Autopilot *Lane
}

// Mode implements the Run interface.
func (r AutopilotRun) Mode() Mode { return ModeAutopilot }

// Lanes implements the Run interface.
func (r AutopilotRun) Lanes() []*Lane { return []*Lane{r.Autopilot} }

// RaceRun runs the player and the autopilot from identical spawns in lockstep.
type RaceRun struct {
	Player, Autopilot *Lane
}

// Mode implements the Run interface.
func (r RaceRun) Mode() Mode { return ModeRace }

// Lanes implements the Run interface. The player is always stepped first.
func (r RaceRun) Lanes() []*Lane { return []*Lane{r.Player, r.Autopilot} }

// Winner returns the lane which landed successfully first. There is no winner if
// neither landed or if both landed on the same tick.
func (r RaceRun) Winner() (*Lane, bool) {
	p, pOK := r.Player.Outcome()
	a, aOK := r.Autopilot.Outcome()
	return raceWinner(r.Player, p, pOK && p.Classification.Success(), r.Autopilot, a, aOK && a.Classification.Success())
}

func raceWinner(l1 *Lane, o1 Outcome, ok1 bool, l2 *Lane, o2 Outcome, ok2 bool) (*Lane, bool) {
	switch {
	case ok1 && ok2:
		if o1.Tick < o2.Tick {
			return l1, true
		}
		if o2.Tick < o1.Tick {
			return l2, true
		}
		return nil, false
	case ok1:
		return l1, true
	case ok2:
		return l2, true
	}
	return nil, false
}

// spawner draws the initial states of a run from a seeded source.
type spawner struct {
	conf  SpawnConfig
	omega distuv.Uniform
	x     distuv.Uniform
}

func newSpawner(conf SpawnConfig, seed uint64) *spawner {
	src := rand.NewSource(seed)
	return &spawner{
		conf:  conf,
		omega: distuv.Uniform{Min: conf.OmegaMin, Max: conf.OmegaMax, Src: src},
		x:     distuv.Uniform{Min: -conf.XSpread, Max: conf.XSpread, Src: src},
	}
}

// spawn returns a new state above the pad of the environment.
func (sp *spawner) spawn(r *Rocket, env Environment) RocketState {
	x := env.PadCenter.X + sp.conf.XOffset
	if sp.conf.XSpread > 0 {
		x += sp.x.Rand()
	}
	y := env.PadCenter.Y + sp.conf.Altitude + 0.5*r.Height
	ω := sp.conf.OmegaMin
	if sp.conf.OmegaMax > sp.conf.OmegaMin {
		ω = sp.omega.Rand()
	}
	return NewRocketState(r, r2.Vec{X: x, Y: y}, r2.Vec{X: 0, Y: sp.conf.VY}, ω)
}
