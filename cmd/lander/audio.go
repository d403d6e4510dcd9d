package main

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"golang.org/x/exp/rand"
)

const sampleRate = beep.SampleRate(44100)

// engineSound is a looping rumble whose loudness follows the throttle.
type engineSound struct {
	volume *effects.Volume
	ctrl   *beep.Ctrl
}

func newEngineSound() (*engineSound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	volume := &effects.Volume{Streamer: newRumble(), Base: 2, Silent: true}
	ctrl := &beep.Ctrl{Streamer: volume}
	speaker.Play(ctrl)
	return &engineSound{volume: volume, ctrl: ctrl}, nil
}

// set adapts the loudness to a throttle in percent.
func (e *engineSound) set(throttle float64) {
	speaker.Lock()
	defer speaker.Unlock()
	if throttle <= 0 {
		e.volume.Silent = true
		return
	}
	e.volume.Silent = false
	// 1% is 6.6 halvings quieter than full thrust.
	e.volume.Volume = math.Log2(throttle / 100)
}

func (e *engineSound) close() {
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	speaker.Close()
}

// rumble is low passed white noise.
type rumble struct {
	rnd  *rand.Rand
	last float64
}

func newRumble() *rumble {
	return &rumble{rnd: rand.New(rand.NewSource(uint64(time.Now().UnixNano())))}
}

// Stream implements the beep.Streamer interface. It never ends.
func (r *rumble) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		r.last += 0.02 * (2*r.rnd.Float64() - 1 - r.last)
		v := 0.6 * r.last
		samples[i][0], samples[i][1] = v, v
	}
	return len(samples), true
}

// Err implements the beep.Streamer interface.
func (r *rumble) Err() error {
	return nil
}
