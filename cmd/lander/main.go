package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/ashokolarov/FalconLanding"
	kitlog "github.com/go-kit/log"
)

// This code reads the scenario, then either flies it in the terminal or propagates it headless.

var (
	scenario string
	modeName string
	seed     uint64
	headless bool
	csvPath  string
	logPath  string
	mute     bool
)

func init() {
	flag.StringVar(&scenario, "scenario", "", "scenario TOML file (defaults are used if unset)")
	flag.StringVar(&modeName, "mode", "race", "game mode: manual, autopilot or race")
	flag.Uint64Var(&seed, "seed", 0, "spawn seed, overrides the scenario if set")
	flag.BoolVar(&headless, "headless", false, "propagate without the terminal interface (autopilot mode only)")
	flag.StringVar(&csvPath, "csv", "", "export the trajectory of every lane to this CSV file")
	flag.StringVar(&logPath, "log", "", "log file (stderr when headless, disabled otherwise)")
	flag.BoolVar(&mute, "mute", false, "disable the engine sound")
}

func main() {
	flag.Parse()
	mode, err := falconlanding.ParseMode(modeName)
	if err != nil {
		log.Fatal(err)
	}
	if headless && mode != falconlanding.ModeAutopilot {
		log.Fatalf("%s mode needs a player: headless runs are autopilot only", mode)
	}

	conf := falconlanding.DefaultConfig()
	if scenario != "" {
		if conf, err = falconlanding.LoadConfig(scenario); err != nil {
			log.Fatal(err)
		}
	}
	if seed > 0 {
		conf.Simulation.Seed = seed
	}

	logger := kitlog.NewNopLogger()
	switch {
	case logPath != "":
		f, err := os.Create(logPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(f))
	case headless:
		logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	}
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)

	opts := []falconlanding.Option{falconlanding.WithLogger(logger)}
	var rec *falconlanding.Recorder
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		rec = falconlanding.NewRecorder(f, conf.Simulation.Epoch, conf.Simulation.DT())
		opts = append(opts, falconlanding.WithRecorder(rec))
	}
	// A run quit early never reaches the final flush of the simulation.
	flush := func() {
		if rec == nil {
			return
		}
		if err := rec.Flush(); err != nil {
			log.Printf("exporting %s: %s", csvPath, err)
		}
	}

	if headless {
		sim, err := falconlanding.NewSimulation(conf, mode, nil, opts...)
		if err != nil {
			log.Fatal(err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = sim.Propagate(ctx)
		flush()
		if err != nil {
			log.Fatal(err)
		}
		report(sim)
		return
	}

	player := newKeyboardPilot()
	sim, err := falconlanding.NewSimulation(conf, mode, player, opts...)
	if err != nil {
		log.Fatal(err)
	}
	ui, err := newTUI(sim, player, conf, logger)
	if err != nil {
		log.Fatal(err)
	}
	ui.run()
	ui.close()
	flush()
	report(sim)
}

// report prints the outcome of every lane.
func report(sim *falconlanding.Simulation) {
	for _, snap := range sim.Snapshot() {
		if snap.Outcome == nil {
			fmt.Printf("%s: no outcome after %d ticks\n", snap.Name, snap.Tick)
			continue
		}
		fmt.Printf("%s: %s\n", snap.Name, snap.Outcome)
	}
	if race, ok := sim.Run().(falconlanding.RaceRun); ok {
		if w, ok := race.Winner(); ok {
			fmt.Printf("winner: %s\n", w.Name)
		} else {
			fmt.Println("no winner")
		}
	}
}
