// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/swim_computer/internal/app"
	"github.com/relabs-tech/swim_computer/internal/config"
	"github.com/relabs-tech/swim_computer/internal/fusion"
	"github.com/relabs-tech/swim_computer/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "optional configuration file; only pipeline keys are used, MQTT_BROKER may be omitted")
	profilePath := flag.String("profile", "", "optional YAML swim profile")
	seed := flag.Int64("seed", 0, "noise seed (0 = profile seed)")
	opts := app.DefaultSimOptions()
	flag.DurationVar(&opts.Duration, "duration", opts.Duration, "simulated swim length")
	flag.Float64Var(&opts.Speed, "speed", 0, "playback speed (0 = as fast as possible)")
	flag.Parse()

	log.Println("starting swim-computer (mock console)")

	cfg := fusion.DefaultConfig()
	if *configPath != "" {
		c, err := config.LoadPipeline(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = c.Fusion()
	}

	if *profilePath != "" {
		p, err := sim.LoadProfile(*profilePath)
		if err != nil {
			log.Fatalf("failed to load profile: %v", err)
		}
		opts.Profile = p
	}
	if *seed != 0 {
		opts.Profile.Seed = *seed
	}

	if err := app.RunMockConsole(cfg, opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
