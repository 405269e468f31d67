package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/swim_computer/internal/app"
	"github.com/relabs-tech/swim_computer/internal/config"
	"github.com/relabs-tech/swim_computer/internal/sim"
)

func main() {
	configPath := flag.String("config", "./swim_config.txt", "path to configuration file")
	profilePath := flag.String("profile", "", "optional YAML swim profile")
	seed := flag.Int64("seed", 0, "noise seed (0 = profile seed)")
	opts := app.DefaultSimOptions()
	flag.DurationVar(&opts.Duration, "duration", opts.Duration, "simulated swim length")
	flag.Float64Var(&opts.Speed, "speed", opts.Speed, "playback speed (0 = as fast as possible)")
	flag.Parse()

	log.Println("starting swim-computer MQTT producer (simulated swimmer)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
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

	if err := app.RunSimulator(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
