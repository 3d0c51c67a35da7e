// Command validate checks a bot config YAML file loads and passes
// config.Load's validation without starting any service.
package main

import (
	"fmt"
	"os"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <config.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	path := os.Args[1]
	fmt.Printf("Validating %s...\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	if len(cfg.Game.WheelSectors) == 0 {
		fmt.Fprintln(os.Stderr, "Validation failed: game.wheel_sectors must not be empty")
		os.Exit(1)
	}
	if len(cfg.Game.SectorWeights) != 0 && len(cfg.Game.SectorWeights) != len(cfg.Game.WheelSectors) {
		fmt.Fprintln(os.Stderr, "Validation failed: game.sector_weights, if set, must match game.wheel_sectors in length")
		os.Exit(1)
	}

	fmt.Println("Config file is valid.")
}
