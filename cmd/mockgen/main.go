package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"saletrace/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "reliable", "Scenario to generate: reliable, slow, deteriorating, chaotic")
	outDir := flag.String("out", "./data", "Output directory for the dataset files")
	clients := flag.Int("clients", 10, "Number of clients to generate")
	sales := flag.Int("sales", 8, "Sales per client")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:       *scenario,
		Clients:        *clients,
		SalesPerClient: *sales,
		Now:            time.Now().UTC(),
	}

	fmt.Printf("Generating scenario '%s' (%d clients, %d sales each) to %s...\n", cfg.Scenario, cfg.Clients, cfg.SalesPerClient, *outDir)

	dataset := engine.Generate(cfg)

	if err := engine.Save(*outDir, dataset); err != nil {
		fmt.Printf("Failed to save mock dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
