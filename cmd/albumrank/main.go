// Command albumrank runs the Rolling Stone 500 regression analysis: it loads
// the album table, imputes missing popularity scores, fits the simple and
// complex rank models and writes tables, plots and report.yaml.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"albumrank/pkg/config"
	"albumrank/pkg/logging"
	"albumrank/pkg/pipeline"
	"albumrank/pkg/report"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	source := flag.String("source", "", "CSV URL or file path")
	seed := flag.Int64("seed", 0, "imputer seed (0 seeds from the clock)")
	out := flag.String("out", "", "output directory")
	plots := flag.Bool("plots", true, "write PNG plots")
	level := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("albumrank: %v", err)
	}
	// Flags set on the command line override the file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *source
		case "seed":
			cfg.Imputer.Seed = *seed
		case "out":
			cfg.OutputDir = *out
		case "plots":
			cfg.Plots = *plots
		case "log-level":
			cfg.Logging.Level = *level
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("albumrank: %v", err)
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		log.Fatalf("albumrank: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	state, err := pipeline.Analyze(ctx, cfg, logger)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	report.WriteText(os.Stdout, state)
	path, err := report.WriteRecord(cfg.OutputDir, state)
	if err != nil {
		logger.Error("write record", "error", err)
		os.Exit(1)
	}
	logger.Info("wrote record", "path", path)

	if cfg.Plots {
		files, err := report.WritePlots(cfg.OutputDir, state)
		if err != nil {
			logger.Error("write plots", "error", err)
			os.Exit(1)
		}
		logger.Info("wrote plots", "dir", cfg.OutputDir, "files", len(files))
	}
	fmt.Printf("\nPreferred model: %s\n", state.Comparison.Preferred)
}
