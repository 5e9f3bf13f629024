// Command realtr-straighten analyzes property photos for camera tilt, stages
// corrected copies, and promotes or discards them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/timdobras/Realtr-sub000/internal/config"
	"github.com/timdobras/Realtr-sub000/internal/straighten"
	"github.com/timdobras/Realtr-sub000/internal/version"
)

func main() {
	root := flag.String("root", "", "Root directory holding one folder per property (overrides config)")
	property := flag.String("property", "", "Property ID to analyze")
	acceptAll := flag.Bool("accept-all", false, "Promote every staged correction after the run")
	cleanup := flag.String("cleanup", "", "Remove the staging directory for one property and exit")
	cleanupAll := flag.Bool("cleanup-all", false, "Remove staging directories for all properties and exit")
	workers := flag.Int("workers", 0, "Concurrent image workers (0 = one per CPU)")
	seed := flag.Int64("seed", 0, "Random seed for reproducible runs (0 = time-based)")
	asJSON := flag.Bool("json", false, "Print results as JSON")
	verbose := flag.Bool("v", false, "Verbose logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("realtr-straighten %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading config")
	}
	if *root != "" {
		cfg.RootDir = *root
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if cfg.RootDir == "" {
		fmt.Fprintln(os.Stderr, "no root directory: pass -root or set root_dir in the config file")
		os.Exit(1)
	}

	engine := straighten.NewEngine(cfg)
	if *seed != 0 {
		engine.SetSeed(*seed)
	}

	switch {
	case *cleanupAll:
		if err := engine.CleanupAllStaging(); err != nil {
			logrus.WithError(err).Fatal("cleanup failed")
		}
		fmt.Println("All staging directories removed.")
		return
	case *cleanup != "":
		if err := engine.CleanupStaging(*cleanup); err != nil {
			logrus.WithError(err).Fatal("cleanup failed")
		}
		fmt.Printf("Staging removed for %s.\n", *cleanup)
		return
	}

	if *property == "" {
		fmt.Fprintf(os.Stderr, "realtr-straighten v%s\n", version.Version)
		fmt.Fprintln(os.Stderr, "Usage: realtr-straighten -root <dir> -property <id> [-accept-all] [-json]")
		fmt.Fprintln(os.Stderr, "       realtr-straighten -root <dir> -cleanup <id> | -cleanup-all")
		os.Exit(1)
	}

	results, err := engine.AnalyzeAndCorrect(context.Background(), *property)
	if err != nil {
		logrus.WithError(err).Fatal("batch run failed")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			logrus.WithError(err).Fatal("encoding results")
		}
	} else {
		printResults(results)
	}

	if *acceptAll {
		var accepted []straighten.AcceptedCorrection
		for _, r := range results {
			if r.StagedPath != "" {
				accepted = append(accepted, straighten.AcceptedCorrection{
					OriginalPath: r.OriginalPath,
					StagedPath:   r.StagedPath,
				})
			}
		}
		n, errs := engine.AcceptCorrections(accepted)
		fmt.Printf("\nPromoted %d/%d corrections.\n", n, len(accepted))
		for _, msg := range errs {
			fmt.Fprintf(os.Stderr, "  %s\n", msg)
		}
		if err := engine.CleanupStaging(*property); err != nil {
			logrus.WithError(err).Warn("could not clean staging after accept")
		}
	}
}

func printResults(results []straighten.CorrectionResult) {
	corrected := 0
	for _, r := range results {
		status := r.Decision
		if r.NeedsCorrection {
			corrected++
			status = fmt.Sprintf("%s %+.2f° (conf %.2f)", r.Decision, r.RotationDegrees, r.Confidence)
		} else if r.Reason != "" {
			status = fmt.Sprintf("%s (%s)", r.Decision, r.Reason)
		}
		fmt.Printf("%-40s %s\n", r.Filename, status)
	}
	fmt.Printf("\n%d/%d images staged for correction.\n", corrected, len(results))
}
