// Package main provides the process command: raw tweet files to normalized
// records.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"tweetnorm/internal/app"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	tryExpand := flag.Bool("try-expand", true, "Expand short links over the network")
	skipRows := flag.Int("skip-rows", 2, "Leading lines to skip (the metadata header)")
	dedupe := flag.Bool("dedupe", false, "Drop tweets whose id was already processed in this run")
	augment := flag.Bool("augment", false, "Add retweet_from and effective_category")
	skipMalformed := flag.Bool("skip-malformed", false, "Log and skip malformed tweets instead of aborting")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: process [flags] <file>...")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	a, err := app.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	p := &a.Config.Processing

	// Flags given on the command line win over the configuration.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "try-expand":
			p.TryExpand = *tryExpand
		case "skip-rows":
			p.SkipRows = *skipRows
		case "dedupe":
			p.Dedupe = *dedupe
		case "augment":
			p.Augment = *augment
		case "skip-malformed":
			p.SkipMalformed = *skipMalformed
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, a, flag.Args())
	stop()

	os.Exit(a.Exit(err))
}

// run processes every input in order and stops at the first failure. Sinks are
// closed before it returns.
func run(ctx context.Context, a *app.App, inputs []string) error {
	log := a.Logger

	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	sinks, err := a.OpenSinks(ctx)
	if err != nil {
		return fmt.Errorf("failed to open sinks: %w", err)
	}

	defer func() {
		if closeErr := sinks.Close(); closeErr != nil {
			log.Warn(fmt.Sprintf("⚠️  Failed to close sinks: %v", closeErr))
		}
	}()

	pipe := a.Pipeline()

	if a.Config.Processing.TryExpand {
		log.Info("🔗 Short-link expansion enabled, this may take a while")
	}

	for _, input := range inputs {
		startTime := time.Now()

		output, stats, err := pipe.ProcessFile(ctx, input, sinks...)
		if err != nil {
			return fmt.Errorf("processing failed: %w", err)
		}

		log.Info(fmt.Sprintf("✅ %s -> %s: %d records (%d duplicates, %d skipped) in %v",
			input, output, stats.Written, stats.Duplicates, stats.Skipped, time.Since(startTime)))
	}

	log.Info("✨ Processing complete")

	return nil
}
