// Package main provides the unified worker command that combines collecting,
// processing, and reducing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"tweetnorm/internal/app"
	"tweetnorm/internal/crawler"
	"tweetnorm/internal/news"
)

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configFile := flag.String("config", "", "Path to YAML configuration file")
	maxPages := flag.Int("max-pages", 0, "Max number of API calls per window, -1 for no limit (overrides config)")
	skipReduce := flag.Bool("skip-reduce", false, "Stop after processing")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: worker [flags] <name> <query-file> <start YYYY-MM-DDTHH:MM:SS> <end YYYY-MM-DDTHH:MM:SS>")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 4 {
		flag.Usage()
		os.Exit(1)
	}

	a, err := app.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *maxPages != 0 {
		a.Config.Search.MaxPages = *maxPages
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, a, flag.Args(), *skipReduce)
	stop()

	os.Exit(a.Exit(err))
}

// run drives the phases. Sinks are closed before it returns, also on failure.
func run(ctx context.Context, a *app.App, args []string, skipReduce bool) error {
	log := a.Logger

	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	name, queryFile := args[0], args[1]

	start, err := crawler.ParseTime(args[2])
	if err != nil {
		return err
	}

	end, err := crawler.ParseTime(args[3])
	if err != nil {
		return err
	}

	windows, err := crawler.SplitInterval(start, end, a.Config.Search.WindowDays)
	if err != nil {
		return err
	}

	query, err := crawler.LoadQuery(queryFile)
	if err != nil {
		return err
	}

	// The filter is built up front so a bad table fails before any request.
	var filter *news.Filter

	if !skipReduce {
		filter, err = a.Filter("", nil)
		if err != nil {
			return err
		}
	}

	collector, err := a.Collector()
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	log.Info("🚀 Starting tweetnorm worker pipeline")
	log.Info(fmt.Sprintf("📍 Query: %s (%d windows)", queryFile, len(windows)))

	startTime := time.Now()

	// 2. Collection
	// -------------
	log.Info("Phase 1: Collection...")

	results, err := collector.Collect(ctx, crawler.Job{
		Name:       name,
		QueryFile:  queryFile,
		Query:      query,
		Windows:    windows,
		MaxPerPage: a.Config.Search.MaxPerPage,
		MaxPages:   a.Config.Search.PageLimit(),
	})
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	collected := 0
	for _, r := range results {
		collected += r.Tweets
	}

	log.Info(fmt.Sprintf("✅ Collected %d tweets in %d files in %v", collected, len(results), time.Since(startTime)))

	// 3. Processing
	// -------------
	log.Info("Phase 2: Processing (Normalization)...")

	processStart := time.Now()

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
	processed := make([]string, 0, len(results))
	written := 0

	for _, r := range results {
		output, stats, err := pipe.ProcessFile(ctx, r.Path, sinks...)
		if err != nil {
			return fmt.Errorf("processing failed: %w", err)
		}

		processed = append(processed, output)
		written += stats.Written
	}

	log.Info(fmt.Sprintf("✅ Normalized %d records in %v", written, time.Since(processStart)))

	// 4. Reduction
	// ------------
	kept := 0

	if filter != nil {
		log.Info("Phase 3: Reduction (News-Source Filter)...")

		for _, path := range processed {
			_, stats, err := filter.ReduceAndSave(path)
			if err != nil {
				return fmt.Errorf("reduction failed: %w", err)
			}

			kept += stats.Kept
		}
	}

	// 5. Final Report
	// ---------------
	log.Info("✨ Pipeline Complete!")
	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Summary Report\n")
	fmt.Println("------------------------------------------------")
	fmt.Printf("Windows: %d\n", len(results))
	fmt.Printf("Tweets Collected: %d\n", collected)
	fmt.Printf("Records Normalized: %d\n", written)

	if filter != nil {
		fmt.Printf("Records Citing News Outlets: %d\n", kept)
	}

	fmt.Printf("Total Duration: %v\n", time.Since(startTime))
	fmt.Println("------------------------------------------------")

	return nil
}
