// Package main provides the collect command: a full-archive search over an
// interval, written as one raw tweet file per window.
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
	"tweetnorm/pkg/utils"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	maxPerPage := flag.Int("max-per-page", 0, "Max number of results per API call (overrides config)")
	maxPages := flag.Int("max-pages", 0, "Max number of API calls per window, -1 for no limit (overrides config)")
	windowDays := flag.Int("window-days", 0, "Days per output file (overrides config)")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: collect [flags] <name> <query-file> <start YYYY-MM-DDTHH:MM:SS> <end YYYY-MM-DDTHH:MM:SS>")
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

	s := &a.Config.Search

	if *maxPerPage > 0 {
		s.MaxPerPage = *maxPerPage
	}

	if *maxPages != 0 {
		s.MaxPages = *maxPages
	}

	if *windowDays > 0 {
		s.WindowDays = *windowDays
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, a, flag.Args())
	stop()

	os.Exit(a.Exit(err))
}

func run(ctx context.Context, a *app.App, args []string) error {
	log := a.Logger
	s := a.Config.Search

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

	windows, err := crawler.SplitInterval(start, end, s.WindowDays)
	if err != nil {
		return err
	}

	query, err := crawler.LoadQuery(queryFile)
	if err != nil {
		return err
	}

	collector, err := a.Collector()
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	strs := utils.NewStringHelper()
	log.Info(fmt.Sprintf("🔎 Query: %s", strs.TruncateString(strs.NormalizeWhitespace(query), 200)))
	log.Info(fmt.Sprintf("🗓️  %d windows of %d days between %s and %s", len(windows), s.WindowDays,
		start.Format(time.RFC3339), end.Format(time.RFC3339)))

	startTime := time.Now()

	job := crawler.Job{
		Name:       name,
		QueryFile:  queryFile,
		Query:      query,
		Windows:    windows,
		MaxPerPage: s.MaxPerPage,
		MaxPages:   s.PageLimit(),
	}

	results, err := collector.Collect(ctx, job)
	report(results)

	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	log.Info(fmt.Sprintf("✨ Collection complete in %v", time.Since(startTime)))

	return nil
}

func report(results []crawler.WindowResult) {
	for _, r := range results {
		fmt.Printf("📄 %s: %d tweets in %d pages\n", r.Path, r.Tweets, r.Pages)
	}
}
