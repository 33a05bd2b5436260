// Package main provides the sample command: full-archive searches over N
// random single days of an interval.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"time"

	"tweetnorm/internal/app"
	"tweetnorm/internal/crawler"
	"tweetnorm/pkg/utils"
)

// maxSamplePerPage is the page size ceiling of sampled runs.
const maxSamplePerPage = 100

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	maxPerPage := flag.Int("max-per-page", 0, "Max number of results per API call, clamped to 100 (overrides config)")
	maxPages := flag.Int("max-pages", 0, "Max number of API calls per day, -1 for no limit (overrides config)")
	seed := flag.Uint64("seed", 0, "Random seed (0 picks one from the clock)")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sample [flags] <folder> <query-file> <n-days> <left YYYY-MM-DD> <right YYYY-MM-DD>")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 5 {
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

	// Larger pages are silently brought back to the ceiling.
	s.MaxPerPage = min(s.MaxPerPage, maxSamplePerPage)

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, a, flag.Args(), *seed)
	stop()

	os.Exit(a.Exit(err))
}

func run(ctx context.Context, a *app.App, args []string, seed uint64) error {
	log := a.Logger
	s := a.Config.Search

	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	folder, queryFile := args[0], args[1]

	n, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid number of days %q", args[2])
	}

	left, err := crawler.ParseTime(args[3])
	if err != nil {
		return err
	}

	right, err := crawler.ParseTime(args[4])
	if err != nil {
		return err
	}

	windows, err := crawler.RandomDays(left, right, n, rand.New(rand.NewPCG(seed, seed)))
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
	log.Info(fmt.Sprintf("🎲 Making %d queries for random days (seed %d)", n, seed))

	results, err := collector.Collect(ctx, crawler.Job{
		Name:       folder,
		QueryFile:  queryFile,
		Query:      query,
		Windows:    windows,
		MaxPerPage: s.MaxPerPage,
		MaxPages:   s.PageLimit(),
	})

	for _, r := range results {
		fmt.Printf("📄 %s: %d tweets in %d pages\n", r.Path, r.Tweets, r.Pages)
	}

	if err != nil {
		return fmt.Errorf("sampling failed: %w", err)
	}

	log.Info("✨ Sampling complete")

	return nil
}
