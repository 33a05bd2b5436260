// Package main provides the report command: records per cited news outlet and
// sentiment, as a markdown table.
package main

import (
	"flag"
	"fmt"
	"os"

	"tweetnorm/internal/app"
	"tweetnorm/internal/formatter"
	"tweetnorm/internal/news"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	table := flag.String("table", "", "News-outlet table, .csv or .xlsx (overrides config)")
	all := flag.Bool("all", false, "Count every cited domain, not only news outlets")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: report [flags] <processed or reduced file>")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	a, err := app.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	os.Exit(a.Exit(run(a, flag.Arg(0), *table, *all)))
}

func run(a *app.App, path, table string, all bool) error {
	var labeler formatter.Labeler

	if !all {
		t, err := a.Table(table)
		if err != nil {
			return err
		}

		labeler = t
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report := formatter.NewReport(labeler)

	err = news.EachRecord(f, func(rec news.Record) error {
		report.Add(rec.Domains(), rec.Sentiment())

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	fmt.Print(report.Table().Markdown())
	fmt.Printf("\n📊 %d records, %d domains\n", report.Total(), len(report.Tallies()))

	return nil
}
