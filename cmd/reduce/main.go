// Package main provides the reduce command: keep the processed records citing
// a news outlet, projected onto a few attributes.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"tweetnorm/internal/app"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	attributes := flag.String("attributes", "", "Comma-separated attributes to keep (overrides config)")
	table := flag.String("table", "", "News-outlet table, .csv or .xlsx (overrides config)")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: reduce [flags] <processed file or folder>")
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

	os.Exit(a.Exit(run(a, flag.Arg(0), *table, splitList(*attributes))))
}

func run(a *app.App, path, table string, attributes []string) error {
	filter, err := a.Filter(table, attributes)
	if err != nil {
		return err
	}

	targets, stats, err := filter.ReduceAndSave(path)
	if err != nil {
		return fmt.Errorf("reduction failed: %w", err)
	}

	for _, t := range targets {
		fmt.Printf("📄 %s -> %s\n", t.Input, t.Output)
	}

	a.Logger.Info(fmt.Sprintf("✨ Kept %d of %d records", stats.Kept, stats.Read))

	return nil
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}
