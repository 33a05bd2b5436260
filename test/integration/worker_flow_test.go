package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tweetnorm/internal/app"
	"tweetnorm/internal/config"
	"tweetnorm/internal/crawler"
	"tweetnorm/internal/formatter"
	"tweetnorm/internal/news"
)

func newFakeSearchAPI(t *testing.T) *httptest.Server {
	t.Helper()

	page, err := os.ReadFile(filepath.Join("..", "fixtures", "search_page.json"))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != crawler.SearchAllPath || r.Header.Get("Authorization") != "Bearer fixture-token" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(page)
	}))
}

func TestWorkerFlow_CollectProcessReduce(t *testing.T) {
	srv := newFakeSearchAPI(t)
	defer srv.Close()

	dir := t.TempDir()

	cfg := offlineConfig()
	cfg.Search.Endpoint = srv.URL
	cfg.Search.DataDir = dir
	cfg.Search.CredentialsFile = filepath.Join(dir, "missing.yaml")
	cfg.Search.EnvFile = ""
	cfg.Search.RequestsPerSecond = 0

	t.Setenv(config.BearerTokenEnv, "fixture-token")

	a, err := app.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// 1. Collection
	collector, err := a.Collector()
	if err != nil {
		t.Fatalf("Collector: %v", err)
	}

	start, _ := crawler.ParseTime("2021-02-01")
	end, _ := crawler.ParseTime("2021-02-02")

	windows, err := crawler.SplitInterval(start, end, cfg.Search.WindowDays)
	if err != nil {
		t.Fatal(err)
	}

	queryFile := filepath.Join(dir, "query.txt")
	if err := os.WriteFile(queryFile, []byte("reef OR floods"), 0644); err != nil {
		t.Fatal(err)
	}

	query, err := crawler.LoadQuery(queryFile)
	if err != nil {
		t.Fatal(err)
	}

	results, err := collector.Collect(context.Background(), crawler.Job{
		Name: "reef", QueryFile: queryFile, Query: query, Windows: windows,
		MaxPerPage: cfg.Search.MaxPerPage, MaxPages: cfg.Search.PageLimit(),
	})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(results) != 1 || results[0].Tweets != 2 {
		t.Fatalf("Expected one window with 2 tweets, got %+v", results)
	}

	rawPath := filepath.Join(dir, "reef", "2021-02-01T00-00_to_2021-02-02T00-00.json")
	if results[0].Path != rawPath {
		t.Errorf("Expected %s, got %s", rawPath, results[0].Path)
	}

	// 2. Processing
	processed, _, err := a.Pipeline().ProcessFile(context.Background(), rawPath)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	records := readRecords(t, processed)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	if records[0].Username != "mia" || records[0].CountryCode == nil || *records[0].CountryCode != "CH" {
		t.Errorf("Expected flattened author and place, got %+v", records[0])
	}

	rt := records[1]
	if rt.RetweetFrom == nil || *rt.RetweetFrom != "nina" {
		t.Errorf("Expected retweet_from nina, got %v", rt.RetweetFrom)
	}

	if len(rt.Domain) != 1 || rt.Domain[0] != "theguardian" {
		t.Errorf("Expected the retweeted link domain, got %v", rt.Domain)
	}

	// 3. Reduction
	filter, err := a.Filter("", nil)
	if err != nil {
		t.Fatal(err)
	}

	targets, stats, err := filter.ReduceAndSave(processed)
	if err != nil {
		t.Fatalf("ReduceAndSave failed: %v", err)
	}

	if stats.Read != 2 || stats.Kept != 2 {
		t.Errorf("Expected 2 of 2 records kept, got %+v", stats)
	}

	reduced, err := os.ReadFile(targets[0].Output)
	if err != nil {
		t.Fatal(err)
	}

	firstLine := strings.SplitN(string(reduced), "\n", 2)[0]
	if !strings.HasPrefix(firstLine, `{"created_at":"2021-02-01T10:00:00.000Z","username":"mia","follower_count":10,`) {
		t.Errorf("Unexpected reduced record %s", firstLine)
	}

	// 4. Report
	table, err := a.Table("")
	if err != nil {
		t.Fatal(err)
	}

	report := formatter.NewReport(table)

	f, err := os.Open(targets[0].Output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	err = news.EachRecord(f, func(rec news.Record) error {
		report.Add(rec.Domains(), rec.Sentiment())

		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	tallies := report.Tallies()
	if len(tallies) != 2 || tallies[0].Domain != "nytimes" || tallies[1].Domain != "theguardian" {
		t.Errorf("Unexpected tallies %+v", tallies)
	}

	if tallies[1].Label != "mainstream" {
		t.Errorf("Expected label mainstream, got %q", tallies[1].Label)
	}
}

func TestWorkerFlow_ReduceFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "climate")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}

	input := copyFixture(t, dir, "raw_tweets.json")

	a, err := app.New(offlineConfig())
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := a.Pipeline().ProcessFile(context.Background(), input); err != nil {
		t.Fatal(err)
	}

	// The folder now holds the raw and the processed file; reduce only the
	// processed one by moving the raw file out.
	if err := os.Rename(input, filepath.Join(filepath.Dir(dir), "raw_tweets.json")); err != nil {
		t.Fatal(err)
	}

	filter, err := a.Filter("", []string{"username", "domain"})
	if err != nil {
		t.Fatal(err)
	}

	targets, stats, err := filter.ReduceAndSave(dir)
	if err != nil {
		t.Fatalf("ReduceAndSave failed: %v", err)
	}

	if len(targets) != 1 || targets[0].Output != filepath.Join(dir+"_lightweight", "raw_tweets_processed.json") {
		t.Fatalf("Unexpected targets %+v", targets)
	}

	if stats.Kept != 3 {
		t.Errorf("Expected 3 records citing news outlets, got %d", stats.Kept)
	}

	if _, _, err := filter.ReduceAndSave(dir); err == nil {
		t.Error("Expected an error when the outputs already exist")
	}
}
