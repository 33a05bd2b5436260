package crawler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tweetnorm/internal/logger"
	"tweetnorm/pkg/metadata"
	"tweetnorm/pkg/utils"
)

// ErrEmptyQuery indicates a query file without a query.
var ErrEmptyQuery = errors.New("query is empty")

// Job describes one collection run: a query over a list of windows, written
// to <data dir>/<Name>/<window file name>.
type Job struct {
	Name       string
	QueryFile  string
	Query      string
	Windows    []Window
	MaxPerPage int
	MaxPages   int
	RunID      string
}

// WindowResult summarizes one collected window.
type WindowResult struct {
	Window Window
	Path   string
	Pages  int
	Tweets int
}

// Collector writes search results to per-window files.
type Collector struct {
	search  *SearchClient
	dataDir string
	logger  *logger.Logger
}

// NewCollector creates a collector writing under dataDir.
func NewCollector(search *SearchClient, dataDir string, log *logger.Logger) *Collector {
	if log == nil {
		log = logger.Nop()
	}

	return &Collector{search: search, dataDir: dataDir, logger: log}
}

// LoadQuery reads a query file verbatim.
func LoadQuery(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read query file %s: %w", path, err)
	}

	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyQuery, path)
	}

	return string(data), nil
}

// Plan returns the output path of every window of job. It fails when the name
// is invalid or any of the files already exists.
func (c *Collector) Plan(job Job) ([]string, error) {
	if err := utils.ValidateName(job.Name); err != nil {
		return nil, err
	}

	if len(job.Windows) == 0 {
		return nil, fmt.Errorf("%w: no windows to collect", ErrInvalidInterval)
	}

	dir := filepath.Join(c.dataDir, job.Name)
	paths := make([]string, len(job.Windows))

	for i, w := range job.Windows {
		paths[i] = filepath.Join(dir, w.FileName())
	}

	if err := utils.EnsureAbsent(paths...); err != nil {
		return nil, err
	}

	return paths, nil
}

// Collect runs job window after window. Every window file starts with the
// metadata header; each page is appended to it before the next page is
// requested, so an interrupted run keeps everything fetched so far.
func (c *Collector) Collect(ctx context.Context, job Job) ([]WindowResult, error) {
	if job.Query == "" {
		return nil, ErrEmptyQuery
	}

	paths, err := c.Plan(job)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(c.dataDir, job.Name), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]WindowResult, 0, len(job.Windows))

	for i, w := range job.Windows {
		res, err := c.collectWindow(ctx, job, w, paths[i])
		results = append(results, res)

		if err != nil {
			return results, fmt.Errorf("window %s: %w", w.FileName(), err)
		}
	}

	return results, nil
}

func (c *Collector) collectWindow(ctx context.Context, job Job, w Window, path string) (WindowResult, error) {
	res := WindowResult{Window: w, Path: path}

	header := metadata.NewHeader(job.QueryFile, job.Query, w.Start, w.End, job.MaxPerPage, job.MaxPages, job.RunID)
	if err := writeHeader(path, header); err != nil {
		return res, err
	}

	q := Query{Query: job.Query, Start: w.Start, End: w.End, MaxResults: job.MaxPerPage}

	pages, err := c.search.Search(ctx, q, job.MaxPages, func(page *Page) error {
		tweets, err := Flatten(page)
		if err != nil {
			return fmt.Errorf("failed to flatten page: %w", err)
		}

		if err := appendTweets(path, tweets); err != nil {
			return err
		}

		res.Tweets += len(tweets)
		c.logger.Info("page collected", "file", filepath.Base(path), "tweets", len(tweets), "total", res.Tweets)

		return nil
	})
	res.Pages = pages

	return res, err
}

func writeHeader(path string, header *metadata.Header) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", utils.ErrOutputExists, path)
		}

		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := header.Write(f); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}

func appendTweets(path string, tweets []Tweet) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, t := range tweets {
		if err := enc.Encode(t); err != nil {
			_ = f.Close()

			return fmt.Errorf("failed to write tweet: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}
