// Package app wires configuration into the components the commands run.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tweetnorm/internal/config"
	"tweetnorm/internal/crawler"
	"tweetnorm/internal/expander"
	"tweetnorm/internal/logger"
	"tweetnorm/internal/news"
	"tweetnorm/internal/normalizer"
	"tweetnorm/internal/pipeline"
	"tweetnorm/internal/sentiment"
	"tweetnorm/internal/sink"
)

// App holds the loaded configuration and logger of one command run.
type App struct {
	Config *config.Config
	Logger *logger.Logger
}

// Load reads the configuration (config.ResolvePath semantics) and opens the
// logger it describes.
func Load(configPath string) (*App, error) {
	cfg, err := config.LoadConfig(config.ResolvePath(configPath))
	if err != nil {
		return nil, err
	}

	return New(cfg)
}

// New creates an app around an already validated configuration.
func New(cfg *config.Config) (*App, error) {
	log := logger.NewLogger(cfg.Logging.Level)

	if cfg.Logging.Dir != "" {
		fileLog, err := logger.NewFileLogger(cfg.Logging.Dir, cfg.Logging.Level)
		if err != nil {
			return nil, err
		}

		log = fileLog
	}

	return &App{Config: cfg, Logger: log}, nil
}

// Close releases the logger.
func (a *App) Close() error {
	return a.Logger.Close()
}

// Exit logs err, closes the app and returns the process exit code. Commands
// call it once, after every deferred cleanup of their run has happened.
func (a *App) Exit(err error) int {
	if err != nil {
		a.Logger.Error(fmt.Sprintf("❌ %v", err))
	}

	if closeErr := a.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to close log: %v\n", closeErr)

		return 1
	}

	if err != nil {
		return 1
	}

	return 0
}

// Collector builds the search collector. It needs a bearer token.
func (a *App) Collector() (*crawler.Collector, error) {
	s := a.Config.Search

	creds, err := config.LoadCredentials(s.CredentialsFile, s.EnvFile)
	if err != nil {
		return nil, err
	}

	scraper := crawler.NewScraper(&s.Retry, creds.BearerToken, s.RequestsPerSecond, a.Logger)

	return crawler.NewCollector(crawler.NewSearchClient(scraper, s.Endpoint), s.DataDir, a.Logger), nil
}

// Processor builds the record normalizer. Short links are only expanded when
// processing.try_expand is set.
func (a *App) Processor() *normalizer.Processor {
	p := a.Config.Processing
	e := a.Config.Expansion

	var urls *normalizer.URLResolver

	if p.TryExpand {
		detector := expander.NewDetector(e.ExtraShortDomains, e.ExtraPatterns)
		exp := expander.NewHTTPExpander(e.ExpansionTimeout(), e.RequestsPerSecond)
		urls = normalizer.NewURLResolver(detector, exp, a.Logger)
	}

	opts := normalizer.Options{ExpandShortLinks: p.TryExpand, Augment: p.Augment}

	return normalizer.NewProcessor(sentiment.NewVaderScorer(), urls, normalizer.NewDomainExtractor(a.Logger), opts, a.Logger)
}

// Pipeline builds the streaming pipeline around Processor.
func (a *App) Pipeline() *pipeline.Pipeline {
	p := a.Config.Processing

	opts := pipeline.Options{SkipRows: p.SkipRows, SkipMalformed: p.SkipMalformed}
	if p.Dedupe {
		opts.Dedupe = pipeline.NewDeduplicator(p.DedupeCapacity)
	}

	return pipeline.New(a.Processor(), opts, a.Logger)
}

// OpenSinks connects the enabled record sinks. The returned Multi must be
// closed by the caller; it is empty when no sink is enabled.
func (a *App) OpenSinks(ctx context.Context) (sink.Multi, error) {
	var sinks sink.Multi

	if c := a.Config.Sinks.AMQP; c.Enabled {
		s, err := sink.DialAMQP(c.URL, c.Queue)
		if err != nil {
			return nil, err
		}

		sinks = append(sinks, s)
		a.Logger.Info("publishing records", "queue", c.Queue)
	}

	if c := a.Config.Sinks.SQLite; c.Enabled {
		s, err := sink.OpenSQLite(ctx, c.Path)
		if err != nil {
			return nil, errors.Join(err, sinks.Close())
		}

		sinks = append(sinks, s)
		a.Logger.Info("archiving records", "path", c.Path)
	}

	return sinks, nil
}

// Table loads the news-outlet table at path, or news.table when path is empty.
func (a *App) Table(path string) (*news.Table, error) {
	n := a.Config.News
	if path == "" {
		path = n.Table
	}

	table, err := news.LoadTable(path, n.DomainColumn, n.LabelColumn)
	if err != nil {
		return nil, fmt.Errorf("news table: %w", err)
	}

	return table, nil
}

// Filter builds the news-source filter. Empty tablePath or attributes fall
// back to the configuration.
func (a *App) Filter(tablePath string, attributes []string) (*news.Filter, error) {
	table, err := a.Table(tablePath)
	if err != nil {
		return nil, err
	}

	if len(attributes) == 0 {
		attributes = a.Config.News.Attributes
	}

	return news.NewFilter(table, attributes, a.Logger)
}
