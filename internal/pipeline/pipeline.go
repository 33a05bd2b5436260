package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"tweetnorm/internal/logger"
	"tweetnorm/internal/models"
	"tweetnorm/internal/sink"
	"tweetnorm/pkg/utils"
)

// ProcessedSuffix names the normalized output of a raw file.
const ProcessedSuffix = "_processed"

// Normalizer turns one raw tweet into one record.
type Normalizer interface {
	Normalize(ctx context.Context, tweet *models.RawTweet) (*models.NormalizedRecord, error)
}

// Options configures a pipeline run.
type Options struct {
	// SkipRows leading lines are ignored (the collector's metadata header).
	SkipRows int
	// SkipMalformed logs and skips bad lines instead of aborting the run.
	SkipMalformed bool
	// Dedupe drops tweets whose id was already written. Nil disables it.
	Dedupe *Deduplicator
}

// Stats summarizes a run.
type Stats struct {
	Lines      int
	Written    int
	Duplicates int
	Skipped    int
}

// Pipeline streams raw tweets through a normalizer, one record at a time.
type Pipeline struct {
	normalizer Normalizer
	opts       Options
	logger     *logger.Logger
}

// New creates a pipeline.
func New(n Normalizer, opts Options, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}

	return &Pipeline{normalizer: n, opts: opts, logger: log}
}

// Run reads NDJSON tweets from r and writes every normalized record to s. A
// malformed line or a tweet missing a required field aborts the run with an
// error naming the line, unless SkipMalformed is set.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, s sink.Sink) (Stats, error) {
	var stats Stats

	lines := NewLineReader(r, p.opts.SkipRows)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		line, lineNo, err := lines.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}

		if err != nil {
			return stats, err
		}

		stats.Lines++

		tweet, err := parseLine(line, lineNo)
		if err == nil && p.duplicate(tweet) {
			stats.Duplicates++
			p.logger.Debug("duplicate tweet skipped", "id", tweet.ID.Value, "line", lineNo)

			continue
		}

		var rec *models.NormalizedRecord
		if err == nil {
			rec, err = p.normalizer.Normalize(ctx, tweet)
			if err != nil {
				err = fmt.Errorf("line %d: %w", lineNo, err)
			}
		}

		if err != nil {
			if !p.opts.SkipMalformed || errors.Is(err, context.Canceled) {
				return stats, err
			}

			stats.Skipped++
			p.logger.Warn("skipping malformed tweet", "line", lineNo, "error", err)

			continue
		}

		if p.opts.Dedupe != nil {
			p.opts.Dedupe.Add(rec.ID)
		}

		if err := s.Write(ctx, rec); err != nil {
			return stats, err
		}

		stats.Written++
	}
}

// duplicate checks the raw id, before any short link of the tweet is expanded.
// Ids are added only once a record normalizes, so a bad line never hides a
// later good one.
func (p *Pipeline) duplicate(tweet *models.RawTweet) bool {
	if p.opts.Dedupe == nil {
		return false
	}

	id, ok := tweet.ID.Get()

	return ok && id != "" && p.opts.Dedupe.Seen(id)
}

func parseLine(line []byte, lineNo int) (*models.RawTweet, error) {
	if err := CheckObject(line, lineNo); err != nil {
		return nil, err
	}

	var tweet models.RawTweet
	if err := json.Unmarshal(line, &tweet); err != nil {
		return nil, fmt.Errorf("%w %d: %w", ErrMalformedLine, lineNo, err)
	}

	return &tweet, nil
}

// OutputPath returns <input without extension>_processed.json.
func OutputPath(input string) string {
	return utils.DerivedPath(input, ProcessedSuffix, ".json")
}

// ProcessFile normalizes input into OutputPath(input), also writing every
// record to extra sinks. An existing output aborts before input is read; a
// failed run removes its partial output.
func (p *Pipeline) ProcessFile(ctx context.Context, input string, extra ...sink.Sink) (string, Stats, error) {
	output := OutputPath(input)

	if err := utils.EnsureAbsent(output); err != nil {
		return "", Stats{}, err
	}

	in, err := os.Open(input)
	if err != nil {
		return "", Stats{}, fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer in.Close()

	file, err := sink.CreateFile(output)
	if err != nil {
		return "", Stats{}, err
	}

	sinks := append(sink.Multi{file}, extra...)

	stats, err := p.Run(ctx, in, sinks)

	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = closeErr
	}

	if err != nil {
		if rmErr := os.Remove(output); rmErr != nil {
			p.logger.Warn("failed to remove partial output", "path", output, "error", rmErr)
		}

		return "", stats, fmt.Errorf("%s: %w", input, err)
	}

	return output, stats, nil
}
