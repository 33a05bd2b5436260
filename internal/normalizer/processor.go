// Package normalizer turns raw tweets into flat normalized records.
package normalizer

import (
	"context"
	"fmt"

	"tweetnorm/internal/logger"
	"tweetnorm/internal/models"
	"tweetnorm/internal/sentiment"
)

// Options toggles the optional steps of the processor.
type Options struct {
	// ExpandShortLinks resolves detected short links over the network.
	ExpandShortLinks bool
	// Augment adds retweet_from and effective_category to every record.
	Augment bool
}

// Processor composes the normalization steps into one record per tweet.
type Processor struct {
	validator *Validator
	fields    *FieldExtractor
	scorer    sentiment.Scorer
	urls      *URLResolver
	domains   *DomainExtractor
	opts      Options
	logger    *logger.Logger
}

// NewProcessor creates a new processor instance. The scorer is shared by every
// record the processor handles; nil urls or domains get defaults without
// short-link expansion.
func NewProcessor(scorer sentiment.Scorer, urls *URLResolver, domains *DomainExtractor, opts Options, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}

	if urls == nil {
		urls = NewURLResolver(nil, nil, log)
	}

	if domains == nil {
		domains = NewDomainExtractor(log)
	}

	return &Processor{
		validator: NewValidator(),
		fields:    NewFieldExtractor(),
		scorer:    scorer,
		urls:      urls,
		domains:   domains,
		opts:      opts,
		logger:    log,
	}
}

// Normalize builds the record for one tweet. The only error is a missing
// required field; every optional branch degrades to null or a default.
func (p *Processor) Normalize(ctx context.Context, tweet *models.RawTweet) (*models.NormalizedRecord, error) {
	// 1. Validate the input data
	if err := p.validator.Validate(tweet); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	rec := &models.NormalizedRecord{}
	p.fields.Extract(tweet, rec)

	// 2. Classify, then resolve everything that depends on the category
	rec.Category = Classify(tweet)

	text, ok := ResolveText(tweet, rec.Category)
	if !ok {
		p.logger.Warn("retweet parent has no text, using own text", "id", rec.ID)
	}

	rec.OriginalText = text
	rec.Sentiment = p.scorer.Score(rec.OriginalText)

	rec.URLs = p.urls.Resolve(ctx, tweet, rec.Category, p.opts.ExpandShortLinks)

	rec.Hashtags = ExtractHashtags(tweet, rec.Category)
	rec.Domain, rec.DomainSuffix = p.domains.Extract(rec.URLs)

	if p.opts.Augment {
		rec.RetweetFrom = RetweetFrom(tweet, rec.Category)
		rec.EffectiveCategory = EffectiveCategory(rec.Category)
	}

	return rec, nil
}
