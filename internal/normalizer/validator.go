package normalizer

import (
	"errors"
	"fmt"

	"tweetnorm/internal/models"
)

// Validation errors.
var (
	ErrNilTweet     = errors.New("nil tweet")
	ErrMissingField = errors.New("missing required field")
)

// Validator checks that a raw tweet carries every field the normalizer reads
// unconditionally. A present key holding null counts as missing.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns ErrMissingField wrapped with the first missing field name.
func (v *Validator) Validate(tweet *models.RawTweet) error {
	if tweet == nil {
		return ErrNilTweet
	}

	required := []struct {
		name string
		ok   bool
	}{
		{"id", tweet.ID.Valid()},
		{"author_id", tweet.AuthorID.Valid()},
		{"created_at", tweet.CreatedAt.Valid()},
		{"lang", tweet.Lang.Valid()},
		{"text", tweet.Text.Valid()},
		{"author", tweet.Author.Valid()},
	}

	for _, f := range required {
		if !f.ok {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	author := tweet.Author.Value
	if !author.Username.Valid() {
		return fmt.Errorf("%w: author.username", ErrMissingField)
	}

	metrics, ok := author.PublicMetrics.Get()
	if !ok {
		return fmt.Errorf("%w: author.public_metrics", ErrMissingField)
	}

	if !metrics.FollowersCount.Valid() {
		return fmt.Errorf("%w: author.public_metrics.followers_count", ErrMissingField)
	}

	if !metrics.TweetCount.Valid() {
		return fmt.Errorf("%w: author.public_metrics.tweet_count", ErrMissingField)
	}

	return nil
}
