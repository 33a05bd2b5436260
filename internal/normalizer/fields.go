package normalizer

import "tweetnorm/internal/models"

// FieldExtractor copies the atomic fields of a validated tweet into a record.
type FieldExtractor struct{}

// NewFieldExtractor creates a new field extractor.
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{}
}

// Extract fills the preserved top-level fields, the author-derived fields and
// the location of rec. The tweet must have passed Validator.Validate.
func (e *FieldExtractor) Extract(tweet *models.RawTweet, rec *models.NormalizedRecord) {
	rec.ID = tweet.ID.Value
	rec.AuthorID = tweet.AuthorID.Value
	rec.CreatedAt = tweet.CreatedAt.Value
	rec.Lang = tweet.Lang.Value
	rec.Text = tweet.Text.Value

	author := tweet.Author.Value
	metrics := author.PublicMetrics.Value
	rec.Username = author.Username.Value
	rec.FollowerCount = metrics.FollowersCount.Value
	rec.TweetCount = metrics.TweetCount.Value

	rec.Country, rec.CountryCode = e.location(tweet)
}

// location returns nil for any part of the geo object that is absent or null.
func (e *FieldExtractor) location(tweet *models.RawTweet) (*string, *string) {
	geo, ok := tweet.Geo.Get()
	if !ok {
		return nil, nil
	}

	return optString(geo.Country), optString(geo.CountryCode)
}

func optString(o models.Opt[string]) *string {
	v, ok := o.Get()
	if !ok {
		return nil
	}

	return &v
}
