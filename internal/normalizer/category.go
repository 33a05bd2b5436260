package normalizer

import "tweetnorm/internal/models"

// Classify returns the tweet category: the referenced tweet types in source
// order, one tag per entry as given, or [tweeted] when the tweet references
// nothing.
func Classify(tweet *models.RawTweet) models.Category {
	refs, _ := tweet.ReferencedTweets.Get()
	if len(refs) == 0 {
		return models.Category{models.TagTweeted}
	}

	category := make(models.Category, len(refs))
	for i, ref := range refs {
		category[i] = models.Tag(ref.Type)
	}

	return category
}

// parent returns the first referenced tweet when the category is exactly
// [retweeted]. Every branch that reads from the retweeted parent goes through
// here, so mixed categories always use the tweet's own content.
func parent(tweet *models.RawTweet, category models.Category) (models.ReferencedTweet, bool) {
	if !category.IsRetweet() {
		return models.ReferencedTweet{}, false
	}

	refs, ok := tweet.ReferencedTweets.Get()
	if !ok || len(refs) == 0 {
		return models.ReferencedTweet{}, false
	}

	return refs[0], true
}

// ResolveText returns the retweeted parent's text for a bare retweet and the
// tweet's own text otherwise. The second result is false when a retweet parent
// had no text and the tweet's own text was used instead.
func ResolveText(tweet *models.RawTweet, category models.Category) (string, bool) {
	if !category.IsRetweet() {
		return tweet.Text.Value, true
	}

	ref, ok := parent(tweet, category)
	if !ok {
		return tweet.Text.Value, false
	}

	text, ok := ref.Text.Get()
	if !ok {
		return tweet.Text.Value, false
	}

	return text, true
}

// sourceEntities picks the entity set URLs and hashtags are read from.
func sourceEntities(tweet *models.RawTweet, category models.Category) (models.Entities, bool) {
	if category.IsRetweet() {
		ref, ok := parent(tweet, category)
		if !ok {
			return models.Entities{}, false
		}

		return ref.Entities.Get()
	}

	return tweet.Entities.Get()
}

// ExtractHashtags returns the hashtags of the source entity set, or nil when
// there are none.
func ExtractHashtags(tweet *models.RawTweet, category models.Category) []string {
	entities, ok := sourceEntities(tweet, category)
	if !ok {
		return nil
	}

	tags, _ := entities.Hashtags.Get()

	var hashtags []string

	for _, h := range tags {
		if h.Tag != "" {
			hashtags = append(hashtags, h.Tag)
		}
	}

	return hashtags
}

// EffectiveCategory collapses a category to a single label, preferring
// retweet over quote over reply.
func EffectiveCategory(category models.Category) string {
	switch {
	case category.Has(models.TagRetweeted):
		return models.EffectiveRetweet
	case category.Has(models.TagQuoted):
		return models.EffectiveQuote
	case category.Has(models.TagRepliedTo):
		return models.EffectiveReply
	default:
		return models.EffectiveTweet
	}
}

// RetweetFrom returns the username of the retweeted author for a bare retweet
// whose parent carries its author.
func RetweetFrom(tweet *models.RawTweet, category models.Category) *string {
	ref, ok := parent(tweet, category)
	if !ok {
		return nil
	}

	author, ok := ref.Author.Get()
	if !ok {
		return nil
	}

	return optString(author.Username)
}
