package normalizer

import (
	"context"
	"regexp"
	"strings"

	"tweetnorm/internal/expander"
	"tweetnorm/internal/logger"
	"tweetnorm/internal/models"
)

// textURLPattern finds links in a retweeted parent's text when the parent was
// flattened without its entities.
var textURLPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// ShortLinkDetector decides which URLs are worth expanding.
type ShortLinkDetector interface {
	IsShort(rawURL string) bool
}

// URLResolver extracts the URLs of a tweet and optionally expands short links.
type URLResolver struct {
	detector ShortLinkDetector
	expander expander.Expander
	logger   *logger.Logger
}

// NewURLResolver creates a resolver. A nil expander disables expansion.
func NewURLResolver(detector ShortLinkDetector, exp expander.Expander, log *logger.Logger) *URLResolver {
	if log == nil {
		log = logger.Nop()
	}

	return &URLResolver{
		detector: detector,
		expander: exp,
		logger:   log,
	}
}

// Resolve returns the tweet URLs in source order, or nil when there are none.
// With expand set, every detected short link is replaced by its destination;
// failed expansions keep the original URL.
func (r *URLResolver) Resolve(ctx context.Context, tweet *models.RawTweet, category models.Category, expand bool) []string {
	urls := collectURLs(tweet, category)
	if len(urls) == 0 {
		return nil
	}

	if !expand || r.expander == nil || r.detector == nil {
		return urls
	}

	for i, u := range urls {
		if !r.detector.IsShort(u) {
			continue
		}

		res := r.expander.Expand(ctx, u)
		if !res.OK() {
			r.logger.Debug("short link kept unexpanded", "url", u, "error", res.Err)
		}

		urls[i] = res.Or(u)
	}

	return urls
}

func collectURLs(tweet *models.RawTweet, category models.Category) []string {
	if ref, ok := parent(tweet, category); ok && !ref.Entities.Valid() {
		return urlsFromText(ref.Text.Value)
	}

	entities, ok := sourceEntities(tweet, category)
	if !ok {
		return nil
	}

	list, _ := entities.URLs.Get()

	urls := make([]string, 0, len(list))

	for _, entry := range list {
		if u := entryURL(entry); u != "" {
			urls = append(urls, u)
		}
	}

	return urls
}

// entryURL prefers the unwound destination, then the expanded URL. An entry
// with neither is dropped.
func entryURL(entry models.URLEntity) string {
	for _, o := range []models.Opt[string]{entry.UnwoundURL, entry.ExpandedURL} {
		if v, ok := o.Get(); ok && v != "" {
			return v
		}
	}

	return ""
}

func urlsFromText(text string) []string {
	matches := textURLPattern.FindAllString(text, -1)

	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if m = strings.TrimRight(m, ".,;:!?)]}'…"); m != "" {
			urls = append(urls, m)
		}
	}

	return urls
}
