// Package crawler collects tweets from the full-archive search API into
// per-window NDJSON files.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SearchAllPath is the full-archive search endpoint.
const SearchAllPath = "/2/tweets/search/all"

// Expansions and fields requested with every page, matching what the
// reference archive client asks for so flattened tweets carry the author,
// referenced tweets and place.
var (
	searchExpansions = []string{
		"author_id",
		"in_reply_to_user_id",
		"referenced_tweets.id",
		"referenced_tweets.id.author_id",
		"entities.mentions.username",
		"attachments.poll_ids",
		"attachments.media_keys",
		"geo.place_id",
	}
	tweetFields = []string{
		"attachments", "author_id", "context_annotations", "conversation_id", "created_at",
		"entities", "geo", "id", "in_reply_to_user_id", "lang", "public_metrics", "text",
		"possibly_sensitive", "referenced_tweets", "reply_settings", "source", "withheld",
	}
	userFields = []string{
		"created_at", "description", "entities", "id", "location", "name", "pinned_tweet_id",
		"profile_image_url", "protected", "public_metrics", "url", "username", "verified", "withheld",
	}
	placeFields = []string{
		"contained_within", "country", "country_code", "full_name", "geo", "id", "name", "place_type",
	}
	mediaFields = []string{
		"alt_text", "duration_ms", "height", "media_key", "preview_image_url", "type", "url", "width",
		"public_metrics",
	}
	pollFields = []string{"duration_minutes", "end_datetime", "id", "options", "voting_status"}
)

// Page is one response of the search endpoint.
type Page struct {
	Data     []json.RawMessage `json:"data"`
	Includes Includes          `json:"includes"`
	Meta     Meta              `json:"meta"`
	Errors   []json.RawMessage `json:"errors,omitempty"`
}

// Includes holds the objects referenced by the tweets of a page.
type Includes struct {
	Users  []json.RawMessage `json:"users"`
	Tweets []json.RawMessage `json:"tweets"`
	Places []json.RawMessage `json:"places"`
	Media  []json.RawMessage `json:"media"`
	Polls  []json.RawMessage `json:"polls"`
}

// Meta carries pagination state.
type Meta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token"`
	NewestID    string `json:"newest_id"`
	OldestID    string `json:"oldest_id"`
}

// Query describes one search over a time window.
type Query struct {
	Query      string
	Start      time.Time
	End        time.Time
	MaxResults int
}

// Fetcher returns the body of a successful GET.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SearchClient pages through the full-archive search endpoint.
type SearchClient struct {
	fetcher  Fetcher
	endpoint string
}

// NewSearchClient creates a client for the API rooted at endpoint.
func NewSearchClient(fetcher Fetcher, endpoint string) *SearchClient {
	return &SearchClient{fetcher: fetcher, endpoint: strings.TrimRight(endpoint, "/")}
}

// PageURL builds the request URL of one page.
func (c *SearchClient) PageURL(q Query, nextToken string) string {
	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("start_time", q.Start.UTC().Format(time.RFC3339))
	params.Set("end_time", q.End.UTC().Format(time.RFC3339))

	if q.MaxResults > 0 {
		params.Set("max_results", strconv.Itoa(q.MaxResults))
	}

	if nextToken != "" {
		params.Set("next_token", nextToken)
	}

	params.Set("expansions", strings.Join(searchExpansions, ","))
	params.Set("tweet.fields", strings.Join(tweetFields, ","))
	params.Set("user.fields", strings.Join(userFields, ","))
	params.Set("place.fields", strings.Join(placeFields, ","))
	params.Set("media.fields", strings.Join(mediaFields, ","))
	params.Set("poll.fields", strings.Join(pollFields, ","))

	return c.endpoint + SearchAllPath + "?" + params.Encode()
}

// SearchPage fetches a single page.
func (c *SearchClient) SearchPage(ctx context.Context, q Query, nextToken string) (*Page, error) {
	body, err := c.fetcher.Fetch(ctx, c.PageURL(q, nextToken))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search page: %w", err)
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode search page: %w", err)
	}

	return &page, nil
}

// Search requests pages until the results are exhausted or maxPages pages
// were handled (-1 for no ceiling), calling fn on each page before the next
// one is requested. It returns the number of pages handled.
func (c *SearchClient) Search(ctx context.Context, q Query, maxPages int, fn func(*Page) error) (int, error) {
	nextToken := ""
	pages := 0

	for maxPages < 0 || pages < maxPages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		page, err := c.SearchPage(ctx, q, nextToken)
		if err != nil {
			return pages, err
		}

		pages++

		if err := fn(page); err != nil {
			return pages, err
		}

		if page.Meta.NextToken == "" {
			break
		}

		nextToken = page.Meta.NextToken
	}

	return pages, nil
}
