package crawler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetnorm/internal/config"
	"tweetnorm/internal/models"
	"tweetnorm/pkg/metadata"
	"tweetnorm/pkg/utils"
)

func fastPolicy() *config.RetryPolicy {
	return &config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    1,
		MaxDelayMs:        5,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}
}

func utc(s string) time.Time {
	t, err := ParseTime(s)
	if err != nil {
		panic(err)
	}

	return t
}

const page1 = `{
  "data": [
    {"id":"10","author_id":"1","created_at":"2021-01-01T10:00:00.000Z","lang":"en","text":"RT @bob: read this",
     "referenced_tweets":[{"type":"retweeted","id":"20"}],"geo":{"place_id":"p1"}}
  ],
  "includes": {
    "users": [
      {"id":"1","username":"alice","public_metrics":{"followers_count":5,"tweet_count":9}},
      {"id":"2","username":"bob","public_metrics":{"followers_count":50,"tweet_count":90}}
    ],
    "tweets": [
      {"id":"20","author_id":"2","text":"read this https://t.co/x","entities":{"urls":[{"url":"https://t.co/x","expanded_url":"https://example.com/a"}]}}
    ],
    "places": [{"id":"p1","country":"Switzerland","country_code":"CH","full_name":"Lausanne, Switzerland"}]
  },
  "meta": {"result_count":1,"next_token":"tok2"}
}`

const page2 = `{
  "data": [
    {"id":"11","author_id":"2","created_at":"2021-01-01T11:00:00.000Z","lang":"en","text":"plain"}
  ],
  "includes": {"users": [{"id":"2","username":"bob","public_metrics":{"followers_count":50,"tweet_count":90}}]},
  "meta": {"result_count":1}
}`

func TestFlatten(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(page1), &page))

	tweets, err := Flatten(&page)
	require.NoError(t, err)
	require.Len(t, tweets, 1)

	data, err := json.Marshal(tweets[0])
	require.NoError(t, err)

	var raw models.RawTweet
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "alice", raw.Author.Value.Username.Value)
	assert.Equal(t, "CH", raw.Geo.Value.CountryCode.Value)
	assert.Equal(t, "Switzerland", raw.Geo.Value.Country.Value)

	require.Len(t, raw.ReferencedTweets.Value, 1)
	parent := raw.ReferencedTweets.Value[0]
	assert.Equal(t, "retweeted", parent.Type)
	assert.Equal(t, "read this https://t.co/x", parent.Text.Value)
	assert.Equal(t, "bob", parent.Author.Value.Username.Value)
	assert.True(t, parent.Entities.Present)
}

func TestFlatten_MissingIncludes(t *testing.T) {
	page := &Page{Data: []json.RawMessage{
		json.RawMessage(`{"id":"1","author_id":"404","referenced_tweets":[{"type":"quoted","id":"999"}]}`),
	}}

	tweets, err := Flatten(page)
	require.NoError(t, err)

	_, hasAuthor := tweets[0]["author"]
	assert.False(t, hasAuthor)

	refs := tweets[0]["referenced_tweets"].([]any)
	assert.Equal(t, map[string]any{"type": "quoted", "id": "999"}, refs[0])
}

func TestSplitInterval(t *testing.T) {
	windows, err := SplitInterval(utc("2021-01-01T00:00:00"), utc("2021-01-10T12:00:00"), 4)
	require.NoError(t, err)
	require.Len(t, windows, 3)

	assert.Equal(t, "2021-01-01T00-00_to_2021-01-05T00-00.json", windows[0].FileName())
	assert.Equal(t, "2021-01-05T00-00_to_2021-01-09T00-00.json", windows[1].FileName())
	assert.Equal(t, "2021-01-09T00-00_to_2021-01-10T12-00.json", windows[2].FileName())

	_, err = SplitInterval(utc("2021-01-02"), utc("2021-01-01"), 4)
	assert.True(t, errors.Is(err, ErrInvalidInterval))

	_, err = ParseTime("01/02/2021")
	assert.True(t, errors.Is(err, ErrInvalidInterval))
}

func TestRandomDays(t *testing.T) {
	left, right := utc("2021-01-01"), utc("2021-01-10")

	windows, err := RandomDays(left, right, 10, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	require.Len(t, windows, 10)

	for i, w := range windows {
		assert.Equal(t, left.AddDate(0, 0, i), w.Start, "all days, in order")
		assert.Equal(t, 24*time.Hour, w.End.Sub(w.Start))
	}

	a, err := RandomDays(left, right, 3, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	b, err := RandomDays(left, right, 3, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed, same days")

	_, err = RandomDays(left, right, 11, rand.New(rand.NewPCG(1, 2)))
	assert.True(t, errors.Is(err, ErrTooManySamples))
}

func newSearchServer(t *testing.T, pages map[string]string, hits *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)

		assert.Equal(t, SearchAllPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "climate", r.URL.Query().Get("query"))

		body, ok := pages[r.URL.Query().Get("next_token")]
		if !ok {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestSearchClient_Search(t *testing.T) {
	var hits int32

	srv := newSearchServer(t, map[string]string{"": page1, "tok2": page2}, &hits)
	defer srv.Close()

	client := NewSearchClient(NewScraper(fastPolicy(), "secret", 0, nil), srv.URL+"/")
	q := Query{Query: "climate", Start: utc("2021-01-01"), End: utc("2021-01-02"), MaxResults: 10}

	var counts []int

	pages, err := client.Search(context.Background(), q, -1, func(p *Page) error {
		counts = append(counts, p.Meta.ResultCount)

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, []int{1, 1}, counts)

	pages, err = client.Search(context.Background(), q, 1, func(*Page) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, pages, "page ceiling")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestSearchClient_PageURL(t *testing.T) {
	client := NewSearchClient(nil, "https://api.example.com")
	q := Query{Query: "a b", Start: utc("2021-01-01"), End: utc("2021-01-05"), MaxResults: 50}

	u := client.PageURL(q, "")
	assert.True(t, strings.HasPrefix(u, "https://api.example.com/2/tweets/search/all?"))
	assert.Contains(t, u, "start_time=2021-01-01T00%3A00%3A00Z")
	assert.Contains(t, u, "max_results=50")
	assert.Contains(t, u, "geo.place_id")
	assert.NotContains(t, u, "next_token")
}

func TestScraper_Retry(t *testing.T) {
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	body, status, _, err := NewScraper(fastPolicy(), "t", 0, nil).FetchWithMetrics(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "{}", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestScraper_NoRetryOnClientError(t *testing.T) {
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, status, _, err := NewScraper(fastPolicy(), "t", 0, nil).FetchWithMetrics(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, ErrUnexpectedStatusCode))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestScraper_ResetDelay(t *testing.T) {
	s := NewScraper(fastPolicy(), "t", 0, nil)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	h := http.Header{}
	h.Set(rateLimitResetHeader, "1002")
	assert.Equal(t, 5*time.Millisecond, s.resetDelay(h), "capped at max delay")

	h.Set(rateLimitResetHeader, "900")
	assert.Equal(t, time.Duration(0), s.resetDelay(h))

	assert.Equal(t, time.Duration(0), s.resetDelay(http.Header{}))
}

func TestCollector_Collect(t *testing.T) {
	var hits int32

	srv := newSearchServer(t, map[string]string{"": page1, "tok2": page2}, &hits)
	defer srv.Close()

	dir := t.TempDir()
	collector := NewCollector(NewSearchClient(NewScraper(fastPolicy(), "secret", 0, nil), srv.URL), dir, nil)

	windows, err := SplitInterval(utc("2021-01-01"), utc("2021-01-05"), 4)
	require.NoError(t, err)

	job := Job{Name: "climate", QueryFile: "q.txt", Query: "climate", Windows: windows, MaxPerPage: 10, MaxPages: -1, RunID: "run-1"}

	results, err := collector.Collect(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Pages)
	assert.Equal(t, 2, results[0].Tweets)

	path := filepath.Join(dir, "climate", "2021-01-01T00-00_to_2021-01-05T00-00.json")
	assert.Equal(t, path, results[0].Path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := metadata.Read(f)
	require.NoError(t, err)
	assert.Equal(t, "run-1", header.RunID)
	require.NoError(t, header.Verify())

	_, err = f.Seek(0, 0)
	require.NoError(t, err)

	var lines []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	require.Len(t, lines, 4)
	assert.Empty(t, lines[1], "blank separator after the header")
	assert.Contains(t, lines[2], `"username":"alice"`)
	assert.Contains(t, lines[3], `"id":"11"`)

	_, err = collector.Collect(context.Background(), job)
	assert.True(t, errors.Is(err, utils.ErrOutputExists))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "existing output aborts before any request")
}

func TestCollector_InvalidName(t *testing.T) {
	collector := NewCollector(nil, t.TempDir(), nil)

	_, err := collector.Collect(context.Background(), Job{Name: "a/b", Query: "q", Windows: []Window{{}}})
	assert.True(t, errors.Is(err, utils.ErrInvalidFilename))
}

func TestCollector_Cancelled(t *testing.T) {
	var hits int32

	srv := newSearchServer(t, map[string]string{"": page1}, &hits)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collector := NewCollector(NewSearchClient(NewScraper(fastPolicy(), "secret", 0, nil), srv.URL), t.TempDir(), nil)
	windows, _ := SplitInterval(utc("2021-01-01"), utc("2021-01-02"), 1)

	_, err := collector.Collect(ctx, Job{Name: "x", Query: "climate", Windows: windows, MaxPages: -1})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestLoadQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.txt")
	require.NoError(t, os.WriteFile(path, []byte("(climate OR weather) lang:en\n"), 0644))

	q, err := LoadQuery(path)
	require.NoError(t, err)
	assert.Equal(t, "(climate OR weather) lang:en\n", q)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	_, err = LoadQuery(empty)
	assert.True(t, errors.Is(err, ErrEmptyQuery))
}
