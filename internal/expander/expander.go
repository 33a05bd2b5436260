package expander

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tweetnorm/pkg/utils"
)

// ErrExpansionFailed wraps every reason a short link could not be resolved.
var ErrExpansionFailed = errors.New("short link expansion failed")

// Result is the outcome of one expansion attempt. Err is nil on success, in
// which case URL holds the final destination.
type Result struct {
	URL string
	Err error
}

// OK reports whether the expansion succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.URL != ""
}

// Or returns the expanded URL, or fallback when the expansion failed.
func (r Result) Or(fallback string) string {
	if r.OK() {
		return r.URL
	}

	return fallback
}

// Expander resolves a short link to its final destination.
type Expander interface {
	Expand(ctx context.Context, shortURL string) Result
}

// HTTPExpander follows redirects over HTTP. A request is made for every call;
// results are memoized per URL for the lifetime of the expander.
type HTTPExpander struct {
	client  *http.Client
	limiter *rate.Limiter
	helper  *utils.HTTPHelper

	mu    sync.Mutex
	cache map[string]Result
}

// NewHTTPExpander creates an expander with a per-request timeout. A positive
// requestsPerSecond paces outgoing requests; zero disables pacing.
func NewHTTPExpander(timeout time.Duration, requestsPerSecond float64) *HTTPExpander {
	e := &HTTPExpander{
		client: &http.Client{
			Timeout: timeout,
		},
		helper: utils.NewHTTPHelper(),
		cache:  make(map[string]Result),
	}

	if requestsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return e
}

// Expand implements Expander. It issues a HEAD request and retries once with
// GET when the server refuses HEAD.
func (e *HTTPExpander) Expand(ctx context.Context, shortURL string) Result {
	e.mu.Lock()
	cached, ok := e.cache[shortURL]
	e.mu.Unlock()

	if ok {
		return cached
	}

	res := e.expand(ctx, shortURL)

	// A cancelled run says nothing about the link itself.
	if ctx.Err() == nil {
		e.mu.Lock()
		e.cache[shortURL] = res
		e.mu.Unlock()
	}

	return res
}

func (e *HTTPExpander) expand(ctx context.Context, shortURL string) Result {
	if !e.helper.IsValidURL(shortURL) {
		return Result{Err: fmt.Errorf("%w: not an absolute http url: %q", ErrExpansionFailed, shortURL)}
	}

	final, status, err := e.follow(ctx, http.MethodHead, shortURL)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		final, status, err = e.follow(ctx, http.MethodGet, shortURL)
	}

	if err != nil {
		return Result{Err: fmt.Errorf("%w: %w", ErrExpansionFailed, err)}
	}

	if status >= http.StatusBadRequest && final == shortURL {
		return Result{Err: fmt.Errorf("%w: status %d", ErrExpansionFailed, status)}
	}

	return Result{URL: final}
}

// follow performs one request with redirects enabled and returns the URL of the
// last request in the chain.
func (e *HTTPExpander) follow(ctx context.Context, method, rawURL string) (string, int, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, http.NoBody)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = e.helper.BuildHeaders(map[string]string{"Accept": "*/*"})

	resp, err := e.client.Do(req)
	if err != nil {
		return "", 0, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	// Drain a little so keep-alive connections can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.Request.URL.String(), resp.StatusCode, nil
}

// Func adapts a function into an Expander.
type Func func(ctx context.Context, shortURL string) Result

// Expand implements Expander.
func (f Func) Expand(ctx context.Context, shortURL string) Result {
	return f(ctx, shortURL)
}
