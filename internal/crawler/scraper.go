package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"tweetnorm/internal/config"
	"tweetnorm/internal/logger"
	"tweetnorm/pkg/utils"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// DefaultBodyLimitKb caps the size of one API response.
const DefaultBodyLimitKb = 16 * 1024

// rateLimitResetHeader carries the epoch second at which the search quota resets.
const rateLimitResetHeader = "x-rate-limit-reset"

// Scraper performs authenticated GET requests against the search API with
// config-driven retries and request pacing.
type Scraper struct {
	client      *http.Client
	retryPolicy *config.RetryPolicy
	headers     http.Header
	limiter     *rate.Limiter
	bodyLimitKb int
	logger      *logger.Logger
	now         func() time.Time
}

// NewScraper creates a scraper sending token as bearer credentials.
// requestsPerSecond <= 0 disables pacing.
func NewScraper(retryPolicy *config.RetryPolicy, token string, requestsPerSecond float64, log *logger.Logger) *Scraper {
	if log == nil {
		log = logger.Nop()
	}

	s := &Scraper{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy: retryPolicy,
		headers:     utils.NewHTTPHelper().BearerHeaders(token),
		bodyLimitKb: DefaultBodyLimitKb,
		logger:      log,
		now:         time.Now,
	}

	if requestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return s
}

// FetchWithMetrics returns (body, statusCode, duration, error).
func (s *Scraper) FetchWithMetrics(ctx context.Context, url string) ([]byte, int, time.Duration, error) {
	var lastErr error

	var lastStatusCode int

	totalDuration := time.Duration(0)

	for attempt := 1; attempt <= s.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.retryPolicy.GetRetryDelay(attempt)); err != nil {
				return nil, lastStatusCode, totalDuration, err
			}
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, lastStatusCode, totalDuration, err
			}
		}

		startTime := time.Now()

		body, status, header, err := s.do(ctx, url)
		totalDuration += time.Since(startTime)
		lastStatusCode = status

		if err != nil {
			if ctx.Err() != nil {
				return nil, status, totalDuration, ctx.Err()
			}

			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, s.retryPolicy.MaxAttempts, err)
			s.logger.Warn("search request failed", "attempt", attempt, "error", err)

			continue
		}

		if status == http.StatusOK {
			return body, status, totalDuration, nil
		}

		lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, status)

		if !isRetryableStatus(status) {
			return nil, status, totalDuration, lastErr
		}

		s.logger.Warn("search request retryable status", "attempt", attempt, "status", status)

		if status == http.StatusTooManyRequests && attempt < s.retryPolicy.MaxAttempts {
			if err := s.sleep(ctx, s.resetDelay(header)); err != nil {
				return nil, status, totalDuration, err
			}
		}
	}

	return nil, lastStatusCode, totalDuration, lastErr
}

// Fetch returns the body of a successful GET.
func (s *Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, _, _, err := s.FetchWithMetrics(ctx, url)

	return body, err
}

func (s *Scraper) do(ctx context.Context, url string) ([]byte, int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	// bodyLimitKb is in KB, convert to bytes
	limit := int64(s.bodyLimitKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, resp.Header, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, resp.Header, nil
}

// resetDelay is the wait until the quota window announced by a 429 reopens,
// capped at the policy's maximum delay.
func (s *Scraper) resetDelay(header http.Header) time.Duration {
	epoch, err := strconv.ParseInt(header.Get(rateLimitResetHeader), 10, 64)
	if err != nil {
		return 0
	}

	delay := time.Unix(epoch, 0).Sub(s.now())
	if delay <= 0 {
		return 0
	}

	if maxDelay := time.Duration(s.retryPolicy.MaxDelayMs) * time.Millisecond; delay > maxDelay {
		delay = maxDelay
	}

	return delay
}

func (s *Scraper) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, // 408
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	}

	return false
}
