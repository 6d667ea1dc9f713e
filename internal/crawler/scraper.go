package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"sitesync/internal/config"
	"sitesync/pkg/utils"
)

// Fetch errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrBodyTooLarge         = errors.New("response body exceeds buffer limit")
)

// FetchError reports a feed that could not be retrieved from URL.
type FetchError struct {
	Err        error
	URL        string
	StatusCode int
	Attempts   int
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s): %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}

	return fmt.Sprintf("fetch %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Scraper handles feed downloads with config-driven retry logic.
type Scraper struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	headers      http.Header
	bufferSizeKb int
}

// NewScraper creates a new scraper instance with default config.
func NewScraper() *Scraper {
	return NewScraperWithConfig(&config.Default().Retry, config.Default().Advanced.BufferSizeKb, nil)
}

// NewScraperWithConfig creates a new scraper with custom retry policy and extra headers.
func NewScraperWithConfig(retryPolicy *config.RetryPolicy, bufferSizeKb int, headers map[string]string) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy:  retryPolicy,
		headers:      utils.NewHTTPHelper().BuildHeaders(headers),
		bufferSizeKb: bufferSizeKb,
	}
}

// ScrapeWithMetrics returns (body, statusCode, duration, error).
func (s *Scraper) ScrapeWithMetrics(ctx context.Context, url string) ([]byte, int, time.Duration, error) {
	var lastErr error

	var lastStatusCode int

	totalDuration := time.Duration(0)
	attempt := 1

	for ; attempt <= s.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, s.retryPolicy.GetRetryDelay(attempt)); err != nil {
				lastErr = err

				break
			}
		}

		startTime := time.Now()
		body, statusCode, err := s.fetchOnce(ctx, url)
		totalDuration += time.Since(startTime)

		if err == nil {
			return body, statusCode, totalDuration, nil
		}

		lastErr = err
		lastStatusCode = statusCode

		if ctx.Err() != nil {
			break
		}

		// Network errors are retried; HTTP errors only on temporary statuses.
		if statusCode != 0 && !isRetryableStatus(statusCode) {
			break
		}

		if errors.Is(err, ErrBodyTooLarge) {
			break
		}
	}

	if attempt > s.retryPolicy.MaxAttempts {
		attempt = s.retryPolicy.MaxAttempts
	}

	return nil, lastStatusCode, totalDuration, &FetchError{
		Err:        lastErr,
		URL:        url,
		StatusCode: lastStatusCode,
		Attempts:   attempt,
	}
}

// Scrape fetches and returns the body of the given URL.
func (s *Scraper) Scrape(ctx context.Context, url string) ([]byte, error) {
	body, _, _, err := s.ScrapeWithMetrics(ctx, url)

	return body, err
}

func (s *Scraper) fetchOnce(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		return nil, resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(s.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d KB", ErrBodyTooLarge, s.bufferSizeKb)
	}

	return body, resp.StatusCode, nil
}

// ReadLocalFile reads content from a local file path.
func (s *Scraper) ReadLocalFile(filePath string) ([]byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	return content, nil
}

// ReadLocalFileWithMetrics returns (content, fileSize, duration, error).
func (s *Scraper) ReadLocalFileWithMetrics(filePath string) ([]byte, int64, time.Duration, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, 0, time.Since(startTime), fmt.Errorf("failed to stat file %s: %w", filePath, err)
	}

	content, err := s.ReadLocalFile(filePath)
	duration := time.Since(startTime)

	if err != nil {
		return nil, 0, duration, err
	}

	return content, fileInfo.Size(), duration, nil
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
