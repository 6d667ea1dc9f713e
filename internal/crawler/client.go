package crawler

import (
	"context"
	"fmt"
	"time"

	"sitesync/internal/config"
	"sitesync/internal/logger"
	"sitesync/internal/normalizer"
)

// CrawlResult is a normalized feed plus where it came from.
type CrawlResult struct {
	*normalizer.Result
	Source   string
	Bytes    int
	Duration time.Duration
}

// Client fetches a feed and turns it into a catalog.
type Client struct {
	scraper    *Scraper
	urlManager *URLManager
	processor  *normalizer.Processor
	logger     *logger.Logger
	localFile  string
}

// NewClient creates a crawler client wired from configuration.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}

	client := NewClientWithDeps(
		NewScraperWithConfig(&cfg.Retry, cfg.Advanced.BufferSizeKb, cfg.Source.Headers),
		NewURLManager(cfg.Source),
		normalizer.NewProcessor(cfg.Normalize, log),
		log,
	)
	client.localFile = cfg.Source.File

	return client
}

// NewClientWithDeps creates a new crawler client with injected dependencies.
func NewClientWithDeps(scraper *Scraper, urlManager *URLManager, processor *normalizer.Processor, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		scraper:    scraper,
		urlManager: urlManager,
		processor:  processor,
		logger:     log,
	}
}

// URLManager exposes the attempt log of the last fetch.
func (c *Client) URLManager() *URLManager {
	return c.urlManager
}

// FetchFeed downloads the feed, falling back to backup mirrors in order.
// It returns the body and the URL that served it.
func (c *Client) FetchFeed(ctx context.Context) ([]byte, string, error) {
	if c.urlManager == nil || c.urlManager.Count() == 0 {
		return nil, "", ErrNoSourcesAvailable
	}

	c.urlManager.Reset()

	var lastErr error

	for c.urlManager.HasMore() {
		url, err := c.urlManager.NextURL()
		if err != nil {
			return nil, "", err
		}

		c.logger.Debug("fetching feed", "url", url)

		body, statusCode, duration, err := c.scraper.ScrapeWithMetrics(ctx, url)
		c.urlManager.RecordAttempt(url, err == nil, err, statusCode, duration)

		if err == nil {
			return body, url, nil
		}

		lastErr = err
		c.logger.Warn("⚠️ feed fetch failed", "url", url, "error", err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, "", fmt.Errorf("%w: %w", ErrAllSourcesExhausted, lastErr)
}

// Crawl fetches the configured feed (local file or URLs) and normalizes it.
func (c *Client) Crawl(ctx context.Context) (*CrawlResult, error) {
	if c.localFile != "" {
		return c.CrawlFromFile(c.localFile)
	}

	start := time.Now()

	body, source, err := c.FetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	return c.normalize(body, source, time.Since(start))
}

// CrawlFromFile reads and normalizes a feed stored on disk.
func (c *Client) CrawlFromFile(filePath string) (*CrawlResult, error) {
	content, _, duration, err := c.scraper.ReadLocalFileWithMetrics(filePath)
	if err != nil {
		return nil, err
	}

	return c.normalize(content, filePath, duration)
}

func (c *Client) normalize(body []byte, source string, duration time.Duration) (*CrawlResult, error) {
	result, err := c.processor.Process(body)
	if err != nil {
		return nil, fmt.Errorf("feed from %s: %w", source, err)
	}

	return &CrawlResult{
		Result:   result,
		Source:   source,
		Bytes:    len(body),
		Duration: duration,
	}, nil
}
