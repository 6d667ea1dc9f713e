package crawler

import (
	"errors"
	"fmt"
	"time"

	"sitesync/internal/config"
	"sitesync/internal/logger"
)

// URL manager errors.
var (
	ErrNoSourcesAvailable  = errors.New("no sources available")
	ErrAllSourcesExhausted = errors.New("all sources exhausted")
)

// URLManager walks the primary feed URL and its backup mirrors in order.
type URLManager struct {
	attemptLog map[string][]AttemptResult
	name       string
	urls       []string
	current    int
}

// AttemptResult records the result of a URL fetch attempt.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Error      string
	Attempt    int
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// NewURLManager creates a new URL manager for one feed source.
func NewURLManager(source config.SourceConfig) *URLManager {
	return &URLManager{
		name:       source.Name,
		urls:       source.GetAllURLs(),
		attemptLog: make(map[string][]AttemptResult),
	}
}

// NextURL returns the next mirror to try.
func (um *URLManager) NextURL() (string, error) {
	if len(um.urls) == 0 {
		return "", ErrNoSourcesAvailable
	}

	if um.current >= len(um.urls) {
		return "", fmt.Errorf("%w: %d", ErrAllSourcesExhausted, len(um.urls))
	}

	url := um.urls[um.current]
	um.current++

	return url, nil
}

// HasMore returns true if there are more mirrors to try.
func (um *URLManager) HasMore() bool {
	return um.current < len(um.urls)
}

// Count returns the total number of URLs.
func (um *URLManager) Count() int {
	return len(um.urls)
}

// RecordAttempt records the result of a fetch attempt.
func (um *URLManager) RecordAttempt(url string, success bool, err error, statusCode int, duration time.Duration) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	um.attemptLog[url] = append(um.attemptLog[url], AttemptResult{
		URL:        url,
		Attempt:    len(um.attemptLog[url]) + 1,
		Success:    success,
		Error:      errMsg,
		Timestamp:  time.Now(),
		Duration:   duration,
		StatusCode: statusCode,
	})
}

// GetAttemptLog returns the attempt log for a URL.
func (um *URLManager) GetAttemptLog(url string) []AttemptResult {
	return um.attemptLog[url]
}

// GetAttemptStats returns statistics about fetch attempts.
func (um *URLManager) GetAttemptStats() AttemptStats {
	stats := AttemptStats{
		TotalURLs:   len(um.urls),
		URLAttempts: make(map[string]int),
	}

	for url, results := range um.attemptLog {
		stats.URLAttempts[url] = len(results)
		stats.TotalAttempts += len(results)

		urlSuccess := false

		for _, result := range results {
			if result.Success {
				stats.SuccessfulAttempts++
				urlSuccess = true
			} else {
				stats.FailedAttempts++
			}
		}

		if urlSuccess {
			stats.SuccessfulURLs++
		} else {
			stats.FailedURLs++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	URLAttempts        map[string]int
	TotalURLs          int
	SuccessfulURLs     int
	FailedURLs         int
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"URLs: %d total, %d success, %d failed | Attempts: %d total, %d success, %d failed",
		s.TotalURLs,
		s.SuccessfulURLs,
		s.FailedURLs,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
	)
}

// LogAttemptSummary logs a summary of fetch attempts using the provided logger.
func (um *URLManager) LogAttemptSummary(l *logger.Logger) {
	l.Info("📊 Fetch attempt summary", "source", um.name)

	for i, url := range um.urls {
		results := um.attemptLog[url]

		if len(results) == 0 {
			l.Info(fmt.Sprintf("%d. %s", i+1, url), "status", "not attempted")

			continue
		}

		last := results[len(results)-1]
		statusEmoji := "❌"

		if last.Success {
			statusEmoji = "✅"
		}

		l.Info(fmt.Sprintf("%d. %s %s", i+1, statusEmoji, url),
			"attempts", len(results),
			"status_code", last.StatusCode,
			"duration", last.Duration.Round(time.Millisecond),
			"error", last.Error,
		)
	}

	l.Info(fmt.Sprintf("Overall: %s", um.GetAttemptStats()))
}

// Reset resets the URL manager state.
func (um *URLManager) Reset() {
	um.current = 0
	um.attemptLog = make(map[string][]AttemptResult)
}
