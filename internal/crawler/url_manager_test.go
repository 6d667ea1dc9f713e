package crawler

import (
	"errors"
	"testing"
	"time"

	"sitesync/internal/config"
)

func TestURLManager_Order(t *testing.T) {
	um := NewURLManager(config.SourceConfig{
		Name:       "feed",
		URL:        "https://primary.example/feed.json",
		BackupURLs: []string{"https://mirror.example/feed.json"},
	})

	if um.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", um.Count())
	}

	first, err := um.NextURL()
	if err != nil || first != "https://primary.example/feed.json" {
		t.Fatalf("first NextURL() = %q, %v", first, err)
	}

	second, err := um.NextURL()
	if err != nil || second != "https://mirror.example/feed.json" {
		t.Fatalf("second NextURL() = %q, %v", second, err)
	}

	if um.HasMore() {
		t.Error("HasMore() = true after all URLs")
	}

	if _, err := um.NextURL(); !errors.Is(err, ErrAllSourcesExhausted) {
		t.Errorf("expected ErrAllSourcesExhausted, got %v", err)
	}

	um.Reset()

	if again, _ := um.NextURL(); again != first {
		t.Errorf("after Reset NextURL() = %q, want %q", again, first)
	}
}

func TestURLManager_Empty(t *testing.T) {
	um := NewURLManager(config.SourceConfig{File: "feed.json"})

	if _, err := um.NextURL(); !errors.Is(err, ErrNoSourcesAvailable) {
		t.Errorf("expected ErrNoSourcesAvailable, got %v", err)
	}
}

func TestURLManager_AttemptStats(t *testing.T) {
	um := NewURLManager(config.SourceConfig{URL: "https://a.example", BackupURLs: []string{"https://b.example"}})

	um.RecordAttempt("https://a.example", false, errors.New("boom"), 503, time.Millisecond)
	um.RecordAttempt("https://b.example", true, nil, 200, time.Millisecond)

	stats := um.GetAttemptStats()
	if stats.TotalURLs != 2 || stats.SuccessfulURLs != 1 || stats.FailedURLs != 1 {
		t.Errorf("unexpected stats: %s", stats)
	}

	if stats.TotalAttempts != 2 || stats.FailedAttempts != 1 || stats.SuccessfulAttempts != 1 {
		t.Errorf("unexpected attempt counts: %s", stats)
	}

	log := um.GetAttemptLog("https://a.example")
	if len(log) != 1 || log[0].Error != "boom" || log[0].StatusCode != 503 {
		t.Errorf("attempt log = %+v", log)
	}
}
