// Package config provides configuration management for the site converter.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sitesync/pkg/utils"

	"gopkg.in/yaml.v3"
)

// DefaultSourceURL is the feed fetched when no URL is configured.
const DefaultSourceURL = "https://raw.githubusercontent.com/hafrey1/LunaTV-config/refs/heads/main/LunaTV-config.json"

// Key derivation strategies.
const (
	KeyStrategyName = "name"
	KeyStrategyHash = "hash"
)

// Configuration validation errors.
var (
	ErrMissingSource            = errors.New("source.url or source.file is required")
	ErrInvalidSourceURL         = errors.New("source url must be an absolute http(s) URL")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrMissingOutputPath        = errors.New("output.path is required")
	ErrInvalidKeyStrategy       = errors.New("normalize.key_strategy must be 'name' or 'hash'")
	ErrInvalidMaxKeyLength      = errors.New("normalize.max_key_length must be at least 1")
	ErrInvalidHashLength        = errors.New("normalize.hash_length must be between 4 and 32")
	ErrNoNameFields             = errors.New("normalize.name_fields must not be empty")
	ErrNoAPIFields              = errors.New("normalize.api_fields must not be empty")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be one of: tint, text, json")
	ErrInvalidBufferSize        = errors.New("advanced.buffer_size_kb must be at least 1")
)

// Config represents the complete converter configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retry     RetryPolicy     `yaml:"retry"`
	Advanced  AdvancedConfig  `yaml:"advanced"`
}

// SourceConfig describes where the feed comes from.
type SourceConfig struct {
	Headers    map[string]string `yaml:"headers"`
	Name       string            `yaml:"name"`
	URL        string            `yaml:"url"`
	File       string            `yaml:"file"`
	BackupURLs []string          `yaml:"backup_urls"`
}

// IsLocalFile returns true if this source uses a local file.
func (s *SourceConfig) IsLocalFile() bool {
	return s.File != ""
}

// GetSource returns the file path if local, or URL if remote.
func (s *SourceConfig) GetSource() string {
	if s.IsLocalFile() {
		return s.File
	}

	return s.URL
}

// GetAllURLs returns all URLs (primary + backups) for a source.
func (s *SourceConfig) GetAllURLs() []string {
	urls := make([]string, 0, 1+len(s.BackupURLs))
	if s.URL != "" {
		urls = append(urls, s.URL)
	}

	return append(urls, s.BackupURLs...)
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// NormalizeConfig controls record extraction and key derivation.
type NormalizeConfig struct {
	KeyStrategy    string   `yaml:"key_strategy"`
	KeyPrefix      string   `yaml:"key_prefix"`
	ContainerKeys  []string `yaml:"container_keys"`
	NameFields     []string `yaml:"name_fields"`
	APIFields      []string `yaml:"api_fields"`
	MaxKeyLength   int      `yaml:"max_key_length"`
	HashLength     int      `yaml:"hash_length"`
	Dedup          bool     `yaml:"dedup"`
	CleanNames     bool     `yaml:"clean_names"`
	GuessMaccmsAPI bool     `yaml:"guess_maccms_api"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	Path                string `yaml:"path"`
	ArchiveDir          string `yaml:"archive_dir"`
	ReportPath          string `yaml:"report_path"`
	PrettyPrint         bool   `yaml:"pretty_print"`
	CreateBackup        bool   `yaml:"create_backup"`
	WriteEmptyOnFailure bool   `yaml:"write_empty_on_failure"`
}

// LoggingConfig defines logging behavior. An empty Level falls back to the
// LOG_LEVEL environment variable, then info.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdvancedConfig contains advanced settings.
type AdvancedConfig struct {
	BufferSizeKb int `yaml:"buffer_size_kb"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Name: "LunaTV-config",
			URL:  DefaultSourceURL,
		},
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		Normalize: NormalizeConfig{
			KeyStrategy:   KeyStrategyName,
			KeyPrefix:     "site_",
			ContainerKeys: []string{"lives", "sites", "api_site", "list", "data", "items", "apis", "sources"},
			NameFields:    []string{"name", "title", "site_name", "label"},
			APIFields:     []string{"api", "url", "ext", "link", "address", "api_url"},
			MaxKeyLength:  20,
			HashLength:    8,
			Dedup:         true,
		},
		Output: OutputConfig{
			Path:                "converted_data.json",
			PrettyPrint:         true,
			WriteEmptyOnFailure: false,
		},
		Logging: LoggingConfig{
			Format: "tint",
		},
		Advanced: AdvancedConfig{
			BufferSizeKb: 8192,
		},
	}
}

// LoadConfig loads configuration from YAML file on top of Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Source.URL == "" && c.Source.File == "" {
		return ErrMissingSource
	}

	helper := utils.NewHTTPHelper()
	for i, u := range c.Source.GetAllURLs() {
		if !helper.IsValidURL(u) {
			return fmt.Errorf("%w: url[%d]=%q", ErrInvalidSourceURL, i, u)
		}
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Output.Path == "" {
		return ErrMissingOutputPath
	}

	switch c.Normalize.KeyStrategy {
	case KeyStrategyName, KeyStrategyHash:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidKeyStrategy, c.Normalize.KeyStrategy)
	}

	if c.Normalize.MaxKeyLength < 1 {
		return ErrInvalidMaxKeyLength
	}

	if c.Normalize.HashLength < 4 || c.Normalize.HashLength > 32 {
		return ErrInvalidHashLength
	}

	if len(c.Normalize.NameFields) == 0 {
		return ErrNoNameFields
	}

	if len(c.Normalize.APIFields) == 0 {
		return ErrNoAPIFields
	}

	// An empty level defers to LOG_LEVEL, then info.
	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{"tint": true, "text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	if c.Advanced.BufferSizeKb < 1 {
		return ErrInvalidBufferSize
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// ArchivePath returns {archive_dir}/{stem}_{YYYYMMDD_HHMMSS}.json for the output path,
// or "" when archiving is disabled.
func (c *Config) ArchivePath(now time.Time) string {
	if c.Output.ArchiveDir == "" {
		return ""
	}

	base := filepath.Base(c.Output.Path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(c.Output.ArchiveDir, fmt.Sprintf("%s_%s.json", stem, now.Format("20060102_150405")))
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source: %s, Mirrors: %d, KeyStrategy: %s, Output: %s}",
		c.Source.GetSource(),
		len(c.Source.BackupURLs),
		c.Normalize.KeyStrategy,
		c.Output.Path,
	)
}
