// Package main provides the converter command-line tool: fetch a site feed, normalize it
// and write the catalog JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"sitesync/internal/config"
	"sitesync/internal/crawler"
	"sitesync/internal/logger"

	"github.com/google/uuid"
)

const defaultConfigPath = "configs/converter.yaml"

// overrides holds command-line values that take precedence over the config file.
type overrides struct {
	URL         string
	File        string
	Output      string
	ArchiveDir  string
	KeyStrategy string
	Report      string
	LogLevel    string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one conversion and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("converter", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "Path to YAML configuration file (default: "+defaultConfigPath+" if present)")
	targetURL := fs.String("url", "", "Feed URL to fetch (overrides config)")
	localFile := fs.String("file", "", "Local feed JSON file (bypasses URL fetching)")
	output := fs.String("output", "", "Output JSON file path (overrides config)")
	archiveDir := fs.String("archive-dir", "", "Directory for timestamped archive copies")
	keyStrategy := fs.String("key-strategy", "", "Key strategy: name or hash (overrides config)")
	report := fs.String("report", "", "Write a markdown report to this path")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (default: config, then $LOG_LEVEL, then info)")
	showUsage := fs.Bool("help", false, "Show usage information")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showUsage {
		printUsage(fs, stdout)

		return 0
	}

	cfg, fromFile, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Failed to load config: %v\n", err)

		return 1
	}

	applyOverrides(cfg, overrides{
		URL:         *targetURL,
		File:        *localFile,
		Output:      *output,
		ArchiveDir:  *archiveDir,
		KeyStrategy: *keyStrategy,
		Report:      *report,
		LogLevel:    *logLevel,
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "❌ Invalid configuration: %v\n", err)

		return 1
	}

	runID := uuid.NewString()
	log := logger.NewLoggerWithOutput(cfg.Logging.Level, cfg.Logging.Format, stderr).With("run_id", runID)

	if fromFile != "" {
		log.Info("⚙️ Loaded configuration", "path", fromFile)
	}

	log.Debug("configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := crawler.NewClient(cfg, log)

	summary, err := crawler.NewPipeline(cfg, client, log, runID).Run(ctx)

	if !cfg.Source.IsLocalFile() {
		client.URLManager().LogAttemptSummary(log)
	}

	if err != nil {
		log.Error("❌ Conversion failed", "error", err)

		return 1
	}

	log.Info("✨ Conversion complete",
		"source", summary.Source,
		"sites", summary.Accepted,
		"seen", summary.Seen,
		"duplicates", summary.Duplicates,
		"output", summary.Write.Path,
		"duration", summary.Duration,
	)

	return 0
}

// loadConfig reads path, or the default config file when path is empty and it exists.
// With neither, built-in defaults are used. The second return is the file actually read.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err != nil {
			return config.Default(), "", nil
		}

		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}

	return cfg, path, nil
}

func applyOverrides(cfg *config.Config, o overrides) {
	if o.URL != "" {
		cfg.Source.URL = o.URL
		cfg.Source.File = ""
		cfg.Source.BackupURLs = nil
	}

	if o.File != "" {
		cfg.Source.File = o.File
	}

	if o.Output != "" {
		cfg.Output.Path = o.Output
	}

	if o.ArchiveDir != "" {
		cfg.Output.ArchiveDir = o.ArchiveDir
	}

	if o.KeyStrategy != "" {
		cfg.Normalize.KeyStrategy = o.KeyStrategy
	}

	if o.Report != "" {
		cfg.Output.ReportPath = o.Report
	}

	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Usage: ./bin/converter [OPTIONS]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  ./bin/converter")
	fmt.Fprintln(w, "  ./bin/converter -url https://example.com/config.json -output data/sites.json")
	fmt.Fprintln(w, "  ./bin/converter -config configs/converter.yaml -archive-dir data/archive -report data/sites.md")
	fmt.Fprintln(w, "  ./bin/converter -file feed.json -key-strategy hash")
}
