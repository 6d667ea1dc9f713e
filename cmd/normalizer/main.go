// Package main provides the normalizer command-line tool for converting a local feed file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"sitesync/internal/config"
	"sitesync/internal/crawler"
	"sitesync/internal/logger"
	"sitesync/internal/normalizer"
)

func main() {
	inputPath := flag.String("input", "", "Path to input feed JSON")
	outputPath := flag.String("output", "", "Path to output catalog JSON")
	configFile := flag.String("config", "", "Path to YAML configuration file (normalize section is used)")
	keyStrategy := flag.String("key-strategy", "", "Key strategy: name or hash")
	cleanNames := flag.Bool("clean-names", false, "Strip emoji and decorations from names")
	verbose := flag.Bool("v", false, "Print every skipped record")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		fmt.Println("Usage: normalizer -input <feed.json> -output <catalog.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Default()

	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("❌ Failed to load config: %v\n", err)
		}

		cfg = loaded
	}

	if *keyStrategy != "" {
		cfg.Normalize.KeyStrategy = *keyStrategy
	}

	if *cleanNames {
		cfg.Normalize.CleanNames = true
	}

	cfg.Source = config.SourceConfig{File: *inputPath}
	cfg.Output.Path = *outputPath

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v\n", err)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}

	client := crawler.NewClient(cfg, logger.NewLogger(level))

	fmt.Printf("📂 Reading: %s\n", *inputPath)

	result, err := client.CrawlFromFile(*inputPath)
	if err != nil {
		var parseErr *normalizer.ParseError
		if errors.As(err, &parseErr) {
			log.Fatalf("❌ Not a site feed: %v\n", err)
		}

		log.Fatalf("❌ Error reading feed: %v\n", err)
	}

	fmt.Printf("📊 Parsed: %d records, %d accepted, %d duplicates, %d skipped\n",
		result.Seen, result.Accepted(), result.Duplicates, len(result.Skipped))

	for reason, n := range result.SkipReasons() {
		fmt.Printf("   ⚠️  %s: %d\n", reason, n)
	}

	write, err := client.SaveCatalogJSON(result.Catalog, *outputPath, crawler.WriteOptions{
		PrettyPrint:  cfg.Output.PrettyPrint,
		CreateBackup: cfg.Output.CreateBackup,
	})
	if err != nil {
		log.Fatalf("❌ Error writing file: %v\n", err)
	}

	if write.Unchanged {
		fmt.Printf("♻️  Unchanged: %s\n", *outputPath)

		return
	}

	fmt.Printf("✅ Saved to: %s (%d bytes)\n", *outputPath, write.Bytes)
}
