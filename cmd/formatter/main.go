// Package main provides the formatter command-line tool: render a catalog as a markdown
// report, or re-align and re-sign existing markdown reports.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"sitesync/internal/crawler"
	"sitesync/internal/formatter"
	"sitesync/internal/models"
	"sitesync/pkg/metadata"
)

func main() {
	catalogPath := flag.String("catalog", "", "Catalog JSON to render as a markdown report")
	outputPath := flag.String("output", "", "Report output path (default: stdout)")
	targetPath := flag.String("path", "", "Markdown file or directory to re-align and re-sign")
	write := flag.Bool("write", false, "Write changes to file (default: false, dry-run)")
	help := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	switch {
	case *help:
		printUsage()
	case *catalogPath != "":
		renderCatalog(*catalogPath, *outputPath)
	case *targetPath != "":
		reformat(*targetPath, *write)
	default:
		printUsage()
		os.Exit(1)
	}
}

func renderCatalog(catalogPath, outputPath string) {
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		log.Fatalf("❌ Error reading catalog: %v\n", err)
	}

	catalog := models.NewCatalog()
	if err := json.Unmarshal(data, catalog); err != nil {
		log.Fatalf("❌ Error parsing catalog: %v\n", err)
	}

	report := formatter.FormatCatalog(catalog, metadata.Info{Source: catalogPath, Validated: true}) + "\n"

	if outputPath == "" {
		fmt.Print(report)

		return
	}

	if err := crawler.WriteFileAtomic(outputPath, []byte(report)); err != nil {
		log.Fatalf("❌ Error writing report: %v\n", err)
	}

	fmt.Printf("✅ Report for %d sites saved to: %s\n", catalog.Len(), outputPath)
}

func reformat(targetPath string, write bool) {
	fmt.Printf("📂 Scanning path: %s\n", targetPath)

	if write {
		fmt.Println("✍️  Write mode ENABLED (files will be modified)")
	} else {
		fmt.Println("👀 Dry-run mode (no changes will be written)")
	}

	count := 0
	changed := 0
	failed := 0

	err := filepath.Walk(targetPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("❌ Error accessing path %s: %v\n", path, err)

			failed++

			return nil
		}

		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && info.Name() != "." {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}

		count++

		wasChanged, procErr := processFile(path, write)
		switch {
		case procErr != nil:
			fmt.Printf("❌ Failed to process %s: %v\n", path, procErr)

			failed++
		case wasChanged && write:
			changed++

			fmt.Printf("✅ Formatted & Signed: %s\n", path)
		case wasChanged:
			changed++

			fmt.Printf("📝 Would format & sign: %s\n", path)
		}

		return nil
	})
	if err != nil {
		log.Fatalf("❌ Error walking path: %v\n", err)
	}

	fmt.Println("\n----------------------------------------------------------------")
	fmt.Printf("📈 Summary:\n")
	fmt.Printf("  Scanned: %d files\n", count)
	fmt.Printf("  Changed: %d files\n", changed)
	fmt.Printf("  Errors:  %d\n", failed)

	if changed > 0 && !write {
		fmt.Println("\n💡 Run with -write to apply changes.")
		os.Exit(1)
	}
}

func processFile(path string, write bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	original := string(content)

	formatted, err := formatter.FormatMarkdown(original)
	if err != nil {
		return false, err
	}

	// Ignore the timestamp when deciding whether anything changed.
	_, before := metadata.Extract(original)
	_, after := metadata.Extract(formatted)

	if before == after {
		if ok, _ := metadata.Verify(original); ok {
			return false, nil
		}
	}

	if write {
		if err := crawler.WriteFileAtomic(path, []byte(formatted+"\n")); err != nil {
			return false, err
		}
	}

	return true, nil
}

func printUsage() {
	fmt.Println("Usage: ./bin/formatter [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/formatter -catalog converted_data.json -output sites.md")
	fmt.Println("  ./bin/formatter -path docs -write")
}
