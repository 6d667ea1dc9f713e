package crawler

import (
	"context"
	"fmt"
	"time"

	"sitesync/internal/config"
	"sitesync/internal/formatter"
	"sitesync/internal/logger"
	"sitesync/internal/models"
	"sitesync/pkg/metadata"
)

// Summary reports one converter run.
type Summary struct {
	Write      *WriteResult
	Skipped    map[string]int
	RunID      string
	Source     string
	ReportPath string
	Seen       int
	Accepted   int
	Duplicates int
	Duration   time.Duration
}

// Pipeline runs fetch, normalize and write once.
type Pipeline struct {
	cfg    *config.Config
	client *Client
	logger *logger.Logger
	now    func() time.Time
	runID  string
}

// NewPipeline creates a pipeline. A nil client is built from cfg.
func NewPipeline(cfg *config.Config, client *Client, log *logger.Logger, runID string) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}

	if client == nil {
		client = NewClient(cfg, log)
	}

	return &Pipeline{
		cfg:    cfg,
		client: client,
		logger: log,
		now:    time.Now,
		runID:  runID,
	}
}

// Run executes the pipeline. On fetch or parse failure the error is returned, after
// writing an empty catalog when output.write_empty_on_failure is set.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := p.now()
	summary := &Summary{RunID: p.runID}

	p.logger.Info("🔎 Fetching feed", "source", p.cfg.Source.GetSource(), "mirrors", len(p.cfg.Source.BackupURLs))

	result, err := p.client.Crawl(ctx)
	if err != nil {
		if p.cfg.Output.WriteEmptyOnFailure {
			p.writeFallback()
		}

		return summary, err
	}

	summary.Source = result.Source
	summary.Seen = result.Seen
	summary.Accepted = result.Accepted()
	summary.Duplicates = result.Duplicates
	summary.Skipped = result.SkipReasons()

	p.logger.Info("🧹 Normalized feed",
		"bytes", result.Bytes,
		"seen", result.Seen,
		"accepted", summary.Accepted,
		"duplicates", result.Duplicates,
		"skipped", len(result.Skipped),
	)

	for reason, n := range summary.Skipped {
		p.logger.Debug("skipped records", "reason", reason, "count", n)
	}

	write, err := p.client.SaveCatalogJSON(result.Catalog, p.cfg.Output.Path, WriteOptions{
		ArchivePath:  p.cfg.ArchivePath(start),
		PrettyPrint:  p.cfg.Output.PrettyPrint,
		CreateBackup: p.cfg.Output.CreateBackup,
	})
	if err != nil {
		return summary, fmt.Errorf("failed to save catalog: %w", err)
	}

	summary.Write = write

	if write.Unchanged {
		p.logger.Info("♻️ Output unchanged", "path", write.Path)
	} else {
		p.logger.Info("💾 Saved catalog", "path", write.Path, "sites", summary.Accepted, "bytes", write.Bytes)
	}

	if write.ArchivePath != "" {
		p.logger.Info("🗄️ Archived catalog", "path", write.ArchivePath)
	}

	if p.cfg.Output.ReportPath != "" {
		if err := p.writeReport(result.Catalog, result.Source); err != nil {
			return summary, err
		}

		summary.ReportPath = p.cfg.Output.ReportPath
	}

	summary.Duration = p.now().Sub(start)

	return summary, nil
}

func (p *Pipeline) writeReport(catalog *models.Catalog, source string) error {
	report := formatter.FormatCatalog(catalog, metadata.Info{
		Source:    source,
		RunID:     p.runID,
		Validated: true,
	})

	if err := WriteFileAtomic(p.cfg.Output.ReportPath, []byte(report+"\n")); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	p.logger.Info("📝 Wrote report", "path", p.cfg.Output.ReportPath)

	return nil
}

func (p *Pipeline) writeFallback() {
	if _, err := p.client.SaveCatalogJSON(models.NewCatalog(), p.cfg.Output.Path, WriteOptions{
		PrettyPrint:  p.cfg.Output.PrettyPrint,
		CreateBackup: p.cfg.Output.CreateBackup,
	}); err != nil {
		p.logger.Error("failed to write empty fallback catalog", "error", err)

		return
	}

	p.logger.Warn("wrote empty fallback catalog", "path", p.cfg.Output.Path)
}
