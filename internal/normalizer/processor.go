// Package normalizer turns heterogeneous site feeds into a keyed, deduplicated catalog.
package normalizer

import (
	"errors"

	"sitesync/internal/config"
	"sitesync/internal/logger"
	"sitesync/internal/models"
	"sitesync/pkg/utils"

	"github.com/tidwall/gjson"
)

// Result is the outcome of normalizing one feed.
type Result struct {
	Catalog    *models.Catalog
	Skipped    []*RecordError
	Seen       int
	Duplicates int
}

// Accepted returns the number of sites in the catalog.
func (r *Result) Accepted() int {
	return r.Catalog.Len()
}

// SkipReasons counts skipped records per cause.
func (r *Result) SkipReasons() map[string]int {
	reasons := make(map[string]int)

	for _, rec := range r.Skipped {
		reasons[rec.Err.Error()]++
	}

	return reasons
}

// Processor handles record location, validation, transformation and keying.
type Processor struct {
	cfg         config.NormalizeConfig
	locator     *Locator
	validator   *Validator
	transformer *Transformer
	logger      *logger.Logger
}

// NewProcessor creates a new processor instance. A nil logger discards output.
func NewProcessor(cfg config.NormalizeConfig, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Discard()
	}

	return &Processor{
		cfg:         cfg,
		locator:     NewLocator(cfg.ContainerKeys, cfg.APIFields),
		validator:   NewValidator(cfg.NameFields, cfg.APIFields),
		transformer: NewTransformer(cfg.CleanNames, cfg.GuessMaccmsAPI),
		logger:      log,
	}
}

// Process parses raw feed bytes and normalizes them.
func (p *Processor) Process(data []byte) (*Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Err: ErrInvalidJSON, Detail: describe(data)}
	}

	return p.ProcessResult(gjson.ParseBytes(data))
}

// ProcessResult normalizes an already parsed feed. The same input always
// yields the same catalog.
func (p *Processor) ProcessResult(root gjson.Result) (*Result, error) {
	candidates, err := p.locator.Locate(root)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Catalog: models.NewCatalog(),
		Seen:    len(candidates),
	}

	keys := NewKeyGenerator(p.cfg)
	seenAPI := make(map[string]struct{})

	for _, c := range candidates {
		fields, err := p.validator.Validate(c)
		if err != nil {
			var recErr *RecordError
			if errors.As(err, &recErr) {
				result.Skipped = append(result.Skipped, recErr)
			}

			p.logger.Debug("skipping record", "path", c.Path, "error", err)

			continue
		}

		fields = p.transformer.Transform(fields)

		if p.cfg.Dedup {
			if _, dup := seenAPI[fields.API]; dup {
				result.Duplicates++

				p.logger.Debug("skipping duplicate api", "path", c.Path, "api", fields.API)

				continue
			}

			seenAPI[fields.API] = struct{}{}
		}

		result.Catalog.Add(models.Site{
			Key:    keys.Next(fields.Name, fields.API),
			Name:   fields.Name,
			API:    fields.API,
			Active: true,
		})
	}

	return result, nil
}

func describe(data []byte) string {
	if len(data) == 0 {
		return "empty body"
	}

	return utils.NewStringHelper().TruncateString(string(data), 64)
}
