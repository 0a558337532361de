package core

import (
	"context"
	"time"

	"github.com/nodewee/doc-translate-prep/pkg/config"
	"github.com/nodewee/doc-translate-prep/pkg/constants"
	"github.com/nodewee/doc-translate-prep/pkg/convert"
	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/language"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// Pipeline implements DocumentProcessor: resolve the input, then extract
// every resolved file. It holds no per-call state, so one Pipeline may serve
// concurrent calls on different files.
type Pipeline struct {
	resolver *Resolver
	factory  interfaces.ExtractorFactory
	logger   *logger.Logger
}

var _ interfaces.DocumentProcessor = (*Pipeline)(nil)

// NewPipeline assembles a pipeline from its parts
func NewPipeline(resolver *Resolver, factory interfaces.ExtractorFactory, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	return &Pipeline{
		resolver: resolver,
		factory:  factory,
		logger:   log,
	}
}

// NewDefaultPipeline wires the pipeline described by cfg: LibreOffice for
// legacy formats, the native PDF converter when enabled, and the default
// extractors
func NewDefaultPipeline(cfg *config.Config, log *logger.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	office := convert.NewOfficeConverter(cfg.SofficePath, "", log)
	var converter *convert.Dispatcher
	if cfg.NativePDF {
		converter = convert.NewDispatcher(office, convert.NewPDFConverter(log))
	} else {
		converter = convert.NewDispatcher(office, nil)
	}

	resolver := NewResolver(converter, language.NewResolver(cfg.Languages), log)
	pipeline := NewPipeline(resolver, NewExtractorFactory(log), log)

	log.Info("Pipeline initialized with configuration:")
	log.Info("  LibreOffice: %s", cfg.SofficePath)
	log.Info("  Native PDF conversion: %v", cfg.NativePDF)
	log.Info("  Language overrides: %d", len(cfg.Languages))
	return pipeline, nil
}

// GetDocumentText resolves path into its working copy and extracts the text
// of each resolved file. Directories are rejected; expanding them is up to
// the caller. A failure is logged as "path: message" and returned, with no
// partial results.
func (p *Pipeline) GetDocumentText(ctx context.Context, path string, isDirectory bool, targetLanguage string, ignoreHidden bool) ([]*types.ExtractionResult, error) {
	results, err := p.getDocumentText(ctx, path, isDirectory, targetLanguage, ignoreHidden)
	if err != nil {
		p.logger.Error("%s: %v", path, err)
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) getDocumentText(ctx context.Context, path string, isDirectory bool, targetLanguage string, ignoreHidden bool) ([]*types.ExtractionResult, error) {
	if isDirectory {
		return nil, utils.NewValidationError(constants.ErrDirectoryInput, nil).WithContext("path", path)
	}
	if err := utils.ValidateInputFile(path); err != nil {
		return nil, err
	}

	resolved, err := p.resolver.Resolve(ctx, path, targetLanguage)
	if err != nil {
		return nil, err
	}

	opts := types.ExtractionOptions{IgnoreHidden: ignoreHidden}
	results := make([]*types.ExtractionResult, 0, len(resolved))
	var errs []error
	for _, rp := range resolved {
		result, err := p.extract(ctx, path, rp, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}
	if err := utils.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

// extract runs the extractor for one resolved file
func (p *Pipeline) extract(ctx context.Context, source, resolved string, opts types.ExtractionOptions) (*types.ExtractionResult, error) {
	startTime := time.Now()
	kind := types.DetectFormat(resolved)

	result := &types.ExtractionResult{
		Source:       source,
		ResolvedPath: resolved,
		Format:       kind,
	}

	if kind == types.FormatUnsupported {
		p.logger.Warn("%s: %s, copied without extraction", source, constants.ErrUnsupportedFormat)
		result.Document = &types.ExtractedDocument{}
		result.Skipped = true
		return result, nil
	}

	extractor, err := p.factory.CreateExtractor(kind)
	if err != nil {
		return nil, err
	}

	p.logger.Progress("🔍", "Extracting %s with %s", resolved, extractor.Name())
	doc, err := extractor.Extract(ctx, resolved, opts)
	if err != nil {
		return nil, err
	}

	result.Document = doc
	result.ExtractorUsed = extractor.Name()
	result.ProcessTime = time.Since(startTime).Milliseconds()
	p.logger.Progress("✅", "Extracted %d strings from %s in %dms", len(doc.Flatten()), source, result.ProcessTime)
	return result, nil
}
