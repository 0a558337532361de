package core

import (
	"fmt"
	"sort"

	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/providers"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// DefaultExtractorFactory implements ExtractorFactory with one extractor per
// modern format
type DefaultExtractorFactory struct {
	extractors map[types.FormatKind]interfaces.Extractor
	logger     *logger.Logger
}

// NewExtractorFactory creates a factory with the default extractors registered
func NewExtractorFactory(log *logger.Logger) interfaces.ExtractorFactory {
	factory := NewEmptyExtractorFactory(log)
	factory.registerDefaultExtractors()
	return factory
}

// NewEmptyExtractorFactory creates a factory with nothing registered
func NewEmptyExtractorFactory(log *logger.Logger) *DefaultExtractorFactory {
	if log == nil {
		log = logger.Discard()
	}
	return &DefaultExtractorFactory{
		extractors: make(map[types.FormatKind]interfaces.Extractor),
		logger:     log,
	}
}

// CreateExtractor returns the extractor registered for kind
func (f *DefaultExtractorFactory) CreateExtractor(kind types.FormatKind) (interfaces.Extractor, error) {
	if extractor, ok := f.extractors[kind]; ok {
		f.logger.Debug("Selected extractor '%s' for format %s", extractor.Name(), kind)
		return extractor, nil
	}
	if kind.IsLegacy() {
		return nil, utils.NewUnsupportedError(fmt.Sprintf("%s documents must be converted before extraction", kind), nil)
	}
	return nil, utils.NewUnsupportedError(fmt.Sprintf("no extractor for format: %s", kind), nil)
}

// RegisterExtractor registers an extractor under its own format, replacing
// any previous one
func (f *DefaultExtractorFactory) RegisterExtractor(extractor interfaces.Extractor) {
	f.extractors[extractor.Format()] = extractor
	f.logger.Debug("Registered extractor: %s (%s)", extractor.Name(), extractor.Format())
}

// ListExtractors returns all registered extractor names, sorted
func (f *DefaultExtractorFactory) ListExtractors() []string {
	names := make([]string, 0, len(f.extractors))
	for _, extractor := range f.extractors {
		names = append(names, extractor.Name())
	}
	sort.Strings(names)
	return names
}

// registerDefaultExtractors registers the default set of extractors
func (f *DefaultExtractorFactory) registerDefaultExtractors() {
	f.RegisterExtractor(providers.NewWordExtractor(f.logger))
	f.RegisterExtractor(providers.NewSpreadsheetExtractor(f.logger))
	f.RegisterExtractor(providers.NewSlideExtractor(f.logger))
	f.RegisterExtractor(providers.NewTextFileExtractor(f.logger))

	f.logger.Debug("Registered %d extractors: %v", len(f.extractors), f.ListExtractors())
}
