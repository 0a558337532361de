package interfaces

import (
	"context"

	"github.com/nodewee/doc-translate-prep/pkg/types"
)

// Extractor defines the interface for one document family's text extraction
type Extractor interface {
	// Extract walks the file at path and returns its sections in format order
	Extract(ctx context.Context, path string, opts types.ExtractionOptions) (*types.ExtractedDocument, error)

	// Format returns the FormatKind this extractor handles
	Format() types.FormatKind

	// Name returns the name of the extractor
	Name() string
}

// ExtractorFactory selects the extractor for a FormatKind
type ExtractorFactory interface {
	// CreateExtractor returns the extractor registered for kind
	CreateExtractor(kind types.FormatKind) (Extractor, error)

	// RegisterExtractor registers an extractor under its own FormatKind
	RegisterExtractor(extractor Extractor)

	// ListExtractors returns the names of all registered extractors
	ListExtractors() []string
}

// Converter upgrades a legacy document into its modern container format.
// Implementations must not share live sessions between concurrent calls.
type Converter interface {
	// Convert writes a modern-format rendition of src to dst
	Convert(ctx context.Context, src, dst string, target types.FormatKind) error

	// Name returns the name of the converter
	Name() string
}

// LanguageResolver maps a human-readable language name to a short code
type LanguageResolver interface {
	Code(name string) (string, error)
}

// DocumentProcessor is the public extraction entry point
type DocumentProcessor interface {
	// GetDocumentText resolves the input and returns one result per resolved file
	GetDocumentText(ctx context.Context, path string, isDirectory bool, targetLanguage string, ignoreHidden bool) ([]*types.ExtractionResult, error)
}
