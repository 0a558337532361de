package providers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// TextFileExtractor handles plain text files. The file it reads is a
// working copy and is consumed: it is deleted once its lines are read.
type TextFileExtractor struct {
	name   string
	logger *logger.Logger
}

// NewTextFileExtractor creates a new text file extractor
func NewTextFileExtractor(log *logger.Logger) interfaces.Extractor {
	if log == nil {
		log = logger.Discard()
	}
	return &TextFileExtractor{
		name:   "text-file",
		logger: log,
	}
}

// Extract returns every line of the file, empty ones included, then removes it
func (e *TextFileExtractor) Extract(ctx context.Context, inputFile string, _ types.ExtractionOptions) (*types.ExtractedDocument, error) {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	content, err := os.ReadFile(inputFile)
	if err != nil {
		return nil, utils.WrapError(err, "", fmt.Sprintf("error reading text file %s", inputFile))
	}

	text, err := decodeText(content)
	if err != nil {
		return nil, utils.NewEncodingError(fmt.Sprintf("text file is not valid UTF-8 or UTF-16: %s", inputFile), err)
	}
	lines := SplitLines(text)

	if err := os.Remove(inputFile); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, fmt.Sprintf("failed to remove consumed text file %s", inputFile))
	}

	e.logger.Debug("Read %d lines from %s", len(lines), inputFile)
	return &types.ExtractedDocument{
		Sections: []types.TextSection{{Role: types.RoleLines, Texts: lines}},
	}, nil
}

// decodeText honours a UTF-8 or UTF-16 byte order mark and otherwise
// requires well-formed UTF-8
func decodeText(content []byte) (string, error) {
	if _, name, certain := charset.DetermineEncoding(content, "text/plain"); certain {
		decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), content)
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", name, err)
		}
		return string(decoded), nil
	}
	if !utf8.Valid(content) {
		return "", fmt.Errorf("invalid UTF-8 byte sequence")
	}
	return string(content), nil
}

// SplitLines splits text on \r\n, \n and \r. A final terminator does not
// start another line and empty text has no lines.
func SplitLines(text string) []string {
	lines := []string{}
	for len(text) > 0 {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i])
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			i++
		}
		text = text[i+1:]
	}
	return lines
}

// Format returns the FormatKind this extractor handles
func (e *TextFileExtractor) Format() types.FormatKind {
	return types.FormatPlainText
}

// Name returns the name of the extractor
func (e *TextFileExtractor) Name() string {
	return e.name
}
