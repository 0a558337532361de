package types

import (
	"path/filepath"
	"strings"
)

// FormatKind identifies the document family of a file, derived from its extension
type FormatKind string

const (
	FormatWordProcessing  FormatKind = "word-processing"
	FormatSpreadsheet     FormatKind = "spreadsheet"
	FormatSlideDeck       FormatKind = "slide-deck"
	FormatPlainText       FormatKind = "plain-text"
	FormatLegacyWordLike  FormatKind = "legacy-word"
	FormatLegacySlideLike FormatKind = "legacy-slide"
	FormatLegacySheetLike FormatKind = "legacy-sheet"
	FormatUnsupported     FormatKind = "unsupported"
)

// DetectFormat returns the FormatKind for a path, comparing extensions case-insensitively
func DetectFormat(path string) FormatKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return FormatWordProcessing
	case ".xlsx":
		return FormatSpreadsheet
	case ".pptx":
		return FormatSlideDeck
	case ".txt", ".text":
		return FormatPlainText
	case ".doc", ".pdf":
		return FormatLegacyWordLike
	case ".ppt":
		return FormatLegacySlideLike
	case ".xls":
		return FormatLegacySheetLike
	default:
		return FormatUnsupported
	}
}

// IsLegacy reports whether the format must be converted before extraction
func (k FormatKind) IsLegacy() bool {
	switch k {
	case FormatLegacyWordLike, FormatLegacySlideLike, FormatLegacySheetLike:
		return true
	}
	return false
}

// Modern returns the container format a legacy kind converts to.
// Non-legacy kinds are returned unchanged.
func (k FormatKind) Modern() FormatKind {
	switch k {
	case FormatLegacyWordLike:
		return FormatWordProcessing
	case FormatLegacySlideLike:
		return FormatSlideDeck
	case FormatLegacySheetLike:
		return FormatSpreadsheet
	}
	return k
}

// SectionRole names the structural role shared by the strings of a section
type SectionRole string

const (
	RoleBody          SectionRole = "body"
	RoleSharedStrings SectionRole = "shared-strings"
	RoleComments      SectionRole = "comments"
	RoleSlides        SectionRole = "slides"
	RoleNotes         SectionRole = "notes"
	RoleLines         SectionRole = "lines"
)

// TextSection is an ordered group of extracted strings sharing one role
type TextSection struct {
	Role  SectionRole `json:"role"`
	Texts []string    `json:"texts"`
}

// ExtractedDocument holds the sections extracted from one file, in format order
type ExtractedDocument struct {
	Sections []TextSection `json:"sections"`
}

// Flatten concatenates all sections into a single ordered sequence
func (d *ExtractedDocument) Flatten() []string {
	if d == nil {
		return nil
	}
	n := 0
	for _, s := range d.Sections {
		n += len(s.Texts)
	}
	out := make([]string, 0, n)
	for _, s := range d.Sections {
		out = append(out, s.Texts...)
	}
	return out
}

// Section returns the first section with the given role
func (d *ExtractedDocument) Section(role SectionRole) (TextSection, bool) {
	if d == nil {
		return TextSection{}, false
	}
	for _, s := range d.Sections {
		if s.Role == role {
			return s, true
		}
	}
	return TextSection{}, false
}

// Batch is a contiguous run of items taken from a flattened sequence.
// Start is inclusive and End exclusive.
type Batch struct {
	Items []string `json:"items"`
	Start int      `json:"start"`
	End   int      `json:"end"`
	Size  int      `json:"size"`
}

// ExtractionOptions carries per-call extraction switches
type ExtractionOptions struct {
	IgnoreHidden bool
}

// ExtractionResult holds the outcome of extracting one resolved file
type ExtractionResult struct {
	Source        string             `json:"source"`
	ResolvedPath  string             `json:"resolved_path"`
	Format        FormatKind         `json:"format"`
	Document      *ExtractedDocument `json:"document"`
	ExtractorUsed string             `json:"extractor_used,omitempty"`
	ProcessTime   int64              `json:"process_time_ms"`
	Skipped       bool               `json:"skipped,omitempty"`
}
