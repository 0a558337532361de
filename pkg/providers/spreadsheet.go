package providers

import (
	"context"
	"strings"

	"github.com/beevik/etree"

	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/ooxml"
	"github.com/nodewee/doc-translate-prep/pkg/types"
)

// SpreadsheetExtractor handles workbooks (.xlsx)
type SpreadsheetExtractor struct {
	name   string
	logger *logger.Logger
}

// NewSpreadsheetExtractor creates a new spreadsheet extractor
func NewSpreadsheetExtractor(log *logger.Logger) interfaces.Extractor {
	if log == nil {
		log = logger.Discard()
	}
	return &SpreadsheetExtractor{
		name:   "spreadsheet",
		logger: log,
	}
}

// Extract returns the shared-string table followed by every worksheet's
// comments. Cell text lives in the shared-string table, so hidden rows and
// columns are not filtered.
func (e *SpreadsheetExtractor) Extract(ctx context.Context, inputFile string, _ types.ExtractionOptions) (*types.ExtractedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg, err := ooxml.Open(inputFile)
	if err != nil {
		return nil, err
	}
	main, root, err := pkg.MainDocument(ooxml.SpreadsheetML, "workbook")
	if err != nil {
		return nil, err
	}

	shared, err := e.sharedStrings(pkg, main)
	if err != nil {
		return nil, err
	}
	comments, err := e.comments(pkg, main, root)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Extracted %d shared strings and %d comments from %s", len(shared), len(comments), inputFile)
	return &types.ExtractedDocument{
		Sections: []types.TextSection{
			{Role: types.RoleSharedStrings, Texts: shared},
			{Role: types.RoleComments, Texts: comments},
		},
	}, nil
}

// sharedStrings reads each si entry: its own t when non-empty, else the
// concatenated rich-text runs. Phonetic runs are not part of either.
func (e *SpreadsheetExtractor) sharedStrings(pkg *ooxml.Package, main string) ([]string, error) {
	parts, err := pkg.Related(main, "sharedStrings")
	if err != nil || len(parts) == 0 {
		return []string{}, err
	}
	doc, err := pkg.Part(parts[0])
	if err != nil {
		return nil, err
	}

	texts := []string{}
	for _, si := range ooxml.Children(doc.Root(), ooxml.SpreadsheetML, "si") {
		var text string
		if t := ooxml.Child(si, ooxml.SpreadsheetML, "t"); t != nil {
			text = t.Text()
		}
		if text == "" {
			var sb strings.Builder
			for _, r := range ooxml.Children(si, ooxml.SpreadsheetML, "r") {
				if t := ooxml.Child(r, ooxml.SpreadsheetML, "t"); t != nil {
					sb.WriteString(t.Text())
				}
			}
			text = sb.String()
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

// comments walks worksheets in workbook order
func (e *SpreadsheetExtractor) comments(pkg *ooxml.Package, main string, workbook *etree.Element) ([]string, error) {
	texts := []string{}
	sheets := ooxml.Child(workbook, ooxml.SpreadsheetML, "sheets")
	if sheets == nil {
		return texts, nil
	}

	for _, sheet := range ooxml.Children(sheets, ooxml.SpreadsheetML, "sheet") {
		part, ok, err := pkg.RelatedByID(main, ooxml.RelID(sheet))
		if err != nil {
			return nil, err
		}
		if !ok {
			e.logger.Debug("Sheet %q has no worksheet part", sheet.SelectAttrValue("name", ""))
			continue
		}

		commentParts, err := pkg.Related(part, "comments")
		if err != nil {
			return nil, err
		}
		for _, name := range commentParts {
			doc, err := pkg.Part(name)
			if err != nil {
				return nil, err
			}
			list := ooxml.Child(doc.Root(), ooxml.SpreadsheetML, "commentList")
			if list == nil {
				continue
			}
			for _, c := range ooxml.Children(list, ooxml.SpreadsheetML, "comment") {
				texts = append(texts, ooxml.InnerText(c))
			}
		}
	}
	return texts, nil
}

// Format returns the FormatKind this extractor handles
func (e *SpreadsheetExtractor) Format() types.FormatKind {
	return types.FormatSpreadsheet
}

// Name returns the name of the extractor
func (e *SpreadsheetExtractor) Name() string {
	return e.name
}
