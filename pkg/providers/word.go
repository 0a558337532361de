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

// WordExtractor handles word-processing documents (.docx)
type WordExtractor struct {
	name   string
	logger *logger.Logger
}

// NewWordExtractor creates a new word-processing extractor
func NewWordExtractor(log *logger.Logger) interfaces.Extractor {
	if log == nil {
		log = logger.Discard()
	}
	return &WordExtractor{
		name:   "word",
		logger: log,
	}
}

// Extract simplifies the document markup in place, then collects the
// non-empty text of the body, every header and every footer, in that order
func (e *WordExtractor) Extract(ctx context.Context, inputFile string, opts types.ExtractionOptions) (*types.ExtractedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.simplify(inputFile); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg, err := ooxml.Open(inputFile)
	if err != nil {
		return nil, err
	}
	main, root, err := pkg.MainDocument(ooxml.WordML, "document")
	if err != nil {
		return nil, err
	}

	var texts []string
	if body := ooxml.Child(root, ooxml.WordML, "body"); body != nil {
		texts = appendRunTexts(texts, body, opts.IgnoreHidden)
	}

	for _, kind := range []string{"header", "footer"} {
		parts, err := pkg.Related(main, kind)
		if err != nil {
			return nil, err
		}
		for _, name := range parts {
			doc, err := pkg.Part(name)
			if err != nil {
				return nil, err
			}
			texts = appendRunTexts(texts, doc.Root(), opts.IgnoreHidden)
		}
	}

	e.logger.Debug("Extracted %d text runs from %s", len(texts), inputFile)
	return &types.ExtractedDocument{
		Sections: []types.TextSection{{Role: types.RoleBody, Texts: texts}},
	}, nil
}

// simplify rewrites the main document, headers, footers and notes and saves
// the container in place
func (e *WordExtractor) simplify(inputFile string) error {
	pkg, err := ooxml.Open(inputFile)
	if err != nil {
		return err
	}
	main, _, err := pkg.MainDocument(ooxml.WordML, "document")
	if err != nil {
		return err
	}

	targets := []string{main}
	for _, kind := range []string{"header", "footer", "footnotes", "endnotes"} {
		parts, err := pkg.Related(main, kind)
		if err != nil {
			return err
		}
		targets = append(targets, parts...)
	}

	changed := false
	for _, name := range targets {
		doc, err := pkg.Part(name)
		if err != nil {
			return err
		}
		if ooxml.SimplifyMarkup(doc) {
			pkg.MarkDirty(name)
			changed = true
		}
	}
	if !changed {
		return nil
	}

	e.logger.Debug("Simplified markup of %d parts in %s", len(targets), inputFile)
	return pkg.Save()
}

func appendRunTexts(texts []string, root *etree.Element, ignoreHidden bool) []string {
	for _, t := range ooxml.Descendants(root, ooxml.WordML, "t") {
		text := t.Text()
		if text == "" {
			continue
		}
		if ignoreHidden && isHidden(t.Parent()) {
			continue
		}
		texts = append(texts, text)
	}
	return texts
}

// isHidden reports whether a run carries the vanish property. An explicit
// false value switches it off.
func isHidden(run *etree.Element) bool {
	if run == nil {
		return false
	}
	for _, v := range ooxml.Descendants(run, ooxml.WordML, "vanish") {
		val, ok := ooxml.AttrValue(v, ooxml.WordML, "val")
		if !ok {
			return true
		}
		switch strings.ToLower(val) {
		case "0", "false", "off":
			continue
		}
		return true
	}
	return false
}

// Format returns the FormatKind this extractor handles
func (e *WordExtractor) Format() types.FormatKind {
	return types.FormatWordProcessing
}

// Name returns the name of the extractor
func (e *WordExtractor) Name() string {
	return e.name
}
