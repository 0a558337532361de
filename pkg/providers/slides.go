package providers

import (
	"context"

	"github.com/beevik/etree"

	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/ooxml"
	"github.com/nodewee/doc-translate-prep/pkg/types"
)

// SlideExtractor handles slide decks (.pptx)
type SlideExtractor struct {
	name   string
	logger *logger.Logger
}

// NewSlideExtractor creates a new slide deck extractor
func NewSlideExtractor(log *logger.Logger) interfaces.Extractor {
	if log == nil {
		log = logger.Discard()
	}
	return &SlideExtractor{
		name:   "slides",
		logger: log,
	}
}

// Extract returns slide text, speaker notes and comments as three sections.
// Slides are visited in presentation order.
func (e *SlideExtractor) Extract(ctx context.Context, inputFile string, _ types.ExtractionOptions) (*types.ExtractedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg, err := ooxml.Open(inputFile)
	if err != nil {
		return nil, err
	}
	main, root, err := pkg.MainDocument(ooxml.PresentationML, "presentation")
	if err != nil {
		return nil, err
	}

	slides, err := e.slideParts(pkg, main, root)
	if err != nil {
		return nil, err
	}

	body, notes, comments := []string{}, []string{}, []string{}
	for _, slide := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := pkg.Part(slide)
		if err != nil {
			return nil, err
		}
		body = appendParagraphRuns(body, doc.Root())

		notesParts, err := pkg.Related(slide, "notesSlide")
		if err != nil {
			return nil, err
		}
		for _, name := range notesParts {
			nd, err := pkg.Part(name)
			if err != nil {
				return nil, err
			}
			notes = appendParagraphRuns(notes, nd.Root())
		}

		// legacy and 2018 comment parts share the relationship kind
		commentParts, err := pkg.Related(slide, "comments")
		if err != nil {
			return nil, err
		}
		for _, name := range commentParts {
			cd, err := pkg.Part(name)
			if err != nil {
				return nil, err
			}
			for _, cm := range ooxml.Children(cd.Root(), ooxml.PresentationML, "cm") {
				comments = appendCommentTexts(comments, cm)
			}
		}
	}

	e.logger.Debug("Extracted %d slide runs, %d note runs and %d comments from %s",
		len(body), len(notes), len(comments), inputFile)
	return &types.ExtractedDocument{
		Sections: []types.TextSection{
			{Role: types.RoleSlides, Texts: body},
			{Role: types.RoleNotes, Texts: notes},
			{Role: types.RoleComments, Texts: comments},
		},
	}, nil
}

// slideParts lists slide parts in p:sldIdLst order
func (e *SlideExtractor) slideParts(pkg *ooxml.Package, main string, root *etree.Element) ([]string, error) {
	list := ooxml.Child(root, ooxml.PresentationML, "sldIdLst")
	if list == nil {
		return nil, nil
	}

	var slides []string
	for _, id := range ooxml.Children(list, ooxml.PresentationML, "sldId") {
		part, ok, err := pkg.RelatedByID(main, ooxml.RelID(id))
		if err != nil {
			return nil, err
		}
		if !ok {
			e.logger.Warn("Slide id %s in %s has no slide part", id.SelectAttrValue("id", "?"), pkg.Path())
			continue
		}
		slides = append(slides, part)
	}
	return slides, nil
}

// appendParagraphRuns adds the non-empty text of every direct run of every
// DrawingML paragraph below root
func appendParagraphRuns(texts []string, root *etree.Element) []string {
	for _, p := range ooxml.Descendants(root, ooxml.DrawingML, "p") {
		for _, r := range ooxml.Children(p, ooxml.DrawingML, "r") {
			t := ooxml.Child(r, ooxml.DrawingML, "t")
			if t == nil {
				continue
			}
			if text := t.Text(); text != "" {
				texts = append(texts, text)
			}
		}
	}
	return texts
}

// appendCommentTexts adds the text of one comment. A legacy comment keeps it
// in p:text. A 2018 threaded comment keeps it in its own txBody, and each
// non-empty reply in replyLst becomes a separate entry after it.
func appendCommentTexts(texts []string, cm *etree.Element) []string {
	if legacy := ooxml.Child(cm, ooxml.PresentationML, "text"); legacy != nil {
		return append(texts, legacy.Text())
	}

	body := ooxml.Child(cm, ooxml.PresentationML, "txBody")
	if body == nil {
		return append(texts, "")
	}
	texts = append(texts, ooxml.InnerText(body))

	if replies := ooxml.Child(cm, ooxml.PresentationML, "replyLst"); replies != nil {
		for _, reply := range ooxml.Children(replies, ooxml.PresentationML, "reply") {
			rb := ooxml.Child(reply, ooxml.PresentationML, "txBody")
			if rb == nil {
				continue
			}
			if text := ooxml.InnerText(rb); text != "" {
				texts = append(texts, text)
			}
		}
	}
	return texts
}

// Format returns the FormatKind this extractor handles
func (e *SlideExtractor) Format() types.FormatKind {
	return types.FormatSlideDeck
}

// Name returns the name of the extractor
func (e *SlideExtractor) Name() string {
	return e.name
}
