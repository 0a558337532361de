package convert

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/ooxml"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// PDFConverter turns the text layer of a PDF into a word-processing
// document with one paragraph per text line. Layout is not preserved.
type PDFConverter struct {
	name   string
	logger *logger.Logger
}

var _ interfaces.Converter = (*PDFConverter)(nil)

// NewPDFConverter creates a native PDF converter
func NewPDFConverter(log *logger.Logger) *PDFConverter {
	if log == nil {
		log = logger.Discard()
	}
	return &PDFConverter{
		name:   "native-pdf",
		logger: log,
	}
}

// Convert writes a .docx holding the text lines of src to dst
func (c *PDFConverter) Convert(ctx context.Context, src, dst string, target types.FormatKind) error {
	if target != types.FormatWordProcessing {
		return utils.NewUnsupportedError(fmt.Sprintf("PDF can only be converted to %s, not %s", types.FormatWordProcessing, target), nil)
	}

	paragraphs, err := c.readLines(ctx, src)
	if err != nil {
		return err
	}
	if err := ooxml.WriteDocx(dst, paragraphs); err != nil {
		return utils.WrapError(err, "", fmt.Sprintf("failed to write %s", dst))
	}

	c.logger.Debug("Converted %s to %d paragraphs", src, len(paragraphs))
	return nil
}

func (c *PDFConverter) readLines(ctx context.Context, src string) (lines []string, err error) {
	// the PDF parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = utils.NewConversionError(fmt.Sprintf("malformed PDF %s: %v", src, r), nil)
		}
	}()

	f, err := os.Open(src)
	if err != nil {
		return nil, utils.WrapError(err, "", fmt.Sprintf("failed to open %s", src))
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, fmt.Sprintf("failed to stat %s", src))
	}
	r, err := pdf.NewReader(f, fi.Size())
	if err != nil {
		return nil, utils.NewConversionError(fmt.Sprintf("failed to read PDF %s", src), err)
	}

	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; ok {
				continue
			}
			font := p.Font(name)
			fonts[name] = &font
		}

		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, utils.NewConversionError(fmt.Sprintf("failed to read page %d of %s", i, src), err)
		}
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

// Name returns the name of the converter
func (c *PDFConverter) Name() string {
	return c.name
}
