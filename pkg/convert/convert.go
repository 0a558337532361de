package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// Dispatcher picks a converter per source file: the native PDF converter
// for .pdf when enabled, the office converter for everything else
type Dispatcher struct {
	office interfaces.Converter
	pdf    interfaces.Converter
}

var _ interfaces.Converter = (*Dispatcher)(nil)

// NewDispatcher combines the available converters. Either may be nil.
func NewDispatcher(office, pdf interfaces.Converter) *Dispatcher {
	return &Dispatcher{office: office, pdf: pdf}
}

// Convert delegates to the converter responsible for src
func (d *Dispatcher) Convert(ctx context.Context, src, dst string, target types.FormatKind) error {
	conv := d.office
	if strings.EqualFold(filepath.Ext(src), ".pdf") && d.pdf != nil {
		conv = d.pdf
	}
	if conv == nil {
		return utils.NewConversionError(fmt.Sprintf("no converter available for %s", filepath.Base(src)), nil)
	}
	return conv.Convert(ctx, src, dst, target)
}

// Name returns the names of the wrapped converters
func (d *Dispatcher) Name() string {
	var names []string
	for _, c := range []interfaces.Converter{d.office, d.pdf} {
		if c != nil {
			names = append(names, c.Name())
		}
	}
	return strings.Join(names, "+")
}
