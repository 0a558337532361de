package core

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nodewee/doc-translate-prep/pkg/constants"
	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// OutputName derives the working-copy name for path: the language code goes
// before the extension, and legacy extensions become their modern
// counterpart. "x.xls" with "fr" becomes "x.fr.xlsx". Only the file name's
// extension counts; a name without one gets the code appended.
func OutputName(path, code string) string {
	dir, file := filepath.Split(path)
	ext := filepath.Ext(file)
	if ext == "" {
		return path + "." + code
	}
	stem := strings.TrimSuffix(file, ext)
	return dir + stem + "." + code + outputExtension(ext)
}

func outputExtension(ext string) string {
	lower := strings.ToLower(ext)
	switch {
	case slices.Contains(constants.SpreadsheetExtensions, lower):
		return constants.SpreadsheetOutputExt
	case slices.Contains(constants.SlideExtensions, lower):
		return constants.SlideOutputExt
	case slices.Contains(constants.WordExtensions, lower):
		return constants.WordOutputExt
	case slices.Contains(constants.TextExtensions, lower):
		return constants.TextOutputExt
	default:
		return ext
	}
}

// Resolver prepares the working copy each input is extracted from. Legacy
// formats are converted, everything else is copied, and source files are
// never modified.
type Resolver struct {
	converter interfaces.Converter
	languages interfaces.LanguageResolver
	logger    *logger.Logger
}

// NewResolver creates a resolver. converter may be nil when no legacy input
// is expected; converting then fails with a conversion error.
func NewResolver(converter interfaces.Converter, languages interfaces.LanguageResolver, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{
		converter: converter,
		languages: languages,
		logger:    log,
	}
}

// OutputPath returns the working-copy path for path and a language name
func (r *Resolver) OutputPath(path, targetLanguage string) (string, error) {
	code, err := r.languages.Code(targetLanguage)
	if err != nil {
		return "", err
	}
	return OutputName(path, code), nil
}

// Resolve produces the working copy for path and returns its location. A
// stale working copy from an earlier run is deleted first.
func (r *Resolver) Resolve(ctx context.Context, path, targetLanguage string) ([]string, error) {
	out, err := r.OutputPath(path, targetLanguage)
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveIfExists(out); err != nil {
		return nil, err
	}

	kind := types.DetectFormat(path)
	if !kind.IsLegacy() {
		r.logger.Debug("Copying %s -> %s", path, out)
		if err := utils.CopyFile(path, out); err != nil {
			return nil, err
		}
		return []string{out}, nil
	}

	if r.converter == nil {
		return nil, utils.NewConversionError(fmt.Sprintf("no converter configured for %s", path), nil)
	}
	r.logger.Progress("🔄", "Converting %s (%s) with %s", filepath.Base(path), kind, r.converter.Name())
	if err := r.converter.Convert(ctx, path, out, kind.Modern()); err != nil {
		// a half-written output must not be mistaken for a result later
		utils.RemoveIfExists(out)
		switch utils.GetErrorType(err) {
		case utils.ErrorTypeConversion, utils.ErrorTypeTimeout:
			return nil, err
		}
		return nil, utils.WrapError(err, utils.ErrorTypeConversion, fmt.Sprintf("failed to convert %s", path))
	}
	if !utils.FileExists(out) {
		return nil, utils.NewConversionError(fmt.Sprintf("converter produced no output for %s", path), nil)
	}
	return []string{out}, nil
}
