// Package convert upgrades legacy documents (.doc, .ppt, .xls, .pdf) into
// the modern container formats the extractors read.
package convert

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nodewee/doc-translate-prep/pkg/constants"
	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// OfficeConverter runs LibreOffice headless. Every conversion gets its own
// user profile and output directory, so concurrent conversions never share
// an office session.
type OfficeConverter struct {
	name        string
	sofficePath string
	scratchDir  string
	logger      *logger.Logger
}

var _ interfaces.Converter = (*OfficeConverter)(nil)

// NewOfficeConverter creates a converter around the soffice executable.
// Scratch directories are created under scratchDir, or the system temp
// directory when it is empty.
func NewOfficeConverter(sofficePath, scratchDir string, log *logger.Logger) *OfficeConverter {
	if log == nil {
		log = logger.Discard()
	}
	return &OfficeConverter{
		name:        "libreoffice",
		sofficePath: sofficePath,
		scratchDir:  scratchDir,
		logger:      log,
	}
}

// Convert writes a target-format rendition of src to dst
func (c *OfficeConverter) Convert(ctx context.Context, src, dst string, target types.FormatKind) error {
	ext, err := targetExtension(target)
	if err != nil {
		return err
	}
	if c.sofficePath == "" {
		return utils.NewConversionError("LibreOffice not found; set soffice_path with 'config set soffice_path <path>'", nil)
	}

	c.logger.Progress("🔄", "Converting %s to %s with LibreOffice", filepath.Base(src), ext)

	session := utils.NewResourceManager(c.scratchDir, c.logger)
	return session.WithCleanup(func() error {
		prefix := constants.GetPlatformConfig().TempDirPrefix
		profile, err := session.CreateTempDir(prefix + "profile-")
		if err != nil {
			return err
		}
		outDir, err := session.CreateTempDir(prefix + "out-")
		if err != nil {
			return err
		}

		absSrc, err := filepath.Abs(src)
		if err != nil {
			return utils.WrapError(err, utils.ErrorTypeIO, "failed to resolve source path")
		}

		cmd := exec.CommandContext(ctx, c.sofficePath, sofficeArgs(profile, outDir, absSrc, ext)...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return utils.WrapError(ctxErr, utils.ErrorTypeTimeout, fmt.Sprintf("conversion of %s interrupted", src))
			}
			c.logger.Error("LibreOffice conversion failed: %s", strings.TrimSpace(string(output)))
			return utils.NewConversionError(fmt.Sprintf("failed to convert %s to %s", src, ext), err)
		}

		produced := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))+"."+ext)
		if !utils.FileExists(produced) {
			return utils.NewConversionError(
				fmt.Sprintf("LibreOffice produced no %s output for %s: %s", ext, src, strings.TrimSpace(string(output))), nil)
		}

		if err := moveFile(produced, dst); err != nil {
			return err
		}
		c.logger.Debug("Converted %s -> %s", src, dst)
		return nil
	})
}

// Name returns the name of the converter
func (c *OfficeConverter) Name() string {
	return c.name
}

// pdfImportFilter opens a PDF in Writer; without it soffice loads PDFs in
// Draw, which cannot export docx
const pdfImportFilter = "writer_pdf_import"

// sofficeArgs builds the headless conversion command line for src
func sofficeArgs(profile, outDir, src, ext string) []string {
	args := []string{
		"--headless",
		"--norestore",
		"--nolockcheck",
		"-env:UserInstallation=" + fileURL(profile),
	}
	if strings.EqualFold(filepath.Ext(src), ".pdf") {
		args = append(args, "--infilter="+pdfImportFilter)
	}
	return append(args, "--convert-to", ext, "--outdir", outDir, src)
}

func targetExtension(target types.FormatKind) (string, error) {
	switch target {
	case types.FormatWordProcessing:
		return strings.TrimPrefix(constants.WordOutputExt, "."), nil
	case types.FormatSlideDeck:
		return strings.TrimPrefix(constants.SlideOutputExt, "."), nil
	case types.FormatSpreadsheet:
		return strings.TrimPrefix(constants.SpreadsheetOutputExt, "."), nil
	default:
		return "", utils.NewUnsupportedError(fmt.Sprintf("no conversion target for %s", target), nil)
	}
}

// fileURL renders a directory as the file URL soffice expects for -env options
func fileURL(dir string) string {
	p := filepath.ToSlash(dir)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// moveFile renames src to dst, copying when they live on different devices
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if errors.Is(err, os.ErrNotExist) {
		return utils.WrapError(err, utils.ErrorTypeIO, fmt.Sprintf("failed to move %s", src))
	}
	if err := utils.CopyFile(src, dst); err != nil {
		return err
	}
	return utils.RemoveIfExists(src)
}
