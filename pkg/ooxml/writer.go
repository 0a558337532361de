package ooxml

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// File is one entry written by WritePackage
type File struct {
	Name     string
	Data     []byte
	Stored   bool
	Modified time.Time
}

// WritePackage writes files as a zip container at filePath. The content
// types part is always written first. The target is replaced atomically.
func WritePackage(filePath string, files []File) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	ordered := make([]File, 0, len(files))
	for _, f := range files {
		if normalizeName(f.Name) == normalizeName(contentTypesPart) {
			ordered = append([]File{f}, ordered...)
		} else {
			ordered = append(ordered, f)
		}
	}

	for _, f := range ordered {
		hdr := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		}
		if f.Stored {
			hdr.Method = zip.Store
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return utils.NewIOError(fmt.Sprintf("failed to add %s to package", f.Name), err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return utils.NewIOError(fmt.Sprintf("failed to write %s to package", f.Name), err)
		}
	}
	if err := zw.Close(); err != nil {
		return utils.NewIOError("failed to finish package", err)
	}

	return utils.WriteFileAtomic(filePath, buf.Bytes())
}

const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	contentTypeDocument   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// WriteDocx writes a minimal word-processing package at filePath holding one
// paragraph per entry of paragraphs
func WriteDocx(filePath string, paragraphs []string) error {
	types := etree.NewDocument()
	types.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	typesRoot := types.CreateElement("Types")
	typesRoot.CreateAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/content-types")
	def := typesRoot.CreateElement("Default")
	def.CreateAttr("Extension", "rels")
	def.CreateAttr("ContentType", "application/vnd.openxmlformats-package.relationships+xml")
	def = typesRoot.CreateElement("Default")
	def.CreateAttr("Extension", "xml")
	def.CreateAttr("ContentType", "application/xml")
	override := typesRoot.CreateElement("Override")
	override.CreateAttr("PartName", "/word/document.xml")
	override.CreateAttr("ContentType", contentTypeDocument)

	rels := etree.NewDocument()
	rels.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	relsRoot := rels.CreateElement("Relationships")
	relsRoot.CreateAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/relationships")
	rel := relsRoot.CreateElement("Relationship")
	rel.CreateAttr("Id", "rId1")
	rel.CreateAttr("Type", relTypeOfficeDocument)
	rel.CreateAttr("Target", "word/document.xml")

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", WordML[0])
	body := root.CreateElement("w:body")
	for _, text := range paragraphs {
		p := body.CreateElement("w:p")
		if text == "" {
			continue
		}
		t := p.CreateElement("w:r").CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(text)
	}
	body.CreateElement("w:sectPr")

	now := time.Now()
	var files []File
	for _, part := range []struct {
		name string
		doc  *etree.Document
	}{
		{contentTypesPart, types},
		{"_rels/.rels", rels},
		{"word/document.xml", doc},
	} {
		data, err := part.doc.WriteToBytes()
		if err != nil {
			return utils.NewIOError(fmt.Sprintf("failed to serialize %s", part.name), err)
		}
		files = append(files, File{Name: part.name, Data: data, Modified: now})
	}
	return WritePackage(filePath, files)
}
