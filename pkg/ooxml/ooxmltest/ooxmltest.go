// Package ooxmltest builds small OOXML packages on disk for tests.
package ooxmltest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/nodewee/doc-translate-prep/pkg/ooxml"
)

// Namespace declarations used by the fixture parts
const (
	NSW   = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	NSS   = `xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	NSP   = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	NSP18 = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p188="http://schemas.microsoft.com/office/powerpoint/2018/8/main"`

	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	header  = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// Rel is a relationship written into a .rels part
type Rel struct {
	ID     string
	Type   string // last segment, e.g. "header"; a full URI is kept as is
	Target string
}

// Rels renders a relationship part
func Rels(rels ...Rel) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		typ := r.Type
		if !strings.Contains(typ, "/") {
			typ = relBase + typ
		}
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.ID, typ, r.Target)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

// Write stores parts as a package at dir/name and returns its path. A
// content types part is added when parts has none.
func Write(t testing.TB, dir, name string, parts map[string]string) string {
	t.Helper()

	if _, ok := parts["[Content_Types].xml"]; !ok {
		parts["[Content_Types].xml"] = header +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/></Types>`
	}

	names := make([]string, 0, len(parts))
	for n := range parts {
		names = append(names, n)
	}
	sort.Strings(names)

	files := make([]ooxml.File, 0, len(names))
	for _, n := range names {
		files = append(files, ooxml.File{Name: n, Data: []byte(parts[n]), Modified: time.Now()})
	}

	path := filepath.Join(dir, name)
	if err := ooxml.WritePackage(path, files); err != nil {
		t.Fatalf("failed to write fixture package %s: %v", path, err)
	}
	return path
}

// WordDoc describes a word-processing fixture. Body, Headers and Footers are
// inner XML of w:body, w:hdr and w:ftr respectively.
type WordDoc struct {
	Body    string
	Headers []string
	Footers []string
}

// Docx writes a word-processing package
func Docx(t testing.TB, dir, name string, d WordDoc) string {
	t.Helper()

	parts := map[string]string{
		"_rels/.rels":       Rels(Rel{"rId1", "officeDocument", "word/document.xml"}),
		"word/document.xml": header + `<w:document ` + NSW + `><w:body>` + d.Body + `</w:body></w:document>`,
	}

	var rels []Rel
	for i, h := range d.Headers {
		target := fmt.Sprintf("header%d.xml", i+1)
		rels = append(rels, Rel{fmt.Sprintf("rIdH%d", i+1), "header", target})
		parts["word/"+target] = header + `<w:hdr ` + NSW + `>` + h + `</w:hdr>`
	}
	for i, f := range d.Footers {
		target := fmt.Sprintf("footer%d.xml", i+1)
		rels = append(rels, Rel{fmt.Sprintf("rIdF%d", i+1), "footer", target})
		parts["word/"+target] = header + `<w:ftr ` + NSW + `>` + f + `</w:ftr>`
	}
	if len(rels) > 0 {
		parts["word/_rels/document.xml.rels"] = Rels(rels...)
	}
	return Write(t, dir, name, parts)
}

// Para renders a paragraph with one plain run per text
func Para(texts ...string) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")
	for _, s := range texts {
		fmt.Fprintf(&sb, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, s)
	}
	sb.WriteString("</w:p>")
	return sb.String()
}

// Sheet describes one worksheet of a spreadsheet fixture. Comments, when
// set, is the inner XML of commentList.
type Sheet struct {
	Name     string
	Comments string
}

// Xlsx writes a spreadsheet package. SharedStrings is the inner XML of sst;
// an empty value omits the shared-string part.
func Xlsx(t testing.TB, dir, name, sharedStrings string, sheets []Sheet) string {
	t.Helper()

	parts := map[string]string{
		"_rels/.rels": Rels(Rel{"rId1", "officeDocument", "xl/workbook.xml"}),
	}

	var wbRels []Rel
	var sheetList strings.Builder
	for i, s := range sheets {
		id := fmt.Sprintf("rIdS%d", i+1)
		target := fmt.Sprintf("worksheets/sheet%d.xml", i+1)
		wbRels = append(wbRels, Rel{id, "worksheet", target})
		fmt.Fprintf(&sheetList, `<sheet name="%s" sheetId="%d" r:id="%s"/>`, s.Name, i+1, id)
		parts["xl/"+target] = header + `<worksheet ` + NSS + `><sheetData/></worksheet>`

		if s.Comments != "" {
			commentsTarget := fmt.Sprintf("../comments%d.xml", i+1)
			parts[fmt.Sprintf("xl/worksheets/_rels/sheet%d.xml.rels", i+1)] = Rels(Rel{"rId1", "comments", commentsTarget})
			parts[fmt.Sprintf("xl/comments%d.xml", i+1)] = header + `<comments ` + NSS +
				`><authors><author>a</author></authors><commentList>` + s.Comments + `</commentList></comments>`
		}
	}
	if sharedStrings != "" {
		wbRels = append(wbRels, Rel{"rIdSST", "sharedStrings", "sharedStrings.xml"})
		parts["xl/sharedStrings.xml"] = header + `<sst ` + NSS + `>` + sharedStrings + `</sst>`
	}

	parts["xl/workbook.xml"] = header + `<workbook ` + NSS + `><sheets>` + sheetList.String() + `</sheets></workbook>`
	parts["xl/_rels/workbook.xml.rels"] = Rels(wbRels...)
	return Write(t, dir, name, parts)
}

// Slide describes one slide of a deck fixture. Body and Notes are inner XML
// of p:txBody; Comments is the inner XML of the comment list.
type Slide struct {
	Body           string
	Notes          string
	Comments       string
	ModernComments bool
}

// Pptx writes a slide deck. Slides are listed in p:sldIdLst in the given
// order but stored under part names numbered in reverse, so that tests can
// tell list order from part order.
func Pptx(t testing.TB, dir, name string, slides []Slide) string {
	t.Helper()

	parts := map[string]string{
		"_rels/.rels": Rels(Rel{"rId1", "officeDocument", "ppt/presentation.xml"}),
	}

	var presRels []Rel
	var idList strings.Builder
	for i, s := range slides {
		n := len(slides) - i
		id := fmt.Sprintf("rIdSl%d", n)
		target := fmt.Sprintf("slides/slide%d.xml", n)
		presRels = append(presRels, Rel{id, "slide", target})
		fmt.Fprintf(&idList, `<p:sldId id="%d" r:id="%s"/>`, 256+i, id)
		parts["ppt/"+target] = header + `<p:sld ` + NSP + `><p:cSld><p:spTree><p:sp><p:txBody>` +
			s.Body + `</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`

		var slideRels []Rel
		if s.Notes != "" {
			notesTarget := fmt.Sprintf("../notesSlides/notesSlide%d.xml", n)
			slideRels = append(slideRels, Rel{"rIdN", "notesSlide", notesTarget})
			parts[fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n)] = header + `<p:notes ` + NSP +
				`><p:cSld><p:spTree><p:sp><p:txBody>` + s.Notes + `</p:txBody></p:sp></p:spTree></p:cSld></p:notes>`
		}
		if s.Comments != "" {
			if s.ModernComments {
				commentsTarget := fmt.Sprintf("../comments/modernComment_%d.xml", n)
				slideRels = append(slideRels, Rel{"rIdC", "http://schemas.microsoft.com/office/2018/10/relationships/comments", commentsTarget})
				parts[fmt.Sprintf("ppt/comments/modernComment_%d.xml", n)] = header + `<p188:cmLst ` + NSP18 + `>` +
					s.Comments + `</p188:cmLst>`
			} else {
				commentsTarget := fmt.Sprintf("../comments/comment%d.xml", n)
				slideRels = append(slideRels, Rel{"rIdC", "comments", commentsTarget})
				parts[fmt.Sprintf("ppt/comments/comment%d.xml", n)] = header + `<p:cmLst ` + NSP + `>` +
					s.Comments + `</p:cmLst>`
			}
		}
		if len(slideRels) > 0 {
			parts[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)] = Rels(slideRels...)
		}
	}

	parts["ppt/presentation.xml"] = header + `<p:presentation ` + NSP + `><p:sldIdLst>` + idList.String() +
		`</p:sldIdLst></p:presentation>`
	if len(presRels) > 0 {
		parts["ppt/_rels/presentation.xml.rels"] = Rels(presRels...)
	}
	return Write(t, dir, name, parts)
}

// TextPara renders a DrawingML paragraph with one run per text
func TextPara(texts ...string) string {
	var sb strings.Builder
	sb.WriteString("<a:p>")
	for _, s := range texts {
		fmt.Fprintf(&sb, "<a:r><a:t>%s</a:t></a:r>", s)
	}
	sb.WriteString("</a:p>")
	return sb.String()
}
