package ooxml_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/nodewee/doc-translate-prep/pkg/ooxml"
	"github.com/nodewee/doc-translate-prep/pkg/ooxml/ooxmltest"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

func texts(root *etree.Element) []string {
	var out []string
	for _, t := range ooxml.Descendants(root, ooxml.WordML, "t") {
		out = append(out, t.Text())
	}
	return out
}

func parse(t *testing.T, xml string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func TestOpenRejectsNonPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.docx")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ooxml.Open(path)
	if err == nil {
		t.Fatal("expected error for non-zip input")
	}
	if utils.GetErrorType(err) != utils.ErrorTypeParse {
		t.Fatalf("error type = %s, want parse", utils.GetErrorType(err))
	}
}

func TestRelationshipsAndMainPart(t *testing.T) {
	dir := t.TempDir()
	path := ooxmltest.Docx(t, dir, "r.docx", ooxmltest.WordDoc{
		Body:    ooxmltest.Para("body"),
		Headers: []string{ooxmltest.Para("h1"), ooxmltest.Para("h2")},
		Footers: []string{ooxmltest.Para("f1")},
	})

	pkg, err := ooxml.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	main, err := pkg.MainPart()
	if err != nil {
		t.Fatalf("MainPart: %v", err)
	}
	if main != "word/document.xml" {
		t.Fatalf("main part = %q", main)
	}

	headers, err := pkg.Related(main, "header")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"word/header1.xml", "word/header2.xml"}; !reflect.DeepEqual(headers, want) {
		t.Fatalf("headers = %q, want %q", headers, want)
	}

	target, ok, err := pkg.RelatedByID(main, "rIdF1")
	if err != nil || !ok || target != "word/footer1.xml" {
		t.Fatalf("RelatedByID = %q, %v, %v", target, ok, err)
	}
	if _, ok, _ := pkg.RelatedByID(main, "missing"); ok {
		t.Fatal("RelatedByID found a missing id")
	}
}

func TestRelativeTargetsResolveAgainstSourceDir(t *testing.T) {
	path := ooxmltest.Xlsx(t, t.TempDir(), "c.xlsx", "", []ooxmltest.Sheet{
		{Name: "One", Comments: `<comment ref="A1" authorId="0"><text><r><t>note</t></r></text></comment>`},
	})
	pkg, err := ooxml.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	comments, err := pkg.Related("xl/worksheets/sheet1.xml", "comments")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"xl/comments1.xml"}; !reflect.DeepEqual(comments, want) {
		t.Fatalf("comments = %q, want %q", comments, want)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := ooxmltest.Docx(t, t.TempDir(), "s.docx", ooxmltest.WordDoc{Body: ooxmltest.Para("before")})

	pkg, err := ooxml.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := pkg.Part("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	ooxml.Descendants(doc.Root(), ooxml.WordML, "t")[0].SetText("after")
	pkg.MarkDirty("word/document.xml")
	if err := pkg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := ooxml.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := pkg.Names(); !reflect.DeepEqual(reopened.Names(), want) {
		t.Fatalf("entry order changed: %q, want %q", reopened.Names(), want)
	}
	doc, err = reopened.Part("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if got := texts(doc.Root()); !reflect.DeepEqual(got, []string{"after"}) {
		t.Fatalf("texts after save = %q", got)
	}
}

func TestWriteDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.docx")
	if err := ooxml.WriteDocx(path, []string{"first <line>", "", "third & last"}); err != nil {
		t.Fatalf("WriteDocx: %v", err)
	}

	pkg, err := ooxml.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_, root, err := pkg.MainDocument(ooxml.WordML, "document")
	if err != nil {
		t.Fatalf("MainDocument: %v", err)
	}
	if got := len(ooxml.Descendants(root, ooxml.WordML, "p")); got != 3 {
		t.Fatalf("paragraphs = %d, want 3", got)
	}
	if got, want := texts(root), []string{"first <line>", "third & last"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("texts = %q, want %q", got, want)
	}
}

func TestInnerText(t *testing.T) {
	doc := parse(t, `<comment><text><r><t>Hello </t></r>
		<r><rPr><b/></rPr><t>world</t></r></text></comment>`)
	if got := ooxml.InnerText(doc.Root()); got != "Hello world" {
		t.Fatalf("InnerText = %q", got)
	}
}

func TestSimplifyAcceptsRevisions(t *testing.T) {
	doc := parse(t, `<w:document `+ooxmltest.NSW+`><w:body><w:p>
		<w:r><w:t>Keep</w:t></w:r>
		<w:del w:id="1" w:author="x"><w:r><w:delText>Gone</w:delText></w:r></w:del>
		<w:ins w:id="2" w:author="x"><w:r><w:rPr><w:b/></w:rPr><w:t>Added</w:t></w:r></w:ins>
		<w:moveFrom><w:r><w:t>Old</w:t></w:r></w:moveFrom>
		<w:moveTo><w:r><w:rPr><w:i/></w:rPr><w:t>Moved</w:t></w:r></w:moveTo>
	</w:p></w:body></w:document>`)

	if !ooxml.SimplifyMarkup(doc) {
		t.Fatal("SimplifyMarkup reported no change")
	}
	if got, want := texts(doc.Root()), []string{"Keep", "Added", "Moved"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("texts = %q, want %q", got, want)
	}
	if ooxml.Descendants(doc.Root(), ooxml.WordML, "ins") != nil {
		t.Fatal("w:ins not unwrapped")
	}
}

func TestSimplifyStripsFieldsAndMarkers(t *testing.T) {
	doc := parse(t, `<w:document `+ooxmltest.NSW+`><w:body><w:p w:rsidR="00AB" w:rsidRDefault="00AB">
		<w:bookmarkStart w:id="0" w:name="_GoBack"/><w:bookmarkEnd w:id="0"/>
		<w:r><w:fldChar w:fldCharType="begin"/></w:r>
		<w:r><w:instrText> PAGE </w:instrText></w:r>
		<w:r><w:fldChar w:fldCharType="separate"/></w:r>
		<w:r><w:t>3</w:t></w:r>
		<w:r><w:fldChar w:fldCharType="end"/></w:r>
		<w:commentRangeStart w:id="5"/><w:proofErr w:type="spellStart"/>
		<w:sdt><w:sdtPr><w:alias w:val="x"/></w:sdtPr><w:sdtContent><w:r><w:t>Control</w:t></w:r></w:sdtContent></w:sdt>
		<w:hyperlink r:id="rId9"><w:r><w:t>Link</w:t></w:r></w:hyperlink>
		<w:fldSimple w:instr="DATE"><w:r><w:t>today</w:t></w:r></w:fldSimple>
	</w:p></w:body></w:document>`)

	ooxml.SimplifyMarkup(doc)
	root := doc.Root()

	for _, gone := range []string{"bookmarkStart", "bookmarkEnd", "fldChar", "instrText", "commentRangeStart", "proofErr", "sdt", "sdtPr", "fldSimple"} {
		if els := ooxml.Descendants(root, ooxml.WordML, gone); len(els) > 0 {
			t.Errorf("w:%s still present", gone)
		}
	}
	if len(ooxml.Descendants(root, ooxml.WordML, "hyperlink")) != 1 {
		t.Error("w:hyperlink removed")
	}
	p := ooxml.Descendants(root, ooxml.WordML, "p")[0]
	for _, a := range p.Attr {
		if strings.HasPrefix(a.Key, "rsid") {
			t.Errorf("attribute %s not stripped", a.FullKey())
		}
	}
	if got := strings.Join(texts(root), ""); got != "3ControlLinktoday" {
		t.Fatalf("joined texts = %q", got)
	}
}

func TestSimplifyCoalescesRuns(t *testing.T) {
	doc := parse(t, `<w:document `+ooxmltest.NSW+`><w:body><w:p>
		<w:r w:rsidR="01"><w:rPr><w:b/></w:rPr><w:t>Hel</w:t></w:r>
		<w:proofErr w:type="spellStart"/>
		<w:r w:rsidR="02"><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">lo </w:t></w:r>
		<w:r><w:rPr><w:i/></w:rPr><w:t>world</w:t></w:r>
	</w:p></w:body></w:document>`)

	ooxml.SimplifyMarkup(doc)
	if got, want := texts(doc.Root()), []string{"Hello ", "world"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("texts = %q, want %q", got, want)
	}
}

func TestSimplifyPrunesUndeclaredIgnorable(t *testing.T) {
	doc := parse(t, `<w:document `+ooxmltest.NSW+` xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"
		xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml" mc:Ignorable="w14 w15"><w:body/></w:document>`)

	ooxml.SimplifyMarkup(doc)
	if got := doc.Root().SelectAttrValue("mc:Ignorable", ""); got != "w14" {
		t.Fatalf("mc:Ignorable = %q, want w14", got)
	}
}
