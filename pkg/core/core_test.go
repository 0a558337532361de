package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nodewee/doc-translate-prep/pkg/ooxml"
	"github.com/nodewee/doc-translate-prep/pkg/ooxml/ooxmltest"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

type fixedLanguages map[string]string

func (f fixedLanguages) Code(name string) (string, error) {
	if code, ok := f[name]; ok {
		return code, nil
	}
	return "", utils.NewNotFoundError("unknown language: "+name, nil)
}

var testLanguages = fixedLanguages{"French": "fr", "German": "de"}

// docxConverter stands in for an office suite by writing a fixed docx
type docxConverter struct {
	paragraphs []string
	err        error
	calls      int
}

func (c *docxConverter) Convert(_ context.Context, _, dst string, target types.FormatKind) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	if target != types.FormatWordProcessing {
		return utils.NewUnsupportedError("only docx", nil)
	}
	return ooxml.WriteDocx(dst, c.paragraphs)
}

func (c *docxConverter) Name() string { return "fake" }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		path, code, want string
	}{
		{"x.xls", "fr", "x.fr.xlsx"},
		{"x.XLSX", "fr", "x.fr.xlsx"},
		{"deck.ppt", "de", "deck.de.pptx"},
		{"report.doc", "es", "report.es.docx"},
		{"scan.pdf", "es", "scan.es.docx"},
		{"notes.txt", "de", "notes.de.txt"},
		{"notes.text", "de", "notes.de.text"},
		{"image.png", "fr", "image.fr.png"},
		{"README", "fr", "README.fr"},
		{filepath.Join("a.b", "c"), "fr", filepath.Join("a.b", "c") + ".fr"},
		{filepath.Join("dir", "x.v2.docx"), "ja", filepath.Join("dir", "x.v2.ja.docx")},
	}
	for _, tt := range tests {
		if got := OutputName(tt.path, tt.code); got != tt.want {
			t.Errorf("OutputName(%q, %q) = %q, want %q", tt.path, tt.code, got, tt.want)
		}
	}
}

func TestResolveConvertsLegacy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "x.doc")
	writeFile(t, src, "legacy")

	conv := &docxConverter{paragraphs: []string{"Hello"}}
	resolved, err := NewResolver(conv, testLanguages, nil).Resolve(context.Background(), src, "French")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{filepath.Join(dir, "x.fr.docx")}
	if !reflect.DeepEqual(resolved, want) {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if conv.calls != 1 {
		t.Fatalf("converter called %d times", conv.calls)
	}
}

func TestResolveReplacesStaleOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "x.txt")
	writeFile(t, src, "fresh")
	writeFile(t, filepath.Join(dir, "x.de.txt"), "stale")

	resolved, err := NewResolver(nil, testLanguages, nil).Resolve(context.Background(), src, "German")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, err := os.ReadFile(resolved[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "fresh" {
		t.Fatalf("working copy = %q, want fresh copy of source", got)
	}
}

func TestResolveConversionFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "x.doc")
	writeFile(t, src, "legacy")
	ctx := context.Background()

	conv := &docxConverter{err: errors.New("soffice exited with status 1")}
	_, err := NewResolver(conv, testLanguages, nil).Resolve(ctx, src, "French")
	if utils.GetErrorType(err) != utils.ErrorTypeConversion {
		t.Fatalf("error = %v, want conversion", err)
	}
	if utils.FileExists(filepath.Join(dir, "x.fr.docx")) {
		t.Fatal("failed conversion left an output behind")
	}

	_, err = NewResolver(nil, testLanguages, nil).Resolve(ctx, src, "French")
	if utils.GetErrorType(err) != utils.ErrorTypeConversion {
		t.Fatalf("error without converter = %v, want conversion", err)
	}
}

func TestResolveUnknownLanguage(t *testing.T) {
	src := filepath.Join(t.TempDir(), "x.txt")
	writeFile(t, src, "a")
	_, err := NewResolver(nil, testLanguages, nil).Resolve(context.Background(), src, "Klingon")
	if utils.GetErrorType(err) != utils.ErrorTypeNotFound {
		t.Fatalf("error = %v, want not_found", err)
	}
}

func newTestPipeline(conv *docxConverter) *Pipeline {
	var resolver *Resolver
	if conv == nil {
		resolver = NewResolver(nil, testLanguages, nil)
	} else {
		resolver = NewResolver(conv, testLanguages, nil)
	}
	return NewPipeline(resolver, NewExtractorFactory(nil), nil)
}

func TestGetDocumentTextLegacyWord(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "x.doc")
	writeFile(t, src, "legacy")

	p := newTestPipeline(&docxConverter{paragraphs: []string{"Bonjour", "", "Monde"}})
	results, err := p.GetDocumentText(context.Background(), src, false, "French", false)
	if err != nil {
		t.Fatalf("GetDocumentText: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	r := results[0]
	if r.ResolvedPath != filepath.Join(dir, "x.fr.docx") || r.Format != types.FormatWordProcessing {
		t.Fatalf("result = %+v", r)
	}
	if r.ExtractorUsed != "word" {
		t.Fatalf("extractor = %q", r.ExtractorUsed)
	}
	if got := r.Document.Flatten(); !reflect.DeepEqual(got, []string{"Bonjour", "Monde"}) {
		t.Fatalf("texts = %q", got)
	}
}

func TestGetDocumentTextPlainText(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "x.txt")
	writeFile(t, src, "one\r\ntwo\n")

	results, err := newTestPipeline(nil).GetDocumentText(context.Background(), src, false, "German", false)
	if err != nil {
		t.Fatalf("GetDocumentText: %v", err)
	}
	if got := results[0].Document.Flatten(); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Fatalf("lines = %q", got)
	}
	if results[0].ResolvedPath != filepath.Join(dir, "x.de.txt") {
		t.Fatalf("resolved = %q", results[0].ResolvedPath)
	}

	content, err := os.ReadFile(src)
	if err != nil || string(content) != "one\r\ntwo\n" {
		t.Fatalf("source changed: %q, %v", content, err)
	}
}

func TestGetDocumentTextKeepsSourceDocx(t *testing.T) {
	dir := t.TempDir()
	src := ooxmltest.Docx(t, dir, "memo.docx", ooxmltest.WordDoc{
		Body: ooxmltest.Para("Hel", "lo"),
	})
	before, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	results, err := newTestPipeline(nil).GetDocumentText(context.Background(), src, false, "French", false)
	if err != nil {
		t.Fatalf("GetDocumentText: %v", err)
	}
	if len(results[0].Document.Flatten()) == 0 {
		t.Fatal("no text extracted")
	}

	after, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatal("source document was modified")
	}
}

func TestGetDocumentTextUnsupported(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeFile(t, src, "png")

	results, err := newTestPipeline(nil).GetDocumentText(context.Background(), src, false, "French", false)
	if err != nil {
		t.Fatalf("GetDocumentText: %v", err)
	}
	if len(results) != 1 || !results[0].Skipped || len(results[0].Document.Flatten()) != 0 {
		t.Fatalf("results = %+v", results)
	}
	if !utils.FileExists(filepath.Join(dir, "photo.fr.png")) {
		t.Fatal("unsupported file was not copied")
	}
}

func TestGetDocumentTextRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(nil)
	ctx := context.Background()

	if _, err := p.GetDocumentText(ctx, dir, true, "French", false); utils.GetErrorType(err) != utils.ErrorTypeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	if _, err := p.GetDocumentText(ctx, dir, false, "French", false); err == nil {
		t.Fatal("expected error for directory passed as a file")
	}
}

func TestGetDocumentTextMissingFile(t *testing.T) {
	_, err := newTestPipeline(nil).GetDocumentText(context.Background(), filepath.Join(t.TempDir(), "nope.docx"), false, "French", false)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGetDocumentTextConversionFailure(t *testing.T) {
	src := filepath.Join(t.TempDir(), "x.xls")
	writeFile(t, src, "legacy")

	p := newTestPipeline(&docxConverter{err: errors.New("boom")})
	results, err := p.GetDocumentText(context.Background(), src, false, "French", false)
	if utils.GetErrorType(err) != utils.ErrorTypeConversion || results != nil {
		t.Fatalf("results=%v err=%v, want conversion error", results, err)
	}
}

func TestFactory(t *testing.T) {
	f := NewExtractorFactory(nil)
	if got := f.ListExtractors(); len(got) != 4 {
		t.Fatalf("extractors = %q", got)
	}
	for _, kind := range []types.FormatKind{types.FormatWordProcessing, types.FormatSpreadsheet, types.FormatSlideDeck, types.FormatPlainText} {
		e, err := f.CreateExtractor(kind)
		if err != nil || e.Format() != kind {
			t.Errorf("CreateExtractor(%s) = %v, %v", kind, e, err)
		}
	}
	for _, kind := range []types.FormatKind{types.FormatLegacyWordLike, types.FormatUnsupported} {
		if _, err := f.CreateExtractor(kind); utils.GetErrorType(err) != utils.ErrorTypeUnsupported {
			t.Errorf("CreateExtractor(%s) error = %v, want unsupported", kind, err)
		}
	}
}
