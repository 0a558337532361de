package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nodewee/doc-translate-prep/pkg/config"
	"github.com/nodewee/doc-translate-prep/pkg/manifest"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

type stubProcessor struct {
	result *types.ExtractionResult
	err    error
	got    []string
}

func (p *stubProcessor) GetDocumentText(_ context.Context, path string, _ bool, targetLanguage string, _ bool) ([]*types.ExtractionResult, error) {
	p.got = append(p.got, path, targetLanguage)
	if p.err != nil {
		return nil, p.err
	}
	return []*types.ExtractionResult{p.result}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfigFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.GroupSize = 2
	cfg.MaxSize = 100
	return cfg
}

func post(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := New(&stubProcessor{}, testConfig(t), nil, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBatches(t *testing.T) {
	srv := New(&stubProcessor{}, testConfig(t), nil, nil)
	rec := post(t, srv.Handler(), "/v1/batches", BatchRequest{
		Items:     []string{"a", "b", "c", "d", "e"},
		GroupSize: 2,
		MaxSize:   10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var resp BatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Batches) != 3 || resp.Batches[2].Start != 4 || resp.Batches[2].End != 5 {
		t.Fatalf("batches = %+v", resp.Batches)
	}
}

func TestBatchesRejectsInvalidLimits(t *testing.T) {
	srv := New(&stubProcessor{}, testConfig(t), nil, nil)
	rec := post(t, srv.Handler(), "/v1/batches", BatchRequest{Items: []string{"a"}, GroupSize: -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != string(utils.ErrorTypeValidation) {
		t.Fatalf("error type = %q", resp.Type)
	}

	rec = post(t, srv.Handler(), "/v1/batches", map[string]interface{}{"items": []string{"a"}, "bogus": true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d", rec.Code)
	}
}

func TestExtract(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(src, []byte("one\ntwo\nthree\n"), 0644); err != nil {
		t.Fatal(err)
	}
	proc := &stubProcessor{result: &types.ExtractionResult{
		Source:       src,
		ResolvedPath: src + ".fr.txt",
		Format:       types.FormatPlainText,
		Document: &types.ExtractedDocument{Sections: []types.TextSection{
			{Role: types.RoleLines, Texts: []string{"one", "two", "three"}},
		}},
	}}

	store, err := manifest.Open(filepath.Join(t.TempDir(), "m.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	srv := New(proc, testConfig(t), store, nil)
	rec := post(t, srv.Handler(), "/v1/extract", ExtractRequest{Path: src, TargetLanguage: "French"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if len(proc.got) != 2 || proc.got[0] != src || proc.got[1] != "French" {
		t.Fatalf("processor called with %q", proc.got)
	}

	var resp ExtractResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RunID == "" || len(resp.Files) != 1 {
		t.Fatalf("response = %+v", resp)
	}
	file := resp.Files[0]
	if len(file.Batches) != 2 || file.Batches[0].End != 2 || file.Format != types.FormatPlainText {
		t.Fatalf("file = %+v", file)
	}

	stored, err := store.Batches(context.Background(), file.DocumentID)
	if err != nil || len(stored) != 2 {
		t.Fatalf("stored batches = %+v, %v", stored, err)
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"conversion", utils.NewConversionError("soffice failed", nil), http.StatusUnprocessableEntity},
		{"missing", utils.NewNotFoundError("input file not found", nil), http.StatusNotFound},
		{"unknown language", utils.NewNotFoundError("unknown language", nil), http.StatusNotFound},
		{"internal", utils.NewError(utils.ErrorTypeSystem, "boom", nil), http.StatusInternalServerError},
		{"aggregate of parse failures", utils.NewAggregateError(
			utils.NewError(utils.ErrorTypeParse, "bad part", nil),
			utils.NewConversionError("soffice failed", nil),
		), http.StatusUnprocessableEntity},
		{"aggregate led by missing file", utils.NewAggregateError(
			utils.NewNotFoundError("gone", nil),
			utils.NewError(utils.ErrorTypeParse, "bad part", nil),
		), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&stubProcessor{err: tt.err}, testConfig(t), nil, nil)
			rec := post(t, srv.Handler(), "/v1/extract", ExtractRequest{Path: "x.doc", TargetLanguage: "French"})
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	srv := New(&stubProcessor{}, testConfig(t), nil, nil)
	if rec := post(t, srv.Handler(), "/v1/extract", ExtractRequest{Path: "x.doc"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing language status = %d", rec.Code)
	}
}
