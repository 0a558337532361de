package utils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestAggregateError(t *testing.T) {
	if NewAggregateError() != nil || NewAggregateError(nil, nil) != nil {
		t.Fatal("aggregate of no errors must be nil")
	}

	single := NewParseError("bad part", nil)
	if got := NewAggregateError(nil, single); got != single {
		t.Fatalf("single cause not returned as is: %v", got)
	}

	first := NewConversionError("a.doc failed", nil)
	second := fmt.Errorf("b.xls: %w", fs.ErrNotExist)
	err := NewAggregateError(first, second)
	if GetErrorType(err) != ErrorTypeAggregate {
		t.Fatalf("type = %s", GetErrorType(err))
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("aggregate is not an AppError")
	}
	if want := first.Error() + " " + second.Error(); appErr.Message != want {
		t.Fatalf("message = %q, want %q", appErr.Message, want)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("causes not reachable through errors.Is")
	}
}

func TestWrapErrorKeepsType(t *testing.T) {
	inner := NewEncodingError("invalid UTF-8", nil)
	wrapped := WrapError(inner, "", "notes.txt")
	if wrapped.Type != ErrorTypeEncoding || wrapped.Message != "notes.txt: invalid UTF-8" {
		t.Fatalf("wrapped = %+v", wrapped)
	}
	if WrapError(nil, ErrorTypeIO, "x") != nil {
		t.Fatal("wrapping nil must return nil")
	}
	if got := WrapError(errors.New("boom"), ErrorTypeConversion, "x").Type; got != ErrorTypeConversion {
		t.Fatalf("explicit type overridden: %s", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{context.DeadlineExceeded, ErrorTypeTimeout},
		{fmt.Errorf("open: %w", fs.ErrNotExist), ErrorTypeNotFound},
		{fmt.Errorf("open: %w", fs.ErrPermission), ErrorTypePermission},
		{errors.New("zip: not a valid zip file"), ErrorTypeParse},
		{errors.New("something odd"), ErrorTypeSystem},
	}
	for _, tt := range tests {
		if got := GetErrorType(tt.err); got != tt.want {
			t.Errorf("GetErrorType(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestErrorsIsMatchesType(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewConversionError("soffice failed", nil))
	if !errors.Is(err, &AppError{Type: ErrorTypeConversion}) {
		t.Fatal("errors.Is should match on type")
	}
	if errors.Is(err, &AppError{Type: ErrorTypeParse}) {
		t.Fatal("errors.Is matched the wrong type")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(src, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out", "a.fr.txt")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "content" {
		t.Fatalf("copy = %q, %v", got, err)
	}

	if err := CopyFile(src, dst); err == nil {
		t.Fatal("CopyFile must not overwrite an existing file")
	}
	if err := CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "x")); GetErrorType(err) != ErrorTypeNotFound {
		t.Fatalf("missing source error = %v", err)
	}
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.docx")
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(path); err != nil || FileExists(path) {
		t.Fatalf("file not removed: %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.xml")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Fatalf("content = %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	if GetErrorType(ValidateInputFile("")) != ErrorTypeValidation {
		t.Error("empty path")
	}
	if GetErrorType(ValidateInputFile(dir)) != ErrorTypeValidation {
		t.Error("directory")
	}
	if GetErrorType(ValidateInputFile(filepath.Join(dir, "nope"))) != ErrorTypeNotFound {
		t.Error("missing file")
	}
}

func TestFileDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := FileDigest(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"; got != want {
		t.Fatalf("digest = %s", got)
	}
}

func TestResourceManagerCleanup(t *testing.T) {
	base := t.TempDir()
	rm := NewResourceManager(base, nil)

	var order []int
	var created string
	err := rm.WithCleanup(func() error {
		dir, err := rm.CreateTempDir("session-")
		if err != nil {
			return err
		}
		created = dir
		rm.RegisterCleanupFunc(func() error { order = append(order, 1); return nil })
		rm.RegisterCleanupFunc(func() error { order = append(order, 2); return nil })
		return errors.New("conversion failed")
	})
	if err == nil || err.Error() != "conversion failed" {
		t.Fatalf("WithCleanup error = %v", err)
	}
	if _, statErr := os.Stat(created); !errors.Is(statErr, fs.ErrNotExist) {
		t.Fatalf("scratch directory survived cleanup: %v", statErr)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("cleanup order = %v", order)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/prep.db")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "prep.db") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
