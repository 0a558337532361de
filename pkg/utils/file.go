package utils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nodewee/doc-translate-prep/pkg/constants"
)

// ValidateInputFile checks that path names an existing, readable regular file
func ValidateInputFile(path string) error {
	if path == "" {
		return NewValidationError("input file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewNotFoundError(fmt.Sprintf("input file not found: %s", path), err)
	}
	if err != nil {
		return NewIOError(fmt.Sprintf("cannot stat input file: %s", path), err)
	}
	if info.IsDir() {
		return NewValidationError(fmt.Sprintf("input path is a directory: %s", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return NewPermissionError(fmt.Sprintf("cannot read input file: %s", path), err)
	}
	file.Close()

	return nil
}

// FileExists reports whether a regular file exists at path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RemoveIfExists deletes path, treating a missing file as success
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return WrapError(err, ErrorTypeIO, fmt.Sprintf("failed to remove %s", path))
	}
	return nil
}

// CopyFile copies src to dst byte for byte. dst must not exist.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return WrapError(err, "", fmt.Sprintf("failed to open %s", src))
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), constants.DefaultDirPermission); err != nil {
		return WrapError(err, ErrorTypeIO, "failed to create output directory")
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, constants.DefaultFilePermission)
	if err != nil {
		return WrapError(err, ErrorTypeIO, fmt.Sprintf("failed to create %s", dst))
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return WrapError(err, ErrorTypeIO, fmt.Sprintf("failed to copy %s to %s", src, dst))
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return WrapError(err, ErrorTypeIO, fmt.Sprintf("failed to flush %s", dst))
	}
	return nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return WrapError(err, ErrorTypeIO, "failed to create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return WrapError(err, ErrorTypeIO, "failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return WrapError(err, ErrorTypeIO, "failed to close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return WrapError(err, ErrorTypeIO, fmt.Sprintf("failed to replace %s", path))
	}
	return nil
}
