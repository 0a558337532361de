package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// FileDigest returns the hex SHA-256 of a file's content.
// The manifest uses it to tie stored segments to the exact bytes they came from.
func FileDigest(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", WrapError(err, "", "failed to open file for digest")
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", WrapError(err, ErrorTypeIO, "failed to read file for digest")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
