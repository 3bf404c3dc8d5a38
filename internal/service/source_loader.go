package service

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// ErrSourceUnreadable indicates the submission could not be read as text.
var ErrSourceUnreadable = errors.New("submission source unreadable")

// ErrNotText indicates the file content is not UTF-8 text.
var ErrNotText = errors.New("content is not utf-8 text")

// SourceLoader reads submission files into memory.
type SourceLoader struct{}

// NewSourceLoader constructs a loader.
func NewSourceLoader() *SourceLoader {
	return &SourceLoader{}
}

// Load returns the full text at path. Failures wrap ErrSourceUnreadable and
// the underlying cause, so errors.Is(err, fs.ErrNotExist) tells a missing
// file apart from unreadable content.
func (l *SourceLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}

	if err := ensureText(data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, path, err)
	}

	return string(data), nil
}

// ensureText accepts any valid UTF-8 without NUL bytes, whatever its leading
// bytes look like. mimetype only names the content of a rejected file.
func ensureText(data []byte) error {
	if utf8.Valid(data) && bytes.IndexByte(data, 0) < 0 {
		return nil
	}
	return fmt.Errorf("%w: detected %s", ErrNotText, mimetype.Detect(data).String())
}
