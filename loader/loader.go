// Package loader reads specification manuals from disk as raw text.
//
// PDF pages are joined with form feeds so that parsing can recover page numbers.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoText is returned when a document yields no text at all.
	ErrNoText = errors.New("document contains no text")
)

// PageSeparator separates the text of consecutive PDF pages.
const PageSeparator = "\f"

// SupportedExtensions lists the file extensions Load can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".pdf":  true,
}

// Load reads the file at path and returns its text.
func Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !SupportedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	var text string
	if ext == ".pdf" {
		text, err = ReadPDF(bytes.NewReader(content), int64(len(content)))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	} else {
		text = string(content)
	}

	if strings.TrimSpace(strings.ReplaceAll(text, PageSeparator, "")) == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return text, nil
}

// ReadPDF extracts the plain text of every page, separated by PageSeparator.
// Pages whose text cannot be extracted contribute an empty page so numbering is kept.
func ReadPDF(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if i > 1 {
			buf.WriteString(PageSeparator)
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Debug("skipping unreadable PDF page", "page", i, "err", err)
			continue
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}
