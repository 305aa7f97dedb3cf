package core

// decode.go turns uploaded bytes into document text.
//
// Uploads arrive from browsers and spreadsheet exports in a handful of
// encodings. DecodeText normalises them before tokenizing:
//
//   - A UTF-8 BOM (0xEF 0xBB 0xBF) is removed
//   - UTF-16 LE/BE input with a BOM is transcoded to UTF-8
//   - Invalid UTF-8 sequences become U+FFFD
//
// The reader is also capped, so an oversized body fails with ErrFileTooLarge
// instead of being buffered in full.

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxFileSize is the per-file size cap when none is configured (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// DecodeText reads r fully and returns its content as UTF-8 text.
// A maxSize of zero or less means DefaultMaxFileSize.
func DecodeText(r io.Reader, maxSize int64) (string, error) {
	if r == nil {
		return "", errors.New("no content")
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	capped := &cappedReader{reader: r, remaining: maxSize}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())

	data, err := io.ReadAll(transform.NewReader(capped, decoder))
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return "", tooLarge(maxSize)
		}
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(data), nil
}

// cappedReader fails with ErrFileTooLarge once more than remaining bytes
// have been read.
type cappedReader struct {
	reader    io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	// Read one byte past the limit so an exact-size file still succeeds.
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.reader.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, ErrFileTooLarge
	}
	return n, err
}

func tooLarge(limit int64) error {
	return fmt.Errorf("%w: exceeds %s limit", ErrFileTooLarge, formatLimit(limit))
}

// formatLimit renders a byte limit in whole megabytes, or in bytes when the
// limit is not a whole number of megabytes.
func formatLimit(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
