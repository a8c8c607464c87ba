package ingest

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	errMessageReadContent   = "read content"
	errMessageDecodeContent = "decode content"
)

// DecodeText converts exported file bytes into text. A UTF-8 or UTF-16 byte order mark
// selects the encoding and is removed; content without one is read as UTF-8.
func DecodeText(raw []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errMessageDecodeContent, err)
	}
	return string(decoded), nil
}

// ReadText reads the reader to completion and decodes the content.
func ReadText(reader io.Reader) (string, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errMessageReadContent, err)
	}
	return DecodeText(raw)
}
