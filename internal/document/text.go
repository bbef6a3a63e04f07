package document

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// extractText decodes UTF-8. Bytes that are not valid UTF-8 are read as Windows-1252,
// the usual encoding of transcripts saved by older Office tools.
func extractText(data []byte) (Extraction, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return Extraction{Text: string(data), Pages: 1, Method: "utf8"}, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return Extraction{}, fmt.Errorf("decode text: %w", err)
	}
	return Extraction{
		Text:     string(decoded),
		Pages:    1,
		Method:   "windows-1252",
		Warnings: []string{"content was not valid UTF-8, decoded as Windows-1252"},
	}, nil
}
