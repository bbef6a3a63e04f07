package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/interview-matrix/constants"
)

var (
	magicPDF  = []byte("%PDF-")
	magicPNG  = []byte("\x89PNG\r\n\x1a\n")
	magicJPEG = []byte{0xff, 0xd8, 0xff}
	magicZIP  = []byte("PK\x03\x04")
	magicOLE2 = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}
)

// sniff inspects content only. It returns "" when the bytes do not identify a format
// on their own (plain text and CSV look alike).
func sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, magicPDF):
		return FormatPDF
	case bytes.HasPrefix(data, magicPNG):
		return FormatPNG
	case bytes.HasPrefix(data, magicJPEG):
		return FormatJPEG
	case bytes.HasPrefix(data, magicOLE2):
		return FormatXLS
	case bytes.HasPrefix(data, magicZIP):
		return sniffZip(data)
	}
	return ""
}

// sniffZip tells a Word document from a workbook by the OOXML part names.
func sniffZip(data []byte) Format {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			return FormatDOCX
		case "xl/workbook.xml":
			return FormatXLSX
		}
	}
	return ""
}

func formatFromExt(ext string) Format {
	switch constants.NormalizeExt(ext) {
	case "txt":
		return FormatText
	case "pdf":
		return FormatPDF
	case "docx":
		return FormatDOCX
	case "png":
		return FormatPNG
	case "jpg", "jpeg":
		return FormatJPEG
	case "xlsx":
		return FormatXLSX
	case "xls":
		return FormatXLS
	case "csv":
		return FormatCSV
	}
	return ""
}

// DetectFormat picks the extraction format for a document. The declared extension must be
// one of constants.AllowedExtensions; content that identifies itself (PDF, PNG, JPEG, OOXML,
// OLE2) overrides the extension, textual content keeps it.
func DetectFormat(name string, data []byte) (Format, error) {
	ext := constants.NormalizeExt(filepath.Ext(name))
	if !constants.IsAllowedExt(ext) {
		return "", fmt.Errorf("unsupported extension: %q", ext)
	}
	declared := formatFromExt(ext)

	sniffed := sniff(data)
	if sniffed == "" {
		if declared.Kind() == TextDocument || declared == FormatCSV {
			return declared, nil
		}
		ct := http.DetectContentType(data)
		if strings.HasPrefix(ct, "text/") {
			// text content under a binary extension: read it as text
			return FormatText, nil
		}
		return declared, nil
	}
	// OLE2 is also the legacy .doc container; only trust it for .xls
	if sniffed == FormatXLS && declared != FormatXLS {
		return declared, nil
	}
	return sniffed, nil
}
