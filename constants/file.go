package constants

import "strings"

// Format tags understood by the document extractor.
const (
	TEXT        = "TEXT"
	PDF         = "PDF"
	DOCX        = "DOCX"
	IMAGE       = "IMAGE"
	SPREADSHEET = "SPREADSHEET"
)

// FileTypes holds every format tag, in dispatch order.
var FileTypes = []string{TEXT, PDF, DOCX, IMAGE, SPREADSHEET}

// AllowedExtensions holds the file extensions accepted for ingestion.
var AllowedExtensions = map[string]struct{}{
	"txt":  {},
	"pdf":  {},
	"docx": {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"xlsx": {},
	"xls":  {},
	"csv":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the format tag for an extension, or "" when unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "txt":
		return TEXT
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "png", "jpg", "jpeg":
		return IMAGE
	case "xlsx", "xls", "csv":
		return SPREADSHEET
	default:
		return ""
	}
}

// IsAllowedExt reports whether ext is accepted for ingestion.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// ImageMIMEType maps an image extension to its MIME type.
func ImageMIMEType(ext string) string {
	switch NormalizeExt(ext) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// CorpusSeparator joins the text of consecutive documents in a corpus.
const CorpusSeparator = "\n\n---\n\n"

// Placeholder replaces every missing or empty cell of a finished table.
const Placeholder = "-"

// XLSXMimeType is the MIME type of exported workbooks.
const XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
