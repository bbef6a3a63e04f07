package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/joseph-ayodele/interview-matrix/constants"
	"github.com/joseph-ayodele/interview-matrix/internal/common"
)

// SourceDocument is one uploaded file. It is never mutated after creation.
type SourceDocument struct {
	Name string
	Data []byte
	Hash string // sha256 hex of Data
}

// NewSourceDocument wraps raw bytes with their declared filename.
func NewSourceDocument(name string, data []byte) SourceDocument {
	sum := sha256.Sum256(data)
	return SourceDocument{Name: name, Data: data, Hash: hex.EncodeToString(sum[:])}
}

// Kind is the capability of a document: what it contributes to a model request.
type Kind string

const (
	TextDocument    Kind = "text"
	ImageDocument   Kind = "image"
	TabularDocument Kind = "tabular"
)

// Format is the concrete file format chosen for extraction.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// Kind returns the capability variant for f.
func (f Format) Kind() Kind {
	switch f {
	case FormatPNG, FormatJPEG:
		return ImageDocument
	case FormatXLSX, FormatXLS, FormatCSV:
		return TabularDocument
	default:
		return TextDocument
	}
}

// Tag returns the coarse format tag from constants.FileTypes.
func (f Format) Tag() string {
	return constants.MapExtToFormat(string(f))
}

// Image is a decoded image passed as-is to a multimodal model call.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

// Extraction is the result of extracting one document.
type Extraction struct {
	Name     string
	Format   Format
	Kind     Kind
	Text     string
	Image    *Image
	Pages    int
	Method   string
	Duration time.Duration
	Warnings []string
}

// DocumentError reports a document that could not be read.
type DocumentError struct {
	Name   string
	Format Format
	Err    error
}

func (e *DocumentError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("read %s (%s): %v", e.Name, e.Format, e.Err)
	}
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *DocumentError) Unwrap() []error {
	return []error{common.ErrIngestion, e.Err}
}
