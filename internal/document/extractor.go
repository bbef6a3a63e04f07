package document

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "spa+eng"
	DPI           int    // rasterization DPI for OCR fallback, default 300
	MaxPages      int    // 0 = no limit

	// OCRFallback rasterizes and OCRs PDF pages that carry no text layer.
	OCRFallback bool
}

// Extractor turns one SourceDocument into text, an image, or rendered tabular text.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "spa+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the external command runner.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract picks a strategy from the detected format.
func (e *Extractor) Extract(ctx context.Context, doc SourceDocument) (Extraction, error) {
	start := time.Now()
	format, err := DetectFormat(doc.Name, doc.Data)
	if err != nil {
		return Extraction{Name: doc.Name}, &DocumentError{Name: doc.Name, Err: err}
	}
	e.logger.Debug("document.extract.start", "name", doc.Name, "format", format, "bytes", len(doc.Data))

	var res Extraction
	switch format {
	case FormatText:
		res, err = extractText(doc.Data)
	case FormatPDF:
		res, err = e.extractPDF(ctx, doc.Data)
	case FormatDOCX:
		res, err = extractDOCX(doc.Data)
	case FormatPNG, FormatJPEG:
		res, err = extractImage(doc.Name, format, doc.Data)
	case FormatXLSX:
		res, err = extractXLSX(doc.Data)
	case FormatXLS:
		res, err = extractXLS(doc.Data)
	case FormatCSV:
		res, err = extractCSV(doc.Data)
	default:
		err = fmt.Errorf("no extractor for format %q", format)
	}
	res.Name = doc.Name
	res.Format = format
	res.Kind = format.Kind()
	res.Duration = time.Since(start)
	if err != nil {
		return res, &DocumentError{Name: doc.Name, Format: format, Err: err}
	}
	return res, nil
}
