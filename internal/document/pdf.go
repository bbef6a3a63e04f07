package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// extractPDF returns the text layer page by page. A page without text contributes "".
// Only a failure of pdftotext itself fails the document.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (Extraction, error) {
	tmpDir, err := os.MkdirTemp("", "matrix-pdf-*")
	if err != nil {
		return Extraction{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("document.pdf.cleanup_failed", "dir", tmpDir, "err", err)
		}
	}()

	path := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Extraction{}, err
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Extraction{Warnings: nonEmpty(string(errb))}, fmt.Errorf("pdftotext: %w", err)
	}

	pages := splitPages(string(out))
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}

	res := Extraction{Pages: len(pages), Method: "pdf-text"}
	for i := range pages {
		pages[i] = Normalize(pages[i])
		if pages[i] != "" || !e.cfg.OCRFallback {
			continue
		}
		txt, err := e.ocrPage(ctx, path, tmpDir, i+1)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: ocr failed: %v", i+1, err))
			continue
		}
		pages[i] = Normalize(txt)
		res.Method = "pdf-text+ocr"
	}
	res.Text = strings.Join(pages, "\n")
	return res, nil
}

// splitPages splits pdftotext output on form feeds. pdftotext terminates every page with \f,
// so the empty tail after the last one is not a page.
func splitPages(out string) []string {
	pages := strings.Split(out, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// ocrPage rasterizes a single page and runs tesseract on it.
func (e *Extractor) ocrPage(ctx context.Context, pdfPath, tmpDir string, page int) (string, error) {
	prefix := filepath.Join(tmpDir, "page-"+strconv.Itoa(page))
	n := strconv.Itoa(page)
	// pdftoppm -f N -l N -singlefile -r 300 -png <in.pdf> <prefix>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-f", n, "-l", n, "-singlefile", "-r", strconv.Itoa(e.cfg.DPI), "-png", pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 200))
	}
	// tesseract <img> stdout -l spa+eng
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, prefix+".png", "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 200))
	}
	return string(out), nil
}

func nonEmpty(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return []string{s}
}
