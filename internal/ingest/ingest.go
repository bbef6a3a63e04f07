package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/interview-matrix/constants"
	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/document"
)

// Segment is the extracted text of one document.
type Segment struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Corpus is everything extracted from one upload batch, in upload order.
type Corpus struct {
	Segments []Segment        `json:"segments"`
	Images   []document.Image `json:"images,omitempty"`
}

// Text joins the segment texts with constants.CorpusSeparator.
// Segments that yielded no text still take their slot.
func (c Corpus) Text() string {
	parts := make([]string, len(c.Segments))
	for i, s := range c.Segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, constants.CorpusSeparator)
}

// IsEmpty reports whether the corpus holds no documents at all.
func (c Corpus) IsEmpty() bool {
	return len(c.Segments) == 0 && len(c.Images) == 0
}

// Warning is a user-visible, non-fatal ingestion message about one file.
type Warning struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	// Skipped is set when the document contributed nothing to the corpus.
	Skipped bool `json:"skipped"`
}

// Extractor is the per-document extraction the ingestor depends on.
type Extractor interface {
	Extract(ctx context.Context, doc document.SourceDocument) (document.Extraction, error)
}

type Ingestor struct {
	extractor Extractor
	logger    *slog.Logger
}

func NewIngestor(ex Extractor, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{extractor: ex, logger: logger}
}

// Ingest extracts docs sequentially. A document that fails is skipped with one warning
// naming it; the rest of the batch continues.
func (i *Ingestor) Ingest(ctx context.Context, docs []document.SourceDocument) (Corpus, []Warning, error) {
	if len(docs) == 0 {
		return Corpus{}, nil, common.MissingInput("documents")
	}
	start := time.Now()
	var (
		corpus   Corpus
		warnings []Warning
	)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return Corpus{}, nil, err
		}
		res, err := i.extractor.Extract(ctx, doc)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Corpus{}, nil, err
			}
			i.logger.Warn("ingest.document.failed", "name", doc.Name, "sha256", doc.Hash, "error", err)
			warnings = append(warnings, Warning{Name: doc.Name, Message: err.Error(), Skipped: true})
			continue
		}
		for _, w := range res.Warnings {
			warnings = append(warnings, Warning{Name: doc.Name, Message: w})
		}
		corpus.Segments = append(corpus.Segments, Segment{Name: doc.Name, Text: res.Text})
		if res.Image != nil {
			corpus.Images = append(corpus.Images, *res.Image)
		}
		i.logger.Debug("ingest.document.ok",
			"name", doc.Name,
			"format", res.Format,
			"method", res.Method,
			"pages", res.Pages,
			"chars", len(res.Text),
			"elapsed_ms", res.Duration.Milliseconds(),
		)
	}
	i.logger.Info("ingest.batch.ok",
		"documents", len(docs),
		"segments", len(corpus.Segments),
		"images", len(corpus.Images),
		"warnings", len(warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return corpus, warnings, nil
}
