package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/llm"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
)

// Step describes one structured extraction.
type Step struct {
	Name        string
	Instruction string
	// SequenceColumn, when set, is overwritten with 1..n after parsing.
	SequenceColumn string
}

type Options struct {
	// Timeout bounds the model call; 0 leaves it to the provider and ctx.
	Timeout time.Duration
	// Lenient retries parsing on the outermost [ ... ] span when the reply wraps the array in prose.
	Lenient bool
}

// Pipeline turns instruction + corpus (+ prior table) into a normalized Table via one model call.
type Pipeline struct {
	gen    llm.Generator
	opts   Options
	logger *slog.Logger
}

func New(gen llm.Generator, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{gen: gen, opts: opts, logger: logger}
}

// ExtractTable composes the request, calls the model once, and recovers a Table from the reply.
// It returns the raw reply alongside the table. On any failure no table is returned.
func (p *Pipeline) ExtractTable(ctx context.Context, step Step, corpus ingest.Corpus, prior *matrix.Table) (matrix.Table, string, error) {
	if strings.TrimSpace(step.Instruction) == "" {
		return matrix.Table{}, "", common.MissingInput("instruction")
	}
	if corpus.IsEmpty() && prior == nil {
		return matrix.Table{}, "", common.MissingInput("documents")
	}
	if p.gen == nil {
		return matrix.Table{}, "", common.NewAppError("MISSING_API_KEY", "no model provider configured", common.ErrMissingAPIKey)
	}

	var priorJSON []byte
	if prior != nil {
		b, err := prior.MarshalRecords()
		if err != nil {
			return matrix.Table{}, "", fmt.Errorf("encode prior table: %w", err)
		}
		priorJSON = b
	}
	req := llm.Request{
		Prompt: llm.ComposePrompt(step.Instruction, priorJSON, corpus.Text()),
		Images: corpus.Images,
	}

	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	logger := p.logger.With(
		"session_id", common.SessionIDFromContext(ctx),
		"request_id", common.RequestIDFromContext(ctx),
	)
	start := time.Now()
	logger.Info("pipeline.extract.start",
		"step", step.Name,
		"prompt_len", len(req.Prompt),
		"images", len(req.Images),
		"has_prior", prior != nil,
	)
	raw, err := p.gen.Generate(ctx, req)
	if err != nil {
		logger.Error("pipeline.extract.generate_failed", "step", step.Name, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return matrix.Table{}, "", err
	}

	table, err := p.parseReply(logger, step.Name, raw)
	if err != nil {
		logger.Warn("pipeline.extract.bad_reply", "step", step.Name, "error", err, "reply_len", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
		return matrix.Table{}, raw, &ExtractionError{Step: step.Name, Raw: raw, Err: err}
	}

	table.Fill()
	if step.SequenceColumn != "" {
		table.Renumber(step.SequenceColumn)
	}

	logger.Info("pipeline.extract.ok",
		"step", step.Name,
		"rows", table.Len(),
		"columns", len(table.Columns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return table, raw, nil
}

func (p *Pipeline) parseReply(logger *slog.Logger, step, raw string) (matrix.Table, error) {
	s := llm.StripFence(raw)
	if s == "" {
		return matrix.Table{}, ErrEmptyReply
	}
	table, err := decodeRecords([]byte(s))
	if err == nil || !p.opts.Lenient {
		return table, err
	}
	span, ok := llm.ArraySpan(s)
	if !ok || span == s {
		return matrix.Table{}, err
	}
	lenient, lerr := decodeRecords([]byte(span))
	if lerr != nil {
		return matrix.Table{}, err
	}
	logger.Warn("pipeline.extract.lenient_span_applied", "step", step, "dropped_chars", len(s)-len(span))
	return lenient, nil
}

func decodeRecords(b []byte) (matrix.Table, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return matrix.Table{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if err := llm.ValidateValue(v); err != nil {
		return matrix.Table{}, fmt.Errorf("%w: %v", ErrReplySchema, err)
	}
	table, err := matrix.ParseRecords(b)
	if err != nil {
		return matrix.Table{}, fmt.Errorf("%w: %v", ErrReplySchema, err)
	}
	return table, nil
}
