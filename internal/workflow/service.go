package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interview-matrix/constants"
	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/document"
	"github.com/joseph-ayodele/interview-matrix/internal/entity"
	"github.com/joseph-ayodele/interview-matrix/internal/export"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
	"github.com/joseph-ayodele/interview-matrix/internal/pipeline"
	"github.com/joseph-ayodele/interview-matrix/internal/repository"
)

// Service runs user actions against a session. Every action on a session holds that
// session's lock for its whole duration, so there is one writer per session.
type Service struct {
	store    repository.SessionStore
	ingestor *ingest.Ingestor
	pipeline *pipeline.Pipeline
	locks    *sessionLocks
	logger   *slog.Logger
}

func NewService(store repository.SessionStore, ing *ingest.Ingestor, pipe *pipeline.Pipeline, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		ingestor: ing,
		pipeline: pipe,
		locks:    newSessionLocks(),
		logger:   logger,
	}
}

// IngestResult summarizes a stored corpus.
type IngestResult struct {
	Documents int
	Images    int
	Chars     int
	Warnings  []ingest.Warning
}

// StepResult is the table produced by one step, with the raw model reply.
type StepResult struct {
	Workflow string
	Kind     constants.MatrixKind
	Sheet    string
	Table    matrix.Table
	Raw      string
}

// ExportResult is a downloadable workbook.
type ExportResult struct {
	FileName string
	MIMEType string
	Data     []byte
	Sheets   []string
}

// StepStatus reports whether a workflow step has produced its table.
type StepStatus struct {
	Kind   constants.MatrixKind
	Sheet  string
	Status constants.StepStatus
}

func (s *Service) CreateSession(ctx context.Context) (*entity.Session, error) {
	sess, err := s.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("session.created", "session_id", sess.ID)
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("session.deleted", "session_id", id)
	return nil
}

// Ingest extracts docs and replaces the session corpus. Unreadable documents become warnings.
// When nothing at all could be read the corpus is left untouched.
func (s *Service) Ingest(ctx context.Context, id uuid.UUID, docs []document.SourceDocument) (IngestResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	ctx = common.WithSessionID(ctx, id.String())
	if err := s.requireSession(ctx, id); err != nil {
		return IngestResult{}, err
	}
	corpus, warnings, err := s.ingestor.Ingest(ctx, docs)
	if err != nil {
		return IngestResult{}, err
	}
	res := IngestResult{
		Documents: len(corpus.Segments),
		Images:    len(corpus.Images),
		Chars:     len(corpus.Text()),
		Warnings:  warnings,
	}
	if len(corpus.Segments) == 0 {
		return res, common.NewAppError("NO_READABLE_DOCUMENTS", unreadableMessage(warnings), common.ErrIngestion)
	}
	if err := s.store.PutCorpus(ctx, id, corpus); err != nil {
		return IngestResult{}, err
	}
	s.logger.Info("session.corpus.stored",
		"session_id", id,
		"documents", res.Documents,
		"images", res.Images,
		"warnings", len(warnings),
	)
	return res, nil
}

// unreadableMessage names every failed file, e.g.
// "none of the uploaded documents could be read: a.docx: not a zip archive; b.pdf: no text".
func unreadableMessage(warnings []ingest.Warning) string {
	msg := "none of the uploaded documents could be read"
	if len(warnings) == 0 {
		return msg
	}
	parts := make([]string, 0, len(warnings))
	for _, w := range warnings {
		parts = append(parts, w.Name+": "+w.Message)
	}
	return msg + ": " + strings.Join(parts, "; ")
}

// RunStep produces the table of one workflow step and stores it under the step's sheet name,
// overwriting any previous table. instruction overrides the preset instruction when not blank.
// On failure nothing is stored.
func (s *Service) RunStep(ctx context.Context, id uuid.UUID, workflowName string, kind constants.MatrixKind, instruction string) (StepResult, error) {
	wf, err := matrix.WorkflowByName(workflowName)
	if err != nil {
		return StepResult{}, common.InvalidInput("unknown workflow %q", workflowName)
	}
	step, _, ok := wf.StepFor(kind)
	if !ok {
		return StepResult{}, common.InvalidInput("workflow %q has no %q step", workflowName, kind)
	}
	preset, err := matrix.PresetFor(kind)
	if err != nil {
		return StepResult{}, common.InvalidInput("%v", err)
	}
	if strings.TrimSpace(instruction) == "" {
		instruction = preset.Instruction
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	ctx = common.WithSessionID(ctx, id.String())
	corpus, hasCorpus, err := s.store.GetCorpus(ctx, id)
	if err != nil {
		return StepResult{}, err
	}
	var prior *matrix.Table
	if step.Prior != "" {
		t, found, err := s.store.GetTable(ctx, id, step.Prior)
		if err != nil {
			return StepResult{}, err
		}
		if !found {
			return StepResult{}, common.MissingInput("table " + step.Prior)
		}
		prior = &t
	} else if !hasCorpus {
		return StepResult{}, common.MissingInput("documents")
	}

	start := time.Now()
	table, raw, err := s.pipeline.ExtractTable(ctx, pipeline.Step{
		Name:           string(kind),
		Instruction:    instruction,
		SequenceColumn: preset.SequenceColumn,
	}, corpus, prior)
	if err != nil {
		s.logger.Warn("session.step.failed", "session_id", id, "workflow", wf.Name, "kind", kind, "error", err)
		return StepResult{Workflow: wf.Name, Kind: kind, Sheet: step.Sheet, Raw: raw}, err
	}
	if err := s.store.PutTable(ctx, id, step.Sheet, table); err != nil {
		return StepResult{}, err
	}
	s.logger.Info("session.step.ok",
		"session_id", id,
		"workflow", wf.Name,
		"kind", kind,
		"sheet", step.Sheet,
		"rows", table.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return StepResult{Workflow: wf.Name, Kind: kind, Sheet: step.Sheet, Table: table, Raw: raw}, nil
}

// GetTable returns a stored table by name.
func (s *Service) GetTable(ctx context.Context, id uuid.UUID, name string) (matrix.Table, error) {
	t, found, err := s.store.GetTable(ctx, id, name)
	if err != nil {
		return matrix.Table{}, err
	}
	if !found {
		return matrix.Table{}, common.NewAppError("TABLE_NOT_FOUND", fmt.Sprintf("table %q not found", name), common.ErrNotFound)
	}
	return t, nil
}

// Status lists the steps of a workflow and whether each has a stored table.
func (s *Service) Status(ctx context.Context, id uuid.UUID, workflowName string) ([]StepStatus, error) {
	wf, err := matrix.WorkflowByName(workflowName)
	if err != nil {
		return nil, common.InvalidInput("unknown workflow %q", workflowName)
	}
	names, err := s.store.ListTables(ctx, id)
	if err != nil {
		return nil, err
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	out := make([]StepStatus, len(wf.Steps))
	for i, st := range wf.Steps {
		out[i] = StepStatus{Kind: st.Kind, Sheet: st.Sheet, Status: constants.StepStatusPending}
		if have[st.Sheet] {
			out[i].Status = constants.StepStatusOK
		}
	}
	return out, nil
}

// Export builds the workbook of a workflow. It is refused until every step's table exists.
func (s *Service) Export(ctx context.Context, id uuid.UUID, workflowName string) (ExportResult, error) {
	wf, err := matrix.WorkflowByName(workflowName)
	if err != nil {
		return ExportResult{}, common.InvalidInput("unknown workflow %q", workflowName)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var (
		sheets  []export.Sheet
		missing []string
	)
	for _, st := range wf.Steps {
		t, found, err := s.store.GetTable(ctx, id, st.Sheet)
		if err != nil {
			return ExportResult{}, err
		}
		if !found {
			missing = append(missing, st.Sheet)
			continue
		}
		sheets = append(sheets, export.Sheet{Name: st.Sheet, Table: t})
	}
	if len(missing) > 0 {
		return ExportResult{}, common.NewAppError("NOT_READY",
			"missing tables: "+strings.Join(missing, ", "), common.ErrNotReady)
	}

	data, err := export.Workbook(sheets)
	if err != nil {
		return ExportResult{}, err
	}
	s.logger.Info("session.export.ok", "session_id", id, "workflow", wf.Name, "bytes", len(data))
	return ExportResult{
		FileName: wf.FileName,
		MIMEType: constants.XLSXMimeType,
		Data:     data,
		Sheets:   wf.Sheets(),
	}, nil
}

func (s *Service) requireSession(ctx context.Context, id uuid.UUID) error {
	ok, err := s.store.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewAppError("SESSION_NOT_FOUND", fmt.Sprintf("session %s not found", id), common.ErrNotFound)
	}
	return nil
}
