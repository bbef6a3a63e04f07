package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/interview-matrix/constants"
	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/document"
	"github.com/joseph-ayodele/interview-matrix/internal/export"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
	"github.com/joseph-ayodele/interview-matrix/internal/workflow"
)

// MaxInstructionLen bounds a RunStep instruction override, in characters.
const MaxInstructionLen = 20000

// MatrixService exposes workflow.Service over gRPC.
type MatrixService struct {
	svc    *workflow.Service
	logger *slog.Logger
}

func NewMatrixService(svc *workflow.Service, logger *slog.Logger) *MatrixService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatrixService{svc: svc, logger: logger}
}

var _ MatrixServiceServer = (*MatrixService)(nil)

func (s *MatrixService) CreateSession(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	sess, err := s.svc.CreateSession(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{
		"session_id": sess.ID.String(),
		"created_at": sess.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// IngestDocuments accepts either inline documents ({name, content} with base64 content)
// or a root_path on the server's filesystem.
func (s *MatrixService) IngestDocuments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, common.ToStatus(err)
	}

	var (
		docs     []document.SourceDocument
		warnings []ingest.Warning
	)
	if root := getString(req, "root_path"); root != "" {
		skipHidden := true
		if v, ok := req.GetFields()["skip_hidden"]; ok {
			skipHidden = v.GetBoolValue()
		}
		var stats ingest.DirStats
		docs, warnings, stats, err = ingest.LoadDirectory(root, skipHidden)
		if err != nil {
			return nil, common.ToStatus(common.InvalidInput("root_path: %v", err))
		}
		s.logger.Info("directory loaded", "session_id", id, "root", root,
			"scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
	} else {
		docs, err = inlineDocuments(req)
		if err != nil {
			return nil, common.ToStatus(err)
		}
	}
	if len(docs) == 0 {
		return nil, common.ToStatus(common.MissingInput("documents"))
	}

	res, err := s.svc.Ingest(ctx, id, docs)
	warnings = append(warnings, res.Warnings...)
	if err != nil {
		return nil, withWarnings(common.ToStatus(err), warnings)
	}
	return toStruct(map[string]any{
		"documents": res.Documents,
		"images":    res.Images,
		"chars":     res.Chars,
		"warnings":  warningValues(warnings),
	})
}

func warningValues(warnings []ingest.Warning) []any {
	ws := make([]any, 0, len(warnings))
	for _, w := range warnings {
		ws = append(ws, map[string]any{"name": w.Name, "message": w.Message, "skipped": w.Skipped})
	}
	return ws
}

// withWarnings attaches the per-file warnings to a failed ingest as a Struct detail
// shaped like the success response: {"warnings": [...]}.
func withWarnings(err error, warnings []ingest.Warning) error {
	if len(warnings) == 0 {
		return err
	}
	detail, derr := structpb.NewStruct(map[string]any{"warnings": warningValues(warnings)})
	if derr != nil {
		return err
	}
	st, derr := status.Convert(err).WithDetails(detail)
	if derr != nil {
		return err
	}
	return st.Err()
}

// IngestWarnings reads the warnings attached to a failed IngestDocuments call.
func IngestWarnings(err error) []ingest.Warning {
	var out []ingest.Warning
	for _, d := range status.Convert(err).Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		for _, v := range s.GetFields()["warnings"].GetListValue().GetValues() {
			f := v.GetStructValue()
			out = append(out, ingest.Warning{
				Name:    getString(f, "name"),
				Message: getString(f, "message"),
				Skipped: f.GetFields()["skipped"].GetBoolValue(),
			})
		}
	}
	return out
}

func (s *MatrixService) RunStep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	wf := getString(req, "workflow")
	rawKind := getString(req, "kind")
	instruction := getString(req, "instruction")
	if err := common.NewValidator().
		Field("workflow", wf, common.Required).
		Field("kind", rawKind, common.Required).
		Field("instruction", instruction, common.MaxLength(MaxInstructionLen)).
		Error(); err != nil {
		return nil, common.ToStatus(err)
	}
	kind, ok := constants.CanonicalizeKind(rawKind)
	if !ok {
		return nil, common.ToStatus(common.InvalidInput("unknown kind %q, expected one of %s",
			rawKind, strings.Join(constants.KindsAsStringSlice(), ", ")))
	}

	res, err := s.svc.RunStep(ctx, id, wf, kind, instruction)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{
		"workflow": res.Workflow,
		"kind":     string(res.Kind),
		"sheet":    res.Sheet,
		"table":    tableValue(res.Table),
		"raw":      res.Raw,
	})
}

func (s *MatrixService) GetTable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	name := getString(req, "name")
	if err := common.NewValidator().
		Field("name", name, common.Required, common.MaxLength(export.MaxSheetNameLen)).
		Error(); err != nil {
		return nil, common.ToStatus(err)
	}
	t, err := s.svc.GetTable(ctx, id, name)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"name": name, "table": tableValue(t)})
}

func (s *MatrixService) GetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	steps, err := s.svc.Status(ctx, id, getString(req, "workflow"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := make([]any, 0, len(steps))
	for _, st := range steps {
		out = append(out, map[string]any{"kind": string(st.Kind), "sheet": st.Sheet, "status": string(st.Status)})
	}
	return toStruct(map[string]any{"steps": out})
}

// ExportWorkbook returns the xlsx bytes base64-encoded in "data".
func (s *MatrixService) ExportWorkbook(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	res, err := s.svc.Export(ctx, id, getString(req, "workflow"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	sheets := make([]any, len(res.Sheets))
	for i, n := range res.Sheets {
		sheets[i] = n
	}
	return toStruct(map[string]any{
		"file_name": res.FileName,
		"mime_type": res.MIMEType,
		"data":      base64.StdEncoding.EncodeToString(res.Data),
		"sheets":    sheets,
	})
}

func (s *MatrixService) DeleteSession(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	raw := strings.TrimSpace(req.GetValue())
	if err := common.NewValidator().Field("session_id", raw, common.Required, common.UUID).Error(); err != nil {
		return nil, common.ToStatus(err)
	}
	if err := s.svc.DeleteSession(ctx, uuid.MustParse(raw)); err != nil {
		return nil, common.ToStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func sessionID(req *structpb.Struct) (uuid.UUID, error) {
	raw := getString(req, "session_id")
	if err := common.NewValidator().Field("session_id", raw, common.Required, common.UUID).Error(); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

func inlineDocuments(req *structpb.Struct) ([]document.SourceDocument, error) {
	list := req.GetFields()["documents"].GetListValue().GetValues()
	docs := make([]document.SourceDocument, 0, len(list))
	for i, v := range list {
		fields := v.GetStructValue()
		name := strings.TrimSpace(getString(fields, "name"))
		if name == "" {
			return nil, common.InvalidInput("documents[%d]: name is required", i)
		}
		data, err := base64.StdEncoding.DecodeString(getString(fields, "content"))
		if err != nil {
			return nil, common.InvalidInput("documents[%d] %s: content is not base64: %v", i, name, err)
		}
		docs = append(docs, document.NewSourceDocument(name, data))
	}
	return docs, nil
}

func getString(s *structpb.Struct, key string) string {
	return strings.TrimSpace(s.GetFields()[key].GetStringValue())
}

func tableValue(t matrix.Table) map[string]any {
	cols := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c
	}
	rows := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make(map[string]any, len(r))
		for k, v := range r {
			row[k] = v
		}
		rows[i] = row
	}
	return map[string]any{"columns": cols, "rows": rows}
}

// TableFromValue decodes a table produced by tableValue.
func TableFromValue(v *structpb.Struct) matrix.Table {
	t := matrix.NewTable()
	for _, c := range v.GetFields()["columns"].GetListValue().GetValues() {
		t.AddColumn(c.GetStringValue())
	}
	for _, r := range v.GetFields()["rows"].GetListValue().GetValues() {
		row := matrix.Row{}
		for k, cell := range r.GetStructValue().GetFields() {
			row[k] = cell.GetStringValue()
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.ToStatus(common.WrapError(err, "encode response"))
	}
	return s, nil
}
