package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/interview-matrix/internal/document"
	"github.com/joseph-ayodele/interview-matrix/internal/export"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/llm"
	"github.com/joseph-ayodele/interview-matrix/internal/pipeline"
	"github.com/joseph-ayodele/interview-matrix/internal/repository"
	"github.com/joseph-ayodele/interview-matrix/internal/workflow"
)

const bufSize = 1024 * 1024

type queueGenerator struct {
	replies []string
}

func (g *queueGenerator) Generate(context.Context, llm.Request) (string, error) {
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r, nil
}

func startServer(t *testing.T, gen llm.Generator) (*MatrixServiceClient, *grpc.ClientConn) {
	return startServerWithLogger(t, gen, nil)
}

func startServerWithLogger(t *testing.T, gen llm.Generator, logger *slog.Logger) (*MatrixServiceClient, *grpc.ClientConn) {
	t.Helper()
	store := repository.NewMemoryStore()
	ing := ingest.NewIngestor(document.NewExtractor(document.Config{}, logger), logger)
	svc := workflow.NewService(store, ing, pipeline.New(gen, pipeline.Options{}, logger), logger)

	lis := bufconn.Listen(bufSize)
	srv, _ := New(svc, logger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewMatrixServiceClient(conn), conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

// logBuffer collects JSON log lines written from server goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) records(t *testing.T, msg string) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == msg {
			out = append(out, rec)
		}
	}
	return out
}

func TestMatrixServiceWorkflow(t *testing.T) {
	ctx := context.Background()
	gen := &queueGenerator{replies: []string{
		`[{"Proceso":"Compras","Actividad":"Revisar facturas","Problema":"Manual"}]`,
		`[{"Problema":"Manual","Usuario Afectado":"Compras","Objetivo de Mejora":"Automatizar"}]`,
	}}
	client, _ := startServer(t, gen)

	var header metadata.MD
	created, err := client.CreateSession(ctx, grpc.Header(&header))
	require.NoError(t, err)
	id := created.GetFields()["session_id"].GetStringValue()
	require.NotEmpty(t, id)
	assert.NotEmpty(t, header.Get(RequestIDHeader))

	ingested, err := client.IngestDocuments(ctx, mustStruct(t, map[string]any{
		"session_id": id,
		"documents": []any{
			map[string]any{"name": "e1.txt", "content": b64("Compras revisa facturas a mano.")},
			map[string]any{"name": "old.xls", "content": b64("legacy")},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), ingested.GetFields()["documents"].GetNumberValue())
	warnings := ingested.GetFields()["warnings"].GetListValue().GetValues()
	require.Len(t, warnings, 1)
	assert.Equal(t, "old.xls", warnings[0].GetStructValue().GetFields()["name"].GetStringValue())

	_, err = client.ExportWorkbook(ctx, mustStruct(t, map[string]any{"session_id": id, "workflow": "diagnostic-puo"}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	for _, kind := range []string{"diagnostic", "puo"} {
		_, err := client.RunStep(ctx, mustStruct(t, map[string]any{
			"session_id": id, "workflow": "diagnostic-puo", "kind": kind,
		}))
		require.NoError(t, err, kind)
	}

	got, err := client.GetTable(ctx, mustStruct(t, map[string]any{"session_id": id, "name": "Matriz_PUO"}))
	require.NoError(t, err)
	table := TableFromValue(got.GetFields()["table"].GetStructValue())
	assert.Equal(t, []string{"Problema", "Usuario Afectado", "Objetivo de Mejora"}, table.Columns)
	v, _ := table.Cell(0, "Objetivo de Mejora")
	assert.Equal(t, "Automatizar", v)

	st, err := client.GetStatus(ctx, mustStruct(t, map[string]any{"session_id": id, "workflow": "diagnostic-puo"}))
	require.NoError(t, err)
	for _, step := range st.GetFields()["steps"].GetListValue().GetValues() {
		assert.Equal(t, "OK", step.GetStructValue().GetFields()["status"].GetStringValue())
	}

	out, err := client.ExportWorkbook(ctx, mustStruct(t, map[string]any{"session_id": id, "workflow": "diagnostic-puo"}))
	require.NoError(t, err)
	assert.Equal(t, "matrices_generadas.xlsx", out.GetFields()["file_name"].GetStringValue())
	data, err := base64.StdEncoding.DecodeString(out.GetFields()["data"].GetStringValue())
	require.NoError(t, err)
	sheets, err := export.ReadWorkbook(data)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "Matriz_Diagnostico", sheets[0].Name)

	require.NoError(t, client.DeleteSession(ctx, id))
	_, err = client.GetTable(ctx, mustStruct(t, map[string]any{"session_id": id, "name": "Matriz_PUO"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestMatrixServiceErrorCodes(t *testing.T) {
	ctx := context.Background()
	client, _ := startServer(t, &queueGenerator{replies: []string{"lo siento, no puedo"}})

	_, err := client.RunStep(ctx, mustStruct(t, map[string]any{"session_id": "nope", "workflow": "diagnostic-puo", "kind": "diagnostic"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	created, err := client.CreateSession(ctx)
	require.NoError(t, err)
	id := created.GetFields()["session_id"].GetStringValue()

	_, err = client.RunStep(ctx, mustStruct(t, map[string]any{"session_id": id, "workflow": "diagnostic-puo", "kind": "diagnostic"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err), "no documents yet")

	_, err = client.RunStep(ctx, mustStruct(t, map[string]any{"session_id": id, "workflow": "diagnostic-puo", "kind": "sideways"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.IngestDocuments(ctx, mustStruct(t, map[string]any{"session_id": id}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.IngestDocuments(ctx, mustStruct(t, map[string]any{
		"session_id": id,
		"documents":  []any{map[string]any{"name": "e1.txt", "content": b64("Entrevista")}},
	}))
	require.NoError(t, err)

	_, err = client.RunStep(ctx, mustStruct(t, map[string]any{"session_id": id, "workflow": "diagnostic-puo", "kind": "diagnostic"}))
	require.Equal(t, codes.Aborted, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "lo siento, no puedo")

	_, err = client.GetTable(ctx, mustStruct(t, map[string]any{"session_id": id, "name": "Matriz_Diagnostico"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealthServing(t *testing.T) {
	_, conn := startServer(t, &queueGenerator{})
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRequestIDIsEchoed(t *testing.T) {
	client, _ := startServer(t, &queueGenerator{})
	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDHeader, "req-42")
	var header metadata.MD
	_, err := client.CreateSession(ctx, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(RequestIDHeader))
}

func TestIngestFailureNamesFiles(t *testing.T) {
	ctx := context.Background()
	client, _ := startServer(t, &queueGenerator{})

	created, err := client.CreateSession(ctx)
	require.NoError(t, err)
	id := created.GetFields()["session_id"].GetStringValue()

	_, err = client.IngestDocuments(ctx, mustStruct(t, map[string]any{
		"session_id": id,
		"documents": []any{
			map[string]any{"name": "entrevista_rota.docx", "content": b64("PK\x03\x04 no es un zip")},
		},
	}))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "entrevista_rota.docx")

	warnings := IngestWarnings(err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "entrevista_rota.docx", warnings[0].Name)
	assert.True(t, warnings[0].Skipped)
	assert.NotEmpty(t, warnings[0].Message)
}

func TestRequestLengthLimits(t *testing.T) {
	ctx := context.Background()
	client, _ := startServer(t, &queueGenerator{})

	created, err := client.CreateSession(ctx)
	require.NoError(t, err)
	id := created.GetFields()["session_id"].GetStringValue()

	_, err = client.RunStep(ctx, mustStruct(t, map[string]any{
		"session_id":  id,
		"workflow":    "diagnostic-puo",
		"kind":        "diagnostic",
		"instruction": strings.Repeat("x", MaxInstructionLen+1),
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "instruction")

	_, err = client.GetTable(ctx, mustStruct(t, map[string]any{
		"session_id": id,
		"name":       strings.Repeat("M", 32),
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetTable(ctx, mustStruct(t, map[string]any{
		"session_id": id,
		"name":       "Matriz_Diagnostico",
	}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestSessionIDIsLogged(t *testing.T) {
	ctx := context.Background()
	logs := &logBuffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	gen := &queueGenerator{replies: []string{`[{"Proceso":"Compras","Actividad":"Pagar","Problema":"Demora"}]`}}
	client, _ := startServerWithLogger(t, gen, logger)

	created, err := client.CreateSession(ctx)
	require.NoError(t, err)
	id := created.GetFields()["session_id"].GetStringValue()

	_, err = client.IngestDocuments(ctx, mustStruct(t, map[string]any{
		"session_id": id,
		"documents":  []any{map[string]any{"name": "e1.txt", "content": b64("Compras paga tarde.")}},
	}))
	require.NoError(t, err)
	rctx := metadata.AppendToOutgoingContext(ctx, RequestIDHeader, "req-7")
	_, err = client.RunStep(rctx, mustStruct(t, map[string]any{
		"session_id": id, "workflow": "diagnostic-puo", "kind": "diagnostic",
	}))
	require.NoError(t, err)

	var runStep map[string]any
	for _, rec := range logs.records(t, "grpc.request.ok") {
		if rec["method"] == MethodRunStep {
			runStep = rec
		}
	}
	require.NotNil(t, runStep)
	assert.Equal(t, id, runStep["session_id"])

	extracted := logs.records(t, "pipeline.extract.ok")
	require.Len(t, extracted, 1)
	assert.Equal(t, id, extracted[0]["session_id"])
	assert.Equal(t, "req-7", extracted[0]["request_id"])
}
