package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interview-matrix/constants"
	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/document"
	"github.com/joseph-ayodele/interview-matrix/internal/export"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/llm"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
	"github.com/joseph-ayodele/interview-matrix/internal/pipeline"
	"github.com/joseph-ayodele/interview-matrix/internal/repository"
)

// scriptedGenerator returns replies in order and records each prompt.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, req.Prompt)
	if len(g.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r, nil
}

func cell(tbl matrix.Table, row int, column string) string {
	v, _ := tbl.Cell(row, column)
	return v
}

func newTestService(t *testing.T, gen llm.Generator) (*Service, repository.SessionStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	ing := ingest.NewIngestor(document.NewExtractor(document.Config{}, nil), nil)
	pipe := pipeline.New(gen, pipeline.Options{}, nil)
	return NewService(store, ing, pipe, nil), store
}

func interviewDocs() []document.SourceDocument {
	return []document.SourceDocument{
		document.NewSourceDocument("e1.txt", []byte("Compras revisa facturas a mano.")),
		document.NewSourceDocument("e2.txt", []byte("Ventas no tiene inventario actualizado.")),
	}
}

func TestDiagnosticPUOFlow(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{replies: []string{
		`[{"Proceso":"Compras","Actividad":"Revisar facturas","Problema":"Manual"}]`,
		"```json\n[{\"Proceso\":\"Compras\",\"Problema\":\"Manual\",\"Causa\":\"Sin sistema\"}]\n```",
	}}
	svc, store := newTestService(t, gen)

	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	res, err := svc.Ingest(ctx, sess.ID, interviewDocs())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Documents)
	assert.Empty(t, res.Warnings)

	diag, err := svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.Diagnostic, "")
	require.NoError(t, err)
	assert.Equal(t, "Matriz_Diagnostico", diag.Sheet)
	assert.Equal(t, 1, diag.Table.Len())

	_, err = svc.Export(ctx, sess.ID, matrix.WorkflowDiagnosticPUO)
	require.ErrorIs(t, err, common.ErrNotReady)

	puo, err := svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.PUO, "")
	require.NoError(t, err)
	assert.Equal(t, "Sin sistema", cell(puo.Table, 0, "Causa"))

	require.Len(t, gen.prompts, 2)
	assert.NotContains(t, gen.prompts[0], "PRIOR TABLE")
	assert.Contains(t, gen.prompts[1], "PRIOR TABLE")
	assert.Contains(t, gen.prompts[1], "Revisar facturas")
	assert.Contains(t, gen.prompts[1], "Compras revisa facturas a mano.")

	names, err := store.ListTables(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Matriz_Diagnostico", "Matriz_PUO"}, names)

	out, err := svc.Export(ctx, sess.ID, matrix.WorkflowDiagnosticPUO)
	require.NoError(t, err)
	assert.Equal(t, "matrices_generadas.xlsx", out.FileName)
	assert.Equal(t, constants.XLSXMimeType, out.MIMEType)

	sheets, err := export.ReadWorkbook(out.Data)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "Matriz_Diagnostico", sheets[0].Name)
	assert.Equal(t, "Matriz_PUO", sheets[1].Name)
	assert.Equal(t, "Manual", cell(sheets[0].Table, 0, "Problema"))
}

func TestActivitiesAreRenumbered(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{replies: []string{
		`[{"Número":"7","Actividad":"Recibir pedido"},{"Número":"7","Actividad":"Emitir factura"}]`,
	}}
	svc, _ := newTestService(t, gen)
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, sess.ID, interviewDocs())
	require.NoError(t, err)

	res, err := svc.RunStep(ctx, sess.ID, matrix.WorkflowActivitiesResponsibility, constants.Activities, "")
	require.NoError(t, err)
	assert.Equal(t, "1", cell(res.Table, 0, "Número"))
	assert.Equal(t, "2", cell(res.Table, 1, "Número"))
}

func TestFailedStepLeavesPreviousTable(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{replies: []string{
		`[{"Proceso":"Compras","Actividad":"A1","Problema":"P1"}]`,
		"   ",
		"no es json",
	}}
	svc, _ := newTestService(t, gen)
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, sess.ID, interviewDocs())
	require.NoError(t, err)

	_, err = svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.Diagnostic, "")
	require.NoError(t, err)

	_, err = svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.Diagnostic, "")
	require.ErrorIs(t, err, pipeline.ErrEmptyReply)

	res, err := svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.Diagnostic, "")
	require.ErrorIs(t, err, common.ErrModelResponse)
	assert.Equal(t, "no es json", res.Raw)

	table, err := svc.GetTable(ctx, sess.ID, "Matriz_Diagnostico")
	require.NoError(t, err)
	assert.Equal(t, "P1", cell(table, 0, "Problema"))
}

func TestRunStepPreconditions(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{}
	svc, _ := newTestService(t, gen)
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.Diagnostic, "")
	require.ErrorIs(t, err, common.ErrMissingInput)

	_, err = svc.Ingest(ctx, sess.ID, interviewDocs())
	require.NoError(t, err)

	_, err = svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.PUO, "")
	require.ErrorIs(t, err, common.ErrMissingInput)
	assert.Contains(t, err.Error(), "Matriz_Diagnostico")

	_, err = svc.RunStep(ctx, sess.ID, "unknown", constants.Diagnostic, "")
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.Activities, "")
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.RunStep(ctx, uuid.New(), matrix.WorkflowDiagnosticPUO, constants.Diagnostic, "")
	require.ErrorIs(t, err, common.ErrNotFound)

	assert.Empty(t, gen.prompts)
}

func TestInstructionOverride(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{replies: []string{`[]`}}
	svc, _ := newTestService(t, gen)
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, sess.ID, interviewDocs())
	require.NoError(t, err)

	res, err := svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.Diagnostic, "Solo lista procesos.")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Table.Len())
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Solo lista procesos.")
}

func TestIngestUnreadableDocuments(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, &scriptedGenerator{})
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	res, err := svc.Ingest(ctx, sess.ID, []document.SourceDocument{
		document.NewSourceDocument("old.xls", []byte{0xd0, 0xcf, 0x11, 0xe0}),
		document.NewSourceDocument("entrevista_rota.docx", []byte("PK\x03\x04 no es un zip")),
	})
	require.ErrorIs(t, err, common.ErrIngestion)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "old.xls", res.Warnings[0].Name)
	assert.Contains(t, err.Error(), "old.xls: ")
	assert.Contains(t, err.Error(), "entrevista_rota.docx: ")

	_, has, err := store.GetCorpus(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, has)

	res, err = svc.Ingest(ctx, sess.ID, append(interviewDocs(),
		document.NewSourceDocument("old.xls", []byte{0xd0, 0xcf, 0x11, 0xe0})))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Documents)
	assert.Len(t, res.Warnings, 1)

	_, err = svc.Ingest(ctx, sess.ID, nil)
	require.ErrorIs(t, err, common.ErrMissingInput)

	_, err = svc.Ingest(ctx, uuid.New(), interviewDocs())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{replies: []string{`[{"Número":"1","Actividad":"A"}]`}}
	svc, _ := newTestService(t, gen)
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, sess.ID, interviewDocs())
	require.NoError(t, err)
	_, err = svc.RunStep(ctx, sess.ID, matrix.WorkflowActivitiesResponsibility, constants.Activities, "")
	require.NoError(t, err)

	st, err := svc.Status(ctx, sess.ID, matrix.WorkflowActivitiesResponsibility)
	require.NoError(t, err)
	require.Len(t, st, 2)
	assert.Equal(t, constants.StepStatusOK, st[0].Status)
	assert.Equal(t, constants.StepStatusPending, st[1].Status)

	require.NoError(t, svc.DeleteSession(ctx, sess.ID))
	_, err = svc.GetSession(ctx, sess.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = svc.GetTable(ctx, sess.ID, "Lista_Actividades")
	require.ErrorIs(t, err, common.ErrNotFound)
}

// blockingGenerator tracks how many calls run at once.
type blockingGenerator struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (g *blockingGenerator) Generate(_ context.Context, _ llm.Request) (string, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return `[{"Proceso":"P","Actividad":"A","Problema":"X"}]`, nil
}

func TestStepsOnOneSessionAreSerialized(t *testing.T) {
	ctx := context.Background()
	gen := &blockingGenerator{}
	svc, _ := newTestService(t, gen)
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, sess.ID, interviewDocs())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RunStep(ctx, sess.ID, matrix.WorkflowDiagnosticPUO, constants.Diagnostic, "")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), gen.peak.Load())
}

func TestSessionLocksReleaseEntries(t *testing.T) {
	l := newSessionLocks()
	id := uuid.New()
	unlock := l.Lock(id)
	assert.Len(t, l.m, 1)
	unlock()
	assert.Empty(t, l.m)
}
