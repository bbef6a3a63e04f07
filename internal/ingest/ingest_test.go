package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/document"
)

type stubExtractor struct {
	results map[string]document.Extraction
	fail    map[string]error
	seen    []string
}

func (s *stubExtractor) Extract(_ context.Context, doc document.SourceDocument) (document.Extraction, error) {
	s.seen = append(s.seen, doc.Name)
	if err := s.fail[doc.Name]; err != nil {
		return document.Extraction{}, &document.DocumentError{Name: doc.Name, Err: err}
	}
	return s.results[doc.Name], nil
}

func docs(names ...string) []document.SourceDocument {
	out := make([]document.SourceDocument, len(names))
	for i, n := range names {
		out[i] = document.NewSourceDocument(n, []byte(n))
	}
	return out
}

func TestIngestSkipsUnreadableDocument(t *testing.T) {
	ex := &stubExtractor{
		results: map[string]document.Extraction{
			"uno.txt":  {Text: "primera entrevista"},
			"tres.pdf": {Text: "tercera entrevista"},
		},
		fail: map[string]error{"dos.docx": errors.New("zip: not a valid zip file")},
	}
	ing := NewIngestor(ex, nil)

	corpus, warnings, err := ing.Ingest(context.Background(), docs("uno.txt", "dos.docx", "tres.pdf"))
	require.NoError(t, err)

	assert.Equal(t, "primera entrevista\n\n---\n\ntercera entrevista", corpus.Text())
	require.Len(t, warnings, 1)
	assert.Equal(t, "dos.docx", warnings[0].Name)
	assert.True(t, warnings[0].Skipped)
	assert.Contains(t, warnings[0].Message, "dos.docx")
	assert.Equal(t, []string{"uno.txt", "dos.docx", "tres.pdf"}, ex.seen)
}

func TestIngestKeepsEmptyAndImageSlots(t *testing.T) {
	img := &document.Image{Name: "mapa.png", MIMEType: "image/png", Data: []byte{1}}
	ex := &stubExtractor{results: map[string]document.Extraction{
		"a.txt":    {Text: "a"},
		"mapa.png": {Image: img},
		"b.pdf":    {Text: "", Warnings: []string{"page 1: ocr failed"}},
		"c.txt":    {Text: "c"},
	}}
	ing := NewIngestor(ex, nil)

	corpus, warnings, err := ing.Ingest(context.Background(), docs("a.txt", "mapa.png", "b.pdf", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a\n\n---\n\n\n\n---\n\n\n\n---\n\nc", corpus.Text())
	require.Len(t, corpus.Images, 1)
	assert.Equal(t, "mapa.png", corpus.Images[0].Name)
	require.Len(t, warnings, 1)
	assert.False(t, warnings[0].Skipped)
	assert.Equal(t, "b.pdf", warnings[0].Name)
}

func TestIngestRequiresDocuments(t *testing.T) {
	ing := NewIngestor(&stubExtractor{}, nil)
	_, _, err := ing.Ingest(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingInput)
}

func TestIngestStopsOnCanceledContext(t *testing.T) {
	ing := NewIngestor(&stubExtractor{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := ing.Ingest(ctx, docs("a.txt"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestWithRealExtractor(t *testing.T) {
	ing := NewIngestor(document.NewExtractor(document.Config{}, nil), nil)
	corpus, warnings, err := ing.Ingest(context.Background(), []document.SourceDocument{
		document.NewSourceDocument("a.txt", []byte("uno")),
		document.NewSourceDocument("b.exe", []byte("MZ")),
		document.NewSourceDocument("c.csv", []byte("x,y\n1,2\n")),
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "b.exe", warnings[0].Name)
	require.Len(t, corpus.Segments, 2)
	assert.Equal(t, "uno", corpus.Segments[0].Text)
	assert.Contains(t, corpus.Segments[1].Text, "x")
}

func TestLoadDirectory(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("b.txt", "b")
	write("a.TXT", "a")
	write("notes.md", "ignored")
	write(".hidden/secret.txt", "hidden")
	write("sub/c.csv", "x,y")

	got, warnings, stats, err := LoadDirectory(root, true)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	names := make([]string, len(got))
	for i, d := range got {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"a.TXT", "b.txt", "c.csv"}, names)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.NotEmpty(t, got[0].Hash)

	all, _, _, err := LoadDirectory(root, false)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, _, _, err = LoadDirectory("  ", false)
	require.Error(t, err)
}
