package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/document"
	"github.com/joseph-ayodele/interview-matrix/internal/llm"
)

func TestGenerateTextOnly(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[{\"Proceso\":\"P1\"}]"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Model: "gpt-4o-mini"}, nil)
	reply, err := c.Generate(context.Background(), llm.Request{Prompt: "hola"})
	require.NoError(t, err)
	assert.Equal(t, `[{"Proceso":"P1"}]`, reply)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hola", msgs[1].(map[string]any)["content"])
}

func TestGenerateWithImages(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[]"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.Request{
		Prompt: "describe",
		Images: []document.Image{{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	})
	require.NoError(t, err)

	user := got["messages"].([]any)[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	assert.Equal(t, "data:image/png;base64,AQID", img["image_url"].(map[string]any)["url"])
}

func TestGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer empty":
			_, _ = w.Write([]byte(`{"choices":[]}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limited"}`))
		}
	}))
	defer srv.Close()

	_, err := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil).Generate(context.Background(), llm.Request{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProvider)
	var se *llm.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Status)

	_, err = NewClient(Config{APIKey: "empty", BaseURL: srv.URL}, nil).Generate(context.Background(), llm.Request{Prompt: "x"})
	assert.ErrorIs(t, err, common.ErrProvider)
}

func TestGenerateWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient(Config{}, nil).Generate(context.Background(), llm.Request{Prompt: "x"})
	assert.ErrorIs(t, err, common.ErrMissingAPIKey)
}
