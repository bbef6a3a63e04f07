package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/llm"
	"github.com/joseph-ayodele/interview-matrix/internal/llm/openai"
)

func testConfig(t *testing.T) *common.Config {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LLM_PROVIDER", "openai")
	cfg := common.LoadConfig()
	cfg.LLM.SecretsFile = ""
	return cfg
}

func TestBuildRequiresAPIKey(t *testing.T) {
	cfg := testConfig(t)
	_, err := Build(context.Background(), cfg, nil, nil)
	require.ErrorIs(t, err, common.ErrMissingAPIKey)
}

func TestBuildOpenAI(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.APIKey = "sk-test"
	a, err := Build(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.Service)

	sess, err := a.Service.CreateSession(context.Background())
	require.NoError(t, err)
	ok, err := a.Store.Exists(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	gen, err := NewGenerator(ctx, common.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"}, "sk-test", nil)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, gen)

	_, err = NewGenerator(ctx, common.LLMConfig{Provider: "gemini"}, "", nil)
	require.ErrorIs(t, err, common.ErrMissingAPIKey)

	_, err = NewGenerator(ctx, common.LLMConfig{Provider: "claude"}, "k", nil)
	require.ErrorIs(t, err, common.ErrConfiguration)
}

func TestBuildWithGeneratorSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "sqlite"
	cfg.Store.DSN = t.TempDir() + "/sessions.db"
	gen := llm.GeneratorFunc(func(context.Context, llm.Request) (string, error) { return "[]", nil })

	a, err := BuildWithGenerator(context.Background(), cfg, gen, nil)
	require.NoError(t, err)
	defer a.Close()
	_, err = a.Service.CreateSession(context.Background())
	require.NoError(t, err)
}
