package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/document"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/llm"
	"github.com/joseph-ayodele/interview-matrix/internal/llm/gemini"
	"github.com/joseph-ayodele/interview-matrix/internal/llm/openai"
	"github.com/joseph-ayodele/interview-matrix/internal/pipeline"
	"github.com/joseph-ayodele/interview-matrix/internal/repository"
	"github.com/joseph-ayodele/interview-matrix/internal/workflow"
)

// App holds the wired components shared by the binaries.
type App struct {
	Config    *common.Config
	Store     repository.SessionStore
	Extractor *document.Extractor
	Ingestor  *ingest.Ingestor
	Service   *workflow.Service
	cleanup   func()
}

// Close releases the store.
func (a *App) Close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

// NewExtractor builds the document extractor from DocsConfig.
func NewExtractor(cfg common.DocsConfig, logger *slog.Logger) *document.Extractor {
	return document.NewExtractor(document.Config{
		Pdftotext:     cfg.Pdftotext,
		Pdftoppm:      cfg.Pdftoppm,
		Tesseract:     cfg.Tesseract,
		TesseractLang: cfg.TesseractLang,
		OCRFallback:   cfg.PDFOCRFallback,
	}, logger)
}

// NewGenerator builds the model client selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg common.LLMConfig, apiKey string, logger *slog.Logger) (llm.Generator, error) {
	switch cfg.Provider {
	case "openai":
		if apiKey == "" {
			return nil, common.NewAppError("MISSING_API_KEY", "OPENAI_API_KEY is not set", common.ErrMissingAPIKey)
		}
		return openai.NewClient(openai.Config{
			APIKey:      apiKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "", "gemini":
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
	default:
		return nil, common.NewAppError("CONFIG_ERROR", "unknown LLM_PROVIDER "+cfg.Provider, common.ErrConfiguration)
	}
}

// Build resolves the API key, opens the store and wires the workflow service.
// A missing API key is returned as common.ErrMissingAPIKey before anything is opened.
func Build(ctx context.Context, cfg *common.Config, prompter common.KeyPrompter, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key, err := common.ResolveAPIKey(cfg.LLM, prompter, logger)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(ctx, cfg.LLM, key, logger)
	if err != nil {
		return nil, err
	}
	return BuildWithGenerator(ctx, cfg, gen, logger)
}

// BuildWithGenerator wires the service around an already constructed generator.
func BuildWithGenerator(ctx context.Context, cfg *common.Config, gen llm.Generator, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, cleanup, err := repository.NewSessionStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	ex := NewExtractor(cfg.Docs, logger)
	ing := ingest.NewIngestor(ex, logger)
	pipe := pipeline.New(gen, pipeline.Options{Timeout: cfg.LLM.Timeout, Lenient: cfg.LLM.Lenient}, logger)
	logger.Info("app.ready",
		"store", cfg.Store.Driver,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
	)
	return &App{
		Config:    cfg,
		Store:     store,
		Extractor: ex,
		Ingestor:  ing,
		Service:   workflow.NewService(store, ing, pipe, logger),
		cleanup:   cleanup,
	}, nil
}
