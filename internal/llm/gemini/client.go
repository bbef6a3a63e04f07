package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/llm"
)

// Config for the Gemini client.
type Config struct {
	APIKey      string
	Model       string  // default gemini-1.5-flash-latest
	Temperature float32 // 0..2
	Timeout     time.Duration
	BaseURL     string // override for tests and proxies
}

// Client implements llm.Generator with google.golang.org/genai.
type Client struct {
	cfg    Config
	client *genai.Client
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, common.NewAppError("MISSING_API_KEY", "GOOGLE_API_KEY is not set", common.ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-latest"
	}
	if logger == nil {
		logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{cfg: cfg, client: client, logger: logger}, nil
}

// Generate sends the prompt, followed by any images, as one user turn.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)

	c.logger.Info("llm.generate.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(req.Prompt),
		"images", len(req.Images),
	)

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	})
	if err != nil {
		c.logger.Error("llm.generate.error",
			"req_id", rid, "provider", "gemini", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: gemini: %w", common.ErrProvider, err)
	}

	text := resp.Text()
	c.logger.Info("llm.generate.ok",
		"req_id", rid,
		"provider", "gemini",
		"reply_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
