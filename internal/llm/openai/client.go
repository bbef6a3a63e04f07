package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/llm"
)

const systemPrompt = "You turn interview documents into tables. " +
	"Reply with exactly one JSON array of objects and nothing else."

// Generate implements llm.Generator over chat/completions. Images are sent as data-URL parts
// of the user message.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", common.NewAppError("MISSING_API_KEY", "OPENAI_API_KEY is not set", common.ErrMissingAPIKey)
	}
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)

	c.logger.Info("llm.generate.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(req.Prompt),
		"images", len(req.Images),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userContent(req)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: openai: %w", common.ErrProvider, err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: decode openai response: %w", common.ErrProvider, err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.generate.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: no choices in openai response", common.ErrProvider)
	}

	content := cc.Choices[0].Message.Content
	c.logger.Info("llm.generate.ok",
		"req_id", rid,
		"provider", "openai",
		"reply_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// userContent is a plain string for text-only requests and a parts array otherwise.
func userContent(req llm.Request) any {
	if len(req.Images) == 0 {
		return req.Prompt
	}
	parts := []map[string]any{{"type": "text", "text": req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": llm.DataURL(img)},
		})
	}
	return parts
}
