package llm

import (
	"context"

	"github.com/joseph-ayodele/interview-matrix/internal/document"
)

// Request is one non-streaming model call: a composed prompt plus optional images.
type Request struct {
	Prompt string
	Images []document.Image
}

// Generator is the model call the pipeline depends on. It returns the raw reply text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
