package types

import (
	"context"

	"github.com/xhad/quickstart/internal/models"
)

// Core interfaces
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedFunc adapts a plain function to Embedder.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

func (f EmbedFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

type Generator interface {
	GenerateDevContainer(ctx context.Context, description string, examples []models.Document) (string, error)
	GenerateStarterCode(ctx context.Context, description, devContainer string, examples []models.Document) (string, error)
}
