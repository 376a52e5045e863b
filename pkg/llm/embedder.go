package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ErrExternalCapability wraps every failure reported by an embedding or
// generation backend.
var ErrExternalCapability = errors.New("external capability error")

const (
	ProviderOllama = "ollama"
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"

	DefaultAzureAPIVersion = "2024-04-01-preview"
)

// EmbedderConfig represents the configuration for an embedding backend.
type EmbedderConfig struct {
	Provider   string
	Model      string // model name, or deployment name for Azure
	BaseURL    string // Ollama server URL or Azure endpoint
	APIKey     string
	APIVersion string
	Timeout    time.Duration
}

// Embedder turns text into vectors using Ollama or an OpenAI-compatible API.
type Embedder struct {
	Config EmbedderConfig
	ollama embeddings.Embedder
	openai *openai.Client
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Provider == "" {
		config.Provider = ProviderOllama
	}

	e := &Embedder{}
	switch config.Provider {
	case ProviderOllama:
		if config.Model == "" {
			config.Model = "nomic-embed-text:latest"
		}
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
		client, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
		}
		emb, err := embeddings.NewEmbedder(client)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		e.ollama = emb

	case ProviderAzure:
		if config.BaseURL == "" {
			return nil, fmt.Errorf("azure embeddings require an endpoint")
		}
		if config.Model == "" {
			return nil, fmt.Errorf("azure embeddings require a deployment name")
		}
		if config.APIVersion == "" {
			config.APIVersion = DefaultAzureAPIVersion
		}
		clientCfg := openai.DefaultAzureConfig(config.APIKey, config.BaseURL)
		clientCfg.APIVersion = config.APIVersion
		// Requests name the deployment directly.
		clientCfg.AzureModelMapperFunc = func(model string) string { return model }
		e.openai = openai.NewClientWithConfig(clientCfg)

	case ProviderOpenAI:
		if config.Model == "" {
			config.Model = string(openai.SmallEmbedding3)
		}
		clientCfg := openai.DefaultConfig(config.APIKey)
		if config.BaseURL != "" {
			clientCfg.BaseURL = config.BaseURL
		}
		e.openai = openai.NewClientWithConfig(clientCfg)

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", config.Provider)
	}

	e.Config = config
	return e, nil
}

// Embed returns the embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Config.Timeout)
		defer cancel()
	}

	var (
		vec []float32
		err error
	)
	if e.ollama != nil {
		vec, err = e.ollama.EmbedQuery(ctx, text)
	} else {
		vec, err = e.embedOpenAI(ctx, text)
	}
	if err != nil {
		return nil, wrapCapabilityError("embedding", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding response: %w", ErrExternalCapability)
	}
	return vec, nil
}

func (e *Embedder) embedOpenAI(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.openai.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(e.Config.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0].Embedding, nil
}

// wrapCapabilityError keeps the backend's message and marks the error as
// coming from outside the process.
func wrapCapabilityError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request timed out: %w: %w", op, ErrExternalCapability, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, string(reqErr.Body), ErrExternalCapability)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, ErrExternalCapability)
	}

	return fmt.Errorf("%s request failed: %w: %w", op, ErrExternalCapability, err)
}
