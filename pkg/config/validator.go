package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	switch c.LLM.Provider {
	case "ollama", "openai":
	case "azure":
		if c.LLM.BaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "Azure endpoint is required",
			})
		}
		if c.LLM.APIKey == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.api_key",
				Message: "Azure API key is required",
			})
		}
		if c.LLM.ChatModel == "" || c.LLM.EmbeddingModel == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.chat_model",
				Message: "Azure chat and embedding deployments are required",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q", c.LLM.Provider),
		})
	}

	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid base URL",
			})
		}
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 32768 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 32768",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.timeout",
			Message: "timeout must not be negative",
		})
	}

	// Validate Corpus config
	if c.Corpus.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "corpus.path",
			Message: "snapshot path is required",
		})
	}

	if c.Corpus.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "corpus.top_k",
			Message: "top_k must be positive",
		})
	}

	// Validate Refresher config
	if c.Refresher.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "refresher.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if c.Refresher.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "refresher.rate_limit",
			Message: "rate_limit must not be negative",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level %q", c.Log.Level),
		})
	}

	return errors
}
