package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"AZURE_AI_ENDPOINT",
		"AZURE_AI_API_KEY",
		"AZURE_AI_DEPLOYMENT",
		"AZURE_AI_EMBEDDINGS_DEPLOYMENT",
		"OLLAMA_BASE_URL",
		"DATABASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)

	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  provider: "openai"
  base_url: "https://api.example.com/v1"
  api_key: "sk-test"
  chat_model: "gpt-4o"
  embedding_model: "text-embedding-3-small"
  max_tokens: 1000
  temperature: 0.5
  timeout: 30s

corpus:
  path: "data/snapshot.json"
  samples_dir: "data/Samples"
  top_k: 3

builder:
  ignore_patterns:
    - ".git"
    - "*.png"

refresher:
  concurrency: 4
  rate_limit: 2.5

database:
  url: "postgres://localhost:5432/test"
  table_name: "test_samples"
  vector_dim: 768
  batch_size: 50

output:
  dir: "out"
  clean: true

log:
  level: "debug"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "https://api.example.com/v1", config.LLM.BaseURL)
	assert.Equal(t, "gpt-4o", config.LLM.ChatModel)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, 30*time.Second, config.LLM.Timeout)
	assert.Equal(t, "data/snapshot.json", config.Corpus.Path)
	assert.Equal(t, 3, config.Corpus.TopK)
	assert.Equal(t, []string{".git", "*.png"}, config.Builder.IgnorePatterns)
	assert.Equal(t, 4, config.Refresher.Concurrency)
	assert.Equal(t, 2.5, config.Refresher.RateLimit)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, 768, config.Database.VectorDim)
	assert.True(t, config.Output.Clean)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Empty(t, config.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)

	config, err := getDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "exampleDocuments/docsEmbeddings.json", config.Corpus.Path)
	assert.Equal(t, "exampleDocuments/Samples", config.Corpus.SamplesDir)
	assert.Equal(t, 1, config.Corpus.TopK)
	assert.Equal(t, 1, config.Refresher.Concurrency)
	assert.Equal(t, "quickstartOutput", config.Output.Dir)
	assert.Equal(t, "info", config.Log.Level)
	assert.Empty(t, config.Validate())
}

func TestMergeWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AZURE_AI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_AI_API_KEY", "secret")
	t.Setenv("AZURE_AI_DEPLOYMENT", "gpt4o")
	t.Setenv("AZURE_AI_EMBEDDINGS_DEPLOYMENT", "textembeddingsmall")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("DATABASE_URL", "postgres://db/quickstart")

	config, err := getDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "azure", config.LLM.Provider)
	assert.Equal(t, "https://example.openai.azure.com", config.LLM.BaseURL)
	assert.Equal(t, "secret", config.LLM.APIKey)
	assert.Equal(t, "gpt4o", config.LLM.ChatModel)
	assert.Equal(t, "textembeddingsmall", config.LLM.EmbeddingModel)
	assert.Equal(t, "2024-04-01-preview", config.LLM.APIVersion)
	assert.Equal(t, "postgres://db/quickstart", config.Database.URL)
	assert.Empty(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name          string
		mutate        func(*Config)
		errorMessages []string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.LLM.Provider = "bard"
			},
			errorMessages: []string{`llm.provider: unknown provider "bard"`},
		},
		{
			name: "azure without credentials",
			mutate: func(c *Config) {
				c.LLM.Provider = "azure"
				c.LLM.BaseURL = ""
				c.LLM.APIKey = ""
			},
			errorMessages: []string{
				"llm.base_url: Azure endpoint is required",
				"llm.api_key: Azure API key is required",
			},
		},
		{
			name: "invalid ranges",
			mutate: func(c *Config) {
				c.LLM.MaxTokens = -1
				c.LLM.Temperature = 2.5
				c.Corpus.TopK = 0
				c.Refresher.Concurrency = 0
				c.Refresher.RateLimit = -1
			},
			errorMessages: []string{
				"llm.max_tokens: max_tokens must be between 1 and 32768",
				"llm.temperature: temperature must be between 0 and 2",
				"corpus.top_k: top_k must be positive",
				"refresher.concurrency: concurrency must be positive",
				"refresher.rate_limit: rate_limit must not be negative",
			},
		},
		{
			name: "bad base url and log level",
			mutate: func(c *Config) {
				c.LLM.BaseURL = "localhost"
				c.Log.Level = "verbose"
			},
			errorMessages: []string{
				"llm.base_url: invalid base URL",
				`log.level: unknown log level "verbose"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := getDefaultConfig()
			require.NoError(t, err)
			tt.mutate(config)

			errs := config.Validate()
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				messages = append(messages, e.Error())
			}
			assert.ElementsMatch(t, tt.errorMessages, messages)
		})
	}
}
