package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider       string        `yaml:"provider"`
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		APIVersion     string        `yaml:"api_version"`
		ChatModel      string        `yaml:"chat_model"`
		EmbeddingModel string        `yaml:"embedding_model"`
		MaxTokens      int           `yaml:"max_tokens"`
		Temperature    float64       `yaml:"temperature"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Corpus struct {
		Path       string `yaml:"path"`
		SamplesDir string `yaml:"samples_dir"`
		TopK       int    `yaml:"top_k"`
		SortByName bool   `yaml:"sort_by_name"`
	} `yaml:"corpus"`

	Builder struct {
		PromptFile      string   `yaml:"prompt_file"`
		LanguageFile    string   `yaml:"language_file"`
		ReadmeMarker    string   `yaml:"readme_marker"`
		DevContainerDir string   `yaml:"devcontainer_dir"`
		IgnorePatterns  []string `yaml:"ignore_patterns"`
	} `yaml:"builder"`

	Refresher struct {
		Concurrency int     `yaml:"concurrency"`
		RateLimit   float64 `yaml:"rate_limit"`
	} `yaml:"refresher"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`

	Output struct {
		Dir   string `yaml:"dir"`
		Clean bool   `yaml:"clean"`
	} `yaml:"output"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"quickstart.yaml",
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/quickstart/config.yaml"),
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.Provider == "ollama" {
		if config.LLM.BaseURL == "" {
			config.LLM.BaseURL = "http://localhost:11434"
		}
		if config.LLM.ChatModel == "" {
			config.LLM.ChatModel = "mistral"
		}
		if config.LLM.EmbeddingModel == "" {
			config.LLM.EmbeddingModel = "nomic-embed-text:latest"
		}
	}
	if config.LLM.Provider == "azure" && config.LLM.APIVersion == "" {
		config.LLM.APIVersion = "2024-04-01-preview"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 4000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.Timeout == 0 {
		config.LLM.Timeout = 2 * time.Minute
	}

	if config.Corpus.Path == "" {
		config.Corpus.Path = "exampleDocuments/docsEmbeddings.json"
	}
	if config.Corpus.SamplesDir == "" {
		config.Corpus.SamplesDir = "exampleDocuments/Samples"
	}
	if config.Corpus.TopK == 0 {
		config.Corpus.TopK = 1
	}

	if config.Refresher.Concurrency == 0 {
		config.Refresher.Concurrency = 1
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "quickstart_samples"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 1536
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Output.Dir == "" {
		config.Output.Dir = "quickstartOutput"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

// mergeWithEnv applies environment overrides. Any AZURE_AI_* variable
// switches the provider to Azure OpenAI.
func mergeWithEnv(config *Config) {
	if endpoint := os.Getenv("AZURE_AI_ENDPOINT"); endpoint != "" {
		config.LLM.Provider = "azure"
		config.LLM.BaseURL = endpoint
	}
	if key := os.Getenv("AZURE_AI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if deployment := os.Getenv("AZURE_AI_DEPLOYMENT"); deployment != "" {
		config.LLM.ChatModel = deployment
	}
	if deployment := os.Getenv("AZURE_AI_EMBEDDINGS_DEPLOYMENT"); deployment != "" {
		config.LLM.EmbeddingModel = deployment
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.LLM.Provider != "azure" {
		config.LLM.Provider = "ollama"
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}
