package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/xhad/quickstart/internal/models"
)

const defaultDevContainerTemplate = `Your task is to write a VS Code Codespaces definition for the project described by the user. Output only the files that belong in the .devcontainer folder, never source code for the application itself.

The example conversations show definitions that already work. Use them as guidance and ignore them when they do not fit.

Dev containers copy the repository into the container automatically, so the Dockerfile must not contain COPY instructions.
Install every system package in a single package manager command inside one RUN instruction and do not repeat packages.
Commands that install dependencies from repository files, such as "pip3 install -r requirements.txt", belong in devcontainer.json as a "postCreateCommand".

Choose the language, tools and frameworks that best match the request.

Write each file as a line "=== ./path/to/file ===" followed by its contents, and nothing else.`

const defaultStarterCodeTemplate = `Your task is to write the starting source code for a VS Code Codespaces project described by the user. The dev container definition for the project is provided for reference.

The example conversations are only inspiration; you do not need to reuse them.

Write each file as a line "=== ./path/to/file ===" followed by its contents, using the same layout as the examples. Do not output anything else.`

// fallbackExample is used when the corpus has nothing to offer as a few-shot example.
var fallbackExample = models.Document{
	Name:   "python-bitcoin-tracker",
	Prompt: "Create a bitcoin price tracker using Python",
	Codespaces: `=== ./.devcontainer/devcontainer.json ===
{
    "name": "Python 3 Bitcoin Price Tracker",
    "build": {
        "dockerfile": "Dockerfile"
    },
    "customizations": {
        "vscode": {
            "extensions": [
                "ms-python.python"
            ]
        }
    },
    "postCreateCommand": "pip3 install -r requirements.txt"
}

=== ./.devcontainer/Dockerfile ===
FROM mcr.microsoft.com/devcontainers/base:ubuntu

ENV DEBIAN_FRONTEND noninteractive

RUN apt update && apt install -y python3-pip`,
	Code: `=== ./price_tracker.py ===
import requests

url = 'https://api.coindesk.com/v1/bpi/currentprice.json'
data = requests.get(url).json()
print("Bitcoin Price: $" + data['bpi']['USD']['rate'])

=== ./requirements.txt ===
requests`,
}

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Provider             string
	Model                string // model name, or deployment name for Azure
	BaseURL              string
	APIKey               string
	APIVersion           string
	Temperature          float64
	MaxTokens            int
	DevContainerTemplate string
	StarterCodeTemplate  string
}

// ChatEngine is an engine that uses an LLM to generate project files.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Provider == "" {
		config.Provider = ProviderOllama
	}

	var (
		model llms.Model
		err   error
	)
	switch config.Provider {
	case ProviderOllama:
		if config.Model == "" {
			config.Model = "mistral"
		}
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
		model, err = ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))

	case ProviderAzure:
		if config.APIVersion == "" {
			config.APIVersion = DefaultAzureAPIVersion
		}
		model, err = lcopenai.New(
			lcopenai.WithAPIType(lcopenai.APITypeAzure),
			lcopenai.WithBaseURL(config.BaseURL),
			lcopenai.WithToken(config.APIKey),
			lcopenai.WithAPIVersion(config.APIVersion),
			lcopenai.WithModel(config.Model),
		)

	case ProviderOpenAI:
		opts := []lcopenai.Option{lcopenai.WithToken(config.APIKey)}
		if config.Model != "" {
			opts = append(opts, lcopenai.WithModel(config.Model))
		}
		if config.BaseURL != "" {
			opts = append(opts, lcopenai.WithBaseURL(config.BaseURL))
		}
		model, err = lcopenai.New(opts...)

	default:
		return nil, fmt.Errorf("unknown chat provider %q", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return NewWithModel(config, model)
}

// NewWithModel creates a ChatEngine around an already constructed model.
func NewWithModel(config ChatConfig, model llms.Model) (*ChatEngine, error) {
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 4000
	}
	if config.DevContainerTemplate == "" {
		config.DevContainerTemplate = defaultDevContainerTemplate
	}
	if config.StarterCodeTemplate == "" {
		config.StarterCodeTemplate = defaultStarterCodeTemplate
	}

	return &ChatEngine{
		config: config,
		llm:    model,
	}, nil
}

// GenerateDevContainer asks for the .devcontainer files of a new project.
// Each example contributes a prompt/definition pair, in the order given.
func (ce *ChatEngine) GenerateDevContainer(ctx context.Context, description string, examples []models.Document) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, ce.config.DevContainerTemplate),
	}
	for _, ex := range fewShot(examples, func(d models.Document) string { return d.Codespaces }) {
		content = append(content,
			llms.TextParts(schema.ChatMessageTypeHuman, examplePrompt(ex)),
			llms.TextParts(schema.ChatMessageTypeAI, ex.Codespaces),
		)
	}
	content = append(content, llms.TextParts(schema.ChatMessageTypeHuman, description))

	return ce.generate(ctx, content)
}

// GenerateStarterCode asks for the application source of a new project,
// given the dev container produced for it.
func (ce *ChatEngine) GenerateStarterCode(ctx context.Context, description, devContainer string, examples []models.Document) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, ce.config.StarterCodeTemplate),
	}
	for _, ex := range fewShot(examples, func(d models.Document) string { return d.Code }) {
		content = append(content,
			llms.TextParts(schema.ChatMessageTypeHuman, examplePrompt(ex)),
			llms.TextParts(schema.ChatMessageTypeAI, ex.Code),
		)
	}

	var request strings.Builder
	request.WriteString(description)
	if devContainer != "" {
		request.WriteString("\n\nDev container definition:\n")
		request.WriteString(devContainer)
	}
	content = append(content, llms.TextParts(schema.ChatMessageTypeHuman, request.String()))

	return ce.generate(ctx, content)
}

func (ce *ChatEngine) generate(ctx context.Context, content []llms.MessageContent) (string, error) {
	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", wrapCapabilityError("chat", err)
	}
	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", fmt.Errorf("no response from LLM: %w", ErrExternalCapability)
	}
	return response.Choices[0].Content, nil
}

// fewShot keeps the examples that have something to show for field, falling
// back to the built-in example.
func fewShot(examples []models.Document, field func(models.Document) string) []models.Document {
	var usable []models.Document
	for _, ex := range examples {
		if ex.Prompt != "" && field(ex) != "" {
			usable = append(usable, ex)
		}
	}
	if len(usable) == 0 {
		return []models.Document{fallbackExample}
	}
	return usable
}

func examplePrompt(doc models.Document) string {
	prompt := strings.TrimSpace(doc.Prompt)
	if lang := strings.TrimSpace(doc.Language); lang != "" {
		return fmt.Sprintf("%s\nPreferred language: %s", prompt, lang)
	}
	return prompt
}
