package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	cfgPkg "github.com/xhad/quickstart/pkg/config"
	"github.com/xhad/quickstart/pkg/llm"
	"github.com/xhad/quickstart/pkg/logger"
	"github.com/xhad/quickstart/pkg/refresher"
)

type Globals struct {
	Config   string `help:"Path to config file." type:"path" env:"QUICKSTART_CONFIG"`
	Corpus   string `help:"Path to the corpus snapshot." type:"path" env:"QUICKSTART_CORPUS"`
	LogLevel string `help:"Log level (debug, info, warn, error)." env:"LOG_LEVEL"`
}

type CLI struct {
	Globals

	Setup   SetupCommand   `cmd:"setup" help:"Build the corpus from a samples directory and embed it."`
	Refresh RefreshCommand `cmd:"refresh" help:"Embed documents in the corpus snapshot that have no vector yet."`
	Query   QueryCommand   `cmd:"query" help:"Print the samples most similar to a description."`
	Create  CreateCommand  `cmd:"create" help:"Generate a dev container and starter code for a new project."`
	Push    PushCommand    `cmd:"push" help:"Mirror the corpus snapshot into a pgvector table."`
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("quickstart"),
		kong.Description("Create dev containers and starter code from similar sample projects."),
		kong.UsageOnError(),
		kong.Bind(&cli.Globals),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := kctx.Run(); err != nil {
		color.Red("Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app holds the resolved configuration shared by every command.
type app struct {
	cfg *cfgPkg.Config
	log *zap.Logger
}

func newApp(g *Globals) (*app, error) {
	cfg, err := cfgPkg.LoadConfig(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Corpus != "" {
		cfg.Corpus.Path = g.Corpus
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}

	var errs error
	for _, e := range cfg.Validate() {
		errs = multierr.Append(errs, e)
	}
	if errs != nil {
		return nil, fmt.Errorf("invalid configuration: %w", errs)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) embedderConfig() llm.EmbedderConfig {
	return llm.EmbedderConfig{
		Provider:   a.cfg.LLM.Provider,
		Model:      a.cfg.LLM.EmbeddingModel,
		BaseURL:    a.cfg.LLM.BaseURL,
		APIKey:     a.cfg.LLM.APIKey,
		APIVersion: a.cfg.LLM.APIVersion,
		Timeout:    a.cfg.LLM.Timeout,
	}
}

func (a *app) chatConfig() llm.ChatConfig {
	return llm.ChatConfig{
		Provider:    a.cfg.LLM.Provider,
		Model:       a.cfg.LLM.ChatModel,
		BaseURL:     a.cfg.LLM.BaseURL,
		APIKey:      a.cfg.LLM.APIKey,
		APIVersion:  a.cfg.LLM.APIVersion,
		Temperature: a.cfg.LLM.Temperature,
		MaxTokens:   a.cfg.LLM.MaxTokens,
	}
}

func (a *app) embedder() (*llm.Embedder, error) {
	emb, err := llm.NewEmbedderWithConfig(a.embedderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return emb, nil
}

func (a *app) refresherConfig(force bool) refresher.RefresherConfig {
	return refresher.RefresherConfig{
		Force:       force,
		Concurrency: a.cfg.Refresher.Concurrency,
		RateLimit:   a.cfg.Refresher.RateLimit,
		Logger:      a.log,
	}
}

// reportRefreshError explains how to resume after a failed pass.
func reportRefreshError(err error) {
	var re *refresher.RefreshError
	if errors.As(err, &re) {
		color.Yellow("\nStopped at %q; vectors embedded so far were saved. Run `quickstart refresh` to resume.\n", re.Name)
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
