package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/xhad/quickstart/internal/models"
	"github.com/xhad/quickstart/internal/types"
	"github.com/xhad/quickstart/pkg/corpus"
	"github.com/xhad/quickstart/pkg/llm"
	"github.com/xhad/quickstart/pkg/scaffold"
)

type CreateCommand struct {
	Prompt string `help:"Project description. Omit for an interactive session."`
	Output string `help:"Output directory. Defaults to output.dir." type:"path"`
	Clean  bool   `help:"Remove the output directory before writing. Also enabled by output.clean."`
}

// project is the result of one generation round.
type project struct {
	Examples     []models.Document
	DevContainer string
	StarterCode  string
	Files        []scaffold.File
}

// generateProject retrieves the k closest samples for description and asks
// gen for a dev container followed by starter code built on it.
func generateProject(ctx context.Context, retriever *corpus.Retriever, gen types.Generator, description string, k int) (*project, error) {
	examples, err := retriever.Retrieve(ctx, description, k)
	if err != nil {
		return nil, err
	}

	devContainer, err := gen.GenerateDevContainer(ctx, description, examples)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev container: %w", err)
	}

	starterCode, err := gen.GenerateStarterCode(ctx, description, devContainer, examples)
	if err != nil {
		return nil, fmt.Errorf("failed to generate starter code: %w", err)
	}

	files := append(scaffold.Parse(devContainer), scaffold.Parse(starterCode)...)
	return &project{
		Examples:     examples,
		DevContainer: devContainer,
		StarterCode:  starterCode,
		Files:        files,
	}, nil
}

func (c CreateCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	outputDir := c.Output
	if outputDir == "" {
		outputDir = a.cfg.Output.Dir
	}
	clean := a.cfg.Output.Clean || c.Clean

	corp, err := corpus.Load(a.cfg.Corpus.Path)
	if err != nil {
		return err
	}
	emb, err := a.embedder()
	if err != nil {
		return err
	}
	chatEngine, err := llm.NewWithConfig(a.chatConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %w", err)
	}
	retriever := corpus.NewRetriever(corp, emb, a.log)

	run := func(description string) error {
		spinner := getSpinner("🤖 Generating project...")
		p, err := generateProject(ctx, retriever, chatEngine, description, a.cfg.Corpus.TopK)
		spinner.Finish()
		fmt.Fprint(os.Stderr, "\r")
		if err != nil {
			return err
		}

		names := make([]string, len(p.Examples))
		for i, d := range p.Examples {
			names[i] = d.Name
		}
		a.log.Info("generated project",
			zap.Strings("examples", names),
			zap.Int("files", len(p.Files)))

		if len(p.Files) == 0 {
			color.Yellow("\nThe model returned no files:\n")
			fmt.Println(p.DevContainer)
			fmt.Println(p.StarterCode)
			return nil
		}
		if err := scaffold.Write(outputDir, p.Files, clean); err != nil {
			return err
		}
		for _, f := range p.Files {
			color.Green("  ✓ %s\n", filepath.Join(outputDir, filepath.FromSlash(strings.TrimPrefix(f.Path, "./"))))
		}
		color.Cyan("\nProject written to %s\n", outputDir)
		return nil
	}

	if c.Prompt != "" {
		return run(c.Prompt)
	}

	color.Cyan("\nDescribe the project you want to create (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		description := strings.TrimSpace(scanner.Text())
		if description == "" {
			continue
		}
		if strings.ToLower(description) == "exit" {
			break
		}

		if err := run(description); err != nil {
			color.Red("Error: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}

	return scanner.Err()
}
