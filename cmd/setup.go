package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/xhad/quickstart/internal/models"
	"github.com/xhad/quickstart/pkg/builder"
	"github.com/xhad/quickstart/pkg/corpus"
	"github.com/xhad/quickstart/pkg/refresher"
)

type SetupCommand struct {
	Samples   string `help:"Directory containing one sub-directory per sample project. Defaults to corpus.samples_dir." type:"path"`
	SkipEmbed bool   `help:"Only build and save the corpus, leaving embeddings for a later refresh."`
	Force     bool   `help:"Re-embed every document."`
}

func (c SetupCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	samples := c.Samples
	if samples == "" {
		samples = a.cfg.Corpus.SamplesDir
	}
	color.Blue("\nBuilding corpus from %s\n", samples)

	spinner := getSpinner("📂 Reading samples...")
	b := builder.NewWithConfig(builder.BuilderConfig{
		PromptFile:      a.cfg.Builder.PromptFile,
		LanguageFile:    a.cfg.Builder.LanguageFile,
		ReadmeMarker:    a.cfg.Builder.ReadmeMarker,
		DevContainerDir: a.cfg.Builder.DevContainerDir,
		IgnorePatterns:  a.cfg.Builder.IgnorePatterns,
		OnProgress: func(path string) {
			spinner.Add(1)
			a.log.Debug("read sample file", zap.String("path", path))
		},
	})
	corp, err := b.Build(samples)
	spinner.Finish()
	if err != nil {
		return err
	}
	if a.cfg.Corpus.SortByName {
		corp.SortByName()
	}
	color.Green("\n✓ Built %d documents\n", corp.Len())

	var refreshErr error
	if !c.SkipEmbed {
		refreshErr = a.refresh(ctx, corp, c.Force)
	}

	if err := corp.Save(a.cfg.Corpus.Path); err != nil {
		return err
	}
	color.Green("✓ Saved corpus to %s\n", a.cfg.Corpus.Path)

	if refreshErr != nil {
		reportRefreshError(refreshErr)
	}
	return refreshErr
}

// refresh embeds the pending documents of corp with a progress bar. The
// corpus keeps every vector written before a failure.
func (a *app) refresh(ctx context.Context, corp *corpus.Corpus, force bool) error {
	emb, err := a.embedder()
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	config := a.refresherConfig(force)
	config.OnProgress = func(models.Document) {
		bar.Add(1)
	}
	r := refresher.NewWithConfig(config)

	pending := r.Pending(corp)
	if len(pending) == 0 {
		color.Green("✓ All %d documents already embedded\n", corp.Len())
		return nil
	}

	bar = getProgressBar(len(pending), "🧮 Embedding documents...")
	err = r.Refresh(ctx, corp, emb)
	bar.Finish()
	if err != nil {
		return fmt.Errorf("refresh stopped: %w", err)
	}

	color.Green("\n✓ Embedded %d documents (%d dimensions)\n", len(pending), corp.Dimension())
	return nil
}
