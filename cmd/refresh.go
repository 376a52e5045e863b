package main

import (
	"context"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/xhad/quickstart/pkg/corpus"
)

type RefreshCommand struct {
	Force bool `help:"Re-embed every document, not only those without a vector."`
}

func (c RefreshCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	corp, err := corpus.Load(a.cfg.Corpus.Path)
	if err != nil {
		return err
	}
	for _, m := range corp.Validate() {
		a.log.Warn("document embedding does not match corpus dimension",
			zap.String("document", m.Name),
			zap.Int("want", m.Want),
			zap.Int("got", m.Got))
	}

	refreshErr := a.refresh(ctx, corp, c.Force)

	if err := corp.Save(a.cfg.Corpus.Path); err != nil {
		return err
	}
	color.Green("✓ Saved corpus to %s\n", a.cfg.Corpus.Path)

	if refreshErr != nil {
		reportRefreshError(refreshErr)
	}
	return refreshErr
}
