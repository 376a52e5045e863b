package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/xhad/quickstart/internal/models"
	"github.com/xhad/quickstart/pkg/corpus"
	"github.com/xhad/quickstart/pkg/store"
)

type PushCommand struct {
	Prune bool `help:"Delete rows for samples no longer in the snapshot." default:"true" negatable:""`
}

func (c PushCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Database.URL == "" {
		return fmt.Errorf("database.url or DATABASE_URL is required")
	}

	corp, err := corpus.Load(a.cfg.Corpus.Path)
	if err != nil {
		return err
	}

	dim := corp.Dimension()
	if dim == 0 {
		dim = a.cfg.Database.VectorDim
	}

	vectorStore, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: a.cfg.Database.URL,
		TableName:  a.cfg.Database.TableName,
		VectorDim:  dim,
		BatchSize:  a.cfg.Database.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vectorStore.Close()

	skipped, err := pushCorpus(ctx, vectorStore, corp, a.log)
	if err != nil {
		return err
	}
	if skipped > 0 {
		color.Yellow("Skipped %d documents without a %d-dimension embedding\n", skipped, dim)
	}

	if c.Prune {
		docs := corp.Documents()
		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = d.Name
		}
		pruned, err := vectorStore.Prune(ctx, names)
		if err != nil {
			return err
		}
		a.log.Info("pruned stale samples", zap.Int64("rows", pruned))
	}

	color.Green("\n✓ Storage complete\n")
	return nil
}

type documentStore interface {
	BatchSize() int
	Store(ctx context.Context, position int, docs []models.Document) (int, error)
}

// pushCorpus stores corp in batches and returns how many documents were
// skipped for lacking a usable embedding.
func pushCorpus(ctx context.Context, s documentStore, corp *corpus.Corpus, log *zap.Logger) (int, error) {
	docs := corp.Documents()
	storageBar := getProgressBar(len(docs), "💾 Storing in vector database...")
	defer storageBar.Finish()

	startTime := time.Now()
	batchSize := s.BatchSize()
	skipped := 0
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		batch := docs[i:end]

		n, err := s.Store(ctx, i, batch)
		if err != nil {
			return skipped, fmt.Errorf("failed to store batch: %w", err)
		}
		skipped += n
		storageBar.Add(len(batch))
		log.Debug("stored batch", zap.Int("from", i), zap.Int("to", end), zap.Int("skipped", n))

		elapsed := time.Since(startTime).Seconds()
		rate := float64(end) / elapsed
		storageBar.Describe(color.BlueString(
			"💾 Storing in vector database... (%.1f docs/sec)", rate))
	}
	return skipped, nil
}
