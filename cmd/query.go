package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/xhad/quickstart/internal/models"
	"github.com/xhad/quickstart/internal/types"
	"github.com/xhad/quickstart/pkg/corpus"
	"github.com/xhad/quickstart/pkg/store"
)

type QueryCommand struct {
	Text string `help:"Project description to search for." required:""`
	K    int    `help:"Number of results. Defaults to corpus.top_k." short:"k"`
	DB   bool   `help:"Search the pgvector mirror instead of the local snapshot." name:"db"`
}

type queryResult struct {
	Name       string  `json:"name"`
	Index      int     `json:"index"`
	Language   string  `json:"language,omitempty"`
	Similarity float64 `json:"similarity"`
}

func (c QueryCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	k := c.K
	if k == 0 {
		k = a.cfg.Corpus.TopK
	}

	emb, err := a.embedder()
	if err != nil {
		return err
	}

	var results []models.SimilarityResult
	if c.DB {
		results, err = a.queryStore(ctx, emb, c.Text, k)
	} else {
		var corp *corpus.Corpus
		corp, err = corpus.Load(a.cfg.Corpus.Path)
		if err != nil {
			return err
		}
		results, err = corpus.NewRetriever(corp, emb, a.log).Search(ctx, c.Text, k)
	}
	if err != nil {
		return err
	}

	return writeResults(os.Stdout, results)
}

func (a *app) queryStore(ctx context.Context, emb types.Embedder, text string, k int) ([]models.SimilarityResult, error) {
	if a.cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url or DATABASE_URL is required with --db")
	}

	vec, err := emb.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	vs, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: a.cfg.Database.URL,
		TableName:  a.cfg.Database.TableName,
		VectorDim:  len(vec),
		BatchSize:  a.cfg.Database.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vs.Close()

	return vs.Query(ctx, vec, k)
}

func writeResults(w io.Writer, results []models.SimilarityResult) error {
	out := make([]queryResult, len(results))
	for i, r := range results {
		out[i] = queryResult{
			Name:       r.Document.Name,
			Index:      r.Index,
			Language:   r.Document.Language,
			Similarity: r.Similarity,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
