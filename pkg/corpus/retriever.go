package corpus

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xhad/quickstart/internal/models"
	"github.com/xhad/quickstart/internal/types"
)

// TopMatches returns the k documents most similar to query, without scores.
// Documents skipped for a dimension mismatch are not reported; use Rank or
// Retriever.Search to see them.
func TopMatches(c *Corpus, query []float32, k int) []models.Document {
	results, _ := c.Rank(query, k)
	docs := make([]models.Document, len(results))
	for i, r := range results {
		docs[i] = r.Document
	}
	return docs
}

// Retriever embeds free text and looks up the closest documents in a corpus.
type Retriever struct {
	corpus   *Corpus
	embedder types.Embedder
	logger   *zap.Logger
}

func NewRetriever(c *Corpus, embedder types.Embedder, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		corpus:   c,
		embedder: embedder,
		logger:   logger,
	}
}

// Search embeds text and returns the ranked results with their scores.
func (r *Retriever) Search(ctx context.Context, text string, k int) ([]models.SimilarityResult, error) {
	query, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, skipped := r.corpus.Rank(query, k)
	for _, s := range skipped {
		r.logger.Warn("skipping document with mismatched embedding",
			zap.String("document", s.Name),
			zap.Int("index", s.Index),
			zap.Int("want", s.Want),
			zap.Int("got", s.Got))
	}
	r.logger.Debug("ranked corpus",
		zap.Int("k", k),
		zap.Int("results", len(results)),
		zap.Int("skipped", len(skipped)))

	return results, nil
}

// Retrieve is Search without scores.
func (r *Retriever) Retrieve(ctx context.Context, text string, k int) ([]models.Document, error) {
	results, err := r.Search(ctx, text, k)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, len(results))
	for i, res := range results {
		docs[i] = res.Document
	}
	return docs, nil
}
