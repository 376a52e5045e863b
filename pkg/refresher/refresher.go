// Package refresher fills in missing corpus embeddings through an external
// embedding capability.
package refresher

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xhad/quickstart/internal/models"
	"github.com/xhad/quickstart/internal/types"
	"github.com/xhad/quickstart/pkg/corpus"
	"github.com/xhad/quickstart/pkg/llm"
)

type RefresherConfig struct {
	Force       bool    // re-embed documents that already have a vector
	Concurrency int     // in-flight embedding calls
	RateLimit   float64 // calls per second, 0 for unlimited
	OnProgress  func(doc models.Document)
	Logger      *zap.Logger
}

// RefreshError identifies the document whose embedding call failed.
type RefreshError struct {
	Index int
	Name  string
	Err   error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("embedding document %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

func (e *RefreshError) Is(target error) bool {
	return target == corpus.ErrEmbeddingRefresh
}

type Refresher struct {
	config  RefresherConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewWithConfig(config RefresherConfig) *Refresher {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &Refresher{
		config:  config,
		limiter: limiter,
		logger:  config.Logger,
	}
}

func New() *Refresher {
	return NewWithConfig(RefresherConfig{})
}

// Pending lists the positions of documents the next pass would embed.
func (r *Refresher) Pending(c *corpus.Corpus) []int {
	var pending []int
	for i := 0; i < c.Len(); i++ {
		if r.config.Force || !c.Document(i).HasEmbedding() {
			pending = append(pending, i)
		}
	}
	return pending
}

// Refresh embeds each pending document's prompt and stores the vector in
// place. The first failure stops the pass and is returned as a *RefreshError;
// vectors already written are kept, so a later non-forced pass resumes where
// this one stopped.
func (r *Refresher) Refresh(ctx context.Context, c *corpus.Corpus, embedder types.Embedder) error {
	pending := r.Pending(c)
	if len(pending) == 0 {
		r.logger.Debug("all documents already embedded", zap.Int("documents", c.Len()))
		return nil
	}

	w := &writer{corpus: c}
	if !r.config.Force {
		w.dim = c.Dimension()
	}

	r.logger.Info("refreshing embeddings",
		zap.Int("pending", len(pending)),
		zap.Int("documents", c.Len()),
		zap.Int("concurrency", r.config.Concurrency))

	if r.config.Concurrency == 1 {
		for _, i := range pending {
			if err := r.refreshOne(ctx, w, embedder, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)
	for _, i := range pending {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			return r.refreshOne(gctx, w, embedder, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *Refresher) refreshOne(ctx context.Context, w *writer, embedder types.Embedder, i int) error {
	doc := w.document(i)
	fail := func(err error) error {
		r.logger.Error("embedding failed", zap.String("document", doc.Name), zap.Error(err))
		return &RefreshError{Index: i, Name: doc.Name, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	vec, err := embedder.Embed(ctx, doc.Prompt)
	if err != nil {
		return fail(err)
	}
	if err := w.store(i, vec); err != nil {
		return fail(err)
	}

	r.logger.Debug("embedded document", zap.String("document", doc.Name), zap.Int("dimensions", len(vec)))
	if r.config.OnProgress != nil {
		r.config.OnProgress(doc)
	}
	return nil
}

// writer serializes access to the corpus while calls are in flight. Each
// pending index is handed to exactly one goroutine.
type writer struct {
	mu     sync.Mutex
	corpus *corpus.Corpus
	dim    int
}

func (w *writer) document(i int) models.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.corpus.Document(i)
}

func (w *writer) store(i int, vec []float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(vec) == 0 {
		return fmt.Errorf("%w: empty embedding returned", corpus.ErrDimensionMismatch)
	}
	for j, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: component %d of the embedding is %v", llm.ErrExternalCapability, j, v)
		}
	}
	if w.dim == 0 {
		w.dim = len(vec)
	}
	if len(vec) != w.dim {
		return fmt.Errorf("%w: got %d dimensions, corpus has %d", corpus.ErrDimensionMismatch, len(vec), w.dim)
	}
	return w.corpus.SetEmbedding(i, vec)
}
