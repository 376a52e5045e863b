package corpus

import (
	"cmp"
	"slices"

	"github.com/xhad/quickstart/internal/models"
	"github.com/xhad/quickstart/pkg/vecmath"
)

// Rank scores every document against query and returns the k best, highest
// similarity first. Documents with equal scores keep their corpus order.
//
// Documents without an embedding are not scorable and are left out silently.
// Documents whose embedding length differs from the query are left out too and
// reported in the second return value; they never abort the query.
func (c *Corpus) Rank(query []float32, k int) ([]models.SimilarityResult, []*DimensionMismatchError) {
	if k <= 0 || len(query) == 0 {
		return []models.SimilarityResult{}, nil
	}

	results := make([]models.SimilarityResult, 0, len(c.docs))
	var skipped []*DimensionMismatchError
	for i, doc := range c.docs {
		if !doc.HasEmbedding() {
			continue
		}
		if len(doc.Embedding) != len(query) {
			skipped = append(skipped, &DimensionMismatchError{
				Index: i,
				Name:  doc.Name,
				Want:  len(query),
				Got:   len(doc.Embedding),
			})
			continue
		}
		results = append(results, models.SimilarityResult{
			Document:   doc,
			Index:      i,
			Similarity: vecmath.CosineSimilarity(query, doc.Embedding),
		})
	}

	slices.SortStableFunc(results, func(a, b models.SimilarityResult) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, skipped
}
