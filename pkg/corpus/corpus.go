// Package corpus owns the collection of sample-project documents, its JSON
// snapshot and similarity ranking against a query embedding.
package corpus

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xhad/quickstart/internal/models"
)

// Corpus is an ordered collection of documents. It is not safe for concurrent
// mutation; callers serialize writes.
type Corpus struct {
	docs []models.Document
}

func New(docs ...models.Document) *Corpus {
	c := &Corpus{}
	c.Append(docs...)
	return c
}

func (c *Corpus) Len() int {
	return len(c.docs)
}

// Documents returns a copy of the documents in corpus order.
func (c *Corpus) Documents() []models.Document {
	return slices.Clone(c.docs)
}

func (c *Corpus) Document(i int) models.Document {
	return c.docs[i]
}

// Append adds docs at the end. Text fields are stored as valid UTF-8, the
// only form a snapshot can hold, so a saved corpus loads back unchanged.
func (c *Corpus) Append(docs ...models.Document) {
	for _, doc := range docs {
		c.docs = append(c.docs, validUTF8(doc))
	}
}

func validUTF8(doc models.Document) models.Document {
	for _, field := range []*string{&doc.Name, &doc.Prompt, &doc.Language, &doc.Readme, &doc.Code, &doc.Codespaces} {
		*field = strings.ToValidUTF8(*field, "\uFFFD")
	}
	return doc
}

// SetEmbedding attaches a vector to the document at position i.
func (c *Corpus) SetEmbedding(i int, embedding []float32) error {
	if i < 0 || i >= len(c.docs) {
		return fmt.Errorf("document index %d out of range [0,%d)", i, len(c.docs))
	}
	c.docs[i].Embedding = slices.Clone(embedding)
	return nil
}

// Dimension is the length of the first non-empty embedding, or 0 when no
// document has one yet.
func (c *Corpus) Dimension() int {
	for _, doc := range c.docs {
		if doc.HasEmbedding() {
			return len(doc.Embedding)
		}
	}
	return 0
}

// Validate reports every document whose embedding length disagrees with the
// corpus dimension.
func (c *Corpus) Validate() []*DimensionMismatchError {
	dim := c.Dimension()
	var errs []*DimensionMismatchError
	for i, doc := range c.docs {
		if doc.HasEmbedding() && len(doc.Embedding) != dim {
			errs = append(errs, &DimensionMismatchError{Index: i, Name: doc.Name, Want: dim, Got: len(doc.Embedding)})
		}
	}
	return errs
}

// SortByName orders the documents by name. Directory listing order is
// platform dependent, so callers wanting reproducible snapshots sort first.
func (c *Corpus) SortByName() {
	slices.SortStableFunc(c.docs, func(a, b models.Document) int {
		return strings.Compare(a.Name, b.Name)
	})
}
