package models

// Document is one sample project in the corpus.
type Document struct {
	Name       string
	Prompt     string
	Language   string
	Readme     string
	Code       string
	Codespaces string
	Embedding  []float32
}

// HasEmbedding reports whether a vector has been computed for the document.
func (d Document) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// SimilarityResult pairs a document with its score against a query.
// Index is the document's position in the corpus it was ranked from.
type SimilarityResult struct {
	Document   Document
	Index      int
	Similarity float64
}
